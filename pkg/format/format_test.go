package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

func TestUnparse_LetWithBinaryExpr(t *testing.T) {
	mod := []ast.Stmt{
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "x",
			Value: &ast.Binary{
				Left:  &ast.Literal{Raw: "1"},
				Op:    token.PLUS,
				Right: &ast.Literal{Raw: "2"},
			},
		},
	}
	out := Unparse(mod)
	assert.Contains(t, out, "let x = 1 + 2")
}

func TestUnparse_StringLiteralRegainsQuotes(t *testing.T) {
	mod := []ast.Stmt{
		&ast.VarDef{Kind: ast.VarLet, Name: "x", Value: &ast.Literal{Kind: token.LitString, Raw: "hi"}},
	}
	out := Unparse(mod)
	assert.Contains(t, out, `let x = "hi"`)
}

func TestUnparse_PipelineJoinsWithPipe(t *testing.T) {
	mod := []ast.Stmt{
		&ast.VarDef{
			Kind: ast.VarMain,
			Value: &ast.Pipeline{Exprs: []ast.Expr{
				&ast.FuncCall{Callee: &ast.Ident{Parts: []string{"from"}}, Args: []ast.Expr{&ast.Ident{Parts: []string{"employees"}}}},
				&ast.FuncCall{Callee: &ast.Ident{Parts: []string{"select"}}, Args: []ast.Expr{
					&ast.Tuple{Elems: []ast.TupleElem{{Value: &ast.Ident{Parts: []string{"id"}}}}},
				}},
			}},
		},
	}
	out := Unparse(mod)
	assert.Contains(t, out, "from employees | select {id}")
}

func TestUnparse_ModuleNestsWithBraces(t *testing.T) {
	mod := []ast.Stmt{
		&ast.ModuleDef{Name: "helpers", Stmts: []ast.Stmt{
			&ast.VarDef{Kind: ast.VarLet, Name: "y", Value: &ast.Literal{Raw: "1"}},
		}},
	}
	out := Unparse(mod)
	assert.Contains(t, out, "module helpers {")
	assert.Contains(t, out, "let y = 1")
	assert.Contains(t, out, "}")
}

func TestModule_NilReturnsEmptyString(t *testing.T) {
	require.Equal(t, "", Module(nil))
}

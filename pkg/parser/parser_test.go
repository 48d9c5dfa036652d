package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

func parseOneMain(t *testing.T, src string) *ast.VarDef {
	t.Helper()
	stmts, errs := Parse(1, src)
	require.False(t, errs.HasErrors(), "unexpected parse errors: %v", errs)
	require.Len(t, stmts, 1)
	v, ok := stmts[0].(*ast.VarDef)
	require.True(t, ok, "expected VarDef, got %T", stmts[0])
	return v
}

func TestParse_PrecedenceMulBeforeAdd(t *testing.T) {
	v := parseOneMain(t, "derive a + b * c")
	call := v.Value.(*ast.FuncCall)
	require.Len(t, call.Args, 1)
	bin := call.Args[0].(*ast.Binary)
	assert.Equal(t, token.PLUS, bin.Op)
	rhs := bin.Right.(*ast.Binary)
	assert.Equal(t, token.STAR, rhs.Op)
}

func TestParse_PrecedencePowRightAssociative(t *testing.T) {
	v := parseOneMain(t, "derive a ** b ** c")
	call := v.Value.(*ast.FuncCall)
	bin := call.Args[0].(*ast.Binary)
	assert.Equal(t, token.POW, bin.Op)
	_, ok := bin.Right.(*ast.Binary)
	assert.True(t, ok, "exponent should nest on the right")
	_, ok = bin.Left.(*ast.Ident)
	assert.True(t, ok, "left side should be the bare base, not re-grouped")
}

func TestParse_AliasScopeAttachesToArgumentNotTransform(t *testing.T) {
	v := parseOneMain(t, "derive x = 5")
	call := v.Value.(*ast.FuncCall)
	require.Len(t, call.Args, 1)
	alias, ok := call.Args[0].(*ast.AliasOf)
	require.True(t, ok, "expected alias attached to the argument")
	assert.Equal(t, "x", alias.Alias)
	lit := alias.Expr.(*ast.Literal)
	assert.Equal(t, "5", lit.Raw)
}

func TestParse_PipelineMultiline(t *testing.T) {
	src := "from employees\nfilter age > 20\nselect name"
	stmts, errs := Parse(1, src)
	require.False(t, errs.HasErrors())
	require.Len(t, stmts, 1)
	v := stmts[0].(*ast.VarDef)
	pipe := v.Value.(*ast.Pipeline)
	assert.Len(t, pipe.Exprs, 3)
}

func TestParse_LetWithTypeAnnotation(t *testing.T) {
	stmts, errs := Parse(1, "let x <int> = 5")
	require.False(t, errs.HasErrors())
	v := stmts[0].(*ast.VarDef)
	require.NotNil(t, v.Ty)
	assert.Equal(t, "x", v.Name)
}

func TestParse_RecoversAfterIllegalToken(t *testing.T) {
	stmts, errs := Parse(1, "let x = §\nlet y = 1")
	assert.True(t, errs.HasErrors())
	require.Len(t, stmts, 2)
}

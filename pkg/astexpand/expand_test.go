package astexpand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

func ident(parts ...string) *ast.Ident { return &ast.Ident{Parts: parts} }

func TestExpand_BinaryAddBecomesStdCall(t *testing.T) {
	bin := &ast.Binary{Left: ident("a"), Op: token.PLUS, Right: ident("b")}
	got := expandExpr(bin)
	call, ok := got.(*ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "std.add", call.Callee.(*ast.Ident).String())
	require.Len(t, call.Args, 2)
}

func TestExpand_PowSwapsArgumentOrder(t *testing.T) {
	bin := &ast.Binary{Left: ident("base"), Op: token.POW, Right: ident("exp")}
	call := expandExpr(bin).(*ast.FuncCall)
	assert.Equal(t, "std.math.pow", call.Callee.(*ast.Ident).String())
	assert.Equal(t, "exp", call.Args[0].(*ast.Ident).String())
	assert.Equal(t, "base", call.Args[1].(*ast.Ident).String())
}

func TestExpand_SelfEqualitySugar(t *testing.T) {
	u := &ast.Unary{Op: token.TILDE, Expr: ident("id")}
	call := expandExpr(u).(*ast.FuncCall)
	assert.Equal(t, "std.eq", call.Callee.(*ast.Ident).String())
	assert.Equal(t, "this.id", call.Args[0].(*ast.Ident).String())
	assert.Equal(t, "that.id", call.Args[1].(*ast.Ident).String())
}

func TestExpand_RangeBecomesTuple(t *testing.T) {
	r := &ast.Range{Start: &ast.Literal{Raw: "1"}, End: &ast.Literal{Raw: "10"}}
	tup := expandExpr(r).(*ast.Tuple)
	require.Len(t, tup.Elems, 2)
	assert.Equal(t, "start", tup.Elems[0].Alias)
	assert.Equal(t, "end", tup.Elems[1].Alias)
}

func TestExpand_PipelineFoldsIntoNestedCalls(t *testing.T) {
	pipe := &ast.Pipeline{Exprs: []ast.Expr{
		ident("from_table"),
		&ast.FuncCall{Callee: ident("filter"), Args: []ast.Expr{ident("cond")}},
	}}
	call := expandExpr(pipe).(*ast.FuncCall)
	assert.Equal(t, "filter", call.Callee.(*ast.Ident).String())
	require.Len(t, call.Args, 2)
	assert.Equal(t, "cond", call.Args[0].(*ast.Ident).String())
	assert.Equal(t, "from_table", call.Args[1].(*ast.Ident).String())
}

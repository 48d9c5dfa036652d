package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/resolver"
	"github.com/leapstack-labs/pqlc/pkg/rq"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// These trees are written in the already-desugared form astexpand
// produces (relation argument last), the same convention pkg/resolver's
// own tests use, so lowering is exercised directly against the resolver
// without re-deriving surface PQL syntax this package has no stake in.

func ident(parts ...string) *ast.Ident { return &ast.Ident{Parts: parts} }

func tuple(elems ...ast.TupleElem) *ast.Tuple { return &ast.Tuple{Elems: elems} }

func call(callee ast.Expr, args ...ast.Expr) *ast.FuncCall {
	return &ast.FuncCall{Callee: callee, Args: args}
}

func tableDef(name string, fields ...types.Field) *ast.VarDef {
	return &ast.VarDef{
		Kind:  ast.VarLet,
		Name:  name,
		Ty:    types.RelationTy(fields...),
		Value: &ast.Internal{Name: "table"},
	}
}

func lowerMain(t *testing.T, mod *ast.ModuleDef) *rq.RelationalQuery {
	t.Helper()
	root, err := resolver.Resolve(mod, resolver.Options{})
	require.NoError(t, err)
	ir, _, err := LowerToIR(root, []string{decl.NsMain})
	require.NoError(t, err)
	return ir
}

func mainDef(value ast.Expr) *ast.VarDef {
	return &ast.VarDef{Kind: ast.VarMain, Name: decl.NsMain, Value: value}
}

func TestLowerToIR_SelectProducesFromAndSelect(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		tableDef("employees",
			types.Field{Kind: types.FieldSingle, Name: "id", Ty: types.PrimitiveTy(types.Int)},
			types.Field{Kind: types.FieldSingle, Name: "name", Ty: types.PrimitiveTy(types.Text)},
		),
		mainDef(call(ident("select"),
			tuple(ast.TupleElem{Value: ident("id")}, ast.TupleElem{Value: ident("name")}),
			call(ident("from"), ident("employees")),
		)),
	}}

	ir := lowerMain(t, mod)
	require.Len(t, ir.Relation.Pipeline, 2)
	assert.Equal(t, rq.TFrom, ir.Relation.Pipeline[0].Kind)
	assert.Equal(t, rq.TSelect, ir.Relation.Pipeline[1].Kind)
	assert.Len(t, ir.Tables, 1)
}

func TestLowerToIR_FilterSortTakeChain(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		tableDef("employees",
			types.Field{Kind: types.FieldSingle, Name: "id", Ty: types.PrimitiveTy(types.Int)},
			types.Field{Kind: types.FieldSingle, Name: "salary", Ty: types.PrimitiveTy(types.Int)},
		),
		mainDef(call(ident("take"),
			&ast.Literal{Raw: "10"},
			call(ident("sort"),
				tuple(ast.TupleElem{Value: ident("salary")}),
				call(ident("filter"),
					call(ident("std", "gt"), ident("salary"), &ast.Literal{Raw: "1000"}),
					call(ident("from"), ident("employees")),
				),
			),
		)),
	}}

	ir := lowerMain(t, mod)
	kinds := make([]rq.TransformKindTag, len(ir.Relation.Pipeline))
	for i, step := range ir.Relation.Pipeline {
		kinds[i] = step.Kind
	}
	assert.Equal(t, []rq.TransformKindTag{rq.TFrom, rq.TFilter, rq.TSort, rq.TTake}, kinds)
}

func TestLowerToIR_JoinRegistersBothTables(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		tableDef("employees",
			types.Field{Kind: types.FieldSingle, Name: "id", Ty: types.PrimitiveTy(types.Int)},
			types.Field{Kind: types.FieldSingle, Name: "dept_id", Ty: types.PrimitiveTy(types.Int)},
		),
		tableDef("departments",
			types.Field{Kind: types.FieldSingle, Name: "id", Ty: types.PrimitiveTy(types.Int)},
		),
		mainDef(call(ident("join"),
			call(ident("from"), ident("departments")),
			call(ident("std", "eq"), ident("this", "dept_id"), ident("that", "id")),
			call(ident("from"), ident("employees")),
		)),
	}}

	ir := lowerMain(t, mod)
	assert.GreaterOrEqual(t, len(ir.Tables), 2)
	last := ir.Relation.Pipeline[len(ir.Relation.Pipeline)-1]
	assert.Equal(t, rq.TJoin, last.Kind)
}

func TestLowerToIR_AggregateInsideGroup(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		tableDef("employees",
			types.Field{Kind: types.FieldSingle, Name: "dept_id", Ty: types.PrimitiveTy(types.Int)},
			types.Field{Kind: types.FieldSingle, Name: "salary", Ty: types.PrimitiveTy(types.Int)},
		),
		mainDef(call(ident("group"),
			tuple(ast.TupleElem{Value: ident("dept_id")}),
			call(ident("aggregate"),
				tuple(ast.TupleElem{Alias: "total", Value: call(ident("std", "sum"), ident("salary"))}),
			),
			call(ident("from"), ident("employees")),
		)),
	}}

	ir := lowerMain(t, mod)
	var sawAggregate bool
	for _, step := range ir.Relation.Pipeline {
		if step.Kind == rq.TAggregate {
			sawAggregate = true
		}
	}
	assert.True(t, sawAggregate)
}

func TestLowerToIR_UnknownMainPathFails(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		&ast.VarDef{Kind: ast.VarLet, Name: "x", Value: &ast.Literal{Raw: "1"}},
	}}
	root, err := resolver.Resolve(mod, resolver.Options{})
	require.NoError(t, err)

	_, _, err = LowerToIR(root, []string{"does_not_exist"})
	assert.Error(t, err)
}

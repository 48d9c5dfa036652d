package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

func ident(parts ...string) *ast.Ident { return &ast.Ident{Parts: parts} }

func tuple(elems ...ast.TupleElem) *ast.Tuple { return &ast.Tuple{Elems: elems} }

func call(callee ast.Expr, args ...ast.Expr) *ast.FuncCall {
	return &ast.FuncCall{Callee: callee, Args: args}
}

func employeesTableDef() *ast.VarDef {
	return &ast.VarDef{
		Kind:  ast.VarLet,
		Name:  "employees",
		Ty:    types.RelationTy(types.Field{Kind: types.FieldSingle, Name: "id", Ty: types.PrimitiveTy(types.Int)}, types.Field{Kind: types.FieldSingle, Name: "name", Ty: types.PrimitiveTy(types.Text)}),
		Value: &ast.Internal{Name: "table"},
	}
}

func TestResolve_LetDeclaresExprWithUniqueID(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		employeesTableDef(),
		&ast.VarDef{Kind: ast.VarLet, Name: "other", Value: &ast.Literal{Raw: "1"}},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	empDecl, ok := root.Module.Get("employees")
	require.True(t, ok)
	otherDecl, ok := root.Module.Get("other")
	require.True(t, ok)
	assert.NotEqual(t, empDecl.Expr.ID, otherDecl.Expr.ID)
	assert.NotZero(t, empDecl.Expr.ID)
	assert.NotZero(t, otherDecl.Expr.ID)
}

func TestResolve_SelectProducesLineageFromAssigns(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		employeesTableDef(),
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "x",
			Value: call(ident("select"),
				tuple(ast.TupleElem{Value: ident("id")}, ast.TupleElem{Value: ident("name")}),
				call(ident("from"), ident("employees")),
			),
		},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	d, ok := root.Module.Get("x")
	require.True(t, ok)
	require.Equal(t, pl.KindTransformCall, d.Expr.Kind)
	require.Len(t, d.Expr.Lineage.Columns, 2)
	assert.Equal(t, "id", d.Expr.Lineage.Columns[0].Name)
	assert.Equal(t, "name", d.Expr.Lineage.Columns[1].Name)
	assert.Equal(t, pl.TSelect, d.Expr.Transform.Kind)
}

func TestResolve_FilterPassesThroughLineage(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		employeesTableDef(),
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "x",
			Value: call(ident("filter"),
				call(ident("std", "gt"), ident("id"), &ast.Literal{Raw: "0"}),
				call(ident("from"), ident("employees")),
			),
		},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	d, ok := root.Module.Get("x")
	require.True(t, ok)
	require.Equal(t, pl.TFilter, d.Expr.Transform.Kind)
	require.Len(t, d.Expr.Lineage.Columns, 2)
	require.Equal(t, pl.KindRqOperator, d.Expr.Transform.Predicate.Kind)
	assert.Equal(t, "gt", d.Expr.Transform.Predicate.OpName)
}

func TestResolve_JoinScopesThisAndThat(t *testing.T) {
	deptTable := &ast.VarDef{
		Kind:  ast.VarLet,
		Name:  "departments",
		Ty:    types.RelationTy(types.Field{Kind: types.FieldSingle, Name: "id", Ty: types.PrimitiveTy(types.Int)}),
		Value: &ast.Internal{Name: "table"},
	}
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		employeesTableDef(),
		deptTable,
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "x",
			Value: call(ident("join"),
				call(ident("from"), ident("departments")),
				call(ident("std", "eq"), ident("this", "id"), ident("that", "id")),
				call(ident("from"), ident("employees")),
			),
		},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	d, ok := root.Module.Get("x")
	require.True(t, ok)
	require.Equal(t, pl.TJoin, d.Expr.Transform.Kind)
	require.Len(t, d.Expr.Lineage.Columns, 3)
	assert.Equal(t, pl.KindRqOperator, d.Expr.Transform.Predicate.Kind)
	assert.Equal(t, "eq", d.Expr.Transform.Predicate.OpName)
}

func TestResolve_SaturatedUserCallSubstitutesAndFoldsBody(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "triple",
			Value: &ast.Func{
				Params: []ast.FuncParam{{Name: "x"}},
				Body:   call(ident("std", "mul"), ident("x"), &ast.Literal{Raw: "3"}),
			},
		},
		&ast.VarDef{
			Kind:  ast.VarLet,
			Name:  "y",
			Value: call(ident("triple"), &ast.Literal{Raw: "5"}),
		},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	d, ok := root.Module.Get("y")
	require.True(t, ok)
	require.Equal(t, pl.KindRqOperator, d.Expr.Kind)
	require.Equal(t, "mul", d.Expr.OpName)
	require.Len(t, d.Expr.Args, 2)
	assert.Equal(t, pl.KindLiteral, d.Expr.Args[0].Kind)
	assert.Equal(t, "5", d.Expr.Args[0].Raw)
	assert.Equal(t, "3", d.Expr.Args[1].Raw)
}

func TestResolve_PartialUserCallKeepsAccumulatingArgs(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "add",
			Value: &ast.Func{
				Params: []ast.FuncParam{{Name: "a"}, {Name: "b"}},
				Body:   call(ident("std", "add"), ident("a"), ident("b")),
			},
		},
		&ast.VarDef{
			Kind:  ast.VarLet,
			Name:  "incr",
			Value: call(ident("add"), &ast.Literal{Raw: "1"}),
		},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	d, ok := root.Module.Get("incr")
	require.True(t, ok)
	require.Equal(t, pl.KindFunc, d.Expr.Kind)
	require.Len(t, d.Expr.Func.Args, 1)
	assert.Equal(t, "1", d.Expr.Func.Args[0].Raw)
}

func TestResolve_TupleIndirectionRewritesToPosition(t *testing.T) {
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		&ast.VarDef{
			Kind: ast.VarLet,
			Name: "pair",
			Value: &ast.Tuple{Elems: []ast.TupleElem{
				{Alias: "a", Value: &ast.Literal{Kind: token.LitInt, Raw: "1"}},
				{Alias: "b", Value: &ast.Literal{Kind: token.LitInt, Raw: "2"}},
			}},
		},
		&ast.VarDef{
			Kind:  ast.VarLet,
			Name:  "x",
			Value: &ast.Indirection{Base: ident("pair"), Kind: ast.IndirName, Name: "b"},
		},
	}}
	root, err := Resolve(mod, Options{})
	require.NoError(t, err)

	d, ok := root.Module.Get("x")
	require.True(t, ok)
	require.Equal(t, pl.KindIndirection, d.Expr.Kind)
	assert.Equal(t, 2, d.Expr.Position)
	require.NotNil(t, d.Expr.Ty)
	assert.Equal(t, types.Int, d.Expr.Ty.Prim)
}

func TestResolve_AmbiguousTupleFieldFails(t *testing.T) {
	pairTy := types.TupleTy(
		types.Field{Kind: types.FieldSingle, Name: "a", Ty: types.PrimitiveTy(types.Int)},
		types.Field{Kind: types.FieldSingle, Name: "a", Ty: types.PrimitiveTy(types.Text)},
	)
	mod := &ast.ModuleDef{Stmts: []ast.Stmt{
		&ast.VarDef{Kind: ast.VarLet, Name: "pair", Ty: pairTy, Value: &ast.Internal{Name: "table"}},
		&ast.VarDef{
			Kind:  ast.VarLet,
			Name:  "x",
			Value: &ast.Indirection{Base: ident("pair"), Kind: ast.IndirName, Name: "a"},
		},
	}}
	_, err := Resolve(mod, Options{})
	assert.Error(t, err)
}

package moduletree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/pkg/ast"
)

func findModule(stmts []ast.Stmt, name string) *ast.ModuleDef {
	for _, s := range stmts {
		if m, ok := s.(*ast.ModuleDef); ok && m.Name == name {
			return m
		}
	}
	return nil
}

func TestCompose_SingleFileBecomesRoot(t *testing.T) {
	root, sources, errs := Compose(map[string]string{
		"query.prql": "let x = 1",
	})
	require.False(t, errs.HasErrors(), errs.Error())
	require.Contains(t, sources, "query.prql")

	var found bool
	for _, s := range root.Stmts {
		if v, ok := s.(*ast.VarDef); ok && v.Name == "x" {
			found = true
		}
	}
	assert.True(t, found, "root-selected single file's statements should be inlined at the top level")
}

func TestCompose_AlwaysPrependsStd(t *testing.T) {
	root, _, errs := Compose(map[string]string{
		"query.prql": "let x = 1",
	})
	require.False(t, errs.HasErrors(), errs.Error())

	std := findModule(root.Stmts, "std")
	require.NotNil(t, std, "std module should always be present")

	var hasAdd bool
	for _, s := range std.Stmts {
		if v, ok := s.(*ast.VarDef); ok && v.Name == "add" {
			hasAdd = true
		}
	}
	assert.True(t, hasAdd, "std module should declare the add operator")
}

func TestCompose_NestedFileBecomesSubmodule(t *testing.T) {
	root, _, errs := Compose(map[string]string{
		"": "let main_thing = 1",
		"models/staging.prql": "let stg = 1",
	})
	require.False(t, errs.HasErrors(), errs.Error())

	models := findModule(root.Stmts, "models")
	require.NotNil(t, models)
	staging := findModule(models.Stmts, "staging")
	require.NotNil(t, staging)

	var found bool
	for _, s := range staging.Stmts {
		if v, ok := s.(*ast.VarDef); ok && v.Name == "stg" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompose_AmbiguousRootFails(t *testing.T) {
	_, _, errs := Compose(map[string]string{
		"a.prql": "let x = 1",
		"b.prql": "let y = 1",
	})
	assert.True(t, errs.HasErrors())
}

func TestCompose_UppercaseRootDisambiguates(t *testing.T) {
	root, _, errs := Compose(map[string]string{
		"Main.prql":    "let root_thing = 1",
		"helpers.prql": "let helper_thing = 1",
	})
	require.False(t, errs.HasErrors(), errs.Error())

	var found bool
	for _, s := range root.Stmts {
		if v, ok := s.(*ast.VarDef); ok && v.Name == "root_thing" {
			found = true
		}
	}
	assert.True(t, found)
	assert.NotNil(t, findModule(root.Stmts, "helpers"))
}

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqlc/internal/testutil"
	"github.com/leapstack-labs/pqlc/pkg/decl"
)

func TestParseResolveLower_SimpleFromSelect(t *testing.T) {
	sources := map[string]string{
		"": "let employees <[{id: int, name: text}]> = internal table\n" +
			"from employees | select {id, name}\n",
	}
	pr, err := Parse(sources)
	require.NoError(t, err)
	require.NotNil(t, pr)

	ir, err := ResolveAndLower(pr, []string{decl.NsMain})
	require.NoError(t, err)
	require.NotNil(t, ir)
	assert.NotEmpty(t, ir.Relation.Pipeline)
}

func TestParse_AmbiguousRootFails(t *testing.T) {
	_, err := Parse(map[string]string{
		"a.prql": "let x = 1",
		"b.prql": "let y = 1",
	})
	assert.Error(t, err)
}

func TestPLToSource_RoundTripsLet(t *testing.T) {
	pr, err := Parse(map[string]string{"": "let x = 1"})
	require.NoError(t, err)
	out := PLToSource(pr)
	assert.Contains(t, out, "let x = 1")
}

func TestResolve_WithCustomLoggerTagsCompileID(t *testing.T) {
	pr, err := Parse(map[string]string{"": "let x = 1"})
	require.NoError(t, err)

	root, err := Resolve(pr, ResolveOptions{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	assert.NotNil(t, root)
}

package lexer

import (
	"testing"

	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestLex_StringQuoteRuns(t *testing.T) {
	for _, n := range []int{1, 3, 5, 7} {
		quote := ""
		for i := 0; i < n; i++ {
			quote += "'"
		}
		src := quote + "x" + quote
		toks, errs := Lex(0, src)
		require.Empty(t, errs)
		require.GreaterOrEqual(t, len(toks), 2)
		lit := toks[1]
		assert.Equal(t, token.LITERAL, lit.Type, "n=%d", n)
		assert.Equal(t, token.LitString, lit.LiteralKind)
		assert.Equal(t, "x", lit.Literal, "n=%d", n)
	}
}

func TestLex_EmptyStringEvenRun(t *testing.T) {
	toks, errs := Lex(0, "''")
	require.Empty(t, errs)
	assert.Equal(t, "", toks[1].Literal)
}

func TestLex_NumericLiterals(t *testing.T) {
	toks, errs := Lex(0, "2_000.5e-1")
	require.Empty(t, errs)
	assert.Equal(t, token.LitFloat, toks[1].LiteralKind)

	toks, errs = Lex(0, "0b1010")
	require.Empty(t, errs)
	assert.Equal(t, token.LitInt, toks[1].LiteralKind)
	assert.Equal(t, "0b1010", toks[1].Literal)

	toks, errs = Lex(0, "0xFF")
	require.Empty(t, errs)
	assert.Equal(t, token.LitInt, toks[1].LiteralKind)
}

func TestLex_ValueUnit(t *testing.T) {
	toks, errs := Lex(0, "5days")
	require.Empty(t, errs)
	assert.Equal(t, token.LitValueUnit, toks[1].LiteralKind)
	assert.Equal(t, "5days", toks[1].Literal)
}

func TestLex_RangeBinding(t *testing.T) {
	toks, _ := Lex(0, "1..2")
	var rng token.Token
	for _, tk := range toks {
		if tk.Type == token.RANGE {
			rng = tk
		}
	}
	assert.True(t, rng.BindLeft)
	assert.True(t, rng.BindRight)

	toks, _ = Lex(0, "1 ..2")
	for _, tk := range toks {
		if tk.Type == token.RANGE {
			rng = tk
		}
	}
	assert.False(t, rng.BindLeft)
}

func TestLex_Keywords(t *testing.T) {
	toks, errs := Lex(0, "let x = select")
	require.Empty(t, errs)
	types := tokenTypes(toks)
	assert.Contains(t, types, token.KW_LET)
	// `select` is NOT a reserved keyword: it resolves to std.select later.
	var sel token.Token
	for _, tk := range toks {
		if tk.Literal == "select" {
			sel = tk
		}
	}
	assert.Equal(t, token.IDENT, sel.Type)
}

func TestLex_RecoversFromIllegalChar(t *testing.T) {
	toks, errs := Lex(0, "a ` b")
	require.Len(t, errs, 1)
	types := tokenTypes(toks)
	assert.Contains(t, types, token.IDENT)
	assert.Contains(t, types, token.ILLEGAL)
	// Lexing continues past the bad byte instead of aborting.
	assert.Equal(t, token.EOF, toks[len(toks)-1].Type)
}

func TestLex_Param(t *testing.T) {
	toks, errs := Lex(0, "$my_param")
	require.Empty(t, errs)
	assert.Equal(t, token.PARAM, toks[1].Type)
	assert.Equal(t, "my_param", toks[1].Literal)
}

func TestLex_Interpolation(t *testing.T) {
	toks, errs := Lex(0, `s"select {x} from t"`)
	require.Empty(t, errs)
	assert.Equal(t, token.SSTRING, toks[1].Type)
	assert.Equal(t, byte('s'), toks[1].InterpChar)
	assert.Equal(t, "select {x} from t", toks[1].Literal)
}

func TestLex_DocComment(t *testing.T) {
	toks, errs := Lex(0, "#! a doc comment\nlet x = 1")
	require.Empty(t, errs)
	assert.Equal(t, token.DOCCOMMENT, toks[1].Type)
	assert.Equal(t, "a doc comment", toks[1].Literal)
}

func TestLex_LineContinuation(t *testing.T) {
	toks, errs := Lex(0, "1 +\\\n  2")
	require.Empty(t, errs)
	types := tokenTypes(toks)
	assert.NotContains(t, types, token.NEWLINE)
}

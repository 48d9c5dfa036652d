package parser

import (
	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/diagnostics"
	"github.com/leapstack-labs/pqlc/pkg/lexer"
)

// splitInterp splits the raw body of an `s"..."`/`f"..."` token into
// literal-text and `{expr}` parts, re-lexing and re-parsing each embedded
// expression against the same source id so its spans stay addressable
// (spec §3.1's interpolation grammar).
func splitInterp(raw string, sourceID int, errs *diagnostics.Errors) []ast.InterpPart {
	var parts []ast.InterpPart
	var lit []byte
	i := 0
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit = append(lit, '{')
			i += 2
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit = append(lit, '}')
			i += 2
		case c == '{':
			if len(lit) > 0 {
				parts = append(parts, ast.InterpPart{Text: string(lit)})
				lit = nil
			}
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			exprSrc := raw[i+1 : j]
			toks, lexErrs := lexer.Lex(sourceID, exprSrc)
			*errs = append(*errs, lexErrs...)
			sub := New(sourceID, toks)
			e := sub.parseCallExpr()
			*errs = append(*errs, sub.errs...)
			parts = append(parts, ast.InterpPart{Expr: e})
			i = j + 1
		default:
			lit = append(lit, c)
			i++
		}
	}
	if len(lit) > 0 {
		parts = append(parts, ast.InterpPart{Text: string(lit)})
	}
	return parts
}

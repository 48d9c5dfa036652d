package resolver

import (
	"github.com/leapstack-labs/pqlc/pkg/diagnostics"
	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// validateType implements spec §4.5.5's validate_type(found, expected): a
// structural subtype check against pkg/types.Subtype, returning a
// diagnostic (with any contextual hints) on mismatch and nil otherwise. A
// nil found or expected type imposes no constraint, since not every node
// carries a fully inferred type. The returned error is a *diagnostics.Error,
// so it composes with the rest of the resolver's plain-error propagation
// and still renders its hints wherever it is eventually reported.
func validateType(span token.Span, context string, found, expected *types.Ty, hints ...string) error {
	if found == nil || expected == nil {
		return nil
	}
	if types.Subtype(found, expected) {
		return nil
	}
	sp := span
	e := diagnostics.New(diagnostics.KindSimple, &sp, "%s: expected %s, found %s", context, describeTy(expected), describeTy(found))
	for _, h := range hints {
		e.WithHint(h)
	}
	return e
}

// describeTy renders a Ty for diagnostic messages. It is deliberately
// shallow: enough to tell a reader "tuple" from "int" from "a function",
// not a full structural printer.
func describeTy(t *types.Ty) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case types.KindAny:
		return "anytype"
	case types.KindPrimitive:
		switch t.Prim {
		case types.Int:
			return "int"
		case types.Float:
			return "float"
		case types.Bool:
			return "bool"
		case types.Text:
			return "text"
		case types.Date:
			return "date"
		case types.Time:
			return "time"
		case types.Timestamp:
			return "timestamp"
		default:
			return "primitive"
		}
	case types.KindTuple:
		return "tuple"
	case types.KindArray:
		return "array(" + describeTy(t.Elem) + ")"
	case types.KindFunction:
		return "function"
	case types.KindUnion:
		return "union"
	case types.KindSingleton:
		return t.Literal
	case types.KindIdent:
		return t.Name
	default:
		return "unknown"
	}
}

package types

// Subtype reports whether `sub` is a structural subtype of `super`, per
// spec §3.3: Any is top; a Union is a supertype iff all of its variants
// are; function types are contravariant in parameters and covariant in
// return type; tuples are checked field-wise, with a trailing
// wildcard/unpack field acting as "rest" (matching any remaining fields
// of the other side).
func Subtype(sub, super *Ty) bool {
	if super == nil || sub == nil {
		return true // an absent type imposes no constraint
	}
	if super.Kind == KindAny {
		return true
	}
	if super.Kind == KindUnion {
		for _, v := range super.Variants {
			if Subtype(sub, v) {
				return true
			}
		}
		return false
	}
	if sub.Kind == KindUnion {
		for _, v := range sub.Variants {
			if !Subtype(v, super) {
				return false
			}
		}
		return true
	}

	switch super.Kind {
	case KindPrimitive:
		return sub.Kind == KindPrimitive && sub.Prim == super.Prim
	case KindSingleton:
		return sub.Kind == KindSingleton && sub.Literal == super.Literal
	case KindArray:
		if sub.Kind != KindArray {
			return false
		}
		if super.Elem == nil {
			return true
		}
		return Subtype(sub.Elem, super.Elem)
	case KindTuple:
		return sub.Kind == KindTuple && tupleSubtype(sub.Fields, super.Fields)
	case KindFunction:
		if sub.Kind != KindFunction || sub.Func == nil || super.Func == nil {
			return false
		}
		return funcSubtype(sub.Func, super.Func)
	case KindIdent:
		return sub.Kind == KindIdent && sub.Name == super.Name
	default:
		return true
	}
}

// tupleSubtype checks fields of `sub` against `super` in order. A trailing
// Unpack field in `super` (an open tuple) matches any remaining fields of
// `sub` without constraining them further.
func tupleSubtype(sub, super []Field) bool {
	si := 0
	for _, sf := range super {
		if sf.Kind == FieldUnpack {
			return true // open tail: the rest of sub is unconstrained
		}
		if si >= len(sub) {
			return false
		}
		subField := sub[si]
		if subField.Kind == FieldUnpack {
			return true
		}
		if sf.Name != "" && subField.Name != sf.Name {
			return false
		}
		if sf.Ty != nil && !Subtype(subField.Ty, sf.Ty) {
			return false
		}
		si++
	}
	return true
}

// funcSubtype implements contravariance in parameters, covariance in
// return type.
func funcSubtype(sub, super *TyFunc) bool {
	if len(sub.Params) != len(super.Params) {
		return false
	}
	for i := range sub.Params {
		// contravariant: super's param type must be a subtype of sub's
		if !Subtype(super.Params[i], sub.Params[i]) {
			return false
		}
	}
	return Subtype(sub.Return, super.Return)
}

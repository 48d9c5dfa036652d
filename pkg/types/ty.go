// Package types implements the PQL type system of spec §3.3: primitives,
// tuples with wildcard/unpack fields, arrays (relations are Array(Tuple)),
// function types, and structural unions, plus the structural subtyping
// relation used throughout resolution.
package types

import "github.com/leapstack-labs/pqlc/pkg/token"

// Kind tags the variant of a Ty.
type Kind int

// Ty kinds.
const (
	KindIdent Kind = iota // unresolved type reference, e.g. `int` before lookup
	KindPrimitive
	KindTuple
	KindArray
	KindFunction
	KindUnion
	KindAny
	KindSingleton // a single literal value as a type, e.g. a case tag
)

// Primitive enumerates the scalar primitive types.
type Primitive int

// Primitive kinds.
const (
	Int Primitive = iota
	Float
	Bool
	Text
	Date
	Time
	Timestamp
)

// FieldKind distinguishes a plain tuple field from a splice ("unpack").
type FieldKind int

// Field kinds.
const (
	FieldSingle FieldKind = iota
	FieldUnpack
)

// Field is one element of a Tuple type.
type Field struct {
	Kind FieldKind
	Name string // FieldSingle only; may be "" for a positional field
	Ty   *Ty    // may be nil if not yet inferred
}

// TyFunc describes a Function type's parameters and return type.
type TyFunc struct {
	Params   []*Ty
	Return   *Ty
	NameHint string
}

// Ty is the universal type representation of spec §3.3. Exactly one kind's
// fields are meaningful for a given Kind value.
type Ty struct {
	Kind Kind
	Span *token.Span
	Name string // KindIdent: the unresolved reference name

	Prim     Primitive // KindPrimitive
	Fields   []Field   // KindTuple
	Elem     *Ty       // KindArray; nil means "unknown row type"
	Func     *TyFunc   // KindFunction
	Variants []*Ty     // KindUnion
	Literal  string    // KindSingleton

	// GenericID is set when this Ty stands for a generic type parameter
	// awaiting inference; 0 means "not generic".
	GenericID int
}

// Any is the top type.
func Any() *Ty { return &Ty{Kind: KindAny} }

// PrimitiveTy constructs a primitive type.
func PrimitiveTy(p Primitive) *Ty { return &Ty{Kind: KindPrimitive, Prim: p} }

// TupleTy constructs a tuple type, flattening any nested Unpack fields per
// spec §3.3 ("Multiple unpacks are flattened").
func TupleTy(fields ...Field) *Ty {
	return &Ty{Kind: KindTuple, Fields: FlattenFields(fields)}
}

// ArrayTy constructs an array type with the given element type (nil for
// "untyped array").
func ArrayTy(elem *Ty) *Ty { return &Ty{Kind: KindArray, Elem: elem} }

// RelationTy constructs the relation type `Array(Tuple(...))` — spec §3.3's
// invariant that relation types are always exactly this shape.
func RelationTy(rowFields ...Field) *Ty {
	return ArrayTy(TupleTy(rowFields...))
}

// IsRelation reports whether t is Array(Tuple(...)) or an array whose row
// type is unknown (nil Elem).
func IsRelation(t *Ty) bool {
	if t == nil || t.Kind != KindArray {
		return false
	}
	return t.Elem == nil || t.Elem.Kind == KindTuple
}

// FlattenFields inlines any Unpack field whose target type is itself known
// and tuple-shaped, so repeated unpacking never nests.
func FlattenFields(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Kind == FieldUnpack && f.Ty != nil && f.Ty.Kind == KindTuple {
			out = append(out, FlattenFields(f.Ty.Fields)...)
			continue
		}
		out = append(out, f)
	}
	return out
}

// FieldNames returns the names of a tuple's Single fields, in order,
// skipping Unpack and anonymous fields.
func FieldNames(t *Ty) []string {
	if t == nil || t.Kind != KindTuple {
		return nil
	}
	var names []string
	for _, f := range t.Fields {
		if f.Kind == FieldSingle && f.Name != "" {
			names = append(names, f.Name)
		}
	}
	return names
}

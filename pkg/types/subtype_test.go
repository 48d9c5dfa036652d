package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubtype_Primitive(t *testing.T) {
	assert.True(t, Subtype(PrimitiveTy(Int), PrimitiveTy(Int)))
	assert.False(t, Subtype(PrimitiveTy(Int), PrimitiveTy(Text)))
}

func TestSubtype_Any(t *testing.T) {
	assert.True(t, Subtype(PrimitiveTy(Int), Any()))
}

func TestSubtype_TupleFieldwiseWithRest(t *testing.T) {
	sub := TupleTy(
		Field{Kind: FieldSingle, Name: "a", Ty: PrimitiveTy(Int)},
		Field{Kind: FieldSingle, Name: "b", Ty: PrimitiveTy(Text)},
		Field{Kind: FieldSingle, Name: "c", Ty: PrimitiveTy(Bool)},
	)
	super := TupleTy(
		Field{Kind: FieldSingle, Name: "a", Ty: PrimitiveTy(Int)},
		Field{Kind: FieldUnpack},
	)
	assert.True(t, Subtype(sub, super))

	mismatched := TupleTy(Field{Kind: FieldSingle, Name: "a", Ty: PrimitiveTy(Text)})
	assert.False(t, Subtype(mismatched, super))
}

func TestSubtype_Union(t *testing.T) {
	u := &Ty{Kind: KindUnion, Variants: []*Ty{PrimitiveTy(Int), PrimitiveTy(Text)}}
	assert.True(t, Subtype(PrimitiveTy(Int), u))
	assert.False(t, Subtype(PrimitiveTy(Bool), u))
}

func TestSubtype_FunctionContravariantParamsCovariantReturn(t *testing.T) {
	sub := &Ty{Kind: KindFunction, Func: &TyFunc{
		Params: []*Ty{Any()},
		Return: PrimitiveTy(Int),
	}}
	super := &Ty{Kind: KindFunction, Func: &TyFunc{
		Params: []*Ty{PrimitiveTy(Int)},
		Return: Any(),
	}}
	assert.True(t, Subtype(sub, super))
}

func TestFlattenFields_MultipleUnpacksFlatten(t *testing.T) {
	inner := TupleTy(Field{Kind: FieldSingle, Name: "x", Ty: PrimitiveTy(Int)})
	outer := TupleTy(
		Field{Kind: FieldSingle, Name: "a"},
		Field{Kind: FieldUnpack, Ty: inner},
	)
	names := FieldNames(outer)
	assert.Equal(t, []string{"a", "x"}, names)
}

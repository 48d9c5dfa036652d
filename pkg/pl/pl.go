// Package pl implements PL, the semantic IR of spec §3.4: the resolved,
// typed, lineage-annotated form every PR expression is folded into by the
// resolver. It is grounded on the teacher's pkg/core resolved-AST shape
// (id-tagged nodes carrying a type and provenance), generalized from SQL
// expressions to PQL's relational pipeline semantics.
package pl

import "github.com/leapstack-labs/pqlc/pkg/types"

// ID is a monotonic node id, assigned by the resolver (spec §4.5's id
// generator). 0 means "unassigned".
type ID uint64

// ExprKind tags the variant of an Expr.
type ExprKind int

// Expr kinds.
const (
	KindIdent ExprKind = iota
	KindIndirection
	KindLiteral
	KindTuple
	KindArray
	KindAll
	KindTransformCall
	KindRqOperator
	KindFunc
	KindInternal
	KindParam
	KindSString
	KindFString
	KindCase
)

// Expr is the universal PL node. Exactly one kind's fields are meaningful
// for a given Kind value, mirroring spec §3.4.
type Expr struct {
	ID    ID
	Kind  ExprKind
	Alias string
	// TargetID is set when this expr directly refers to a previously
	// resolved node (an ident resolution target, a column reference).
	TargetID ID
	Ty       *types.Ty
	Lineage  *Lineage

	NeedsWindow bool
	Flatten     bool

	// Literal/ident payload.
	Raw   string
	Parts []string

	// Tuple/array elements.
	Elems []*Expr

	// All.
	AllWithin ID
	AllExcept []string
	AllTarget []ID

	// TransformCall.
	Transform *TransformCall

	// RqOperator.
	OpName string
	Args   []*Expr

	// Indirection: a resolved `base.name`/`base.N` access, rewritten to a
	// 1-based positional step into Args[0]'s tuple fields (spec §4.5.3).
	Position int

	// Func.
	Func *FuncVal

	// Internal.
	InternalName string

	// Param.
	ParamName string

	// SString/FString: interpolation parts.
	Interp []InterpPart

	// Case.
	Branches []CaseBranch
}

// InterpPart is a literal-text or embedded-expr segment of an
// interpolated string, mirroring ast.InterpPart post-desugaring.
type InterpPart struct {
	Text string
	Expr *Expr
}

// CaseBranch is one `cond => value` arm, post-desugaring.
type CaseBranch struct {
	Cond  *Expr
	Value *Expr
}

// TransformKind enumerates the eleven relational transforms (Loop included) of
// spec §4.6 / §3.6.
type TransformKind int

// Transform kinds.
const (
	TSelect TransformKind = iota
	TDerive
	TFilter
	TAggregate
	TSort
	TTake
	TJoin
	TGroup
	TWindow
	TAppend
	TLoop
)

// JoinSide mirrors spec §4.6's default-Inner join side.
type JoinSide int

// Join sides.
const (
	JoinInner JoinSide = iota
	JoinLeft
	JoinRight
	JoinFull
)

// WindowFrame captures the Rows/Range bound pair computed from
// expanding/rolling/rows/range arguments (spec §4.6).
type WindowFrame struct {
	Kind  string // "rows" or "range"
	Start *Expr  // nil means unbounded
	End   *Expr  // nil means unbounded
}

// SortKey is one `{direction, column}` sort entry, post `-x` desugaring.
type SortKey struct {
	Desc   bool
	Column *Expr
}

// TransformCall is a resolved relational-transform invocation (spec §3.4,
// §4.6).
type TransformCall struct {
	Kind      TransformKind
	Input     *Expr
	Assigns   []*Expr // Select/Derive/Aggregate tuple elements
	Predicate *Expr   // Filter
	By        []*Expr // Aggregate/Group partition keys
	Sort      []SortKey
	Range     *Expr // Take
	With      *Expr // Join/Append
	Side      JoinSide
	Pipeline  *Expr // Group/Window/Loop inner pipeline result
	Frame     *WindowFrame
	Partition []*Expr
}

// FuncVal is a closure value: declared params plus any args already
// supplied by partial application, and the captured environment it closed
// over (spec §3.4's `Func{... args, env ...}`).
type FuncVal struct {
	Params      []Param
	NamedParams []Param
	Body        *Expr
	ReturnTy    *types.Ty
	Args        []*Expr
	NameHint    string
}

// Param is one declared parameter of a Func.
type Param struct {
	Name    string
	Ty      *types.Ty
	Default *Expr
}

// Lineage is the per-relational-expression column-provenance record of
// spec §3.4.
type Lineage struct {
	Columns []LineageColumn
	Inputs  []LineageInput
}

// LineageInput names one upstream relation this lineage draws from.
type LineageInput struct {
	ID    ID
	Name  string
	Table []string
}

// LineageColumnKind distinguishes a named single column from a wildcard.
type LineageColumnKind int

// Lineage column kinds.
const (
	ColSingle LineageColumnKind = iota
	ColAll
)

// LineageColumn is one column of a relation's lineage: either a named
// column with a resolution target, or an `All` wildcard scoped to one
// input.
type LineageColumn struct {
	Kind       LineageColumnKind
	Name       string
	TargetID   ID
	TargetName string
	InputID    ID
	Except     []string
}

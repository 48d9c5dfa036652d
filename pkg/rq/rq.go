// Package rq implements RQ, the relational operator-tree IR of spec §3.6:
// the final output of this compiler, consumed by an out-of-scope SQL
// generation backend. It is grounded on the teacher's
// pkg/dialects/ansi-style plain operator-tree structs (no clause
// registration — RQ is a fixed, backend-agnostic shape) and, for its wire
// form, on the teacher's YAML-first config marshalling
// (internal/config/types.go uses `yaml:"..."` tags throughout).
package rq

// CID is a dense column id, TID a dense table id; both are allocated by
// separate monotonic counters during lowering (spec §3.6).
type CID uint32

// TID is a dense table id.
type TID uint32

// RelationalQuery is the root of one compiled query.
type RelationalQuery struct {
	Def      QueryDef        `yaml:"def" json:"def"`
	Tables   []*TableDecl    `yaml:"tables" json:"tables"`
	Relation Relation        `yaml:"relation" json:"relation"`
}

// QueryDef carries the optional `prql` header through to the RQ, for the
// backend to consult (e.g. target dialect selection).
type QueryDef struct {
	Target  string `yaml:"target,omitempty" json:"target,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// TableDecl names one relation produced during lowering.
type TableDecl struct {
	ID       TID      `yaml:"id" json:"id"`
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	Relation Relation `yaml:"relation" json:"relation"`
}

// RelationColumnKind distinguishes a named column from a positional
// wildcard placeholder.
type RelationColumnKind int

// Relation column kinds.
const (
	ColumnSingle RelationColumnKind = iota
	ColumnWildcard
)

// RelationColumn is one column slot of a Relation's output shape.
type RelationColumn struct {
	Kind RelationColumnKind `yaml:"kind" json:"kind"`
	Name string             `yaml:"name,omitempty" json:"name,omitempty"`
}

// RelationKindTag tags the variant of a Relation.
type RelationKindTag int

// Relation kinds.
const (
	RelExternRef RelationKindTag = iota
	RelLiteral
	RelSString
	RelBuiltInFunction
	RelPipeline
)

// RelationLiteral is an inline relation value (produced by `from_text`,
// spec §4.6).
type RelationLiteral struct {
	Columns []string   `yaml:"columns" json:"columns"`
	Rows    [][]string `yaml:"rows" json:"rows"`
}

// Relation is one relational value: either a reference, a literal, raw
// SQL, a reserved built-in, or a transform pipeline.
type Relation struct {
	Kind    RelationKindTag  `yaml:"kind" json:"kind"`
	Columns []RelationColumn `yaml:"columns" json:"columns"`

	ExternRef []string         `yaml:"extern_ref,omitempty" json:"extern_ref,omitempty"`
	Literal   *RelationLiteral `yaml:"literal,omitempty" json:"literal,omitempty"`
	SString   []InterpPart     `yaml:"sstring,omitempty" json:"sstring,omitempty"`
	Pipeline  []Transform      `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
}

// InterpPart is a literal-text or embedded-expr segment of a raw-SQL
// s-string relation.
type InterpPart struct {
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
	Expr *Expr  `yaml:"expr,omitempty" json:"expr,omitempty"`
}

// TableRef names a source table (by TID) and the columns read from it,
// each paired with the CID it is bound to at this point in the pipeline
// (spec §3.6).
type TableRef struct {
	Source     TID               `yaml:"source" json:"source"`
	Columns    []TableRefColumn  `yaml:"columns" json:"columns"`
	Name       string            `yaml:"name,omitempty" json:"name,omitempty"`
	PreferCTE  bool              `yaml:"prefer_cte,omitempty" json:"prefer_cte,omitempty"`
}

// TableRefColumn pairs one RelationColumn of the source with the CID it
// is bound to here.
type TableRefColumn struct {
	Column RelationColumn `yaml:"column" json:"column"`
	CID    CID            `yaml:"cid" json:"cid"`
}

// ColumnDecl is one computed column, optionally windowed or an
// aggregation.
type ColumnDecl struct {
	ID            CID   `yaml:"id" json:"id"`
	Expr          Expr  `yaml:"expr" json:"expr"`
	Window        *WindowSpec `yaml:"window,omitempty" json:"window,omitempty"`
	IsAggregation bool  `yaml:"is_aggregation,omitempty" json:"is_aggregation,omitempty"`
}

// WindowSpec carries the frame and partition/sort context a Compute ran
// under (spec §4.7's lowering of Group/Window state onto Compute nodes).
type WindowSpec struct {
	Partition []CID      `yaml:"partition,omitempty" json:"partition,omitempty"`
	Sort      []SortItem `yaml:"sort,omitempty" json:"sort,omitempty"`
	FrameKind string     `yaml:"frame_kind,omitempty" json:"frame_kind,omitempty"`
	FrameLow  *int       `yaml:"frame_low,omitempty" json:"frame_low,omitempty"`
	FrameHigh *int       `yaml:"frame_high,omitempty" json:"frame_high,omitempty"`
}

// SortDirection is Asc or Desc.
type SortDirection int

// Sort directions.
const (
	Asc SortDirection = iota
	Desc
)

// SortItem is one `{direction, column}` sort key.
type SortItem struct {
	Direction SortDirection `yaml:"direction" json:"direction"`
	Column    CID           `yaml:"column" json:"column"`
}

// JoinSide mirrors pl.JoinSide in RQ terms.
type JoinSide int

// Join sides.
const (
	Inner JoinSide = iota
	Left
	Right
	Full
)

// TakeRange is an inclusive `low..high` bound pair; a nil bound is
// unbounded.
type TakeRange struct {
	Low  *int `yaml:"low,omitempty" json:"low,omitempty"`
	High *int `yaml:"high,omitempty" json:"high,omitempty"`
}

// TransformKindTag tags the variant of a Transform (spec §3.6's nine
// variants, plus Loop).
type TransformKindTag int

// Transform kinds.
const (
	TFrom TransformKindTag = iota
	TCompute
	TSelect
	TFilter
	TAggregate
	TSort
	TTake
	TJoin
	TAppend
	TLoop
)

// Transform is one pipeline step of a Relation's RelPipeline form.
type Transform struct {
	Kind TransformKindTag `yaml:"kind" json:"kind"`

	From    *TableRef    `yaml:"from,omitempty" json:"from,omitempty"`
	Compute *ColumnDecl  `yaml:"compute,omitempty" json:"compute,omitempty"`
	Select  []CID        `yaml:"select,omitempty" json:"select,omitempty"`
	Filter  *Expr        `yaml:"filter,omitempty" json:"filter,omitempty"`

	AggregatePartition []CID `yaml:"aggregate_partition,omitempty" json:"aggregate_partition,omitempty"`
	AggregateCompute   []CID `yaml:"aggregate_compute,omitempty" json:"aggregate_compute,omitempty"`

	SortKeys []SortItem `yaml:"sort_keys,omitempty" json:"sort_keys,omitempty"`

	TakeRange     *TakeRange `yaml:"take_range,omitempty" json:"take_range,omitempty"`
	TakePartition []CID      `yaml:"take_partition,omitempty" json:"take_partition,omitempty"`
	TakeSort      []SortItem `yaml:"take_sort,omitempty" json:"take_sort,omitempty"`

	JoinSide JoinSide  `yaml:"join_side,omitempty" json:"join_side,omitempty"`
	JoinWith *TableRef `yaml:"join_with,omitempty" json:"join_with,omitempty"`

	Append *TableRef   `yaml:"append,omitempty" json:"append,omitempty"`
	Loop   []Transform `yaml:"loop,omitempty" json:"loop,omitempty"`
}

// ExprKindTag tags the variant of an Expr.
type ExprKindTag int

// Expr kinds.
const (
	EColumnRef ExprKindTag = iota
	ELiteral
	ESString
	ECase
	EOperator
	EParam
)

// Expr is an RQ scalar expression: a column reference, a literal, raw
// SQL, a case expression, a named operator application, or a late-bound
// parameter (spec §3.6).
type Expr struct {
	Kind ExprKindTag `yaml:"kind" json:"kind"`

	ColumnRef CID          `yaml:"column_ref,omitempty" json:"column_ref,omitempty"`
	Literal   string       `yaml:"literal,omitempty" json:"literal,omitempty"`
	SString   []InterpPart `yaml:"sstring,omitempty" json:"sstring,omitempty"`
	Case      []CaseArm    `yaml:"case,omitempty" json:"case,omitempty"`

	OpName string `yaml:"op_name,omitempty" json:"op_name,omitempty"`
	Args   []Expr `yaml:"args,omitempty" json:"args,omitempty"`

	Param string `yaml:"param,omitempty" json:"param,omitempty"`
}

// CaseArm is one `cond => value` arm of an RQ Case expression.
type CaseArm struct {
	Cond  Expr `yaml:"cond" json:"cond"`
	Value Expr `yaml:"value" json:"value"`
}

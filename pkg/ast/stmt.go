package ast

import "github.com/leapstack-labs/pqlc/pkg/token"

// VarKind distinguishes the three VarDef forms of spec §3.2.
type VarKind int

// VarDef kinds.
const (
	VarLet VarKind = iota
	VarMain
	VarInto
)

// QueryDef is the optional `prql [target:...] [version:"..."]` header
// (spec §3.2, §6.2).
type QueryDef struct {
	Target  string // e.g. "sql.duckdb"; "" if unspecified
	Version string // SemVer requirement string; "" if unspecified
	OtherKV map[string]Expr
	Ann     []Expr
	Sp      token.Span
}

func (*QueryDef) stmtNode()        {}
func (q *QueryDef) Span() token.Span { return q.Sp }

// VarDef covers `let`, the bare main pipeline, and `into`.
type VarDef struct {
	Kind  VarKind
	Name  string
	Ty    *Ty
	Value Expr
	Ann   []Expr
	Sp    token.Span
}

func (*VarDef) stmtNode()        {}
func (v *VarDef) Span() token.Span { return v.Sp }

// TypeDef is `type name = ty`.
type TypeDef struct {
	Name string
	Ty   *Ty
	Ann  []Expr
	Sp   token.Span
}

func (*TypeDef) stmtNode()        {}
func (t *TypeDef) Span() token.Span { return t.Sp }

// ModuleDef is `module name { ... }`, also used as the composed-project
// root (spec §4.4) with Name == "".
type ModuleDef struct {
	Name  string
	Stmts []Stmt
	Ann   []Expr
	Sp    token.Span
}

func (*ModuleDef) stmtNode()        {}
func (m *ModuleDef) Span() token.Span { return m.Sp }

// ImportDef is `import [alias=] ident`.
type ImportDef struct {
	Alias string // "" if no explicit alias
	Ident *Ident
	Ann   []Expr
	Sp    token.Span
}

func (*ImportDef) stmtNode()        {}
func (i *ImportDef) Span() token.Span { return i.Sp }

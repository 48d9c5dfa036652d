package ast

import "github.com/leapstack-labs/pqlc/pkg/token"

// Ident is a (possibly dotted) identifier chain, e.g. `a.b.c`.
type Ident struct {
	Parts []string
	Sp    token.Span
}

func (*Ident) exprNode()         {}
func (i *Ident) Span() token.Span { return i.Sp }

// String joins the ident's parts with '.'.
func (i *Ident) String() string {
	s := ""
	for idx, p := range i.Parts {
		if idx > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// IndirKind distinguishes the three Indirection forms of spec §3.2.
type IndirKind int

// Indirection kinds.
const (
	IndirName IndirKind = iota
	IndirPosition
	IndirStar
)

// Indirection is `base.name`, `base.1`, or `base.*`.
type Indirection struct {
	Base     Expr
	Kind     IndirKind
	Name     string
	Position int
	Sp       token.Span
}

func (*Indirection) exprNode()         {}
func (i *Indirection) Span() token.Span { return i.Sp }

// Literal is a lexical literal lifted verbatim into the tree; its semantic
// value is interpreted later (type inference assigns the primitive type).
type Literal struct {
	Kind token.LiteralKind
	Raw  string
	Sp   token.Span
}

func (*Literal) exprNode()         {}
func (l *Literal) Span() token.Span { return l.Sp }

// Pipeline is `a | b | c`; a single-element pipeline is unwrapped by the
// parser and never constructed.
type Pipeline struct {
	Exprs []Expr
	Sp    token.Span
}

func (*Pipeline) exprNode()         {}
func (p *Pipeline) Span() token.Span { return p.Sp }

// TupleElem is one `[alias =] value` element of a Tuple.
type TupleElem struct {
	Alias string
	Value Expr
}

// Tuple is `{a, b = expr, ...}`.
type Tuple struct {
	Elems []TupleElem
	Sp    token.Span
}

func (*Tuple) exprNode()         {}
func (t *Tuple) Span() token.Span { return t.Sp }

// Array is `[a, b, c]`.
type Array struct {
	Elems []Expr
	Sp    token.Span
}

func (*Array) exprNode()         {}
func (a *Array) Span() token.Span { return a.Sp }

// Range is `start..end`, inclusive at both ends; a nil bound is open.
type Range struct {
	Start Expr
	End   Expr
	Sp    token.Span
}

func (*Range) exprNode()         {}
func (r *Range) Span() token.Span { return r.Sp }

// Binary is a binary operator expression, pre-desugaring.
type Binary struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
	Sp    token.Span
}

func (*Binary) exprNode()         {}
func (b *Binary) Span() token.Span { return b.Sp }

// Unary is a unary operator expression, pre-desugaring.
type Unary struct {
	Op   token.TokenType
	Expr Expr
	Sp   token.Span
}

func (*Unary) exprNode()         {}
func (u *Unary) Span() token.Span { return u.Sp }

// NamedArg is a `name:value` call argument.
type NamedArg struct {
	Name  string
	Value Expr
}

// FuncCall is a whitespace-separated function application, `f a b c
// name:value`. A call with zero arguments parses as the bare callee
// expression and is never wrapped in FuncCall.
type FuncCall struct {
	Callee    Expr
	Args      []Expr
	NamedArgs []NamedArg
	Sp        token.Span
}

func (*FuncCall) exprNode()         {}
func (f *FuncCall) Span() token.Span { return f.Sp }

// FuncParam is one parameter of a Func, optionally defaulted.
type FuncParam struct {
	Name    string
	Ty      *Ty
	Default Expr
}

// Func is a lambda: `[func] p1 p2 [p:default] -> [<ty>] body`.
type Func struct {
	Params        []FuncParam
	NamedParams   []FuncParam
	Body          Expr
	ReturnTy      *Ty
	GenericParams []string
	Sp            token.Span
}

func (*Func) exprNode()         {}
func (f *Func) Span() token.Span { return f.Sp }

// InterpPart is one element of an interpolated string: either literal
// text (Expr == nil) or an embedded expression (Text == "").
type InterpPart struct {
	Text string
	Expr Expr
}

// SString is a `s"...{expr}..."` raw-SQL interpolation.
type SString struct {
	Parts []InterpPart
	Sp    token.Span
}

func (*SString) exprNode()         {}
func (s *SString) Span() token.Span { return s.Sp }

// FString is an `f"...{expr}..."` format-string interpolation.
type FString struct {
	Parts []InterpPart
	Sp    token.Span
}

func (*FString) exprNode()         {}
func (f *FString) Span() token.Span { return f.Sp }

// CaseBranch is one `cond => value` arm of a Case.
type CaseBranch struct {
	Cond  Expr
	Value Expr
}

// Case is `case [cond => value, ...]`.
type Case struct {
	Branches []CaseBranch
	Sp       token.Span
}

func (*Case) exprNode()         {}
func (c *Case) Span() token.Span { return c.Sp }

// ParamExpr is a late-bound query parameter reference, `$name`.
type ParamExpr struct {
	Name string
	Sp   token.Span
}

func (*ParamExpr) exprNode()         {}
func (p *ParamExpr) Span() token.Span { return p.Sp }

// Internal is a body marker for compiler intrinsics (`internal name`),
// used by std.prql to mark operator and transform bodies (spec §4.5.4).
type Internal struct {
	Name string
	Sp   token.Span
}

func (*Internal) exprNode()         {}
func (i *Internal) Span() token.Span { return i.Sp }

// AliasOf wraps an expression that had a preceding alias assignment,
// e.g. the `x` in `derive x = 5`. The parser attaches Alias directly
// instead of introducing a wrapper node; AliasOf exists for expressions
// that need to carry one outside a Tuple/VarDef context (kept small and
// used sparingly by the parser's alias-scope handling).
type AliasOf struct {
	Alias string
	Expr  Expr
	Sp    token.Span
}

func (*AliasOf) exprNode()         {}
func (a *AliasOf) Span() token.Span { return a.Sp }

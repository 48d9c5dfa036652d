// Package decl implements the root module / decl tree of spec §3.5: the
// namespace structure the resolver looks names up against. It is grounded
// on the teacher's pkg/core project/registry namespacing
// (pkg/core/registry.go, pkg/core/project.go — a named-scope tree with
// ordered lookup), generalized from a project-of-models tree to PQL's
// nested module/decl tree with shadowing and redirects.
package decl

import (
	"fmt"

	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// Well-known namespace names (spec §3.5).
const (
	NsStd         = "std"
	NsThis        = "this"
	NsThat        = "that"
	NsParam       = "_param"
	NsDefaultDB   = "default_db"
	NsPrql        = "prql"
	NsMain        = "main"
	NsSelf        = "_self"
	NsInfer       = "_infer"
	NsInferModule = "_infer_module"
	NsGeneric     = "_generic"
)

// DeclKind tags the variant of a Decl, per spec §3.5's twelve-variant
// union.
type DeclKind int

// Decl kinds.
const (
	KindModule DeclKind = iota
	KindLayeredModules
	KindTableDecl
	KindExpr
	KindTy
	KindInstanceOf
	KindColumn
	KindInfer
	KindGenericParam
	KindParam
	KindQueryDef
	KindImport
)

// TableExprKind distinguishes the forms a TableDecl's underlying
// expression can take.
type TableExprKind int

// Table expression kinds.
const (
	TableRelationVar TableExprKind = iota
	TableLocal
	TableNone
	TableParam
)

// TableExpr is a TableDecl's `expr` field (spec §3.5).
type TableExpr struct {
	Kind      TableExprKind
	Relation  *pl.Expr
	ParamName string
}

// TableDecl is a Decl naming a relation, optionally typed.
type TableDecl struct {
	Ty   *types.Ty
	Expr TableExpr
}

// Annotation is a resolved `@expr` attached to a declaration.
type Annotation struct {
	Expr *pl.Expr
}

// Decl is one entry of a Module's name table.
type Decl struct {
	Kind        DeclKind
	DeclaredAt  pl.ID
	Order       int
	Annotations []Annotation

	Module         *Module
	LayeredModules []*Module
	Table          *TableDecl
	Expr           *pl.Expr
	Ty             *types.Ty
	InstanceOfName []string
	InstanceOfTy   *types.Ty
	ColumnTarget   pl.ID
	Infer          *Decl
	GenericTy      *types.Ty
	ParamName      string
	Import         []string
}

// Module is one namespace level: a name table plus an ordered list of
// redirect targets consulted on lookup miss, and an optional shadowed
// copy of the prior binding (used to scope `this`/`that`).
type Module struct {
	Names     map[string]*Decl
	Redirects [][]string
	Shadowed  *Module
}

// NewModule constructs an empty module.
func NewModule() *Module {
	return &Module{Names: map[string]*Decl{}}
}

// Insert adds or replaces a name in this module.
func (m *Module) Insert(name string, d *Decl) {
	m.Names[name] = d
}

// Get performs a direct (non-redirecting) lookup in this module only.
func (m *Module) Get(name string) (*Decl, bool) {
	d, ok := m.Names[name]
	return d, ok
}

// RootModule owns the whole namespace tree for one compile job, plus the
// span of every id it assigned (spec §3.5).
type RootModule struct {
	Module  *Module
	SpanMap map[pl.ID]int // node id -> source offset/span index, see diagnostics wiring
	nextID  pl.ID
}

// NewRootModule builds a RootModule pre-populated with `std` and
// `default_db` (the latter containing an `_infer` table-decl template and
// `_infer_module`), matching spec §3.5's invariant.
func NewRootModule() *RootModule {
	root := NewModule()
	root.Redirects = [][]string{{NsThis}, {NsThat}, {NsParam}, {NsStd}, {NsGeneric}}

	std := NewModule()
	root.Insert(NsStd, &Decl{Kind: KindModule, Module: std})

	inferModule := NewModule()
	inferTable := &Decl{
		Kind:  KindInfer,
		Infer: &Decl{Kind: KindTableDecl, Table: &TableDecl{Expr: TableExpr{Kind: TableLocal}}},
	}
	inferModule.Insert(NsInfer, inferTable)

	defaultDB := NewModule()
	defaultDB.Insert(NsInfer, inferTable)
	defaultDB.Insert(NsInferModule, &Decl{Kind: KindModule, Module: inferModule})
	root.Insert(NsDefaultDB, &Decl{Kind: KindModule, Module: defaultDB})

	return &RootModule{Module: root, SpanMap: map[pl.ID]int{}}
}

// NextID allocates a fresh monotonic node id (spec §5's ordering
// guarantee: "node ids are monotonic within a compile job").
func (r *RootModule) NextID() pl.ID {
	r.nextID++
	return r.nextID
}

// Shadow moves the current binding of `name` in `m` into the `Shadowed`
// field of a fresh empty module installed in its place, returning the
// fresh module so the caller can populate it (spec §3.5 — used to scope
// `this`/`that` during relational argument resolution).
func Shadow(m *Module, name string) *Module {
	prior, _ := m.Get(name)
	fresh := NewModule()
	if prior != nil && prior.Kind == KindModule {
		fresh.Shadowed = prior.Module
	}
	m.Insert(name, &Decl{Kind: KindModule, Module: fresh})
	return fresh
}

// Unshadow restores the module that was active under `name` before the
// matching Shadow call.
func Unshadow(m *Module, name string) {
	cur, ok := m.Get(name)
	if !ok || cur.Kind != KindModule || cur.Module.Shadowed == nil {
		return
	}
	m.Insert(name, &Decl{Kind: KindModule, Module: cur.Module.Shadowed})
}

// Lookup resolves a dotted path against `start`, walking through nested
// modules. It does not perform redirect-list search (that is the
// resolver's job, layered on top by its lookupPath); this is the
// direct structural walk used once a starting module is known.
func Lookup(start *Module, path []string) (*Decl, error) {
	m := start
	for i, seg := range path {
		d, ok := m.Get(seg)
		if !ok {
			return nil, fmt.Errorf("name not found: %s", seg)
		}
		if i == len(path)-1 {
			return d, nil
		}
		switch d.Kind {
		case KindModule:
			m = d.Module
		case KindImport:
			return nil, fmt.Errorf("cannot descend through import %q mid-path", seg)
		default:
			return nil, fmt.Errorf("%q is not a module", seg)
		}
	}
	return nil, fmt.Errorf("empty path")
}

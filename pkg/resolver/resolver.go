// Package resolver implements spec §4.5: the single-pass fold from PR
// (after astexpand desugaring) into PL, threading id assignment, name
// resolution, type inference, function application, and column-lineage
// computation through one recursive descent over the statement tree. It
// is grounded on the teacher's pkg/lineage/resolver.go (a single-pass
// expression walker accumulating a lineage graph as it goes) generalized
// from SQL column-lineage extraction to PQL's full semantic resolution.
package resolver

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/diagnostics"
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// Options configures a Resolve call (spec §6.1's ResolveOptions).
type Options struct {
	// AllowModuleDecls is not consulted by Resolve: `module` statements are
	// resolved whatever its value.
	AllowModuleDecls bool
}

// Resolver carries the mutable state of spec §4.5 for one compile job.
type Resolver struct {
	root *decl.RootModule

	// scopes is the lexical module stack, innermost last. It always starts
	// with the root module and grows with nested `module` bodies and
	// function-literal parameter scopes.
	scopes []*decl.Module

	// currentModulePath mirrors the tail of scopes for declaration
	// insertion bookkeeping.
	currentModulePath []string

	errs diagnostics.Errors
}

// New constructs a Resolver over a fresh root module.
func New() *Resolver {
	root := decl.NewRootModule()
	return &Resolver{root: root, scopes: []*decl.Module{root.Module}}
}

// Resolve is the library-surface entry point (spec §6.1): resolves a
// composed module tree and returns the populated RootModule.
func Resolve(pr *ast.ModuleDef, opts Options) (*decl.RootModule, error) {
	r := New()
	r.resolveModuleBody(pr.Stmts)
	if r.errs.HasErrors() {
		r.errs.Sort()
		return r.root, r.errs.AsError()
	}
	return r.root, nil
}

func (r *Resolver) currentModule() *decl.Module { return r.scopes[len(r.scopes)-1] }

func (r *Resolver) pushScope(m *decl.Module) { r.scopes = append(r.scopes, m) }
func (r *Resolver) popScope()                { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) fail(span token.Span, format string, args ...any) {
	sp := span
	r.errs.Add(diagnostics.New(diagnostics.KindSimple, &sp, format, args...))
}

func (r *Resolver) newID() pl.ID { return r.root.NextID() }

// resolveModuleBody resolves each statement of a module in source order
// (spec §4.5.1).
func (r *Resolver) resolveModuleBody(stmts []ast.Stmt) {
	for order, s := range stmts {
		r.resolveStmt(s, order)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt, order int) {
	m := r.currentModule()
	switch v := s.(type) {
	case *ast.VarDef:
		val, err := r.resolveExpr(v.Value)
		if err != nil {
			r.fail(v.Sp, "%s", err)
			return
		}
		if v.Ty != nil {
			declaredTy := r.resolveTy(v.Ty)
			if err := validateType(v.Sp, fmt.Sprintf("%s: declared type", v.Name), val.Ty, declaredTy); err != nil {
				r.fail(v.Sp, "%s", err)
			}
			val.Ty = declaredTy
		}
		val.Alias = v.Name
		m.Insert(v.Name, &decl.Decl{Kind: decl.KindExpr, Expr: val, DeclaredAt: val.ID, Order: order})
		if types.IsRelation(val.Ty) {
			m.Insert(v.Name+"#table", &decl.Decl{
				Kind: decl.KindTableDecl, Order: order,
				Table: &decl.TableDecl{Ty: val.Ty, Expr: decl.TableExpr{Kind: decl.TableRelationVar, Relation: val}},
			})
		}

	case *ast.TypeDef:
		ty := r.resolveTy(v.Ty)
		m.Insert(v.Name, &decl.Decl{Kind: decl.KindTy, Ty: ty, Order: order})

	case *ast.ModuleDef:
		child, ok := m.Get(v.Name)
		var childMod *decl.Module
		if ok && child.Kind == decl.KindModule {
			childMod = child.Module
		} else {
			childMod = decl.NewModule()
			m.Insert(v.Name, &decl.Decl{Kind: decl.KindModule, Module: childMod, Order: order})
		}
		r.currentModulePath = append(r.currentModulePath, v.Name)
		r.pushScope(childMod)
		r.resolveModuleBody(v.Stmts)
		r.popScope()
		r.currentModulePath = r.currentModulePath[:len(r.currentModulePath)-1]

	case *ast.ImportDef:
		alias := v.Alias
		if alias == "" && len(v.Ident.Parts) > 0 {
			alias = v.Ident.Parts[len(v.Ident.Parts)-1]
		}
		m.Insert(alias, &decl.Decl{Kind: decl.KindImport, Import: v.Ident.Parts, Order: order})

	case *ast.QueryDef:
		m.Insert(decl.NsPrql, &decl.Decl{Kind: decl.KindQueryDef, Order: order})

	default:
		r.fail(s.Span(), "unsupported statement %T", s)
	}
}

func (r *Resolver) resolveTy(t *ast.Ty) *types.Ty {
	if t == nil {
		return nil
	}
	if t.Kind == types.KindIdent {
		if prim, ok := primitiveByName(t.Name); ok {
			return types.PrimitiveTy(prim)
		}
		if d, err := r.lookupPath([]string{t.Name}); err == nil && d.Kind == decl.KindTy {
			return d.Ty
		}
	}
	return t
}

func primitiveByName(name string) (types.Primitive, bool) {
	switch name {
	case "int":
		return types.Int, true
	case "float":
		return types.Float, true
	case "bool":
		return types.Bool, true
	case "text":
		return types.Text, true
	case "date":
		return types.Date, true
	case "time":
		return types.Time, true
	case "timestamp":
		return types.Timestamp, true
	default:
		return 0, false
	}
}

// lookupPath resolves a dotted name against the lexical scope stack
// (innermost first), falling back to the root module's redirect list
// (this, that, _param, std, _generic) for unqualified names (spec §4.5.2).
func (r *Resolver) lookupPath(path []string) (*decl.Decl, error) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if d, err := decl.Lookup(r.scopes[i], path); err == nil {
			return d, nil
		}
	}
	for _, redirect := range r.root.Module.Redirects {
		full := append(append([]string{}, redirect...), path...)
		if d, err := decl.Lookup(r.root.Module, full); err == nil {
			return d, nil
		}
	}
	return nil, fmt.Errorf("name not found: %s", strings.Join(path, "."))
}

// withColumnScope shadows the root module's `nsName` binding (this/that)
// with a fresh module exposing one KindColumn decl per lineage column, for
// the duration of fn — spec §4.5.2's this/that relational-argument scoping.
func (r *Resolver) withColumnScope(nsName string, lineage *pl.Lineage, fn func() error) error {
	m := decl.Shadow(r.root.Module, nsName)
	if lineage != nil {
		for _, col := range lineage.Columns {
			if col.Kind == pl.ColSingle && col.Name != "" {
				m.Insert(col.Name, &decl.Decl{Kind: decl.KindColumn, ColumnTarget: col.TargetID})
			}
		}
	}
	err := fn()
	decl.Unshadow(r.root.Module, nsName)
	return err
}

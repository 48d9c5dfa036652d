package resolver

import (
	"fmt"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// resolveTransformCall splits a folded pipeline FuncCall's relation
// argument (always appended last by astexpand's foldIntoCall) from its
// remaining positional arguments, resolves the relation first, and
// dispatches to the per-transform builder (spec §4.6).
func (r *Resolver) resolveTransformCall(kind pl.TransformKind, fc *ast.FuncCall) (*pl.Expr, error) {
	if len(fc.Args) == 0 {
		return nil, fmt.Errorf("transform call missing relation argument")
	}
	tblAst := fc.Args[len(fc.Args)-1]
	rawArgs := fc.Args[:len(fc.Args)-1]

	tbl, err := r.resolveExprOrPlaceholder(tblAst)
	if err != nil {
		return nil, err
	}

	switch kind {
	case pl.TSelect:
		return r.buildSelect(rawArgs, tbl)
	case pl.TDerive:
		return r.buildDerive(rawArgs, tbl)
	case pl.TFilter:
		return r.buildFilter(rawArgs, tbl)
	case pl.TAggregate:
		return r.buildAggregate(rawArgs, tbl)
	case pl.TSort:
		return r.buildSort(rawArgs, tbl)
	case pl.TTake:
		return r.buildTake(rawArgs, tbl)
	case pl.TJoin:
		return r.buildJoin(rawArgs, fc.NamedArgs, tbl)
	case pl.TGroup:
		return r.buildGroup(rawArgs, tbl)
	case pl.TWindow:
		return r.buildWindow(rawArgs, fc.NamedArgs, tbl)
	case pl.TAppend:
		return r.buildAppend(rawArgs, tbl)
	case pl.TLoop:
		return r.buildLoop(rawArgs, tbl)
	default:
		return nil, fmt.Errorf("resolver: unhandled transform kind %v", kind)
	}
}

func wrapTransform(id pl.ID, ty *types.Ty, lineage *pl.Lineage, tc *pl.TransformCall) *pl.Expr {
	return &pl.Expr{ID: id, Kind: pl.KindTransformCall, Ty: ty, Lineage: lineage, Transform: tc}
}

func (r *Resolver) buildSelect(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("select: expected 1 argument, got %d", len(rawArgs))
	}
	var assigns []*pl.Expr
	err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		var err error
		assigns, err = r.resolveAssignList(rawArgs[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	lineage := selectLineage(assigns)
	lineage.Inputs = inputsOrSelf(tbl.Lineage, tbl.ID)
	return wrapTransform(r.newID(), relationTyFromLineage(lineage), lineage,
		&pl.TransformCall{Kind: pl.TSelect, Input: tbl, Assigns: assigns}), nil
}

func (r *Resolver) buildDerive(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("derive: expected 1 argument, got %d", len(rawArgs))
	}
	var assigns []*pl.Expr
	err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		var err error
		assigns, err = r.resolveAssignList(rawArgs[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	lineage := deriveLineage(tbl.Lineage, assigns)
	return wrapTransform(r.newID(), relationTyFromLineage(lineage), lineage,
		&pl.TransformCall{Kind: pl.TDerive, Input: tbl, Assigns: assigns}), nil
}

func (r *Resolver) buildFilter(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("filter: expected 1 argument, got %d", len(rawArgs))
	}
	var pred *pl.Expr
	err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		var err error
		pred, err = r.resolveExpr(rawArgs[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	return wrapTransform(r.newID(), tbl.Ty, tbl.Lineage,
		&pl.TransformCall{Kind: pl.TFilter, Input: tbl, Predicate: pred}), nil
}

func (r *Resolver) buildAggregate(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("aggregate: expected 1 argument, got %d", len(rawArgs))
	}
	var assigns []*pl.Expr
	err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		var err error
		assigns, err = r.resolveAssignList(rawArgs[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	lineage := selectLineage(assigns)
	lineage.Inputs = inputsOrSelf(tbl.Lineage, tbl.ID)
	return wrapTransform(r.newID(), relationTyFromLineage(lineage), lineage,
		&pl.TransformCall{Kind: pl.TAggregate, Input: tbl, Assigns: assigns}), nil
}

func (r *Resolver) buildSort(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("sort: expected 1 argument, got %d", len(rawArgs))
	}
	var keysExpr *pl.Expr
	err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		var err error
		keysExpr, err = r.resolveExpr(rawArgs[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	keys := sortKeysFrom(keysExpr)
	return wrapTransform(r.newID(), tbl.Ty, tbl.Lineage,
		&pl.TransformCall{Kind: pl.TSort, Input: tbl, Sort: keys}), nil
}

// sortKeysFrom reinterprets `std.neg(col)` nodes produced by astexpand's
// context-free unary desugaring as a descending sort key: inside `sort`,
// a leading `-` marks direction rather than arithmetic negation, a
// distinction the expander cannot make without knowing its caller.
func sortKeysFrom(e *pl.Expr) []pl.SortKey {
	var elems []*pl.Expr
	if e.Kind == pl.KindTuple {
		elems = e.Elems
	} else {
		elems = []*pl.Expr{e}
	}
	keys := make([]pl.SortKey, 0, len(elems))
	for _, el := range elems {
		if el.Kind == pl.KindRqOperator && el.OpName == "neg" && len(el.Args) == 1 {
			keys = append(keys, pl.SortKey{Desc: true, Column: el.Args[0]})
			continue
		}
		keys = append(keys, pl.SortKey{Desc: false, Column: el})
	}
	return keys
}

func (r *Resolver) buildTake(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("take: expected 1 argument, got %d", len(rawArgs))
	}
	rng, err := r.resolveExpr(rawArgs[0])
	if err != nil {
		return nil, err
	}
	return wrapTransform(r.newID(), tbl.Ty, tbl.Lineage,
		&pl.TransformCall{Kind: pl.TTake, Input: tbl, Range: rng}), nil
}

func (r *Resolver) buildJoin(rawArgs []ast.Expr, named []ast.NamedArg, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 2 {
		return nil, fmt.Errorf("join: expected 2 positional arguments (with, condition), got %d", len(rawArgs))
	}
	with, err := r.resolveExpr(rawArgs[0])
	if err != nil {
		return nil, err
	}
	var pred *pl.Expr
	err = r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		return r.withColumnScope(decl.NsThat, with.Lineage, func() error {
			var err error
			pred, err = r.resolveExpr(rawArgs[1])
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	var hints []string
	if pred.Kind == pl.KindTuple {
		hints = append(hints, "join conditions are a single boolean expression combined with std.and, not a {...} tuple")
	}
	if err := validateType(rawArgs[1].Span(), "join condition", pred.Ty, types.PrimitiveTy(types.Bool), hints...); err != nil {
		return nil, err
	}
	side := pl.JoinInner
	for _, na := range named {
		if na.Name != "side" {
			continue
		}
		if id, ok := na.Value.(*ast.Ident); ok {
			side = joinSideByName(id.String())
		}
	}
	lineage := joinLineage(tbl.Lineage, with.Lineage)
	return wrapTransform(r.newID(), relationTyFromLineage(lineage), lineage,
		&pl.TransformCall{Kind: pl.TJoin, Input: tbl, With: with, Predicate: pred, Side: side}), nil
}

func joinSideByName(name string) pl.JoinSide {
	switch name {
	case "left":
		return pl.JoinLeft
	case "right":
		return pl.JoinRight
	case "full":
		return pl.JoinFull
	default:
		return pl.JoinInner
	}
}

func (r *Resolver) buildGroup(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 2 {
		return nil, fmt.Errorf("group: expected 2 positional arguments (by, pipeline), got %d", len(rawArgs))
	}
	var by []*pl.Expr
	err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
		var err error
		by, err = r.resolveAssignList(rawArgs[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	inner, err := r.resolvePartialPipeline(rawArgs[1], tbl)
	if err != nil {
		return nil, err
	}
	byCols := make([]pl.LineageColumn, 0, len(by))
	for _, b := range by {
		byCols = append(byCols, pl.LineageColumn{Kind: pl.ColSingle, Name: columnNameOf(b), TargetID: b.ID, TargetName: columnNameOf(b)})
	}
	lineage := &pl.Lineage{Columns: append(byCols, inner.Lineage.Columns...), Inputs: inner.Lineage.Inputs}
	return wrapTransform(r.newID(), relationTyFromLineage(lineage), lineage,
		&pl.TransformCall{Kind: pl.TGroup, Input: tbl, By: by, Pipeline: inner}), nil
}

func (r *Resolver) buildWindow(rawArgs []ast.Expr, named []ast.NamedArg, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("window: expected 1 positional argument (pipeline), got %d", len(rawArgs))
	}
	inner, err := r.resolvePartialPipeline(rawArgs[0], tbl)
	if err != nil {
		return nil, err
	}
	frame, err := r.windowFrameFromNamedArgs(named, tbl)
	if err != nil {
		return nil, err
	}
	return wrapTransform(r.newID(), inner.Ty, inner.Lineage,
		&pl.TransformCall{Kind: pl.TWindow, Input: tbl, Pipeline: inner, Frame: frame}), nil
}

func (r *Resolver) windowFrameFromNamedArgs(named []ast.NamedArg, tbl *pl.Expr) (*pl.WindowFrame, error) {
	for _, na := range named {
		if na.Name != "rows" && na.Name != "range" {
			continue
		}
		var bound *pl.Expr
		err := r.withColumnScope(decl.NsThis, tbl.Lineage, func() error {
			var err error
			bound, err = r.resolveExpr(na.Value)
			return err
		})
		if err != nil {
			return nil, err
		}
		frame := &pl.WindowFrame{Kind: na.Name}
		if bound.Kind == pl.KindTuple && len(bound.Elems) == 2 {
			frame.Start, frame.End = bound.Elems[0], bound.Elems[1]
		}
		return frame, nil
	}
	return nil, nil
}

func (r *Resolver) buildAppend(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("append: expected 1 argument, got %d", len(rawArgs))
	}
	other, err := r.resolveExpr(rawArgs[0])
	if err != nil {
		return nil, err
	}
	return wrapTransform(r.newID(), tbl.Ty, tbl.Lineage,
		&pl.TransformCall{Kind: pl.TAppend, Input: tbl, With: other}), nil
}

func (r *Resolver) buildLoop(rawArgs []ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	if len(rawArgs) != 1 {
		return nil, fmt.Errorf("loop: expected 1 argument, got %d", len(rawArgs))
	}
	inner, err := r.resolvePartialPipeline(rawArgs[0], tbl)
	if err != nil {
		return nil, err
	}
	return wrapTransform(r.newID(), tbl.Ty, tbl.Lineage,
		&pl.TransformCall{Kind: pl.TLoop, Input: tbl, Pipeline: inner}), nil
}

// resolvePartialPipeline resolves `group`/`window`/`loop`'s inner argument:
// a transform call whose own relation argument was elided by the source
// (e.g. the `(aggregate {...})` in `group {by} (aggregate {...})`), and
// completes it by supplying tbl as that missing relation argument. If raw
// is not itself a recognized transform call, tbl is returned unchanged and
// raw is not resolved.
func (r *Resolver) resolvePartialPipeline(raw ast.Expr, tbl *pl.Expr) (*pl.Expr, error) {
	fc, ok := raw.(*ast.FuncCall)
	if !ok {
		return tbl, nil
	}
	name, ok := calleeDottedName(fc.Callee)
	if !ok {
		return tbl, nil
	}
	kind, ok := transformKindByName(name)
	if !ok {
		return tbl, nil
	}
	completed := &ast.FuncCall{Callee: fc.Callee, Args: append(append([]ast.Expr{}, fc.Args...), &tblPlaceholder{resolved: tbl}), NamedArgs: fc.NamedArgs, Sp: fc.Sp}
	return r.resolveTransformCall(kind, completed)
}

// tblPlaceholder lets resolvePartialPipeline splice an already-resolved
// *pl.Expr back through resolveTransformCall's ast.Expr-typed argument
// list without re-resolving it.
type tblPlaceholder struct {
	ast.Expr // always nil; embedded so the type satisfies ast.Expr
	resolved *pl.Expr
	sp       token.Span
}

func (*tblPlaceholder) exprNode()            {}
func (p *tblPlaceholder) Span() token.Span   { return p.sp }

func (r *Resolver) resolveExprOrPlaceholder(e ast.Expr) (*pl.Expr, error) {
	if ph, ok := e.(*tblPlaceholder); ok {
		return ph.resolved, nil
	}
	return r.resolveExpr(e)
}

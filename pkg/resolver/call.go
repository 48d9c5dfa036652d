package resolver

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// specialBuiltins names the spec §4.6 functions that are recognized by
// name rather than resolved through a std.prql function body — see the
// package-level note in DESIGN.md on transform/operator recognition.
var specialBuiltins = map[string]bool{
	"in": true, "tuple_every": true, "tuple_map": true, "tuple_zip": true,
	"_eq": true, "from_text": true, "prql_version": true,
	"count": true, "row_number": true, "rank": true, "rank_dense": true,
}

// transformKindByName maps a bare transform-call callee name to its
// TransformKind, per spec §4.6's eleven-entry transform table.
func transformKindByName(name string) (pl.TransformKind, bool) {
	switch name {
	case "select":
		return pl.TSelect, true
	case "derive":
		return pl.TDerive, true
	case "filter":
		return pl.TFilter, true
	case "aggregate":
		return pl.TAggregate, true
	case "sort":
		return pl.TSort, true
	case "take":
		return pl.TTake, true
	case "join":
		return pl.TJoin, true
	case "group":
		return pl.TGroup, true
	case "window":
		return pl.TWindow, true
	case "append":
		return pl.TAppend, true
	case "loop":
		return pl.TLoop, true
	default:
		return 0, false
	}
}

func calleeDottedName(e ast.Expr) (string, bool) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.String(), true
}

// resolveFuncCall dispatches a FuncCall to operator recognition, transform
// recognition, or generic user-function application (spec §4.5.4, §4.6).
func (r *Resolver) resolveFuncCall(fc *ast.FuncCall) (*pl.Expr, error) {
	name, isIdent := calleeDottedName(fc.Callee)
	if isIdent {
		if name == "from" {
			return r.resolveFrom(fc)
		}
		if strings.HasPrefix(name, "std.") {
			return r.resolveOperatorCall(strings.TrimPrefix(name, "std."), fc)
		}
		if specialBuiltins[name] {
			return r.resolveOperatorCall(name, fc)
		}
		if kind, ok := transformKindByName(name); ok {
			return r.resolveTransformCall(kind, fc)
		}
	}
	return r.resolveUserCall(fc)
}

// resolveFrom handles `from tbl`: a relation reference that synthesizes a
// Lineage from the referenced declaration's type when one isn't already
// attached (e.g. a table declared via `let employees <{...}>` with no
// value expression).
func (r *Resolver) resolveFrom(fc *ast.FuncCall) (*pl.Expr, error) {
	if len(fc.Args) != 1 {
		return nil, fmt.Errorf("from: expected exactly one table argument, got %d", len(fc.Args))
	}
	base, err := r.resolveExpr(fc.Args[0])
	if err != nil {
		return nil, err
	}
	lineage := base.Lineage
	if lineage == nil {
		lineage = lineageFromTy(r, base.Ty, base.ID)
	}
	name := ""
	if id, ok := fc.Args[0].(*ast.Ident); ok {
		name = id.String()
	}
	if len(lineage.Inputs) == 0 {
		lineage.Inputs = []pl.LineageInput{{ID: base.ID, Name: name}}
	}
	return &pl.Expr{ID: r.newID(), Kind: pl.KindIdent, TargetID: base.ID, Ty: base.Ty, Lineage: lineage, Parts: []string{name}}, nil
}

func lineageFromTy(r *Resolver, ty *types.Ty, sourceID pl.ID) *pl.Lineage {
	if !types.IsRelation(ty) || ty.Elem == nil {
		return &pl.Lineage{}
	}
	cols := make([]pl.LineageColumn, 0, len(ty.Elem.Fields))
	for _, f := range ty.Elem.Fields {
		if f.Kind == types.FieldUnpack {
			cols = append(cols, pl.LineageColumn{Kind: pl.ColAll, InputID: sourceID})
			continue
		}
		cols = append(cols, pl.LineageColumn{Kind: pl.ColSingle, Name: f.Name, TargetID: r.newID(), TargetName: f.Name, InputID: sourceID})
	}
	return &pl.Lineage{Columns: cols}
}

// resolveOperatorCall builds a KindRqOperator node for a std.* function or
// a fixed special builtin (spec §4.6).
func (r *Resolver) resolveOperatorCall(opName string, fc *ast.FuncCall) (*pl.Expr, error) {
	args := make([]*pl.Expr, 0, len(fc.Args))
	for _, a := range fc.Args {
		re, err := r.resolveExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, re)
	}
	return &pl.Expr{ID: r.newID(), Kind: pl.KindRqOperator, OpName: opName, Args: args, Ty: inferOperatorTy(opName, args)}, nil
}

func inferOperatorTy(op string, args []*pl.Expr) *types.Ty {
	switch op {
	case "eq", "ne", "gt", "lt", "gte", "lte", "regex_search", "and", "or", "not", "in":
		return types.PrimitiveTy(types.Bool)
	case "div_i", "mod", "count", "row_number", "rank", "rank_dense":
		return types.PrimitiveTy(types.Int)
	case "math.pow":
		return types.PrimitiveTy(types.Float)
	case "neg":
		if len(args) == 1 {
			return args[0].Ty
		}
		return types.Any()
	case "add", "sub", "mul", "div_f":
		for _, a := range args {
			if a.Ty != nil && a.Ty.Kind == types.KindPrimitive && a.Ty.Prim == types.Float {
				return types.PrimitiveTy(types.Float)
			}
		}
		if len(args) > 0 && args[0].Ty != nil {
			return args[0].Ty
		}
		return types.Any()
	case "coalesce":
		for _, a := range args {
			if a.Ty != nil && a.Ty.Kind != types.KindAny {
				return a.Ty
			}
		}
		return types.Any()
	default:
		return types.Any()
	}
}

// resolveUserCall resolves a call to a non-builtin callee: the callee must
// resolve to a Func value. Arguments accumulate onto it exactly like
// partial application (spec §3.4's closure shape) until the call is fully
// saturated, at which point spec §4.5.4 step 5 takes over: substitute
// every Param reference in the body by position (and named params by
// name), fold the result, and return that in place of the bare Func
// value.
func (r *Resolver) resolveUserCall(fc *ast.FuncCall) (*pl.Expr, error) {
	callee, err := r.resolveExpr(fc.Callee)
	if err != nil {
		return nil, err
	}
	// A name bound by `let` resolves to a reference; follow it to the Func
	// value its declaration holds.
	if callee.Kind == pl.KindIdent {
		if id, ok := fc.Callee.(*ast.Ident); ok {
			if d, err := r.lookupPath(id.Parts); err == nil && d.Kind == decl.KindExpr && d.Expr != nil && d.Expr.Kind == pl.KindFunc {
				callee = d.Expr
			}
		}
	}
	if callee.Kind != pl.KindFunc || callee.Func == nil {
		return nil, fmt.Errorf("cannot call a non-function value")
	}
	args := make([]*pl.Expr, 0, len(fc.Args))
	for _, a := range fc.Args {
		re, err := r.resolveExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, re)
	}
	newFunc := *callee.Func
	newFunc.Args = append(append([]*pl.Expr{}, callee.Func.Args...), args...)

	if len(newFunc.Args) > len(newFunc.Params) {
		return nil, fmt.Errorf("%s: too many positional arguments (expected %d, got %d) — did you forget an argument earlier in the call?",
			funcName(&newFunc), len(newFunc.Params), len(newFunc.Args))
	}
	for i := 0; i < len(newFunc.Args) && i < len(newFunc.Params); i++ {
		hint := ""
		if len(newFunc.Args) < len(newFunc.Params) {
			hint = fmt.Sprintf("did you forget an argument to %s?", funcName(&newFunc))
		}
		context := fmt.Sprintf("argument %d to %s", i+1, funcName(&newFunc))
		if err := validateType(fc.Sp, context, newFunc.Args[i].Ty, newFunc.Params[i].Ty, nonEmpty(hint)...); err != nil {
			return nil, err
		}
	}

	saturated := len(newFunc.Args) >= len(newFunc.Params)
	for _, np := range newFunc.NamedParams {
		if np.Default == nil && namedArgValue(fc.NamedArgs, np.Name) == nil {
			saturated = false
		}
	}
	if !saturated {
		return &pl.Expr{ID: r.newID(), Kind: pl.KindFunc, Func: &newFunc}, nil
	}

	return r.substituteAndFold(&newFunc, fc.NamedArgs)
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func namedArgValue(named []ast.NamedArg, name string) ast.Expr {
	for _, na := range named {
		if na.Name == name {
			return na.Value
		}
	}
	return nil
}

func funcName(fn *pl.FuncVal) string {
	if fn.NameHint != "" {
		return fn.NameHint
	}
	return "function"
}

// substituteAndFold implements spec §4.5.4 step 5 for a fully saturated
// call: bind every Param/NamedParam to its argument (or default), replace
// each reference in the body by position, and refold the substituted tree
// so operator/tuple types reflect the now-concrete arguments instead of
// the placeholder types the body was first resolved under.
func (r *Resolver) substituteAndFold(fn *pl.FuncVal, namedArgs []ast.NamedArg) (*pl.Expr, error) {
	bindings := map[string]*pl.Expr{}
	for i, p := range fn.Params {
		switch {
		case i < len(fn.Args):
			bindings[p.Name] = fn.Args[i]
		case p.Default != nil:
			bindings[p.Name] = p.Default
		default:
			return nil, fmt.Errorf("%s: missing argument for parameter %q", funcName(fn), p.Name)
		}
	}
	for _, np := range fn.NamedParams {
		if v := namedArgValue(namedArgs, np.Name); v != nil {
			re, err := r.resolveExpr(v)
			if err != nil {
				return nil, err
			}
			bindings[np.Name] = re
			continue
		}
		if np.Default != nil {
			bindings[np.Name] = np.Default
			continue
		}
		return nil, fmt.Errorf("%s: missing argument for named parameter %q", funcName(fn), np.Name)
	}

	body := r.substituteParams(fn.Body, bindings)
	return r.foldExpr(body), nil
}

// substituteParams walks e, replacing every bare reference to a bound
// parameter name with (a fresh-id clone of) its bound argument, and
// assigning fresh ids to every other node it copies — the body is shared
// by every call site of this function, so splicing it in without
// renumbering would violate spec §8's ID-uniqueness property. A nested
// Func that redeclares one of the bound names shadows it and is left
// untouched below that point.
func (r *Resolver) substituteParams(e *pl.Expr, bindings map[string]*pl.Expr) *pl.Expr {
	if e == nil {
		return nil
	}
	if e.Kind == pl.KindIdent && len(e.Parts) == 1 && e.TargetID == 0 {
		if bound, ok := bindings[e.Parts[0]]; ok {
			return r.cloneWithFreshIDs(bound)
		}
	}

	cp := *e
	cp.ID = r.newID()

	if len(e.Elems) > 0 {
		cp.Elems = make([]*pl.Expr, len(e.Elems))
		for i, el := range e.Elems {
			cp.Elems[i] = r.substituteParams(el, bindings)
		}
	}
	if len(e.Args) > 0 {
		cp.Args = make([]*pl.Expr, len(e.Args))
		for i, a := range e.Args {
			cp.Args[i] = r.substituteParams(a, bindings)
		}
	}
	if len(e.Branches) > 0 {
		cp.Branches = make([]pl.CaseBranch, len(e.Branches))
		for i, b := range e.Branches {
			cp.Branches[i] = pl.CaseBranch{
				Cond:  r.substituteParams(b.Cond, bindings),
				Value: r.substituteParams(b.Value, bindings),
			}
		}
	}
	if len(e.Interp) > 0 {
		cp.Interp = make([]pl.InterpPart, len(e.Interp))
		for i, p := range e.Interp {
			np := p
			if p.Expr != nil {
				np.Expr = r.substituteParams(p.Expr, bindings)
			}
			cp.Interp[i] = np
		}
	}
	if e.Transform != nil {
		cp.Transform = r.substituteTransform(e.Transform, bindings)
	}
	if e.Func != nil {
		cp.Func = r.substituteFuncVal(e.Func, bindings)
	}
	return &cp
}

func (r *Resolver) substituteTransform(tc *pl.TransformCall, bindings map[string]*pl.Expr) *pl.TransformCall {
	t := *tc
	t.Input = r.substituteParams(tc.Input, bindings)
	if len(tc.Assigns) > 0 {
		t.Assigns = make([]*pl.Expr, len(tc.Assigns))
		for i, a := range tc.Assigns {
			t.Assigns[i] = r.substituteParams(a, bindings)
		}
	}
	t.Predicate = r.substituteParams(tc.Predicate, bindings)
	if len(tc.By) > 0 {
		t.By = make([]*pl.Expr, len(tc.By))
		for i, b := range tc.By {
			t.By[i] = r.substituteParams(b, bindings)
		}
	}
	if len(tc.Sort) > 0 {
		t.Sort = make([]pl.SortKey, len(tc.Sort))
		for i, s := range tc.Sort {
			t.Sort[i] = pl.SortKey{Desc: s.Desc, Column: r.substituteParams(s.Column, bindings)}
		}
	}
	t.Range = r.substituteParams(tc.Range, bindings)
	t.With = r.substituteParams(tc.With, bindings)
	t.Pipeline = r.substituteParams(tc.Pipeline, bindings)
	if tc.Frame != nil {
		f := *tc.Frame
		f.Start = r.substituteParams(tc.Frame.Start, bindings)
		f.End = r.substituteParams(tc.Frame.End, bindings)
		t.Frame = &f
	}
	if len(tc.Partition) > 0 {
		t.Partition = make([]*pl.Expr, len(tc.Partition))
		for i, p := range tc.Partition {
			t.Partition[i] = r.substituteParams(p, bindings)
		}
	}
	return &t
}

func (r *Resolver) substituteFuncVal(fn *pl.FuncVal, bindings map[string]*pl.Expr) *pl.FuncVal {
	for _, p := range fn.Params {
		if _, ok := bindings[p.Name]; ok {
			return fn // shadowed: this nested func rebinds the name itself
		}
	}
	for _, p := range fn.NamedParams {
		if _, ok := bindings[p.Name]; ok {
			return fn
		}
	}
	fv := *fn
	fv.Body = r.substituteParams(fn.Body, bindings)
	if len(fn.Args) > 0 {
		fv.Args = make([]*pl.Expr, len(fn.Args))
		for i, a := range fn.Args {
			fv.Args[i] = r.substituteParams(a, bindings)
		}
	}
	return &fv
}

// cloneWithFreshIDs deep-copies e, assigning a fresh id to every node, so
// splicing the same bound argument into multiple occurrences of its
// parameter never aliases ids across the copies.
func (r *Resolver) cloneWithFreshIDs(e *pl.Expr) *pl.Expr {
	return r.substituteParams(e, nil)
}

// foldExpr refolds a substituted tree bottom-up, recomputing the Ty of
// the node kinds whose type depends on child types that may have just
// become concrete (operator calls, tuples) — the rest of the tree's types
// were already fixed when the body was first resolved and don't change
// under substitution.
func (r *Resolver) foldExpr(e *pl.Expr) *pl.Expr {
	if e == nil {
		return nil
	}
	for i, el := range e.Elems {
		e.Elems[i] = r.foldExpr(el)
	}
	for i, a := range e.Args {
		e.Args[i] = r.foldExpr(a)
	}
	for i, b := range e.Branches {
		e.Branches[i] = pl.CaseBranch{Cond: r.foldExpr(b.Cond), Value: r.foldExpr(b.Value)}
	}
	if e.Transform != nil {
		e.Transform.Input = r.foldExpr(e.Transform.Input)
		for i, a := range e.Transform.Assigns {
			e.Transform.Assigns[i] = r.foldExpr(a)
		}
		e.Transform.Predicate = r.foldExpr(e.Transform.Predicate)
		e.Transform.Pipeline = r.foldExpr(e.Transform.Pipeline)
	}

	switch e.Kind {
	case pl.KindRqOperator:
		e.Ty = inferOperatorTy(e.OpName, e.Args)
	case pl.KindTuple:
		e.Ty = tupleExprTy(e.Elems)
	}
	return e
}

func columnNameOf(e *pl.Expr) string {
	if e.Alias != "" {
		return e.Alias
	}
	if e.Kind == pl.KindIdent && len(e.Parts) > 0 {
		return e.Parts[len(e.Parts)-1]
	}
	return ""
}

// resolveAssignList resolves a `{a, b = expr}`-shaped assign tuple, or a
// bare single expression, into a flat Expr list.
func (r *Resolver) resolveAssignList(e ast.Expr) ([]*pl.Expr, error) {
	if tup, ok := e.(*ast.Tuple); ok {
		out := make([]*pl.Expr, 0, len(tup.Elems))
		for _, el := range tup.Elems {
			re, err := r.resolveExpr(el.Value)
			if err != nil {
				return nil, err
			}
			if el.Alias != "" {
				re.Alias = el.Alias
			}
			out = append(out, re)
		}
		return out, nil
	}
	re, err := r.resolveExpr(e)
	if err != nil {
		return nil, err
	}
	return []*pl.Expr{re}, nil
}

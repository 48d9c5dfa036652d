package resolver

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// resolveExpr folds one PR expression into PL, assigning it a fresh id
// (spec §4.5's single entry point every node passes through exactly once).
func (r *Resolver) resolveExpr(e ast.Expr) (*pl.Expr, error) {
	switch v := e.(type) {
	case *ast.Ident:
		return r.resolveIdent(v)

	case *ast.Literal:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindLiteral, Raw: v.Raw, Ty: tyFromLiteralKind(v.Kind)}, nil

	case *ast.Indirection:
		return r.resolveIndirection(v)

	case *ast.Tuple:
		elems := make([]*pl.Expr, 0, len(v.Elems))
		for _, el := range v.Elems {
			re, err := r.resolveExpr(el.Value)
			if err != nil {
				return nil, err
			}
			if el.Alias != "" {
				re.Alias = el.Alias
			}
			elems = append(elems, re)
		}
		return &pl.Expr{ID: r.newID(), Kind: pl.KindTuple, Elems: elems, Ty: tupleExprTy(elems)}, nil

	case *ast.Array:
		elems := make([]*pl.Expr, 0, len(v.Elems))
		var elemTy *types.Ty
		for _, el := range v.Elems {
			re, err := r.resolveExpr(el)
			if err != nil {
				return nil, err
			}
			elems = append(elems, re)
			if elemTy == nil {
				elemTy = re.Ty
			}
		}
		return &pl.Expr{ID: r.newID(), Kind: pl.KindArray, Elems: elems, Ty: types.ArrayTy(elemTy)}, nil

	case *ast.FuncCall:
		return r.resolveFuncCall(v)

	case *ast.Func:
		return r.resolveFuncLit(v)

	case *ast.Case:
		branches := make([]pl.CaseBranch, 0, len(v.Branches))
		var ty *types.Ty
		for _, b := range v.Branches {
			cond, err := r.resolveExpr(b.Cond)
			if err != nil {
				return nil, err
			}
			val, err := r.resolveExpr(b.Value)
			if err != nil {
				return nil, err
			}
			if ty == nil {
				ty = val.Ty
			}
			branches = append(branches, pl.CaseBranch{Cond: cond, Value: val})
		}
		return &pl.Expr{ID: r.newID(), Kind: pl.KindCase, Branches: branches, Ty: ty}, nil

	case *ast.SString:
		parts, err := r.resolveInterp(v.Parts)
		if err != nil {
			return nil, err
		}
		return &pl.Expr{ID: r.newID(), Kind: pl.KindSString, Interp: parts, Ty: types.Any()}, nil

	case *ast.FString:
		parts, err := r.resolveInterp(v.Parts)
		if err != nil {
			return nil, err
		}
		return &pl.Expr{ID: r.newID(), Kind: pl.KindFString, Interp: parts, Ty: types.PrimitiveTy(types.Text)}, nil

	case *ast.ParamExpr:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindParam, ParamName: v.Name, Ty: types.Any()}, nil

	case *ast.Internal:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindInternal, InternalName: v.Name}, nil

	case *ast.AliasOf:
		val, err := r.resolveExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		val.Alias = v.Alias
		return val, nil

	case *ast.Range:
		// Reached only if astexpand did not already rewrite this node
		// (e.g. a Range built directly by a test); treat like its expanded
		// Tuple{start,end} form.
		return r.resolveExpr(rangeToTuple(v))

	default:
		return nil, fmt.Errorf("resolver: unsupported expression %T", e)
	}
}

func (r *Resolver) resolveInterp(parts []ast.InterpPart) ([]pl.InterpPart, error) {
	out := make([]pl.InterpPart, 0, len(parts))
	for _, p := range parts {
		if p.Expr == nil {
			out = append(out, pl.InterpPart{Text: p.Text})
			continue
		}
		e, err := r.resolveExpr(p.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, pl.InterpPart{Expr: e})
	}
	return out, nil
}

func rangeToTuple(v *ast.Range) *ast.Tuple {
	start, end := v.Start, v.End
	if start == nil {
		start = &ast.Literal{Kind: token.LitNull, Sp: v.Sp}
	}
	if end == nil {
		end = &ast.Literal{Kind: token.LitNull, Sp: v.Sp}
	}
	return &ast.Tuple{Elems: []ast.TupleElem{{Alias: "start", Value: start}, {Alias: "end", Value: end}}, Sp: v.Sp}
}

// resolveIdent resolves a (possibly dotted) name against the lexical scope
// stack and the root module's redirects, producing a fresh PL node that
// points at the declaration via TargetID (spec §8's ID-uniqueness property:
// every reference site gets its own id even when it names the same decl).
func (r *Resolver) resolveIdent(id *ast.Ident) (*pl.Expr, error) {
	d, err := r.lookupPath(id.Parts)
	if err != nil {
		return nil, err
	}
	return r.exprFromDecl(d, id.Parts)
}

func (r *Resolver) exprFromDecl(d *decl.Decl, path []string) (*pl.Expr, error) {
	switch d.Kind {
	case decl.KindExpr:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIdent, TargetID: d.Expr.ID, Ty: d.Expr.Ty, Lineage: d.Expr.Lineage, Parts: path}, nil
	case decl.KindColumn:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIdent, TargetID: d.ColumnTarget, Parts: path}, nil
	case decl.KindParam:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIdent, Parts: path, Ty: d.Ty}, nil
	case decl.KindTableDecl:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIdent, Parts: path, Ty: d.Table.Ty}, nil
	case decl.KindGenericParam:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIdent, Parts: path, Ty: d.GenericTy}, nil
	case decl.KindModule:
		return nil, fmt.Errorf("%s is a module, not a value", strings.Join(path, "."))
	default:
		return nil, fmt.Errorf("%s cannot be used as a value", strings.Join(path, "."))
	}
}

func (r *Resolver) resolveIndirection(v *ast.Indirection) (*pl.Expr, error) {
	base, err := r.resolveExpr(v.Base)
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case ast.IndirStar:
		return &pl.Expr{ID: r.newID(), Kind: pl.KindAll, AllWithin: base.ID, Ty: base.Ty}, nil
	case ast.IndirName:
		return r.resolveTupleField(v.Sp, base, v.Name, 0)
	case ast.IndirPosition:
		return r.resolveTupleField(v.Sp, base, "", v.Position)
	default:
		return nil, fmt.Errorf("resolver: unknown indirection kind %v", v.Kind)
	}
}

// resolveTupleField implements spec §4.5.3's tuple-indirection rule: a
// structural search through base's tuple fields by name or by 1-based
// position, raising ambiguity on multiple name matches and synthesizing a
// generic candidate on a miss against an open (Unpack-tailed) tuple. The
// result is always rewritten into a positional Indirection{Position} step,
// so no downstream consumer ever has to search by name again, and always
// carries a Ty (spec §8's TYPE SOUNDNESS property).
func (r *Resolver) resolveTupleField(sp token.Span, base *pl.Expr, name string, pos int) (*pl.Expr, error) {
	fields, open, isTuple := tupleFields(base.Ty)
	if !isTuple {
		// base isn't a known tuple shape; fall back to a best-effort
		// untyped positional access instead of failing the whole resolve.
		position := pos
		if position == 0 {
			position = 1
		}
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIndirection, Args: []*pl.Expr{base}, Position: position, Ty: types.Any()}, nil
	}

	if pos > 0 {
		if pos <= len(fields) {
			return &pl.Expr{ID: r.newID(), Kind: pl.KindIndirection, Args: []*pl.Expr{base}, Position: pos, Ty: fields[pos-1].Ty}, nil
		}
		if open {
			return &pl.Expr{ID: r.newID(), Kind: pl.KindIndirection, Args: []*pl.Expr{base}, Position: pos, Ty: types.Any()}, nil
		}
		return nil, fmt.Errorf("tuple has no field at position %d (has %d)", pos, len(fields))
	}

	var matches []int
	for i, f := range fields {
		if f.Kind == types.FieldSingle && f.Name == name {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		i := matches[0]
		return &pl.Expr{ID: r.newID(), Kind: pl.KindIndirection, Args: []*pl.Expr{base}, Position: i + 1, Ty: fields[i].Ty}, nil
	case 0:
		if open {
			// Generic-candidate synthesis: the declared fields don't name
			// this column, but the trailing Unpack field means more fields
			// may exist at runtime. Assume it does, at the open tail's
			// position, typed Any until a concrete source proves otherwise.
			return &pl.Expr{ID: r.newID(), Kind: pl.KindIndirection, Args: []*pl.Expr{base}, Position: len(fields) + 1, Ty: types.Any()}, nil
		}
		return nil, fmt.Errorf("tuple has no field named %q", name)
	default:
		return nil, fmt.Errorf("ambiguous field %q: matches %d positions", name, len(matches))
	}
}

// tupleFields returns base's tuple shape (unwrapping a relation/array
// element type), its Single-kind fields in order, and whether it ends
// with an open Unpack tail. isTuple is false when t isn't tuple-shaped at
// all, distinguishing "no fields" from "not a tuple".
func tupleFields(t *types.Ty) (fields []types.Field, open, isTuple bool) {
	if t == nil {
		return nil, false, false
	}
	if t.Kind == types.KindArray && t.Elem != nil {
		t = t.Elem
	}
	if t.Kind != types.KindTuple {
		return nil, false, false
	}
	for _, f := range t.Fields {
		if f.Kind == types.FieldUnpack {
			open = true
			continue
		}
		fields = append(fields, f)
	}
	return fields, open, true
}

func (r *Resolver) resolveFuncLit(f *ast.Func) (*pl.Expr, error) {
	params := make([]pl.Param, len(f.Params))
	scope := decl.NewModule()
	for i, p := range f.Params {
		var def *pl.Expr
		if p.Default != nil {
			d, err := r.resolveExpr(p.Default)
			if err != nil {
				return nil, err
			}
			def = d
		}
		ty := r.resolveTy(p.Ty)
		params[i] = pl.Param{Name: p.Name, Ty: ty, Default: def}
		scope.Insert(p.Name, &decl.Decl{Kind: decl.KindParam, ParamName: p.Name, Ty: ty})
	}
	namedParams := make([]pl.Param, len(f.NamedParams))
	for i, p := range f.NamedParams {
		ty := r.resolveTy(p.Ty)
		namedParams[i] = pl.Param{Name: p.Name, Ty: ty}
		scope.Insert(p.Name, &decl.Decl{Kind: decl.KindParam, ParamName: p.Name, Ty: ty})
	}

	r.pushScope(scope)
	body, err := r.resolveExpr(f.Body)
	r.popScope()
	if err != nil {
		return nil, err
	}

	retTy := r.resolveTy(f.ReturnTy)
	paramTys := make([]*types.Ty, len(params))
	for i, p := range params {
		paramTys[i] = p.Ty
	}
	return &pl.Expr{
		ID:   r.newID(),
		Kind: pl.KindFunc,
		Ty:   &types.Ty{Kind: types.KindFunction, Func: &types.TyFunc{Params: paramTys, Return: retTy}},
		Func: &pl.FuncVal{Params: params, NamedParams: namedParams, Body: body, ReturnTy: retTy},
	}, nil
}

func tyFromLiteralKind(k token.LiteralKind) *types.Ty {
	switch k {
	case token.LitInt:
		return types.PrimitiveTy(types.Int)
	case token.LitFloat:
		return types.PrimitiveTy(types.Float)
	case token.LitBool:
		return types.PrimitiveTy(types.Bool)
	case token.LitString, token.LitRawString:
		return types.PrimitiveTy(types.Text)
	case token.LitDate:
		return types.PrimitiveTy(types.Date)
	case token.LitTime:
		return types.PrimitiveTy(types.Time)
	case token.LitTimestamp:
		return types.PrimitiveTy(types.Timestamp)
	case token.LitNull:
		return types.Any()
	case token.LitValueUnit:
		return types.PrimitiveTy(types.Int)
	default:
		return types.Any()
	}
}

func tupleExprTy(elems []*pl.Expr) *types.Ty {
	fields := make([]types.Field, 0, len(elems))
	for _, e := range elems {
		if e.Kind == pl.KindAll {
			fields = append(fields, types.Field{Kind: types.FieldUnpack, Ty: e.Ty})
			continue
		}
		fields = append(fields, types.Field{Kind: types.FieldSingle, Name: e.Alias, Ty: e.Ty})
	}
	return types.TupleTy(fields...)
}

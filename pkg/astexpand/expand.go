// Package astexpand implements the PR→PL desugaring of spec §4.3: a
// mechanical rewrite that runs after parsing and before resolution. It
// operates in place on the ast (PR) node shapes — ident-chain merging,
// `Range`→`Tuple`, unary/binary operators into `std.*` calls, and pipeline
// flattening all still produce plain `ast.Expr` values, since the
// resolver's statement-resolution entry point (spec §4.5.1) consumes
// `ast.Stmt` directly and assigns pl.Expr ids itself. Introducing a
// second, parallel "expanded PR" node set purely to rename the package
// would duplicate `pkg/ast` for no semantic gain, so this package rewrites
// `ast.Expr` trees and returns `ast.Stmt` (see DESIGN.md).
package astexpand

import (
	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

// Expand desugars every statement in place (returning the same slice for
// convenience) per spec §4.3.
func Expand(stmts []ast.Stmt) []ast.Stmt {
	for i, s := range stmts {
		stmts[i] = expandStmt(s)
	}
	return stmts
}

func expandStmt(s ast.Stmt) ast.Stmt {
	switch v := s.(type) {
	case *ast.VarDef:
		if v.Value != nil {
			v.Value = expandExpr(v.Value)
		}
		return v
	case *ast.TypeDef:
		return v
	case *ast.ModuleDef:
		v.Stmts = Expand(v.Stmts)
		return v
	case *ast.ImportDef:
		return v
	case *ast.QueryDef:
		return v
	default:
		return s
	}
}

func expandExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.Indirection:
		v.Base = expandExpr(v.Base)
		if v.Kind == ast.IndirName {
			if base, ok := v.Base.(*ast.Ident); ok {
				return &ast.Ident{Parts: append(append([]string{}, base.Parts...), v.Name), Sp: v.Sp}
			}
		}
		return v

	case *ast.Range:
		start := expandOrNil(v.Start)
		end := expandOrNil(v.End)
		elems := []ast.TupleElem{
			{Alias: "start", Value: orNullLiteral(start, v.Sp)},
			{Alias: "end", Value: orNullLiteral(end, v.Sp)},
		}
		return &ast.Tuple{Elems: elems, Sp: v.Sp}

	case *ast.Unary:
		operand := expandExpr(v.Expr)
		switch v.Op {
		case token.MINUS:
			return stdCall("std.neg", v.Sp, operand)
		case token.NOT:
			return stdCall("std.not", v.Sp, operand)
		case token.PLUS:
			return operand
		case token.TILDE:
			if ident, ok := operand.(*ast.Ident); ok {
				thisRef := &ast.Ident{Parts: prefixed("this", ident.Parts), Sp: v.Sp}
				thatRef := &ast.Ident{Parts: prefixed("that", ident.Parts), Sp: v.Sp}
				return stdCall("std.eq", v.Sp, thisRef, thatRef)
			}
			return stdCall("std.eq", v.Sp, operand, operand)
		}
		return v

	case *ast.Binary:
		left := expandExpr(v.Left)
		right := expandExpr(v.Right)
		name, swap := binStdName(v.Op)
		if swap {
			return stdCall(name, v.Sp, right, left)
		}
		return stdCall(name, v.Sp, left, right)

	case *ast.Pipeline:
		var acc ast.Expr = expandExpr(v.Exprs[0])
		for _, step := range v.Exprs[1:] {
			stepExpanded := expandExpr(step)
			acc = foldIntoCall(stepExpanded, acc)
		}
		return acc

	case *ast.Tuple:
		for i := range v.Elems {
			v.Elems[i].Value = expandExpr(v.Elems[i].Value)
		}
		return v

	case *ast.Array:
		for i := range v.Elems {
			v.Elems[i] = expandExpr(v.Elems[i])
		}
		return v

	case *ast.FuncCall:
		v.Callee = expandExpr(v.Callee)
		for i := range v.Args {
			v.Args[i] = expandExpr(v.Args[i])
		}
		for i := range v.NamedArgs {
			v.NamedArgs[i].Value = expandExpr(v.NamedArgs[i].Value)
		}
		return v

	case *ast.Func:
		v.Body = expandExpr(v.Body)
		return v

	case *ast.Case:
		for i := range v.Branches {
			v.Branches[i].Cond = expandExpr(v.Branches[i].Cond)
			v.Branches[i].Value = expandExpr(v.Branches[i].Value)
		}
		return v

	case *ast.AliasOf:
		v.Expr = expandExpr(v.Expr)
		return v

	case *ast.SString:
		for i := range v.Parts {
			if v.Parts[i].Expr != nil {
				v.Parts[i].Expr = expandExpr(v.Parts[i].Expr)
			}
		}
		return v

	case *ast.FString:
		for i := range v.Parts {
			if v.Parts[i].Expr != nil {
				v.Parts[i].Expr = expandExpr(v.Parts[i].Expr)
			}
		}
		return v

	default:
		return e
	}
}

func expandOrNil(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	return expandExpr(e)
}

func orNullLiteral(e ast.Expr, sp token.Span) ast.Expr {
	if e != nil {
		return e
	}
	return &ast.Literal{Kind: token.LitNull, Sp: sp}
}

func prefixed(ns string, parts []string) []string {
	if len(parts) > 0 && (parts[0] == "this" || parts[0] == "that") {
		return parts
	}
	return append([]string{ns}, parts...)
}

// stdCall builds `std.<name>(args...)` as a FuncCall over a dotted Ident
// callee, matching spec §4.3's operator desugaring.
func stdCall(dotted string, sp token.Span, args ...ast.Expr) ast.Expr {
	callee := &ast.Ident{Parts: splitDotted(dotted), Sp: sp}
	return &ast.FuncCall{Callee: callee, Args: args, Sp: sp}
}

func splitDotted(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// binStdName maps a binary operator token to its `std.*` function name;
// the bool reports whether the argument order must be swapped (only
// `**`, per spec §4.3: "Power is std.math.pow b a").
func binStdName(op token.TokenType) (string, bool) {
	switch op {
	case token.PLUS:
		return "std.add", false
	case token.MINUS:
		return "std.sub", false
	case token.STAR:
		return "std.mul", false
	case token.DIV_INT:
		return "std.div_i", false
	case token.SLASH:
		return "std.div_f", false
	case token.PERCENT:
		return "std.mod", false
	case token.POW:
		return "std.math.pow", true
	case token.EQ:
		return "std.eq", false
	case token.NE:
		return "std.ne", false
	case token.GT:
		return "std.gt", false
	case token.LT:
		return "std.lt", false
	case token.GTE:
		return "std.gte", false
	case token.LTE:
		return "std.lte", false
	case token.REGEX:
		return "std.regex_search", false
	case token.AND:
		return "std.and", false
	case token.OR:
		return "std.or", false
	case token.COALESCE:
		return "std.coalesce", false
	default:
		return "std.unknown", false
	}
}

// foldIntoCall implements `Pipeline{exprs}` folding: each subsequent step
// becomes a FuncCall whose accumulated-so-far expression is appended as
// its final positional argument — matching the relation parameter's
// conventional last position in every std transform's declared signature
// (e.g. `func select assigns tbl -> ...`), so `from x | select {a}`
// becomes `select({a}, from x)`.
func foldIntoCall(step, acc ast.Expr) ast.Expr {
	if alias, ok := step.(*ast.AliasOf); ok {
		return &ast.AliasOf{Alias: alias.Alias, Expr: foldIntoCall(alias.Expr, acc), Sp: alias.Sp}
	}
	if call, ok := step.(*ast.FuncCall); ok {
		call.Args = append(call.Args, acc)
		return call
	}
	return &ast.FuncCall{Callee: step, Args: []ast.Expr{acc}, Sp: step.Span()}
}

package format

import (
	"strconv"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

func (p *printer) expr(e ast.Expr) {
	switch v := e.(type) {
	case nil:
		return
	case *ast.Ident:
		p.write(v.String())
	case *ast.Indirection:
		p.expr(v.Base)
		p.write(".")
		switch v.Kind {
		case ast.IndirStar:
			p.write("*")
		case ast.IndirPosition:
			p.write(strconv.Itoa(v.Position))
		default:
			p.write(v.Name)
		}
	case *ast.Literal:
		p.write(literalText(v))
	case *ast.Pipeline:
		p.formatList(len(v.Exprs), func(i int) { p.expr(v.Exprs[i]) }, " | ")
	case *ast.Tuple:
		p.write("{")
		p.formatList(len(v.Elems), func(i int) {
			el := v.Elems[i]
			if el.Alias != "" {
				p.write(el.Alias)
				p.write(" = ")
			}
			p.expr(el.Value)
		}, ", ")
		p.write("}")
	case *ast.Array:
		p.write("[")
		p.formatList(len(v.Elems), func(i int) { p.expr(v.Elems[i]) }, ", ")
		p.write("]")
	case *ast.Range:
		if v.Start != nil {
			p.expr(v.Start)
		}
		p.write("..")
		if v.End != nil {
			p.expr(v.End)
		}
	case *ast.Binary:
		p.expr(v.Left)
		p.space()
		p.write(v.Op.String())
		p.space()
		p.expr(v.Right)
	case *ast.Unary:
		p.write(v.Op.String())
		p.expr(v.Expr)
	case *ast.FuncCall:
		p.expr(v.Callee)
		for _, a := range v.Args {
			p.space()
			p.expr(a)
		}
		for _, na := range v.NamedArgs {
			p.space()
			p.write(na.Name)
			p.write(":")
			p.expr(na.Value)
		}
	case *ast.Func:
		p.write("func ")
		p.formatList(len(v.Params), func(i int) { p.funcParam(v.Params[i]) }, " ")
		for _, np := range v.NamedParams {
			p.space()
			p.funcParam(np)
		}
		p.write(" -> ")
		if v.ReturnTy != nil {
			p.write("<")
			p.write(tyString(v.ReturnTy))
			p.write("> ")
		}
		p.expr(v.Body)
	case *ast.SString:
		p.interpString('s', v.Parts)
	case *ast.FString:
		p.interpString('f', v.Parts)
	case *ast.Case:
		p.write("case [")
		p.formatList(len(v.Branches), func(i int) {
			b := v.Branches[i]
			p.expr(b.Cond)
			p.write(" => ")
			p.expr(b.Value)
		}, ", ")
		p.write("]")
	case *ast.ParamExpr:
		p.write("$")
		p.write(v.Name)
	case *ast.Internal:
		p.write("internal ")
		p.write(v.Name)
	case *ast.AliasOf:
		p.write(v.Alias)
		p.write(" = ")
		p.expr(v.Expr)
	default:
		p.write("/* unsupported expr */")
	}
}

func (p *printer) funcParam(fp ast.FuncParam) {
	p.write(fp.Name)
	if fp.Ty != nil {
		p.write("<")
		p.write(tyString(fp.Ty))
		p.write(">")
	}
	if fp.Default != nil {
		p.write(":")
		p.expr(fp.Default)
	}
}

func (p *printer) interpString(kind byte, parts []ast.InterpPart) {
	p.write(string(kind))
	p.write("\"")
	for _, part := range parts {
		if part.Expr != nil {
			p.write("{")
			p.expr(part.Expr)
			p.write("}")
			continue
		}
		p.write(part.Text)
	}
	p.write("\"")
}

// literalText re-wraps a Literal's Raw text in the punctuation the lexer
// stripped off: quotes for strings, a leading `@` for date/time/timestamp.
func literalText(l *ast.Literal) string {
	switch l.Kind {
	case token.LitString:
		return strconv.Quote(l.Raw)
	case token.LitRawString:
		return "r\"" + l.Raw + "\""
	case token.LitDate, token.LitTime, token.LitTimestamp:
		return "@" + l.Raw
	default:
		return l.Raw
	}
}

package format

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// stmts renders a sequence of statements, each ending in a newline, with
// a blank line between consecutive statements; a statement's annotations
// render as `@expr` lines before it.
func (p *printer) stmts(list []ast.Stmt) {
	for i, s := range list {
		if i > 0 {
			p.writeln()
		}
		p.stmt(s)
		p.writeln()
	}
}

func (p *printer) stmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.QueryDef:
		p.queryDef(v)
	case *ast.VarDef:
		p.varDef(v)
	case *ast.TypeDef:
		p.annotations(v.Ann)
		p.write("type ")
		p.write(v.Name)
		p.write(" = ")
		p.write(tyString(v.Ty))
	case *ast.ModuleDef:
		p.annotations(v.Ann)
		if v.Name == "" {
			p.stmts(v.Stmts)
			return
		}
		p.write("module ")
		p.write(v.Name)
		p.write(" {")
		p.writeln()
		p.indent()
		p.stmts(v.Stmts)
		p.dedent()
		p.write("}")
	case *ast.ImportDef:
		p.annotations(v.Ann)
		p.write("import ")
		if v.Alias != "" {
			p.write(v.Alias)
			p.write(" = ")
		}
		p.write(v.Ident.String())
	default:
		p.write(fmt.Sprintf("/* unsupported statement %T */", s))
	}
}

func (p *printer) queryDef(q *ast.QueryDef) {
	p.annotations(q.Ann)
	p.write("prql")
	if q.Target != "" {
		p.write(" target:")
		p.write(q.Target)
	}
	if q.Version != "" {
		p.write(" version:\"")
		p.write(q.Version)
		p.write("\"")
	}
	keys := make([]string, 0, len(q.OtherKV))
	for k := range q.OtherKV {
		keys = append(keys, k)
	}
	for _, k := range keys {
		p.write(" ")
		p.write(k)
		p.write(":")
		p.expr(q.OtherKV[k])
	}
}

func (p *printer) varDef(v *ast.VarDef) {
	p.annotations(v.Ann)
	switch v.Kind {
	case ast.VarInto:
		p.write("into ")
		p.write(v.Name)
	case ast.VarMain:
		p.expr(v.Value)
	default: // ast.VarLet
		p.write("let ")
		p.write(v.Name)
		if v.Ty != nil {
			p.write("<")
			p.write(tyString(v.Ty))
			p.write(">")
		}
		p.write(" = ")
		p.expr(v.Value)
	}
}

func (p *printer) annotations(ann []ast.Expr) {
	for _, a := range ann {
		p.write("@")
		p.expr(a)
		p.writeln()
	}
}

// tyString renders a resolved or unresolved type back to its `<ty>`
// surface syntax.
func tyString(t *types.Ty) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case types.KindIdent:
		return t.Name
	case types.KindPrimitive:
		return primitiveName(t.Prim)
	case types.KindAny:
		return "anytype"
	case types.KindSingleton:
		return t.Literal
	case types.KindArray:
		if t.Elem == nil {
			return "[]"
		}
		return "[" + tyString(t.Elem) + "]"
	case types.KindTuple:
		fields := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, fieldString(f))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case types.KindFunction:
		if t.Func == nil {
			return "func"
		}
		parts := make([]string, 0, len(t.Func.Params)+1)
		for _, pt := range t.Func.Params {
			parts = append(parts, tyString(pt))
		}
		parts = append(parts, tyString(t.Func.Return))
		return strings.Join(parts, " -> ")
	case types.KindUnion:
		variants := make([]string, 0, len(t.Variants))
		for _, v := range t.Variants {
			variants = append(variants, tyString(v))
		}
		return strings.Join(variants, " | ")
	default:
		return ""
	}
}

func primitiveName(p types.Primitive) string {
	switch p {
	case types.Int:
		return "int"
	case types.Float:
		return "float"
	case types.Bool:
		return "bool"
	case types.Text:
		return "text"
	case types.Date:
		return "date"
	case types.Time:
		return "time"
	case types.Timestamp:
		return "timestamp"
	default:
		return "anytype"
	}
}

func fieldString(f types.Field) string {
	if f.Kind == types.FieldUnpack {
		if f.Name != "" {
			return "*" + f.Name
		}
		return "*"
	}
	if f.Ty == nil {
		return f.Name
	}
	return f.Name + " = <" + tyString(f.Ty) + ">"
}

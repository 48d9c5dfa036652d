package parser

import (
	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

// parseStmt parses one top-level or module-level statement, recovering to
// the next synchronizing token on error (spec §4.2/§7).
func (p *Parser) parseStmt() (stmt ast.Stmt) {
	defer func() {
		if stmt == nil {
			p.recover()
		}
	}()

	ann := p.parseAnnotations()

	switch p.cur().Type {
	case token.KW_LET:
		return p.parseLet(ann)
	case token.KW_INTO:
		return p.parseInto(ann)
	case token.KW_TYPE:
		return p.parseTypeDef(ann)
	case token.KW_MODULE:
		return p.parseModuleDef(ann)
	case token.KW_IMPORT:
		return p.parseImportDef(ann)
	default:
		return p.parseMainPipeline(ann)
	}
}

// parseAnnotations consumes zero or more `@expr` lines preceding a
// statement (spec §6.2's `@{binding_strength=1}`-style annotations).
func (p *Parser) parseAnnotations() []ast.Expr {
	var ann []ast.Expr
	for p.cur().Type == token.AT {
		p.advance()
		ann = append(ann, p.parseOr())
		p.skipNewlines()
	}
	return ann
}

// parseQueryDef parses the optional `prql [target:...] [version:"..."]`
// header (spec §3.2, §6.2).
func (p *Parser) parseQueryDef() ast.Stmt {
	start := p.cur().Pos
	p.expect(token.KW_PRQL)
	q := &ast.QueryDef{OtherKV: map[string]ast.Expr{}}
	for p.cur().Type == token.IDENT && p.peek(1).Type == token.COLON {
		key := p.advance().Literal
		p.advance()
		val := p.parseOr()
		switch key {
		case "target":
			if id, ok := val.(*ast.Ident); ok {
				q.Target = id.String()
			} else if lit, ok := val.(*ast.Literal); ok {
				q.Target = lit.Raw
			}
		case "version":
			if lit, ok := val.(*ast.Literal); ok {
				q.Version = lit.Raw
			}
		default:
			q.OtherKV[key] = val
		}
	}
	q.Sp = p.spanFrom(start)
	return q
}

// parseLet parses `let name [<ty>] = pipeline`.
func (p *Parser) parseLet(ann []ast.Expr) ast.Stmt {
	start := p.cur().Pos
	p.expect(token.KW_LET)
	name := p.expect(token.IDENT).Literal
	ty := p.parseTyAnnotation()
	p.expect(token.EQ)
	p.skipNewlines()
	// A let value continues only through explicit `|`; a newline ends it,
	// so a multi-line pipeline value needs parentheses.
	pipeStart := p.cur().Pos
	exprs := []ast.Expr{p.parseMaybeAliased()}
	for p.cur().Type == token.PIPE {
		p.advance()
		p.skipNewlines()
		exprs = append(exprs, p.parseMaybeAliased())
	}
	val := exprs[0]
	if len(exprs) > 1 {
		val = &ast.Pipeline{Exprs: exprs, Sp: p.spanFrom(pipeStart)}
	}
	return &ast.VarDef{Kind: ast.VarLet, Name: name, Ty: ty, Value: val, Ann: ann, Sp: p.spanFrom(start)}
}

// parseInto parses `into name`, re-exporting the preceding pipeline result
// under a new name (spec §3.2).
func (p *Parser) parseInto(ann []ast.Expr) ast.Stmt {
	start := p.cur().Pos
	p.expect(token.KW_INTO)
	name := p.expect(token.IDENT).Literal
	return &ast.VarDef{Kind: ast.VarInto, Name: name, Ann: ann, Sp: p.spanFrom(start)}
}

// parseMainPipeline parses a bare pipeline statement, which becomes the
// module's `main` binding (spec §3.2, §4.4).
func (p *Parser) parseMainPipeline(ann []ast.Expr) ast.Stmt {
	start := p.cur().Pos
	val := p.parsePipeline()
	return &ast.VarDef{Kind: ast.VarMain, Name: "main", Value: val, Ann: ann, Sp: p.spanFrom(start)}
}

// parseTypeDef parses `type name = ty`.
func (p *Parser) parseTypeDef(ann []ast.Expr) ast.Stmt {
	start := p.cur().Pos
	p.expect(token.KW_TYPE)
	name := p.expect(token.IDENT).Literal
	p.expect(token.EQ)
	ty := p.parseTy()
	return &ast.TypeDef{Name: name, Ty: ty, Ann: ann, Sp: p.spanFrom(start)}
}

// parseModuleDef parses `module name { stmt* }`.
func (p *Parser) parseModuleDef(ann []ast.Expr) ast.Stmt {
	start := p.cur().Pos
	p.expect(token.KW_MODULE)
	name := p.expect(token.IDENT).Literal
	p.expect(token.LBRACE)
	p.skipNewlines()
	var stmts []ast.Stmt
	for p.cur().Type != token.RBRACE && p.cur().Type != token.EOF {
		stmts = append(stmts, p.parseStmt())
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	return &ast.ModuleDef{Name: name, Stmts: stmts, Ann: ann, Sp: p.spanFrom(start)}
}

// parseImportDef parses `import [alias=] a.b.c`.
func (p *Parser) parseImportDef(ann []ast.Expr) ast.Stmt {
	start := p.cur().Pos
	p.expect(token.KW_IMPORT)
	var alias string
	if p.cur().Type == token.IDENT && p.peek(1).Type == token.EQ {
		alias = p.advance().Literal
		p.advance()
	}
	identStart := p.cur().Pos
	parts := []string{p.expect(token.IDENT).Literal}
	for p.cur().Type == token.DOT {
		p.advance()
		parts = append(parts, p.expect(token.IDENT).Literal)
	}
	ident := &ast.Ident{Parts: parts, Sp: p.spanFrom(identStart)}
	return &ast.ImportDef{Alias: alias, Ident: ident, Ann: ann, Sp: p.spanFrom(start)}
}

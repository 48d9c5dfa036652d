package parser

import (
	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

// parsePipeline parses a sequence of call-expressions that together form
// one pipeline: either explicit `a | b | c` (used inside parens) or
// successive lines of the form `transform arg1 arg2 ...` (the common PQL
// surface syntax, one transform per line). A single element is returned
// unwrapped, matching spec §3.2 ("a single-step pipeline is just that
// step").
func (p *Parser) parsePipeline() ast.Expr {
	start := p.cur().Pos
	first := p.parseMaybeAliased()
	exprs := []ast.Expr{first}

	for {
		if p.cur().Type == token.PIPE {
			p.advance()
			p.skipNewlines()
			exprs = append(exprs, p.parseMaybeAliased())
			continue
		}
		if p.cur().Type == token.NEWLINE && p.looksLikePipelineContinuation() {
			p.advance()
			p.skipNewlines()
			exprs = append(exprs, p.parseMaybeAliased())
			continue
		}
		break
	}

	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.Pipeline{Exprs: exprs, Sp: p.spanFrom(start)}
}

// looksLikePipelineContinuation peeks past the current NEWLINE to decide
// whether the following line continues this pipeline (another call
// expression) rather than starting a new top-level statement.
func (p *Parser) looksLikePipelineContinuation() bool {
	i := 1
	for p.peek(i).Type == token.NEWLINE {
		i++
	}
	switch p.peek(i).Type {
	case token.IDENT, token.LPAREN, token.KW_FUNC, token.AT:
		return true
	default:
		return false
	}
}

// parseMaybeAliased parses `[name =] callExpr`, attaching the alias via
// AliasOf. The alias applies only to this one pipeline step (spec §8 ALIAS
// SCOPE), not to the whole pipeline.
func (p *Parser) parseMaybeAliased() ast.Expr {
	if p.cur().Type == token.IDENT && p.peek(1).Type == token.EQ {
		start := p.cur().Pos
		name := p.advance().Literal
		p.advance() // '='
		val := p.parseCallExpr()
		return &ast.AliasOf{Alias: name, Expr: val, Sp: p.spanFrom(start)}
	}
	return p.parseCallExpr()
}

// parseCallExpr parses a lambda, a whitespace-separated function call, or a
// bare expression — the "expr_call" production.
func (p *Parser) parseCallExpr() ast.Expr {
	if p.atLambdaStart() {
		return p.parseLambda()
	}
	return p.parseFuncCallOrExpr()
}

// atLambdaStart reports whether the upcoming token is `func`, the only
// lambda start recognised; a bare parameter list without `func` is not.
func (p *Parser) atLambdaStart() bool {
	return p.cur().Type == token.KW_FUNC
}

// parseFuncCallOrExpr parses `callee arg1 arg2 name:arg3 ...`; with zero
// arguments it returns the bare callee (spec §3.2: "never wrapped in
// FuncCall").
func (p *Parser) parseFuncCallOrExpr() ast.Expr {
	start := p.cur().Pos
	callee := p.parseOr()

	if !p.atArgStart() {
		return callee
	}

	var args []ast.Expr
	var named []ast.NamedArg
	for p.atArgStart() {
		if p.cur().Type == token.IDENT && p.peek(1).Type == token.COLON {
			name := p.advance().Literal
			p.advance() // ':'
			named = append(named, ast.NamedArg{Name: name, Value: p.parseOr()})
			continue
		}
		if p.cur().Type == token.IDENT && p.peek(1).Type == token.EQ {
			argStart := p.cur().Pos
			alias := p.advance().Literal
			p.advance() // '='
			val := p.parseOr()
			args = append(args, &ast.AliasOf{Alias: alias, Expr: val, Sp: p.spanFrom(argStart)})
			continue
		}
		args = append(args, p.parseOr())
	}
	return &ast.FuncCall{Callee: callee, Args: args, NamedArgs: named, Sp: p.spanFrom(start)}
}

// atArgStart reports whether the current token can begin a function-call
// argument continuing the previous one on the same logical line.
func (p *Parser) atArgStart() bool {
	switch p.cur().Type {
	case token.IDENT, token.LITERAL, token.LBRACE, token.LBRACKET, token.LPAREN,
		token.PARAM, token.SSTRING, token.FSTRING, token.KW_CASE, token.KW_INTERNAL,
		token.MINUS, token.NOT, token.TILDE:
		// A lambda is not a valid bare argument; it must be parenthesized,
		// matching the reference grammar's `expr()` (not `expr_call()`)
		// argument production.
		return true
	default:
		return false
	}
}

// parseLambda parses `func p1 p2 [p3:default] -> [<ty>] body`. The leading
// `func` keyword is optional sugar in the grammar proper but our lexer
// reserves it, so it is always required here.
func (p *Parser) parseLambda() ast.Expr {
	start := p.cur().Pos
	p.expect(token.KW_FUNC)

	var params, namedParams []ast.FuncParam
	for p.cur().Type == token.IDENT {
		name := p.advance().Literal
		fp := ast.FuncParam{Name: name}
		fp.Ty = p.parseTyAnnotation()
		if p.cur().Type == token.COLON {
			p.advance()
			fp.Default = p.parseOr()
			namedParams = append(namedParams, fp)
			continue
		}
		params = append(params, fp)
	}

	var retTy *ast.Ty
	p.expect(token.ARROW)
	if p.cur().Type == token.LT {
		retTy = p.parseTyAnnotation()
	}
	body := p.parseCallExpr()
	return &ast.Func{Params: params, NamedParams: namedParams, Body: body, ReturnTy: retTy, Sp: p.spanFrom(start)}
}

// Binary-operator precedence ladder, tightest to loosest: unary, range,
// pow (right-assoc), mul, add, compare, coalesce, and, or.

func (p *Parser) parseOr() ast.Expr  { return p.parseBinaryLeft(p.parseAnd, token.OR) }
func (p *Parser) parseAnd() ast.Expr { return p.parseBinaryLeft(p.parseCoalesce, token.AND) }
func (p *Parser) parseCoalesce() ast.Expr {
	return p.parseBinaryLeft(p.parseCompare, token.COALESCE)
}
func (p *Parser) parseCompare() ast.Expr {
	return p.parseBinaryLeft(p.parseAdd, token.EQ, token.NE, token.LT, token.GT, token.LTE, token.GTE, token.REGEX)
}
func (p *Parser) parseAdd() ast.Expr {
	return p.parseBinaryLeft(p.parseMul, token.PLUS, token.MINUS)
}
func (p *Parser) parseMul() ast.Expr {
	return p.parseBinaryLeft(p.parsePow, token.STAR, token.SLASH, token.DIV_INT, token.PERCENT)
}

// parsePow is right-associative.
func (p *Parser) parsePow() ast.Expr {
	start := p.cur().Pos
	left := p.parseRange()
	if p.cur().Type != token.POW {
		return left
	}
	p.advance()
	right := p.parsePow()
	return &ast.Binary{Left: left, Op: token.POW, Right: right, Sp: p.spanFrom(start)}
}

func (p *Parser) parseBinaryLeft(next func() ast.Expr, ops ...token.TokenType) ast.Expr {
	start := p.cur().Pos
	left := next()
	for p.curIsOneOf(ops...) {
		op := p.advance().Type
		right := next()
		left = &ast.Binary{Left: left, Op: op, Right: right, Sp: p.spanFrom(start)}
	}
	return left
}

func (p *Parser) curIsOneOf(ops ...token.TokenType) bool {
	for _, o := range ops {
		if p.cur().Type == o {
			return true
		}
	}
	return false
}

// parseRange parses `[start]..[end]`, consuming a leading bare `..end` or
// trailing `start..` too.
func (p *Parser) parseRange() ast.Expr {
	start := p.cur().Pos
	if p.cur().Type == token.RANGE {
		p.advance()
		end := p.tryParseUnary()
		return &ast.Range{End: end, Sp: p.spanFrom(start)}
	}
	left := p.parseUnary()
	if p.cur().Type != token.RANGE {
		return left
	}
	p.advance()
	end := p.tryParseUnary()
	return &ast.Range{Start: left, End: end, Sp: p.spanFrom(start)}
}

// tryParseUnary returns nil for an open range bound (nothing parseable
// follows, e.g. at `)`, `,`, or a newline).
func (p *Parser) tryParseUnary() ast.Expr {
	switch p.cur().Type {
	case token.RPAREN, token.RBRACKET, token.RBRACE, token.COMMA, token.NEWLINE, token.EOF:
		return nil
	default:
		return p.parseUnary()
	}
}

// parseUnary parses prefix `-`, `+`, `!`, and the `~x` self-equality sugar.
func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Type {
	case token.MINUS, token.PLUS, token.NOT, token.TILDE:
		start := p.cur().Pos
		op := p.advance().Type
		operand := p.parseUnary()
		return &ast.Unary{Op: op, Expr: operand, Sp: p.spanFrom(start)}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses `.name`, `.1`, and `.*` indirections chained onto a
// primary expression.
func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur().Pos
	e := p.parsePrimary()
	for p.cur().Type == token.DOT {
		p.advance()
		switch {
		case p.cur().Type == token.STAR:
			p.advance()
			e = &ast.Indirection{Base: e, Kind: ast.IndirStar, Sp: p.spanFrom(start)}
		case p.cur().Type == token.LITERAL && p.cur().LiteralKind == token.LitInt:
			lit := p.advance().Literal
			n, _ := parseIntLiteral(lit)
			e = &ast.Indirection{Base: e, Kind: ast.IndirPosition, Position: n, Sp: p.spanFrom(start)}
		default:
			name := p.expect(token.IDENT).Literal
			e = &ast.Indirection{Base: e, Kind: ast.IndirName, Name: name, Sp: p.spanFrom(start)}
		}
	}
	return e
}

// parsePrimary parses the terms of the grammar: literals, identifiers
// (dotted chains), tuples, arrays, interpolated strings, `case`, `$param`,
// `internal name`, and parenthesized (possibly pipelined) sub-expressions.
func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur().Pos
	tok := p.cur()

	switch tok.Type {
	case token.LITERAL:
		p.advance()
		return &ast.Literal{Kind: tok.LiteralKind, Raw: tok.Literal, Sp: p.spanFrom(start)}
	case token.PARAM:
		p.advance()
		return &ast.ParamExpr{Name: tok.Literal, Sp: p.spanFrom(start)}
	case token.SSTRING, token.FSTRING:
		p.advance()
		return p.buildInterp(tok, start)
	case token.KW_INTERNAL:
		p.advance()
		name := p.expect(token.IDENT).Literal
		return &ast.Internal{Name: name, Sp: p.spanFrom(start)}
	case token.KW_CASE:
		return p.parseCase()
	case token.LBRACE:
		return p.parseTuple()
	case token.LBRACKET:
		return p.parseArray()
	case token.LPAREN:
		return p.parseParen()
	case token.IDENT:
		return p.parseIdentChain()
	default:
		p.errorf("unexpected token %s in expression", tok.Type)
		p.advance()
		return &ast.Literal{Kind: token.LitNull, Sp: p.spanFrom(start)}
	}
}

func (p *Parser) parseIdentChain() ast.Expr {
	start := p.cur().Pos
	parts := []string{p.expect(token.IDENT).Literal}
	for p.cur().Type == token.DOT && p.peek(1).Type == token.IDENT {
		p.advance()
		parts = append(parts, p.advance().Literal)
	}
	return &ast.Ident{Parts: parts, Sp: p.spanFrom(start)}
}

func (p *Parser) parseParen() ast.Expr {
	p.expect(token.LPAREN)
	p.skipNewlines()
	inner := p.parsePipeline()
	p.skipNewlines()
	p.expect(token.RPAREN)
	return inner
}

// parseTuple parses `{ [alias =] expr, ... }`.
func (p *Parser) parseTuple() ast.Expr {
	start := p.cur().Pos
	p.expect(token.LBRACE)
	p.skipNewlines()
	var elems []ast.TupleElem
	for p.cur().Type != token.RBRACE && p.cur().Type != token.EOF {
		var alias string
		if p.cur().Type == token.IDENT && p.peek(1).Type == token.EQ {
			alias = p.advance().Literal
			p.advance()
		}
		elems = append(elems, ast.TupleElem{Alias: alias, Value: p.parseCallExpr()})
		p.skipNewlines()
		if p.cur().Type == token.COMMA {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	p.expect(token.RBRACE)
	return &ast.Tuple{Elems: elems, Sp: p.spanFrom(start)}
}

// parseArray parses `[e1, e2, ...]`.
func (p *Parser) parseArray() ast.Expr {
	start := p.cur().Pos
	p.expect(token.LBRACKET)
	p.skipNewlines()
	var elems []ast.Expr
	for p.cur().Type != token.RBRACKET && p.cur().Type != token.EOF {
		elems = append(elems, p.parseCallExpr())
		p.skipNewlines()
		if p.cur().Type == token.COMMA {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	p.expect(token.RBRACKET)
	return &ast.Array{Elems: elems, Sp: p.spanFrom(start)}
}

// parseCase parses `case [ cond => value, ... ]`.
func (p *Parser) parseCase() ast.Expr {
	start := p.cur().Pos
	p.expect(token.KW_CASE)
	p.expect(token.LBRACKET)
	p.skipNewlines()
	var branches []ast.CaseBranch
	for p.cur().Type != token.RBRACKET && p.cur().Type != token.EOF {
		cond := p.parseOr()
		p.expect(token.FATARROW)
		val := p.parseOr()
		branches = append(branches, ast.CaseBranch{Cond: cond, Value: val})
		p.skipNewlines()
		if p.cur().Type == token.COMMA {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	p.expect(token.RBRACKET)
	return &ast.Case{Branches: branches, Sp: p.spanFrom(start)}
}

// buildInterp splits an s"..."/f"..." body into literal and `{expr}`
// embedded-expression parts by re-lexing each embedded segment.
func (p *Parser) buildInterp(tok token.Token, start token.Position) ast.Expr {
	parts := splitInterp(tok.Literal, tok.Span.SourceID, &p.errs)
	sp := p.spanFrom(start)
	if tok.InterpChar == 'f' {
		return &ast.FString{Parts: parts, Sp: sp}
	}
	return &ast.SString{Parts: parts, Sp: sp}
}

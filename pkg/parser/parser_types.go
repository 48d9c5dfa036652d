package parser

import (
	"strconv"

	"github.com/leapstack-labs/pqlc/pkg/token"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// parseTyAnnotation parses an optional `<ty>` suffix used after a name in
// `let`/function-parameter/return-type position (spec §3.3). It returns nil
// if no `<` is present.
func (p *Parser) parseTyAnnotation() *types.Ty {
	if p.cur().Type != token.LT {
		return nil
	}
	p.advance()
	ty := p.parseTy()
	p.expect(token.GT)
	return ty
}

// parseTy parses a type expression: a union of one or more primary types
// joined by `|`.
func (p *Parser) parseTy() *types.Ty {
	first := p.parseTyPrimary()
	if p.cur().Type != token.OR && p.cur().Type != token.PIPE {
		return first
	}
	variants := []*types.Ty{first}
	for p.cur().Type == token.OR || p.cur().Type == token.PIPE {
		p.advance()
		variants = append(variants, p.parseTyPrimary())
	}
	return &types.Ty{Kind: types.KindUnion, Variants: variants}
}

// parseTyPrimary parses a single (non-union) type: an identifier reference,
// a tuple `{...}`, an array `[ty]`, or a function type `ty -> ty`.
func (p *Parser) parseTyPrimary() *types.Ty {
	start := p.cur().Pos
	var base *types.Ty
	switch p.cur().Type {
	case token.IDENT:
		name := p.advance().Literal
		base = &types.Ty{Kind: types.KindIdent, Name: name}
	case token.LITERAL:
		lit := p.advance()
		base = &types.Ty{Kind: types.KindSingleton, Literal: lit.Literal}
	case token.LBRACE:
		base = p.parseTupleTy()
	case token.LBRACKET:
		p.advance()
		var elem *types.Ty
		if p.cur().Type != token.RBRACKET {
			elem = p.parseTy()
		}
		p.expect(token.RBRACKET)
		base = types.ArrayTy(elem)
	default:
		p.errorf("expected type, found %s", p.cur().Type)
		p.advance()
		base = types.Any()
	}
	sp := p.spanFrom(start)
	base.Span = &sp

	if p.cur().Type == token.ARROW {
		p.advance()
		ret := p.parseTy()
		return &types.Ty{Kind: types.KindFunction, Func: &types.TyFunc{Params: []*types.Ty{base}, Return: ret}}
	}
	return base
}

// parseTupleTy parses `{name: ty, name2: ty2, * | ..name3}`.
func (p *Parser) parseTupleTy() *types.Ty {
	p.expect(token.LBRACE)
	var fields []types.Field
	p.skipNewlines()
	for p.cur().Type != token.RBRACE && p.cur().Type != token.EOF {
		if p.cur().Type == token.STAR || p.cur().Type == token.RANGE {
			p.advance()
			fields = append(fields, types.Field{Kind: types.FieldUnpack})
		} else {
			name := p.expect(token.IDENT).Literal
			var ty *types.Ty
			if p.cur().Type == token.COLON {
				p.advance()
				ty = p.parseTy()
			}
			fields = append(fields, types.Field{Kind: types.FieldSingle, Name: name, Ty: ty})
		}
		p.skipNewlines()
		if p.cur().Type == token.COMMA {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	return types.TupleTy(fields...)
}

// parseIntLiteral is a small helper used by parsePostfix for `.N`
// positional indices.
func parseIntLiteral(lit string) (int, bool) {
	n, err := strconv.Atoi(lit)
	return n, err == nil
}

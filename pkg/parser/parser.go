// Package parser implements spec §4.2: turning a PQL token stream into PR
// statements. It is a hand-written recursive-descent parser in the
// teacher's style (pkg/parser: a Parser struct walking a token slice with
// peek/advance helpers, one parseXxx method per production, precedence
// climbing for binary operators) adapted from SQL clause grammar to PQL's
// pipeline grammar. Errors are recoverable: an unexpected token is
// recorded and the parser skips to a synchronizing token, matching spec
// §4.2 and §7.
package parser

import (
	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/diagnostics"
	"github.com/leapstack-labs/pqlc/pkg/lexer"
	"github.com/leapstack-labs/pqlc/pkg/token"
)

// Parser walks a token stream for a single source file.
type Parser struct {
	sourceID int
	toks     []token.Token // comment-filtered
	trivia   []token.Token // comments/doc-comments, set aside; not read by the parser
	pos      int
	errs     diagnostics.Errors
}

// New constructs a Parser over a pre-lexed token stream.
func New(sourceID int, toks []token.Token) *Parser {
	p := &Parser{sourceID: sourceID}
	for _, t := range toks {
		switch t.Type {
		case token.COMMENT, token.DOCCOMMENT:
			p.trivia = append(p.trivia, t)
		case token.START:
			// dropped: purely a lexer bookkeeping sentinel
		default:
			p.toks = append(p.toks, t)
		}
	}
	if len(p.toks) == 0 || p.toks[len(p.toks)-1].Type != token.EOF {
		p.toks = append(p.toks, token.Token{Type: token.EOF})
	}
	return p
}

// Parse lexes and parses a single source file into a list of statements.
func Parse(sourceID int, source string) ([]ast.Stmt, diagnostics.Errors) {
	toks, lexErrs := lexer.Lex(sourceID, source)
	p := New(sourceID, toks)
	stmts := p.ParseFile()
	all := append(diagnostics.Errors{}, lexErrs...)
	all = append(all, p.errs...)
	return stmts, all
}

// ParseFile parses an optional QueryDef header followed by a sequence of
// statements, skipping blank lines between them.
func (p *Parser) ParseFile() []ast.Stmt {
	var stmts []ast.Stmt
	p.skipNewlines()
	if p.cur().Type == token.KW_PRQL {
		stmts = append(stmts, p.parseQueryDef())
		p.skipNewlines()
	}
	for p.cur().Type != token.EOF {
		stmts = append(stmts, p.parseStmt())
		p.skipNewlines()
	}
	return stmts
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) peek(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) skipNewlines() {
	for p.cur().Type == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) expect(t token.TokenType) token.Token {
	if p.cur().Type != t {
		p.errorf("expected %s, found %s", t, p.cur().Type)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...any) {
	sp := p.span(p.cur().Pos)
	e := diagnostics.New(diagnostics.KindParse, &sp, format, args...)
	p.errs.Add(e)
}

func (p *Parser) span(start token.Position) token.Span {
	return token.Span{SourceID: p.sourceID, Start: start, End: p.cur().Pos}
}

func (p *Parser) spanFrom(start token.Position) token.Span {
	idx := p.pos - 1
	if idx < 0 {
		idx = 0
	}
	return token.Span{SourceID: p.sourceID, Start: start, End: p.toks[idx].Pos}
}

// syncTokens are the statement-boundary tokens the parser resynchronizes
// on after an error (spec §4.2 "skip to a synchronizing token").
var syncTokens = map[token.TokenType]bool{
	token.NEWLINE:   true,
	token.KW_LET:    true,
	token.KW_TYPE:   true,
	token.KW_MODULE: true,
	token.KW_IMPORT: true,
	token.RBRACE:    true,
	token.EOF:       true,
}

// recover skips tokens until a synchronizing token is reached, implementing
// the recoverable-error policy of spec §4.2/§7.
func (p *Parser) recover() {
	for !syncTokens[p.cur().Type] {
		p.advance()
	}
}

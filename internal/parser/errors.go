package parser

import (
	"github.com/lhaig/pylower/internal/diagnostic"
	"github.com/lhaig/pylower/internal/lexer"
)

// Parser holds the parser state
type Parser struct {
	tokens []lexer.Token
	pos    int
	diags  *diagnostic.Diagnostics
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming
func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches the expected type,
// otherwise reports an error
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.current()
	if tok.Type != tt {
		p.errorAt(tok, "expected %s, got %s", tt, describe(tok))
		return tok
	}
	return p.advance()
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// match consumes the current token if it matches, returns true if consumed
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) {
	p.diags.Errorf(tok.Line, tok.Column, format, args...)
}

// atStmtEnd reports whether the current token ends a simple statement
func (p *Parser) atStmtEnd() bool {
	switch p.current().Type {
	case lexer.NEWLINE, lexer.SEMICOLON, lexer.EOF, lexer.DEDENT:
		return true
	}
	return false
}

// synchronize skips the rest of the logical line, consuming its NEWLINE
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) && !p.check(lexer.DEDENT) && !p.check(lexer.INDENT) {
		if p.match(lexer.NEWLINE) {
			return
		}
		p.advance()
	}
}

// skipBalanced consumes tokens up to, but not including, the first token of
// one of the stop types that sits outside any bracket pair.
func (p *Parser) skipBalanced(stop ...lexer.TokenType) {
	depth := 0
	for !p.check(lexer.EOF) {
		tt := p.current().Type
		if depth == 0 {
			for _, s := range stop {
				if tt == s {
					return
				}
			}
			if tt == lexer.NEWLINE {
				return
			}
		}
		switch tt {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
			depth++
		case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
			depth--
			if depth < 0 {
				return
			}
		}
		p.advance()
	}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.ILLEGAL {
		return "illegal token " + quoteLiteral(tok.Literal)
	}
	return tok.Type.String()
}

func quoteLiteral(s string) string {
	return "'" + s + "'"
}

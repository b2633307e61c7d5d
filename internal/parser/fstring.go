package parser

import (
	"strings"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/lexer"
)

// parseStrings parses a run of adjacent string literals. Plain strings are
// concatenated into one Constant; if any member is an f-string the run
// becomes a JoinedStr.
func (p *Parser) parseStrings() ast.Expr {
	first := p.current()
	var toks []lexer.Token
	formatted := false
	for p.check(lexer.STRING_LIT) || p.check(lexer.FSTRING_LIT) {
		tok := p.advance()
		if tok.Type == lexer.FSTRING_LIT {
			formatted = true
		}
		toks = append(toks, tok)
	}

	if !formatted {
		var sb strings.Builder
		for _, tok := range toks {
			sb.WriteString(tok.Literal)
		}
		return &ast.Constant{Kind: ast.ConstString, Value: sb.String(), Line: first.Line, Column: first.Column}
	}

	joined := &ast.JoinedStr{Line: first.Line, Column: first.Column}
	for _, tok := range toks {
		if tok.Type == lexer.STRING_LIT {
			joined.Values = appendLiteral(joined.Values, tok.Literal, tok)
			continue
		}
		for _, part := range p.splitFString(tok) {
			if c, ok := part.(*ast.Constant); ok {
				joined.Values = appendLiteral(joined.Values, c.Value, tok)
				continue
			}
			joined.Values = append(joined.Values, part)
		}
	}
	return joined
}

// appendLiteral adds a literal segment, merging it into a preceding one
func appendLiteral(values []ast.Expr, s string, tok lexer.Token) []ast.Expr {
	if s == "" {
		return values
	}
	if n := len(values); n > 0 {
		if c, ok := values[n-1].(*ast.Constant); ok {
			c.Value += s
			return values
		}
	}
	return append(values, &ast.Constant{Kind: ast.ConstString, Value: s, Line: tok.Line, Column: tok.Column})
}

// splitFString splits the raw body of an f-string into literal segments and
// replacement fields
func (p *Parser) splitFString(tok lexer.Token) []ast.Expr {
	raw := tok.Literal
	var parts []ast.Expr
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, &ast.Constant{
				Kind:   ast.ConstString,
				Value:  lexer.Unescape(lit.String()),
				Line:   tok.Line,
				Column: tok.Column,
			})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end, ok := fieldEnd(raw, i+1)
			if !ok {
				p.errorAt(tok, "f-string: expecting '}'")
				i = len(raw)
				continue
			}
			flush()
			parts = append(parts, p.parseReplacementField(raw[i+1:end], tok)...)
			i = end + 1
		case c == '}':
			p.errorAt(tok, "f-string: single '}' is not allowed")
			i++
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return parts
}

// fieldEnd returns the index of the '}' closing the replacement field that
// starts at i
func fieldEnd(s string, i int) (int, bool) {
	depth := 0
	var quote byte
	for ; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

// parseReplacementField parses `expr[=][!conv][:spec]`
func (p *Parser) parseReplacementField(field string, tok lexer.Token) []ast.Expr {
	exprText, conv, spec := splitField(field)

	var parts []ast.Expr
	trimmed := strings.TrimRight(exprText, " ")
	if selfDocumenting(trimmed) {
		parts = append(parts, &ast.Constant{Kind: ast.ConstString, Value: exprText, Line: tok.Line, Column: tok.Column})
		exprText = trimmed[:len(trimmed)-1]
		if conv == 0 && spec == "" {
			conv = 'r'
		}
	}

	src := strings.TrimSpace(exprText)
	if src == "" {
		p.errorAt(tok, "f-string: empty expression not allowed")
		return parts
	}

	sub := New(src)
	value := sub.parseStarTestList()
	for sub.match(lexer.NEWLINE) {
	}
	if !sub.check(lexer.EOF) && !sub.diags.HasErrors() {
		sub.errorAt(sub.current(), "unexpected %s", describe(sub.current()))
	}
	for _, d := range sub.diags.Errors() {
		p.errorAt(tok, "f-string: %s", d.Message)
	}

	return append(parts, &ast.FormattedValue{
		Value:      value,
		Conversion: conv,
		FormatSpec: spec,
		Line:       tok.Line,
		Column:     tok.Column,
	})
}

// splitField separates the expression of a replacement field from its
// conversion and format spec
func splitField(field string) (exprText string, conv byte, spec string) {
	depth := 0
	var quote byte
	for i := 0; i < len(field); i++ {
		c := field[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '!':
			if depth == 0 && i+1 < len(field) && field[i+1] != '=' {
				rest := field[i+1:]
				conv = rest[0]
				if j := strings.IndexByte(rest, ':'); j >= 0 {
					spec = rest[j+1:]
				}
				return field[:i], conv, spec
			}
		case ':':
			if depth == 0 {
				return field[:i], 0, field[i+1:]
			}
		}
	}
	return field, 0, ""
}

// selfDocumenting reports whether the expression text ends in a bare `=`,
// as in f"{x=}"
func selfDocumenting(s string) bool {
	if !strings.HasSuffix(s, "=") || len(s) < 2 {
		return false
	}
	switch s[len(s)-2] {
	case '=', '!', '<', '>':
		return false
	}
	return true
}

package parser

import (
	"strconv"
	"strings"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/lexer"
)

// Expression parsing - recursive descent for the boolean and comparison
// layers, precedence climbing for the binary arithmetic operators.

// Binary precedence levels (lowest to highest):
// 1. |
// 2. ^
// 3. &
// 4. << >>
// 5. + -
// 6. * / // % @
// unary (- + ~) and ** bind tighter and are handled by parseFactor.

const (
	precNone   = 0
	precBitOr  = 1
	precBitXor = 2
	precBitAnd = 3
	precShift  = 4
	precArith  = 5
	precTerm   = 6
)

var binaryOperators = map[lexer.TokenType]ast.Operator{
	lexer.PIPE:        ast.BitOr,
	lexer.CARET:       ast.BitXor,
	lexer.AMP:         ast.BitAnd,
	lexer.LSHIFT:      ast.LShift,
	lexer.RSHIFT:      ast.RShift,
	lexer.PLUS:        ast.Add,
	lexer.MINUS:       ast.Sub,
	lexer.STAR:        ast.Mult,
	lexer.SLASH:       ast.Div,
	lexer.DOUBLESLASH: ast.FloorDiv,
	lexer.PERCENT:     ast.Mod,
	lexer.AT:          ast.MatMult,
}

func tokenPrecedence(tt lexer.TokenType) int {
	switch tt {
	case lexer.PIPE:
		return precBitOr
	case lexer.CARET:
		return precBitXor
	case lexer.AMP:
		return precBitAnd
	case lexer.LSHIFT, lexer.RSHIFT:
		return precShift
	case lexer.PLUS, lexer.MINUS:
		return precArith
	case lexer.STAR, lexer.SLASH, lexer.DOUBLESLASH, lexer.PERCENT, lexer.AT:
		return precTerm
	default:
		return precNone
	}
}

// atListEnd reports whether the current token closes a comma-separated
// expression list
func (p *Parser) atListEnd() bool {
	switch p.current().Type {
	case lexer.NEWLINE, lexer.SEMICOLON, lexer.EOF, lexer.DEDENT,
		lexer.ASSIGN, lexer.COLON, lexer.IN,
		lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
		return true
	}
	return p.current().Type.IsAugAssign()
}

// parseTestList parses: test (',' test)* [','], yielding a Tuple when a
// comma is present
func (p *Parser) parseTestList() ast.Expr {
	return p.parseList(p.parseTest)
}

// parseStarTestList is parseTestList with `*expr` items allowed
func (p *Parser) parseStarTestList() ast.Expr {
	return p.parseList(p.parseStarTest)
}

// parseTargetList parses the target of a for loop, stopping before `in`
func (p *Parser) parseTargetList() ast.Expr {
	return p.parseList(func() ast.Expr {
		if p.check(lexer.STAR) {
			return p.parseStarred(p.parseBitOr)
		}
		return p.parseBitOr()
	})
}

func (p *Parser) parseList(item func() ast.Expr) ast.Expr {
	tok := p.current()
	first := item()
	if !p.check(lexer.COMMA) {
		return first
	}
	tuple := &ast.Tuple{Elts: []ast.Expr{first}, Line: tok.Line, Column: tok.Column}
	for p.match(lexer.COMMA) {
		if p.atListEnd() {
			break
		}
		tuple.Elts = append(tuple.Elts, item())
	}
	return tuple
}

func (p *Parser) parseStarTest() ast.Expr {
	if p.check(lexer.STAR) {
		return p.parseStarred(p.parseBitOr)
	}
	return p.parseTest()
}

func (p *Parser) parseStarred(operand func() ast.Expr) ast.Expr {
	tok := p.advance()
	operand()
	return &ast.UnsupportedExpr{Kind: "Starred", Line: tok.Line, Column: tok.Column}
}

// parseNamedTest parses a test that may be an assignment expression
func (p *Parser) parseNamedTest() ast.Expr {
	tok := p.current()
	if tok.Type == lexer.IDENT && p.peek().Type == lexer.COLON && p.walrusAt(p.pos+1) {
		p.advance()
		p.advance()
		p.advance()
		p.parseTest()
		return &ast.UnsupportedExpr{Kind: "NamedExpr", Line: tok.Line, Column: tok.Column}
	}
	return p.parseTest()
}

// walrusAt reports whether the COLON at index i is immediately followed by
// an ASSIGN, spelling `:=`
func (p *Parser) walrusAt(i int) bool {
	if i+1 >= len(p.tokens) {
		return false
	}
	colon, eq := p.tokens[i], p.tokens[i+1]
	return eq.Type == lexer.ASSIGN && eq.Line == colon.Line && eq.Column == colon.Column+1
}

// parseTest parses: or_test ['if' or_test 'else' test] | lambda
func (p *Parser) parseTest() ast.Expr {
	tok := p.current()
	if tok.Type == lexer.LAMBDA {
		p.advance()
		p.skipBalanced(lexer.COLON)
		p.expect(lexer.COLON)
		p.parseTest()
		return &ast.UnsupportedExpr{Kind: "Lambda", Line: tok.Line, Column: tok.Column}
	}

	body := p.parseOrTest()
	if !p.check(lexer.IF) {
		return body
	}
	p.advance()
	test := p.parseOrTest()
	p.expect(lexer.ELSE)
	orelse := p.parseTest()
	return &ast.IfExp{Test: test, Body: body, Orelse: orelse, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseOrTest() ast.Expr {
	return p.parseBoolOp(lexer.OR, ast.Or, p.parseAndTest)
}

func (p *Parser) parseAndTest() ast.Expr {
	return p.parseBoolOp(lexer.AND, ast.And, p.parseNotTest)
}

func (p *Parser) parseBoolOp(tt lexer.TokenType, op ast.BoolOperator, operand func() ast.Expr) ast.Expr {
	tok := p.current()
	first := operand()
	if !p.check(tt) {
		return first
	}
	values := []ast.Expr{first}
	for p.match(tt) {
		values = append(values, operand())
	}
	return &ast.BoolOp{Op: op, Values: values, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseNotTest() ast.Expr {
	if p.check(lexer.NOT) {
		tok := p.advance()
		operand := p.parseNotTest()
		return &ast.UnaryOp{Op: ast.Not, Operand: operand, Line: tok.Line, Column: tok.Column}
	}
	return p.parseComparison()
}

// parseComparison parses a comparison chain such as `a < b <= c`
func (p *Parser) parseComparison() ast.Expr {
	tok := p.current()
	left := p.parseBitOr()

	var ops []ast.CmpOp
	var comparators []ast.Expr
	for {
		op, ok := p.comparisonOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseBitOr())
	}
	if len(ops) == 0 {
		return left
	}
	return &ast.Compare{Left: left, Ops: ops, Comparators: comparators, Line: tok.Line, Column: tok.Column}
}

// comparisonOp consumes a comparison operator, including the two-word
// forms `not in` and `is not`
func (p *Parser) comparisonOp() (ast.CmpOp, bool) {
	switch p.current().Type {
	case lexer.EQ:
		p.advance()
		return ast.Eq, true
	case lexer.NEQ:
		p.advance()
		return ast.NotEq, true
	case lexer.LT:
		p.advance()
		return ast.Lt, true
	case lexer.LEQ:
		p.advance()
		return ast.LtE, true
	case lexer.GT:
		p.advance()
		return ast.Gt, true
	case lexer.GEQ:
		p.advance()
		return ast.GtE, true
	case lexer.IN:
		p.advance()
		return ast.In, true
	case lexer.NOT:
		if p.peek().Type != lexer.IN {
			return "", false
		}
		p.advance()
		p.advance()
		return ast.NotIn, true
	case lexer.IS:
		p.advance()
		if p.match(lexer.NOT) {
			return ast.IsNot, true
		}
		return ast.Is, true
	}
	return "", false
}

func (p *Parser) parseBitOr() ast.Expr {
	return p.parsePrecedence(precBitOr)
}

func (p *Parser) parsePrecedence(minPrec int) ast.Expr {
	left := p.parseFactor()

	for {
		prec := tokenPrecedence(p.current().Type)
		if prec == precNone || prec < minPrec {
			break
		}

		op := p.advance()
		right := p.parsePrecedence(prec + 1)
		line, col := left.Pos()
		left = &ast.BinOp{
			Left:   left,
			Op:     binaryOperators[op.Type],
			Right:  right,
			Line:   line,
			Column: col,
		}
	}

	return left
}

// parseFactor parses: ('+'|'-'|'~') factor | power
func (p *Parser) parseFactor() ast.Expr {
	tok := p.current()
	var op ast.UnaryOperator
	switch tok.Type {
	case lexer.MINUS:
		op = ast.USub
	case lexer.PLUS:
		op = ast.UAdd
	case lexer.TILDE:
		op = ast.Invert
	default:
		return p.parsePower()
	}
	p.advance()
	operand := p.parseFactor()
	return &ast.UnaryOp{Op: op, Operand: operand, Line: tok.Line, Column: tok.Column}
}

// parsePower parses: [await] postfix ['**' factor]; ** is right-associative
func (p *Parser) parsePower() ast.Expr {
	tok := p.current()
	if tok.Type == lexer.AWAIT {
		p.advance()
		p.parsePower()
		return &ast.UnsupportedExpr{Kind: "Await", Line: tok.Line, Column: tok.Column}
	}
	base := p.parsePostfix()
	if !p.match(lexer.DOUBLESTAR) {
		return base
	}
	exp := p.parseFactor()
	line, col := base.Pos()
	return &ast.BinOp{Left: base, Op: ast.Pow, Right: exp, Line: line, Column: col}
}

// parsePostfix parses calls, subscripts and attribute access
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parseAtom()

	for {
		line, col := expr.Pos()
		switch {
		case p.match(lexer.LPAREN):
			args, keywords := p.parseCallArgs()
			p.expect(lexer.RPAREN)
			expr = &ast.Call{Func: expr, Args: args, Keywords: keywords, Line: line, Column: col}
		case p.match(lexer.LBRACKET):
			index := p.parseSubscriptList()
			p.expect(lexer.RBRACKET)
			expr = &ast.Subscript{Value: expr, Index: index, Line: line, Column: col}
		case p.match(lexer.DOT):
			attr := p.expect(lexer.IDENT)
			expr = &ast.Attribute{Value: expr, Attr: attr.Literal, Line: line, Column: col}
		default:
			return expr
		}
	}
}

// parseCallArgs parses the argument list of a call up to, not including,
// the closing parenthesis
func (p *Parser) parseCallArgs() ([]ast.Expr, []*ast.Keyword) {
	var args []ast.Expr
	var keywords []*ast.Keyword
	for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
		tok := p.current()
		switch {
		case tok.Type == lexer.STAR || tok.Type == lexer.DOUBLESTAR:
			args = append(args, p.parseStarred(p.parseTest))
		case tok.Type == lexer.IDENT && p.peek().Type == lexer.ASSIGN:
			p.advance()
			p.advance()
			keywords = append(keywords, &ast.Keyword{Name: tok.Literal, Value: p.parseTest()})
		default:
			arg := p.parseNamedTest()
			if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
				arg = p.skipComprehension("GeneratorExp", tok)
			}
			args = append(args, arg)
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return args, keywords
}

func (p *Parser) parseSubscriptList() ast.Expr {
	tok := p.current()
	first := p.parseSubscriptItem()
	if !p.check(lexer.COMMA) {
		return first
	}
	tuple := &ast.Tuple{Elts: []ast.Expr{first}, Line: tok.Line, Column: tok.Column}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RBRACKET) {
			break
		}
		tuple.Elts = append(tuple.Elts, p.parseSubscriptItem())
	}
	return tuple
}

// parseSubscriptItem parses an index or a `lower:upper:step` slice
func (p *Parser) parseSubscriptItem() ast.Expr {
	tok := p.current()
	var lower ast.Expr
	if !p.check(lexer.COLON) {
		lower = p.parseTest()
		if !p.check(lexer.COLON) {
			return lower
		}
	}
	p.advance()

	slice := &ast.Slice{Lower: lower, Line: tok.Line, Column: tok.Column}
	if !p.sliceEnd() {
		slice.Upper = p.parseTest()
	}
	if p.match(lexer.COLON) && !p.sliceEnd() {
		slice.Step = p.parseTest()
	}
	return slice
}

func (p *Parser) sliceEnd() bool {
	switch p.current().Type {
	case lexer.COLON, lexer.COMMA, lexer.RBRACKET, lexer.EOF:
		return true
	}
	return false
}

// skipComprehension consumes the `for ... in ... if ...` clauses of a
// comprehension, leaving the closing bracket in place
func (p *Parser) skipComprehension(kind string, start lexer.Token) ast.Expr {
	p.skipBalanced(lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE)
	return &ast.UnsupportedExpr{Kind: kind, Line: start.Line, Column: start.Column}
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.current()

	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return &ast.Name{ID: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.INT_LIT:
		p.advance()
		return &ast.Constant{Kind: ast.ConstInt, Value: normalizeInt(tok.Literal), Line: tok.Line, Column: tok.Column}

	case lexer.FLOAT_LIT:
		p.advance()
		return &ast.Constant{Kind: ast.ConstFloat, Value: normalizeFloat(tok.Literal), Line: tok.Line, Column: tok.Column}

	case lexer.STRING_LIT, lexer.FSTRING_LIT:
		return p.parseStrings()

	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.Constant{Kind: ast.ConstBool, Value: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.NONE:
		p.advance()
		return &ast.Constant{Kind: ast.ConstNone, Value: "None", Line: tok.Line, Column: tok.Column}

	case lexer.ELLIPSIS:
		p.advance()
		return &ast.UnsupportedExpr{Kind: "Ellipsis", Line: tok.Line, Column: tok.Column}

	case lexer.LPAREN:
		return p.parseParenthesized()

	case lexer.LBRACKET:
		return p.parseListDisplay()

	case lexer.LBRACE:
		return p.parseBraceDisplay()

	case lexer.YIELD:
		p.advance()
		p.match(lexer.FROM)
		if !p.atListEnd() {
			p.parseStarTestList()
		}
		return &ast.UnsupportedExpr{Kind: "Yield", Line: tok.Line, Column: tok.Column}

	default:
		p.errorAt(tok, "unexpected %s in expression", describe(tok))
		switch tok.Type {
		case lexer.NEWLINE, lexer.EOF, lexer.DEDENT, lexer.INDENT:
		default:
			p.advance()
		}
		return &ast.Name{ID: "<error>", Line: tok.Line, Column: tok.Column}
	}
}

// parseParenthesized parses a parenthesized expression, a tuple display or
// a generator expression
func (p *Parser) parseParenthesized() ast.Expr {
	tok := p.expect(lexer.LPAREN)
	if p.match(lexer.RPAREN) {
		return &ast.Tuple{Line: tok.Line, Column: tok.Column}
	}

	first := p.parseStarOrNamed()
	if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
		first = p.skipComprehension("GeneratorExp", tok)
		p.expect(lexer.RPAREN)
		return first
	}
	if !p.check(lexer.COMMA) {
		p.expect(lexer.RPAREN)
		return first
	}

	tuple := &ast.Tuple{Elts: []ast.Expr{first}, Line: tok.Line, Column: tok.Column}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RPAREN) {
			break
		}
		tuple.Elts = append(tuple.Elts, p.parseStarOrNamed())
	}
	p.expect(lexer.RPAREN)
	return tuple
}

func (p *Parser) parseStarOrNamed() ast.Expr {
	if p.check(lexer.STAR) {
		return p.parseStarred(p.parseBitOr)
	}
	if p.check(lexer.YIELD) {
		return p.parseAtom()
	}
	return p.parseNamedTest()
}

func (p *Parser) parseListDisplay() ast.Expr {
	tok := p.expect(lexer.LBRACKET)
	list := &ast.List{Line: tok.Line, Column: tok.Column}
	if p.match(lexer.RBRACKET) {
		return list
	}

	first := p.parseStarOrNamed()
	if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
		comp := p.skipComprehension("ListComp", tok)
		p.expect(lexer.RBRACKET)
		return comp
	}
	list.Elts = append(list.Elts, first)
	for p.match(lexer.COMMA) {
		if p.check(lexer.RBRACKET) {
			break
		}
		list.Elts = append(list.Elts, p.parseStarOrNamed())
	}
	p.expect(lexer.RBRACKET)
	return list
}

// parseBraceDisplay parses a dict display; sets and comprehensions become
// placeholders
func (p *Parser) parseBraceDisplay() ast.Expr {
	tok := p.expect(lexer.LBRACE)
	dict := &ast.Dict{Line: tok.Line, Column: tok.Column}
	if p.match(lexer.RBRACE) {
		return dict
	}

	if p.check(lexer.DOUBLESTAR) || p.check(lexer.STAR) {
		p.skipBalanced(lexer.RBRACE)
		p.expect(lexer.RBRACE)
		return &ast.UnsupportedExpr{Kind: "Dict", Line: tok.Line, Column: tok.Column}
	}

	key := p.parseTest()
	if !p.match(lexer.COLON) {
		kind := "Set"
		if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
			kind = "SetComp"
		}
		p.skipBalanced(lexer.RBRACE)
		p.expect(lexer.RBRACE)
		return &ast.UnsupportedExpr{Kind: kind, Line: tok.Line, Column: tok.Column}
	}

	value := p.parseTest()
	if p.check(lexer.FOR) || p.check(lexer.ASYNC) {
		comp := p.skipComprehension("DictComp", tok)
		p.expect(lexer.RBRACE)
		return comp
	}
	dict.Keys = append(dict.Keys, key)
	dict.Values = append(dict.Values, value)
	for p.match(lexer.COMMA) {
		if p.check(lexer.RBRACE) {
			break
		}
		if p.check(lexer.DOUBLESTAR) {
			p.skipBalanced(lexer.RBRACE)
			p.expect(lexer.RBRACE)
			return &ast.UnsupportedExpr{Kind: "Dict", Line: tok.Line, Column: tok.Column}
		}
		dict.Keys = append(dict.Keys, p.parseTest())
		p.expect(lexer.COLON)
		dict.Values = append(dict.Values, p.parseTest())
	}
	p.expect(lexer.RBRACE)
	return dict
}

// normalizeInt strips digit separators and rewrites octal and binary
// literals, which have no portable C spelling, in decimal
func normalizeInt(lit string) string {
	lit = strings.ReplaceAll(lit, "_", "")
	lower := strings.ToLower(lit)
	if strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		if v, err := strconv.ParseUint(lower, 0, 64); err == nil {
			return strconv.FormatUint(v, 10)
		}
	}
	if len(lit) > 1 && lit[0] == '0' && strings.Trim(lit, "0") == "" {
		return "0"
	}
	return lit
}

func normalizeFloat(lit string) string {
	return strings.ReplaceAll(lit, "_", "")
}

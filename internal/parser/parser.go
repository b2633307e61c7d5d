package parser

import (
	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/diagnostic"
	"github.com/lhaig/pylower/internal/lexer"
)

// New creates a new parser
func New(source string) *Parser {
	l := lexer.New(source)
	tokens := l.Tokenize()
	return &Parser{
		tokens: tokens,
		pos:    0,
		diags:  diagnostic.New(),
	}
}

// Diagnostics returns the parser's diagnostics
func (p *Parser) Diagnostics() *diagnostic.Diagnostics {
	return p.diags
}

// Parse parses the token stream into a Module
func (p *Parser) Parse() *ast.Module {
	mod := &ast.Module{}
	for !p.check(lexer.EOF) {
		if p.match(lexer.NEWLINE) || p.match(lexer.DEDENT) {
			continue
		}
		start := p.pos
		mod.Body = append(mod.Body, p.parseStatement()...)
		if p.pos == start {
			p.advance()
		}
	}
	return mod
}

// ParseSource parses a complete source file
func ParseSource(source string) (*ast.Module, *diagnostic.Diagnostics) {
	p := New(source)
	mod := p.Parse()
	return mod, p.diags
}

// parseStatement parses one statement. A line of `;`-separated simple
// statements yields several.
func (p *Parser) parseStatement() []ast.Stmt {
	tok := p.current()
	switch tok.Type {
	case lexer.DEF:
		return []ast.Stmt{p.parseFunctionDef()}
	case lexer.CLASS:
		return []ast.Stmt{p.parseClassDef()}
	case lexer.IF:
		return []ast.Stmt{p.parseIf()}
	case lexer.FOR:
		return []ast.Stmt{p.parseFor()}
	case lexer.WHILE:
		return []ast.Stmt{p.parseWhile()}
	case lexer.AT:
		return p.parseDecorated()
	case lexer.TRY:
		return []ast.Stmt{p.parseUnsupportedCompound("Try")}
	case lexer.WITH:
		return []ast.Stmt{p.parseUnsupportedCompound("With")}
	case lexer.ASYNC:
		return []ast.Stmt{p.parseAsync()}
	case lexer.ELIF, lexer.ELSE, lexer.EXCEPT, lexer.FINALLY:
		p.errorAt(tok, "unexpected '%s' without a matching block", tok.Literal)
		p.skipBalanced(lexer.COLON)
		p.match(lexer.COLON)
		p.parseBody()
		return nil
	case lexer.INDENT:
		p.errorAt(tok, "unexpected indent")
		p.advance()
		var stmts []ast.Stmt
		for !p.check(lexer.DEDENT) && !p.check(lexer.EOF) {
			if p.match(lexer.NEWLINE) {
				continue
			}
			start := p.pos
			stmts = append(stmts, p.parseStatement()...)
			if p.pos == start {
				p.advance()
			}
		}
		p.match(lexer.DEDENT)
		return stmts
	default:
		return p.parseSimpleStatements()
	}
}

// parseBlock parses `: NEWLINE INDENT stmts DEDENT` or `: simple_stmts`
func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(lexer.COLON)
	return p.parseBody()
}

func (p *Parser) parseBody() []ast.Stmt {
	if !p.match(lexer.NEWLINE) {
		if p.check(lexer.EOF) {
			p.errorAt(p.current(), "expected a block")
			return nil
		}
		return p.parseSimpleStatements()
	}
	if !p.check(lexer.INDENT) {
		p.errorAt(p.current(), "expected an indented block")
		return nil
	}
	p.advance()

	var body []ast.Stmt
	for !p.check(lexer.DEDENT) && !p.check(lexer.EOF) {
		if p.match(lexer.NEWLINE) {
			continue
		}
		start := p.pos
		body = append(body, p.parseStatement()...)
		if p.pos == start {
			p.advance()
		}
	}
	p.match(lexer.DEDENT)
	return body
}

// parseSimpleStatements parses: simple_stmt (';' simple_stmt)* [';'] NEWLINE
func (p *Parser) parseSimpleStatements() []ast.Stmt {
	errs := p.diags.ErrorCount()
	stmts := []ast.Stmt{p.parseSimple()}
	for p.match(lexer.SEMICOLON) {
		if p.check(lexer.NEWLINE) || p.check(lexer.EOF) {
			break
		}
		stmts = append(stmts, p.parseSimple())
	}

	switch {
	case p.match(lexer.NEWLINE), p.check(lexer.EOF), p.check(lexer.DEDENT):
	default:
		if p.diags.ErrorCount() == errs {
			p.errorAt(p.current(), "expected end of statement, got %s", describe(p.current()))
		}
		p.synchronize()
	}
	return stmts
}

var unsupportedSimple = map[lexer.TokenType]string{
	lexer.IMPORT:   "Import",
	lexer.FROM:     "ImportFrom",
	lexer.GLOBAL:   "Global",
	lexer.NONLOCAL: "Nonlocal",
	lexer.DEL:      "Delete",
	lexer.ASSERT:   "Assert",
	lexer.RAISE:    "Raise",
}

func (p *Parser) parseSimple() ast.Stmt {
	tok := p.current()
	switch tok.Type {
	case lexer.PASS:
		p.advance()
		return &ast.Pass{Line: tok.Line, Column: tok.Column}
	case lexer.BREAK:
		p.advance()
		return &ast.Break{Line: tok.Line, Column: tok.Column}
	case lexer.CONTINUE:
		p.advance()
		return &ast.Continue{Line: tok.Line, Column: tok.Column}
	case lexer.RETURN:
		p.advance()
		ret := &ast.Return{Line: tok.Line, Column: tok.Column}
		if !p.atStmtEnd() {
			ret.Value = p.parseTestList()
		}
		return ret
	}

	if kind, ok := unsupportedSimple[tok.Type]; ok {
		p.advance()
		p.skipBalanced(lexer.SEMICOLON)
		return &ast.UnsupportedStmt{Kind: kind, Line: tok.Line, Column: tok.Column}
	}

	return p.parseExprStmtOrAssign()
}

// parseExprStmtOrAssign parses expression statements and the three
// assignment forms
func (p *Parser) parseExprStmtOrAssign() ast.Stmt {
	tok := p.current()
	first := p.parseStarTestList()

	if p.match(lexer.COLON) {
		stmt := &ast.AnnAssign{
			Target:     first,
			Annotation: p.parseTest(),
			Line:       tok.Line,
			Column:     tok.Column,
		}
		if p.match(lexer.ASSIGN) {
			stmt.Value = p.parseStarTestList()
		}
		return stmt
	}

	if p.current().Type.IsAugAssign() {
		op := p.advance()
		return &ast.AugAssign{
			Target: first,
			Op:     augOperators[op.Type],
			Value:  p.parseStarTestList(),
			Line:   tok.Line,
			Column: tok.Column,
		}
	}

	if !p.check(lexer.ASSIGN) {
		return &ast.ExprStmt{Value: first, Line: tok.Line, Column: tok.Column}
	}

	targets := []ast.Expr{first}
	var value ast.Expr
	for p.match(lexer.ASSIGN) {
		v := p.parseStarTestList()
		if p.check(lexer.ASSIGN) {
			targets = append(targets, v)
			continue
		}
		value = v
	}
	return &ast.Assign{Targets: targets, Value: value, Line: tok.Line, Column: tok.Column}
}

var augOperators = map[lexer.TokenType]ast.Operator{
	lexer.PLUS_ASSIGN:        ast.Add,
	lexer.MINUS_ASSIGN:       ast.Sub,
	lexer.STAR_ASSIGN:        ast.Mult,
	lexer.SLASH_ASSIGN:       ast.Div,
	lexer.DOUBLESLASH_ASSIGN: ast.FloorDiv,
	lexer.PERCENT_ASSIGN:     ast.Mod,
	lexer.DOUBLESTAR_ASSIGN:  ast.Pow,
	lexer.AMP_ASSIGN:         ast.BitAnd,
	lexer.PIPE_ASSIGN:        ast.BitOr,
	lexer.CARET_ASSIGN:       ast.BitXor,
	lexer.LSHIFT_ASSIGN:      ast.LShift,
	lexer.RSHIFT_ASSIGN:      ast.RShift,
}

// parseFunctionDef parses: def <name>(<params>) [-> <test>] : <block>
func (p *Parser) parseFunctionDef() *ast.FunctionDef {
	tok := p.expect(lexer.DEF)
	name := p.expect(lexer.IDENT)
	fn := &ast.FunctionDef{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}

	p.expect(lexer.LPAREN)
	fn.Params = p.parseParamList()
	p.expect(lexer.RPAREN)

	if p.match(lexer.ARROW) {
		fn.Returns = p.parseTest()
	}
	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) && !p.check(lexer.NEWLINE) {
		tok := p.current()
		switch tok.Type {
		case lexer.STAR, lexer.DOUBLESTAR:
			p.advance()
			p.diags.Warningf(tok.Line, tok.Column, "variadic parameters are not supported and are dropped")
			if p.check(lexer.IDENT) {
				p.advance()
				if p.match(lexer.COLON) {
					p.parseTest()
				}
			}
		case lexer.SLASH:
			p.advance()
		default:
			name := p.expect(lexer.IDENT)
			if name.Type != lexer.IDENT {
				p.skipBalanced(lexer.COMMA, lexer.RPAREN)
				break
			}
			param := &ast.Param{Name: name.Literal, Line: name.Line, Column: name.Column}
			if p.match(lexer.COLON) {
				param.Annotation = p.parseTest()
			}
			if p.match(lexer.ASSIGN) {
				param.Default = p.parseTest()
			}
			params = append(params, param)
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return params
}

// parseClassDef parses: class <name> [(<bases>)] : <block>
func (p *Parser) parseClassDef() *ast.ClassDef {
	tok := p.expect(lexer.CLASS)
	name := p.expect(lexer.IDENT)
	cls := &ast.ClassDef{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}
	if p.match(lexer.LPAREN) {
		args, keywords := p.parseCallArgs()
		cls.Bases = args
		for _, kw := range keywords {
			p.diags.Warningf(tok.Line, tok.Column, "class keyword '%s' is ignored", kw.Name)
		}
		p.expect(lexer.RPAREN)
	}
	cls.Body = p.parseBlock()
	return cls
}

// parseIf parses an if or elif clause together with the rest of its chain
func (p *Parser) parseIf() *ast.If {
	tok := p.advance()
	stmt := &ast.If{Line: tok.Line, Column: tok.Column}
	stmt.Test = p.parseNamedTest()
	stmt.Body = p.parseBlock()

	switch {
	case p.check(lexer.ELIF):
		stmt.Orelse = []ast.Stmt{p.parseIf()}
	case p.match(lexer.ELSE):
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

// parseFor parses: for <targets> in <testlist> : <block> [else : <block>]
func (p *Parser) parseFor() *ast.For {
	tok := p.expect(lexer.FOR)
	stmt := &ast.For{Line: tok.Line, Column: tok.Column}
	stmt.Target = p.parseTargetList()
	p.expect(lexer.IN)
	stmt.Iter = p.parseStarTestList()
	stmt.Body = p.parseBlock()
	if p.match(lexer.ELSE) {
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

// parseWhile parses: while <test> : <block> [else : <block>]
func (p *Parser) parseWhile() *ast.While {
	tok := p.expect(lexer.WHILE)
	stmt := &ast.While{Line: tok.Line, Column: tok.Column}
	stmt.Test = p.parseNamedTest()
	stmt.Body = p.parseBlock()
	if p.match(lexer.ELSE) {
		stmt.Orelse = p.parseBlock()
	}
	return stmt
}

// parseDecorated drops decorator lines and parses the decorated definition
func (p *Parser) parseDecorated() []ast.Stmt {
	tok := p.current()
	for p.match(lexer.AT) {
		p.parseTest()
		p.expect(lexer.NEWLINE)
	}
	p.diags.Warningf(tok.Line, tok.Column, "decorators are ignored")
	switch p.current().Type {
	case lexer.DEF, lexer.CLASS, lexer.ASYNC:
		return p.parseStatement()
	}
	p.errorAt(p.current(), "expected a function or class after decorator, got %s", describe(p.current()))
	return nil
}

func (p *Parser) parseAsync() ast.Stmt {
	tok := p.expect(lexer.ASYNC)
	switch p.current().Type {
	case lexer.DEF:
		p.parseFunctionDef()
		return &ast.UnsupportedStmt{Kind: "AsyncFunctionDef", Line: tok.Line, Column: tok.Column}
	case lexer.FOR:
		p.parseFor()
		return &ast.UnsupportedStmt{Kind: "AsyncFor", Line: tok.Line, Column: tok.Column}
	case lexer.WITH:
		u := p.parseUnsupportedCompound("AsyncWith")
		u.Line, u.Column = tok.Line, tok.Column
		return u
	}
	p.errorAt(p.current(), "expected def, for or with after async, got %s", describe(p.current()))
	p.synchronize()
	return &ast.UnsupportedStmt{Kind: "Async", Line: tok.Line, Column: tok.Column}
}

// parseUnsupportedCompound consumes a compound statement outside the
// supported subset, including the clauses that continue it, and returns a
// placeholder for it.
func (p *Parser) parseUnsupportedCompound(kind string) *ast.UnsupportedStmt {
	tok := p.advance()
	p.skipBalanced(lexer.COLON)
	p.parseBlock()
	if kind == "Try" {
		for p.check(lexer.EXCEPT) || p.check(lexer.ELSE) || p.check(lexer.FINALLY) {
			p.advance()
			p.skipBalanced(lexer.COLON)
			p.parseBlock()
		}
	}
	return &ast.UnsupportedStmt{Kind: kind, Line: tok.Line, Column: tok.Column}
}

package lexer

import "strings"

// Lexer scans source code of the restricted Python dialect and produces
// tokens, including the synthetic NEWLINE, INDENT and DEDENT tokens that
// carry the block structure.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number

	indents     []int   // indentation stack, always starts with 0
	pending     []Token // queued DEDENT tokens
	parenDepth  int     // newlines inside brackets are not significant
	atLineStart bool
	lastType    TokenType
	started     bool
}

// New creates a new Lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		column:      0,
		indents:     []int{0},
		atLineStart: true,
		lastType:    NEWLINE,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII code for NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekCharAt(offset int) byte {
	pos := l.position + offset
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

// skipComment skips a '#' comment up to (not including) the newline
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipInlineSpace skips spaces, tabs, comments and line continuations
func (l *Lexer) skipInlineSpace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f' || l.ch == '\r':
			l.readChar()
		case l.ch == '#':
			l.skipComment()
		case l.ch == '\\' && (l.peekChar() == '\n' || (l.peekChar() == '\r' && l.peekCharAt(2) == '\n')):
			l.readChar()
			for l.ch != '\n' {
				l.readChar()
			}
			l.readChar()
		case l.ch == '\n' && l.parenDepth > 0:
			l.readChar()
		default:
			return
		}
	}
}

// measureIndent consumes leading whitespace of a logical line and returns
// its width, skipping blank and comment-only lines. ok is false at EOF.
func (l *Lexer) measureIndent() (width int, ok bool) {
	for {
		width = 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			if l.ch == '\t' {
				width = (width/8 + 1) * 8
			} else if l.ch == ' ' {
				width++
			}
			l.readChar()
		}
		switch l.ch {
		case '#':
			l.skipComment()
			continue
		case '\r':
			l.readChar()
			continue
		case '\n':
			l.readChar()
			continue
		case 0:
			return 0, false
		}
		return width, true
	}
}

// emit records the token type so NEWLINE tokens are never doubled
func (l *Lexer) emit(tok Token) Token {
	l.lastType = tok.Type
	l.started = true
	return tok
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return l.emit(tok)
	}

	if l.atLineStart && l.parenDepth == 0 {
		l.atLineStart = false
		width, ok := l.measureIndent()
		if !ok {
			return l.endOfInput()
		}
		if tok, changed := l.indentToken(width); changed {
			return l.emit(tok)
		}
	}

	l.skipInlineSpace()

	line, col := l.line, l.column

	if l.ch == '\n' {
		l.readChar()
		l.atLineStart = true
		if l.lastType == NEWLINE || l.lastType == INDENT || l.lastType == DEDENT {
			return l.NextToken()
		}
		return l.emit(Token{Type: NEWLINE, Literal: "\\n", Line: line, Column: col})
	}

	if l.ch == 0 {
		return l.endOfInput()
	}

	tok := l.scanToken(line, col)
	return l.emit(tok)
}

// indentToken compares width against the indentation stack and produces an
// INDENT, the first of one or more DEDENTs, or nothing.
func (l *Lexer) indentToken(width int) (Token, bool) {
	top := l.indents[len(l.indents)-1]
	line, col := l.line, l.column
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		return Token{Type: INDENT, Literal: "", Line: line, Column: col}, true
	case width < top:
		var dedents []Token
		for len(l.indents) > 1 && width < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			dedents = append(dedents, Token{Type: DEDENT, Literal: "", Line: line, Column: col})
		}
		if width != l.indents[len(l.indents)-1] {
			dedents = append(dedents, Token{Type: ILLEGAL, Literal: "unindent does not match any outer indentation level", Line: line, Column: col})
		}
		l.pending = append(l.pending, dedents[1:]...)
		return dedents[0], true
	}
	return Token{}, false
}

// endOfInput closes the last logical line and all open blocks before EOF
func (l *Lexer) endOfInput() Token {
	line, col := l.line, l.column
	if l.started && l.lastType != NEWLINE && l.lastType != DEDENT && l.lastType != INDENT {
		l.atLineStart = true
		return l.emit(Token{Type: NEWLINE, Literal: "\\n", Line: line, Column: col})
	}
	if len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		return l.emit(Token{Type: DEDENT, Literal: "", Line: line, Column: col})
	}
	return l.emit(Token{Type: EOF, Literal: "", Line: line, Column: col})
}

// scanToken reads one non-layout token starting at the current char
func (l *Lexer) scanToken(line, col int) Token {
	mk := func(tt TokenType, lit string) Token {
		return Token{Type: tt, Literal: lit, Line: line, Column: col}
	}

	if isLetter(l.ch) {
		if prefix, ok := l.stringPrefix(); ok {
			for range prefix {
				l.readChar()
			}
			return l.readString(prefix, line, col)
		}
		ident := l.readIdentifier()
		return mk(LookupIdent(ident), ident)
	}
	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		literal, tokenType := l.readNumber()
		return mk(tokenType, literal)
	}
	if l.ch == '"' || l.ch == '\'' {
		return l.readString("", line, col)
	}

	// Longest match first: three-char, two-char, one-char operators.
	three := l.input[l.position:min(l.position+3, len(l.input))]
	if tt, ok := threeCharOps[three]; ok {
		l.readChar()
		l.readChar()
		l.readChar()
		return mk(tt, three)
	}
	two := l.input[l.position:min(l.position+2, len(l.input))]
	if tt, ok := twoCharOps[two]; ok {
		l.readChar()
		l.readChar()
		return mk(tt, two)
	}

	ch := l.ch
	l.readChar()
	switch ch {
	case '(', '[', '{':
		l.parenDepth++
	case ')', ']', '}':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
	}
	if tt, ok := oneCharOps[ch]; ok {
		return mk(tt, string(ch))
	}
	return mk(ILLEGAL, string(ch))
}

var threeCharOps = map[string]TokenType{
	"**=": DOUBLESTAR_ASSIGN,
	"//=": DOUBLESLASH_ASSIGN,
	"<<=": LSHIFT_ASSIGN,
	">>=": RSHIFT_ASSIGN,
	"...": ELLIPSIS,
}

var twoCharOps = map[string]TokenType{
	"**": DOUBLESTAR,
	"//": DOUBLESLASH,
	"<<": LSHIFT,
	">>": RSHIFT,
	"==": EQ,
	"!=": NEQ,
	"<=": LEQ,
	">=": GEQ,
	"->": ARROW,
	"+=": PLUS_ASSIGN,
	"-=": MINUS_ASSIGN,
	"*=": STAR_ASSIGN,
	"/=": SLASH_ASSIGN,
	"%=": PERCENT_ASSIGN,
	"&=": AMP_ASSIGN,
	"|=": PIPE_ASSIGN,
	"^=": CARET_ASSIGN,
}

var oneCharOps = map[byte]TokenType{
	'+': PLUS,
	'-': MINUS,
	'*': STAR,
	'/': SLASH,
	'%': PERCENT,
	'@': AT,
	'&': AMP,
	'|': PIPE,
	'^': CARET,
	'~': TILDE,
	'<': LT,
	'>': GT,
	'=': ASSIGN,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'{': LBRACE,
	'}': RBRACE,
	',': COMMA,
	':': COLON,
	';': SEMICOLON,
	'.': DOT,
}

// stringPrefix reports whether the letters at the current position are a
// string prefix (r, b, f, u and their two-letter combinations) followed by
// a quote.
func (l *Lexer) stringPrefix() (string, bool) {
	end := l.position
	for end < len(l.input) && end-l.position < 2 && isLetter(l.input[end]) {
		end++
	}
	if end >= len(l.input) || (l.input[end] != '"' && l.input[end] != '\'') {
		return "", false
	}
	prefix := strings.ToLower(l.input[l.position:end])
	switch prefix {
	case "r", "b", "f", "u", "rb", "br", "fr", "rf":
		return prefix, true
	}
	return "", false
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a numeric literal (integer or float)
func (l *Lexer) readNumber() (string, TokenType) {
	position := l.position
	tokenType := INT_LIT

	if l.ch == '0' && strings.ContainsRune("xXoObB", rune(l.peekChar())) {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		return l.input[position:l.position], tokenType
	}

	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && l.peekChar() != '.' {
		tokenType = FLOAT_LIT
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharAt(2))) {
			tokenType = FLOAT_LIT
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.input[position:l.position], tokenType
}

// readString reads a single- or triple-quoted string. Plain strings carry
// their decoded value; f-strings carry the raw body so the parser can split
// the interpolations out.
func (l *Lexer) readString(prefix string, line, col int) Token {
	quote := l.ch
	triple := l.peekChar() == quote && l.peekCharAt(2) == quote
	if triple {
		l.readChar()
		l.readChar()
	}
	l.readChar()

	start := l.position
	for {
		if l.ch == 0 || (!triple && l.ch == '\n') {
			return Token{Type: ILLEGAL, Literal: "unterminated string", Line: line, Column: col}
		}
		if l.ch == '\\' {
			l.readChar()
			if l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == quote {
			if !triple {
				break
			}
			if l.peekChar() == quote && l.peekCharAt(2) == quote {
				break
			}
		}
		l.readChar()
	}
	body := l.input[start:l.position]
	if triple {
		l.readChar()
		l.readChar()
	}
	l.readChar()

	raw := strings.Contains(prefix, "r")
	if strings.Contains(prefix, "f") {
		if raw {
			body = strings.ReplaceAll(body, `\`, `\\`)
		}
		return Token{Type: FSTRING_LIT, Literal: body, Line: line, Column: col}
	}
	if !raw {
		body = Unescape(body)
	}
	return Token{Type: STRING_LIT, Literal: body, Line: line, Column: col}
}

// Unescape decodes the backslash escapes of a string literal body
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		case '\n':
			// line continuation inside the literal
		case 'x':
			if i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
				sb.WriteByte(hexVal(s[i+1])<<4 | hexVal(s[i+2]))
				i += 2
			} else {
				sb.WriteString(`\x`)
			}
		default:
			// Unknown escapes keep the backslash, as Python does
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Tokenize returns all tokens from the input
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

// Helper functions

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func hexVal(ch byte) byte {
	switch {
	case isDigit(ch):
		return ch - '0'
	case 'a' <= ch && ch <= 'f':
		return ch - 'a' + 10
	default:
		return ch - 'A' + 10
	}
}

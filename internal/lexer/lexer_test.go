package lexer

import (
	"testing"
)

func collectTypes(input string) []TokenType {
	var types []TokenType
	for _, tok := range New(input).Tokenize() {
		types = append(types, tok.Type)
	}
	return types
}

func assertTypes(t *testing.T, input string, expected []TokenType) {
	t.Helper()
	got := collectTypes(input)
	if len(got) != len(expected) {
		t.Fatalf("wrong token count for %q. expected=%v, got=%v", input, expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("token[%d] - wrong type. expected=%q, got=%q", i, expected[i], got[i])
		}
	}
}

func TestNextToken_Operators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "arithmetic operators",
			input:    "+ - * / % // ** @",
			expected: []TokenType{PLUS, MINUS, STAR, SLASH, PERCENT, DOUBLESLASH, DOUBLESTAR, AT, NEWLINE, EOF},
		},
		{
			name:     "comparison operators",
			input:    "== != < > <= >=",
			expected: []TokenType{EQ, NEQ, LT, GT, LEQ, GEQ, NEWLINE, EOF},
		},
		{
			name:     "bitwise operators",
			input:    "& | ^ ~ << >>",
			expected: []TokenType{AMP, PIPE, CARET, TILDE, LSHIFT, RSHIFT, NEWLINE, EOF},
		},
		{
			name:  "augmented assignment",
			input: "+= -= *= /= //= %= **= &= |= ^= <<= >>=",
			expected: []TokenType{
				PLUS_ASSIGN, MINUS_ASSIGN, STAR_ASSIGN, SLASH_ASSIGN, DOUBLESLASH_ASSIGN, PERCENT_ASSIGN,
				DOUBLESTAR_ASSIGN, AMP_ASSIGN, PIPE_ASSIGN, CARET_ASSIGN, LSHIFT_ASSIGN, RSHIFT_ASSIGN,
				NEWLINE, EOF,
			},
		},
		{
			name:     "assignment and arrow",
			input:    "= ->",
			expected: []TokenType{ASSIGN, ARROW, NEWLINE, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTypes(t, tt.input, tt.expected)
		})
	}
}

func TestTokenType_IsAugAssign(t *testing.T) {
	if !PLUS_ASSIGN.IsAugAssign() || !RSHIFT_ASSIGN.IsAugAssign() {
		t.Error("expected augmented assignment tokens to report IsAugAssign")
	}
	if ASSIGN.IsAugAssign() || ARROW.IsAugAssign() || LPAREN.IsAugAssign() {
		t.Error("expected non-augmented tokens not to report IsAugAssign")
	}
}

func TestNextToken_Delimiters(t *testing.T) {
	assertTypes(t, "( ) { } [ ] , : ; . ...", []TokenType{
		LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET,
		COMMA, COLON, SEMICOLON, DOT, ELLIPSIS, NEWLINE, EOF,
	})
}

func TestNextToken_Keywords(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"def", DEF},
		{"class", CLASS},
		{"return", RETURN},
		{"if", IF},
		{"elif", ELIF},
		{"else", ELSE},
		{"for", FOR},
		{"in", IN},
		{"while", WHILE},
		{"break", BREAK},
		{"continue", CONTINUE},
		{"pass", PASS},
		{"and", AND},
		{"or", OR},
		{"not", NOT},
		{"is", IS},
		{"None", NONE},
		{"True", TRUE},
		{"False", FALSE},
		{"lambda", LAMBDA},
		{"import", IMPORT},
		{"try", TRY},
		{"with", WITH},
		{"yield", YIELD},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.expected {
				t.Errorf("wrong type. expected=%q, got=%q", tt.expected, tok.Type)
			}
			if tok.Literal != tt.input {
				t.Errorf("wrong literal. expected=%q, got=%q", tt.input, tok.Literal)
			}
		})
	}
}

func TestNextToken_KeywordsAreCaseSensitive(t *testing.T) {
	for _, input := range []string{"none", "true", "DEF", "Class", "self", "print"} {
		tok := New(input).NextToken()
		if tok.Type != IDENT {
			t.Errorf("%q: expected IDENT, got %q", input, tok.Type)
		}
	}
}

func TestNextToken_NumberLiterals(t *testing.T) {
	tests := []struct {
		input   string
		typ     TokenType
		literal string
	}{
		{"0", INT_LIT, "0"},
		{"42", INT_LIT, "42"},
		{"1_000_000", INT_LIT, "1_000_000"},
		{"0x1F", INT_LIT, "0x1F"},
		{"0o17", INT_LIT, "0o17"},
		{"0b1010", INT_LIT, "0b1010"},
		{"3.14", FLOAT_LIT, "3.14"},
		{".5", FLOAT_LIT, ".5"},
		{"1e10", FLOAT_LIT, "1e10"},
		{"2.5E-3", FLOAT_LIT, "2.5E-3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ {
				t.Errorf("wrong type. expected=%q, got=%q", tt.typ, tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("wrong literal. expected=%q, got=%q", tt.literal, tok.Literal)
			}
		})
	}
}

func TestNextToken_StringLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		typ     TokenType
		literal string
	}{
		{"double quoted", `"hello"`, STRING_LIT, "hello"},
		{"single quoted", `'hello'`, STRING_LIT, "hello"},
		{"escapes", `"a\tb\n"`, STRING_LIT, "a\tb\n"},
		{"quote escape", `'it\'s'`, STRING_LIT, "it's"},
		{"hex escape", `"\x41"`, STRING_LIT, "A"},
		{"unknown escape kept", `"\d"`, STRING_LIT, `\d`},
		{"raw string", `r"\d+\n"`, STRING_LIT, `\d+\n`},
		{"triple quoted", "\"\"\"line1\nline2\"\"\"", STRING_LIT, "line1\nline2"},
		{"fstring raw body", `f"x={x}\n"`, FSTRING_LIT, `x={x}\n`},
		{"raw fstring doubles backslash", `rf"\d{x}"`, FSTRING_LIT, `\\d{x}`},
		{"upper prefix", `F'{a}'`, FSTRING_LIT, `{a}`},
		{"bytes prefix", `b"abc"`, STRING_LIT, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("wrong type. expected=%q, got=%q (%q)", tt.typ, tok.Type, tok.Literal)
			}
			if tok.Literal != tt.literal {
				t.Errorf("wrong literal. expected=%q, got=%q", tt.literal, tok.Literal)
			}
		})
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	tok := New(`"abc`).NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %q", tok.Type)
	}
	if tok.Literal != "unterminated string" {
		t.Errorf("unexpected literal %q", tok.Literal)
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{`plain`, "plain"},
		{`a\\b`, `a\b`},
		{`\"q\"`, `"q"`},
		{`\0`, "\x00"},
		{`\xZZ`, `\xZZ`},
		{"a\\\nb", "ab"},
	}
	for _, tt := range tests {
		if got := Unescape(tt.in); got != tt.out {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}

func TestNextToken_Indentation(t *testing.T) {
	input := "if x:\n    y = 1\n    if z:\n        w = 2\nv = 3\n"
	assertTypes(t, input, []TokenType{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IDENT, ASSIGN, INT_LIT, NEWLINE,
		IF, IDENT, COLON, NEWLINE,
		INDENT, IDENT, ASSIGN, INT_LIT, NEWLINE,
		DEDENT, DEDENT, IDENT, ASSIGN, INT_LIT, NEWLINE,
		EOF,
	})
}

func TestNextToken_DedentAtEOF(t *testing.T) {
	assertTypes(t, "def f():\n    pass", []TokenType{
		DEF, IDENT, LPAREN, RPAREN, COLON, NEWLINE,
		INDENT, PASS, NEWLINE, DEDENT, EOF,
	})
}

func TestNextToken_BlankAndCommentLinesIgnored(t *testing.T) {
	input := "x = 1\n\n   # indented comment\n\ny = 2\n"
	assertTypes(t, input, []TokenType{
		IDENT, ASSIGN, INT_LIT, NEWLINE,
		IDENT, ASSIGN, INT_LIT, NEWLINE,
		EOF,
	})
}

func TestNextToken_ImplicitLineJoining(t *testing.T) {
	input := "f(1,\n  2)\nx = [\n    3,\n]\n"
	assertTypes(t, input, []TokenType{
		IDENT, LPAREN, INT_LIT, COMMA, INT_LIT, RPAREN, NEWLINE,
		IDENT, ASSIGN, LBRACKET, INT_LIT, COMMA, RBRACKET, NEWLINE,
		EOF,
	})
}

func TestNextToken_BackslashContinuation(t *testing.T) {
	assertTypes(t, "x = 1 + \\\n    2\n", []TokenType{
		IDENT, ASSIGN, INT_LIT, PLUS, INT_LIT, NEWLINE, EOF,
	})
}

func TestNextToken_InconsistentDedent(t *testing.T) {
	input := "if x:\n        y = 1\n    z = 2\n"
	var sawIllegal bool
	for _, tok := range New(input).Tokenize() {
		if tok.Type == ILLEGAL {
			sawIllegal = true
		}
	}
	if !sawIllegal {
		t.Error("expected ILLEGAL token for unindent mismatch")
	}
}

func TestNextToken_LineAndColumnTracking(t *testing.T) {
	input := "x = 1\ndef f(a):\n    return a"
	tokens := New(input).Tokenize()

	tests := []struct {
		index  int
		typ    TokenType
		line   int
		column int
	}{
		{0, IDENT, 1, 1},
		{1, ASSIGN, 1, 3},
		{2, INT_LIT, 1, 5},
		{4, DEF, 2, 1},
		{5, IDENT, 2, 5},
		{12, RETURN, 3, 5},
		{13, IDENT, 3, 12},
	}

	for _, tt := range tests {
		tok := tokens[tt.index]
		if tok.Type != tt.typ {
			t.Errorf("token[%d] - wrong type. expected=%q, got=%q", tt.index, tt.typ, tok.Type)
			continue
		}
		if tok.Line != tt.line || tok.Column != tt.column {
			t.Errorf("token[%d] %q - wrong position. expected=%d:%d, got=%d:%d",
				tt.index, tok.Literal, tt.line, tt.column, tok.Line, tok.Column)
		}
	}
}

func TestNextToken_IllegalCharacters(t *testing.T) {
	for _, input := range []string{"$", "?", "!"} {
		tok := New(input).NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %q", input, tok.Type)
		}
	}
}

func TestTokenType_String(t *testing.T) {
	tests := []struct {
		typ  TokenType
		want string
	}{
		{EOF, "EOF"},
		{INDENT, "INDENT"},
		{IDENT, "IDENT"},
		{DEF, "DEF"},
		{DOUBLESLASH_ASSIGN, "DOUBLESLASH_ASSIGN"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	NEWLINE
	INDENT
	DEDENT

	// Literals
	IDENT       // x, y, my_variable
	INT_LIT     // 123, 0x1f, 1_000
	FLOAT_LIT   // 1.5, 2e10
	STRING_LIT  // "hello" (Literal holds the decoded value)
	FSTRING_LIT // f"x {y}" (Literal holds the raw body)

	// Keywords
	DEF
	CLASS
	RETURN
	IF
	ELIF
	ELSE
	FOR
	IN
	WHILE
	BREAK
	CONTINUE
	PASS
	AND
	OR
	NOT
	IS
	NONE
	TRUE
	FALSE
	LAMBDA
	IMPORT
	FROM
	AS
	GLOBAL
	NONLOCAL
	DEL
	ASSERT
	RAISE
	TRY
	EXCEPT
	FINALLY
	WITH
	YIELD
	ASYNC
	AWAIT

	// Operators
	PLUS        // +
	MINUS       // -
	STAR        // *
	DOUBLESTAR  // **
	SLASH       // /
	DOUBLESLASH // //
	PERCENT     // %
	AT          // @
	AMP         // &
	PIPE        // |
	CARET       // ^
	TILDE       // ~
	LSHIFT      // <<
	RSHIFT      // >>
	EQ          // ==
	NEQ         // !=
	LT          // <
	GT          // >
	LEQ         // <=
	GEQ         // >=
	ASSIGN      // =
	ARROW       // ->

	// Augmented assignment
	PLUS_ASSIGN        // +=
	MINUS_ASSIGN       // -=
	STAR_ASSIGN        // *=
	SLASH_ASSIGN       // /=
	DOUBLESLASH_ASSIGN // //=
	PERCENT_ASSIGN     // %=
	DOUBLESTAR_ASSIGN  // **=
	AMP_ASSIGN         // &=
	PIPE_ASSIGN        // |=
	CARET_ASSIGN       // ^=
	LSHIFT_ASSIGN      // <<=
	RSHIFT_ASSIGN      // >>=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	DOT       // .
	ELLIPSIS  // ...
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

var tokenNames = map[TokenType]string{
	ILLEGAL:            "ILLEGAL",
	EOF:                "EOF",
	NEWLINE:            "NEWLINE",
	INDENT:             "INDENT",
	DEDENT:             "DEDENT",
	IDENT:              "IDENT",
	INT_LIT:            "INT_LIT",
	FLOAT_LIT:          "FLOAT_LIT",
	STRING_LIT:         "STRING_LIT",
	FSTRING_LIT:        "FSTRING_LIT",
	DEF:                "DEF",
	CLASS:              "CLASS",
	RETURN:             "RETURN",
	IF:                 "IF",
	ELIF:               "ELIF",
	ELSE:               "ELSE",
	FOR:                "FOR",
	IN:                 "IN",
	WHILE:              "WHILE",
	BREAK:              "BREAK",
	CONTINUE:           "CONTINUE",
	PASS:               "PASS",
	AND:                "AND",
	OR:                 "OR",
	NOT:                "NOT",
	IS:                 "IS",
	NONE:               "NONE",
	TRUE:               "TRUE",
	FALSE:              "FALSE",
	LAMBDA:             "LAMBDA",
	IMPORT:             "IMPORT",
	FROM:               "FROM",
	AS:                 "AS",
	GLOBAL:             "GLOBAL",
	NONLOCAL:           "NONLOCAL",
	DEL:                "DEL",
	ASSERT:             "ASSERT",
	RAISE:              "RAISE",
	TRY:                "TRY",
	EXCEPT:             "EXCEPT",
	FINALLY:            "FINALLY",
	WITH:               "WITH",
	YIELD:              "YIELD",
	ASYNC:              "ASYNC",
	AWAIT:              "AWAIT",
	PLUS:               "PLUS",
	MINUS:              "MINUS",
	STAR:               "STAR",
	DOUBLESTAR:         "DOUBLESTAR",
	SLASH:              "SLASH",
	DOUBLESLASH:        "DOUBLESLASH",
	PERCENT:            "PERCENT",
	AT:                 "AT",
	AMP:                "AMP",
	PIPE:               "PIPE",
	CARET:              "CARET",
	TILDE:              "TILDE",
	LSHIFT:             "LSHIFT",
	RSHIFT:             "RSHIFT",
	EQ:                 "EQ",
	NEQ:                "NEQ",
	LT:                 "LT",
	GT:                 "GT",
	LEQ:                "LEQ",
	GEQ:                "GEQ",
	ASSIGN:             "ASSIGN",
	ARROW:              "ARROW",
	PLUS_ASSIGN:        "PLUS_ASSIGN",
	MINUS_ASSIGN:       "MINUS_ASSIGN",
	STAR_ASSIGN:        "STAR_ASSIGN",
	SLASH_ASSIGN:       "SLASH_ASSIGN",
	DOUBLESLASH_ASSIGN: "DOUBLESLASH_ASSIGN",
	PERCENT_ASSIGN:     "PERCENT_ASSIGN",
	DOUBLESTAR_ASSIGN:  "DOUBLESTAR_ASSIGN",
	AMP_ASSIGN:         "AMP_ASSIGN",
	PIPE_ASSIGN:        "PIPE_ASSIGN",
	CARET_ASSIGN:       "CARET_ASSIGN",
	LSHIFT_ASSIGN:      "LSHIFT_ASSIGN",
	RSHIFT_ASSIGN:      "RSHIFT_ASSIGN",
	LPAREN:             "LPAREN",
	RPAREN:             "RPAREN",
	LBRACE:             "LBRACE",
	RBRACE:             "RBRACE",
	LBRACKET:           "LBRACKET",
	RBRACKET:           "RBRACKET",
	COMMA:              "COMMA",
	COLON:              "COLON",
	SEMICOLON:          "SEMICOLON",
	DOT:                "DOT",
	ELLIPSIS:           "ELLIPSIS",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// IsAugAssign reports whether the token is an augmented assignment operator
func (t TokenType) IsAugAssign() bool {
	return t >= PLUS_ASSIGN && t <= RSHIFT_ASSIGN
}

// keywords maps keyword strings to their token types
var keywords = map[string]TokenType{
	"def":      DEF,
	"class":    CLASS,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"for":      FOR,
	"in":       IN,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"pass":     PASS,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"is":       IS,
	"None":     NONE,
	"True":     TRUE,
	"False":    FALSE,
	"lambda":   LAMBDA,
	"import":   IMPORT,
	"from":     FROM,
	"as":       AS,
	"global":   GLOBAL,
	"nonlocal": NONLOCAL,
	"del":      DEL,
	"assert":   ASSERT,
	"raise":    RAISE,
	"try":      TRY,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"with":     WITH,
	"yield":    YIELD,
	"async":    ASYNC,
	"await":    AWAIT,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

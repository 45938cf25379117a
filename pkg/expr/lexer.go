package expr

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	DOT      // "."
	OPTDOT   // "?."
	COMMA    // ","
	COLON    // ":"
	QUESTION // "?"

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	BANG
	EQ        // "=="
	NEQ       // "!="
	STRICTEQ  // "==="
	STRICTNEQ // "!=="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ
	AND     // "&&"
	OR      // "||"
	NULLISH // "??"

	// Literals & identifiers
	IDENT
	INT
	FLOAT
	STRING

	// Keywords
	TRUE
	FALSE
	NULL
	UNDEFINED
	THIS
)

var tokenNames = map[TokenType]string{
	EOF: "end of expression", LPAREN: "'('", RPAREN: "')'", LBRACKET: "'['", RBRACKET: "']'",
	LBRACE: "'{'", RBRACE: "'}'", DOT: "'.'", OPTDOT: "'?.'", COMMA: "','", COLON: "':'",
	QUESTION: "'?'", PLUS: "'+'", MINUS: "'-'", STAR: "'*'", SLASH: "'/'", PERCENT: "'%'",
	BANG: "'!'", EQ: "'=='", NEQ: "'!='", STRICTEQ: "'==='", STRICTNEQ: "'!=='", LESS: "'<'",
	LESS_EQ: "'<='", GREATER: "'>'", GREATER_EQ: "'>='", AND: "'&&'", OR: "'||'",
	NULLISH: "'??'", IDENT: "identifier", INT: "number", FLOAT: "number", STRING: "string",
	TRUE: "'true'", FALSE: "'false'", NULL: "'null'", UNDEFINED: "'undefined'", THIS: "'this'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice
	Literal any    // parsed value for literals
	Pos     int    // byte offset in the source
}

var keywords = map[string]TokenType{
	"true":      TRUE,
	"false":     FALSE,
	"null":      NULL,
	"undefined": UNDEFINED,
	"this":      THIS,
}

// operators ordered longest first so that "===" wins over "==".
var operators = []struct {
	text string
	typ  TokenType
}{
	{"===", STRICTEQ}, {"!==", STRICTNEQ},
	{"==", EQ}, {"!=", NEQ}, {"<=", LESS_EQ}, {">=", GREATER_EQ},
	{"&&", AND}, {"||", OR}, {"??", NULLISH},
	{"(", LPAREN}, {")", RPAREN}, {"[", LBRACKET}, {"]", RBRACKET},
	{"{", LBRACE}, {"}", RBRACE}, {".", DOT}, {",", COMMA}, {":", COLON},
	{"?", QUESTION}, {"+", PLUS}, {"-", MINUS}, {"*", STAR}, {"/", SLASH},
	{"%", PERCENT}, {"!", BANG}, {"<", LESS}, {">", GREATER},
}

// LexError is a lexical error at a byte offset.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return "lexical error at " + strconv.Itoa(e.Pos) + ": " + e.Msg
}

type lexer struct {
	src  string
	pos  int
	toks []Token
}

// Lex splits src into tokens, terminated by an EOF token.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.src) {
			lx.toks = append(lx.toks, Token{Type: EOF, Pos: lx.pos})
			return lx.toks, nil
		}
		if err := lx.next(); err != nil {
			return nil, err
		}
	}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\n', '\r':
			lx.pos++
		default:
			return
		}
	}
}

func (lx *lexer) emit(t TokenType, start int, lit any) {
	lx.toks = append(lx.toks, Token{Type: t, Lexeme: lx.src[start:lx.pos], Literal: lit, Pos: start})
}

func (lx *lexer) next() error {
	start := lx.pos
	c := lx.src[lx.pos]

	switch {
	case isIdentStart(c):
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		word := lx.src[start:lx.pos]
		if kw, ok := keywords[word]; ok {
			lx.emit(kw, start, nil)
		} else {
			lx.emit(IDENT, start, word)
		}
		return nil
	case isDigit(c), c == '.' && !lx.afterOperand() && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1]):
		return lx.number()
	case c == '"' || c == '\'':
		return lx.str(c)
	}

	// "?." is optional chaining unless a digit follows ("a?.5:1" is a conditional).
	if strings.HasPrefix(lx.src[lx.pos:], "?.") && (lx.pos+2 >= len(lx.src) || !isDigit(lx.src[lx.pos+2])) {
		lx.pos += 2
		lx.emit(OPTDOT, start, nil)
		return nil
	}

	for _, op := range operators {
		if strings.HasPrefix(lx.src[lx.pos:], op.text) {
			lx.pos += len(op.text)
			lx.emit(op.typ, start, nil)
			return nil
		}
	}

	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return &LexError{Pos: start, Msg: "unexpected character " + strconv.QuoteRune(r)}
}

func (lx *lexer) number() error {
	start := lx.pos
	isFloat := false
	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	// After a dot only an integer property name is allowed: "items.0.1" is items[0][1].
	if lx.afterDot() {
		return lx.integer(start)
	}
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1]) {
		isFloat = true
		lx.pos++
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		save := lx.pos
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		if lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			isFloat = true
			for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
				lx.pos++
			}
		} else {
			lx.pos = save
		}
	}
	if lx.pos < len(lx.src) && isIdentStart(lx.src[lx.pos]) {
		return &LexError{Pos: lx.pos, Msg: "identifier starts immediately after numeric literal"}
	}

	text := lx.src[start:lx.pos]
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			lx.emit(INT, start, int(n))
			return nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return &LexError{Pos: start, Msg: "invalid number " + strconv.Quote(text)}
	}
	lx.emit(FLOAT, start, f)
	return nil
}

func (lx *lexer) integer(start int) error {
	text := lx.src[start:lx.pos]
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return &LexError{Pos: start, Msg: "invalid index " + strconv.Quote(text)}
	}
	lx.emit(INT, start, int(n))
	return nil
}

// afterOperand reports whether the previous token can be followed by a member access.
func (lx *lexer) afterOperand() bool {
	if len(lx.toks) == 0 {
		return false
	}
	switch lx.toks[len(lx.toks)-1].Type {
	case IDENT, INT, RPAREN, RBRACKET, RBRACE, THIS, STRING:
		return true
	}
	return false
}

func (lx *lexer) afterDot() bool {
	if len(lx.toks) == 0 {
		return false
	}
	t := lx.toks[len(lx.toks)-1].Type
	return t == DOT || t == OPTDOT
}

func (lx *lexer) str(quote byte) error {
	start := lx.pos
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return &LexError{Pos: start, Msg: "unterminated string"}
		}
		c := lx.src[lx.pos]
		switch {
		case c == quote:
			lx.pos++
			lx.emit(STRING, start, sb.String())
			return nil
		case c == '\\':
			if lx.pos+1 >= len(lx.src) {
				return &LexError{Pos: lx.pos, Msg: "unterminated escape"}
			}
			lx.pos++
			if err := lx.escape(&sb); err != nil {
				return err
			}
		default:
			sb.WriteByte(c)
			lx.pos++
		}
	}
}

func (lx *lexer) escape(sb *strings.Builder) error {
	c := lx.src[lx.pos]
	lx.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case '0':
		sb.WriteByte(0)
	case 'u':
		if lx.pos+4 > len(lx.src) {
			return &LexError{Pos: lx.pos - 2, Msg: "invalid unicode escape"}
		}
		n, err := strconv.ParseUint(lx.src[lx.pos:lx.pos+4], 16, 32)
		if err != nil {
			return &LexError{Pos: lx.pos - 2, Msg: "invalid unicode escape"}
		}
		sb.WriteRune(rune(n))
		lx.pos += 4
	default:
		// \\, \', \" and any other character stand for themselves
		sb.WriteByte(c)
	}
	return nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

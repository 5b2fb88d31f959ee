package lang

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTemplate
	tokOp
	tokLBrace
	tokRBrace
	tokSemi
	tokNewline
	tokComment
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokTemplate:
		return "template"
	case tokOp:
		return "operator"
	case tokLBrace:
		return "{"
	case tokRBrace:
		return "}"
	case tokSemi:
		return ";"
	case tokNewline:
		return "newline"
	case tokComment:
		return "comment"
	default:
		return "unknown"
	}
}

type token struct {
	kind  tokenKind
	text  string
	line  int
	col   int
	space bool // preceded by whitespace or a line break
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// operators are matched longest first.
var operators = []string{
	"===", "!==", "**=", "...", "??=", "&&=", "||=",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.", "**",
	"+=", "-=", "*=", "/=", "%=", "++", "--", "=>", "..",
	"+", "-", "*", "/", "%", "=", "<", ">", "!", "?", ":",
	".", ",", "(", ")", "[", "]", "&", "|", "^", "~", "#",
}

type lexer struct {
	src       []rune
	pos       int
	line      int
	col       int
	lineStart bool // only whitespace seen since the last line break
	space     bool
	toks      []token
}

// tokenize splits src into tokens. Line breaks are kept as tokens because
// they terminate statements outside of parentheses and brackets.
func tokenize(src string) ([]token, error) {
	lx := &lexer{
		src:       []rune(src),
		line:      1,
		col:       1,
		lineStart: true,
	}

	for lx.pos < len(lx.src) {
		err := lx.next()
		if err != nil {
			return nil, err
		}
	}

	lx.emit(tokEOF, "", lx.line, lx.col)

	return lx.toks, nil
}

func (lx *lexer) peek(off int) rune {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}

	return 0
}

func (lx *lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++

	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	return r
}

func (lx *lexer) emit(kind tokenKind, text string, line, col int) {
	lx.toks = append(lx.toks, token{
		kind:  kind,
		text:  text,
		line:  line,
		col:   col,
		space: lx.space,
	})
	lx.space = false
	lx.lineStart = kind == tokNewline
}

func (lx *lexer) errorf(err *Error, line, col int) error {
	return newSyntaxError(err, string(lx.src), line, col)
}

func (lx *lexer) next() error {
	line, col := lx.line, lx.col
	r := lx.peek(0)

	switch {
	case r == '\n':
		lx.advance()
		lx.emit(tokNewline, "\n", line, col)
		lx.space = true

	case r == ' ' || r == '\t' || r == '\r' || r == '\f':
		lx.advance()
		lx.space = true

	case r == '/' && lx.peek(1) == '/':
		lx.advance()
		lx.advance()
		lx.emit(tokComment, strings.TrimSpace(lx.untilEOL()), line, col)

	case r == '#' && lx.lineStart:
		lx.advance()
		lx.emit(tokComment, strings.TrimSpace(lx.untilEOL()), line, col)

	case r == '/' && lx.peek(1) == '*':
		for lx.pos < len(lx.src) && (lx.peek(0) != '*' || lx.peek(1) != '/') {
			lx.advance()
		}

		if lx.pos >= len(lx.src) {
			return lx.errorf(ErrMalformedStatement.Wrap(
				NewError("unterminated block comment")), line, col)
		}

		lx.advance()
		lx.advance()

		lx.space = true

	case isIdentStart(r):
		start := lx.pos
		for lx.pos < len(lx.src) && isIdentPart(lx.peek(0)) {
			lx.advance()
		}

		lx.emit(tokIdent, string(lx.src[start:lx.pos]), line, col)

	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peek(1))):
		lx.emit(tokNumber, lx.number(), line, col)

	case r == '"' || r == '\'':
		text, err := lx.quoted(r, false)
		if err != nil {
			return lx.errorf(ErrMalformedStatement.Wrap(err), line, col)
		}

		lx.emit(tokString, text, line, col)

	case r == '`':
		text, err := lx.quoted(r, true)
		if err != nil {
			return lx.errorf(ErrMalformedStatement.Wrap(err), line, col)
		}

		lx.emit(tokTemplate, text, line, col)

	case r == '{':
		lx.advance()
		lx.emit(tokLBrace, "{", line, col)

	case r == '}':
		lx.advance()
		lx.emit(tokRBrace, "}", line, col)

	case r == ';':
		lx.advance()
		lx.emit(tokSemi, ";", line, col)

	default:
		for _, op := range operators {
			if lx.hasPrefix(op) {
				for range len(op) {
					lx.advance()
				}

				lx.emit(tokOp, op, line, col)

				return nil
			}
		}

		return lx.errorf(ErrMalformedStatement.Wrap(
			NewError("unexpected character "+string(r))), line, col)
	}

	return nil
}

func (lx *lexer) hasPrefix(s string) bool {
	i := lx.pos
	for _, r := range s {
		if i >= len(lx.src) || lx.src[i] != r {
			return false
		}
		i++
	}

	return true
}

func (lx *lexer) untilEOL() string {
	start := lx.pos
	for lx.pos < len(lx.src) && lx.peek(0) != '\n' {
		lx.advance()
	}

	return string(lx.src[start:lx.pos])
}

func (lx *lexer) number() string {
	start := lx.pos

	if lx.peek(0) == '0' && strings.ContainsRune("xXoObB", lx.peek(1)) {
		lx.advance()
		lx.advance()

		for lx.pos < len(lx.src) && (isHexDigit(lx.peek(0)) || lx.peek(0) == '_') {
			lx.advance()
		}

		return string(lx.src[start:lx.pos])
	}

	digits := func() {
		for lx.pos < len(lx.src) && (unicode.IsDigit(lx.peek(0)) || lx.peek(0) == '_') {
			lx.advance()
		}
	}

	digits()

	// A second '.' makes this the left operand of a range.
	if lx.peek(0) == '.' && lx.peek(1) != '.' {
		lx.advance()
		digits()
	}

	if e := lx.peek(0); e == 'e' || e == 'E' {
		sign := lx.peek(1)
		if unicode.IsDigit(sign) ||
			((sign == '+' || sign == '-') && unicode.IsDigit(lx.peek(2))) {
			lx.advance()
			lx.advance()
			digits()
		}
	}

	return string(lx.src[start:lx.pos])
}

// quoted consumes a quoted literal and returns it including its delimiters.
// Only template literals may span lines.
func (lx *lexer) quoted(delim rune, multiline bool) (string, error) {
	start := lx.pos
	lx.advance()

	for lx.pos < len(lx.src) {
		r := lx.advance()

		switch {
		case r == '\\' && lx.pos < len(lx.src):
			lx.advance()

		case r == delim:
			return string(lx.src[start:lx.pos]), nil

		case r == '\n' && !multiline:
			return "", NewError("unterminated string literal")
		}
	}

	return "", NewError("unterminated string literal")
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

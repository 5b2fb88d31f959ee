package lang

import (
	"slices"
	"strconv"
	"strings"
)

// LineKind classifies one rewritten statement.
type LineKind int

const (
	LineComment LineKind = iota
	LineDecl
	LineAssign
	LineExpr
	LineIf
	LineElseIf
	LineElse
	LineWhile
	LineForOf
	LineForIn
	LineFunc
	LineReturn
	LineBreak
	LineContinue
)

func (k LineKind) String() string {
	switch k {
	case LineComment:
		return "comment"
	case LineDecl:
		return "decl"
	case LineAssign:
		return "assign"
	case LineExpr:
		return "expr"
	case LineIf:
		return "if"
	case LineElseIf:
		return "elif"
	case LineElse:
		return "else"
	case LineWhile:
		return "while"
	case LineForOf:
		return "for-of"
	case LineForIn:
		return "for-in"
	case LineFunc:
		return "function"
	case LineReturn:
		return "return"
	case LineBreak:
		return "break"
	case LineContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// header reports whether lines of this kind introduce an indented body.
func (k LineKind) header() bool {
	switch k {
	case LineIf, LineElseIf, LineElse, LineWhile, LineForOf, LineForIn, LineFunc:
		return true
	default:
		return false
	}
}

// Accessor is one member or index step of an assignment target.
type Accessor struct {
	Name  string // member name; empty for an index step
	Index string // index expression
}

// Line is one rewritten statement. Nesting is expressed by Depth alone.
type Line struct {
	Kind    LineKind
	Depth   int
	Number  int    // 1-based line within the block
	Source  string // trimmed surface text of the line
	Keyword string // let, const, or var
	Name    string
	Path    []Accessor
	Op      string // assignment operator
	Params  []string
	Expr    string // expression in evaluator syntax
}

// Target renders the assignment target of l.
func (l Line) Target() string {
	var buf strings.Builder

	buf.WriteString(l.Name)

	for _, a := range l.Path {
		if a.Name != "" {
			buf.WriteString(".")
			buf.WriteString(a.Name)
		} else {
			buf.WriteString("[")
			buf.WriteString(a.Index)
			buf.WriteString("]")
		}
	}

	return buf.String()
}

// String renders l without indentation in host block form.
func (l Line) String() string {
	switch l.Kind {
	case LineComment:
		return strings.TrimSpace("# " + l.Expr)
	case LineDecl:
		return l.Name + " = " + l.Expr
	case LineAssign:
		return l.Target() + " " + l.Op + " " + l.Expr
	case LineExpr:
		return l.Expr
	case LineIf:
		return "if " + l.Expr + ":"
	case LineElseIf:
		return "elif " + l.Expr + ":"
	case LineElse:
		return "else:"
	case LineWhile:
		return "while " + l.Expr + ":"
	case LineForOf:
		return "for " + l.Name + " in " + l.Expr + ":"
	case LineForIn:
		return "for " + l.Name + " in keys(" + l.Expr + "):"
	case LineFunc:
		return "def " + l.Name + "(" + strings.Join(l.Params, ", ") + "):"
	case LineReturn:
		return strings.TrimSpace("return " + l.Expr)
	case LineBreak:
		return "break"
	case LineContinue:
		return "continue"
	default:
		return ""
	}
}

// Directive is a metadata line removed from a block before rewriting.
type Directive struct {
	Line int
	Text string
}

// Rewrite is the rewritten form of one block.
type Rewrite struct {
	Lines      []Line
	Directives []Directive
	Dropped    []int // line numbers of removed import lines
}

const indentUnit = "    "

// String renders the rewritten block using indentation for nesting.
func (r *Rewrite) String() string {
	var buf strings.Builder

	for i, l := range r.Lines {
		if i > 0 {
			buf.WriteByte('\n')
		}

		buf.WriteString(strings.Repeat(indentUnit, l.Depth))
		buf.WriteString(l.String())

		if l.Kind.header() && !r.hasBody(i) {
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(indentUnit, l.Depth+1))
			buf.WriteString("pass")
		}
	}

	return buf.String()
}

func (r *Rewrite) hasBody(i int) bool {
	return i+1 < len(r.Lines) && r.Lines[i+1].Depth > r.Lines[i].Depth
}

// RewriteBlock converts a block body from surface syntax into a sequence of
// indentation-governed statements.
func RewriteBlock(src string) (*Rewrite, error) {
	rw := &rewriter{
		src:  src,
		phys: strings.Split(src, "\n"),
		out:  new(Rewrite),
	}

	cleaned := rw.strip()

	toks, err := tokenize(cleaned)
	if err != nil {
		return nil, err
	}

	rw.toks = toks

	err = rw.run()
	if err != nil {
		return nil, err
	}

	return rw.out, nil
}

type openBlock struct {
	line  int
	depth int
}

type rewriter struct {
	src   string
	phys  []string
	toks  []token
	pos   int
	out   *Rewrite
	stack []openBlock
	nest  []token // open ( [ and expression {
	cur   []token
}

// strip blanks out directive and import lines, keeping line numbers stable.
func (rw *rewriter) strip() string {
	lines := slices.Clone(rw.phys)

	for i, line := range lines {
		trim := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trim, ":::"):
			rw.out.Directives = append(rw.out.Directives, Directive{
				Line: i + 1,
				Text: strings.TrimSpace(strings.TrimPrefix(trim, ":::")),
			})
			lines[i] = ""

		case strings.Contains(trim, "import {") ||
			strings.HasPrefix(trim, "import "):
			rw.out.Dropped = append(rw.out.Dropped, i+1)
			lines[i] = ""
		}
	}

	return strings.Join(lines, "\n")
}

func (rw *rewriter) source(line int) string {
	if line <= 0 || line > len(rw.phys) {
		return ""
	}

	return strings.TrimSpace(rw.phys[line-1])
}

func (rw *rewriter) fail(err *Error, tok token) error {
	return newSyntaxError(err, rw.src, tok.line, tok.col)
}

func (rw *rewriter) depth() int { return len(rw.stack) }

// nextSignificant returns the next token after the cursor that is neither a
// line break nor a comment.
func (rw *rewriter) nextSignificant() token {
	for i := rw.pos + 1; i < len(rw.toks); i++ {
		if k := rw.toks[i].kind; k != tokNewline && k != tokComment {
			return rw.toks[i]
		}
	}

	return token{kind: tokEOF}
}

// continues reports whether a line break after cur continues the statement.
func (rw *rewriter) continues() bool {
	if len(rw.cur) == 0 {
		return false
	}

	if end, ok := headerEnd(rw.cur); ok && end == len(rw.cur) {
		return true
	}

	last := rw.cur[len(rw.cur)-1]
	if last.kind == tokOp {
		switch last.text {
		case "++", "--", ")", "]":
		default:
			return true
		}
	}

	next := rw.nextSignificant()
	if next.kind == tokOp {
		switch next.text {
		case ".", "?.", "&&", "||", "??", "?", ":":
			return true
		}
	}

	return false
}

func (rw *rewriter) run() error {
	for ; rw.pos < len(rw.toks); rw.pos++ {
		tok := rw.toks[rw.pos]

		switch tok.kind {
		case tokComment:
			if len(rw.cur) == 0 && len(rw.nest) == 0 {
				rw.out.Lines = append(rw.out.Lines, Line{
					Kind:   LineComment,
					Depth:  rw.depth(),
					Number: tok.line,
					Source: rw.source(tok.line),
					Expr:   tok.text,
				})
			}

		case tokNewline:
			if len(rw.nest) > 0 || rw.continues() {
				continue
			}

			err := rw.flush()
			if err != nil {
				return err
			}

		case tokSemi:
			if len(rw.nest) > 0 {
				rw.cur = append(rw.cur, tok)

				continue
			}

			err := rw.flush()
			if err != nil {
				return err
			}

		case tokLBrace:
			if len(rw.nest) == 0 && len(rw.cur) > 0 && isHeader(rw.cur) {
				err := rw.open(tok)
				if err != nil {
					return err
				}

				continue
			}

			if len(rw.nest) == 0 && len(rw.cur) == 0 {
				return rw.fail(ErrMalformedStatement.Wrap(
					NewError("unexpected '{'")), tok)
			}

			rw.nest = append(rw.nest, tok)
			rw.cur = append(rw.cur, tok)

		case tokRBrace:
			if len(rw.nest) > 0 {
				err := rw.closeNest(tok, "{")
				if err != nil {
					return err
				}

				continue
			}

			err := rw.flush()
			if err != nil {
				return err
			}

			if len(rw.stack) == 0 {
				return rw.fail(ErrUnmatchedBrace, tok)
			}

			rw.stack = rw.stack[:len(rw.stack)-1]

		case tokOp:
			switch tok.text {
			case "(", "[":
				rw.nest = append(rw.nest, tok)
				rw.cur = append(rw.cur, tok)

			case ")":
				err := rw.closeNest(tok, "(")
				if err != nil {
					return err
				}

			case "]":
				err := rw.closeNest(tok, "[")
				if err != nil {
					return err
				}

			default:
				rw.cur = append(rw.cur, tok)
			}

		case tokEOF:
			if n := len(rw.nest); n > 0 {
				return rw.fail(ErrMalformedStatement.Wrap(
					NewError("unclosed '"+rw.nest[n-1].text+"'")), rw.nest[n-1])
			}

			err := rw.flush()
			if err != nil {
				return err
			}

			if n := len(rw.stack); n > 0 {
				return newSyntaxError(ErrUnclosedBlock, rw.src, rw.stack[n-1].line, 0)
			}

			return nil

		default:
			rw.cur = append(rw.cur, tok)
		}
	}

	return nil
}

func (rw *rewriter) closeNest(tok token, want string) error {
	n := len(rw.nest)
	if n == 0 || rw.nest[n-1].text != want {
		return rw.fail(ErrMalformedStatement.Wrap(
			NewError("unexpected '"+tok.text+"'")), tok)
	}

	rw.nest = rw.nest[:n-1]
	rw.cur = append(rw.cur, tok)

	return nil
}

// open emits the header held in cur and pushes a new block.
func (rw *rewriter) open(brace token) error {
	end, ok := headerEnd(rw.cur)
	if !ok || end != len(rw.cur) {
		return rw.headerError(rw.cur, brace)
	}

	line, err := rw.header(rw.cur, rw.depth())
	if err != nil {
		return err
	}

	rw.out.Lines = append(rw.out.Lines, line)
	rw.stack = append(rw.stack, openBlock{line: line.Number, depth: line.Depth})
	rw.cur = nil

	return nil
}

// flush classifies the statement held in cur.
func (rw *rewriter) flush() error {
	if len(rw.cur) == 0 {
		return nil
	}

	toks := rw.cur
	rw.cur = nil

	return rw.statement(toks, rw.depth())
}

func (rw *rewriter) statement(toks []token, depth int) error {
	if isHeader(toks) {
		end, ok := headerEnd(toks)
		if !ok {
			return rw.headerError(toks, toks[len(toks)-1])
		}

		line, err := rw.header(toks[:end], depth)
		if err != nil {
			return err
		}

		if end == len(toks) {
			return rw.fail(ErrMalformedStatement.Wrap(
				NewError(line.Kind.String()+" statement has no body")), toks[0])
		}

		rw.out.Lines = append(rw.out.Lines, line)

		// (a) => expr returns expr.
		if line.Kind == LineFunc {
			expr, err := rw.normalize(toks[end:])
			if err != nil {
				return err
			}

			body := rw.newLine(LineReturn, depth+1, toks[end])
			body.Expr = expr
			rw.out.Lines = append(rw.out.Lines, body)

			return nil
		}

		return rw.statement(toks[end:], depth+1)
	}

	lines, err := rw.simple(toks, depth)
	if err != nil {
		return err
	}

	rw.out.Lines = append(rw.out.Lines, lines...)

	return nil
}

func (rw *rewriter) headerError(toks []token, at token) error {
	if toks[0].is(tokIdent, "function") || isFuncAssign(toks) {
		return rw.fail(ErrMalformedFunction, toks[0])
	}

	if toks[0].is(tokIdent, "for") && slices.ContainsFunc(toks, func(t token) bool {
		return t.kind == tokSemi
	}) {
		return rw.fail(ErrUnsupportedFor, toks[0])
	}

	return rw.fail(ErrMalformedStatement.Wrap(
		NewError("malformed "+toks[0].text+" header")), at)
}

func (rw *rewriter) newLine(kind LineKind, depth int, first token) Line {
	return Line{
		Kind:   kind,
		Depth:  depth,
		Number: first.line,
		Source: rw.source(first.line),
	}
}

// isHeader reports whether toks begin a compound statement.
func isHeader(toks []token) bool {
	if len(toks) == 0 || toks[0].kind != tokIdent {
		return false
	}

	switch toks[0].text {
	case "if", "else", "while", "for", "function":
		return true
	}

	return isFuncAssign(toks)
}

// isFuncAssign reports whether toks begin a function bound by assignment:
// [let] NAME = function (...) or [let] NAME = (...) =>.
func isFuncAssign(toks []token) bool {
	i := 0
	if isDeclKeyword(toks[0]) {
		i++
	}

	if i+2 >= len(toks) || toks[i].kind != tokIdent || !toks[i+1].is(tokOp, "=") {
		return false
	}

	rhs := toks[i+2:]
	if rhs[0].is(tokIdent, "function") {
		return true
	}

	if !rhs[0].is(tokOp, "(") {
		return false
	}

	end := matchParen(rhs, 0)

	return end > 0 && end+1 < len(rhs) && rhs[end+1].is(tokOp, "=>")
}

// headerEnd returns the index just past the header that begins toks.
func headerEnd(toks []token) (int, bool) {
	if !isHeader(toks) {
		return 0, false
	}

	switch toks[0].text {
	case "else":
		if len(toks) > 1 && toks[1].is(tokIdent, "if") {
			end, ok := headerEnd(toks[1:])

			return end + 1, ok
		}

		return 1, true

	case "if", "while", "for":
		if len(toks) < 2 || !toks[1].is(tokOp, "(") {
			return 0, false
		}

		end := matchParen(toks, 1)
		if end < 0 {
			return 0, false
		}

		return end + 1, true

	case "function":
		i := 1
		if i < len(toks) && toks[i].kind == tokIdent {
			i++
		}

		if i >= len(toks) || !toks[i].is(tokOp, "(") {
			return 0, false
		}

		end := matchParen(toks, i)
		if end < 0 {
			return 0, false
		}

		return end + 1, true
	}

	// function bound by assignment
	i := 2
	if isDeclKeyword(toks[0]) {
		i++
	}

	if toks[i].is(tokIdent, "function") {
		i++
		if i < len(toks) && toks[i].kind == tokIdent {
			i++
		}
	}

	if i >= len(toks) || !toks[i].is(tokOp, "(") {
		return 0, false
	}

	end := matchParen(toks, i)
	if end < 0 {
		return 0, false
	}

	if end+1 < len(toks) && toks[end+1].is(tokOp, "=>") {
		return end + 2, true
	}

	return end + 1, true
}

// matchParen returns the index of the ")" closing the "(" at toks[open].
func matchParen(toks []token, open int) int {
	depth := 0

	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].is(tokOp, "("), toks[i].is(tokOp, "["), toks[i].kind == tokLBrace:
			depth++
		case toks[i].is(tokOp, ")"), toks[i].is(tokOp, "]"), toks[i].kind == tokRBrace:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

func isDeclKeyword(t token) bool {
	return t.kind == tokIdent && (t.text == "let" || t.text == "const" || t.text == "var")
}

// header classifies a complete header (without its body).
func (rw *rewriter) header(toks []token, depth int) (Line, error) {
	first := toks[0]

	switch first.text {
	case "else":
		if len(toks) == 1 {
			return rw.newLine(LineElse, depth, first), nil
		}

		line, err := rw.header(toks[1:], depth)
		if err != nil {
			return Line{}, err
		}

		line.Kind = LineElseIf
		line.Number = first.line
		line.Source = rw.source(first.line)

		return line, nil

	case "if", "while":
		kind := LineIf
		if first.text == "while" {
			kind = LineWhile
		}

		inner := toks[2 : len(toks)-1]
		if len(inner) == 0 {
			return Line{}, rw.fail(ErrMalformedStatement.Wrap(
				NewError("empty condition")), first)
		}

		expr, err := rw.normalize(inner)
		if err != nil {
			return Line{}, err
		}

		line := rw.newLine(kind, depth, first)
		line.Expr = expr

		return line, nil

	case "for":
		return rw.forHeader(toks, depth)

	case "function":
		line := rw.newLine(LineFunc, depth, first)

		i := 1
		if toks[i].kind != tokIdent {
			return Line{}, rw.fail(ErrMalformedFunction.Wrap(
				NewError("missing function name")), first)
		}

		line.Name = toks[i].text

		params, err := rw.params(toks[i+1:], first)
		if err != nil {
			return Line{}, err
		}

		line.Params = params

		return line, nil
	}

	// function bound by assignment
	line := rw.newLine(LineFunc, depth, first)

	i := 0
	if isDeclKeyword(first) {
		line.Keyword = first.text
		i++
	}

	line.Name = toks[i].text
	i += 2

	if toks[i].is(tokIdent, "function") {
		i++
		if toks[i].kind == tokIdent {
			i++
		}
	}

	rest := toks[i:]
	if n := len(rest); n > 0 && rest[n-1].is(tokOp, "=>") {
		rest = rest[:n-1]
	}

	params, err := rw.params(rest, first)
	if err != nil {
		return Line{}, err
	}

	line.Params = params

	return line, nil
}

// params parses a parenthesized identifier list.
func (rw *rewriter) params(toks []token, first token) ([]string, error) {
	if len(toks) < 2 || !toks[0].is(tokOp, "(") || !toks[len(toks)-1].is(tokOp, ")") {
		return nil, rw.fail(ErrMalformedFunction, first)
	}

	inner := toks[1 : len(toks)-1]
	params := make([]string, 0, (len(inner)+1)/2)

	for i, t := range inner {
		if i%2 == 1 {
			if !t.is(tokOp, ",") {
				return nil, rw.fail(ErrMalformedFunction.Wrap(
					NewError("unexpected "+strconv.Quote(t.text)+" in parameter list")), t)
			}

			continue
		}

		if t.kind != tokIdent || isKeyword(t.text) {
			return nil, rw.fail(ErrMalformedFunction.Wrap(
				NewError("invalid parameter "+strconv.Quote(t.text))), t)
		}

		if slices.Contains(params, t.text) {
			return nil, rw.fail(ErrMalformedFunction.Wrap(
				NewError("duplicate parameter "+strconv.Quote(t.text))), t)
		}

		params = append(params, t.text)
	}

	if n := len(inner); n > 0 && n%2 == 0 {
		return nil, rw.fail(ErrMalformedFunction.Wrap(
			NewError("trailing comma in parameter list")), inner[n-1])
	}

	return params, nil
}

// forHeader classifies for (x of e) and for (x in e).
func (rw *rewriter) forHeader(toks []token, depth int) (Line, error) {
	first := toks[0]
	inner := toks[2 : len(toks)-1]

	if slices.ContainsFunc(inner, func(t token) bool { return t.kind == tokSemi }) {
		return Line{}, rw.fail(ErrUnsupportedFor, first)
	}

	if len(inner) > 0 && isDeclKeyword(inner[0]) {
		inner = inner[1:]
	}

	if len(inner) < 3 || inner[0].kind != tokIdent ||
		(!inner[1].is(tokIdent, "of") && !inner[1].is(tokIdent, "in")) {
		return Line{}, rw.fail(ErrMalformedStatement.Wrap(
			NewError("expected for (name of expr) or for (name in expr)")), first)
	}

	expr, err := rw.normalize(inner[2:])
	if err != nil {
		return Line{}, err
	}

	kind := LineForOf
	if inner[1].text == "in" {
		kind = LineForIn
	}

	line := rw.newLine(kind, depth, first)
	line.Name = inner[0].text
	line.Expr = expr

	return line, nil
}

var assignOps = []string{"=", "+=", "-=", "*=", "/=", "%=", "**=", "??=", "&&=", "||="}

// simple classifies a statement that has no body.
func (rw *rewriter) simple(toks []token, depth int) ([]Line, error) {
	first := toks[0]

	if first.is(tokIdent, "export") && len(toks) > 1 {
		return rw.simple(toks[1:], depth)
	}

	switch {
	case isDeclKeyword(first):
		return rw.decl(toks, depth)

	case first.is(tokIdent, "return"):
		line := rw.newLine(LineReturn, depth, first)

		if len(toks) > 1 {
			expr, err := rw.normalize(toks[1:])
			if err != nil {
				return nil, err
			}

			line.Expr = expr
		}

		return []Line{line}, nil

	case first.is(tokIdent, "break"), first.is(tokIdent, "continue"):
		if len(toks) > 1 {
			return nil, rw.fail(ErrMalformedStatement.Wrap(
				NewError("labels are not supported")), toks[1])
		}

		kind := LineBreak
		if first.text == "continue" {
			kind = LineContinue
		}

		return []Line{rw.newLine(kind, depth, first)}, nil
	}

	// ++x, --x, x++, x--
	n := len(toks)

	switch {
	case first.is(tokOp, "++"), first.is(tokOp, "--"):
		return rw.step(toks[1:], first.text, depth, first)

	case n > 1 && (toks[n-1].is(tokOp, "++") || toks[n-1].is(tokOp, "--")):
		return rw.step(toks[:n-1], toks[n-1].text, depth, first)
	}

	if i := topLevelIndex(toks, assignOps...); i >= 0 {
		if i == 0 || i == n-1 {
			return nil, rw.fail(ErrInvalidTarget, toks[i])
		}

		line := rw.newLine(LineAssign, depth, first)

		err := rw.target(&line, toks[:i])
		if err != nil {
			return nil, err
		}

		line.Op = toks[i].text

		line.Expr, err = rw.normalize(toks[i+1:])
		if err != nil {
			return nil, err
		}

		return []Line{line}, nil
	}

	expr, err := rw.normalize(toks)
	if err != nil {
		return nil, err
	}

	line := rw.newLine(LineExpr, depth, first)
	line.Expr = expr

	return []Line{line}, nil
}

func (rw *rewriter) step(target []token, op string, depth int, first token) ([]Line, error) {
	if len(target) == 0 {
		return nil, rw.fail(ErrInvalidTarget, first)
	}

	line := rw.newLine(LineAssign, depth, first)

	err := rw.target(&line, target)
	if err != nil {
		return nil, err
	}

	line.Op = string(op[0]) + "="
	line.Expr = "1"

	return []Line{line}, nil
}

// decl classifies let/const/var, including comma-separated declarations.
func (rw *rewriter) decl(toks []token, depth int) ([]Line, error) {
	first := toks[0]
	parts := splitTopLevel(toks[1:], ",")
	lines := make([]Line, 0, len(parts))

	for _, part := range parts {
		if len(part) == 0 {
			return nil, rw.fail(ErrMalformedStatement.Wrap(
				NewError("empty declaration")), first)
		}

		name := part[0]
		if name.kind != tokIdent || isKeyword(name.text) {
			return nil, rw.fail(ErrMalformedStatement.Wrap(
				NewError("unsupported declaration target "+strconv.Quote(name.text))), name)
		}

		line := rw.newLine(LineDecl, depth, first)
		line.Keyword = first.text
		line.Name = name.text
		line.Expr = "nil"

		if len(part) > 1 {
			if !part[1].is(tokOp, "=") || len(part) < 3 {
				return nil, rw.fail(ErrMalformedStatement.Wrap(
					NewError("expected '=' after "+strconv.Quote(name.text))), part[1])
			}

			expr, err := rw.normalize(part[2:])
			if err != nil {
				return nil, err
			}

			line.Expr = expr
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// target parses an assignment target of the form name(.member|[index])*.
func (rw *rewriter) target(line *Line, toks []token) error {
	if toks[0].kind != tokIdent || isKeyword(toks[0].text) {
		return rw.fail(ErrInvalidTarget, toks[0])
	}

	line.Name = toks[0].text

	for i := 1; i < len(toks); {
		switch {
		case toks[i].is(tokOp, ".") && i+1 < len(toks) && toks[i+1].kind == tokIdent:
			line.Path = append(line.Path, Accessor{Name: toks[i+1].text})
			i += 2

		case toks[i].is(tokOp, "["):
			end := matchParen(toks, i)
			if end < 0 || end == i+1 {
				return rw.fail(ErrInvalidTarget, toks[i])
			}

			index, err := rw.normalize(toks[i+1 : end])
			if err != nil {
				return err
			}

			line.Path = append(line.Path, Accessor{Index: index})
			i = end + 1

		default:
			return rw.fail(ErrInvalidTarget, toks[i])
		}
	}

	return nil
}

// topLevelIndex returns the index of the first token in toks outside of any
// brackets that is an operator in ops, or -1.
func topLevelIndex(toks []token, ops ...string) int {
	depth := 0

	for i, t := range toks {
		switch {
		case t.is(tokOp, "("), t.is(tokOp, "["), t.kind == tokLBrace:
			depth++
		case t.is(tokOp, ")"), t.is(tokOp, "]"), t.kind == tokRBrace:
			depth--
		case depth == 0 && t.kind == tokOp && slices.Contains(ops, t.text):
			return i
		}
	}

	return -1
}

// splitTopLevel splits toks at operators equal to sep outside of brackets.
func splitTopLevel(toks []token, sep string) [][]token {
	var parts [][]token

	for {
		i := topLevelIndex(toks, sep)
		if i < 0 {
			return append(parts, toks)
		}

		parts = append(parts, toks[:i])
		toks = toks[i+1:]
	}
}

// keywords cannot be bound as names.
var keywords = []string{
	"if", "else", "while", "for", "function", "return", "break", "continue",
	"let", "const", "var", "true", "false", "null", "undefined", "nil",
	"in", "of", "not", "and", "or", "export", "import",
}

func isKeyword(s string) bool { return slices.Contains(keywords, s) }

// Keywords returns the reserved words of the dialect.
func Keywords() []string { return slices.Clone(keywords) }

// normalize renders toks as an expression in evaluator syntax.
func (rw *rewriter) normalize(toks []token) (string, error) {
	var buf strings.Builder

	for i, t := range toks {
		if i > 0 && t.space {
			buf.WriteByte(' ')
		}

		switch t.kind {
		case tokIdent:
			switch t.text {
			case "null", "undefined":
				buf.WriteString("nil")
			default:
				buf.WriteString(t.text)
			}

		case tokOp:
			switch t.text {
			case "===":
				buf.WriteString("==")
			case "!==":
				buf.WriteString("!=")
			default:
				buf.WriteString(t.text)
			}

		case tokTemplate:
			s, err := rw.template(t)
			if err != nil {
				return "", err
			}

			buf.WriteString(s)

		case tokSemi:
			return "", rw.fail(ErrMalformedStatement.Wrap(
				NewError("unexpected ';'")), t)

		default:
			buf.WriteString(t.text)
		}
	}

	return buf.String(), nil
}

// template converts a template literal into string concatenation.
func (rw *rewriter) template(t token) (string, error) {
	body := []rune(t.text[1 : len(t.text)-1])

	var (
		parts []string
		chunk strings.Builder
	)

	flush := func() {
		if chunk.Len() > 0 {
			parts = append(parts, `"`+chunk.String()+`"`)
			chunk.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		r := body[i]

		switch {
		case r == '\\' && i+1 < len(body):
			i++
			if body[i] == '`' || body[i] == '$' {
				chunk.WriteRune(body[i])
			} else {
				chunk.WriteRune('\\')
				chunk.WriteRune(body[i])
			}

		case r == '"':
			chunk.WriteString(`\"`)

		case r == '\n':
			chunk.WriteString(`\n`)

		case r == '$' && i+1 < len(body) && body[i+1] == '{':
			end := closeInterpolation(body, i+2)
			if end < 0 {
				return "", rw.fail(ErrMalformedStatement.Wrap(
					NewError("unterminated template interpolation")), t)
			}

			inner, err := tokenize(string(body[i+2 : end]))
			if err != nil {
				return "", rw.fail(ErrMalformedStatement.Wrap(err), t)
			}

			inner = slices.DeleteFunc(inner, func(t token) bool {
				return t.kind == tokEOF || t.kind == tokNewline
			})
			if len(inner) == 0 {
				return "", rw.fail(ErrMalformedStatement.Wrap(
					NewError("empty template interpolation")), t)
			}

			expr, err := rw.normalize(inner)
			if err != nil {
				return "", err
			}

			flush()

			parts = append(parts, formatHelper+"("+expr+")")
			i = end

		default:
			chunk.WriteRune(r)
		}
	}

	flush()

	switch len(parts) {
	case 0:
		return `""`, nil
	case 1:
		if strings.HasPrefix(parts[0], `"`) {
			return parts[0], nil
		}
	}

	return "(" + strings.Join(parts, " + ") + ")", nil
}

// closeInterpolation returns the index of the "}" ending an interpolation
// whose expression starts at body[start].
func closeInterpolation(body []rune, start int) int {
	depth := 0

	var quote rune

	for i := start; i < len(body); i++ {
		r := body[i]

		switch {
		case quote != 0:
			if r == '\\' {
				i++
			} else if r == quote {
				quote = 0
			}

		case r == '"' || r == '\'':
			quote = r

		case r == '{':
			depth++

		case r == '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}

	return -1
}

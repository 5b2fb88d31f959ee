package lang

import (
	"strings"
)

// Parse rewrites a block body and builds its statement tree.
func Parse(src string) (*Program, error) {
	rw, err := RewriteBlock(src)
	if err != nil {
		return nil, err
	}

	p := &treeBuilder{src: src, lines: rw.Lines}

	body, err := p.block(0)
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.lines) {
		return nil, p.fail(ErrMalformedStatement, &p.lines[p.pos])
	}

	return &Program{Body: body, Rewrite: rw}, nil
}

// treeBuilder nests rewritten lines by depth.
type treeBuilder struct {
	src   string
	lines []Line
	pos   int
	loops int // enclosing loops in the current function
	funcs int // enclosing functions
}

func (p *treeBuilder) fail(err *Error, l *Line) error {
	return newSyntaxError(err, p.src, l.Number, 0)
}

// block collects the statements at depth until a shallower line.
func (p *treeBuilder) block(depth int) ([]Stmt, error) {
	var body []Stmt

	for p.pos < len(p.lines) {
		l := &p.lines[p.pos]

		if l.Kind == LineComment {
			p.pos++

			continue
		}

		if l.Depth < depth {
			break
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}

		body = append(body, stmt)
	}

	return body, nil
}

func (p *treeBuilder) body(l *Line) ([]Stmt, error) {
	return p.block(l.Depth + 1)
}

func (p *treeBuilder) statement() (Stmt, error) {
	l := p.lines[p.pos]
	p.pos++

	switch l.Kind {
	case LineDecl:
		return &DeclStmt{Line: l}, nil

	case LineAssign:
		return &AssignStmt{Line: l}, nil

	case LineExpr:
		return &ExprStmt{Line: l}, nil

	case LineReturn:
		if p.funcs == 0 {
			return nil, p.fail(ErrMisplacedFlow.Wrap(NewError("return")), &l)
		}

		return &ReturnStmt{Line: l}, nil

	case LineBreak, LineContinue:
		if p.loops == 0 {
			return nil, p.fail(ErrMisplacedFlow.Wrap(NewError(strings.TrimSpace(l.String()))), &l)
		}

		return &BranchStmt{Line: l}, nil

	case LineIf:
		return p.ifChain(l)

	case LineElseIf, LineElse:
		return nil, p.fail(ErrElseWithoutIf, &l)

	case LineWhile, LineForOf, LineForIn:
		p.loops++
		body, err := p.body(&l)
		p.loops--

		if err != nil {
			return nil, err
		}

		if l.Kind == LineWhile {
			return &WhileStmt{Line: l, Body: body}, nil
		}

		return &ForStmt{Line: l, Body: body}, nil

	case LineFunc:
		loops := p.loops
		p.loops = 0
		p.funcs++
		body, err := p.body(&l)
		p.funcs--
		p.loops = loops

		if err != nil {
			return nil, err
		}

		return &FuncStmt{Line: l, Body: body}, nil

	default:
		return nil, p.fail(ErrMalformedStatement, &l)
	}
}

func (p *treeBuilder) ifChain(head Line) (Stmt, error) {
	stmt := &IfStmt{line: head}

	body, err := p.body(&head)
	if err != nil {
		return nil, err
	}

	stmt.Branches = append(stmt.Branches, Branch{Cond: head, Body: body})

	for p.pos < len(p.lines) {
		next := p.pos
		for next < len(p.lines) && p.lines[next].Kind == LineComment {
			next++
		}

		if next == len(p.lines) {
			break
		}

		l := p.lines[next]
		if l.Depth != head.Depth || (l.Kind != LineElseIf && l.Kind != LineElse) {
			break
		}

		p.pos = next + 1

		body, err := p.body(&l)
		if err != nil {
			return nil, err
		}

		if l.Kind == LineElse {
			stmt.Else = body

			break
		}

		stmt.Branches = append(stmt.Branches, Branch{Cond: l, Body: body})
	}

	return stmt, nil
}

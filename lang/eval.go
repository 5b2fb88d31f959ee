package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
)

// flow is the control transfer requested by the last executed statement.
type flow int

const (
	flowNext flow = iota
	flowBreak
	flowContinue
	flowReturn
)

// frame holds the bindings of block level or of one function call.
type frame struct {
	vars map[string]any
}

func newFrame() *frame { return &frame{vars: make(map[string]any)} }

// runner executes the statement tree of one block.
type runner struct {
	ctx     context.Context
	in      *Interpreter
	block   int
	global  *frame
	local   *frame // nil at block level
	stack   []Frame
	depth   int
	out     []string
	files   []*fileHandle
	failure *RuntimeError
}

func newRunner(ctx context.Context, in *Interpreter, block int) *runner {
	return &runner{
		ctx:    ctx,
		in:     in,
		block:  block,
		global: newFrame(),
		stack:  []Frame{{Block: block}},
	}
}

func (r *runner) emit(line string) {
	r.out = append(r.out, line)

	if r.in.opts.echo {
		_, _ = io.WriteString(r.in.opts.stdout, line+"\n")
	}
}

func (r *runner) output() string { return strings.Join(r.out, "\n") }

// run executes prog. Any failure is returned as a *RuntimeError carrying
// the traceback recorded where it was raised.
func (r *runner) run(prog *Program) (err error) {
	prev := r.in.active
	r.in.active = r

	defer func() {
		if rec := recover(); rec != nil {
			stack := debug.Stack()

			r.in.logger.DebugContext(r.ctx, "recovered panic",
				slog.Any("panic", rec),
				slog.String("stack", string(stack)),
			)

			r.failure = nil
			failure := r.fail(ErrPanic.Wrap(fmt.Errorf("%v", rec)))
			failure.Stack = stack
			err = failure
		}

		r.closeFiles()
		r.in.active = prev
	}()

	_, _, err = r.exec(prog.Body)

	return err
}

// fail records err as the block failure unless one was already recorded by
// a deeper frame, and returns the recorded failure.
func (r *runner) fail(err error) *RuntimeError {
	if r.failure != nil {
		return r.failure
	}

	var re *RuntimeError
	if errors.As(err, &re) {
		r.failure = re
	} else {
		r.failure = &RuntimeError{Err: err, Trace: slices.Clone(r.stack)}
	}

	return r.failure
}

func (r *runner) closeFiles() {
	for _, h := range r.files {
		if !h.closed {
			_, _ = h.close()
		}
	}

	r.files = nil
}

// at records l as the current line of the innermost frame.
func (r *runner) at(l *Line) {
	top := &r.stack[len(r.stack)-1]
	top.Line = l.Number
	top.Source = l.Source
}

func (r *runner) exec(body []Stmt) (flow, any, error) {
	for _, stmt := range body {
		fl, val, err := r.stmt(stmt)
		if err != nil {
			return flowNext, nil, r.fail(err)
		}

		if fl != flowNext {
			return fl, val, nil
		}
	}

	return flowNext, nil, nil
}

func (r *runner) stmt(stmt Stmt) (flow, any, error) {
	r.at(stmt.Pos())

	switch s := stmt.(type) {
	case *DeclStmt:
		v, err := r.eval(s.Expr)
		if err != nil {
			return flowNext, nil, err
		}

		return flowNext, nil, r.declare(s.Name, v)

	case *AssignStmt:
		return flowNext, nil, r.assign(&s.Line)

	case *ExprStmt:
		_, err := r.eval(s.Expr)

		return flowNext, nil, err

	case *IfStmt:
		return r.ifStmt(s)

	case *WhileStmt:
		return r.whileStmt(s)

	case *ForStmt:
		return r.forStmt(s)

	case *FuncStmt:
		fn := &Function{
			Name:   s.Name,
			Params: slices.Clone(s.Params),
			body:   s.Body,
			owner:  r.in,
		}

		return flowNext, nil, r.declare(s.Name, fn)

	case *ReturnStmt:
		if s.Expr == "" {
			return flowReturn, nil, nil
		}

		v, err := r.eval(s.Expr)
		if err != nil {
			return flowNext, nil, err
		}

		return flowReturn, v, nil

	case *BranchStmt:
		if s.Kind == LineBreak {
			return flowBreak, nil, nil
		}

		return flowContinue, nil, nil
	}

	return flowNext, nil, ErrMalformedStatement.Wrap(NewError(stmt.Pos().Source))
}

func (r *runner) ifStmt(s *IfStmt) (flow, any, error) {
	for i := range s.Branches {
		br := &s.Branches[i]
		r.at(&br.Cond)

		cond, err := r.eval(br.Cond.Expr)
		if err != nil {
			return flowNext, nil, err
		}

		if truthy(cond) {
			return r.exec(br.Body)
		}
	}

	return r.exec(s.Else)
}

func (r *runner) whileStmt(s *WhileStmt) (flow, any, error) {
	for {
		if err := r.ctx.Err(); err != nil {
			return flowNext, nil, context.Cause(r.ctx)
		}

		r.at(&s.Line)

		cond, err := r.eval(s.Expr)
		if err != nil {
			return flowNext, nil, err
		}

		if !truthy(cond) {
			return flowNext, nil, nil
		}

		fl, val, err := r.exec(s.Body)
		if err != nil {
			return flowNext, nil, err
		}

		switch fl {
		case flowBreak:
			return flowNext, nil, nil
		case flowReturn:
			return fl, val, nil
		}
	}
}

func (r *runner) forStmt(s *ForStmt) (flow, any, error) {
	v, err := r.eval(s.Expr)
	if err != nil {
		return flowNext, nil, err
	}

	items, err := iterate(v, s.Kind == LineForIn)
	if err != nil {
		return flowNext, nil, err
	}

	for _, item := range items {
		if err := r.ctx.Err(); err != nil {
			return flowNext, nil, context.Cause(r.ctx)
		}

		r.at(&s.Line)

		err = r.declare(s.Name, item)
		if err != nil {
			return flowNext, nil, err
		}

		fl, val, err := r.exec(s.Body)
		if err != nil {
			return flowNext, nil, err
		}

		switch fl {
		case flowBreak:
			return flowNext, nil, nil
		case flowReturn:
			return fl, val, nil
		}
	}

	return flowNext, nil, nil
}

// call invokes fn with args in a new local frame. Missing arguments are nil
// and extra arguments are ignored.
func (r *runner) call(fn *Function, args []any) (any, error) {
	if r.depth >= r.in.opts.maxCallDepth {
		return nil, r.fail(ErrMaxDepthExceeded.With(
			slog.String("func", fn.Name),
			slog.Int("depth", r.depth),
		))
	}

	locals := newFrame()
	for i, p := range fn.Params {
		if i < len(args) {
			locals.vars[p] = args[i]
		} else {
			locals.vars[p] = nil
		}
	}

	r.in.logger.TraceContext(r.ctx, "call",
		slog.String("func", fn.Name),
		slog.Int("args", len(args)),
		slog.Int("depth", r.depth+1),
	)

	saved := r.local
	r.local = locals
	r.depth++
	r.stack = append(r.stack, Frame{Func: fn.Name, Block: r.block})

	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		r.depth--
		r.local = saved
	}()

	_, val, err := r.exec(fn.body)
	if err != nil {
		return nil, err
	}

	return val, nil
}

// ---------------------------------------------------------------------------
// Bindings
// ---------------------------------------------------------------------------

// scope returns the innermost frame.
func (r *runner) scope() *frame {
	if r.local != nil {
		return r.local
	}

	return r.global
}

// declare binds name in the innermost frame.
func (r *runner) declare(name string, v any) error {
	if IsReserved(name) {
		return ErrReservedName.Wrap(NewError(name))
	}

	r.scope().vars[name] = v

	return nil
}

// store rebinds name: a local binding when the current function declared
// one, the block level otherwise.
func (r *runner) store(name string, v any) error {
	if IsReserved(name) {
		return ErrReservedName.Wrap(NewError(name))
	}

	if r.local != nil {
		if _, ok := r.local.vars[name]; ok {
			r.local.vars[name] = v

			return nil
		}
	}

	r.global.vars[name] = v

	return nil
}

func (r *runner) lookup(name string) (any, bool) {
	if r.local != nil {
		if v, ok := r.local.vars[name]; ok {
			return v, true
		}
	}

	if v, ok := r.global.vars[name]; ok {
		return v, true
	}

	return r.in.ns.Get(name)
}

// env builds the expression environment. Capabilities are added last so
// they cannot be shadowed.
func (r *runner) env() map[string]any {
	env := make(map[string]any,
		len(r.in.caps)+r.in.ns.Len()+len(r.global.vars))

	bind := func(vars map[string]any) {
		for name, v := range vars {
			if fn, ok := v.(*Function); ok {
				env[name] = fn.Call
			} else {
				env[name] = v
			}
		}
	}

	bind(r.in.ns.Map())
	bind(r.global.vars)

	if r.local != nil {
		bind(r.local.vars)
	}

	maps.Copy(env, r.in.caps)

	return env
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (r *runner) eval(src string) (any, error) {
	return evalWith(src, r.env())
}

func evalWith(src string, env map[string]any) (any, error) {
	program, err := expr.Compile(src, expr.Env(env), expr.Patch(methodPatcher{}))
	if err != nil {
		return nil, ErrExprCompile.Wrap(exprError(err)).
			With(slog.String("expr", src))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(exprError(err)).
			With(slog.String("expr", src))
	}

	return out, nil
}

// exprError drops the source snippet expr attaches to its messages. The
// traceback already shows the offending line.
func exprError(err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Err
	}

	var fe *file.Error
	if errors.As(err, &fe) && fe.Message != "" {
		return errors.New(fe.Message)
	}

	return err
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

func (r *runner) assign(l *Line) error {
	rhs := func() (any, error) { return r.eval(l.Expr) }

	if len(l.Path) == 0 {
		var (
			v   any
			err error
		)

		if l.Op == "=" {
			v, err = rhs()
		} else {
			cur, ok := r.lookup(l.Name)
			if !ok {
				return ErrInvalidTarget.Wrap(NewError(l.Name + " is not defined"))
			}

			v, err = combine(l.Op, cur, rhs)
		}

		if err != nil {
			return err
		}

		return r.store(l.Name, v)
	}

	root, ok := r.lookup(l.Name)
	if !ok {
		// Capability handles are updated in place.
		root, ok = r.in.caps[l.Name]
		if !ok {
			return ErrInvalidTarget.Wrap(NewError(l.Name + " is not defined"))
		}
	}

	keys := make([]any, len(l.Path))

	for i, a := range l.Path {
		if a.Name != "" {
			keys[i] = a.Name

			continue
		}

		k, err := r.eval(a.Index)
		if err != nil {
			return err
		}

		keys[i] = k
	}

	var (
		value any
		err   error
	)

	if l.Op == "=" {
		value, err = rhs()
	} else {
		var cur any

		cur, err = getPath(root, keys)
		if err != nil {
			return err
		}

		value, err = combine(l.Op, cur, rhs)
	}

	if err != nil {
		return err
	}

	updated, err := setPath(root, keys, value)
	if err != nil || IsReserved(l.Name) {
		return err
	}

	return r.store(l.Name, updated)
}

// combine applies a compound assignment operator. The right operand of the
// logical operators is evaluated only when needed.
func combine(op string, cur any, rhs func() (any, error)) (any, error) {
	switch op {
	case "??=":
		if cur != nil {
			return cur, nil
		}

		return rhs()

	case "&&=":
		if !truthy(cur) {
			return cur, nil
		}

		return rhs()

	case "||=":
		if truthy(cur) {
			return cur, nil
		}

		return rhs()
	}

	b, err := rhs()
	if err != nil {
		return nil, err
	}

	return evalWith("a "+strings.TrimSuffix(op, "=")+" b", map[string]any{
		"a": cur,
		"b": b,
	})
}

func getPath(container any, keys []any) (any, error) {
	for _, key := range keys {
		switch c := container.(type) {
		case map[string]any:
			container = c[FormatValue(key)]

		case []any:
			i, err := toIndex(key, len(c))
			if err != nil {
				return nil, err
			}

			container = c[i]

		default:
			return nil, ErrInvalidTarget.Wrap(NewError(
				"cannot read " + formatNested(key) + " of " + resultTypeName(container)))
		}
	}

	return container, nil
}

// setPath stores v at keys below container and returns the container, which
// differs from the argument only when a slice grows.
func setPath(container any, keys []any, v any) (any, error) {
	key := keys[0]
	last := len(keys) == 1

	switch c := container.(type) {
	case map[string]any:
		k := FormatValue(key)
		if last {
			c[k] = v

			return c, nil
		}

		child, err := setPath(c[k], keys[1:], v)
		if err != nil {
			return nil, err
		}

		c[k] = child

		return c, nil

	case []any:
		if last {
			if i, ok := key.(int); ok && i == len(c) {
				return append(c, v), nil
			}
		}

		i, err := toIndex(key, len(c))
		if err != nil {
			return nil, err
		}

		if last {
			c[i] = v

			return c, nil
		}

		child, err := setPath(c[i], keys[1:], v)
		if err != nil {
			return nil, err
		}

		c[i] = child

		return c, nil
	}

	return nil, ErrInvalidTarget.Wrap(NewError(
		"cannot set " + formatNested(key) + " of " + resultTypeName(container)))
}

// toIndex converts key to a slice index in [0, n). Negative indexes count
// from the end.
func toIndex(key any, n int) (int, error) {
	var i int

	switch k := key.(type) {
	case int:
		i = k
	case int64:
		i = int(k)
	case float64:
		if k != math.Trunc(k) {
			return 0, ErrInvalidTarget.Wrap(NewError("non-integer index " + formatFloat(k)))
		}

		i = int(k)
	default:
		return 0, ErrInvalidTarget.Wrap(NewError("invalid index " + formatNested(key)))
	}

	if i < 0 {
		i += n
	}

	if i < 0 || i >= n {
		return 0, ErrInvalidTarget.Wrap(NewError(
			"index " + strconv.Itoa(i) + " out of range [0:" + strconv.Itoa(n) + "]"))
	}

	return i, nil
}

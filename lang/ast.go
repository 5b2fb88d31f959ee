package lang

import (
	"strings"
)

// Stmt is one executable statement of a block.
type Stmt interface {
	// Pos returns the rewritten line the statement was built from.
	Pos() *Line
}

// Program is the statement tree of one rewritten block.
type Program struct {
	Body    []Stmt
	Rewrite *Rewrite
}

type (
	// DeclStmt binds Name in the innermost frame.
	DeclStmt struct{ Line }

	// AssignStmt stores into an existing binding, member, or index.
	AssignStmt struct{ Line }

	// ExprStmt evaluates an expression for its side effects.
	ExprStmt struct{ Line }

	// IfStmt holds an if/elif chain with an optional else body.
	IfStmt struct {
		Branches []Branch
		Else     []Stmt
		line     Line
	}

	// Branch is one conditional arm of an IfStmt.
	Branch struct {
		Cond Line
		Body []Stmt
	}

	// WhileStmt repeats Body while the condition holds.
	WhileStmt struct {
		Line

		Body []Stmt
	}

	// ForStmt iterates elements (for-of) or keys (for-in).
	ForStmt struct {
		Line

		Body []Stmt
	}

	// FuncStmt declares a function.
	FuncStmt struct {
		Line

		Body []Stmt
	}

	// ReturnStmt leaves the current function.
	ReturnStmt struct{ Line }

	// BranchStmt is break or continue.
	BranchStmt struct{ Line }
)

func (s *DeclStmt) Pos() *Line   { return &s.Line }
func (s *AssignStmt) Pos() *Line { return &s.Line }
func (s *ExprStmt) Pos() *Line   { return &s.Line }
func (s *IfStmt) Pos() *Line     { return &s.line }
func (s *WhileStmt) Pos() *Line  { return &s.Line }
func (s *ForStmt) Pos() *Line    { return &s.Line }
func (s *FuncStmt) Pos() *Line   { return &s.Line }
func (s *ReturnStmt) Pos() *Line { return &s.Line }
func (s *BranchStmt) Pos() *Line { return &s.Line }

// Function is a user-defined function value.
type Function struct {
	Name   string
	Params []string
	body   []Stmt
	owner  *Interpreter
}

// String returns the function signature.
func (f *Function) String() string {
	return "[function " + f.Name + "(" + strings.Join(f.Params, ", ") + ")]"
}

// Call invokes f in the interpreter that declared it. It is only valid while
// that interpreter is executing a block.
func (f *Function) Call(args ...any) (any, error) {
	r := f.owner.active
	if r == nil {
		return nil, ErrNotCallable.Wrap(NewError(f.Name))
	}

	return r.call(f, args)
}

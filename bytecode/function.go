package bytecode

import "sync"

type Kind uint8

const (
	KindScript Kind = iota
	KindFunction
)

func (k Kind) String() string {
	if k == KindFunction {
		return "function"
	}
	return "script"
}

// Var is one parameter or variable slot.
type Var struct {
	Name  string
	Const bool
}

// Function describes one function or top-level script body. It is built once,
// shared read-only by every activation, and never modified after Build.
type Function struct {
	Kind            Kind
	LanguageVersion int
	Strict          bool
	Generator       bool
	NeedsActivation bool
	Name            string
	SourceName      string

	// parameters first, then variables
	Vars       []Var
	ParamCount int

	Code    []byte
	Strings []string
	Numbers []float64
	Nested  []*Function

	Handlers []Handler
	Lines    LineTable

	MaxStack  int
	MaxLocals int

	parent *Function

	verifyOnce sync.Once
	verifyErr  error
}

// Debuggable is the introspection surface offered to debuggers. Nothing in it
// executes code.
type Debuggable interface {
	IsFunction() bool
	FunctionName() string
	SourceName() string
	ParamCount() int
	ParamAndVarCount() int
	ParamOrVarName(i int) string
	ParamOrVarConst(i int) bool
	NestedCount() int
	NestedAt(i int) Debuggable
	LineNumbers() []int
	Parent() Debuggable
}

var _ Debuggable = debuggable{}

// Debug returns the introspection view of fn.
func (f *Function) Debug() Debuggable {
	return debuggable{f}
}

type debuggable struct {
	fn *Function
}

func (d debuggable) IsFunction() bool            { return d.fn.Kind == KindFunction }
func (d debuggable) FunctionName() string        { return d.fn.Name }
func (d debuggable) SourceName() string          { return d.fn.SourceName }
func (d debuggable) ParamCount() int             { return d.fn.ParamCount }
func (d debuggable) ParamAndVarCount() int       { return len(d.fn.Vars) }
func (d debuggable) ParamOrVarName(i int) string { return d.fn.Vars[i].Name }
func (d debuggable) ParamOrVarConst(i int) bool  { return d.fn.Vars[i].Const }
func (d debuggable) NestedCount() int            { return len(d.fn.Nested) }
func (d debuggable) NestedAt(i int) Debuggable   { return debuggable{d.fn.Nested[i]} }
func (d debuggable) LineNumbers() []int          { return d.fn.Lines.Lines() }

func (d debuggable) Parent() Debuggable {
	if d.fn.parent == nil {
		return nil
	}
	return debuggable{d.fn.parent}
}

// Parent returns the lexically enclosing container, nil for the root.
func (f *Function) Parent() *Function {
	return f.parent
}

// Link sets the parent of every nested container, recursively. Build and Decode
// call it; hand-assembled trees must call it before use.
func (f *Function) Link() {
	for _, nested := range f.Nested {
		nested.parent = f
		nested.Link()
	}
}

func (f *Function) IsFunction() bool {
	return f.Kind == KindFunction
}

// VarIndex returns the slot of the named parameter or variable, -1 if absent.
func (f *Function) VarIndex(name string) int {
	for i := len(f.Vars) - 1; i >= 0; i-- {
		if f.Vars[i].Name == name {
			return i
		}
	}
	return -1
}

// FrameArraySize is the number of slots one activation needs: variables,
// interpreter temp locals and the operand stack.
func (f *Function) FrameArraySize() int {
	return len(f.Vars) + f.MaxLocals + f.MaxStack
}

// LineAt maps a pc to its source line, 0 if unknown.
func (f *Function) LineAt(pc int) int {
	return f.Lines.LineAt(pc)
}

// DisplayName is the name used in stack traces.
func (f *Function) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	if f.Kind == KindScript {
		return "<script>"
	}
	return "<anonymous>"
}

package jsvm

import (
	"slices"

	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Frame is one activation. Frames link to their callers through parent and
// the chain of frames is the engine's call stack.
type Frame struct {
	function *Function
	code     *bytecode.Function

	// vars | temp locals | operand stack
	slots     []values.Value
	localBase int
	stackBase int
	sp        int
	pc        int

	scope  values.Scriptable
	this   values.Value
	args   []values.Value
	parent *Frame

	activation *Activation
	// varScope holds the variables when they live in an object instead of
	// slots: the activation of a function or the scope of a script.
	varScope values.Scriptable

	result values.Value
	depth  int
	line   int

	boundary         bool
	continuationRoot bool
	construct        bool
	generator        *Generator
}

// returnAddress is the pc pushed by a sub-call.
type returnAddress int

func (cx *Context) newFrame(fn *Function, scope values.Scriptable, this values.Value, args []values.Value, parent *Frame) (*Frame, error) {
	code := fn.code
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	if cx.config.MaxCallDepth > 0 && depth > cx.config.MaxCallDepth {
		return nil, values.RangeError("too much recursion")
	}

	f := &Frame{
		function:  fn,
		code:      code,
		slots:     make([]values.Value, code.FrameArraySize()),
		localBase: len(code.Vars),
		stackBase: len(code.Vars) + code.MaxLocals,
		scope:     scope,
		this:      this,
		args:      args,
		parent:    parent,
		result:    values.Undefined,
		depth:     depth,
		line:      -1,
	}
	f.sp = f.stackBase

	switch {
	case code.Kind == bytecode.KindScript:
		f.varScope = scope
	case code.NeedsActivation:
		act := newActivation(fn, scope, args, nil)
		f.activation = act
		f.varScope = act
		f.scope = act
	default:
		for i := range code.Vars {
			if i < code.ParamCount && i < len(args) {
				f.slots[i] = args[i]
			} else {
				f.slots[i] = values.Undefined
			}
		}
	}

	return f, nil
}

func (f *Frame) push(v values.Value) {
	if f.sp >= len(f.slots) {
		panic(frameOverrun{f})
	}
	f.slots[f.sp] = v
	f.sp++
}

func (f *Frame) pop() values.Value {
	if f.sp <= f.stackBase {
		panic(frameOverrun{f})
	}
	f.sp--
	v := f.slots[f.sp]
	f.slots[f.sp] = nil
	return v
}

func (f *Frame) peek() values.Value {
	if f.sp <= f.stackBase {
		panic(frameOverrun{f})
	}
	return f.slots[f.sp-1]
}

func (f *Frame) popN(n int) []values.Value {
	if f.sp-n < f.stackBase {
		panic(frameOverrun{f})
	}
	ret := make([]values.Value, n)
	copy(ret, f.slots[f.sp-n:f.sp])
	clear(f.slots[f.sp-n : f.sp])
	f.sp -= n
	return ret
}

func (f *Frame) resetStack(depth int) {
	clear(f.slots[f.stackBase+depth : f.sp])
	f.sp = f.stackBase + depth
}

func (f *Frame) local(i int) values.Value {
	return f.slots[f.localBase+i]
}

func (f *Frame) setLocal(i int, v values.Value) {
	f.slots[f.localBase+i] = v
}

func (f *Frame) getVar(i int) values.Value {
	if f.varScope != nil {
		v := f.varScope.Get(f.code.Vars[i].Name)
		if v == values.NotFound {
			return values.Undefined
		}
		return v
	}
	return f.slots[i]
}

// completion is the result of falling off the end of the code.
func (f *Frame) completion() values.Value {
	if f.code.Kind == bytecode.KindScript {
		return f.result
	}
	return values.Undefined
}

// clone copies the frame array. Enumerators are copied; other heap values
// are shared with the original.
func (f *Frame) clone() *Frame {
	c := *f
	c.slots = make([]values.Value, len(f.slots))
	for i, v := range f.slots {
		if e, ok := v.(*enumerator); ok {
			v = e.clone()
		}
		c.slots[i] = v
	}
	c.args = slices.Clone(f.args)
	return &c
}

// cloneChain clones the frames from inner outward up to and including the
// first continuation root. Activations of the cloned frames are copied too,
// and every scope reference into them is moved to the copies.
func cloneChain(inner *Frame) *Frame {
	var head, prev *Frame
	var frames []*Frame
	scopes := make(map[values.Scriptable]values.Scriptable)
	for f := inner; f != nil; f = f.parent {
		c := f.clone()
		c.parent = nil
		if f.activation != nil {
			c.activation = f.activation.clone()
			scopes[f.activation] = c.activation
		}
		frames = append(frames, c)
		if prev == nil {
			head = c
		} else {
			prev.parent = c
		}
		prev = c
		if f.continuationRoot {
			break
		}
	}
	if len(scopes) == 0 {
		return head
	}

	for _, c := range frames {
		if c.activation != nil {
			c.activation.SetParentScope(rescope(c.activation.ParentScope(), scopes))
		}
		c.scope = rescope(c.scope, scopes)
		c.varScope = rescope(c.varScope, scopes)
		for i, v := range c.slots[:c.sp] {
			if s, ok := v.(values.Scriptable); ok {
				c.slots[i] = rescope(s, scopes)
			}
		}
	}
	return head
}

// rescope maps s through scopes. With scopes whose chain reaches a mapped
// scope are rebuilt on top of the copy; other scopes are returned as is.
func rescope(s values.Scriptable, scopes map[values.Scriptable]values.Scriptable) values.Scriptable {
	if s == nil {
		return nil
	}
	if to, ok := scopes[s]; ok {
		return to
	}
	obj, ok := values.WithObject(s)
	if !ok {
		return s
	}
	parent := s.ParentScope()
	to := rescope(parent, scopes)
	if to != parent {
		to = values.NewWith(obj, to)
	} else {
		to = s
	}
	scopes[s] = to
	return to
}

// attach links the outermost frame of chain to parent and renumbers depths.
func attach(chain *Frame, parent *Frame) {
	var frames []*Frame
	for f := chain; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	root := frames[len(frames)-1]
	root.parent = parent
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	for i := len(frames) - 1; i >= 0; i-- {
		frames[i].depth = depth
		depth++
	}
}

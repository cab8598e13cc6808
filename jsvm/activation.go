package jsvm

import (
	"slices"

	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Activation is the scope object holding a call's parameters and variables
// when script code needs them by name.
type Activation struct {
	*values.Object
	function  *Function
	arguments *values.Array
}

// newActivation creates the record for a call of fn. With slots non-nil the
// current slot values move into the record; otherwise parameters are bound
// from args.
func newActivation(fn *Function, parent values.Scriptable, args []values.Value, slots []values.Value) *Activation {
	act := &Activation{
		Object:   values.NewScope("Call", parent),
		function: fn,
	}
	code := fn.code
	for i, decl := range code.Vars {
		var v values.Value = values.Undefined
		switch {
		case slots != nil:
			if slots[i] != nil {
				v = slots[i]
			}
		case i < code.ParamCount && i < len(args):
			v = args[i]
		}
		attrs := values.Permanent
		if decl.Const {
			attrs |= values.Const
			if slots != nil && v != values.Undefined {
				attrs |= values.ReadOnly
			} else {
				attrs |= values.UninitializedConst
			}
		}
		act.Define(decl.Name, v, attrs)
	}
	if !act.HasOwn("arguments") {
		act.arguments = values.NewArray(nil, slices.Clone(args)...)
		act.arguments.SetClassName("Arguments")
		act.arguments.Define("callee", fn, values.DontEnum)
		act.Define("arguments", act.arguments, values.DontEnum)
	}
	return act
}

// clone copies the record and its arguments object. The parent scope is
// left pointing at the original's parent.
func (a *Activation) clone() *Activation {
	c := &Activation{
		Object:   a.Object.Clone(),
		function: a.function,
	}
	if a.arguments != nil {
		c.arguments = a.arguments.Clone()
		if v, ok := c.GetOwn("arguments"); ok && v == values.Value(a.arguments) {
			attrs, _ := c.AttributesOf("arguments")
			c.Define("arguments", c.arguments, attrs)
		}
	}
	return c
}

func (a *Activation) Function() *Function {
	return a.function
}

// Arguments returns the arguments object, or nil when a parameter or
// variable named arguments shadows it.
func (a *Activation) Arguments() *values.Array {
	return a.arguments
}

// materializeActivation moves a frame's variables into an activation.
func (cx *Context) materializeActivation(f *Frame) *Activation {
	if f.activation != nil {
		return f.activation
	}
	act := newActivation(f.function, f.function.scope, f.args, f.slots[:f.localBase])
	f.activation = act
	f.varScope = act
	if f.scope == f.function.scope {
		f.scope = act
	}
	return act
}

func (cx *Context) arguments(f *Frame) values.Value {
	if !f.code.IsFunction() {
		return values.Undefined
	}
	act := cx.materializeActivation(f)
	v := act.Get("arguments")
	if v == values.NotFound {
		return values.Undefined
	}
	return v
}

package jsvm

import (
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Callable is implemented by every function-like value.
type Callable interface {
	values.Scriptable
	Call(cx *Context, scope values.Scriptable, this values.Value, args []values.Value) (values.Value, error)
}

type Constructor interface {
	Callable
	Construct(cx *Context, scope values.Scriptable, args []values.Value) (values.Scriptable, error)
}

type NativeFunc func(cx *Context, this values.Value, args []values.Value) (values.Value, error)

// NativeFunction adapts a Go function to the callable contract. Calls into it
// use native recursion and cannot be suspended.
type NativeFunction struct {
	*values.Object
	name string
	fn   NativeFunc
}

var _ Callable = new(NativeFunction)

func NewNativeFunction(name string, arity int, fn NativeFunc) *NativeFunction {
	obj := values.NewObject(nil)
	obj.SetClassName("Function")
	obj.Define("name", name, values.DontEnum|values.ReadOnly)
	obj.Define("length", float64(arity), values.DontEnum|values.ReadOnly|values.Permanent)
	return &NativeFunction{
		Object: obj,
		name:   name,
		fn:     fn,
	}
}

func (n *NativeFunction) Name() string {
	return n.name
}

func (n *NativeFunction) Call(cx *Context, scope values.Scriptable, this values.Value, args []values.Value) (values.Value, error) {
	ret, err := n.fn(cx, this, args)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return values.Undefined, nil
	}
	return ret, nil
}

// Arg returns args[i], or undefined when fewer arguments were passed.
func Arg(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined
}

// NewCaptureFunction returns a callable that captures a continuation when
// called from script.
func NewCaptureFunction() *NativeFunction {
	return NewNativeFunction("captureContinuation", 0, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return nil, cx.CaptureContinuation()
	})
}

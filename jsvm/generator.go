package jsvm

import (
	"errors"
	"fmt"

	"github.com/hazzik/Rhino.Net-sub003/values"
)

type GeneratorState uint8

const (
	GeneratorCreated GeneratorState = iota
	GeneratorSuspended
	GeneratorRunning
	GeneratorCompleted
	GeneratorClosed
)

func (s GeneratorState) String() string {
	switch s {
	case GeneratorCreated:
		return "created"
	case GeneratorSuspended:
		return "suspended"
	case GeneratorRunning:
		return "running"
	case GeneratorCompleted:
		return "completed"
	case GeneratorClosed:
		return "closed"
	}
	return fmt.Sprintf("GeneratorState(%d)", s)
}

// Generator owns the suspended frame of a generator function activation.
type Generator struct {
	*values.Object
	function *Function
	frame    *Frame
	state    GeneratorState
	running  bool

	faultSource string
	faultLine   int
}

var _ values.Scriptable = new(Generator)

func (cx *Context) newGenerator(fn *Function, this values.Value, args []values.Value) (*Generator, error) {
	frame, err := cx.newFrame(fn, fn.scope, cx.thisFor(fn, this), args, nil)
	if err != nil {
		return nil, err
	}
	obj := values.NewObject(nil)
	obj.SetClassName("Generator")
	g := &Generator{
		Object:   obj,
		function: fn,
		frame:    frame,
		state:    GeneratorCreated,
	}
	frame.generator = g
	g.defineMethods()
	return g, nil
}

func (g *Generator) State() GeneratorState {
	return g.state
}

func (g *Generator) Function() *Function {
	return g.function
}

// LastFault returns the position of the error that completed the generator.
func (g *Generator) LastFault() (sourceName string, line int) {
	return g.faultSource, g.faultLine
}

// Next resumes the generator with value as the result of the pending yield.
func (g *Generator) Next(cx *Context, value values.Value) (values.Value, bool, error) {
	return g.resume(cx, injectValue, value)
}

func (g *Generator) Send(cx *Context, value values.Value) (values.Value, bool, error) {
	return g.resume(cx, injectValue, value)
}

// Throw raises value at the pending yield.
func (g *Generator) Throw(cx *Context, value values.Value) (values.Value, bool, error) {
	return g.resume(cx, injectThrow, value)
}

// Close runs the pending finally blocks and closes the generator.
func (g *Generator) Close(cx *Context) error {
	_, _, err := g.resume(cx, injectClose, values.Undefined)
	return err
}

func (g *Generator) resume(cx *Context, kind injectKind, value values.Value) (values.Value, bool, error) {
	if g.running {
		return nil, false, cx.toThrowable(cx.current, values.TypeError("generator is already running"))
	}

	switch g.state {
	case GeneratorCompleted, GeneratorClosed:
		if kind == injectThrow {
			return nil, false, cx.throwValue(cx.current, value)
		}
		return values.Undefined, true, nil

	case GeneratorCreated:
		switch kind {
		case injectValue:
			if !values.IsUndefined(value) {
				return nil, false, cx.toThrowable(cx.current, values.TypeError("attempt to send value to newborn generator"))
			}
			kind = injectNone
		case injectThrow:
			g.finish(GeneratorCompleted)
			return nil, false, cx.throwValue(cx.current, value)
		case injectClose:
			g.finish(GeneratorClosed)
			return values.Undefined, true, nil
		}
	}

	exit, err := cx.enter()
	if err != nil {
		return nil, false, err
	}
	defer exit()

	frame := g.frame
	g.frame = nil
	g.running = true
	g.state = GeneratorRunning
	defer func() {
		g.running = false
	}()

	attach(frame, cx.current)
	frame.boundary = true
	if kind == injectNone {
		cx.enterFrame(frame)
	}
	v, out, err := cx.interpret(frame, injection{
		kind:  kind,
		value: value,
	})

	if err != nil {
		if kind == injectClose && errors.Is(err, errGeneratorClosed) {
			g.finish(GeneratorClosed)
			return values.Undefined, true, nil
		}
		var scriptErr *ScriptError
		if errors.As(err, &scriptErr) {
			g.faultSource = scriptErr.SourceName
			g.faultLine = scriptErr.Line
		}
		g.finish(GeneratorCompleted)
		cx.logger.DebugContext(cx.ctx, "generator faulted",
			"function", g.function.code.DisplayName(),
			"source", g.faultSource,
			"line", g.faultLine,
		)
		return nil, false, err
	}

	if out == outcomeYield {
		if kind == injectClose {
			g.finish(GeneratorClosed)
			return nil, false, cx.toThrowable(cx.current, values.TypeError("generator %s ignored close", g.function.code.DisplayName()))
		}
		g.state = GeneratorSuspended
		return v, false, nil
	}

	if kind == injectClose {
		g.finish(GeneratorClosed)
	} else {
		g.finish(GeneratorCompleted)
	}
	return v, true, nil
}

func (g *Generator) finish(state GeneratorState) {
	g.frame = nil
	g.state = state
}

// defineMethods installs next, send, throw, close and return. Each returns
// a {value, done} result object.
func (g *Generator) defineMethods() {
	result := func(v values.Value, done bool, err error) (values.Value, error) {
		if err != nil {
			return nil, err
		}
		obj := values.NewObject(nil)
		obj.Put("value", v)
		obj.Put("done", done)
		return obj, nil
	}
	define := func(name string, arity int, fn NativeFunc) {
		g.Define(name, NewNativeFunction(name, arity, fn), values.DontEnum)
	}
	define("next", 1, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return result(g.Next(cx, Arg(args, 0)))
	})
	define("send", 1, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return result(g.Send(cx, Arg(args, 0)))
	})
	define("throw", 1, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return result(g.Throw(cx, Arg(args, 0)))
	})
	define("close", 0, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return result(values.Undefined, true, g.Close(cx))
	})
	define("return", 1, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return result(Arg(args, 0), true, g.Close(cx))
	})
}

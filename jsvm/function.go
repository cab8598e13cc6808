package jsvm

import (
	"errors"

	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Function binds a container to the lexical scope it was created in.
type Function struct {
	*values.Object
	code  *bytecode.Function
	scope values.Scriptable
}

var _ Constructor = new(Function)

// NewFunction wraps a top-level container. The container and its nested
// containers are verified before first use.
func NewFunction(cx *Context, code *bytecode.Function, scope values.Scriptable) (*Function, error) {
	if err := code.Verify(); err != nil {
		cx.logger.WarnContext(cx.ctx, "verify failed",
			"function", code.DisplayName(),
			"error", err,
		)
		internal := &InternalError{
			Function: code.DisplayName(),
			Err:      err,
		}
		var verifyErr *bytecode.VerifyError
		if errors.As(err, &verifyErr) {
			internal.Function = verifyErr.Function
			internal.PC = verifyErr.PC
		}
		return nil, internal
	}
	return newClosure(code, scope), nil
}

func newClosure(code *bytecode.Function, scope values.Scriptable) *Function {
	obj := values.NewObject(nil)
	obj.SetClassName("Function")
	f := &Function{
		Object: obj,
		code:   code,
		scope:  scope,
	}
	obj.Define("name", code.Name, values.DontEnum|values.ReadOnly)
	obj.Define("length", float64(code.ParamCount), values.DontEnum|values.ReadOnly|values.Permanent)
	if code.Kind == bytecode.KindFunction && !code.Generator {
		proto := values.NewObject(nil)
		proto.Define("constructor", f, values.DontEnum)
		obj.Define("prototype", proto, values.DontEnum|values.Permanent)
	}
	return f
}

func (f *Function) Code() *bytecode.Function {
	return f.code
}

func (f *Function) Scope() values.Scriptable {
	return f.scope
}

func (f *Function) Name() string {
	return f.code.Name
}

// Call invokes the function. A script-kind function executes with scope as
// its variable object. Calling a generator function returns a new generator
// without running its body.
func (f *Function) Call(cx *Context, scope values.Scriptable, this values.Value, args []values.Value) (values.Value, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	if f.code.Kind == bytecode.KindScript {
		return f.exec(cx, scope, false)
	}
	return f.call(cx, this, args, false)
}

func (f *Function) call(cx *Context, this values.Value, args []values.Value, root bool) (values.Value, error) {
	if f.code.Generator {
		g, err := cx.newGenerator(f, this, args)
		if err != nil {
			return nil, cx.toThrowable(cx.current, err)
		}
		return g, nil
	}
	frame, err := cx.newFrame(f, f.scope, cx.thisFor(f, this), args, cx.current)
	if err != nil {
		return nil, cx.toThrowable(cx.current, err)
	}
	frame.continuationRoot = root
	cx.enterFrame(frame)
	return cx.run(frame)
}

func (f *Function) Construct(cx *Context, scope values.Scriptable, args []values.Value) (values.Scriptable, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	if !f.constructible() {
		return nil, cx.toThrowable(cx.current, values.TypeError("%s is not a constructor", f.code.DisplayName()))
	}
	frame, err := cx.newFrame(f, f.scope, f.newInstance(), args, cx.current)
	if err != nil {
		return nil, cx.toThrowable(cx.current, err)
	}
	frame.construct = true
	cx.enterFrame(frame)
	v, err := cx.run(frame)
	if err != nil {
		return nil, err
	}
	obj, _ := v.(values.Scriptable)
	return obj, nil
}

func (f *Function) constructible() bool {
	return f.code.Kind == bytecode.KindFunction && !f.code.Generator
}

func (f *Function) newInstance() *values.Object {
	proto, _ := f.Get("prototype").(values.Scriptable)
	return values.NewObject(proto)
}

// Exec runs a script-kind function: no arguments, scope as this.
func (f *Function) Exec(cx *Context, scope values.Scriptable) (values.Value, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	return f.exec(cx, scope, false)
}

type definer interface {
	Define(name string, value values.Value, attrs values.Attributes)
}

type attributeReader interface {
	AttributesOf(name string) (values.Attributes, bool)
}

type constInitializer interface {
	InitConst(name string, value values.Value) bool
}

func (f *Function) exec(cx *Context, scope values.Scriptable, root bool) (values.Value, error) {
	if f.code.Kind != bytecode.KindScript {
		return nil, cx.toThrowable(cx.current, values.TypeError("%s is not a script", f.code.DisplayName()))
	}
	declareVars(f.code, scope)
	frame, err := cx.newFrame(f, scope, scope, nil, cx.current)
	if err != nil {
		return nil, cx.toThrowable(cx.current, err)
	}
	frame.continuationRoot = root
	cx.enterFrame(frame)
	return cx.run(frame)
}

// declareVars defines the script's variables on scope, keeping existing
// properties.
func declareVars(code *bytecode.Function, scope values.Scriptable) {
	def, canDefine := scope.(definer)
	for _, decl := range code.Vars {
		if scope.Has(decl.Name) {
			continue
		}
		switch {
		case canDefine && decl.Const:
			def.Define(decl.Name, values.Undefined, values.Permanent|values.Const|values.UninitializedConst)
		case canDefine:
			def.Define(decl.Name, values.Undefined, values.Permanent)
		default:
			scope.Put(decl.Name, values.Undefined)
		}
	}
}

type GeneratorOp uint8

const (
	GeneratorSend GeneratorOp = iota
	GeneratorThrow
	GeneratorClose
)

// ResumeGenerator resumes gen with op. For GeneratorSend and GeneratorThrow,
// value is the sent or thrown value.
func (f *Function) ResumeGenerator(cx *Context, gen *Generator, op GeneratorOp, value values.Value) (values.Value, bool, error) {
	switch op {
	case GeneratorThrow:
		return gen.Throw(cx, value)
	case GeneratorClose:
		if err := gen.Close(cx); err != nil {
			return nil, false, err
		}
		return values.Undefined, true, nil
	}
	return gen.Send(cx, value)
}

package jsvm

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Context is the execution state shared by the activations of one logical
// thread. It may be used by one goroutine at a time. Native callables
// receive a view of the Context that may re-enter it while the call runs;
// the view must not be handed to other goroutines.
type Context struct {
	*contextState
	// set on the view passed to a native callable until the call returns
	inNative *atomic.Bool
}

type contextState struct {
	config Config
	logger *slog.Logger
	ctx    context.Context

	busy atomic.Bool

	current  *Frame
	topScope values.Scriptable

	observer     func(*Context) error
	debugger     Debugger
	instructions int
}

func NewContext(config Config, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cx := &Context{
		contextState: &contextState{
			config: config,
			logger: logger,
			ctx:    context.Background(),
		},
	}
	logger.Debug("new context",
		"max_call_depth", config.MaxCallDepth,
		"instruction_threshold", config.InstructionThreshold,
		"const_writes", config.ConstWrites,
	)
	return cx
}

func (cx *Context) Config() Config {
	return cx.config
}

func (cx *Context) Logger() *slog.Logger {
	return cx.logger
}

// GoContext returns the context.Context set by SetContext.
func (cx *Context) GoContext() context.Context {
	return cx.ctx
}

// SetContext sets the context.Context checked every
// Config.InstructionThreshold instructions.
func (cx *Context) SetContext(ctx context.Context) {
	cx.ctx = ctx
}

// SetObserver installs a function called every Config.InstructionThreshold
// instructions. A non-nil error aborts the running activation.
func (cx *Context) SetObserver(fn func(*Context) error) {
	cx.observer = fn
}

func (cx *Context) SetDebugger(d Debugger) {
	cx.debugger = d
}

// enter claims the context for the calling goroutine. Calls made through
// the view a running native callable received are nested entries.
func (cx *Context) enter() (func(), error) {
	if cx.busy.CompareAndSwap(false, true) {
		return func() {
			cx.busy.Store(false)
		}, nil
	}
	if cx.inNative != nil && cx.inNative.Load() {
		return func() {}, nil
	}
	return nil, ErrContextBusy
}

// nativeView returns the Context handed to a native callable and a function
// ending its permission to re-enter.
func (cx *Context) nativeView() (*Context, func()) {
	active := new(atomic.Bool)
	active.Store(true)
	view := &Context{
		contextState: cx.contextState,
		inNative:     active,
	}
	return view, func() {
		active.Store(false)
	}
}

func (cx *Context) observe() error {
	if err := cx.ctx.Err(); err != nil {
		return &Aborted{Err: err}
	}
	if cx.observer != nil {
		if err := cx.observer(cx); err != nil {
			return &Aborted{Err: err}
		}
	}
	return nil
}

func (cx *Context) callNative(fn Callable, scope values.Scriptable, this values.Value, args []values.Value) (values.Value, error) {
	view, done := cx.nativeView()
	defer done()
	return fn.Call(view, scope, this, args)
}

func (cx *Context) constructNative(fn Constructor, scope values.Scriptable, args []values.Value) (values.Value, error) {
	view, done := cx.nativeView()
	defer done()
	return fn.Construct(view, scope, args)
}

// thisFor computes the receiver of a call to fn.
func (cx *Context) thisFor(fn *Function, this values.Value) values.Value {
	if fn.code.Strict || !values.IsNullish(this) {
		return this
	}
	if cx.topScope != nil {
		return cx.topScope
	}
	return values.TopLevel(fn.scope)
}

func (cx *Context) withTopScope(scope values.Scriptable) func() {
	prev := cx.topScope
	cx.topScope = scope
	return func() {
		cx.topScope = prev
	}
}

// run executes a fresh boundary frame to completion.
func (cx *Context) run(frame *Frame) (values.Value, error) {
	frame.boundary = true
	v, _, err := cx.interpret(frame, injection{})
	return v, err
}

// ExecuteScript runs a script-kind function with scope as its variable
// object and this.
func (cx *Context) ExecuteScript(script *Function, scope values.Scriptable) (values.Value, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	defer cx.withTopScope(scope)()
	return script.exec(cx, scope, false)
}

// CallFunction calls fn as a driver.
func (cx *Context) CallFunction(fn Callable, scope values.Scriptable, this values.Value, args []values.Value) (values.Value, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	defer cx.withTopScope(scope)()
	if f, ok := fn.(*Function); ok {
		return f.call(cx, this, args, false)
	}
	v, err := cx.callNative(fn, scope, this, args)
	if err != nil {
		return nil, cx.toThrowable(cx.current, err)
	}
	return v, nil
}

// ExecuteScriptWithContinuations runs script as a continuation root. A
// continuation captured below it is returned as a *ContinuationPending error.
func (cx *Context) ExecuteScriptWithContinuations(script *Function, scope values.Scriptable) (values.Value, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	defer cx.withTopScope(scope)()
	return script.exec(cx, scope, true)
}

func (cx *Context) CallFunctionWithContinuations(fn *Function, scope values.Scriptable, this values.Value, args []values.Value) (values.Value, error) {
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	defer cx.withTopScope(scope)()
	return fn.call(cx, this, args, true)
}

// Frames returns the active frames, innermost first.
func (cx *Context) Frames() []FrameInfo {
	return framesOf(cx.current)
}

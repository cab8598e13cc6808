package jsvm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

const addScript = `
.function add
.param a b
.line 1
  getvar a
  getvar b
  add
  return
.end
.line 2
  closure add
  setname add
  pop
  getname add
  undefined
  push 2
  push 3
  call 2
  popresult
`

func TestAdd(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, addScript)
	if v != 5.0 {
		t.Fatalf("got %v", v)
	}
	if _, ok := env.global.Get("add").(*Function); !ok {
		t.Fatal("add not defined")
	}
}

func TestCallFunction(t *testing.T) {
	env := newTestEnv(t)
	env.mustExec(t, addScript)
	add := env.global.Get("add").(*Function)
	v, err := env.cx.CallFunction(add, env.global, values.Undefined, []values.Value{"a", 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if v != "a1" {
		t.Fatalf("got %v", v)
	}
	// missing arguments are undefined
	v, err = env.cx.CallFunction(add, env.global, values.Undefined, []values.Value{1.0})
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(float64); !ok || n == n {
		t.Fatalf("got %v", v)
	}
}

func TestCatch(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
start:
  string "boom"
  throw
end:
  goto after
handler:
  string "!"
  add
  popresult
after:
  retundef
.catch start end handler 0
`)
	if v != "boom!" {
		t.Fatalf("got %v", v)
	}
}

func TestUncaught(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.exec(t, `
.function inner
.line 5
  string "bad"
  throw
.end
.function outer
.line 9
  getname inner
  undefined
  call 0
  return
.end
.line 1
  closure inner
  setname inner
  pop
  closure outer
  setname outer
  pop
.line 2
  getname outer
  undefined
  call 0
  popresult
`)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("got %v", err)
	}
	if scriptErr.Value != "bad" {
		t.Fatalf("got %v", scriptErr.Value)
	}
	if scriptErr.SourceName != "test.js" || scriptErr.Line != 5 {
		t.Fatalf("got %s:%d", scriptErr.SourceName, scriptErr.Line)
	}
	var names []string
	var lines []int
	for _, elem := range scriptErr.Stack {
		names = append(names, elem.FunctionName)
		lines = append(lines, elem.Line)
	}
	if strings.Join(names, ",") != "inner,outer,<script>" {
		t.Fatalf("got %v", names)
	}
	if lines[0] != 5 || lines[1] != 9 || lines[2] != 2 {
		t.Fatalf("got %v", lines)
	}
	if !strings.Contains(scriptErr.ScriptStack(), "at outer (test.js:9)") {
		t.Fatalf("got %s", scriptErr.ScriptStack())
	}
	if env.cx.current != nil {
		t.Fatal("frames left behind")
	}
}

func TestFinallyOnThrow(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
.function f
.local ret
start:
  string "x"
  throw
end:
  gosub fin
  retundef
fin:
  startsub ret
  getname record
  undefined
  string "finally"
  call 1
  pop
  retsub ret
.finally start end fin 0
.end
  closure f
  setname f
  pop
try:
  getname f
  undefined
  call 0
  pop
tryEnd:
  goto after
catch:
  popresult
after:
  retundef
.catch try tryEnd catch 0
`)
	if v != "x" {
		t.Fatalf("got %v", v)
	}
	if strings.Join(env.log, ",") != "finally" {
		t.Fatalf("got %v", env.log)
	}
}

func TestFinallyOnNormalExit(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
.local ret
start:
  string "body"
  popresult
end:
  gosub fin
  goto after
fin:
  startsub ret
  getname record
  undefined
  string "finally"
  call 1
  pop
  retsub ret
after:
  retundef
.finally start end fin 0
`)
	if v != "body" {
		t.Fatalf("got %v", v)
	}
	if strings.Join(env.log, ",") != "finally" {
		t.Fatalf("got %v", env.log)
	}
}

func TestReferenceError(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
start:
  getname missing
  pop
end:
  goto after
catch:
  dup
  getprop name
  string ": "
  add
  swap
  getprop message
  add
  popresult
after:
  retundef
.catch start end catch 0
`)
	if v != "ReferenceError: missing is not defined" {
		t.Fatalf("got %v", v)
	}
}

func TestTypeOfName(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
  typeofname missing
  typeofname record
  add
  popresult
`)
	if v != "undefinedfunction" {
		t.Fatalf("got %v", v)
	}
}

func TestStrictAssignment(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.exec(t, `
.strict
  one
  setname undeclared
  popresult
`)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) || scriptErr.Name() != "ReferenceError" {
		t.Fatalf("got %v", err)
	}

	// sloppy code creates a global
	env.mustExec(t, `
  one
  setname created
  popresult
`)
	if env.global.Get("created") != 1.0 {
		t.Fatal()
	}
}

func TestRecursionLimit(t *testing.T) {
	env := newTestEnv(t, func() Config {
		config := DefaultConfig()
		config.MaxCallDepth = 50
		return config
	})
	_, err := env.exec(t, `
.function f
  getname f
  undefined
  call 0
  return
.end
  closure f
  setname f
  pop
  getname f
  undefined
  call 0
  popresult
`)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("got %v", err)
	}
	if scriptErr.Name() != "RangeError" || scriptErr.Message() != "too much recursion" {
		t.Fatalf("got %v", err)
	}
	if len(scriptErr.Stack) != 50 {
		t.Fatalf("got %d", len(scriptErr.Stack))
	}
}

const constScript = `
.function f
.const c
  one
  setconstvar c
  pop
  push 2
  setvar c
  pop
  getvar c
  return
.end
  closure f
  setname f
  pop
  getname f
  undefined
  call 0
  popresult
`

func TestConstWrites(t *testing.T) {
	for _, activation := range []bool{false, true} {
		script := constScript
		if activation {
			script = strings.Replace(script, ".const c", ".const c\n.activation", 1)
		}

		env := newTestEnv(t)
		if v := env.mustExec(t, script); v != 1.0 {
			t.Fatalf("activation %v: got %v", activation, v)
		}

		env = newTestEnv(t, func() Config {
			config := DefaultConfig()
			config.ConstWrites = ConstWritesError
			return config
		})
		_, err := env.exec(t, script)
		var scriptErr *ScriptError
		if !errors.As(err, &scriptErr) || scriptErr.Name() != "TypeError" {
			t.Fatalf("activation %v: got %v", activation, err)
		}
	}
}

const strictConstScript = `
.function f
.strict
.activation
.const c
  one
  setconstvar c
  pop
  push 2
  setname c
  pop
  getname c
  return
.end
  closure f
  setname f
  pop
  getname f
  undefined
  call 0
  popresult
`

func TestStrictConstNameWrites(t *testing.T) {
	// named writes follow the same policy as slot writes
	env := newTestEnv(t)
	if v := env.mustExec(t, strictConstScript); v != 1.0 {
		t.Fatalf("got %v", v)
	}

	env = newTestEnv(t, func() Config {
		config := DefaultConfig()
		config.ConstWrites = ConstWritesError
		return config
	})
	_, err := env.exec(t, strictConstScript)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) || scriptErr.Name() != "TypeError" {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(scriptErr.Message(), "assignment to const c") {
		t.Fatalf("got %v", scriptErr.Message())
	}

	// ordinary read-only properties still throw in strict code
	env = newTestEnv(t)
	env.global.Define("fixed", 1.0, values.ReadOnly)
	_, err = env.exec(t, `
.strict
  push 2
  setname fixed
  popresult
`)
	if !errors.As(err, &scriptErr) || scriptErr.Name() != "TypeError" {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(scriptErr.Message(), "fixed is read-only") {
		t.Fatalf("got %v", scriptErr.Message())
	}
}

func TestScriptConst(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
.const c
  push 7
  setconstvar c
  pop
  push 8
  setname c
  pop
  getname c
  popresult
`)
	if v != 7.0 {
		t.Fatalf("got %v", v)
	}
	attrs, _ := env.global.AttributesOf("c")
	if attrs&values.ReadOnly == 0 || attrs&values.UninitializedConst != 0 {
		t.Fatalf("got %v", attrs)
	}
}

func TestConstruct(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
.function Point
.param x
  this
  getvar x
  setprop x
  pop
  retundef
.end
  closure Point
  setname Point
  pop
  getname Point
  push 3
  new 1
  dup
  getprop x
  setname px
  pop
  getname Point
  instanceof
  popresult
`)
	if v != true {
		t.Fatalf("got %v", v)
	}
	if env.global.Get("px") != 3.0 {
		t.Fatalf("got %v", env.global.Get("px"))
	}

	point := env.global.Get("Point").(*Function)
	obj, err := point.Construct(env.cx, env.global, []values.Value{4.0})
	if err != nil {
		t.Fatal(err)
	}
	if obj.Get("x") != 4.0 {
		t.Fatal()
	}
}

func TestNotAFunction(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.exec(t, `
  push 1
  undefined
  call 0
  popresult
`)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) || scriptErr.Name() != "TypeError" {
		t.Fatalf("got %v", err)
	}
}

func TestWith(t *testing.T) {
	env := newTestEnv(t)
	obj := values.NewObject(nil)
	obj.Put("x", 7.0)
	env.global.Put("obj", obj)
	env.global.Put("x", 1.0)
	v := env.mustExec(t, `
  getname obj
  enterwith
  getname x
  push 10
  mul
  setname x
  popresult
  leavewith
`)
	if v != 70.0 {
		t.Fatalf("got %v", v)
	}
	if obj.Get("x") != 70.0 || env.global.Get("x") != 1.0 {
		t.Fatal("with scope did not bind to the object")
	}
}

func TestWithRestoredByHandler(t *testing.T) {
	env := newTestEnv(t)
	env.global.Put("obj", values.NewObject(nil))
	env.global.Put("x", "global")
	v := env.mustExec(t, `
.local scope
  scopesave scope
start:
  getname obj
  enterwith
  string "inside"
  throw
end:
  goto after
catch:
  pop
  getname x
  popresult
after:
  retundef
.catch start end catch 0 scope
`)
	if v != "global" {
		t.Fatalf("got %v", v)
	}
}

func TestForIn(t *testing.T) {
	env := newTestEnv(t)
	proto := values.NewObject(nil)
	proto.Put("c", 3.0)
	obj := values.NewObject(proto)
	obj.Put("a", 1.0)
	obj.Put("b", 2.0)
	env.global.Put("obj", obj)
	v := env.mustExec(t, `
.var keys
.local e
  string ""
  setvar keys
  pop
  getname obj
  enuminit e
loop:
  enumnext e
  iffalse done
  getvar keys
  enumid e
  add
  setvar keys
  pop
  goto loop
done:
  getvar keys
  popresult
`)
	if v != "abc" {
		t.Fatalf("got %v", v)
	}
}

func TestArguments(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
.function f
.param a
  arguments
  getprop length
  arguments
  push 2
  getelem
  add
  getvar a
  add
  return
.end
  closure f
  setname f
  pop
  getname f
  undefined
  push 1
  push 10
  push 100
  call 3
  popresult
`)
	// 3 + 100 + 1
	if v != 104.0 {
		t.Fatalf("got %v", v)
	}
}

func TestActivationVars(t *testing.T) {
	env := newTestEnv(t)
	v := env.mustExec(t, `
.function f
.param a
.var b
.activation
  getvar a
  one
  add
  setvar b
  pop
  getname b
  return
.end
  closure f
  setname f
  pop
  getname f
  undefined
  push 41
  call 1
  popresult
`)
	if v != 42.0 {
		t.Fatalf("got %v", v)
	}
}

func TestThisBinding(t *testing.T) {
	env := newTestEnv(t)
	env.mustExec(t, `
.function sloppy
  this
  return
.end
.function strict
.strict
  this
  return
.end
  closure sloppy
  setname sloppy
  pop
  closure strict
  setname strict
  pop
`)
	sloppy := env.global.Get("sloppy").(*Function)
	strict := env.global.Get("strict").(*Function)
	v, err := env.cx.CallFunction(sloppy, env.global, values.Undefined, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != env.global {
		t.Fatalf("got %v", v)
	}
	v, err = env.cx.CallFunction(strict, env.global, values.Undefined, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != values.Undefined {
		t.Fatalf("got %v", v)
	}
}

func TestHostFault(t *testing.T) {
	diskFull := errors.New("disk full")
	env := newTestEnv(t)
	env.define("write", 0, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return nil, diskFull
	})

	_, err := env.exec(t, `
.line 3
  getname write
  undefined
  call 0
  popresult
`)
	if !errors.Is(err, diskFull) {
		t.Fatalf("got %v", err)
	}
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) || scriptErr.Line != 3 || scriptErr.Message() != "disk full" {
		t.Fatalf("got %v", err)
	}

	// catchable by script
	v := env.mustExec(t, `
start:
  getname write
  undefined
  call 0
  pop
end:
  goto after
catch:
  getprop message
  popresult
after:
  retundef
.catch start end catch 0
`)
	if v != "disk full" {
		t.Fatalf("got %v", v)
	}
}

func TestNativeCallsBack(t *testing.T) {
	env := newTestEnv(t)
	env.define("apply", 2, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		fn, ok := Arg(args, 0).(Callable)
		if !ok {
			return nil, values.TypeError("not callable")
		}
		return fn.Call(cx, env.global, values.Undefined, []values.Value{Arg(args, 1)})
	})
	v := env.mustExec(t, `
.function double
.param x
  getvar x
  push 2
  mul
  return
.end
  getname apply
  undefined
  closure double
  push 21
  call 2
  popresult
`)
	if v != 42.0 {
		t.Fatalf("got %v", v)
	}
}

func TestNewFunctionRejectsOverflow(t *testing.T) {
	cx := newTestContext(t)
	code := &bytecode.Function{
		Kind: bytecode.KindScript,
		Code: []byte{
			byte(bytecode.OpTrue),
			byte(bytecode.OpTrue),
			byte(bytecode.OpStrictEq),
			byte(bytecode.OpReturn),
		},
		MaxStack: 1,
	}
	_, err := NewFunction(cx, code, values.NewTopLevel())
	if !errors.Is(err, bytecode.ErrStackOverflow) {
		t.Fatalf("got %v", err)
	}
	var internal *InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("got %T", err)
	}
}

func TestObserverAbort(t *testing.T) {
	errStop := errors.New("stop")
	env := newTestEnv(t, func() Config {
		config := DefaultConfig()
		config.InstructionThreshold = 10
		return config
	})
	calls := 0
	env.cx.SetObserver(func(*Context) error {
		calls++
		if calls == 5 {
			return errStop
		}
		return nil
	})
	_, err := env.exec(t, `
loop:
  goto loop
  retundef
`)
	var aborted *Aborted
	if !errors.As(err, &aborted) || !errors.Is(err, errStop) {
		t.Fatalf("got %v", err)
	}
	if calls != 5 {
		t.Fatalf("got %d", calls)
	}
}

func TestAbortNotCatchable(t *testing.T) {
	env := newTestEnv(t, func() Config {
		config := DefaultConfig()
		config.InstructionThreshold = 1
		return config
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env.cx.SetContext(ctx)
	_, err := env.exec(t, `
start:
  goto start
end:
  retundef
catch:
  popresult
  retundef
.catch start end catch 0
`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}

func TestContextBusy(t *testing.T) {
	env := newTestEnv(t, func() Config {
		config := DefaultConfig()
		config.InstructionThreshold = 1
		return config
	})
	fn := env.compile(t, `
  one
  popresult
`)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	env.cx.SetObserver(func(*Context) error {
		once.Do(func() {
			close(entered)
			<-release
		})
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := env.cx.ExecuteScript(fn, env.global)
		done <- err
	}()
	<-entered
	if _, err := env.cx.ExecuteScript(fn, env.global); !errors.Is(err, ErrContextBusy) {
		t.Fatalf("got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// free again
	if _, err := env.cx.ExecuteScript(fn, env.global); err != nil {
		t.Fatal(err)
	}
}

func TestContextBusyDuringNative(t *testing.T) {
	env := newTestEnv(t)
	fn := env.compile(t, `
  one
  popresult
`)

	entered := make(chan struct{})
	release := make(chan struct{})
	var nested error
	env.define("block", 0, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		close(entered)
		<-release
		// the native's own context may re-enter
		_, nested = cx.ExecuteScript(fn, env.global)
		return nil, nil
	})

	caller := env.compile(t, `
  getname block
  undefined
  call 0
  popresult
`)
	done := make(chan error, 1)
	go func() {
		_, err := env.cx.ExecuteScript(caller, env.global)
		done <- err
	}()
	<-entered
	if _, err := env.cx.ExecuteScript(fn, env.global); !errors.Is(err, ErrContextBusy) {
		t.Fatalf("got %v", err)
	}
	if _, err := env.cx.CallFunction(fn, env.global, values.Undefined, nil); !errors.Is(err, ErrContextBusy) {
		t.Fatalf("got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if nested != nil {
		t.Fatal(nested)
	}
}

type recordingDebugger struct {
	enters     []string
	exits      []string
	lines      []int
	statements []FrameInfo
	vars       []values.Value
}

var _ Debugger = new(recordingDebugger)

func (d *recordingDebugger) EnterFrame(cx *Context, frame FrameInfo) {
	d.enters = append(d.enters, frame.FunctionName())
}

func (d *recordingDebugger) ExitFrame(cx *Context, frame FrameInfo, result values.Value, err error) {
	d.exits = append(d.exits, frame.FunctionName())
}

func (d *recordingDebugger) LineChange(cx *Context, frame FrameInfo, line int) {
	d.lines = append(d.lines, line)
}

func (d *recordingDebugger) DebuggerStatement(cx *Context, frame FrameInfo) {
	d.statements = append(d.statements, frame)
	v, _ := frame.Var("x")
	d.vars = append(d.vars, v)
}

func TestDebugger(t *testing.T) {
	env := newTestEnv(t)
	d := new(recordingDebugger)
	env.cx.SetDebugger(d)
	env.mustExec(t, `
.function f
.param x
.line 10
  debugger
.line 11
  retundef
.end
.line 1
  closure f
  setname f
  pop
.line 2
  getname f
  undefined
  push 5
  call 1
  pop
`)
	if strings.Join(d.enters, ",") != "<script>,f" {
		t.Fatalf("got %v", d.enters)
	}
	if strings.Join(d.exits, ",") != "f,<script>" {
		t.Fatalf("got %v", d.exits)
	}
	if len(d.statements) != 1 || d.vars[0] != 5.0 {
		t.Fatalf("got %v", d.vars)
	}
	if d.statements[0].Depth() != 2 || d.statements[0].Line() != 10 {
		t.Fatalf("got depth %d line %d", d.statements[0].Depth(), d.statements[0].Line())
	}
	want := []int{1, 2, 10, 11}
	if len(d.lines) != len(want) {
		t.Fatalf("got %v", d.lines)
	}
	for i, line := range want {
		if d.lines[i] != line {
			t.Fatalf("got %v", d.lines)
		}
	}
}

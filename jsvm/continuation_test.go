package jsvm

import (
	"errors"
	"strings"
	"testing"

	"github.com/hazzik/Rhino.Net-sub003/values"
)

const captureScript = `
.function f
.var v
.line 3
  getname before
  undefined
  call 0
  pop
.line 4
  getname capture
  undefined
  call 0
  setvar v
  pop
.line 5
  getname after
  undefined
  getvar v
  call 1
  pop
  getvar v
  push 2
  mul
  return
.end
.line 1
  closure f
  setname f
  pop
.line 2
  getname f
  undefined
  call 0
  popresult
`

type captureEnv struct {
	*testEnv
	before int
	after  []values.Value
}

func newCaptureEnv(t *testing.T) *captureEnv {
	env := &captureEnv{
		testEnv: newTestEnv(t),
	}
	env.global.Put("capture", NewCaptureFunction())
	env.define("before", 0, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		env.before++
		return nil, nil
	})
	env.define("after", 1, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		v := Arg(args, 0)
		if v == 0.0 {
			return nil, errors.New("zero")
		}
		env.after = append(env.after, v)
		return nil, nil
	})
	return env
}

func (e *captureEnv) capture(t *testing.T) *ContinuationPending {
	t.Helper()
	_, err := e.cx.ExecuteScriptWithContinuations(e.compile(t, captureScript), e.global)
	var pending *ContinuationPending
	if !errors.As(err, &pending) {
		t.Fatalf("got %v", err)
	}
	return pending
}

func TestContinuationResumeTwice(t *testing.T) {
	env := newCaptureEnv(t)
	pending := env.capture(t)
	if env.before != 1 || len(env.after) != 0 {
		t.Fatalf("got %d %v", env.before, env.after)
	}
	k := pending.Continuation()

	v, err := env.cx.ResumeContinuation(k, env.global, 10.0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 20.0 {
		t.Fatalf("got %v", v)
	}

	v, err = env.cx.ResumeContinuation(k, env.global, 21.0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42.0 {
		t.Fatalf("got %v", v)
	}

	if env.before != 1 {
		t.Fatalf("code before the capture ran again: %d", env.before)
	}
	if len(env.after) != 2 || env.after[0] != 10.0 || env.after[1] != 21.0 {
		t.Fatalf("got %v", env.after)
	}
}

const counterScript = `
.function f
.var n
  zero
  setvar n
  pop
  arguments
  pop
  getname capture
  undefined
  call 0
  pop
  getvar n
  one
  add
  setvar n
  pop
  getvar n
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

func TestContinuationResumeTwiceActivation(t *testing.T) {
	for _, directive := range []string{"", ".activation\n"} {
		env := newCaptureEnv(t)
		script := strings.Replace(counterScript, ".var n\n", ".var n\n"+directive, 1)
		_, err := env.cx.ExecuteScriptWithContinuations(env.compile(t, script), env.global)
		var pending *ContinuationPending
		if !errors.As(err, &pending) {
			t.Fatalf("got %v", err)
		}
		k := pending.Continuation()

		for i := 0; i < 2; i++ {
			v, err := env.cx.ResumeContinuation(k, env.global, values.Undefined)
			if err != nil {
				t.Fatal(err)
			}
			if v != 1.0 {
				t.Fatalf("%q resume %d: got %v", directive, i, v)
			}
		}
	}
}

func TestContinuationFrames(t *testing.T) {
	env := newCaptureEnv(t)
	k := env.capture(t).Continuation()
	frames := k.Frames()
	if len(frames) != 2 {
		t.Fatalf("got %d", len(frames))
	}
	if frames[0].FunctionName() != "f" || frames[0].Line() != 4 {
		t.Fatalf("got %s:%d", frames[0].FunctionName(), frames[0].Line())
	}
	if frames[1].FunctionName() != "<script>" || frames[1].Line() != 2 {
		t.Fatalf("got %s:%d", frames[1].FunctionName(), frames[1].Line())
	}
	if k.Function().Code().IsFunction() {
		t.Fatal("root should be the script")
	}
}

func TestContinuationApplicationState(t *testing.T) {
	env := newCaptureEnv(t)
	pending := env.capture(t)
	if pending.ApplicationState() != nil {
		t.Fatal()
	}
	pending.SetApplicationState("saved")
	if pending.ApplicationState() != "saved" {
		t.Fatal()
	}
	if pending.Error() != "continuation pending" {
		t.Fatal()
	}
}

func TestContinuationFaultKeepsToken(t *testing.T) {
	env := newCaptureEnv(t)
	k := env.capture(t).Continuation()

	_, err := env.cx.ResumeContinuation(k, env.global, 0.0)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) || scriptErr.Message() != "zero" || scriptErr.Line != 5 {
		t.Fatalf("got %v", err)
	}

	v, err := env.cx.ResumeContinuation(k, env.global, 5.0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 10.0 {
		t.Fatalf("got %v", v)
	}
}

func TestContinuationCaptureAgain(t *testing.T) {
	env := newCaptureEnv(t)
	k := env.capture(t).Continuation()

	// the resumed chain keeps its root, so it can be captured again
	env.global.Put("after", NewCaptureFunction())
	_, err := env.cx.ResumeContinuation(k, env.global, 3.0)
	var pending *ContinuationPending
	if !errors.As(err, &pending) {
		t.Fatalf("got %v", err)
	}
	v, err := env.cx.ResumeContinuation(pending.Continuation(), env.global, values.Undefined)
	if err != nil {
		t.Fatal(err)
	}
	if v != 6.0 {
		t.Fatalf("got %v", v)
	}
}

func TestCallFunctionWithContinuations(t *testing.T) {
	env := newCaptureEnv(t)
	env.mustExec(t, `
.function g
.param x
  getname capture
  undefined
  call 0
  getvar x
  add
  return
.end
  closure g
  setname g
  pop
`)
	g := env.global.Get("g").(*Function)
	_, err := env.cx.CallFunctionWithContinuations(g, env.global, values.Undefined, []values.Value{1.0})
	var pending *ContinuationPending
	if !errors.As(err, &pending) {
		t.Fatalf("got %v", err)
	}
	if pending.Continuation().Function() != g {
		t.Fatal("wrong root function")
	}
	v, err := env.cx.ResumeContinuation(pending.Continuation(), env.global, 41.0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42.0 {
		t.Fatalf("got %v", v)
	}
}

func TestCaptureOutsideRoot(t *testing.T) {
	env := newCaptureEnv(t)
	_, err := env.exec(t, captureScript)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(scriptErr.Message(), "cannot capture continuation") {
		t.Fatalf("got %v", scriptErr.Message())
	}
}

func TestCaptureAcrossNative(t *testing.T) {
	env := newCaptureEnv(t)
	env.define("apply", 1, func(cx *Context, this values.Value, args []values.Value) (values.Value, error) {
		return Arg(args, 0).(Callable).Call(cx, env.global, values.Undefined, nil)
	})
	_, err := env.cx.ExecuteScriptWithContinuations(env.compile(t, `
.function inner
  getname capture
  undefined
  call 0
  return
.end
  getname apply
  undefined
  closure inner
  call 1
  popresult
`), env.global)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("got %v", err)
	}
	var pending *ContinuationPending
	if errors.As(err, &pending) {
		t.Fatal("captured across a native frame")
	}
}

func TestCaptureInHandler(t *testing.T) {
	// a pending continuation is not a script error and skips catch handlers
	env := newCaptureEnv(t)
	_, err := env.cx.ExecuteScriptWithContinuations(env.compile(t, `
start:
  getname capture
  undefined
  call 0
  popresult
end:
  goto after
catch:
  pop
  string "caught"
  popresult
after:
  retundef
.catch start end catch 0
`), env.global)
	var pending *ContinuationPending
	if !errors.As(err, &pending) {
		t.Fatalf("got %v", err)
	}
	v, err := env.cx.ResumeContinuation(pending.Continuation(), env.global, "resumed")
	if err != nil {
		t.Fatal(err)
	}
	if v != "resumed" {
		t.Fatalf("got %v", v)
	}
}

func TestResumeInvalid(t *testing.T) {
	cx := newTestContext(t)
	if _, err := cx.ResumeContinuation(nil, values.NewTopLevel(), values.Undefined); err == nil {
		t.Fatal("should error")
	}
	if err := cx.CaptureContinuation(); err == nil {
		t.Fatal("should error")
	}
}

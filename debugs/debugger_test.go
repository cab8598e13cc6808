package debugs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hazzik/Rhino.Net-sub003/asm"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/hazzik/Rhino.Net-sub003/modes"
	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/reusee/dscope"
)

const probeScript = `
.function f
.param x
.var label
.line 3
  string "point"
  setvar label
  pop
  getvar x
  debugger
  pop
  retundef
.end
  closure f
  setname f
  pop
  getname f
  undefined
  push 5
  call 1
  pop
`

func runProbe(t *testing.T, probe string) string {
	buf := new(bytes.Buffer)
	dscope.New(
		new(Module),
		modes.ForTest(t),
	).Fork(
		func() logs.Writer {
			return buf
		},
	).Call(func(
		debugger *Debugger,
	) {
		code, err := asm.Assemble("probe.js", probeScript)
		if err != nil {
			t.Fatal(err)
		}
		cx := jsvm.NewContext(jsvm.DefaultConfig(), nil)
		cx.SetDebugger(debugger.WithProbe(probe))
		global := values.NewTopLevel()
		fn, err := jsvm.NewFunction(cx, code, global)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := cx.ExecuteScript(fn, global); err != nil {
			t.Fatal(err)
		}
	})
	return buf.String()
}

func TestProbe(t *testing.T) {
	out := runProbe(t, `
print("x=%d label=%s" % (vars["x"], vars["label"]))
print("top=%d depth=%d" % (stack[-1], depth))
print("caller=" + frames[1]["function"])
`)
	for _, want := range []string{"x=5 label=point", "top=5 depth=2", "caller=<script>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestProbeFailure(t *testing.T) {
	out := runProbe(t, `fail(`)
	if !strings.Contains(out, "probe failed") {
		t.Fatalf("got %s", out)
	}
}

func TestFrameGlobals(t *testing.T) {
	obj := values.NewObject(nil)
	obj.Put("n", 1.5)
	obj.Put("list", values.NewArray(nil, 1.0, "a", values.Undefined))
	got := scriptToGo(obj, 0).(map[string]any)
	if got["n"] != 1.5 {
		t.Fatalf("got %v", got)
	}
	list := got["list"].([]any)
	if list[0] != int64(1) || list[1] != "a" || list[2] != nil {
		t.Fatalf("got %v", list)
	}

	nested := values.NewObject(nil)
	nested.Put("inner", values.NewObject(nil))
	outer := values.NewObject(nil)
	outer.Put("nested", nested)
	got = scriptToGo(outer, 0).(map[string]any)
	if got["nested"].(map[string]any)["inner"] != "[object Object]" {
		t.Fatalf("got %v", got)
	}
}

package engineconfigs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/reusee/dscope"
)

func newScope(t *testing.T, files map[string]string) dscope.Scope {
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
	return Fork(dscope.New(
		new(jsvm.Module),
		new(Module),
	))
}

func TestDefaults(t *testing.T) {
	scope := newScope(t, nil)
	config := dscope.Get[jsvm.Config](scope)
	if config != jsvm.DefaultConfig() {
		t.Fatalf("got %+v", config)
	}
}

func TestConfigFile(t *testing.T) {
	scope := newScope(t, map[string]string{
		"jsvm.cue": `
max_call_depth: 100
instruction_threshold: 5000
const_writes: "error"
`,
	})
	scope.Call(func(
		config jsvm.Config,
		cx *jsvm.Context,
	) {
		if config.MaxCallDepth != 100 ||
			config.InstructionThreshold != 5000 ||
			config.ConstWrites != jsvm.ConstWritesError {
			t.Fatalf("got %+v", config)
		}
		if cx.Config() != config {
			t.Fatalf("got %+v", cx.Config())
		}
	})
}

func TestConfigFileRejected(t *testing.T) {
	scope := newScope(t, map[string]string{
		"jsvm.cue": `const_writes: "sometimes"`,
	})
	func() {
		defer func() {
			if p := recover(); p == nil {
				t.Fatal("should panic")
			}
		}()
		dscope.Get[ConstWrites](scope)
	}()
}

func TestScriptFork(t *testing.T) {
	scope := newScope(t, map[string]string{
		"jsvm.cue": `max_call_depth: 100`,
		"jsvm.asm": `
  push 64
  setname maxCallDepth
  pop
  string "error"
  setname constWrites
  pop
`,
	})
	scope, err := ScriptFork(scope)
	if err != nil {
		t.Fatal(err)
	}
	config := dscope.Get[jsvm.Config](scope)
	if config.MaxCallDepth != 64 || config.ConstWrites != jsvm.ConstWritesError {
		t.Fatalf("got %+v", config)
	}
}

func TestScriptForkError(t *testing.T) {
	scope := newScope(t, map[string]string{
		"jsvm.asm": `
  string "boom"
  throw
`,
	})
	if _, err := ScriptFork(scope); err == nil {
		t.Fatal("should error")
	}
}

func TestPreload(t *testing.T) {
	scope := newScope(t, map[string]string{
		"jsvm.cue": `preload: ["a.asm", "b.asm"]`,
		"a.asm": `
  push 20
  setname x
  pop
`,
		"b.asm": `
  getname x
  push 1
  add
  setname x
  pop
`,
	})
	preload := dscope.Get[Preload](scope)
	if len(preload) != 2 || preload[0] != "a.asm" {
		t.Fatalf("got %v", preload)
	}
	cx := jsvm.NewContext(jsvm.DefaultConfig(), nil)
	global := values.NewTopLevel()
	if err := preload.Run(cx, global); err != nil {
		t.Fatal(err)
	}
	if global.Get("x") != 21.0 {
		t.Fatalf("got %v", global.Get("x"))
	}

	if err := (Preload{"missing.asm"}).Run(cx, global); err == nil {
		t.Fatal("should error")
	}
}

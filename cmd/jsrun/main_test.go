package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazzik/Rhino.Net-sub003/asm"
	"github.com/hazzik/Rhino.Net-sub003/engineconfigs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/hazzik/Rhino.Net-sub003/modes"
	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/reusee/dscope"
)

const doubleScript = `
  getname captureContinuation
  undefined
  call 0
  push 2
  mul
  getname captureContinuation
  undefined
  call 0
  add
  popresult
`

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProgram(t *testing.T) {
	path := writeFile(t, "main.asm", doubleScript)
	program, err := loadProgram(path)
	if err != nil {
		t.Fatal(err)
	}

	encoded := filepath.Join(t.TempDir(), "main.jsbc")
	if err := encodeProgram(encoded, program.Main); err != nil {
		t.Fatal(err)
	}
	decoded, err := loadProgram(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Main.Code) != len(program.Main.Code) {
		t.Fatalf("got %d", len(decoded.Main.Code))
	}

	path = writeFile(t, "main.cue", `
source: "main.js"
code: """
	getname x
	popresult
	"""
globals: x: 3
`)
	program, err = loadProgram(path)
	if err != nil {
		t.Fatal(err)
	}
	if program.Globals["x"] != 3.0 || program.Main.SourceName != "main.js" {
		t.Fatalf("got %v %s", program.Globals, program.Main.SourceName)
	}

	if _, err := loadProgram(filepath.Join(t.TempDir(), "missing.asm")); err == nil {
		t.Fatal("should error")
	}
}

func TestParseResumeValue(t *testing.T) {
	for s, want := range map[string]values.Value{
		"true":      true,
		"null":      values.Null,
		"undefined": values.Undefined,
		"1.5":       1.5,
		"foo":       "foo",
	} {
		if got := parseResumeValue(s); got != want {
			t.Fatalf("%s: got %v", s, got)
		}
	}
}

func TestResumeAll(t *testing.T) {
	dscope.New(
		new(Module),
		modes.ForTest(t),
	).Call(func(
		logger logs.Logger,
		cx *jsvm.Context,
	) {
		code, err := asm.Assemble("main.js", doubleScript)
		if err != nil {
			t.Fatal(err)
		}
		global := values.NewTopLevel()
		installNatives(global)
		fn, err := jsvm.NewFunction(cx, code, global)
		if err != nil {
			t.Fatal(err)
		}

		*resumeFlags = []string{"20", "2"}
		defer func() {
			*resumeFlags = nil
		}()
		result, err := cx.ExecuteScriptWithContinuations(fn, global)
		result, err = resumeAll(t.Context(), logger, cx, global, result, err)
		if err != nil {
			t.Fatal(err)
		}
		if result != 42.0 {
			t.Fatalf("got %v", result)
		}

		*resumeFlags = []string{"1"}
		result, err = cx.ExecuteScriptWithContinuations(fn, global)
		_, err = resumeAll(t.Context(), logger, cx, global, result, err)
		if err == nil || !strings.Contains(err.Error(), "no value to resume") {
			t.Fatalf("got %v", err)
		}
	})
}

func TestRunFile(t *testing.T) {
	path := writeFile(t, "main.cue", `
code: """
	getname x
	getname factor
	mul
	popresult
	"""
globals: x: 21
`)
	prelude := writeFile(t, "prelude.asm", `
  push 2
  setname factor
  pop
`)
	dscope.New(
		new(Module),
		modes.ForTest(t),
	).Call(func(
		logger logs.Logger,
		cx *jsvm.Context,
	) {
		result, err := runFile(t.Context(), logger, cx, engineconfigs.Preload{prelude}, path)
		if err != nil {
			t.Fatal(err)
		}
		if result != 42.0 {
			t.Fatalf("got %v", result)
		}
	})
}

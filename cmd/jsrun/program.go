package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hazzik/Rhino.Net-sub003/asm"
	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// loadProgram picks the loader by extension: .cue programs carry globals,
// .jsbc files are encoded containers, anything else is assembly text.
func loadProgram(path string) (*asm.Program, error) {
	switch filepath.Ext(path) {

	case ".cue":
		return asm.LoadCUE(path)

	case ".jsbc":
		f, err := os.Open(path)
		if err != nil {
			return nil, wrap(err)
		}
		defer f.Close()
		main, err := bytecode.Decode(f)
		if err != nil {
			return nil, wrap(err)
		}
		return &asm.Program{
			Main: main,
		}, nil

	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap(err)
	}
	main, err := asm.Assemble(path, string(content))
	if err != nil {
		return nil, err
	}
	return &asm.Program{
		Main: main,
	}, nil
}

func encodeProgram(path string, fn *bytecode.Function) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return wrap(err)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = wrap(e)
		}
	}()
	if err := bytecode.Encode(f, fn); err != nil {
		return wrap(err)
	}
	return nil
}

func parseResumeValue(s string) values.Value {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return values.Null
	case "undefined":
		return values.Undefined
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func installNatives(global values.Scriptable) {
	global.Put("print", jsvm.NewNativeFunction("print", 1, func(cx *jsvm.Context, this values.Value, args []values.Value) (values.Value, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = values.ToString(arg)
		}
		fmt.Println(strings.Join(parts, " "))
		return values.Undefined, nil
	}))
	global.Put("captureContinuation", jsvm.NewCaptureFunction())
}

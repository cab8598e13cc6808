package asm

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

const programSchema = `
source?: string
code: string
globals?: [string]: number | string | bool | null
`

// Program is an assembled script with the globals it expects.
type Program struct {
	Main    *bytecode.Function
	Globals map[string]values.Value
}

// LoadCUE reads a program file:
//
//	source: "main.js"
//	code: """
//		push 1
//		popresult
//		"""
//	globals: {x: 1}
func LoadCUE(path string) (*Program, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap(err)
	}
	return ParseCUE(path, content)
}

func ParseCUE(filename string, content []byte) (*Program, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + programSchema + "})")
	if err := schema.Err(); err != nil {
		return nil, wrap(err)
	}
	value := ctx.CompileBytes(content, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, wrap(err)
	}
	value = schema.Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, wrap(err)
	}

	var def struct {
		Source  string         `json:"source"`
		Code    string         `json:"code"`
		Globals map[string]any `json:"globals"`
	}
	if err := value.Decode(&def); err != nil {
		return nil, wrap(err)
	}
	if def.Source == "" {
		def.Source = filepath.Base(filename)
	}

	main, err := Assemble(def.Source, def.Code)
	if err != nil {
		return nil, err
	}
	program := &Program{
		Main:    main,
		Globals: make(map[string]values.Value, len(def.Globals)),
	}
	for name, v := range def.Globals {
		converted, err := toValue(v)
		if err != nil {
			return nil, wrap(fmt.Errorf("global %s: %w", name, err))
		}
		program.Globals[name] = converted
	}
	return program, nil
}

// Install defines the program's globals on scope.
func (p *Program) Install(scope values.Scriptable) {
	for name, v := range p.Globals {
		scope.Put(name, v)
	}
}

func toValue(v any) (values.Value, error) {
	switch v := v.(type) {
	case nil:
		return values.Null, nil
	case bool, string, float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

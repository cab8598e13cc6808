package engineconfigs

import (
	"os"

	"github.com/hazzik/Rhino.Net-sub003/asm"
	"github.com/hazzik/Rhino.Net-sub003/cmds"
	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Preload lists assembly files to run on a global object before the
// program. Lists from every config file are joined, system wide ones first,
// then the -preload flags.
type Preload []string

var preloadFlags = cmds.Collect[string]("-preload", "assembly file to run before the program")

func (Module) Preload(
	loader configs.Loader,
) Preload {
	var layers [][]string
	for paths, err := range configs.All[[]string](loader, "preload") {
		if err != nil {
			panic(wrap(err))
		}
		layers = append(layers, paths)
	}
	var ret Preload
	for i := len(layers) - 1; i >= 0; i-- {
		ret = append(ret, layers[i]...)
	}
	ret = append(ret, *preloadFlags...)
	return ret
}

func (p Preload) Run(cx *jsvm.Context, global values.Scriptable) error {
	for _, path := range p {
		if err := runFile(cx, global, path); err != nil {
			return err
		}
	}
	return nil
}

func runFile(cx *jsvm.Context, global values.Scriptable, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return wrap(err)
	}
	code, err := asm.Assemble(path, string(content))
	if err != nil {
		return err
	}
	fn, err := jsvm.NewFunction(cx, code, global)
	if err != nil {
		return wrap(err)
	}
	if _, err := cx.ExecuteScript(fn, global); err != nil {
		return wrap(err)
	}
	return nil
}

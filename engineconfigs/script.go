package engineconfigs

import (
	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/reusee/dscope"
)

// ScriptFork runs the config programs (jsvm.asm, .jsvm.asm) and overrides
// the configurables with the globals they define.
//
// Programs run from the system wide one to the local one on a shared global
// object, so a later program sees and may replace what an earlier one set.
func ScriptFork(scope dscope.Scope) (dscope.Scope, error) {
	paths := configPaths("jsvm.asm", ".jsvm.asm")
	if len(paths) == 0 {
		return scope, nil
	}

	logger := dscope.Get[logs.Logger](scope)
	cx := jsvm.NewContext(jsvm.DefaultConfig(), logger)
	global := values.NewTopLevel()
	for i := len(paths) - 1; i >= 0; i-- {
		path := paths[i]
		if err := runFile(cx, global, path); err != nil {
			return scope, err
		}
		logger.Info("config program", "path", path)
	}

	scope, err := configs.ScriptFork(scope, global)
	if err != nil {
		return scope, wrap(err)
	}
	return scope, nil
}

package engineconfigs

import (
	"github.com/hazzik/Rhino.Net-sub003/cmds"
	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/vars"
)

// ConstWrites names the policy for writes to initialised consts: "ignore"
// or "error".
type ConstWrites string

var _ configs.Configurable = ConstWrites("")

func (c ConstWrites) ConfigExpr() string {
	return "constWrites"
}

var constWritesFlag = cmds.Var[string]("-const-writes", "policy for writes to const bindings: ignore or error")

func (Module) ConstWrites(
	loader configs.Loader,
) ConstWrites {
	return ConstWrites(vars.FirstNonZero(
		*constWritesFlag,
		configs.First[string](loader, "const_writes"),
		"ignore",
	))
}

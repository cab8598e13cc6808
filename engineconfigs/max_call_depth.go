package engineconfigs

import (
	"github.com/hazzik/Rhino.Net-sub003/cmds"
	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/vars"
)

type MaxCallDepth int

var _ configs.Configurable = MaxCallDepth(0)

func (m MaxCallDepth) ConfigExpr() string {
	return "maxCallDepth"
}

var maxCallDepthFlag = cmds.Var[int]("-max-call-depth", "maximum script call depth")

func (Module) MaxCallDepth(
	loader configs.Loader,
) MaxCallDepth {
	return MaxCallDepth(vars.FirstNonZero(
		*maxCallDepthFlag,
		configs.First[int](loader, "max_call_depth"),
		jsvm.DefaultMaxCallDepth,
	))
}

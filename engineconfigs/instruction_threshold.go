package engineconfigs

import (
	"github.com/hazzik/Rhino.Net-sub003/cmds"
	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/vars"
)

// InstructionThreshold is the number of instructions between observer
// calls. Zero disables observation.
type InstructionThreshold int

var _ configs.Configurable = InstructionThreshold(0)

func (i InstructionThreshold) ConfigExpr() string {
	return "instructionThreshold"
}

var instructionThresholdFlag = cmds.Var[int]("-instruction-threshold", "abort scripts after this many instructions between observer checks")

func (Module) InstructionThreshold(
	loader configs.Loader,
) InstructionThreshold {
	return InstructionThreshold(vars.FirstNonZero(
		*instructionThresholdFlag,
		configs.First[int](loader, "instruction_threshold"),
	))
}

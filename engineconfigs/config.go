package engineconfigs

import (
	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/reusee/dscope"
	"github.com/reusee/e5"
)

var wrap = e5.Wrap.With(e5.WrapStacktrace)

var configKeys = []string{
	"max_call_depth",
	"instruction_threshold",
	"const_writes",
}

// Fork makes scope's jsvm.Config follow the configurables.
func Fork(scope dscope.Scope) dscope.Scope {
	return scope.Fork(func(
		maxCallDepth MaxCallDepth,
		threshold InstructionThreshold,
		constWrites ConstWrites,
		loader configs.Loader,
		logger logs.Logger,
	) jsvm.Config {
		policy, err := jsvm.ParseConstWrites(string(constWrites))
		if err != nil {
			panic(wrap(err))
		}
		for _, key := range configKeys {
			sources, err := loader.Sources(key)
			if err != nil {
				panic(wrap(err))
			}
			if len(sources) > 0 {
				logger.Debug("config value", "key", key, "file", sources[0])
			}
		}
		return jsvm.Config{
			MaxCallDepth:         int(maxCallDepth),
			InstructionThreshold: int(threshold),
			ConstWrites:          policy,
		}
	})
}

package jsvm

import (
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

func (Module) Config() Config {
	return DefaultConfig()
}

func (Module) Context(
	config Config,
	logger logs.Logger,
) *Context {
	return NewContext(config, logger)
}

package main

import (
	"github.com/hazzik/Rhino.Net-sub003/debugs"
	"github.com/hazzik/Rhino.Net-sub003/engineconfigs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	JSVM    jsvm.Module
	Configs engineconfigs.Module
	Debugs  debugs.Module
}

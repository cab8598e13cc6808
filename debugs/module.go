package debugs

import (
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

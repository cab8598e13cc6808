package logs

import (
	"io"
	"os"

	"github.com/hazzik/Rhino.Net-sub003/cmds"
)

type Writer io.Writer

var logFile = cmds.Var[string]("-log-file", "append logs to this file instead of stderr")

func (Module) Writer() Writer {
	if *logFile == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		panic(err)
	}
	return f
}

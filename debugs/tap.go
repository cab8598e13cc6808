package debugs

import (
	"context"
	"maps"
	"slices"

	"github.com/hazzik/Rhino.Net-sub003/logs"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
}

// Tap opens a starlark REPL on stdin with globals predeclared, plus log(msg,
// **kwargs) writing to the logger.
type Tap func(ctx context.Context, what string, globals map[string]any)

func (Module) Tap(
	logger logs.Logger,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) {
		logger.InfoContext(ctx, "tap: "+what,
			"globals", slices.Sorted(maps.Keys(globals)),
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		predeclared := toStringDict(globals)
		predeclared["log"] = logBuiltin(ctx, logger, what)
		thread := &starlark.Thread{
			Name: "repl",
		}
		repl.REPLOptions(fileOptions, thread, predeclared)
	}
}

func logBuiltin(ctx context.Context, logger logs.Logger, what string) *starlark.Builtin {
	return starlark.NewBuiltin("log", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var msg string
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, nil, 1, &msg); err != nil {
			return nil, err
		}
		attrs := []any{"tap", what}
		for _, kv := range kwargs {
			key, _ := starlark.AsString(kv[0])
			attrs = append(attrs, key, kv[1].String())
		}
		logger.InfoContext(ctx, msg, attrs...)
		return starlark.None, nil
	})
}

func toStringDict(globals map[string]any) starlark.StringDict {
	ret := make(starlark.StringDict, len(globals)+1)
	for name, value := range globals {
		ret[name] = toStarlarkValue(value)
	}
	return ret
}

package debugs

import (
	"math"

	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/hazzik/Rhino.Net-sub003/modes"
	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/samber/lo"
	"go.starlark.net/starlark"
)

// Debugger stops at debugger statements. With a probe set, it runs the
// probe program against the frame and logs what it prints; otherwise it
// opens a Tap. In development mode frame and line events are logged too.
type Debugger struct {
	logger logs.Logger
	tap    Tap
	trace  bool
	probe  string
}

var _ jsvm.Debugger = new(Debugger)

func (Module) Debugger(
	logger logs.Logger,
	tap Tap,
	mode modes.Mode,
) *Debugger {
	return &Debugger{
		logger: logger,
		tap:    tap,
		trace:  mode == modes.ModeDevelopment,
	}
}

// WithProbe returns a copy of d that runs src, a starlark program, at each
// debugger statement.
func (d *Debugger) WithProbe(src string) *Debugger {
	c := *d
	c.probe = src
	return &c
}

func (d *Debugger) EnterFrame(cx *jsvm.Context, frame jsvm.FrameInfo) {
	if !d.trace {
		return
	}
	d.logger.DebugContext(cx.GoContext(), "enter frame",
		"function", frame.FunctionName(),
		"depth", frame.Depth(),
	)
}

func (d *Debugger) ExitFrame(cx *jsvm.Context, frame jsvm.FrameInfo, result values.Value, err error) {
	if !d.trace {
		return
	}
	if err != nil {
		d.logger.DebugContext(cx.GoContext(), "exit frame",
			"function", frame.FunctionName(),
			"error", err,
		)
		return
	}
	d.logger.DebugContext(cx.GoContext(), "exit frame",
		"function", frame.FunctionName(),
		"result", values.ToString(result),
	)
}

func (d *Debugger) LineChange(cx *jsvm.Context, frame jsvm.FrameInfo, line int) {
	if !d.trace {
		return
	}
	d.logger.DebugContext(cx.GoContext(), "line",
		"function", frame.FunctionName(),
		"source", frame.SourceName(),
		"line", line,
	)
}

func (d *Debugger) DebuggerStatement(cx *jsvm.Context, frame jsvm.FrameInfo) {
	globals := FrameGlobals(frame)
	if d.probe == "" {
		d.tap(cx.GoContext(), frame.FunctionName(), globals)
		return
	}

	ctx := cx.GoContext()
	thread := &starlark.Thread{
		Name: "probe",
		Print: func(_ *starlark.Thread, msg string) {
			d.logger.InfoContext(ctx, "probe",
				"function", frame.FunctionName(),
				"line", frame.Line(),
				"output", msg,
			)
		},
	}
	predeclared := toStringDict(globals)
	predeclared["log"] = logBuiltin(ctx, d.logger, frame.FunctionName())
	if _, err := starlark.ExecFileOptions(fileOptions, thread, "probe", d.probe, predeclared); err != nil {
		d.logger.WarnContext(ctx, "probe failed",
			"function", frame.FunctionName(),
			"line", frame.Line(),
			"error", err,
		)
	}
}

// FrameGlobals describes a frame as plain Go values.
func FrameGlobals(frame jsvm.FrameInfo) map[string]any {
	vars := make(map[string]any)
	for _, name := range frame.VarNames() {
		v, _ := frame.Var(name)
		vars[name] = scriptToGo(v, 0)
	}
	var frames []any
	for f := frame; ; {
		frames = append(frames, map[string]any{
			"function": f.FunctionName(),
			"source":   f.SourceName(),
			"line":     f.Line(),
		})
		parent, ok := f.Parent()
		if !ok {
			break
		}
		f = parent
	}
	return map[string]any{
		"function": frame.FunctionName(),
		"source":   frame.SourceName(),
		"line":     frame.Line(),
		"depth":    frame.Depth(),
		"this":     scriptToGo(frame.This(), 0),
		"vars":     vars,
		"frames":   frames,
		"stack": lo.Map(frame.Stack(), func(v values.Value, _ int) any {
			return scriptToGo(v, 0)
		}),
	}
}

const maxObjectDepth = 2

func scriptToGo(v values.Value, depth int) any {
	if v == nil || values.IsNullish(v) {
		return nil
	}
	switch v := v.(type) {
	case bool, string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	case jsvm.Callable:
		return "function " + values.ToString(v.Get("name"))
	case *values.Array:
		if depth >= maxObjectDepth {
			return "[object Array]"
		}
		return lo.Map(v.Elements(), func(elem values.Value, _ int) any {
			return scriptToGo(elem, depth+1)
		})
	case values.Scriptable:
		if depth >= maxObjectDepth {
			return "[object " + v.ClassName() + "]"
		}
		ret := make(map[string]any)
		for _, id := range v.Ids() {
			ret[id] = scriptToGo(v.Get(id), depth+1)
		}
		return ret
	}
	return values.ToString(v)
}

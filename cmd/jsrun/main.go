package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/cmds"
	"github.com/hazzik/Rhino.Net-sub003/debugs"
	"github.com/hazzik/Rhino.Net-sub003/engineconfigs"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/logs"
	"github.com/hazzik/Rhino.Net-sub003/modes"
	"github.com/hazzik/Rhino.Net-sub003/syncs"
	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/hazzik/Rhino.Net-sub003/vars"
	"github.com/reusee/dscope"
	"github.com/reusee/e5"
	"golang.org/x/sync/errgroup"
)

var wrap = e5.Wrap.With(e5.WrapStacktrace)

func ce(err error) {
	if err != nil {
		panic(wrap(err))
	}
}

var (
	fileFlags   = cmds.Collect[string]("-file", "program to run: .cue, .jsbc or assembly")
	jobsFlag    = cmds.Var[int]("-jobs", "files to run at the same time")
	disFlag     = cmds.Switch("-dis", "disassemble instead of running")
	encodeFlag  = cmds.Var[string]("-encode", "write the assembled container to this path")
	probeFlag   = cmds.Var[string]("-probe", "starlark program to run at debugger statements")
	tapFlag     = cmds.Switch("-tap", "open a starlark repl at debugger statements")
	replFlag    = cmds.Switch("-repl", "read and run assembly blocks interactively")
	resumeFlags = cmds.Collect[string]("-resume", "value to resume a pending continuation with")
	devFlag     = cmds.Switch("-dev", "development mode, debuggers trace frames and lines")
)

func main() {
	cmds.Execute(os.Args[1:])

	var mode any = modes.ForProduction()
	if *devFlag {
		mode = modes.ForDevelopment()
	}
	scope := engineconfigs.Fork(dscope.New(
		new(Module),
		mode,
	))
	scope, err := engineconfigs.ScriptFork(scope)
	ce(err)

	scope.Call(func(
		logger logs.Logger,
		newSpan logs.NewSpan,
		config jsvm.Config,
		cx *jsvm.Context,
		debugger *debugs.Debugger,
		preload engineconfigs.Preload,
	) {
		ctx, span := newSpan(context.Background(), "")

		if *replFlag {
			cx.SetContext(ctx)
			setDebugger(cx, debugger)
			global := values.NewTopLevel()
			installNatives(global)
			ce(preload.Run(cx, global))
			ce(runREPL(cx, global))
			return
		}

		paths := *fileFlags
		if len(paths) == 0 {
			cmds.GlobalExecutor.PrintUsage()
			os.Exit(2)
		}

		if *disFlag {
			for _, path := range paths {
				program, err := loadProgram(path)
				ce(err)
				ce(bytecode.Disassemble(os.Stdout, program.Main))
			}
			return
		}

		if *encodeFlag != "" {
			if len(paths) != 1 {
				ce(fmt.Errorf("-encode takes exactly one -file"))
			}
			program, err := loadProgram(paths[0])
			ce(err)
			ce(encodeProgram(*encodeFlag, program.Main))
			logger.InfoContext(ctx, "encoded", "path", *encodeFlag)
			return
		}

		if len(paths) == 1 {
			cx.SetContext(ctx)
			setDebugger(cx, debugger)
			result, err := runFile(ctx, logger, cx, preload, paths[0])
			if err != nil {
				report(err)
				os.Exit(1)
			}
			printResult("", result)
			return
		}

		// one context per file, at most -jobs files at a time
		sem := syncs.NewSemaphore(vars.FirstNonZero(*jobsFlag, runtime.NumCPU()))
		group, groupCtx := errgroup.WithContext(ctx)
		for _, path := range paths {
			group.Go(func() error {
				if err := sem.Acquire(groupCtx); err != nil {
					return err
				}
				defer sem.Release()
				fileCtx, _ := newSpan(groupCtx, span, "file", path)
				cx := jsvm.NewContext(config, logger)
				cx.SetContext(fileCtx)
				setDebugger(cx, debugger)
				result, err := runFile(fileCtx, logger, cx, preload, path)
				if err != nil {
					return logs.WrapSpan(fileCtx, fmt.Errorf("%s: %w", path, err))
				}
				printResult(path+": ", result)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			report(err)
			os.Exit(1)
		}
	})
}

func setDebugger(cx *jsvm.Context, debugger *debugs.Debugger) {
	switch {
	case vars.DerefOrZero(probeFlag) != "":
		cx.SetDebugger(debugger.WithProbe(*probeFlag))
	case *tapFlag, *devFlag:
		cx.SetDebugger(debugger)
	}
}

func runFile(
	ctx context.Context,
	logger logs.Logger,
	cx *jsvm.Context,
	preload engineconfigs.Preload,
	path string,
) (values.Value, error) {
	program, err := loadProgram(path)
	if err != nil {
		return nil, err
	}
	global := values.NewTopLevel()
	installNatives(global)
	if err := preload.Run(cx, global); err != nil {
		return nil, err
	}
	program.Install(global)
	fn, err := jsvm.NewFunction(cx, program.Main, global)
	if err != nil {
		return nil, err
	}
	result, err := cx.ExecuteScriptWithContinuations(fn, global)
	return resumeAll(ctx, logger, cx, global, result, err)
}

// resumeAll feeds the -resume values, in order, to the continuations the
// script captures.
func resumeAll(
	ctx context.Context,
	logger logs.Logger,
	cx *jsvm.Context,
	global values.Scriptable,
	result values.Value,
	err error,
) (values.Value, error) {
	inputs := *resumeFlags
	for {
		var pending *jsvm.ContinuationPending
		if !errors.As(err, &pending) {
			return result, err
		}
		k := pending.Continuation()
		frames := k.Frames()
		logger.InfoContext(ctx, "continuation pending",
			"function", frames[0].FunctionName(),
			"line", frames[0].Line(),
			"depth", len(frames),
		)
		if len(inputs) == 0 {
			return nil, wrap(fmt.Errorf("script suspended at %s:%d with no value to resume",
				frames[0].SourceName(), frames[0].Line()))
		}
		value := parseResumeValue(inputs[0])
		inputs = inputs[1:]
		result, err = cx.ResumeContinuation(k, global, value)
	}
}

func printResult(prefix string, result values.Value) {
	if result == values.Undefined {
		return
	}
	fmt.Println(prefix + values.ToString(result))
}

func report(err error) {
	var scriptErr *jsvm.ScriptError
	if errors.As(err, &scriptErr) {
		fmt.Fprintf(os.Stderr, "%s\n%s\n", err.Error(), scriptErr.ScriptStack())
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/hazzik/Rhino.Net-sub003/asm"
	"github.com/hazzik/Rhino.Net-sub003/jsvm"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// runREPL reads assembly, one block per blank line, and runs each block on
// the same global object.
func runREPL(cx *jsvm.Context, global values.Scriptable) error {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".jsrun_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		return wrap(err)
	}
	defer rl.Close()

	var block []string
	for {
		if len(block) == 0 {
			rl.SetPrompt("> ")
		} else {
			rl.SetPrompt(". ")
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			block = block[:0]
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return wrap(err)
		}
		if strings.TrimSpace(line) != "" {
			block = append(block, line)
			continue
		}
		if len(block) == 0 {
			continue
		}
		text := strings.Join(block, "\n")
		block = block[:0]

		res, err := evalBlock(cx, global, text)
		if err != nil {
			report(err)
		} else if res != values.Undefined {
			fmt.Println(values.ToString(res))
		}
	}
}

func evalBlock(cx *jsvm.Context, global values.Scriptable, text string) (values.Value, error) {
	code, err := asm.Assemble("<repl>", text)
	if err != nil {
		return nil, err
	}
	fn, err := jsvm.NewFunction(cx, code, global)
	if err != nil {
		return nil, err
	}
	return cx.ExecuteScript(fn, global)
}

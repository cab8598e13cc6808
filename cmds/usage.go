package cmds

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/samber/lo"
)

func (p *Executor) PrintUsage() {
	p.WriteUsage(os.Stderr)
}

func (p *Executor) WriteUsage(w io.Writer) {
	// aliases share the command value
	seen := make(map[*Command]bool)
	names := lo.Keys(p.commands)
	slices.Sort(names)
	for _, name := range names {
		command := p.commands[name]
		if command == nil || seen[command] || slices.Contains(command.Aliases, name) {
			continue
		}
		seen[command] = true
		writeCommand(w, 0, name, command)
	}
}

func writeCommand(w io.Writer, depth int, name string, command *Command) {
	indent := strings.Repeat("  ", depth)
	line := indent + name
	for i := range command.Arity() {
		t := command.Func.Type().In(i)
		if t.Kind() == reflect.Pointer {
			line += " [" + t.Elem().Kind().String() + "]"
		} else {
			line += " <" + t.Kind().String() + ">"
		}
	}
	if len(command.Aliases) > 0 {
		line += " (" + strings.Join(command.Aliases, ", ") + ")"
	}
	if command.Description != "" {
		line += "\t" + command.Description
	}
	fmt.Fprintln(w, line)

	subs := lo.Keys(command.Subs)
	slices.Sort(subs)
	for _, sub := range subs {
		if command.Subs[sub] == nil {
			continue
		}
		writeCommand(w, depth+1, sub, command.Subs[sub])
	}
}

package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/reusee/e5"
	"github.com/samber/lo"
)

var wrap = e5.Wrap.With(e5.WrapStacktrace)

// Assemble builds a script container from assembly text.
//
// One instruction or directive per line; ';' starts a comment. A line
// ending in ':' defines a label. Directives:
//
//	.function name ... .end    nested function, usable by closure after it
//	.param a b                 parameters
//	.var x y / .const c        variables
//	.local name                interpreter temp local
//	.strict .generator .activation
//	.source name / .line n
//	.catch start end target depth [scopelocal]
//	.finally start end target depth [scopelocal]
//
// Operands are written as names where the instruction refers to a table:
// quoted or bare strings for names and properties, var names, local names,
// labels and nested function names. "push n" emits the shortest number
// push.
func Assemble(sourceName string, text string) (*bytecode.Function, error) {
	p := &parser{
		lines:  strings.Split(text, "\n"),
		source: sourceName,
	}
	fn, err := p.block(bytecode.KindScript, "", true)
	if err != nil {
		return nil, wrap(err)
	}
	return fn, nil
}

type parser struct {
	lines  []string
	pos    int
	source string
}

type block struct {
	b      *bytecode.Builder
	labels map[string]bytecode.Label
	marked map[string]bool
	locals map[string]int
	nested map[string]int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.source, p.pos, fmt.Sprintf(format, args...))
}

func (blk *block) label(name string) bytecode.Label {
	l, ok := blk.labels[name]
	if !ok {
		l = blk.b.NewLabel()
		blk.labels[name] = l
	}
	return l
}

func (p *parser) block(kind bytecode.Kind, name string, top bool) (*bytecode.Function, error) {
	blk := &block{
		b:      bytecode.NewBuilder(kind, name),
		labels: make(map[string]bytecode.Label),
		marked: make(map[string]bool),
		locals: make(map[string]int),
		nested: make(map[string]int),
	}
	blk.b.SetSource(p.source)

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++
		fields, err := splitFields(line)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		if len(fields) == 0 {
			continue
		}

		// labels
		for len(fields) > 0 && strings.HasSuffix(fields[0], ":") && !isQuoted(fields[0]) {
			name := strings.TrimSuffix(fields[0], ":")
			if blk.marked[name] {
				return nil, p.errorf("duplicate label %s", name)
			}
			blk.marked[name] = true
			blk.b.Mark(blk.label(name))
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}

		head, args := fields[0], fields[1:]
		if strings.HasPrefix(head, ".") {
			if head == ".end" {
				if top {
					return nil, p.errorf(".end without .function")
				}
				return p.finish(blk)
			}
			if err := p.directive(blk, head, args); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.instruction(blk, head, args); err != nil {
			return nil, err
		}
	}

	if !top {
		return nil, p.errorf("function %s: missing .end", name)
	}
	return p.finish(blk)
}

func (p *parser) finish(blk *block) (*bytecode.Function, error) {
	for name := range blk.labels {
		if !blk.marked[name] {
			return nil, p.errorf("undefined label %s", name)
		}
	}
	return blk.b.Build()
}

func (p *parser) directive(blk *block, head string, args []string) error {
	b := blk.b
	switch head {
	case ".function":
		if len(args) != 1 {
			return p.errorf(".function needs a name")
		}
		fn, err := p.block(bytecode.KindFunction, args[0], false)
		if err != nil {
			return err
		}
		blk.nested[args[0]] = b.Nested(fn)
	case ".param":
		for _, name := range args {
			b.Param(name)
		}
	case ".var":
		for _, name := range args {
			b.Var(name, false)
		}
	case ".const":
		for _, name := range args {
			b.Var(name, true)
		}
	case ".local":
		for _, name := range args {
			blk.locals[name] = b.Local()
		}
	case ".strict":
		b.SetStrict(true)
	case ".generator":
		b.SetGenerator(true)
	case ".activation":
		b.SetNeedsActivation(true)
	case ".source":
		if len(args) != 1 {
			return p.errorf(".source needs a name")
		}
		b.SetSource(unquote(args[0]))
	case ".line":
		if len(args) != 1 {
			return p.errorf(".line needs a number")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return p.errorf("bad line %q", args[0])
		}
		b.Line(n)
	case ".catch", ".finally":
		if len(args) != 4 && len(args) != 5 {
			return p.errorf("%s start end target depth [scopelocal]", head)
		}
		depth, err := strconv.Atoi(args[3])
		if err != nil {
			return p.errorf("bad depth %q", args[3])
		}
		scopeLocal := -1
		if len(args) == 5 {
			scopeLocal, err = p.localIndex(blk, args[4])
			if err != nil {
				return err
			}
		}
		kind := bytecode.HandlerCatch
		if head == ".finally" {
			kind = bytecode.HandlerFinally
		}
		b.Handler(kind, blk.label(args[0]), blk.label(args[1]), blk.label(args[2]), depth, scopeLocal)
	default:
		return p.errorf("unknown directive %s", head)
	}
	return nil
}

func (p *parser) instruction(blk *block, head string, args []string) error {
	b := blk.b

	if head == "push" {
		if len(args) != 1 {
			return p.errorf("push needs a number")
		}
		n, err := parseNumber(args[0])
		if err != nil {
			return p.errorf("%v", err)
		}
		b.PushNumber(n)
		return nil
	}

	op, ok := bytecode.Lookup(head)
	if !ok {
		return p.errorf("unknown instruction %s", head)
	}
	operands := op.Operands()
	if len(args) != len(operands) {
		return p.errorf("%s takes %d operand(s), got %d", head, len(operands), len(args))
	}
	if len(operands) == 0 {
		b.Emit(op)
		return nil
	}
	arg := args[0]

	if op.IsJump() {
		if isQuoted(arg) {
			return p.errorf("%s needs a label", head)
		}
		b.Jump(op, blk.label(arg))
		return nil
	}

	var operand int
	var err error
	switch op {
	case bytecode.OpNumber:
		var n float64
		n, err = parseNumber(arg)
		operand = b.Number(n)
	case bytecode.OpString, bytecode.OpGetName, bytecode.OpSetName, bytecode.OpDelName, bytecode.OpTypeOfName,
		bytecode.OpGetProp, bytecode.OpSetProp, bytecode.OpDelProp:
		operand = b.String(unquote(arg))
	case bytecode.OpGetVar, bytecode.OpSetVar, bytecode.OpSetConstVar:
		operand, err = p.varIndex(blk, arg)
	case bytecode.OpScopeSave, bytecode.OpScopeLoad, bytecode.OpLocalLoad, bytecode.OpLocalSave,
		bytecode.OpStartSub, bytecode.OpRetsub, bytecode.OpEnumInit, bytecode.OpEnumNext, bytecode.OpEnumId:
		operand, err = p.localIndex(blk, arg)
	case bytecode.OpClosure:
		idx, ok := blk.nested[arg]
		if !ok {
			idx, err = strconv.Atoi(arg)
			if err != nil {
				err = fmt.Errorf("unknown function %s, have %v", arg, lo.Keys(blk.nested))
			}
		}
		operand = idx
	default:
		operand, err = strconv.Atoi(arg)
	}
	if err != nil {
		return p.errorf("%s: %v", head, err)
	}
	b.Emit(op, operand)
	return nil
}

func (p *parser) varIndex(blk *block, arg string) (int, error) {
	if i := blk.b.Function().VarIndex(arg); i >= 0 {
		return i, nil
	}
	if i, err := strconv.Atoi(arg); err == nil {
		return i, nil
	}
	return 0, p.errorf("unknown variable %s", arg)
}

func (p *parser) localIndex(blk *block, arg string) (int, error) {
	if i, ok := blk.locals[arg]; ok {
		return i, nil
	}
	if i, err := strconv.Atoi(arg); err == nil {
		return i, nil
	}
	return 0, p.errorf("unknown local %s", arg)
}

func parseNumber(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return n, nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(s string) string {
	if !isQuoted(s) {
		return s
	}
	ret, err := strconv.Unquote(s)
	if err != nil {
		return s[1 : len(s)-1]
	}
	return ret
}

// splitFields splits a line on spaces, keeping quoted strings whole and
// dropping comments.
func splitFields(line string) ([]string, error) {
	var fields []string
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == ',':
			i++
		case c == ';':
			return fields, nil
		case c == '"':
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated string")
			}
			fields = append(fields, line[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(line) && !strings.ContainsRune(" \t\r,;\"", rune(line[j])) {
				j++
			}
			fields = append(fields, line[i:j])
			i = j
		}
	}
	return fields, nil
}

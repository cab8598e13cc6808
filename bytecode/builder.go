package bytecode

import (
	"fmt"
	"math"
)

// Label is a branch target resolved by Build.
type Label int

// Builder assembles a Function. It plays the compiler's role for tests and
// for the assembler front end.
type Builder struct {
	fn      *Function
	labels  []int
	fixups  []fixup
	strings map[string]int
	numbers map[float64]int
	hands   []pendingHandler
	line    int
	err     error
}

type fixup struct {
	opPC      int
	operandPC int
	label     Label
}

type pendingHandler struct {
	kind       HandlerKind
	start      Label
	end        Label
	target     Label
	stackDepth int
	scopeLocal int
}

func NewBuilder(kind Kind, name string) *Builder {
	return &Builder{
		fn: &Function{
			Kind:            kind,
			Name:            name,
			LanguageVersion: 200,
		},
		strings: make(map[string]int),
		numbers: make(map[float64]int),
	}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) SetSource(name string)      { b.fn.SourceName = name }
func (b *Builder) SetStrict(v bool)           { b.fn.Strict = v }
func (b *Builder) SetGenerator(v bool)        { b.fn.Generator = v }
func (b *Builder) SetNeedsActivation(v bool)  { b.fn.NeedsActivation = v }
func (b *Builder) SetLanguageVersion(v int)   { b.fn.LanguageVersion = v }
func (b *Builder) SetMaxStack(n int)          { b.fn.MaxStack = n }
func (b *Builder) SetMaxLocals(n int)         { b.fn.MaxLocals = n }
func (b *Builder) Function() *Function        { return b.fn }
func (b *Builder) PC() int                    { return len(b.fn.Code) }
func (b *Builder) Line(line int)              { b.line = line }

// Param declares a parameter. Parameters must precede variables.
func (b *Builder) Param(name string) int {
	if b.fn.ParamCount != len(b.fn.Vars) {
		b.fail(fmt.Errorf("parameter %s declared after variables", name))
	}
	b.fn.Vars = append(b.fn.Vars, Var{Name: name})
	b.fn.ParamCount++
	return len(b.fn.Vars) - 1
}

func (b *Builder) Var(name string, isConst bool) int {
	if i := b.fn.VarIndex(name); i >= 0 {
		return i
	}
	b.fn.Vars = append(b.fn.Vars, Var{Name: name, Const: isConst})
	return len(b.fn.Vars) - 1
}

// Local reserves a temp local and returns its index.
func (b *Builder) Local() int {
	b.fn.MaxLocals++
	return b.fn.MaxLocals - 1
}

func (b *Builder) String(s string) int {
	if i, ok := b.strings[s]; ok {
		return i
	}
	b.fn.Strings = append(b.fn.Strings, s)
	b.strings[s] = len(b.fn.Strings) - 1
	return len(b.fn.Strings) - 1
}

func (b *Builder) Number(n float64) int {
	if i, ok := b.numbers[n]; ok && !math.IsNaN(n) {
		return i
	}
	b.fn.Numbers = append(b.fn.Numbers, n)
	b.numbers[n] = len(b.fn.Numbers) - 1
	return len(b.fn.Numbers) - 1
}

// Nested appends a nested container and returns its index for OpClosure.
func (b *Builder) Nested(fn *Function) int {
	b.fn.Nested = append(b.fn.Nested, fn)
	return len(b.fn.Nested) - 1
}

// Emit appends one instruction and returns its pc.
func (b *Builder) Emit(op Opcode, operands ...int) int {
	pc := len(b.fn.Code)
	if !op.Valid() {
		b.fail(fmt.Errorf("%w: %d", ErrBadInstruction, op))
		return pc
	}
	kinds := op.Operands()
	if len(kinds) != len(operands) {
		b.fail(fmt.Errorf("%s: want %d operands, got %d", op, len(kinds), len(operands)))
		return pc
	}
	if b.line > 0 {
		b.fn.Lines.Add(pc, b.line)
	}
	code := append(b.fn.Code, byte(op))
	for i, kind := range kinds {
		if !operandFits(kind, operands[i]) {
			b.fail(fmt.Errorf("%s: %w: %d", op, ErrBadOperand, operands[i]))
		}
		code = appendOperand(code, kind, operands[i])
	}
	b.fn.Code = code
	return pc
}

// PushNumber emits the shortest instruction loading n.
func (b *Builder) PushNumber(n float64) int {
	integral := n == math.Trunc(n) && !(n == 0 && math.Signbit(n))
	switch {
	case integral && n == 0:
		return b.Emit(OpZero)
	case n == 1:
		return b.Emit(OpOne)
	case integral && n >= math.MinInt16 && n <= math.MaxInt16:
		return b.Emit(OpShort, int(n))
	case integral && n >= math.MinInt32 && n <= math.MaxInt32:
		return b.Emit(OpInt, int(n))
	}
	return b.Emit(OpNumber, b.Number(n))
}

func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, -1)
	return Label(len(b.labels) - 1)
}

// Mark binds l to the current pc.
func (b *Builder) Mark(l Label) {
	if b.labels[l] >= 0 {
		b.fail(fmt.Errorf("label %d marked twice", l))
	}
	b.labels[l] = len(b.fn.Code)
}

// Jump emits a branch instruction to l.
func (b *Builder) Jump(op Opcode, l Label) int {
	if !op.IsJump() {
		b.fail(fmt.Errorf("%s is not a branch", op))
		return b.PC()
	}
	pc := b.Emit(op, 0)
	b.fixups = append(b.fixups, fixup{
		opPC:      pc,
		operandPC: pc + 1,
		label:     l,
	})
	return pc
}

// Handler registers an exception table entry over [start, end).
func (b *Builder) Handler(kind HandlerKind, start, end, target Label, stackDepth int, scopeLocal int) {
	b.hands = append(b.hands, pendingHandler{
		kind:       kind,
		start:      start,
		end:        end,
		target:     target,
		stackDepth: stackDepth,
		scopeLocal: scopeLocal,
	})
}

func (b *Builder) resolve(l Label) (int, error) {
	if int(l) < 0 || int(l) >= len(b.labels) {
		return 0, fmt.Errorf("unknown label %d", l)
	}
	pc := b.labels[l]
	if pc < 0 {
		return 0, fmt.Errorf("label %d never marked", l)
	}
	return pc, nil
}

// Build resolves labels, computes MaxStack when none was set, links nested
// containers and verifies the result.
func (b *Builder) Build() (*Function, error) {
	if b.err != nil {
		return nil, b.err
	}
	fn := b.fn

	for _, fix := range b.fixups {
		target, err := b.resolve(fix.label)
		if err != nil {
			return nil, err
		}
		offset := target - fix.opPC
		if !operandFits(OperandS16, offset) {
			return nil, fmt.Errorf("branch at %d: offset %d out of range", fix.opPC, offset)
		}
		fn.Code[fix.operandPC] = byte(offset >> 8)
		fn.Code[fix.operandPC+1] = byte(offset)
	}

	for _, h := range b.hands {
		start, err := b.resolve(h.start)
		if err != nil {
			return nil, err
		}
		end, err := b.resolve(h.end)
		if err != nil {
			return nil, err
		}
		target, err := b.resolve(h.target)
		if err != nil {
			return nil, err
		}
		fn.Handlers = append(fn.Handlers, Handler{
			Start:      start,
			End:        end,
			Target:     target,
			Kind:       h.kind,
			StackDepth: h.stackDepth,
			ScopeLocal: h.scopeLocal,
		})
	}

	if fn.MaxStack == 0 {
		n, err := ComputeMaxStack(fn)
		if err != nil {
			return nil, err
		}
		fn.MaxStack = n
	}

	fn.Link()
	if err := fn.Verify(); err != nil {
		return nil, err
	}
	return fn, nil
}

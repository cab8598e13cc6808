package bytecode

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow     = errors.New("operand stack exceeds declared maximum")
	ErrStackUnderflow    = errors.New("operand stack underflow")
	ErrInconsistentStack = errors.New("inconsistent operand stack depth at merge point")
	ErrBadInstruction    = errors.New("bad instruction")
	ErrBadOperand        = errors.New("operand out of range")
	ErrBadHandler        = errors.New("bad exception handler")
)

// VerifyError locates a verification failure.
type VerifyError struct {
	Function string
	PC       int
	Op       Opcode
	Err      error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: pc %d (%s): %v", e.Function, e.PC, e.Op, e.Err)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// Verify checks the build-time invariants of f and of every nested container:
// the statically computed operand stack depth never exceeds MaxStack, operands
// index existing table entries, branches stay inside the code and every merge
// point is reached with a single stack depth. The result is computed once.
func (f *Function) Verify() error {
	f.verifyOnce.Do(func() {
		f.verifyErr = f.verify()
	})
	return f.verifyErr
}

func (f *Function) verify() error {
	if _, err := analyze(f, f.MaxStack); err != nil {
		return err
	}
	for _, nested := range f.Nested {
		if err := nested.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// ComputeMaxStack returns the maximum operand stack depth the code can reach.
func ComputeMaxStack(f *Function) (int, error) {
	return analyze(f, -1)
}

func stackEffect(op Opcode, operand int) (pop int, push int) {
	switch op {
	case OpNop, OpGoto, OpLeaveWith, OpScopeSave, OpScopeLoad, OpRetUndef, OpDebugger, OpGosub, OpRetsub:
		return 0, 0
	case OpUndefined, OpNull, OpTrue, OpFalse, OpThis, OpNumber, OpString,
		OpGetName, OpDelName, OpTypeOfName, OpGetVar, OpClosure,
		OpZero, OpOne, OpShort, OpInt, OpLocalLoad, OpArguments,
		OpEnumNext, OpEnumId:
		return 0, 1
	case OpSetName, OpSetVar, OpSetConstVar, OpGetProp, OpDelProp,
		OpNeg, OpPos, OpNot, OpBitNot, OpTypeOf, OpYield:
		return 1, 1
	case OpSetProp, OpGetElem, OpDelElem,
		OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpBitAnd, OpBitOr, OpBitXor, OpLsh, OpRsh, OpURsh,
		OpEq, OpNe, OpStrictEq, OpStrictNe, OpLt, OpLe, OpGt, OpGe,
		OpInstanceOf, OpIn:
		return 2, 1
	case OpSetElem:
		return 3, 1
	case OpCall:
		return operand + 2, 1
	case OpNew:
		return operand + 1, 1
	case OpArrayLit:
		return operand, 1
	case OpObjectLit:
		return operand * 2, 1
	case OpReturn, OpThrow, OpIfTrue, OpIfFalse, OpEnterWith,
		OpPop, OpPopResult, OpLocalSave, OpStartSub, OpEnumInit:
		return 1, 0
	case OpDup:
		return 1, 2
	case OpDup2:
		return 2, 4
	case OpSwap:
		return 2, 2
	}
	return 0, 0
}

func isTerminal(op Opcode) bool {
	switch op {
	case OpReturn, OpRetUndef, OpThrow, OpGoto, OpRetsub:
		return true
	}
	return false
}

// analyze walks every reachable path and returns the maximum stack depth.
// A negative limit disables the overflow check.
func analyze(f *Function, limit int) (int, error) {
	code := f.Code
	depths := make([]int, len(code)+1)
	for i := range depths {
		depths[i] = -1
	}

	fail := func(pc int, op Opcode, err error) error {
		return &VerifyError{
			Function: f.DisplayName(),
			PC:       pc,
			Op:       op,
			Err:      err,
		}
	}

	// instruction starts in linear order; decoding stops at the first
	// invalid or truncated instruction
	starts := make([]bool, len(code)+1)
	starts[len(code)] = true
	for pc := 0; pc < len(code); {
		op := ReadOp(code, pc)
		if !op.Valid() || pc+op.Width() > len(code) {
			starts[pc] = true
			break
		}
		starts[pc] = true
		pc += op.Width()
	}

	var work []int
	maxDepth := 0
	enter := func(from int, op Opcode, pc int, depth int) error {
		if pc < 0 || pc > len(code) || !starts[pc] {
			return fail(from, op, fmt.Errorf("%w: branch to %d", ErrBadOperand, pc))
		}
		if limit >= 0 && depth > limit {
			return fail(from, op, fmt.Errorf("%w: depth %d, max %d", ErrStackOverflow, depth, limit))
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		switch depths[pc] {
		case -1:
			depths[pc] = depth
			work = append(work, pc)
		case depth:
		default:
			return fail(from, op, fmt.Errorf("%w: pc %d reached with %d and %d", ErrInconsistentStack, pc, depths[pc], depth))
		}
		return nil
	}

	if err := enter(0, OpNop, 0, 0); err != nil {
		return 0, err
	}
	for _, h := range f.Handlers {
		if h.Start < 0 || h.End > len(code) || h.Start >= h.End ||
			h.Target < 0 || h.Target >= len(code) ||
			h.StackDepth < 0 ||
			h.ScopeLocal >= f.MaxLocals {
			return 0, fail(h.Target, OpNop, fmt.Errorf("%w: %+v", ErrBadHandler, h))
		}
		if err := enter(h.Target, OpNop, h.Target, h.StackDepth+1); err != nil {
			return 0, err
		}
	}

	for len(work) > 0 {
		pc := work[len(work)-1]
		work = work[:len(work)-1]
		depth := depths[pc]
		if pc == len(code) {
			// falling off the end completes the activation
			continue
		}

		op := ReadOp(code, pc)
		if !op.Valid() {
			return 0, fail(pc, op, ErrBadInstruction)
		}
		width := op.Width()
		if pc+width > len(code) {
			return 0, fail(pc, op, fmt.Errorf("%w: truncated", ErrBadInstruction))
		}
		var operand int
		if operands := op.Operands(); len(operands) > 0 {
			operand = readOperand(code, pc+1, operands[0])
		}
		if err := checkOperand(f, op, operand); err != nil {
			return 0, fail(pc, op, err)
		}

		pop, push := stackEffect(op, operand)
		if depth < pop {
			return 0, fail(pc, op, fmt.Errorf("%w: depth %d, pops %d", ErrStackUnderflow, depth, pop))
		}
		next := depth - pop + push

		if op.IsJump() {
			target := pc + operand
			targetDepth := next
			if op == OpGosub {
				// the return address is pushed for the subroutine only
				targetDepth = depth + 1
			}
			if err := enter(pc, op, target, targetDepth); err != nil {
				return 0, err
			}
		}
		if !isTerminal(op) {
			if err := enter(pc, op, pc+width, next); err != nil {
				return 0, err
			}
		}
	}

	return maxDepth, nil
}

func checkOperand(f *Function, op Opcode, operand int) error {
	var limit int
	switch op {
	case OpNumber:
		limit = len(f.Numbers)
	case OpString, OpGetName, OpSetName, OpDelName, OpTypeOfName, OpGetProp, OpSetProp, OpDelProp:
		limit = len(f.Strings)
	case OpGetVar, OpSetVar, OpSetConstVar:
		limit = len(f.Vars)
	case OpClosure:
		limit = len(f.Nested)
	case OpScopeSave, OpScopeLoad, OpLocalLoad, OpLocalSave, OpStartSub, OpRetsub, OpEnumInit, OpEnumNext, OpEnumId:
		limit = f.MaxLocals
	default:
		return nil
	}
	if operand < 0 || operand >= limit {
		return fmt.Errorf("%w: %d not below %d", ErrBadOperand, operand, limit)
	}
	return nil
}

package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Disassemble writes a listing of fn and its nested containers.
func Disassemble(w io.Writer, fn *Function) error {
	return disassemble(w, fn, "")
}

func disassemble(w io.Writer, fn *Function, indent string) error {
	_, err := fmt.Fprintf(w, "%s%s %s (params %d, vars %d, stack %d, locals %d)\n",
		indent, fn.Kind, fn.DisplayName(), fn.ParamCount, len(fn.Vars), fn.MaxStack, fn.MaxLocals)
	if err != nil {
		return err
	}

	lastLine := 0
	for pc := 0; pc < len(fn.Code); {
		op := ReadOp(fn.Code, pc)
		if !op.Valid() {
			_, err := fmt.Fprintf(w, "%s  %04d  %s\n", indent, pc, op)
			return err
		}

		var b strings.Builder
		if line := fn.LineAt(pc); line != lastLine {
			fmt.Fprintf(&b, "%s  ; line %d\n", indent, line)
			lastLine = line
		}
		fmt.Fprintf(&b, "%s  %04d  %-12s", indent, pc, op)

		at := pc + 1
		for _, operand := range op.Operands() {
			v := readOperand(fn.Code, at, operand)
			at += operand.Width()
			b.WriteString(" ")
			b.WriteString(strconv.Itoa(v))
			switch {
			case op.IsJump():
				fmt.Fprintf(&b, " -> %04d", pc+v)
			case op == OpNumber && v < len(fn.Numbers):
				fmt.Fprintf(&b, " (%v)", fn.Numbers[v])
			case op == OpClosure && v < len(fn.Nested):
				fmt.Fprintf(&b, " (%s)", fn.Nested[v].DisplayName())
			case (op == OpGetVar || op == OpSetVar || op == OpSetConstVar) && v < len(fn.Vars):
				fmt.Fprintf(&b, " (%s)", fn.Vars[v].Name)
			case len(op.Operands()) == 1 && op.Operands()[0] == OperandU16 && usesString(op) && v < len(fn.Strings):
				fmt.Fprintf(&b, " (%q)", fn.Strings[v])
			}
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		pc += op.Width()
	}

	for _, h := range fn.Handlers {
		if _, err := fmt.Fprintf(w, "%s  %s [%04d, %04d) -> %04d depth %d scope %d\n",
			indent, h.Kind, h.Start, h.End, h.Target, h.StackDepth, h.ScopeLocal); err != nil {
			return err
		}
	}

	for _, nested := range fn.Nested {
		if err := disassemble(w, nested, indent+"  "); err != nil {
			return err
		}
	}
	return nil
}

func usesString(op Opcode) bool {
	switch op {
	case OpString, OpGetName, OpSetName, OpDelName, OpTypeOfName, OpGetProp, OpSetProp, OpDelProp:
		return true
	}
	return false
}

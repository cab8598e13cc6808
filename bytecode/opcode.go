package bytecode

import "fmt"

// Opcode is one instruction code. It is stored in the instruction stream as a
// single byte and read back as int8: non-negative codes are general opcodes
// shared with any other evaluator, negative codes are interpreter private
// pseudo-ops.
type Opcode int8

// general opcodes
const (
	OpNop Opcode = iota
	OpUndefined
	OpNull
	OpTrue
	OpFalse
	OpThis
	OpNumber     // u16 number index
	OpString     // u16 string index
	OpGetName    // u16 string index
	OpSetName    // u16 string index
	OpDelName    // u16 string index
	OpTypeOfName // u16 string index
	OpGetVar     // u8 var index
	OpSetVar     // u8 var index
	OpGetProp    // u16 string index
	OpSetProp    // u16 string index
	OpDelProp    // u16 string index
	OpGetElem
	OpSetElem
	OpDelElem
	OpCall // u16 argc; stack: callee, this, args...
	OpNew  // u16 argc; stack: ctor, args...
	OpReturn
	OpThrow
	OpGoto    // s16
	OpIfTrue  // s16
	OpIfFalse // s16
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpPos
	OpNot
	OpBitNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLsh
	OpRsh
	OpURsh
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpInstanceOf
	OpIn
	OpTypeOf
	OpClosure   // u16 nested index
	OpArrayLit  // u16 element count
	OpObjectLit // u16 pair count; stack: k1, v1, k2, v2...
	OpEnterWith
	OpLeaveWith
)

// pseudo-ops
const (
	OpDup Opcode = -1 - iota
	OpDup2
	OpSwap
	OpPop
	OpPopResult
	OpZero
	OpOne
	OpShort       // s16 inline
	OpInt         // s32 inline
	OpScopeSave   // u8 local
	OpScopeLoad   // u8 local
	OpLocalLoad   // u8 local
	OpLocalSave   // u8 local
	OpSetConstVar // u8 var index
	OpGosub       // s16
	OpStartSub    // u8 local
	OpRetsub      // u8 local
	OpEnumInit    // u8 local
	OpEnumNext    // u8 local
	OpEnumId      // u8 local
	OpArguments
	OpRetUndef
	OpYield
	OpDebugger
)

// Operand is the encoding of one instruction operand.
type Operand uint8

const (
	OperandU8 Operand = iota + 1
	OperandU16
	OperandS16
	OperandS32
)

func (o Operand) Width() int {
	switch o {
	case OperandU8:
		return 1
	case OperandU16, OperandS16:
		return 2
	case OperandS32:
		return 4
	}
	panic(fmt.Errorf("bad operand kind %d", o))
}

type opcodeInfo struct {
	name     string
	operands []Operand
}

var opcodeInfos = map[Opcode]opcodeInfo{
	OpNop:        {"nop", nil},
	OpUndefined:  {"undefined", nil},
	OpNull:       {"null", nil},
	OpTrue:       {"true", nil},
	OpFalse:      {"false", nil},
	OpThis:       {"this", nil},
	OpNumber:     {"number", []Operand{OperandU16}},
	OpString:     {"string", []Operand{OperandU16}},
	OpGetName:    {"getname", []Operand{OperandU16}},
	OpSetName:    {"setname", []Operand{OperandU16}},
	OpDelName:    {"delname", []Operand{OperandU16}},
	OpTypeOfName: {"typeofname", []Operand{OperandU16}},
	OpGetVar:     {"getvar", []Operand{OperandU8}},
	OpSetVar:     {"setvar", []Operand{OperandU8}},
	OpGetProp:    {"getprop", []Operand{OperandU16}},
	OpSetProp:    {"setprop", []Operand{OperandU16}},
	OpDelProp:    {"delprop", []Operand{OperandU16}},
	OpGetElem:    {"getelem", nil},
	OpSetElem:    {"setelem", nil},
	OpDelElem:    {"delelem", nil},
	OpCall:       {"call", []Operand{OperandU16}},
	OpNew:        {"new", []Operand{OperandU16}},
	OpReturn:     {"return", nil},
	OpThrow:      {"throw", nil},
	OpGoto:       {"goto", []Operand{OperandS16}},
	OpIfTrue:     {"iftrue", []Operand{OperandS16}},
	OpIfFalse:    {"iffalse", []Operand{OperandS16}},
	OpAdd:        {"add", nil},
	OpSub:        {"sub", nil},
	OpMul:        {"mul", nil},
	OpDiv:        {"div", nil},
	OpMod:        {"mod", nil},
	OpNeg:        {"neg", nil},
	OpPos:        {"pos", nil},
	OpNot:        {"not", nil},
	OpBitNot:     {"bitnot", nil},
	OpBitAnd:     {"bitand", nil},
	OpBitOr:      {"bitor", nil},
	OpBitXor:     {"bitxor", nil},
	OpLsh:        {"lsh", nil},
	OpRsh:        {"rsh", nil},
	OpURsh:       {"ursh", nil},
	OpEq:         {"eq", nil},
	OpNe:         {"ne", nil},
	OpStrictEq:   {"stricteq", nil},
	OpStrictNe:   {"strictne", nil},
	OpLt:         {"lt", nil},
	OpLe:         {"le", nil},
	OpGt:         {"gt", nil},
	OpGe:         {"ge", nil},
	OpInstanceOf: {"instanceof", nil},
	OpIn:         {"in", nil},
	OpTypeOf:     {"typeof", nil},
	OpClosure:    {"closure", []Operand{OperandU16}},
	OpArrayLit:   {"arraylit", []Operand{OperandU16}},
	OpObjectLit:  {"objectlit", []Operand{OperandU16}},
	OpEnterWith:  {"enterwith", nil},
	OpLeaveWith:  {"leavewith", nil},

	OpDup:         {"dup", nil},
	OpDup2:        {"dup2", nil},
	OpSwap:        {"swap", nil},
	OpPop:         {"pop", nil},
	OpPopResult:   {"popresult", nil},
	OpZero:        {"zero", nil},
	OpOne:         {"one", nil},
	OpShort:       {"short", []Operand{OperandS16}},
	OpInt:         {"int", []Operand{OperandS32}},
	OpScopeSave:   {"scopesave", []Operand{OperandU8}},
	OpScopeLoad:   {"scopeload", []Operand{OperandU8}},
	OpLocalLoad:   {"localload", []Operand{OperandU8}},
	OpLocalSave:   {"localsave", []Operand{OperandU8}},
	OpSetConstVar: {"setconstvar", []Operand{OperandU8}},
	OpGosub:       {"gosub", []Operand{OperandS16}},
	OpStartSub:    {"startsub", []Operand{OperandU8}},
	OpRetsub:      {"retsub", []Operand{OperandU8}},
	OpEnumInit:    {"enuminit", []Operand{OperandU8}},
	OpEnumNext:    {"enumnext", []Operand{OperandU8}},
	OpEnumId:      {"enumid", []Operand{OperandU8}},
	OpArguments:   {"arguments", nil},
	OpRetUndef:    {"retundef", nil},
	OpYield:       {"yield", nil},
	OpDebugger:    {"debugger", nil},
}

var opcodesByName = func() map[string]Opcode {
	ret := make(map[string]Opcode, len(opcodeInfos))
	for op, info := range opcodeInfos {
		ret[info.name] = op
	}
	return ret
}()

// Lookup returns the opcode with the given mnemonic.
func Lookup(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

func (o Opcode) Valid() bool {
	_, ok := opcodeInfos[o]
	return ok
}

func (o Opcode) IsPseudo() bool {
	return o < 0
}

func (o Opcode) String() string {
	if info, ok := opcodeInfos[o]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(%d)", int8(o))
}

// Operands returns the operand layout following the opcode byte.
func (o Opcode) Operands() []Operand {
	return opcodeInfos[o].operands
}

// Width returns the encoded size of the instruction including the opcode byte.
func (o Opcode) Width() int {
	n := 1
	for _, operand := range opcodeInfos[o].operands {
		n += operand.Width()
	}
	return n
}

// IsJump reports whether the single operand is a relative branch offset.
func (o Opcode) IsJump() bool {
	switch o {
	case OpGoto, OpIfTrue, OpIfFalse, OpGosub:
		return true
	}
	return false
}

// ReadOp decodes the opcode at pc.
func ReadOp(code []byte, pc int) Opcode {
	return Opcode(int8(code[pc]))
}

func ReadU8(code []byte, pc int) int {
	return int(code[pc])
}

func ReadU16(code []byte, pc int) int {
	return int(code[pc])<<8 | int(code[pc+1])
}

func ReadS16(code []byte, pc int) int {
	return int(int16(uint16(code[pc])<<8 | uint16(code[pc+1])))
}

func ReadS32(code []byte, pc int) int {
	return int(int32(uint32(code[pc])<<24 | uint32(code[pc+1])<<16 | uint32(code[pc+2])<<8 | uint32(code[pc+3])))
}

func readOperand(code []byte, pc int, operand Operand) int {
	switch operand {
	case OperandU8:
		return ReadU8(code, pc)
	case OperandU16:
		return ReadU16(code, pc)
	case OperandS16:
		return ReadS16(code, pc)
	case OperandS32:
		return ReadS32(code, pc)
	}
	panic(fmt.Errorf("bad operand kind %d", operand))
}

func appendOperand(code []byte, operand Operand, v int) []byte {
	switch operand {
	case OperandU8:
		return append(code, byte(v))
	case OperandU16, OperandS16:
		return append(code, byte(v>>8), byte(v))
	case OperandS32:
		return append(code, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	panic(fmt.Errorf("bad operand kind %d", operand))
}

func operandFits(operand Operand, v int) bool {
	switch operand {
	case OperandU8:
		return v >= 0 && v <= 0xff
	case OperandU16:
		return v >= 0 && v <= 0xffff
	case OperandS16:
		return v >= -0x8000 && v <= 0x7fff
	case OperandS32:
		return v >= -0x80000000 && v <= 0x7fffffff
	}
	return false
}

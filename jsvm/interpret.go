package jsvm

import (
	"fmt"
	"math"

	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

type outcome uint8

const (
	outcomeReturn outcome = iota
	outcomeYield
)

type injectKind uint8

const (
	injectNone injectKind = iota
	// injectValue delivers value as the result of the suspended instruction
	injectValue
	injectThrow
	injectClose
)

type injection struct {
	kind  injectKind
	value values.Value
}

// interpret runs frame and the frames it calls until the outermost boundary
// frame of the chain returns, throws, or a generator frame yields. With a
// non-empty injection, frame is a suspended frame positioned at the
// instruction that suspended it.
func (cx *Context) interpret(frame *Frame, inj injection) (ret values.Value, out outcome, err error) {
	prev := cx.current
	defer func() {
		cx.current = prev
		if p := recover(); p != nil {
			overrun, ok := p.(frameOverrun)
			if !ok {
				panic(p)
			}
			ret, out = nil, outcomeReturn
			err = &InternalError{
				Function: overrun.frame.code.DisplayName(),
				PC:       overrun.frame.pc,
				Err:      errFrameOverrun,
			}
		}
	}()

	var throwing error
	switch inj.kind {
	case injectValue:
		frame.push(inj.value)
		frame.pc += bytecode.ReadOp(frame.code.Code, frame.pc).Width()
	case injectThrow:
		throwing = cx.throwValue(frame, inj.value)
	case injectClose:
		throwing = errGeneratorClosed
	}

	for {
		cx.current = frame

		if throwing != nil {
			next, err := cx.unwind(frame, throwing)
			throwing = nil
			if err != nil {
				return nil, outcomeReturn, err
			}
			frame = next
			continue
		}

		if cx.config.InstructionThreshold > 0 {
			cx.instructions++
			if cx.instructions >= cx.config.InstructionThreshold {
				cx.instructions = 0
				if err := cx.observe(); err != nil {
					return nil, outcomeReturn, err
				}
			}
		}

		code := frame.code.Code
		pc := frame.pc
		if pc >= len(code) {
			next, v, done := cx.returnFrom(frame, frame.completion())
			if done {
				return v, outcomeReturn, nil
			}
			frame = next
			continue
		}

		if cx.debugger != nil {
			if line := frame.code.LineAt(pc); line != frame.line {
				frame.line = line
				if line > 0 {
					cx.debugger.LineChange(cx, FrameInfo{frame}, line)
				}
			}
		}

		op := bytecode.ReadOp(code, pc)
		next := pc + op.Width()
		var opErr error

		switch op {

		case bytecode.OpNop:

		case bytecode.OpUndefined:
			frame.push(values.Undefined)
		case bytecode.OpNull:
			frame.push(values.Null)
		case bytecode.OpTrue:
			frame.push(true)
		case bytecode.OpFalse:
			frame.push(false)
		case bytecode.OpThis:
			frame.push(frame.this)
		case bytecode.OpNumber:
			frame.push(frame.code.Numbers[bytecode.ReadU16(code, pc+1)])
		case bytecode.OpString:
			frame.push(frame.code.Strings[bytecode.ReadU16(code, pc+1)])
		case bytecode.OpZero:
			frame.push(0.0)
		case bytecode.OpOne:
			frame.push(1.0)
		case bytecode.OpShort:
			frame.push(float64(bytecode.ReadS16(code, pc+1)))
		case bytecode.OpInt:
			frame.push(float64(bytecode.ReadS32(code, pc+1)))

		case bytecode.OpGetName:
			v, err := cx.getName(frame, frame.code.Strings[bytecode.ReadU16(code, pc+1)])
			if err != nil {
				opErr = err
				break
			}
			frame.push(v)
		case bytecode.OpSetName:
			opErr = cx.setName(frame, frame.code.Strings[bytecode.ReadU16(code, pc+1)], frame.peek())
		case bytecode.OpDelName:
			frame.push(cx.deleteName(frame, frame.code.Strings[bytecode.ReadU16(code, pc+1)]))
		case bytecode.OpTypeOfName:
			frame.push(cx.typeOfName(frame, frame.code.Strings[bytecode.ReadU16(code, pc+1)]))

		case bytecode.OpGetVar:
			frame.push(frame.getVar(bytecode.ReadU8(code, pc+1)))
		case bytecode.OpSetVar:
			opErr = cx.setVar(frame, bytecode.ReadU8(code, pc+1), frame.peek())
		case bytecode.OpSetConstVar:
			cx.initConstVar(frame, bytecode.ReadU8(code, pc+1), frame.peek())

		case bytecode.OpGetProp:
			obj := frame.pop()
			v, err := values.GetProperty(obj, frame.code.Strings[bytecode.ReadU16(code, pc+1)])
			if err != nil {
				opErr = err
				break
			}
			frame.push(v)
		case bytecode.OpSetProp:
			v := frame.pop()
			obj := frame.pop()
			if err := values.SetProperty(obj, frame.code.Strings[bytecode.ReadU16(code, pc+1)], v); err != nil {
				opErr = err
				break
			}
			frame.push(v)
		case bytecode.OpDelProp:
			obj := frame.pop()
			ok, err := values.DeleteProperty(obj, frame.code.Strings[bytecode.ReadU16(code, pc+1)])
			if err != nil {
				opErr = err
				break
			}
			frame.push(ok)
		case bytecode.OpGetElem:
			key := frame.pop()
			obj := frame.pop()
			v, err := values.GetProperty(obj, values.ToString(key))
			if err != nil {
				opErr = err
				break
			}
			frame.push(v)
		case bytecode.OpSetElem:
			v := frame.pop()
			key := frame.pop()
			obj := frame.pop()
			if err := values.SetProperty(obj, values.ToString(key), v); err != nil {
				opErr = err
				break
			}
			frame.push(v)
		case bytecode.OpDelElem:
			key := frame.pop()
			obj := frame.pop()
			ok, err := values.DeleteProperty(obj, values.ToString(key))
			if err != nil {
				opErr = err
				break
			}
			frame.push(ok)

		case bytecode.OpCall:
			callee, err := cx.call(frame, bytecode.ReadU16(code, pc+1))
			if err != nil {
				opErr = err
				break
			}
			if callee != nil {
				frame = callee
				continue
			}
		case bytecode.OpNew:
			callee, err := cx.construct(frame, bytecode.ReadU16(code, pc+1))
			if err != nil {
				opErr = err
				break
			}
			if callee != nil {
				frame = callee
				continue
			}

		case bytecode.OpReturn:
			caller, v, done := cx.returnFrom(frame, frame.pop())
			if done {
				return v, outcomeReturn, nil
			}
			frame = caller
			continue
		case bytecode.OpRetUndef:
			caller, v, done := cx.returnFrom(frame, frame.completion())
			if done {
				return v, outcomeReturn, nil
			}
			frame = caller
			continue
		case bytecode.OpThrow:
			throwing = cx.throwValue(frame, frame.pop())
			continue

		case bytecode.OpGoto:
			frame.pc = pc + bytecode.ReadS16(code, pc+1)
			continue
		case bytecode.OpIfTrue:
			if values.ToBoolean(frame.pop()) {
				frame.pc = pc + bytecode.ReadS16(code, pc+1)
				continue
			}
		case bytecode.OpIfFalse:
			if !values.ToBoolean(frame.pop()) {
				frame.pc = pc + bytecode.ReadS16(code, pc+1)
				continue
			}

		case bytecode.OpAdd:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.Add(a, b))
		case bytecode.OpSub:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.ToNumber(a) - values.ToNumber(b))
		case bytecode.OpMul:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.ToNumber(a) * values.ToNumber(b))
		case bytecode.OpDiv:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.ToNumber(a) / values.ToNumber(b))
		case bytecode.OpMod:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.Mod(a, b))
		case bytecode.OpNeg:
			frame.push(-values.ToNumber(frame.pop()))
		case bytecode.OpPos:
			frame.push(values.ToNumber(frame.pop()))
		case bytecode.OpNot:
			frame.push(!values.ToBoolean(frame.pop()))
		case bytecode.OpBitNot:
			frame.push(float64(^values.ToInt32(frame.pop())))
		case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpLsh, bytecode.OpRsh, bytecode.OpURsh:
			b := frame.pop()
			a := frame.pop()
			frame.push(bitwise(op, a, b))
		case bytecode.OpEq:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.LooseEquals(a, b))
		case bytecode.OpNe:
			b := frame.pop()
			a := frame.pop()
			frame.push(!values.LooseEquals(a, b))
		case bytecode.OpStrictEq:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.StrictEquals(a, b))
		case bytecode.OpStrictNe:
			b := frame.pop()
			a := frame.pop()
			frame.push(!values.StrictEquals(a, b))
		case bytecode.OpLt:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.LessThan(a, b))
		case bytecode.OpLe:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.LessEqual(a, b))
		case bytecode.OpGt:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.LessThan(b, a))
		case bytecode.OpGe:
			b := frame.pop()
			a := frame.pop()
			frame.push(values.LessEqual(b, a))
		case bytecode.OpInstanceOf:
			ctor := frame.pop()
			v := frame.pop()
			fn, ok := ctor.(Callable)
			if !ok {
				opErr = values.TypeError("%s is not a function", values.ToString(ctor))
				break
			}
			proto, _ := fn.Get("prototype").(values.Scriptable)
			frame.push(values.InstanceOf(v, proto))
		case bytecode.OpIn:
			obj := frame.pop()
			key := frame.pop()
			ok, err := values.In(key, obj)
			if err != nil {
				opErr = err
				break
			}
			frame.push(ok)
		case bytecode.OpTypeOf:
			frame.push(values.TypeOf(frame.pop()))

		case bytecode.OpClosure:
			frame.push(newClosure(frame.code.Nested[bytecode.ReadU16(code, pc+1)], frame.scope))
		case bytecode.OpArrayLit:
			frame.push(values.NewArray(nil, frame.popN(bytecode.ReadU16(code, pc+1))...))
		case bytecode.OpObjectLit:
			kvs := frame.popN(bytecode.ReadU16(code, pc+1) * 2)
			obj := values.NewObject(nil)
			for i := 0; i < len(kvs); i += 2 {
				obj.Put(values.ToString(kvs[i]), kvs[i+1])
			}
			frame.push(obj)

		case bytecode.OpEnterWith:
			obj, err := values.ToObject(frame.pop())
			if err != nil {
				opErr = err
				break
			}
			frame.scope = values.NewWith(obj, frame.scope)
		case bytecode.OpLeaveWith:
			frame.scope = frame.scope.ParentScope()

		case bytecode.OpDup:
			frame.push(frame.peek())
		case bytecode.OpDup2:
			a := frame.slots[frame.sp-2]
			b := frame.slots[frame.sp-1]
			frame.push(a)
			frame.push(b)
		case bytecode.OpSwap:
			frame.slots[frame.sp-1], frame.slots[frame.sp-2] = frame.slots[frame.sp-2], frame.slots[frame.sp-1]
		case bytecode.OpPop:
			frame.pop()
		case bytecode.OpPopResult:
			frame.result = frame.pop()

		case bytecode.OpScopeSave:
			frame.setLocal(bytecode.ReadU8(code, pc+1), frame.scope)
		case bytecode.OpScopeLoad:
			scope, ok := frame.local(bytecode.ReadU8(code, pc+1)).(values.Scriptable)
			if !ok {
				return nil, outcomeReturn, cx.internalError(frame, fmt.Errorf("scopeload from a slot without a scope"))
			}
			frame.scope = scope
		case bytecode.OpLocalLoad:
			frame.push(frame.local(bytecode.ReadU8(code, pc+1)))
		case bytecode.OpLocalSave:
			frame.setLocal(bytecode.ReadU8(code, pc+1), frame.pop())

		case bytecode.OpGosub:
			frame.push(returnAddress(next))
			frame.pc = pc + bytecode.ReadS16(code, pc+1)
			continue
		case bytecode.OpStartSub:
			frame.setLocal(bytecode.ReadU8(code, pc+1), frame.pop())
		case bytecode.OpRetsub:
			switch v := frame.local(bytecode.ReadU8(code, pc+1)).(type) {
			case returnAddress:
				frame.pc = int(v)
			case error:
				// rethrow the exception the finally block was entered with
				throwing = v
			default:
				return nil, outcomeReturn, cx.internalError(frame, fmt.Errorf("retsub without a return address"))
			}
			continue

		case bytecode.OpEnumInit:
			frame.setLocal(bytecode.ReadU8(code, pc+1), newEnumerator(frame.pop()))
		case bytecode.OpEnumNext, bytecode.OpEnumId:
			e, ok := frame.local(bytecode.ReadU8(code, pc+1)).(*enumerator)
			if !ok {
				return nil, outcomeReturn, cx.internalError(frame, fmt.Errorf("%s without an enumerator", op))
			}
			if op == bytecode.OpEnumNext {
				frame.push(e.next())
			} else {
				frame.push(e.current)
			}

		case bytecode.OpArguments:
			frame.push(cx.arguments(frame))

		case bytecode.OpYield:
			if frame.generator == nil {
				return nil, outcomeReturn, cx.internalError(frame, fmt.Errorf("yield outside generator"))
			}
			v := frame.pop()
			saved := frame.clone()
			saved.parent = nil
			frame.generator.frame = saved
			return v, outcomeYield, nil

		case bytecode.OpDebugger:
			if cx.debugger != nil {
				cx.debugger.DebuggerStatement(cx, FrameInfo{frame})
			}

		default:
			return nil, outcomeReturn, cx.internalError(frame, fmt.Errorf("%w: %s", bytecode.ErrBadInstruction, op))
		}

		if opErr != nil {
			throwing = cx.toThrowable(frame, opErr)
			if !catchable(throwing) {
				return nil, outcomeReturn, throwing
			}
			continue
		}
		frame.pc = next
	}
}

func (cx *Context) internalError(f *Frame, err error) *InternalError {
	return &InternalError{
		Function: f.code.DisplayName(),
		PC:       f.pc,
		Err:      err,
	}
}

func bitwise(op bytecode.Opcode, a, b values.Value) float64 {
	switch op {
	case bytecode.OpBitAnd:
		return float64(values.ToInt32(a) & values.ToInt32(b))
	case bytecode.OpBitOr:
		return float64(values.ToInt32(a) | values.ToInt32(b))
	case bytecode.OpBitXor:
		return float64(values.ToInt32(a) ^ values.ToInt32(b))
	case bytecode.OpLsh:
		return float64(values.ToInt32(a) << (values.ToUint32(b) & 31))
	case bytecode.OpRsh:
		return float64(values.ToInt32(a) >> (values.ToUint32(b) & 31))
	case bytecode.OpURsh:
		return float64(values.ToUint32(a) >> (values.ToUint32(b) & 31))
	}
	return math.NaN()
}

// call performs the Call instruction at frame's pc. It returns the new frame
// for an interpreted callee; other results are pushed onto frame's stack.
func (cx *Context) call(frame *Frame, argc int) (*Frame, error) {
	args := frame.popN(argc)
	this := frame.pop()
	callee := frame.pop()

	switch fn := callee.(type) {
	case *Function:
		if fn.code.Generator {
			g, err := cx.newGenerator(fn, this, args)
			if err != nil {
				return nil, err
			}
			frame.push(g)
			return nil, nil
		}
		if fn.code.Kind == bytecode.KindScript {
			v, err := fn.exec(cx, frame.scope, false)
			if err != nil {
				return nil, err
			}
			frame.push(v)
			return nil, nil
		}
		next, err := cx.newFrame(fn, fn.scope, cx.thisFor(fn, this), args, frame)
		if err != nil {
			return nil, err
		}
		cx.enterFrame(next)
		return next, nil

	case Callable:
		v, err := cx.callNative(fn, frame.scope, this, args)
		if err != nil {
			return nil, err
		}
		frame.push(v)
		return nil, nil
	}

	return nil, values.TypeError("%s is not a function", values.ToString(callee))
}

func (cx *Context) construct(frame *Frame, argc int) (*Frame, error) {
	args := frame.popN(argc)
	ctor := frame.pop()

	switch fn := ctor.(type) {
	case *Function:
		if !fn.constructible() {
			return nil, values.TypeError("%s is not a constructor", fn.code.DisplayName())
		}
		next, err := cx.newFrame(fn, fn.scope, fn.newInstance(), args, frame)
		if err != nil {
			return nil, err
		}
		next.construct = true
		cx.enterFrame(next)
		return next, nil

	case Constructor:
		v, err := cx.constructNative(fn, frame.scope, args)
		if err != nil {
			return nil, err
		}
		frame.push(v)
		return nil, nil
	}

	return nil, values.TypeError("%s is not a constructor", values.ToString(ctor))
}

// returnFrom pops f. done reports that f was the outermost frame of the
// current interpret call.
func (cx *Context) returnFrom(f *Frame, v values.Value) (caller *Frame, result values.Value, done bool) {
	if f.construct {
		if _, ok := v.(values.Scriptable); !ok {
			v = f.this
		}
	}
	cx.exitFrame(f, v, nil)
	if f.boundary {
		return nil, v, true
	}
	caller = f.parent
	caller.push(v)
	caller.pc += bytecode.ReadOp(caller.code.Code, caller.pc).Width()
	return caller, v, false
}

// unwind looks for a handler for the in-flight exception, starting at frame
// and moving outward. It returns the frame to continue in, or the exception
// when the boundary frame has no handler.
func (cx *Context) unwind(frame *Frame, throwing error) (*Frame, error) {
	_, closing := throwing.(generatorClosed)
	for f := frame; ; f = f.parent {
		if h, ok := f.code.HandlerFor(f.pc, closing); ok {
			f.resetStack(h.StackDepth)
			if h.ScopeLocal >= 0 {
				if scope, ok := f.local(h.ScopeLocal).(values.Scriptable); ok {
					f.scope = scope
				}
			}
			if h.Kind == bytecode.HandlerCatch {
				f.push(throwing.(*ScriptError).Value)
			} else {
				f.push(throwing)
			}
			f.pc = h.Target
			return f, nil
		}
		cx.exitFrame(f, nil, throwing)
		if f.boundary {
			return nil, throwing
		}
	}
}

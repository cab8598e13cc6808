package jsvm

import (
	"github.com/hazzik/Rhino.Net-sub003/bytecode"
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Debugger receives execution events from a Context.
type Debugger interface {
	EnterFrame(cx *Context, frame FrameInfo)
	ExitFrame(cx *Context, frame FrameInfo, result values.Value, err error)
	LineChange(cx *Context, frame FrameInfo, line int)
	DebuggerStatement(cx *Context, frame FrameInfo)
}

// FrameInfo is a read-only view of a frame.
type FrameInfo struct {
	frame *Frame
}

func framesOf(f *Frame) []FrameInfo {
	var ret []FrameInfo
	for ; f != nil; f = f.parent {
		ret = append(ret, FrameInfo{f})
	}
	return ret
}

func (i FrameInfo) FunctionName() string {
	return i.frame.code.DisplayName()
}

func (i FrameInfo) SourceName() string {
	return i.frame.code.SourceName
}

func (i FrameInfo) Line() int {
	return i.frame.code.LineAt(i.frame.pc)
}

func (i FrameInfo) PC() int {
	return i.frame.pc
}

func (i FrameInfo) Depth() int {
	return i.frame.depth
}

func (i FrameInfo) Code() bytecode.Debuggable {
	return i.frame.code.Debug()
}

func (i FrameInfo) This() values.Value {
	return i.frame.this
}

func (i FrameInfo) Scope() values.Scriptable {
	return i.frame.scope
}

func (i FrameInfo) VarNames() []string {
	names := make([]string, 0, len(i.frame.code.Vars))
	for _, decl := range i.frame.code.Vars {
		names = append(names, decl.Name)
	}
	return names
}

func (i FrameInfo) Var(name string) (values.Value, bool) {
	idx := i.frame.code.VarIndex(name)
	if idx < 0 {
		return nil, false
	}
	return i.frame.getVar(idx), true
}

// Stack returns a copy of the operand stack, bottom first.
func (i FrameInfo) Stack() []values.Value {
	f := i.frame
	ret := make([]values.Value, f.sp-f.stackBase)
	copy(ret, f.slots[f.stackBase:f.sp])
	return ret
}

func (i FrameInfo) Parent() (FrameInfo, bool) {
	if i.frame.parent == nil {
		return FrameInfo{}, false
	}
	return FrameInfo{i.frame.parent}, true
}

func (cx *Context) enterFrame(f *Frame) {
	if cx.debugger != nil {
		cx.debugger.EnterFrame(cx, FrameInfo{f})
	}
}

func (cx *Context) exitFrame(f *Frame, result values.Value, err error) {
	if cx.debugger != nil {
		cx.debugger.ExitFrame(cx, FrameInfo{f}, result, err)
	}
}

package jsvm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazzik/Rhino.Net-sub003/values"
)

var ErrContextBusy = errors.New("context is in use by another goroutine")

var errFrameOverrun = errors.New("frame array overrun")

type StackElement struct {
	FunctionName string
	SourceName   string
	Line         int
}

func (s StackElement) String() string {
	return fmt.Sprintf("\tat %s (%s:%d)", s.FunctionName, s.SourceName, s.Line)
}

// ScriptError is a script value thrown past the outermost frame of an
// activation.
type ScriptError struct {
	Value      values.Value
	SourceName string
	Line       int
	// Stack lists the active frames at the throw site, innermost first.
	Stack []StackElement
	cause error
}

func (e *ScriptError) Error() string {
	msg := values.ToString(e.Value)
	if e.SourceName == "" && e.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%s (%s#%d)", msg, e.SourceName, e.Line)
}

func (e *ScriptError) Unwrap() error {
	return e.cause
}

// Name returns the error name when the thrown value is an error object.
func (e *ScriptError) Name() string {
	name, _, _ := values.ErrorInfo(e.Value)
	return name
}

func (e *ScriptError) Message() string {
	if _, msg, ok := values.ErrorInfo(e.Value); ok {
		return msg
	}
	return values.ToString(e.Value)
}

func (e *ScriptError) ScriptStack() string {
	lines := make([]string, 0, len(e.Stack))
	for _, elem := range e.Stack {
		lines = append(lines, elem.String())
	}
	return strings.Join(lines, "\n")
}

// InternalError reports a defective container or an engine invariant
// violation. Script handlers never see it.
type InternalError struct {
	Function string
	PC       int
	Err      error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s at pc %d: %v", e.Function, e.PC, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Aborted reports an activation stopped by the instruction observer or by
// cancellation of the context's context.Context.
type Aborted struct {
	Err error
}

func (e *Aborted) Error() string {
	return fmt.Sprintf("execution aborted: %v", e.Err)
}

func (e *Aborted) Unwrap() error {
	return e.Err
}

type generatorClosed struct{}

func (generatorClosed) Error() string {
	return "generator closed"
}

// errGeneratorClosed unwinds a generator on close. Only finally handlers run
// for it.
var errGeneratorClosed error = generatorClosed{}

type frameOverrun struct {
	frame *Frame
}

func catchable(err error) bool {
	switch err.(type) {
	case *ScriptError, generatorClosed:
		return true
	}
	return false
}

func stackOf(f *Frame) []StackElement {
	var ret []StackElement
	for ; f != nil; f = f.parent {
		ret = append(ret, StackElement{
			FunctionName: f.code.DisplayName(),
			SourceName:   f.code.SourceName,
			Line:         f.code.LineAt(f.pc),
		})
	}
	return ret
}

// throwValue creates the in-flight exception for a script throw at the
// current position of frame.
func (cx *Context) throwValue(frame *Frame, v values.Value) *ScriptError {
	return newScriptError(frame, v, nil)
}

func newScriptError(frame *Frame, v values.Value, cause error) *ScriptError {
	e := &ScriptError{
		Value: v,
		cause: cause,
	}
	if frame != nil {
		e.SourceName = frame.code.SourceName
		e.Line = frame.code.LineAt(frame.pc)
		e.Stack = stackOf(frame)
	}
	return e
}

// toThrowable classifies an error raised while executing frame. Script
// errors and engine-raised value errors become catchable exceptions; host
// faults are wrapped with the current position; control signals and
// internal errors pass through unchanged.
func (cx *Context) toThrowable(frame *Frame, err error) error {
	if catchable(err) {
		return err
	}
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		return scriptErr
	}
	var pending *ContinuationPending
	var internal *InternalError
	var aborted *Aborted
	if errors.As(err, &pending) || errors.As(err, &internal) || errors.As(err, &aborted) {
		return err
	}
	var valueErr *values.Error
	if errors.As(err, &valueErr) {
		return newScriptError(frame, values.NewError(valueErr.Name, valueErr.Message), err)
	}
	return newScriptError(frame, values.NewError("Error", err.Error()), err)
}

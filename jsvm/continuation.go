package jsvm

import (
	"errors"

	"github.com/hazzik/Rhino.Net-sub003/values"
)

// Continuation holds a cloned frame chain from a capture point out to the
// continuation root. Resuming never consumes it.
type Continuation struct {
	frame *Frame
}

// Function returns the function the chain was captured under.
func (k *Continuation) Function() *Function {
	f := k.frame
	for f.parent != nil {
		f = f.parent
	}
	return f.function
}

// Frames returns the captured frames, innermost first.
func (k *Continuation) Frames() []FrameInfo {
	return framesOf(k.frame)
}

// ContinuationPending is returned by the drivers when a continuation was
// captured. It is not a script error and script handlers never see it.
type ContinuationPending struct {
	continuation     *Continuation
	applicationState any
}

func (p *ContinuationPending) Error() string {
	return "continuation pending"
}

func (p *ContinuationPending) Continuation() *Continuation {
	return p.continuation
}

func (p *ContinuationPending) ApplicationState() any {
	return p.applicationState
}

func (p *ContinuationPending) SetApplicationState(state any) {
	p.applicationState = state
}

var errCaptureOutsideRoot = &values.Error{
	Name:    "Error",
	Message: "cannot capture continuation from code not started by a continuation-enabled driver or across native frames",
}

// CaptureContinuation clones the running chain up to its continuation root
// and returns a *ContinuationPending. Native callables return it unchanged
// to let it reach the driver.
func (cx *Context) CaptureContinuation() error {
	frame := cx.current
	if frame == nil {
		return errors.New("no script is running")
	}
	for f := frame; ; f = f.parent {
		if f.continuationRoot {
			break
		}
		if f.boundary || f.parent == nil {
			return errCaptureOutsideRoot
		}
	}
	k := &Continuation{
		frame: cloneChain(frame),
	}
	cx.logger.DebugContext(cx.ctx, "continuation captured",
		"function", frame.code.DisplayName(),
		"line", frame.code.LineAt(frame.pc),
	)
	return &ContinuationPending{
		continuation: k,
	}
}

// ResumeContinuation runs a fresh clone of k's chain with value as the
// result of the call that captured it. scope becomes the top-level scope for
// calls without a receiver.
func (cx *Context) ResumeContinuation(k *Continuation, scope values.Scriptable, value values.Value) (values.Value, error) {
	if k == nil || k.frame == nil {
		return nil, errors.New("invalid continuation")
	}
	exit, err := cx.enter()
	if err != nil {
		return nil, err
	}
	defer exit()
	defer cx.withTopScope(scope)()

	chain := cloneChain(k.frame)
	attach(chain, cx.current)
	cx.logger.DebugContext(cx.ctx, "continuation resumed",
		"function", chain.code.DisplayName(),
		"line", chain.code.LineAt(chain.pc),
	)
	v, _, err := cx.interpret(chain, injection{
		kind:  injectValue,
		value: value,
	})
	return v, err
}

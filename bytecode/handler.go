package bytecode

type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
)

func (k HandlerKind) String() string {
	if k == HandlerFinally {
		return "finally"
	}
	return "catch"
}

// Handler maps the instruction range [Start, End) to a handler entry point.
//
// On entry the operand stack is cut back to StackDepth and one value is
// pushed: the thrown value for catch handlers, the in-flight throwable for
// finally handlers (to be stored by StartSub). When ScopeLocal is not negative
// the scope saved in that temp local by ScopeSave is restored first.
type Handler struct {
	Start      int
	End        int
	Target     int
	Kind       HandlerKind
	StackDepth int
	ScopeLocal int
}

func (h Handler) Covers(pc int) bool {
	return pc >= h.Start && pc < h.End
}

// HandlerFor returns the innermost handler covering pc. With finallyOnly set,
// catch handlers are skipped.
func (f *Function) HandlerFor(pc int, finallyOnly bool) (Handler, bool) {
	var best Handler
	found := false
	for _, h := range f.Handlers {
		if !h.Covers(pc) {
			continue
		}
		if finallyOnly && h.Kind != HandlerFinally {
			continue
		}
		if !found ||
			h.Start > best.Start ||
			h.Start == best.Start && h.End < best.End {
			best = h
			found = true
		}
	}
	return best, found
}

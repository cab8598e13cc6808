package jsvm

import "github.com/hazzik/Rhino.Net-sub003/values"

// enumerator is the for-in state kept in a temp local.
type enumerator struct {
	obj     values.Scriptable
	ids     []string
	index   int
	current string
}

func newEnumerator(v values.Value) *enumerator {
	obj, ok := v.(values.Scriptable)
	if !ok {
		return &enumerator{}
	}
	return &enumerator{
		obj: obj,
		ids: values.ForInIds(obj),
	}
}

// next advances to the next id still present on the object.
func (e *enumerator) next() bool {
	for e.index < len(e.ids) {
		id := e.ids[e.index]
		e.index++
		if e.obj.Has(id) {
			e.current = id
			return true
		}
	}
	return false
}

func (e *enumerator) clone() *enumerator {
	c := *e
	return &c
}

package values

import (
	"slices"
	"strconv"
	"strings"
)

// Array is a dense array object. Index properties and length live in the
// element slice; everything else falls through to the embedded Object.
type Array struct {
	*Object
	elems []Value
}

var _ Scriptable = new(Array)

func NewArray(proto Scriptable, elems ...Value) *Array {
	obj := NewObject(proto)
	obj.class = "Array"
	return &Array{
		Object: obj,
		elems:  elems,
	}
}

func (a *Array) Len() int {
	return len(a.elems)
}

func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.elems) {
		return Undefined
	}
	return a.elems[i]
}

func (a *Array) Elements() []Value {
	return a.elems
}

// Clone copies the elements and own properties of a.
func (a *Array) Clone() *Array {
	return &Array{
		Object: a.Object.Clone(),
		elems:  slices.Clone(a.elems),
	}
}

func (a *Array) Append(vs ...Value) {
	a.elems = append(a.elems, vs...)
}

// arrayIndex parses a canonical array index.
func arrayIndex(name string) (int, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

func (a *Array) Get(name string) Value {
	if name == "length" {
		return float64(len(a.elems))
	}
	if i, ok := arrayIndex(name); ok {
		if i < len(a.elems) {
			return a.elems[i]
		}
		return NotFound
	}
	return a.Object.Get(name)
}

func (a *Array) Has(name string) bool {
	if name == "length" {
		return true
	}
	if i, ok := arrayIndex(name); ok {
		return i < len(a.elems)
	}
	return a.Object.Has(name)
}

func (a *Array) Put(name string, value Value) bool {
	if name == "length" {
		n := ToUint32(value)
		if int(n) <= len(a.elems) {
			a.elems = a.elems[:n]
			return true
		}
		for len(a.elems) < int(n) {
			a.elems = append(a.elems, Undefined)
		}
		return true
	}
	if i, ok := arrayIndex(name); ok {
		for len(a.elems) <= i {
			a.elems = append(a.elems, Undefined)
		}
		a.elems[i] = value
		return true
	}
	return a.Object.Put(name, value)
}

func (a *Array) Delete(name string) bool {
	if name == "length" {
		return false
	}
	if i, ok := arrayIndex(name); ok {
		if i < len(a.elems) {
			a.elems[i] = Undefined
		}
		return true
	}
	return a.Object.Delete(name)
}

func (a *Array) Ids() []string {
	ret := make([]string, 0, len(a.elems))
	for i := range a.elems {
		ret = append(ret, strconv.Itoa(i))
	}
	return append(ret, a.Object.Ids()...)
}

// Join converts elements with ToString, rendering undefined and null as empty.
func (a *Array) Join(sep string) string {
	var b strings.Builder
	for i, v := range a.elems {
		if i > 0 {
			b.WriteString(sep)
		}
		if IsNullish(v) {
			continue
		}
		b.WriteString(ToString(v))
	}
	return b.String()
}

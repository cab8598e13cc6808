package values

import "slices"

type slot struct {
	value Value
	attrs Attributes
}

// Object is an ordinary property bag with a prototype and a parent scope.
type Object struct {
	class  string
	proto  Scriptable
	parent Scriptable
	slots  map[string]*slot
	order  []string
}

var _ Scriptable = new(Object)

func NewObject(proto Scriptable) *Object {
	return &Object{
		class: "Object",
		proto: proto,
	}
}

// NewScope creates a scope object whose lexical parent is parent.
func NewScope(class string, parent Scriptable) *Object {
	return &Object{
		class:  class,
		parent: parent,
	}
}

// NewTopLevel creates an empty global scope.
func NewTopLevel() *Object {
	return &Object{
		class: "global",
	}
}

func (o *Object) ClassName() string {
	return o.class
}

func (o *Object) SetClassName(name string) {
	o.class = name
}

func (o *Object) Prototype() Scriptable {
	return o.proto
}

func (o *Object) SetPrototype(proto Scriptable) {
	o.proto = proto
}

func (o *Object) ParentScope() Scriptable {
	return o.parent
}

func (o *Object) SetParentScope(parent Scriptable) {
	o.parent = parent
}

func (o *Object) own(name string) *slot {
	if o.slots == nil {
		return nil
	}
	return o.slots[name]
}

// GetOwn looks up name without consulting the prototype chain.
func (o *Object) GetOwn(name string) (Value, bool) {
	if s := o.own(name); s != nil {
		return s.value, true
	}
	return nil, false
}

func (o *Object) HasOwn(name string) bool {
	return o.own(name) != nil
}

func (o *Object) Get(name string) Value {
	if s := o.own(name); s != nil {
		return s.value
	}
	if o.proto != nil {
		return o.proto.Get(name)
	}
	return NotFound
}

func (o *Object) Has(name string) bool {
	if o.own(name) != nil {
		return true
	}
	if o.proto != nil {
		return o.proto.Has(name)
	}
	return false
}

func (o *Object) Put(name string, value Value) bool {
	if s := o.own(name); s != nil {
		if s.attrs&(ReadOnly|UninitializedConst) != 0 {
			return false
		}
		s.value = value
		return true
	}
	o.Define(name, value, 0)
	return true
}

// Define creates or replaces an own property with the given attributes.
func (o *Object) Define(name string, value Value, attrs Attributes) {
	if o.slots == nil {
		o.slots = make(map[string]*slot)
	}
	if s, ok := o.slots[name]; ok {
		s.value = value
		s.attrs = attrs
		return
	}
	o.slots[name] = &slot{
		value: value,
		attrs: attrs,
	}
	o.order = append(o.order, name)
}

// InitConst performs the initialising write of a const property. It returns
// false when the property is not an uninitialised const.
func (o *Object) InitConst(name string, value Value) bool {
	s := o.own(name)
	if s == nil || s.attrs&UninitializedConst == 0 {
		return false
	}
	s.value = value
	s.attrs &^= UninitializedConst
	s.attrs |= ReadOnly
	return true
}

// Clone returns a shallow copy of o: own properties and their attributes
// are copied, property values are shared.
func (o *Object) Clone() *Object {
	c := &Object{
		class:  o.class,
		proto:  o.proto,
		parent: o.parent,
		order:  slices.Clone(o.order),
	}
	if o.slots != nil {
		c.slots = make(map[string]*slot, len(o.slots))
		for name, s := range o.slots {
			cp := *s
			c.slots[name] = &cp
		}
	}
	return c
}

func (o *Object) AttributesOf(name string) (Attributes, bool) {
	if s := o.own(name); s != nil {
		return s.attrs, true
	}
	return 0, false
}

func (o *Object) Delete(name string) bool {
	s := o.own(name)
	if s == nil {
		return true
	}
	if s.attrs&Permanent != 0 {
		return false
	}
	delete(o.slots, name)
	for i, n := range o.order {
		if n == name {
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

func (o *Object) Ids() []string {
	ret := make([]string, 0, len(o.order))
	for _, name := range o.order {
		if o.slots[name].attrs&DontEnum == 0 {
			ret = append(ret, name)
		}
	}
	return ret
}

// ForInIds returns the enumerable names of obj and its prototypes, own
// names first, without duplicates.
func ForInIds(obj Scriptable) []string {
	seen := make(map[string]bool)
	var ret []string
	for o := obj; o != nil; o = o.Prototype() {
		for _, id := range o.Ids() {
			if seen[id] {
				continue
			}
			seen[id] = true
			ret = append(ret, id)
		}
	}
	return ret
}

package jsvm

import (
	"github.com/hazzik/Rhino.Net-sub003/values"
)

// lookup returns the first scope on the chain that has name.
func lookup(scope values.Scriptable, name string) values.Scriptable {
	for s := scope; s != nil; s = s.ParentScope() {
		if s.Has(name) {
			return s
		}
	}
	return nil
}

func (cx *Context) getName(f *Frame, name string) (values.Value, error) {
	s := lookup(f.scope, name)
	if s == nil {
		return nil, values.ReferenceError("%s is not defined", name)
	}
	v := s.Get(name)
	if v == values.NotFound {
		return values.Undefined, nil
	}
	return v, nil
}

func (cx *Context) setName(f *Frame, name string, v values.Value) error {
	s := lookup(f.scope, name)
	if s == nil {
		if f.code.Strict {
			return values.ReferenceError("assignment to undeclared variable %s", name)
		}
		s = values.TopLevel(f.scope)
	}
	if !s.Put(name, v) {
		if f.code.Strict && !isConst(s, name) {
			return values.TypeError("%s is read-only", name)
		}
		return cx.constWrite(name)
	}
	return nil
}

// isConst reports whether scope holds name as a const binding.
func isConst(scope values.Scriptable, name string) bool {
	r, ok := scope.(attributeReader)
	if !ok {
		return false
	}
	attrs, _ := r.AttributesOf(name)
	return attrs&values.Const != 0
}

func (cx *Context) deleteName(f *Frame, name string) bool {
	s := lookup(f.scope, name)
	if s == nil {
		return true
	}
	return s.Delete(name)
}

func (cx *Context) typeOfName(f *Frame, name string) string {
	s := lookup(f.scope, name)
	if s == nil {
		return "undefined"
	}
	v := s.Get(name)
	if v == values.NotFound {
		return "undefined"
	}
	return values.TypeOf(v)
}

func (cx *Context) constWrite(name string) error {
	if cx.config.ConstWrites == ConstWritesError {
		return values.TypeError("assignment to const %s", name)
	}
	return nil
}

func (cx *Context) setVar(f *Frame, i int, v values.Value) error {
	decl := f.code.Vars[i]
	if f.varScope != nil {
		if !f.varScope.Put(decl.Name, v) {
			return cx.constWrite(decl.Name)
		}
		return nil
	}
	if decl.Const {
		return cx.constWrite(decl.Name)
	}
	f.slots[i] = v
	return nil
}

// initConstVar performs the initialising write of a const variable.
func (cx *Context) initConstVar(f *Frame, i int, v values.Value) {
	name := f.code.Vars[i].Name
	if f.varScope == nil {
		f.slots[i] = v
		return
	}
	if init, ok := f.varScope.(constInitializer); ok && init.InitConst(name, v) {
		return
	}
	if def, ok := f.varScope.(definer); ok {
		def.Define(name, v, values.ReadOnly|values.Permanent|values.Const)
		return
	}
	f.varScope.Put(name, v)
}

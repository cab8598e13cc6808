package values

// withScope places an object on the scope chain for a with statement.
type withScope struct {
	obj    Scriptable
	parent Scriptable
}

// NewWith returns a scope that resolves names against obj before parent.
func NewWith(obj Scriptable, parent Scriptable) Scriptable {
	return &withScope{
		obj:    obj,
		parent: parent,
	}
}

// WithObject returns the object a with scope was created for.
func WithObject(s Scriptable) (Scriptable, bool) {
	w, ok := s.(*withScope)
	if !ok {
		return nil, false
	}
	return w.obj, true
}

func (w *withScope) ClassName() string {
	return "With"
}

func (w *withScope) Get(name string) Value {
	return w.obj.Get(name)
}

func (w *withScope) Has(name string) bool {
	return w.obj.Has(name)
}

func (w *withScope) Put(name string, value Value) bool {
	return w.obj.Put(name, value)
}

func (w *withScope) Delete(name string) bool {
	return w.obj.Delete(name)
}

func (w *withScope) Prototype() Scriptable {
	return w.obj.Prototype()
}

func (w *withScope) ParentScope() Scriptable {
	return w.parent
}

func (w *withScope) Ids() []string {
	return w.obj.Ids()
}

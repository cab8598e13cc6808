package values

// Value is any script value: Undefined, Null, bool, float64, string or a
// Scriptable.
type Value = any

type undefinedType struct{}

type nullType struct{}

type notFoundType struct{}

var (
	Undefined = undefinedType{}
	Null      = nullType{}

	// NotFound is returned by Scriptable.Get for absent properties. It is
	// never a script value.
	NotFound = notFoundType{}
)

func (undefinedType) String() string { return "undefined" }
func (nullType) String() string      { return "null" }
func (notFoundType) String() string  { return "<not found>" }

type Attributes uint8

const (
	ReadOnly Attributes = 1 << iota
	DontEnum
	Permanent
	// UninitializedConst marks a const property whose initialising write has
	// not happened yet.
	UninitializedConst
	// Const marks a property declared const, before and after initialisation.
	Const
)

// Scriptable is the object and scope contract the engine consumes.
type Scriptable interface {
	ClassName() string
	// Get returns NotFound when the property is absent along the prototype chain.
	Get(name string) Value
	Has(name string) bool
	// Put returns false when the property rejects the write.
	Put(name string, value Value) bool
	// Delete returns false when the property is permanent.
	Delete(name string) bool
	Prototype() Scriptable
	ParentScope() Scriptable
	// Ids returns own enumerable property names in insertion order.
	Ids() []string
}

func IsUndefined(v Value) bool {
	return v == Undefined
}

func IsNullish(v Value) bool {
	return v == Undefined || v == Null || v == nil
}

// TopLevel returns the outermost scope of the chain starting at s.
func TopLevel(s Scriptable) Scriptable {
	for s.ParentScope() != nil {
		s = s.ParentScope()
	}
	return s
}

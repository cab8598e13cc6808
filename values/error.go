package values

import "fmt"

// Error is a Go error that the engine turns into a thrown script error
// object of the given constructor name.
type Error struct {
	Name    string
	Message string
}

func (e *Error) Error() string {
	return e.Name + ": " + e.Message
}

func TypeError(format string, args ...any) error {
	return &Error{
		Name:    "TypeError",
		Message: fmt.Sprintf(format, args...),
	}
}

func ReferenceError(format string, args ...any) error {
	return &Error{
		Name:    "ReferenceError",
		Message: fmt.Sprintf(format, args...),
	}
}

func RangeError(format string, args ...any) error {
	return &Error{
		Name:    "RangeError",
		Message: fmt.Sprintf(format, args...),
	}
}

// NewError creates a script error object.
func NewError(name string, message string) *Object {
	obj := NewObject(nil)
	obj.class = "Error"
	obj.Define("name", name, DontEnum)
	obj.Define("message", message, DontEnum)
	return obj
}

// ErrorInfo extracts name and message from a script error object.
func ErrorInfo(v Value) (name string, message string, ok bool) {
	obj, isObj := v.(Scriptable)
	if !isObj || obj.ClassName() != "Error" {
		return "", "", false
	}
	if n := obj.Get("name"); n != NotFound {
		name = ToString(n)
	}
	if m := obj.Get("message"); m != NotFound {
		message = ToString(m)
	}
	return name, message, true
}

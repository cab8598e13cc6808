package values

import (
	"math"
	"strconv"
	"unicode/utf16"
)

func TypeOf(v Value) string {
	switch v := v.(type) {
	case nil, undefinedType:
		return "undefined"
	case nullType:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case Scriptable:
		if v.ClassName() == "Function" {
			return "function"
		}
		return "object"
	}
	return "undefined"
}

func Add(a, b Value) Value {
	pa := ToPrimitive(a)
	pb := ToPrimitive(b)
	if sa, ok := pa.(string); ok {
		return sa + ToString(pb)
	}
	if sb, ok := pb.(string); ok {
		return ToString(pa) + sb
	}
	return ToNumber(pa) + ToNumber(pb)
}

func Mod(a, b Value) float64 {
	return math.Mod(ToNumber(a), ToNumber(b))
}

// Compare evaluates a < b. ok is false when the result is undefined because
// a NaN was involved.
func Compare(a, b Value) (lt bool, ok bool) {
	pa := ToPrimitive(a)
	pb := ToPrimitive(b)
	sa, aStr := pa.(string)
	sb, bStr := pb.(string)
	if aStr && bStr {
		return compareUTF16(sa, sb) < 0, true
	}
	na := ToNumber(pa)
	nb := ToNumber(pb)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, false
	}
	return na < nb, true
}

func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}

func LessThan(a, b Value) bool {
	lt, _ := Compare(a, b)
	return lt
}

func LessEqual(a, b Value) bool {
	gt, ok := Compare(b, a)
	return ok && !gt
}

func StrictEquals(a, b Value) bool {
	switch a := a.(type) {
	case float64:
		bn, ok := b.(float64)
		return ok && a == bn
	case nil:
		return b == nil || b == Undefined
	case undefinedType:
		return b == nil || b == Undefined
	case Scriptable:
		bo, ok := b.(Scriptable)
		return ok && a == bo
	}
	return a == b
}

func LooseEquals(a, b Value) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	switch av := a.(type) {
	case float64:
		switch b.(type) {
		case float64, string, bool:
			return av == ToNumber(b)
		case Scriptable:
			return LooseEquals(a, ToPrimitive(b))
		}
	case string:
		switch bv := b.(type) {
		case string:
			return av == bv
		case float64, bool:
			return ToNumber(av) == ToNumber(b)
		case Scriptable:
			return LooseEquals(a, ToPrimitive(b))
		}
	case bool:
		return LooseEquals(ToNumber(av), b)
	case Scriptable:
		switch bv := b.(type) {
		case Scriptable:
			return av == bv
		case bool:
			return LooseEquals(a, ToNumber(bv))
		default:
			return LooseEquals(ToPrimitive(av), b)
		}
	}
	return false
}

// InstanceOf reports whether proto is on the prototype chain of v.
func InstanceOf(v Value, proto Scriptable) bool {
	obj, ok := v.(Scriptable)
	if !ok || proto == nil {
		return false
	}
	for p := obj.Prototype(); p != nil; p = p.Prototype() {
		if p == proto {
			return true
		}
	}
	return false
}

func In(key Value, target Value) (bool, error) {
	obj, ok := target.(Scriptable)
	if !ok {
		return false, TypeError("invalid 'in' operand %s", ToString(target))
	}
	return obj.Has(ToString(key)), nil
}

// GetProperty reads a property of any value.
func GetProperty(v Value, name string) (Value, error) {
	switch v := v.(type) {
	case Scriptable:
		ret := v.Get(name)
		if ret == NotFound {
			return Undefined, nil
		}
		return ret, nil
	case string:
		units := utf16.Encode([]rune(v))
		if name == "length" {
			return float64(len(units)), nil
		}
		if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(units) {
			return string(utf16.Decode(units[i : i+1])), nil
		}
		return Undefined, nil
	case float64, bool:
		return Undefined, nil
	}
	return nil, TypeError("cannot read property %q of %s", name, ToString(v))
}

// SetProperty writes a property of any value. Writes to primitives are
// dropped.
func SetProperty(v Value, name string, value Value) error {
	switch v := v.(type) {
	case Scriptable:
		v.Put(name, value)
		return nil
	case string, float64, bool:
		return nil
	}
	return TypeError("cannot set property %q of %s", name, ToString(v))
}

func DeleteProperty(v Value, name string) (bool, error) {
	switch v := v.(type) {
	case Scriptable:
		return v.Delete(name), nil
	case string, float64, bool:
		return true, nil
	}
	return false, TypeError("cannot delete property %q of %s", name, ToString(v))
}

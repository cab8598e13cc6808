package values

import (
	"math"
	"strconv"
	"strings"
)

func ToBoolean(v Value) bool {
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	case nil, undefinedType, nullType:
		return false
	}
	return true
}

// ToPrimitive converts objects to a primitive without invoking script code:
// arrays join their elements, errors render as "name: message" and other
// objects as "[object Class]".
func ToPrimitive(v Value) Value {
	switch obj := v.(type) {
	case *Array:
		return obj.Join(",")
	case Scriptable:
		if name, msg, ok := ErrorInfo(obj); ok {
			if msg == "" {
				return name
			}
			return name + ": " + msg
		}
		return "[object " + obj.ClassName() + "]"
	}
	return v
}

func ToNumber(v Value) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return StringToNumber(v)
	case nullType:
		return 0
	case nil, undefinedType:
		return math.NaN()
	case Scriptable:
		return ToNumber(ToPrimitive(v))
	}
	return math.NaN()
}

func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	// reject forms strconv accepts but scripts do not
	if strings.ContainsAny(s, "iInN_xXpP") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + exp[:1] + digits
}

func ToString(v Value) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return NumberToString(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil, undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case Scriptable:
		return ToString(ToPrimitive(v))
	}
	return "undefined"
}

func ToInteger(v Value) float64 {
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) {
		return f
	}
	return math.Trunc(f)
}

func ToUint32(v Value) uint32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

func ToInt32(v Value) int32 {
	return int32(ToUint32(v))
}

// ToObject returns v when it is an object. Primitives have no wrappers in
// this object model.
func ToObject(v Value) (Scriptable, error) {
	if obj, ok := v.(Scriptable); ok {
		return obj, nil
	}
	if IsNullish(v) {
		return nil, TypeError("%s has no properties", ToString(v))
	}
	return nil, TypeError("%s is not an object", ToString(v))
}

package configs

import (
	"fmt"
	"math"
	"reflect"

	"github.com/hazzik/Rhino.Net-sub003/values"
	"github.com/reusee/dscope"
)

// ScriptFork overrides the configurables provided by scope with the globals
// a config program left on global.
func ScriptFork(scope dscope.Scope, global values.Scriptable) (dscope.Scope, error) {
	var defs []any
	for t := range scope.AllTypes() {
		if !t.Implements(configurableType) {
			continue
		}
		name := reflect.Zero(t).Interface().(Configurable).ConfigExpr()
		v := global.Get(name)
		if v == values.NotFound || values.IsUndefined(v) {
			continue
		}
		target := reflect.New(t).Elem()
		if err := assign(target, v); err != nil {
			return scope, fmt.Errorf("config %s: %w", name, err)
		}
		defs = append(defs, target.Interface())
	}
	if len(defs) == 0 {
		return scope, nil
	}
	return scope.Fork(defs...), nil
}

func assign(target reflect.Value, v values.Value) error {
	switch target.Kind() {

	case reflect.Bool:
		target.SetBool(values.ToBoolean(v))
		return nil

	case reflect.String:
		target.SetString(values.ToString(v))
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) || target.OverflowInt(int64(n)) {
			return fmt.Errorf("expecting integer, got %s", values.ToString(v))
		}
		target.SetInt(int64(n))
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.(float64)
		if !ok || n < 0 || n != math.Trunc(n) || target.OverflowUint(uint64(n)) {
			return fmt.Errorf("expecting unsigned integer, got %s", values.ToString(v))
		}
		target.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		n, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expecting number, got %s", values.ToString(v))
		}
		target.SetFloat(n)
		return nil

	}
	return fmt.Errorf("unsupported type: %v", target.Type())
}

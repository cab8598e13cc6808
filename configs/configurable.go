package configs

import "reflect"

// Configurable is a typed setting that a config program may override by
// defining a global named ConfigExpr.
type Configurable interface {
	ConfigExpr() string
}

var configurableType = reflect.TypeFor[Configurable]()

package web

import (
	"strconv"

	"github.com/google/uuid"
)

// BuiltinConverters are converter callables available by name on every
// Router, e.g. @Convert("id", callback="int"). Callables registered with the
// router take precedence.
var BuiltinConverters = CallableMap{
	"int":     ParseInt,
	"int64":   ParseInt64,
	"float64": ParseFloat64,
	"bool":    strconv.ParseBool,
	"uuid":    uuid.Parse,
}

// converterAliases maps convenient aliases to builtin converter names
var converterAliases = map[string]string{
	"UUID":   "uuid",
	"float":  "float64",
	"double": "float64",
}

func builtinConverter(name string) (any, bool) {
	if actual, ok := converterAliases[name]; ok {
		name = actual
	}
	return BuiltinConverters.Callable(name)
}

// ParseInt parses a path variable to int
func ParseInt(raw string) (int, error) {
	return strconv.Atoi(raw)
}

// ParseInt64 parses a path variable to int64
func ParseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// ParseFloat64 parses a path variable to float64
func ParseFloat64(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

// Package adapters connects web.Router to concrete HTTP frameworks.
package adapters

// overrides holds path parameters replaced by defaults or converters
type overrides map[string]string

func (o *overrides) set(name, value string) {
	if *o == nil {
		*o = make(overrides)
	}
	(*o)[name] = value
}

func (o overrides) get(name string) (string, bool) {
	v, ok := o[name]
	return v, ok
}

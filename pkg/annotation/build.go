package annotation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var (
	// ErrUnknownProperty is returned when a raw bag carries a key the annotation does not define
	ErrUnknownProperty = errors.New("unknown property")
	// ErrUnknownAnnotation is returned when Build is asked for an annotation it does not know
	ErrUnknownAnnotation = errors.New("unknown annotation")
	// ErrInvalidValue is returned when a property has the wrong shape
	ErrInvalidValue = errors.New("invalid value")
	// ErrMissingProperty is returned when a required property is absent
	ErrMissingProperty = errors.New("missing required property")
)

// ValueKey is the positional shorthand for an annotation's primary property.
const ValueKey = "value"

// Raw is an annotation as handed over by a parser: a name and an opaque
// key/value bag. Nested annotations appear inside the bag as *Raw.
type Raw struct {
	Name string
	Args map[string]any
}

// primary maps each annotation to the property that the positional value fills.
var primary = map[string]string{
	RouteName:    "pattern",
	ConvertName:  "variable",
	CallbackName: "reference",
}

// Build turns a raw bag into a typed annotation. The positional "value" key is
// promoted to the primary property before validation and unknown keys fail.
func Build(name string, bag map[string]any) (Annotation, error) {
	bag, err := promote(name, bag)
	if err != nil {
		return nil, err
	}

	switch name {
	case RouteName:
		return buildRoute(bag)
	case ConvertName:
		return buildConvert(bag)
	case CallbackName:
		return buildCallback(bag)
	case DIName:
		return buildDI(bag)
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownAnnotation, name)
	}
}

// BuildRaw builds a typed annotation from a Raw value.
func BuildRaw(raw *Raw) (Annotation, error) {
	return Build(raw.Name, raw.Args)
}

func promote(name string, bag map[string]any) (map[string]any, error) {
	v, ok := bag[ValueKey]
	if !ok {
		return bag, nil
	}

	field, has := primary[name]
	if !has {
		return nil, unknownProperty(ValueKey, name)
	}
	if _, dup := bag[field]; dup {
		return nil, fmt.Errorf("%w: '%s' given both positionally and by name on annotation '%s'", ErrInvalidValue, field, name)
	}

	out := make(map[string]any, len(bag))
	for k, val := range bag {
		if k != ValueKey {
			out[k] = val
		}
	}
	out[field] = v
	return out, nil
}

func unknownProperty(key, name string) error {
	return fmt.Errorf("%w '%s' on annotation '%s'", ErrUnknownProperty, key, name)
}

// routeAliases pairs each Route property with its alternative spelling
var routeAliases = [][2]string{{"pattern", "match"}, {"defaults", "values"}}

func buildRoute(bag map[string]any) (*Route, error) {
	for _, alias := range routeAliases {
		_, a := bag[alias[0]]
		_, b := bag[alias[1]]
		if a && b {
			return nil, fmt.Errorf("%w: '%s' and '%s' both given on annotation '%s'", ErrInvalidValue, alias[0], alias[1], RouteName)
		}
	}

	r := &Route{}
	for key, v := range bag {
		var err error
		switch key {
		case "pattern", "match":
			r.Pattern, err = asString(RouteName, key, v)
		case "bind":
			r.Bind, err = asString(RouteName, key, v)
		case "asserts":
			r.Asserts, err = asStringMap(RouteName, key, v)
		case "defaults", "values":
			r.Defaults, err = asStringMap(RouteName, key, v)
		case "converters":
			r.Converters, err = asConverters(v)
		case "method":
			r.Method, err = asString(RouteName, key, v)
		case "requireHttp":
			r.RequireHTTP, err = asBool(RouteName, key, v)
		case "requireHttps":
			r.RequireHTTPS, err = asBool(RouteName, key, v)
		case "before":
			r.Before, err = asCallbacks(key, v)
		case "after":
			r.After, err = asCallbacks(key, v)
		default:
			return nil, unknownProperty(key, RouteName)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the cross-property rules of a route.
func (r *Route) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("%w 'pattern' on annotation '%s'", ErrMissingProperty, RouteName)
	}

	vars := r.Variables()
	for _, c := range r.Converters {
		if !slices.Contains(vars, c.Variable) {
			return fmt.Errorf("%w: converter variable '%s' does not appear in pattern '%s'", ErrInvalidValue, c.Variable, r.Pattern)
		}
	}
	return nil
}

func buildConvert(bag map[string]any) (*Convert, error) {
	c := &Convert{}
	for key, v := range bag {
		switch key {
		case "variable":
			s, err := asString(ConvertName, key, v)
			if err != nil {
				return nil, err
			}
			c.Variable = s
		case "callback":
			cb, err := asCallback(v)
			if err != nil {
				return nil, err
			}
			c.Callback = *cb
		default:
			return nil, unknownProperty(key, ConvertName)
		}
	}

	if c.Variable == "" {
		return nil, fmt.Errorf("%w 'variable' on annotation '%s'", ErrMissingProperty, ConvertName)
	}
	if c.Callback.Reference == "" {
		return nil, fmt.Errorf("%w 'callback' on annotation '%s'", ErrMissingProperty, ConvertName)
	}
	return c, nil
}

func buildCallback(bag map[string]any) (*Callback, error) {
	cb := &Callback{}
	for key, v := range bag {
		if key != "reference" {
			return nil, unknownProperty(key, CallbackName)
		}
		s, err := asString(CallbackName, key, v)
		if err != nil {
			return nil, err
		}
		cb.Reference = s
	}

	if cb.Reference == "" {
		return nil, fmt.Errorf("%w 'reference' on annotation '%s'", ErrMissingProperty, CallbackName)
	}
	return cb, nil
}

func buildDI(bag map[string]any) (*DI, error) {
	di := &DI{}
	for key, v := range bag {
		var err error
		switch key {
		case "injectContainer":
			di.InjectContainer, err = asBool(DIName, key, v)
		case "serviceIds":
			di.ServiceIDs, err = asStringList(DIName, key, v)
		default:
			return nil, unknownProperty(key, DIName)
		}
		if err != nil {
			return nil, err
		}
	}
	return di, nil
}

// nested annotation coercions

func asCallback(v any) (*Callback, error) {
	switch val := v.(type) {
	case string:
		return buildCallback(map[string]any{"reference": val})
	case *Raw:
		if val.Name != CallbackName {
			return nil, fmt.Errorf("%w: expected @%s, got @%s", ErrInvalidValue, CallbackName, val.Name)
		}
		a, err := BuildRaw(val)
		if err != nil {
			return nil, err
		}
		return a.(*Callback), nil
	default:
		return nil, fmt.Errorf("%w: callback must be a string or @%s, got %T", ErrInvalidValue, CallbackName, v)
	}
}

func asCallbacks(key string, v any) ([]Callback, error) {
	items, err := asList(RouteName, key, v)
	if err != nil {
		return nil, err
	}

	out := make([]Callback, 0, len(items))
	for _, item := range items {
		cb, err := asCallback(item)
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", key, err)
		}
		out = append(out, *cb)
	}
	return out, nil
}

func asConverters(v any) ([]Convert, error) {
	items, err := asList(RouteName, "converters", v)
	if err != nil {
		return nil, err
	}

	out := make([]Convert, 0, len(items))
	for _, item := range items {
		raw, ok := item.(*Raw)
		if !ok || raw.Name != ConvertName {
			return nil, fmt.Errorf("%w: property 'converters' only accepts @%s entries", ErrInvalidValue, ConvertName)
		}
		a, err := BuildRaw(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *a.(*Convert))
	}
	return out, nil
}

// scalar coercions

func asString(name, key string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: property '%s' on annotation '%s' must be a string, got %T", ErrInvalidValue, key, name, v)
	}
}

func asBool(name, key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: property '%s' on annotation '%s' must be a boolean, got %T", ErrInvalidValue, key, name, v)
	}
	return b, nil
}

func asList(name, key string, v any) ([]any, error) {
	switch val := v.(type) {
	case []any:
		return val, nil
	case nil:
		return nil, nil
	case map[string]any:
		if len(val) == 0 {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: property '%s' on annotation '%s' must be a list", ErrInvalidValue, key, name)
}

func asStringList(name, key string, v any) ([]string, error) {
	items, err := asList(name, key, v)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: property '%s' on annotation '%s' must contain strings, got %T", ErrInvalidValue, key, name, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func asStringMap(name, key string, v any) (map[string]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		if len(val) == 0 {
			return map[string]string{}, nil
		}
	case map[string]any:
		out := make(map[string]string, len(val))
		for k, item := range val {
			s, err := scalarString(item)
			if err != nil {
				return nil, fmt.Errorf("%w: property '%s' on annotation '%s': entry '%s': %v", ErrInvalidValue, key, name, k, err)
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: property '%s' on annotation '%s' must be a map", ErrInvalidValue, key, name)
}

func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", v)
	}
}

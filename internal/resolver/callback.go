package resolver

import (
	"fmt"
	"strings"

	"github.com/toyz/routewire/pkg/annotation"
)

// Self is the placeholder for the controller currently being processed
const Self = "__self"

// Kind tells which shape a callback reference has
type Kind int

const (
	// Literal is passed through verbatim
	Literal Kind = iota
	// ContainerCall is "serviceKey:Method"
	ContainerCall
	// StaticCall is "TypeName::Func"
	StaticCall
	// SelfContainerCall is "__self:Method"
	SelfContainerCall
	// SelfStaticCall is "__self::Func"
	SelfStaticCall
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case ContainerCall:
		return "container"
	case StaticCall:
		return "static"
	case SelfContainerCall:
		return "self-container"
	case SelfStaticCall:
		return "self-static"
	default:
		return "literal"
	}
}

// CallbackRef is a parsed callback reference
type CallbackRef struct {
	Kind   Kind
	Target string // service key or type name; empty for literals and self refs
	Method string
	Text   string // original text for literals
}

// Parse classifies a reference. Anything that is not exactly one
// "left:right" or "left::right" pair with non-empty sides is a literal.
func Parse(ref string) CallbackRef {
	if left, right, ok := strings.Cut(ref, "::"); ok {
		if validSegment(left) && validSegment(right) {
			if left == Self {
				return CallbackRef{Kind: SelfStaticCall, Method: right}
			}
			return CallbackRef{Kind: StaticCall, Target: left, Method: right}
		}
		return CallbackRef{Kind: Literal, Text: ref}
	}

	if left, right, ok := strings.Cut(ref, ":"); ok {
		if validSegment(left) && validSegment(right) {
			if left == Self {
				return CallbackRef{Kind: SelfContainerCall, Method: right}
			}
			return CallbackRef{Kind: ContainerCall, Target: left, Method: right}
		}
	}

	return CallbackRef{Kind: Literal, Text: ref}
}

func validSegment(s string) bool {
	return s != "" && !strings.Contains(s, ":")
}

// Resolve replaces the self placeholder with the owning controller's service
// key (container calls) or type name (static calls). Resolved refs and
// literals are returned unchanged.
func (r CallbackRef) Resolve(serviceKey, typeName string) CallbackRef {
	switch r.Kind {
	case SelfContainerCall:
		return CallbackRef{Kind: ContainerCall, Target: serviceKey, Method: r.Method}
	case SelfStaticCall:
		return CallbackRef{Kind: StaticCall, Target: typeName, Method: r.Method}
	default:
		return r
	}
}

// IsSelf reports whether the ref still carries the placeholder
func (r CallbackRef) IsSelf() bool {
	return r.Kind == SelfContainerCall || r.Kind == SelfStaticCall
}

// String renders the reference back into its textual form
func (r CallbackRef) String() string {
	switch r.Kind {
	case ContainerCall:
		return r.Target + ":" + r.Method
	case StaticCall:
		return r.Target + "::" + r.Method
	case SelfContainerCall:
		return Self + ":" + r.Method
	case SelfStaticCall:
		return Self + "::" + r.Method
	default:
		return r.Text
	}
}

// GoString is used by %#v
func (r CallbackRef) GoString() string {
	return fmt.Sprintf("resolver.CallbackRef{%s %q}", r.Kind, r.String())
}

// ResolveReference parses, resolves and renders a reference in one step
func ResolveReference(ref, serviceKey, typeName string) string {
	return Parse(ref).Resolve(serviceKey, typeName).String()
}

// ResolveRoute rewrites every callback reference of a route in place.
func ResolveRoute(route *annotation.Route, serviceKey, typeName string) {
	if route == nil {
		return
	}
	for i := range route.Converters {
		cb := &route.Converters[i].Callback
		cb.Reference = ResolveReference(cb.Reference, serviceKey, typeName)
	}
	for i := range route.Before {
		route.Before[i].Reference = ResolveReference(route.Before[i].Reference, serviceKey, typeName)
	}
	for i := range route.After {
		route.After[i].Reference = ResolveReference(route.After[i].Reference, serviceKey, typeName)
	}
}

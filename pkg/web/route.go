package web

import (
	"maps"
	"strings"
)

// Group collects routes that are mounted together under one prefix
type Group struct {
	routes []*Route
}

// NewGroup creates an empty route group
func NewGroup() *Group {
	return &Group{}
}

// Match adds a route. to is the deferred handler reference "serviceKey:Method",
// resolved against the container on every request.
func (g *Group) Match(pattern, to string) *Route {
	r := &Route{
		pattern:  pattern,
		to:       to,
		asserts:  make(map[string]string),
		defaults: make(map[string]string),
	}
	g.routes = append(g.routes, r)
	return r
}

// Routes returns the routes in the order they were added
func (g *Group) Routes() []*Route {
	return g.routes
}

// Converter is a per-variable value converter
type Converter struct {
	Variable string
	Fn       any // a Go func, or a callable name resolved through Callables
}

// Route is a chainable route builder
type Route struct {
	pattern    string
	to         string
	name       string
	asserts    map[string]string
	defaults   map[string]string
	converters []Converter
	methods    []string
	scheme     string
	before     []any
	after      []any
}

// Bind names the route for URL generation
func (r *Route) Bind(name string) *Route {
	r.name = name
	return r
}

// Assert constrains a variable to a regular expression (anchored on mount)
func (r *Route) Assert(variable, regex string) *Route {
	r.asserts[variable] = regex
	return r
}

// Value sets a default for a variable; a trailing defaulted variable becomes optional
func (r *Route) Value(variable, value string) *Route {
	r.defaults[variable] = value
	return r
}

// Convert registers a converter for variable. fn is a func taking the raw
// value (and optionally the Context) or the name of a registered callable.
func (r *Route) Convert(variable string, fn any) *Route {
	r.converters = append(r.converters, Converter{Variable: variable, Fn: fn})
	return r
}

// Method restricts the route to one or more methods, e.g. "GET|POST"
func (r *Route) Method(method string) *Route {
	r.methods = r.methods[:0]
	for _, m := range strings.Split(method, "|") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			r.methods = append(r.methods, m)
		}
	}
	return r
}

// RequireHTTP redirects https requests to http
func (r *Route) RequireHTTP() *Route {
	r.scheme = "http"
	return r
}

// RequireHTTPS redirects http requests to https
func (r *Route) RequireHTTPS() *Route {
	r.scheme = "https"
	return r
}

// Before adds a callback that runs before the handler
func (r *Route) Before(fn any) *Route {
	r.before = append(r.before, fn)
	return r
}

// After adds a callback that runs after the handler
func (r *Route) After(fn any) *Route {
	r.after = append(r.after, fn)
	return r
}

// RouteDefinition is a read-only snapshot of a Route
type RouteDefinition struct {
	Pattern    string
	To         string
	Name       string
	Asserts    map[string]string
	Defaults   map[string]string
	Converters []Converter
	Methods    []string
	Scheme     string
	Before     []any
	After      []any
}

// Definition returns a copy of everything configured on the route
func (r *Route) Definition() RouteDefinition {
	return RouteDefinition{
		Pattern:    r.pattern,
		To:         r.to,
		Name:       r.name,
		Asserts:    maps.Clone(r.asserts),
		Defaults:   maps.Clone(r.defaults),
		Converters: append([]Converter(nil), r.converters...),
		Methods:    append([]string(nil), r.methods...),
		Scheme:     r.scheme,
		Before:     append([]any(nil), r.before...),
		After:      append([]any(nil), r.after...),
	}
}

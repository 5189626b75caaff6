package web

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"sync"

	"github.com/toyz/routewire/pkg/container"
)

// URLGenerator builds URLs for named routes
type URLGenerator interface {
	// URL returns the path of a named route
	URL(name string, params map[string]string) (string, error)
	// URLFor fills missing variables from the current request and, when
	// absolute is set, prefixes scheme and host.
	URLFor(ctx Context, name string, params map[string]string, absolute bool) (string, error)
}

// RouteInfo describes one registration made with the backend
type RouteInfo struct {
	Name     string
	Methods  []string
	Path     string
	To       string
	Optional bool // shortened variant for trailing defaulted variables
}

// mountedRoute is a compiled Route bound to its full path
type mountedRoute struct {
	name       string
	path       Path
	to         string
	asserts    map[string]*regexp.Regexp
	defaults   map[string]string
	converters []Converter
	methods    []string
	scheme     string
	before     []any
	after      []any
}

// Router mounts route groups on a Backend and dispatches matched requests
// to controller services in the container.
type Router struct {
	backend   Backend
	services  *container.Container
	callables Callables

	mu     sync.RWMutex
	named  map[string]*mountedRoute
	routes []RouteInfo
}

// Option configures a Router
type Option func(*Router)

// WithCallables sets the resolver for "Type::Func" and plain callable names
func WithCallables(c Callables) Option {
	return func(r *Router) { r.callables = c }
}

// NewRouter creates a router on top of backend. Handler references are
// resolved against services on every request.
func NewRouter(backend Backend, services *container.Container, opts ...Option) *Router {
	r := &Router{
		backend:  backend,
		services: services,
		named:    make(map[string]*mountedRoute),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the backend routes are registered with
func (r *Router) Backend() Backend {
	return r.backend
}

// Container returns the service container handlers are resolved from
func (r *Router) Container() *container.Container {
	return r.services
}

// Callables returns the resolver for callable names, nil if none was set
func (r *Router) Callables() Callables {
	return r.callables
}

// AddCallables appends c to the resolvers consulted for callable names.
// Call it before serving requests.
func (r *Router) AddCallables(c Callables) {
	switch existing := r.callables.(type) {
	case nil:
		r.callables = c
	case CallableChain:
		r.callables = append(existing, c)
	default:
		r.callables = CallableChain{existing, c}
	}
}

// Group returns a fresh route group
func (r *Router) Group() *Group {
	return NewGroup()
}

// Mount registers every route of g under prefix, in the order they were added.
func (r *Router) Mount(prefix string, g *Group) error {
	for _, route := range g.Routes() {
		m, err := compile(prefix, route)
		if err != nil {
			return err
		}
		if err := r.register(m); err != nil {
			return err
		}
	}
	return nil
}

func compile(prefix string, route *Route) (*mountedRoute, error) {
	def := route.Definition()
	m := &mountedRoute{
		name:       def.Name,
		path:       Path(JoinPath(prefix, def.Pattern)),
		to:         def.To,
		asserts:    make(map[string]*regexp.Regexp, len(def.Asserts)),
		defaults:   def.Defaults,
		converters: def.Converters,
		methods:    def.Methods,
		scheme:     def.Scheme,
		before:     def.Before,
		after:      def.After,
	}

	for variable, expr := range def.Asserts {
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("route %s: invalid requirement for '%s': %w", m.path, variable, err)
		}
		m.asserts[variable] = re
	}
	return m, nil
}

func (r *Router) register(m *mountedRoute) error {
	h := r.dispatch(m)

	paths := []Path{m.path}
	for p := m.path; ; {
		vars := p.Variables()
		if len(vars) == 0 {
			break
		}
		last := vars[len(vars)-1]
		if _, ok := m.defaults[last]; !ok {
			break
		}
		trimmed, ok := p.TrimTrailingVariable(last)
		if !ok {
			break
		}
		paths = append(paths, trimmed)
		p = trimmed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range paths {
		if err := r.backend.Handle(m.methods, p, h); err != nil {
			return fmt.Errorf("route %s: %w", p, err)
		}
		r.routes = append(r.routes, RouteInfo{
			Name:     m.name,
			Methods:  m.methods,
			Path:     string(p),
			To:       m.to,
			Optional: i > 0,
		})
	}
	if m.name != "" {
		r.named[m.name] = m
	}
	return nil
}

// Routes lists every registration in order
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RouteInfo(nil), r.routes...)
}

func (r *Router) lookup(name string) (*mountedRoute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.named[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}
	return m, nil
}

// URL implements URLGenerator. Parameters that are not path variables are
// appended as a query string.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	m, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return m.url(params)
}

// URLFor implements URLGenerator
func (r *Router) URLFor(ctx Context, name string, params map[string]string, absolute bool) (string, error) {
	m, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	merged := make(map[string]string, len(params))
	for _, v := range m.path.Variables() {
		if _, ok := params[v]; ok {
			continue
		}
		if _, ok := m.defaults[v]; ok {
			continue
		}
		if current := ctx.Param(v); current != "" {
			merged[v] = current
		}
	}
	for k, v := range params {
		merged[k] = v
	}

	path, err := m.url(merged)
	if err != nil {
		return "", err
	}
	if !absolute {
		return path, nil
	}

	scheme := ctx.Scheme()
	if m.scheme != "" {
		scheme = m.scheme
	}
	return scheme + "://" + ctx.Host() + path, nil
}

func (m *mountedRoute) url(params map[string]string) (string, error) {
	values := make(map[string]string, len(m.defaults)+len(params))
	for k, v := range m.defaults {
		values[k] = v
	}

	isVar := make(map[string]bool)
	for _, v := range m.path.Variables() {
		isVar[v] = true
	}

	extra := url.Values{}
	for k, v := range params {
		if isVar[k] {
			values[k] = v
		} else {
			extra.Set(k, v)
		}
	}

	path, err := m.path.Expand(values)
	if err != nil {
		return "", fmt.Errorf("route %q: %w", m.name, err)
	}
	if len(extra) > 0 {
		path += "?" + extra.Encode()
	}
	return path, nil
}

// Names returns every bound route name, sorted
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.named))
	for n := range r.named {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

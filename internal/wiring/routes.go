package wiring

import (
	"fmt"
	"reflect"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/metadata"
	"github.com/toyz/routewire/internal/resolver"
	"github.com/toyz/routewire/pkg/annotation"
	"github.com/toyz/routewire/pkg/container"
	"github.com/toyz/routewire/pkg/web"
)

// Router is the part of web.Router that route wiring needs
type Router interface {
	Group() *web.Group
	Mount(prefix string, g *web.Group) error
}

// Routes mounts one group per class under the class-level prefix and returns
// the number of routes added. Handlers are deferred "serviceKey:Method"
// references; callbacks that point at services become closures that look the
// service up in c when the request arrives.
func Routes(classes []metadata.ClassInfo, router Router, c *container.Container) (int, error) {
	total := 0

	for _, class := range classes {
		g := router.Group()
		n := 0
		for _, m := range class.Methods {
			if m.Route == nil {
				continue
			}
			addRoute(g, class.ServiceKey+":"+m.Name, m.Route, c)
			n++
		}
		if n == 0 {
			continue
		}

		if err := router.Mount(class.Prefix(), g); err != nil {
			return total, errors.WrapRegistrationError("controller", class.Name, err)
		}
		total += n
	}

	return total, nil
}

func addRoute(g *web.Group, to string, route *annotation.Route, c *container.Container) {
	r := g.Match(route.Pattern, to)

	if route.Bind != "" {
		r.Bind(route.Bind)
	}
	for _, variable := range route.AssertKeys() {
		r.Assert(variable, route.Asserts[variable])
	}
	for _, variable := range route.DefaultKeys() {
		r.Value(variable, route.Defaults[variable])
	}
	for _, conv := range route.Converters {
		r.Convert(conv.Variable, converter(conv.Callback.Reference, c))
	}
	if route.Method != "" {
		r.Method(route.Method)
	}
	if route.RequireHTTP {
		r.RequireHTTP()
	}
	if route.RequireHTTPS {
		r.RequireHTTPS()
	}
	for _, cb := range route.Before {
		r.Before(callback(cb.Reference, c))
	}
	for _, cb := range route.After {
		r.After(callback(cb.Reference, c))
	}
}

// converter turns a reference into what web.Route.Convert accepts. Static and
// literal references stay strings and are resolved by the router's Callables.
func converter(ref string, c *container.Container) any {
	cr := resolver.Parse(ref)
	if cr.Kind != resolver.ContainerCall {
		return ref
	}
	return func(ctx web.Context, raw string) (any, error) {
		method, err := serviceMethod(c, cr)
		if err != nil {
			return nil, err
		}
		return web.Call(method, ctx, raw)
	}
}

// callback is the before/after counterpart of converter
func callback(ref string, c *container.Container) any {
	cr := resolver.Parse(ref)
	if cr.Kind != resolver.ContainerCall {
		return ref
	}
	return func(ctx web.Context) error {
		method, err := serviceMethod(c, cr)
		if err != nil {
			return err
		}
		_, err = web.Call(method, ctx)
		return err
	}
}

func serviceMethod(c *container.Container, ref resolver.CallbackRef) (reflect.Value, error) {
	svc, err := c.Get(ref.Target)
	if err != nil {
		return reflect.Value{}, err
	}
	method := reflect.ValueOf(svc).MethodByName(ref.Method)
	if !method.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s", web.ErrNoCallable, ref)
	}
	return method, nil
}

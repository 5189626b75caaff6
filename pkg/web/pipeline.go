package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/toyz/routewire/internal/resolver"
)

// dispatch builds the request pipeline for a mounted route:
// scheme requirement, defaults, requirements, converters, before callbacks,
// the controller method and finally the after callbacks.
func (r *Router) dispatch(m *mountedRoute) HandlerFunc {
	return func(ctx Context) error {
		if m.scheme != "" && ctx.Scheme() != m.scheme {
			target := m.scheme + "://" + ctx.Host() + ctx.Path()
			if q := ctx.RawQuery(); q != "" {
				target += "?" + q
			}
			return ctx.Redirect(http.StatusMovedPermanently, target)
		}

		for variable, value := range m.defaults {
			if ctx.Param(variable) == "" {
				ctx.SetParam(variable, value)
			}
		}

		for variable, re := range m.asserts {
			if !re.MatchString(ctx.Param(variable)) {
				return NewHTTPError(http.StatusNotFound)
			}
		}

		for _, c := range m.converters {
			out, err := r.call(c.Fn, ctx, ctx.Param(c.Variable))
			if err != nil {
				var he *HTTPError
				if errors.As(err, &he) {
					return err
				}
				return &HTTPError{Code: http.StatusBadRequest, Message: fmt.Sprintf("invalid %s", c.Variable), Internal: err}
			}
			ctx.Set(c.Variable, out)
			if s, ok := out.(string); ok {
				ctx.SetParam(c.Variable, s)
			}
		}

		for _, fn := range m.before {
			if _, err := r.call(fn, ctx); err != nil {
				return err
			}
			if ctx.Written() {
				return nil
			}
		}

		if err := r.handle(m, ctx); err != nil {
			return err
		}

		for _, fn := range m.after {
			if _, err := r.call(fn, ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// handle resolves "serviceKey:Method" and writes its result
func (r *Router) handle(m *mountedRoute, ctx Context) error {
	method, err := r.controllerMethod(m.to)
	if err != nil {
		return &HTTPError{Code: http.StatusInternalServerError, Message: "controller unavailable", Internal: err}
	}

	result, err := invoke(method, ctx)
	if err != nil {
		return err
	}
	if ctx.Written() {
		return nil
	}

	switch v := result.(type) {
	case nil:
		return ctx.NoContent(http.StatusNoContent)
	case string:
		return ctx.String(http.StatusOK, v)
	case []byte:
		return ctx.String(http.StatusOK, string(v))
	default:
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
			return ctx.NoContent(http.StatusNoContent)
		}
		return ctx.JSON(http.StatusOK, v)
	}
}

func (r *Router) controllerMethod(to string) (reflect.Value, error) {
	ref := resolver.Parse(to)
	if ref.Kind != resolver.ContainerCall {
		return reflect.Value{}, fmt.Errorf("handler reference %q is not of the form service:Method", to)
	}
	return r.serviceMethod(ref.Target, ref.Method)
}

func (r *Router) serviceMethod(key, name string) (reflect.Value, error) {
	if r.services == nil {
		return reflect.Value{}, fmt.Errorf("no container to resolve %q", key)
	}
	svc, err := r.services.Get(key)
	if err != nil {
		return reflect.Value{}, err
	}
	method := reflect.ValueOf(svc).MethodByName(name)
	if !method.IsValid() {
		return reflect.Value{}, fmt.Errorf("service %q (%T) has no method %q", key, svc, name)
	}
	return method, nil
}

// call invokes a converter or callback. Funcs are called directly; strings
// are resolved at call time: "service:Method" against the container, anything
// else through the Callables.
func (r *Router) call(fn any, ctx Context, values ...string) (any, error) {
	if name, ok := fn.(string); ok {
		target, err := r.resolveCallable(name)
		if err != nil {
			return nil, err
		}
		return invoke(target, ctx, values...)
	}
	return invoke(reflect.ValueOf(fn), ctx, values...)
}

func (r *Router) resolveCallable(name string) (reflect.Value, error) {
	if ref := resolver.Parse(name); ref.Kind == resolver.ContainerCall {
		return r.serviceMethod(ref.Target, ref.Method)
	}
	if r.callables != nil {
		if fn, ok := r.callables.Callable(name); ok {
			return reflect.ValueOf(fn), nil
		}
	}
	if fn, ok := builtinConverter(name); ok {
		return reflect.ValueOf(fn), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %q", ErrNoCallable, name)
}

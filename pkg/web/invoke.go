package web

import (
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// invoke calls fn, filling Context parameters with ctx and string parameters
// with values in order. It accepts results of the form (), (error), (T) and
// (T, error).
func invoke(fn reflect.Value, ctx Context, values ...string) (any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%v is not callable", fn)
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic callables are not supported: %s", ft)
	}

	ctxValue := reflect.ValueOf(&ctx).Elem()
	args := make([]reflect.Value, 0, ft.NumIn())
	next := 0
	for i := 0; i < ft.NumIn(); i++ {
		in := ft.In(i)
		switch {
		case in == contextType || (in.Kind() == reflect.Interface && contextType.Implements(in)):
			args = append(args, ctxValue)
		case in.Kind() == reflect.String && next < len(values):
			args = append(args, reflect.ValueOf(values[next]).Convert(in))
			next++
		default:
			return nil, fmt.Errorf("cannot supply parameter %d (%s) of %s", i, in, ft)
		}
	}

	out := fn.Call(args)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("second result of %s must be error", ft)
		}
		return out[0].Interface(), asError(out[1])
	default:
		return nil, fmt.Errorf("too many results from %s", ft)
	}
}

// Call invokes fn (a func or a reflect.Value holding one) the way the request
// pipeline does: Context parameters receive ctx, string parameters receive
// values in order.
func Call(fn any, ctx Context, values ...string) (any, error) {
	v, ok := fn.(reflect.Value)
	if !ok {
		v = reflect.ValueOf(fn)
	}
	return invoke(v, ctx, values...)
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// CheckHandler reports whether a method type can serve as a route handler:
// it may take a Context and must return (error), (T), (T, error) or nothing.
func CheckHandler(ft reflect.Type) error {
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("%s is not a func", ft)
	}
	for i := 0; i < ft.NumIn(); i++ {
		in := ft.In(i)
		if in != contextType && !(in.Kind() == reflect.Interface && contextType.Implements(in)) {
			return fmt.Errorf("handler parameter %d must be web.Context, got %s", i, in)
		}
	}
	switch ft.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("second handler result must be error, got %s", ft.Out(1))
		}
		return nil
	default:
		return fmt.Errorf("handler returns %d results", ft.NumOut())
	}
}

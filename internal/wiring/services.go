// Package wiring replays controller metadata against a service container and
// a router: one shared service per controller, one route group per controller.
package wiring

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/metadata"
	"github.com/toyz/routewire/pkg/annotation"
	"github.com/toyz/routewire/pkg/container"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// TypeSource provides the constructor registered for a fully-qualified type
// name. Constructors return *T or (*T, error).
type TypeSource interface {
	Constructor(fqn string) (reflect.Value, bool)
}

// Services registers a lazily constructed, shared service for every class.
// Construction follows the class-level @DI; afterwards every method carrying
// @DI is called once, in declaration order.
func Services(classes []metadata.ClassInfo, types TypeSource, c *container.Container) error {
	if err := checkCycles(classes); err != nil {
		return err
	}
	for _, class := range classes {
		if _, ok := types.Constructor(class.Name); !ok {
			return errors.RegistrationError("controller", class.Name, "type is not registered")
		}
		c.Share(class.ServiceKey, serviceFactory(class, types))
	}
	return nil
}

// checkCycles rejects controllers that need themselves through @DI service
// ids, directly or by way of other controllers. Such a service would wait on
// its own construction.
func checkCycles(classes []metadata.ClassInfo) error {
	deps := make(map[string][]string, len(classes))
	for _, class := range classes {
		deps[class.ServiceKey] = serviceIDs(class)
	}

	const (
		visiting = iota + 1
		visited
	)
	state := make(map[string]int, len(classes))
	var path []string

	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case visited:
			return nil
		case visiting:
			cycle := append(slices.Clone(path[slices.Index(path, key):]), key)
			return errors.DependencyError("service", key, "dependency cycle: "+strings.Join(cycle, " -> "))
		}
		state[key] = visiting
		path = append(path, key)
		for _, dep := range deps[key] {
			if _, ok := deps[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[key] = visited
		return nil
	}

	for _, class := range classes {
		if err := visit(class.ServiceKey); err != nil {
			return err
		}
	}
	return nil
}

// serviceIDs lists the services resolved while constructing class
func serviceIDs(class metadata.ClassInfo) []string {
	var ids []string
	add := func(di *annotation.DI) {
		if di != nil && !di.InjectContainer {
			ids = append(ids, di.ServiceIDs...)
		}
	}
	add(class.DI)
	for _, m := range class.Methods {
		add(m.DI)
	}
	return ids
}

func serviceFactory(class metadata.ClassInfo, types TypeSource) container.Factory {
	return func(c *container.Container) (any, error) {
		ctor, ok := types.Constructor(class.Name)
		if !ok {
			return nil, errors.RegistrationError("controller", class.Name, "type is not registered")
		}

		args, err := arguments(c, ctor.Type(), class.DI, class.Name)
		if err != nil {
			return nil, err
		}
		instance, err := results(ctor.Call(args), class.Name)
		if err != nil {
			return nil, err
		}

		for _, m := range class.Methods {
			if m.DI == nil {
				continue
			}
			subject := class.Name + "." + m.Name
			method := reflect.ValueOf(instance).MethodByName(m.Name)
			if !method.IsValid() {
				return nil, errors.DependencyError("method", subject, "method not found on constructed instance")
			}
			args, err := arguments(c, method.Type(), m.DI, subject)
			if err != nil {
				return nil, err
			}
			if _, err := results(method.Call(args), subject); err != nil {
				return nil, err
			}
		}

		return instance, nil
	}
}

// arguments resolves call arguments for a constructor or setter
func arguments(c *container.Container, ft reflect.Type, di *annotation.DI, subject string) ([]reflect.Value, error) {
	if ft.IsVariadic() {
		return nil, errors.DependencyError("callable", subject, "variadic parameters are not supported")
	}

	switch {
	case di != nil && di.InjectContainer:
		if ft.NumIn() != 1 {
			return nil, errors.DependencyError("callable", subject,
				fmt.Sprintf("expects the container as its only parameter, takes %d", ft.NumIn()))
		}
		cv := reflect.ValueOf(c)
		if !cv.Type().AssignableTo(ft.In(0)) {
			return nil, errors.DependencyError("callable", subject,
				fmt.Sprintf("parameter of type %s cannot receive the container", ft.In(0)))
		}
		return []reflect.Value{cv}, nil

	case di != nil && len(di.ServiceIDs) > 0:
		if ft.NumIn() != len(di.ServiceIDs) {
			return nil, errors.DependencyError("callable", subject,
				fmt.Sprintf("takes %d parameters, %d services declared", ft.NumIn(), len(di.ServiceIDs)))
		}
		args := make([]reflect.Value, len(di.ServiceIDs))
		for i, id := range di.ServiceIDs {
			svc, err := c.Get(id)
			if err != nil {
				return nil, errors.WrapDependencyError("service", id, err)
			}
			arg, err := assign(svc, ft.In(i))
			if err != nil {
				return nil, errors.DependencyError("service", id, fmt.Sprintf("for %s: %v", subject, err))
			}
			args[i] = arg
		}
		return args, nil

	default:
		if ft.NumIn() != 0 {
			return nil, errors.DependencyError("callable", subject,
				fmt.Sprintf("takes %d parameters but declares no @DI", ft.NumIn()))
		}
		return nil, nil
	}
}

func assign(v any, to reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch to.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", to)
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(to) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", rv.Type(), to)
	}
	return rv, nil
}

// results interprets (), (T), (error) and (T, error)
func results(out []reflect.Value, subject string) (any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, errors.WrapDependencyError("callable", subject, out[n-1].Interface().(error))
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		return nil, errors.DependencyError("callable", subject, "returns too many values")
	}
}

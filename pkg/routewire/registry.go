package routewire

import (
	"fmt"
	"reflect"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/resolver"
	"github.com/toyz/routewire/internal/utils"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type typeEntry struct {
	ctor     reflect.Value
	instance reflect.Type
}

// Registry maps fully-qualified type names to constructors. Controllers are
// only wired when their type is registered here; it also resolves static
// ("Type::name") and plain callback names at dispatch time.
type Registry struct {
	types *utils.BaseRegistry[string, typeEntry]
	funcs *utils.BaseRegistry[string, any]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types: utils.NewBaseRegistry("type", utils.NoDuplicateValidator[string, typeEntry]("type")),
		funcs: utils.NewBaseRegistry("callable", utils.ChainValidators(
			utils.NotEmptyKeyValidator[any]("callable name"),
			utils.NoDuplicateValidator[string, any]("callable"),
		)),
	}
}

// TypeOption configures a registered type
type TypeOption func(fqn string, r *Registry) error

// Static exposes fn as "<FQN>::<name>", the target of static callback
// references such as @Callback("__self::check").
func Static(name string, fn any) TypeOption {
	return func(fqn string, r *Registry) error {
		return r.Func(fqn+"::"+name, fn)
	}
}

// Register adds a constructor. ctor is a func returning *T or (*T, error);
// its parameters are supplied according to the type's @DI annotation.
func (r *Registry) Register(ctor any, opts ...TypeOption) error {
	v := reflect.ValueOf(ctor)
	if v.Kind() != reflect.Func || v.IsNil() {
		return errors.RegistrationError("constructor", fmt.Sprintf("%T", ctor), "not a func")
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return errors.RegistrationError("constructor", ft.String(), "variadic constructors are not supported")
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return errors.RegistrationError("constructor", ft.String(), "must return *T or (*T, error)")
	}
	return r.add(v, ft.Out(0), opts)
}

// RegisterType adds a type constructed as new(T). v is a T or *T value used
// only for its type.
func (r *Registry) RegisterType(v any, opts ...TypeOption) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return errors.RegistrationError("type", "<nil>", "cannot register a nil value")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	ptr := reflect.PointerTo(t)
	ctor := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{ptr}, false), func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.New(t)}
	})
	return r.add(ctor, ptr, opts)
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(ctor any, opts ...TypeOption) *Registry {
	if err := r.Register(ctor, opts...); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) add(ctor reflect.Value, instance reflect.Type, opts []TypeOption) error {
	fqn := resolver.TypeName(instance)
	if fqn == "" {
		return errors.RegistrationError("type", instance.String(), "constructors must return a named type")
	}
	if err := r.types.Register(fqn, typeEntry{ctor: ctor, instance: instance}); err != nil {
		return errors.WrapRegistrationError("type", fqn, err)
	}
	for _, opt := range opts {
		if err := opt(fqn, r); err != nil {
			return err
		}
	}
	return nil
}

// Func registers a callable under a literal name, e.g. @Callback("trim")
func (r *Registry) Func(name string, fn any) error {
	if v := reflect.ValueOf(fn); v.Kind() != reflect.Func || v.IsNil() {
		return errors.RegistrationError("callable", name, "not a func")
	}
	if err := r.funcs.Register(name, fn); err != nil {
		return errors.WrapRegistrationError("callable", name, err)
	}
	return nil
}

// Callable implements web.Callables
func (r *Registry) Callable(name string) (any, bool) {
	return r.funcs.Get(name)
}

// Lookup returns the type produced by the constructor registered for fqn
func (r *Registry) Lookup(fqn string) (reflect.Type, bool) {
	e, ok := r.types.Get(fqn)
	if !ok {
		return nil, false
	}
	return e.instance, true
}

// Constructor returns the constructor registered for fqn
func (r *Registry) Constructor(fqn string) (reflect.Value, bool) {
	e, ok := r.types.Get(fqn)
	if !ok {
		return reflect.Value{}, false
	}
	return e.ctor, true
}

// Has reports whether fqn is registered
func (r *Registry) Has(fqn string) bool {
	return r.types.Has(fqn)
}

// Types returns the registered type names in registration order
func (r *Registry) Types() []string {
	return r.types.Keys()
}

package metadata

import (
	"context"
	"reflect"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/resolver"
	"github.com/toyz/routewire/internal/scanner"
	"github.com/toyz/routewire/internal/utils"
	"github.com/toyz/routewire/pkg/annotation"
	"github.com/toyz/routewire/pkg/web"
)

// TypeLookup returns the runtime type registered for a fully-qualified name.
// The returned type is the one constructors produce, usually *T.
type TypeLookup interface {
	Lookup(fqn string) (reflect.Type, bool)
}

// Walker builds ClassInfo values from declarations
type Walker struct {
	scanner   *scanner.Scanner
	reader    Reader
	types     TypeLookup
	callables web.Callables
	diag      *utils.DiagnosticSystem
}

// NewWalker creates a walker. types may be nil, in which case every scanned
// class is trusted and handler signatures are not checked.
func NewWalker(s *scanner.Scanner, reader Reader, types TypeLookup, diag *utils.DiagnosticSystem) *Walker {
	if diag == nil {
		diag = utils.NewQuietDiagnostics()
	}
	if s == nil {
		s = scanner.New(diag)
	}
	if reader == nil {
		reader = NewCommentReader()
	}
	return &Walker{scanner: s, reader: reader, types: types, diag: diag}
}

// WithCallables makes the walker reject "__self::Func" references that c
// cannot resolve. Only applies to types known to the TypeLookup.
func (w *Walker) WithCallables(c web.Callables) *Walker {
	w.callables = c
	return w
}

// Walk scans roots and returns the controllers found there
func (w *Walker) Walk(ctx context.Context, roots []string) ([]ClassInfo, error) {
	decls, err := w.scanner.Scan(ctx, roots)
	if err != nil {
		return nil, err
	}
	return w.WalkDeclarations(decls)
}

// WalkDeclarations returns the controllers among decls, in order
func (w *Walker) WalkDeclarations(decls []*scanner.Declaration) ([]ClassInfo, error) {
	var classes []ClassInfo

	for _, decl := range decls {
		class, ok, err := w.walkClass(decl)
		if err != nil {
			return nil, err
		}
		if ok {
			classes = append(classes, class)
		}
	}

	return classes, nil
}

func (w *Walker) walkClass(decl *scanner.Declaration) (ClassInfo, bool, error) {
	fqn := decl.FQN()

	var typ reflect.Type
	if w.types != nil {
		t, ok := w.types.Lookup(fqn)
		if !ok {
			w.diag.Debug("skipping %s: type is not registered", fqn)
			return ClassInfo{}, false, nil
		}
		typ = t
	}

	class := ClassInfo{Name: fqn, ServiceKey: resolver.ServiceKey(fqn)}

	anns, err := w.reader.ClassAnnotations(decl)
	if err != nil {
		return ClassInfo{}, false, err
	}
	loc := errors.SourceLocation{File: decl.File, Line: decl.Line}
	if class.AnnotationInfo, err = collect(anns, loc, fqn); err != nil {
		return ClassInfo{}, false, err
	}

	for _, m := range decl.Methods {
		loc := errors.SourceLocation{File: decl.MethodFile(m), Line: m.Line}
		subject := fqn + "." + m.Name

		anns, err := w.reader.MethodAnnotations(decl, m.Name)
		if err != nil {
			return ClassInfo{}, false, err
		}
		info, err := collect(anns, loc, subject)
		if err != nil {
			return ClassInfo{}, false, err
		}
		if info.IsEmpty() {
			continue
		}

		if typ != nil {
			method, ok := typ.MethodByName(m.Name)
			if !ok {
				w.diag.Debug("skipping %s: not in the method set of %s", subject, typ)
				continue
			}
			if info.Route != nil {
				if err := web.CheckHandler(withoutReceiver(method.Type)); err != nil {
					return ClassInfo{}, false, errors.ValidationError(loc, "%s cannot handle requests: %v", subject, err)
				}
				if err := w.checkSelf(info.Route, typ, fqn, loc, subject); err != nil {
					return ClassInfo{}, false, err
				}
			}
		}

		resolver.ResolveRoute(info.Route, class.ServiceKey, fqn)
		class.Methods = append(class.Methods, MethodInfo{Name: m.Name, AnnotationInfo: info})
	}

	if !class.IsController() {
		w.diag.Debug("skipping %s: no routed methods", fqn)
		return ClassInfo{}, false, nil
	}
	return class, true, nil
}

// checkSelf verifies that the "__self" callbacks of a route point at a method
// of typ or a registered static of the type.
func (w *Walker) checkSelf(route *annotation.Route, typ reflect.Type, fqn string, loc errors.SourceLocation, subject string) error {
	for _, ref := range callbacks(route) {
		cr := resolver.Parse(ref)
		switch cr.Kind {
		case resolver.SelfContainerCall:
			if _, ok := typ.MethodByName(cr.Method); !ok {
				return errors.ValidationError(loc, "%s references %s but %s has no method %s", subject, ref, typ, cr.Method)
			}
		case resolver.SelfStaticCall:
			if w.callables == nil {
				continue
			}
			if _, ok := w.callables.Callable(fqn + "::" + cr.Method); !ok {
				return errors.ValidationError(loc, "%s references %s but %s::%s is not registered", subject, ref, fqn, cr.Method)
			}
		}
	}
	return nil
}

func callbacks(route *annotation.Route) []string {
	refs := make([]string, 0, len(route.Converters)+len(route.Before)+len(route.After))
	for _, c := range route.Converters {
		refs = append(refs, c.Callback.Reference)
	}
	for _, cb := range route.Before {
		refs = append(refs, cb.Reference)
	}
	for _, cb := range route.After {
		refs = append(refs, cb.Reference)
	}
	return refs
}

// collect sorts annotations into an AnnotationInfo, rejecting duplicates
func collect(anns []annotation.Annotation, loc errors.SourceLocation, subject string) (AnnotationInfo, error) {
	var info AnnotationInfo
	for _, a := range anns {
		switch v := a.(type) {
		case *annotation.Route:
			if info.Route != nil {
				return info, errors.ValidationError(loc, "%s declares @%s more than once", subject, annotation.RouteName)
			}
			info.Route = v
		case *annotation.DI:
			if info.DI != nil {
				return info, errors.ValidationError(loc, "%s declares @%s more than once", subject, annotation.DIName)
			}
			info.DI = v
		default:
			return info, errors.ValidationError(loc, "@%s is not allowed on %s", a.AnnotationName(), subject)
		}
	}
	return info, nil
}

// withoutReceiver drops the receiver from a reflect.Method type
func withoutReceiver(ft reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, ft.NumIn())
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		out = append(out, ft.Out(i))
	}
	return reflect.FuncOf(in, out, ft.IsVariadic())
}

package metadata

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/pkg/annotation"
	"github.com/toyz/routewire/pkg/web"
)

const source = `package controller

// TestController says hello.
//
// @Route("/{_locale}")
// @DI(injectContainer=true)
type TestController struct{}

// Hello greets.
//
// @Route("/hello/{name}", bind="hello_name", converters={
//     @Convert("name", callback=@Callback("__self:convertName"))
// }, before={"__self::audit"}, method="GET")
func (c *TestController) Hello() string { return "" }

// ConvertName is a converter, not a route.
func (c *TestController) ConvertName(name string) string { return name }

// @DI(serviceIds={"url_generator"})
func (c *TestController) SetURLGenerator(any) {}

// Plain has no annotations at all.
type Plain struct{}

func (p *Plain) Index() {}

// @DI(injectContainer=true)
type OnlyDI struct{}
`

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/app\n"
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestWalker_Walk(t *testing.T) {
	root := writeModule(t, map[string]string{"controller/test.go": source})

	classes, err := NewWalker(nil, nil, nil, nil).Walk(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, classes, 1)

	c := classes[0]
	assert.Equal(t, "example.com/app/controller.TestController", c.Name)
	assert.Equal(t, "example.com.app.controller.testcontroller", c.ServiceKey)
	assert.Equal(t, "TestController", c.TypeName())
	assert.Equal(t, "/{_locale}", c.Prefix())
	require.NotNil(t, c.DI)
	assert.True(t, c.DI.InjectContainer)
	assert.Equal(t, 1, c.RouteCount())

	require.Len(t, c.Methods, 2)
	hello := c.Methods[0]
	assert.Equal(t, "Hello", hello.Name)
	require.NotNil(t, hello.Route)
	assert.Equal(t, "/hello/{name}", hello.Route.Pattern)
	assert.Equal(t, "hello_name", hello.Route.Bind)
	assert.Equal(t, "GET", hello.Route.Method)
	require.Len(t, hello.Route.Converters, 1)
	assert.Equal(t, "example.com.app.controller.testcontroller:convertName", hello.Route.Converters[0].Callback.Reference)
	assert.Equal(t, "example.com/app/controller.TestController::audit", hello.Route.Before[0].Reference)

	setter := c.Methods[1]
	assert.Equal(t, "SetURLGenerator", setter.Name)
	assert.Nil(t, setter.Route)
	assert.Equal(t, []string{"url_generator"}, setter.DI.ServiceIDs)
}

func TestWalker_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.ErrorCode
		want string
	}{
		{
			name: "duplicate route",
			src:  "package c\n\n// @Route(\"/a\")\n// @Route(\"/b\")\ntype C struct{}\n",
			code: errors.ValidationErrorCode,
			want: "more than once",
		},
		{
			name: "duplicate method DI",
			src:  "package c\n\ntype C struct{}\n\n// @DI(injectContainer=true)\n// @DI(serviceIds={\"a\"})\nfunc (C) Set() {}\n",
			code: errors.ValidationErrorCode,
			want: "c.C.Set declares @DI more than once",
		},
		{
			name: "syntax",
			src:  "package c\n\n// @Route(\"/a\", bind=)\ntype C struct{}\n",
			code: errors.SyntaxErrorCode,
			want: "malformed annotation",
		},
		{
			name: "unknown property",
			src:  "package c\n\n// @Route(\"/a\", nope=1)\ntype C struct{}\n",
			code: errors.ValidationErrorCode,
			want: "unknown property 'nope' on annotation 'Route'",
		},
		{
			name: "top-level convert",
			src:  "package c\n\n// @Convert(\"a\", callback=\"x\")\ntype C struct{}\n",
			code: errors.ValidationErrorCode,
			want: "@Convert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeModule(t, map[string]string{"c/c.go": tt.src})
			_, err := NewWalker(nil, nil, nil, nil).Walk(context.Background(), []string{root})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "c.go:")
		})
	}
}

type sampleController struct{}

func (s *sampleController) Index(ctx web.Context) string { return "index" }
func (s *sampleController) Broken(n int) string          { return "" }

type lookup map[string]reflect.Type

func (l lookup) Lookup(fqn string) (reflect.Type, bool) {
	t, ok := l[fqn]
	return t, ok
}

var sampleFQN = reflect.TypeOf(sampleController{}).PkgPath() + ".sampleController"

func TestWalker_TypeLookup(t *testing.T) {
	reader := NewStaticReader().
		Class(sampleFQN, &annotation.Route{Pattern: "/sample"}).
		Method(sampleFQN, "Index", &annotation.Route{Pattern: "/", Before: []annotation.Callback{{Reference: "__self:Index"}}}).
		Method(sampleFQN, "Missing", &annotation.Route{Pattern: "/missing"}).
		Class("example.com/other.Unregistered").
		Method("example.com/other.Unregistered", "Index", &annotation.Route{Pattern: "/"})

	types := lookup{sampleFQN: reflect.TypeOf(&sampleController{})}
	w := NewWalker(nil, reader, types, nil)

	classes, err := w.WalkDeclarations(reader.Declarations())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, sampleFQN, classes[0].Name)
	assert.Equal(t, "/sample", classes[0].Prefix())
	require.Len(t, classes[0].Methods, 1)
	assert.Equal(t, "Index", classes[0].Methods[0].Name)
	assert.Equal(t, classes[0].ServiceKey+":Index", classes[0].Methods[0].Route.Before[0].Reference)
}

func TestWalker_HandlerSignature(t *testing.T) {
	reader := NewStaticReader().
		Method(sampleFQN, "Broken", &annotation.Route{Pattern: "/broken"})
	w := NewWalker(nil, reader, lookup{sampleFQN: reflect.TypeOf(&sampleController{})}, nil)

	_, err := w.WalkDeclarations(reader.Declarations())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ValidationErrorCode))
	assert.Contains(t, err.Error(), "cannot handle requests")
}

func TestStaticReader_Declarations(t *testing.T) {
	r := NewStaticReader().
		Method("example.com/app/ctl.Home", "Index").
		Method("example.com/app/ctl.Home", "About").
		Method("example.com/app/ctl.Home", "Index", &annotation.DI{InjectContainer: true})

	decls := r.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "Home", decls[0].Name)
	assert.Equal(t, "example.com/app/ctl", decls[0].ImportPath)
	assert.Equal(t, "ctl", decls[0].Package)
	assert.Equal(t, "example.com/app/ctl.Home", decls[0].FQN())
	require.Len(t, decls[0].Methods, 2)
	assert.Equal(t, "Index", decls[0].Methods[0].Name)

	anns, err := r.MethodAnnotations(decls[0], "Index")
	require.NoError(t, err)
	assert.Len(t, anns, 1)
}

func TestClassInfo_YAML(t *testing.T) {
	class := ClassInfo{
		Name:           "example.com/app.Home",
		ServiceKey:     "example.com.app.home",
		AnnotationInfo: AnnotationInfo{Route: &annotation.Route{Pattern: "/{_locale}"}},
		Methods: []MethodInfo{{
			Name:           "Index",
			AnnotationInfo: AnnotationInfo{Route: &annotation.Route{Pattern: "/", Bind: "home"}},
		}},
	}

	out, err := yaml.Marshal(class)
	require.NoError(t, err)
	assert.Contains(t, string(out), "serviceKey: example.com.app.home")
	assert.Contains(t, string(out), "bind: home")

	var back ClassInfo
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, class, back)
}

func TestWalker_MethodLocation(t *testing.T) {
	root := writeModule(t, map[string]string{
		"c/a.go": "package c\n\n// @Route(\"/c\")\ntype C struct{}\n",
		"c/b.go": "package c\n\n// @Route(\"/x\", nope=1)\nfunc (C) Index() {}\n",
	})

	_, err := NewWalker(nil, nil, nil, nil).Walk(context.Background(), []string{root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.go:3")
	assert.NotContains(t, err.Error(), "a.go")
}

func TestWalker_SelfReferences(t *testing.T) {
	tests := []struct {
		name      string
		route     *annotation.Route
		callables web.Callables
		want      string
	}{
		{
			name: "existing method",
			route: &annotation.Route{Pattern: "/", Converters: []annotation.Convert{
				{Variable: "x", Callback: annotation.Callback{Reference: "__self:Index"}},
			}},
		},
		{
			name: "misspelled method",
			route: &annotation.Route{Pattern: "/", Converters: []annotation.Convert{
				{Variable: "x", Callback: annotation.Callback{Reference: "__self:index"}},
			}},
			want: "has no method index",
		},
		{
			name:      "registered static",
			route:     &annotation.Route{Pattern: "/", Before: []annotation.Callback{{Reference: "__self::check"}}},
			callables: web.CallableMap{sampleFQN + "::check": func() {}},
		},
		{
			name:      "unregistered static",
			route:     &annotation.Route{Pattern: "/", After: []annotation.Callback{{Reference: "__self::check"}}},
			callables: web.CallableMap{},
			want:      "::check is not registered",
		},
		{
			name:  "statics unchecked without callables",
			route: &annotation.Route{Pattern: "/", After: []annotation.Callback{{Reference: "__self::check"}}},
		},
		{
			name:      "other targets are not checked",
			route:     &annotation.Route{Pattern: "/", Before: []annotation.Callback{{Reference: "auth:nope"}, {Reference: "x::y"}}},
			callables: web.CallableMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewStaticReader().Method(sampleFQN, "Index", tt.route)
			w := NewWalker(nil, reader, lookup{sampleFQN: reflect.TypeOf(&sampleController{})}, nil)
			if tt.callables != nil {
				w.WithCallables(tt.callables)
			}

			classes, err := w.WalkDeclarations(reader.Declarations())
			if tt.want == "" {
				require.NoError(t, err)
				assert.Len(t, classes, 1)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ValidationErrorCode))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

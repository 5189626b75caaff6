package web

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/routewire/pkg/container"
)

type greeter struct {
	greeting string
	calls    []string
}

func (g *greeter) Hello(ctx Context) (string, error) {
	g.calls = append(g.calls, "hello")
	return g.greeting + " " + ctx.Param("name") + "!", nil
}

func (g *greeter) Stats() map[string]int {
	return map[string]int{"calls": len(g.calls)}
}

func (g *greeter) Nothing() error {
	return nil
}

func (g *greeter) Teapot() error {
	return NewHTTPError(http.StatusTeapot, "short and stout")
}

func (g *greeter) Reverse(name string) string {
	r := []rune(name)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func (g *greeter) Track(ctx Context) {
	g.calls = append(g.calls, "track:"+ctx.Path())
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *recordingBackend, *greeter) {
	t.Helper()
	g := &greeter{greeting: "hello"}
	c := container.New().Set("app.greeter", g)
	backend := &recordingBackend{}
	return NewRouter(backend, c, opts...), backend, g
}

func TestRoute_Method(t *testing.T) {
	g := NewGroup()
	r := g.Match("/x", "svc:Do").Method("get| post ")

	def := r.Definition()
	assert.Equal(t, []string{"GET", "POST"}, def.Methods)

	r.Method("PUT")
	assert.Equal(t, []string{"PUT"}, r.Definition().Methods)
}

func TestRoute_DefinitionIsCopy(t *testing.T) {
	r := NewGroup().Match("/x/{id}", "svc:Do").Assert("id", `\d+`).Value("id", "1")
	def := r.Definition()
	def.Asserts["id"] = "changed"
	def.Defaults["id"] = "changed"

	again := r.Definition()
	assert.Equal(t, `\d+`, again.Asserts["id"])
	assert.Equal(t, "1", again.Defaults["id"])
}

func TestRouter_MountRegistersDefaultVariants(t *testing.T) {
	router, backend, _ := newTestRouter(t)

	g := router.Group()
	g.Match("/hello/{name}", "app.greeter:Hello").Bind("hello_name").Value("name", "world")
	g.Match("/stats", "app.greeter:Stats").Method("GET")
	require.NoError(t, router.Mount("/{_locale}", g))

	require.Len(t, backend.registered, 3)
	assert.Equal(t, Path("/{_locale}/hello/{name}"), backend.registered[0].path)
	assert.Equal(t, Path("/{_locale}/hello"), backend.registered[1].path)
	assert.Equal(t, Path("/{_locale}/stats"), backend.registered[2].path)
	assert.Equal(t, []string{"GET"}, backend.registered[2].methods)

	routes := router.Routes()
	require.Len(t, routes, 3)
	assert.False(t, routes[0].Optional)
	assert.True(t, routes[1].Optional)
	assert.Equal(t, "hello_name", routes[1].Name)
	assert.Equal(t, "app.greeter:Hello", routes[0].To)
	assert.Equal(t, []string{"hello_name"}, router.Names())
}

func TestRouter_MountErrors(t *testing.T) {
	t.Run("invalid requirement", func(t *testing.T) {
		router, _, _ := newTestRouter(t)
		g := router.Group()
		g.Match("/x/{id}", "app.greeter:Hello").Assert("id", "(")
		err := router.Mount("", g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid requirement for 'id'")
	})

	t.Run("backend failure", func(t *testing.T) {
		backend := &recordingBackend{fail: errors.New("conflict")}
		router := NewRouter(backend, container.New())
		g := router.Group()
		g.Match("/x", "app.greeter:Hello")
		err := router.Mount("", g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conflict")
	})
}

func TestRouter_URL(t *testing.T) {
	router, _, _ := newTestRouter(t)
	g := router.Group()
	g.Match("/hello/{name}", "app.greeter:Hello").Bind("hello_name")
	g.Match("/page/{page}", "app.greeter:Stats").Bind("paged").Value("page", "1")
	require.NoError(t, router.Mount("/{_locale}", g))

	url, err := router.URL("hello_name", map[string]string{"_locale": "en", "name": "urs"})
	require.NoError(t, err)
	assert.Equal(t, "/en/hello/urs", url)

	url, err = router.URL("paged", map[string]string{"_locale": "de", "sort": "asc"})
	require.NoError(t, err)
	assert.Equal(t, "/de/page/1?sort=asc", url)

	_, err = router.URL("hello_name", map[string]string{"_locale": "en"})
	assert.True(t, errors.Is(err, ErrMissingParameter))

	_, err = router.URL("unknown", nil)
	assert.True(t, errors.Is(err, ErrRouteNotFound))
}

func TestRouter_URLFor(t *testing.T) {
	router, _, _ := newTestRouter(t)
	g := router.Group()
	g.Match("/hello/{name}", "app.greeter:Hello").Bind("hello_name")
	g.Match("/secure", "app.greeter:Stats").Bind("secure").RequireHTTPS()
	require.NoError(t, router.Mount("/{_locale}", g))

	ctx := newFakeContext("/en/hello/url", map[string]string{"_locale": "en"})

	url, err := router.URLFor(ctx, "hello_name", map[string]string{"name": "urs"}, true)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/en/hello/urs", url)

	url, err = router.URLFor(ctx, "hello_name", map[string]string{"name": "urs", "_locale": "fr"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/fr/hello/urs", url)

	url, err = router.URLFor(ctx, "secure", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/en/secure", url)
}

func TestPipeline_HandlerResults(t *testing.T) {
	router, backend, g := newTestRouter(t)
	grp := router.Group()
	grp.Match("/hello/{name}", "app.greeter:Hello").Value("name", "world")
	grp.Match("/stats", "app.greeter:Stats")
	grp.Match("/nothing", "app.greeter:Nothing")
	grp.Match("/teapot", "app.greeter:Teapot")
	require.NoError(t, router.Mount("", grp))

	ctx := newFakeContext("/hello/hans", map[string]string{"name": "hans"})
	require.NoError(t, backend.handler("/hello/{name}")(ctx))
	assert.Equal(t, http.StatusOK, ctx.status)
	assert.Equal(t, "hello hans!", ctx.body)

	ctx = newFakeContext("/hello", nil)
	require.NoError(t, backend.handler("/hello")(ctx))
	assert.Equal(t, "hello world!", ctx.body)

	ctx = newFakeContext("/stats", nil)
	require.NoError(t, backend.handler("/stats")(ctx))
	assert.Equal(t, http.StatusOK, ctx.status)
	assert.Equal(t, map[string]int{"calls": 2}, ctx.json)
	assert.Len(t, g.calls, 2)

	ctx = newFakeContext("/nothing", nil)
	require.NoError(t, backend.handler("/nothing")(ctx))
	assert.Equal(t, http.StatusNoContent, ctx.status)

	ctx = newFakeContext("/teapot", nil)
	err := backend.handler("/teapot")(ctx)
	code, msg := ErrorStatus(err)
	assert.Equal(t, http.StatusTeapot, code)
	assert.Equal(t, "short and stout", msg)
}

func TestPipeline_Requirements(t *testing.T) {
	router, backend, _ := newTestRouter(t)
	grp := router.Group()
	grp.Match("/user/{id}", "app.greeter:Stats").Assert("id", `\d+`)
	require.NoError(t, router.Mount("", grp))
	h := backend.handler("/user/{id}")

	ctx := newFakeContext("/user/42", map[string]string{"id": "42"})
	require.NoError(t, h(ctx))
	assert.Equal(t, http.StatusOK, ctx.status)

	// anchored: a partial match is rejected
	ctx = newFakeContext("/user/42a", map[string]string{"id": "42a"})
	code, _ := ErrorStatus(h(ctx))
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, ctx.written)
}

func TestPipeline_Converters(t *testing.T) {
	router, backend, _ := newTestRouter(t)
	grp := router.Group()
	grp.Match("/hello/{name}", "app.greeter:Hello").Convert("name", "app.greeter:Reverse")
	grp.Match("/n/{n}", "app.greeter:Nothing").Convert("n", func(raw string) (int, error) {
		if raw == "x" {
			return 0, errors.New("not a number")
		}
		return len(raw), nil
	})
	grp.Match("/gone/{id}", "app.greeter:Nothing").Convert("id", func(raw string) (any, error) {
		return nil, NewHTTPError(http.StatusGone)
	})
	require.NoError(t, router.Mount("/{_locale}", grp))

	ctx := newFakeContext("/en/hello/hans", map[string]string{"_locale": "en", "name": "hans"})
	require.NoError(t, backend.handler("/{_locale}/hello/{name}")(ctx))
	assert.Equal(t, "hello snah!", ctx.body)
	assert.Equal(t, "snah", ctx.values["name"])

	ctx = newFakeContext("/en/n/abc", map[string]string{"n": "abc"})
	require.NoError(t, backend.handler("/{_locale}/n/{n}")(ctx))
	assert.Equal(t, 3, ctx.values["n"])
	assert.Equal(t, "abc", ctx.params["n"])

	ctx = newFakeContext("/en/n/x", map[string]string{"n": "x"})
	code, msg := ErrorStatus(backend.handler("/{_locale}/n/{n}")(ctx))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid n", msg)

	ctx = newFakeContext("/en/gone/1", map[string]string{"id": "1"})
	code, _ = ErrorStatus(backend.handler("/{_locale}/gone/{id}")(ctx))
	assert.Equal(t, http.StatusGone, code)
}

func TestPipeline_Callbacks(t *testing.T) {
	var order []string
	callables := CallableMap{
		"auth::check": func(ctx Context) error {
			order = append(order, "before")
			if ctx.Header("Authorization") == "" {
				return ctx.String(http.StatusUnauthorized, "denied")
			}
			return nil
		},
	}
	router, backend, g := newTestRouter(t, WithCallables(callables))

	grp := router.Group()
	grp.Match("/private", "app.greeter:Nothing").
		Before("auth::check").
		After("app.greeter:Track").
		After(func(ctx Context) { order = append(order, "after") })
	grp.Match("/broken", "app.greeter:Nothing").Before("missing")
	require.NoError(t, router.Mount("", grp))
	h := backend.handler("/private")

	ctx := newFakeContext("/private", nil)
	require.NoError(t, h(ctx))
	assert.Equal(t, http.StatusUnauthorized, ctx.status)
	assert.Equal(t, []string{"before"}, order)
	assert.Empty(t, g.calls)

	order = nil
	ctx = newFakeContext("/private", nil)
	ctx.headers["Authorization"] = "token"
	require.NoError(t, h(ctx))
	assert.Equal(t, http.StatusNoContent, ctx.status)
	assert.Equal(t, []string{"before", "after"}, order)
	assert.Equal(t, []string{"track:/private"}, g.calls)

	err := backend.handler("/broken")(newFakeContext("/broken", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCallable))
}

func TestPipeline_SchemeRedirect(t *testing.T) {
	router, backend, _ := newTestRouter(t)
	grp := router.Group()
	grp.Match("/login", "app.greeter:Nothing").RequireHTTPS()
	require.NoError(t, router.Mount("", grp))
	h := backend.handler("/login")

	ctx := newFakeContext("/login", nil)
	ctx.query = "next=%2F"
	require.NoError(t, h(ctx))
	assert.Equal(t, http.StatusMovedPermanently, ctx.status)
	assert.Equal(t, "https://example.test/login?next=%2F", ctx.location)

	ctx = newFakeContext("/login", nil)
	ctx.scheme = "https"
	require.NoError(t, h(ctx))
	assert.Equal(t, http.StatusNoContent, ctx.status)
}

func TestPipeline_UnknownController(t *testing.T) {
	backend := &recordingBackend{}
	router := NewRouter(backend, container.New())
	grp := router.Group()
	grp.Match("/x", "app.missing:Index")
	grp.Match("/y", "app.greeter:Nope")
	grp.Match("/z", "not-a-reference")
	require.NoError(t, router.Mount("", grp))

	for _, p := range []string{"/x", "/y", "/z"} {
		err := backend.handler(p)(newFakeContext(p, nil))
		code, msg := ErrorStatus(err)
		assert.Equal(t, http.StatusInternalServerError, code, p)
		assert.Equal(t, "controller unavailable", msg)
	}
}

func TestCheckHandler(t *testing.T) {
	g := &greeter{}
	valid := []any{g.Hello, g.Stats, g.Nothing, g.Track, func() {}}
	for _, fn := range valid {
		assert.NoError(t, CheckHandler(reflect.TypeOf(fn)))
	}

	invalid := []any{g.Reverse, func() (int, int) { return 0, 0 }, func() (int, error, bool) { return 0, nil, false }}
	for _, fn := range invalid {
		assert.Error(t, CheckHandler(reflect.TypeOf(fn)))
	}
}

func TestInvoke_Errors(t *testing.T) {
	_, err := invoke(reflect.ValueOf(42), nil)
	assert.Error(t, err)

	_, err = invoke(reflect.ValueOf(func(a ...string) {}), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "variadic"))

	_, err = invoke(reflect.ValueOf(func(n int) {}), nil, "1")
	assert.Error(t, err)

	out, err := invoke(reflect.ValueOf(func(ctx Context, a, b string) string { return a + b }), nil, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}

func TestRouter_AddCallables(t *testing.T) {
	router, _, _ := newTestRouter(t)
	assert.Nil(t, router.Callables())

	first := CallableMap{"a": func() {}}
	router.AddCallables(first)
	assert.IsType(t, CallableMap{}, router.Callables())

	router.AddCallables(CallableMap{"a": func() error { return nil }, "b": func() {}})
	router.AddCallables(nil)
	chain, ok := router.Callables().(CallableChain)
	require.True(t, ok)
	assert.Len(t, chain, 3)

	fn, ok := chain.Callable("a")
	require.True(t, ok)
	assert.IsType(t, func() {}, fn, "first match wins")
	_, ok = chain.Callable("b")
	assert.True(t, ok)
	_, ok = chain.Callable("c")
	assert.False(t, ok)
}

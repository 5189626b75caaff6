package web

import (
	"net/http"
)

type registration struct {
	methods []string
	path    Path
	handler HandlerFunc
}

// recordingBackend stores registrations so tests can dispatch to them directly
type recordingBackend struct {
	registered []registration
	fail       error
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Handle(methods []string, path Path, h HandlerFunc) error {
	if b.fail != nil {
		return b.fail
	}
	b.registered = append(b.registered, registration{methods: methods, path: path, handler: h})
	return nil
}

func (b *recordingBackend) handler(path string) HandlerFunc {
	for _, r := range b.registered {
		if string(r.path) == path {
			return r.handler
		}
	}
	return nil
}

// fakeContext is an in-memory Context
type fakeContext struct {
	method  string
	path    string
	scheme  string
	host    string
	query   string
	headers map[string]string
	params  map[string]string
	values  map[string]any

	status   int
	body     string
	json     any
	location string
	written  bool
	respHdr  http.Header
}

func newFakeContext(path string, params map[string]string) *fakeContext {
	if params == nil {
		params = map[string]string{}
	}
	return &fakeContext{
		method:  http.MethodGet,
		path:    path,
		scheme:  "http",
		host:    "example.test",
		headers: map[string]string{},
		params:  params,
		values:  map[string]any{},
		respHdr: http.Header{},
	}
}

func (c *fakeContext) Method() string             { return c.method }
func (c *fakeContext) Path() string               { return c.path }
func (c *fakeContext) Scheme() string             { return c.scheme }
func (c *fakeContext) Host() string               { return c.host }
func (c *fakeContext) RawQuery() string           { return c.query }
func (c *fakeContext) Header(key string) string   { return c.headers[key] }
func (c *fakeContext) Param(name string) string   { return c.params[name] }
func (c *fakeContext) SetParam(name, v string)    { c.params[name] = v }
func (c *fakeContext) Get(key string) any         { return c.values[key] }
func (c *fakeContext) Set(key string, val any)    { c.values[key] = val }
func (c *fakeContext) SetHeader(key, v string)    { c.respHdr.Set(key, v) }
func (c *fakeContext) Status() int                { return c.status }
func (c *fakeContext) Written() bool              { return c.written }
func (c *fakeContext) Underlying() any            { return nil }
func (c *fakeContext) write(code int)             { c.status, c.written = code, true }
func (c *fakeContext) NoContent(code int) error   { c.write(code); return nil }
func (c *fakeContext) JSON(code int, v any) error { c.write(code); c.json = v; return nil }

func (c *fakeContext) String(code int, s string) error {
	c.write(code)
	c.body = s
	return nil
}

func (c *fakeContext) Redirect(code int, url string) error {
	c.write(code)
	c.location = url
	return nil
}

package adapters

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/toyz/routewire/pkg/web"
)

// FiberAdapter implements web.Backend for Fiber v2
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter
func NewFiberAdapter(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a Fiber adapter with a quiet default app
func NewDefaultFiberAdapter() *FiberAdapter {
	return &FiberAdapter{app: fiber.New(fiber.Config{DisableStartupMessage: true})}
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// App returns the underlying Fiber app
func (fa *FiberAdapter) App() *fiber.App {
	return fa.app
}

// Handle registers a route with the Fiber app
func (fa *FiberAdapter) Handle(methods []string, path web.Path, h web.HandlerFunc) error {
	fiberPath := path.ColonFormat()
	handler := convertHandlerToFiber(h)

	if len(methods) == 0 {
		fa.app.All(fiberPath, handler)
		return nil
	}
	for _, method := range methods {
		fa.app.Add(method, fiberPath, handler)
	}
	return nil
}

// Start starts the server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

func convertHandlerToFiber(handler web.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := &FiberContext{ctx: c}
		if err := handler(ctx); err != nil {
			code, message := web.ErrorStatus(err)
			return c.Status(code).SendString(message)
		}
		return nil
	}
}

// FiberContext wraps fiber.Ctx to implement web.Context
type FiberContext struct {
	ctx     *fiber.Ctx
	params  overrides
	written bool
}

// Method returns the HTTP method
func (fc *FiberContext) Method() string {
	return fc.ctx.Method()
}

// Path returns the request path
func (fc *FiberContext) Path() string {
	return fc.ctx.Path()
}

// Scheme returns http or https
func (fc *FiberContext) Scheme() string {
	return fc.ctx.Protocol()
}

// Host returns the request host
func (fc *FiberContext) Host() string {
	return string(fc.ctx.Request().Host())
}

// RawQuery returns the encoded query string
func (fc *FiberContext) RawQuery() string {
	return string(fc.ctx.Request().URI().QueryString())
}

// Header returns a request header
func (fc *FiberContext) Header(key string) string {
	return fc.ctx.Get(key)
}

// Param returns path parameter by name
func (fc *FiberContext) Param(name string) string {
	if v, ok := fc.params.get(name); ok {
		return v
	}
	return fc.ctx.Params(name)
}

// SetParam overrides a path parameter
func (fc *FiberContext) SetParam(name, value string) {
	fc.params.set(name, value)
}

// Get returns a request-scoped value
func (fc *FiberContext) Get(key string) any {
	return fc.ctx.Locals(key)
}

// Set stores a request-scoped value
func (fc *FiberContext) Set(key string, val any) {
	fc.ctx.Locals(key, val)
}

// SetHeader sets a response header
func (fc *FiberContext) SetHeader(key, value string) {
	fc.ctx.Set(key, value)
}

// Status returns the response status
func (fc *FiberContext) Status() int {
	return fc.ctx.Response().StatusCode()
}

// Written reports whether a response body or status was sent through this context
func (fc *FiberContext) Written() bool {
	return fc.written
}

// String writes a plain text response
func (fc *FiberContext) String(code int, s string) error {
	fc.written = true
	return fc.ctx.Status(code).SendString(s)
}

// JSON writes a JSON response
func (fc *FiberContext) JSON(code int, v any) error {
	fc.written = true
	return fc.ctx.Status(code).JSON(v)
}

// NoContent writes a status without body
func (fc *FiberContext) NoContent(code int) error {
	fc.written = true
	return fc.ctx.SendStatus(code)
}

// Redirect redirects the request
func (fc *FiberContext) Redirect(code int, url string) error {
	fc.written = true
	return fc.ctx.Redirect(url, code)
}

// Underlying returns the *fiber.Ctx
func (fc *FiberContext) Underlying() any {
	return fc.ctx
}

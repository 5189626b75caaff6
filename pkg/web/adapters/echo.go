package adapters

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/toyz/routewire/pkg/web"
)

// EchoAdapter implements web.Backend for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with default Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoAdapter{engine: e}
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// Engine returns the underlying Echo instance
func (ea *EchoAdapter) Engine() *echo.Echo {
	return ea.engine
}

// Handle registers a route with the Echo server
func (ea *EchoAdapter) Handle(methods []string, path web.Path, h web.HandlerFunc) error {
	echoPath := path.ColonFormat()
	handler := ea.convertHandler(h)

	if len(methods) == 0 {
		ea.engine.Any(echoPath, handler)
		return nil
	}
	ea.engine.Match(methods, echoPath, handler)
	return nil
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// convertHandler converts web.HandlerFunc to echo.HandlerFunc
func (ea *EchoAdapter) convertHandler(handler web.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := handler(&EchoContext{context: c}); err != nil {
			code, message := web.ErrorStatus(err)
			return echo.NewHTTPError(code, message).SetInternal(err)
		}
		return nil
	}
}

// EchoContext implements web.Context for Echo
type EchoContext struct {
	context echo.Context
	params  overrides
}

// Method returns the HTTP method
func (ec *EchoContext) Method() string {
	return ec.context.Request().Method
}

// Path returns the request path
func (ec *EchoContext) Path() string {
	return ec.context.Request().URL.Path
}

// Scheme returns http or https
func (ec *EchoContext) Scheme() string {
	return ec.context.Scheme()
}

// Host returns the request host
func (ec *EchoContext) Host() string {
	return ec.context.Request().Host
}

// RawQuery returns the encoded query string
func (ec *EchoContext) RawQuery() string {
	return ec.context.Request().URL.RawQuery
}

// Header returns a request header
func (ec *EchoContext) Header(key string) string {
	return ec.context.Request().Header.Get(key)
}

// Param returns path parameter by name
func (ec *EchoContext) Param(name string) string {
	if v, ok := ec.params.get(name); ok {
		return v
	}
	return ec.context.Param(name)
}

// SetParam overrides a path parameter
func (ec *EchoContext) SetParam(name, value string) {
	ec.params.set(name, value)
}

// Get returns a request-scoped value
func (ec *EchoContext) Get(key string) any {
	return ec.context.Get(key)
}

// Set stores a request-scoped value
func (ec *EchoContext) Set(key string, val any) {
	ec.context.Set(key, val)
}

// SetHeader sets a response header
func (ec *EchoContext) SetHeader(key, value string) {
	ec.context.Response().Header().Set(key, value)
}

// Status returns the response status
func (ec *EchoContext) Status() int {
	return ec.context.Response().Status
}

// Written reports whether the response has been committed
func (ec *EchoContext) Written() bool {
	return ec.context.Response().Committed
}

// String writes a plain text response
func (ec *EchoContext) String(code int, s string) error {
	return ec.context.String(code, s)
}

// JSON writes a JSON response
func (ec *EchoContext) JSON(code int, v any) error {
	return ec.context.JSON(code, v)
}

// NoContent writes a status without body
func (ec *EchoContext) NoContent(code int) error {
	return ec.context.NoContent(code)
}

// Redirect redirects the request
func (ec *EchoContext) Redirect(code int, url string) error {
	return ec.context.Redirect(code, url)
}

// Underlying returns the echo.Context
func (ec *EchoContext) Underlying() any {
	return ec.context
}

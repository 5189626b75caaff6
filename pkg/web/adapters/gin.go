package adapters

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/toyz/routewire/pkg/web"
)

// GinAdapter implements web.Backend for Gin framework
type GinAdapter struct {
	engine *gin.Engine
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with a bare Gin instance
func NewDefaultGinAdapter() *GinAdapter {
	return &GinAdapter{engine: gin.New()}
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// Engine returns the underlying Gin instance
func (ga *GinAdapter) Engine() *gin.Engine {
	return ga.engine
}

// Handle registers a route with the Gin server. Gin panics on conflicting
// routes, which is reported as an error instead.
func (ga *GinAdapter) Handle(methods []string, path web.Path, h web.HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("gin: %v", rec)
		}
	}()

	ginPath := path.ColonFormat()
	handler := ga.convertHandler(h)

	if len(methods) == 0 {
		ga.engine.Any(ginPath, handler)
		return nil
	}
	for _, method := range methods {
		ga.engine.Handle(method, ginPath, handler)
	}
	return nil
}

// convertHandler converts web.HandlerFunc to gin.HandlerFunc
func (ga *GinAdapter) convertHandler(handler web.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(&GinContext{context: c}); err != nil {
			_ = c.Error(err)
			if !c.Writer.Written() {
				code, message := web.ErrorStatus(err)
				c.String(code, message)
			}
		}
	}
}

// GinContext implements web.Context for Gin
type GinContext struct {
	context *gin.Context
	params  overrides
}

// Method returns the HTTP method
func (gc *GinContext) Method() string {
	return gc.context.Request.Method
}

// Path returns the request path
func (gc *GinContext) Path() string {
	return gc.context.Request.URL.Path
}

// Scheme returns http or https
func (gc *GinContext) Scheme() string {
	if gc.context.Request.TLS != nil {
		return "https"
	}
	if proto := gc.context.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}

// Host returns the request host
func (gc *GinContext) Host() string {
	return gc.context.Request.Host
}

// RawQuery returns the encoded query string
func (gc *GinContext) RawQuery() string {
	return gc.context.Request.URL.RawQuery
}

// Header returns a request header
func (gc *GinContext) Header(key string) string {
	return gc.context.GetHeader(key)
}

// Param returns path parameter by name
func (gc *GinContext) Param(name string) string {
	if v, ok := gc.params.get(name); ok {
		return v
	}
	return gc.context.Param(name)
}

// SetParam overrides a path parameter
func (gc *GinContext) SetParam(name, value string) {
	gc.params.set(name, value)
}

// Get returns a request-scoped value
func (gc *GinContext) Get(key string) any {
	v, _ := gc.context.Get(key)
	return v
}

// Set stores a request-scoped value
func (gc *GinContext) Set(key string, val any) {
	gc.context.Set(key, val)
}

// SetHeader sets a response header
func (gc *GinContext) SetHeader(key, value string) {
	gc.context.Header(key, value)
}

// Status returns the response status
func (gc *GinContext) Status() int {
	return gc.context.Writer.Status()
}

// Written reports whether the response has been written
func (gc *GinContext) Written() bool {
	return gc.context.Writer.Written()
}

// String writes a plain text response
func (gc *GinContext) String(code int, s string) error {
	gc.context.String(code, "%s", s)
	return nil
}

// JSON writes a JSON response
func (gc *GinContext) JSON(code int, v any) error {
	gc.context.JSON(code, v)
	return nil
}

// NoContent writes a status without body
func (gc *GinContext) NoContent(code int) error {
	gc.context.Status(code)
	gc.context.Writer.WriteHeaderNow()
	return nil
}

// Redirect redirects the request
func (gc *GinContext) Redirect(code int, url string) error {
	gc.context.Redirect(code, url)
	return nil
}

// Underlying returns the *gin.Context
func (gc *GinContext) Underlying() any {
	return gc.context
}

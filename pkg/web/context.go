// Package web is the router front-end that controller wiring talks to. Routes
// are described on a Group, mounted under a prefix and handed to a Backend
// (echo, gin or fiber) which does the actual matching.
package web

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingParameter is returned when a URL cannot be generated
	ErrMissingParameter = errors.New("missing route parameter")
	// ErrRouteNotFound is returned for unknown route names
	ErrRouteNotFound = errors.New("route not found")
	// ErrNoCallable is returned when a callable name cannot be resolved
	ErrNoCallable = errors.New("callable not found")
)

// Context provides a framework-agnostic view of one request
type Context interface {
	// Request data
	Method() string
	Path() string
	Scheme() string
	Host() string
	RawQuery() string
	Header(key string) string

	// Path parameters. SetParam overrides what the backend matched.
	Param(name string) string
	SetParam(name, value string)

	// Request-scoped values, converters store their results here
	Get(key string) any
	Set(key string, val any)

	// Response
	SetHeader(key, value string)
	Status() int
	Written() bool
	String(code int, s string) error
	JSON(code int, v any) error
	NoContent(code int) error
	Redirect(code int, url string) error

	// Underlying returns the framework context (echo.Context, *gin.Context, *fiber.Ctx)
	Underlying() any
}

// HandlerFunc is what backends register for every route
type HandlerFunc func(Context) error

// Backend registers handlers with a concrete HTTP router
type Backend interface {
	Name() string
	// Handle registers h for the given methods; no methods means any method.
	Handle(methods []string, path Path, h HandlerFunc) error
}

// Callables resolves "Type::Func" and plain callable names at dispatch time
type Callables interface {
	Callable(name string) (any, bool)
}

// CallableMap is a Callables backed by a map
type CallableMap map[string]any

// Callable implements Callables
func (m CallableMap) Callable(name string) (any, bool) {
	fn, ok := m[name]
	return fn, ok
}

// CallableChain asks each Callables in turn; the first match wins
type CallableChain []Callables

// Callable implements Callables
func (c CallableChain) Callable(name string) (any, bool) {
	for _, cs := range c {
		if cs == nil {
			continue
		}
		if fn, ok := cs.Callable(name); ok {
			return fn, true
		}
	}
	return nil, false
}

// HTTPError represents an HTTP error with status code and message
type HTTPError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Internal error  `json:"-"` // Stores the error returned by an external dependency
}

// Error makes HTTPError implement the error interface
func (he *HTTPError) Error() string {
	if he.Internal != nil {
		return he.Message + ": " + he.Internal.Error()
	}
	return he.Message
}

// Unwrap exposes the internal error
func (he *HTTPError) Unwrap() error {
	return he.Internal
}

// NewHTTPError creates a new HTTPError instance
func NewHTTPError(code int, message ...string) *HTTPError {
	he := &HTTPError{Code: code, Message: http.StatusText(code)}
	if len(message) > 0 {
		he.Message = message[0]
	}
	return he
}

// ErrorStatus maps an error returned by the pipeline to a status code and message
func ErrorStatus(err error) (int, string) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code, he.Message
	}
	return http.StatusInternalServerError, err.Error()
}

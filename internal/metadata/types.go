// Package metadata turns scanned declarations into controller metadata: the
// class-level and method-level @Route/@DI annotations of every controller,
// with self references already resolved.
package metadata

import (
	"strings"

	"github.com/toyz/routewire/pkg/annotation"
)

// AnnotationInfo holds the annotations attached to one declaration
type AnnotationInfo struct {
	Route *annotation.Route `yaml:"route,omitempty"`
	DI    *annotation.DI    `yaml:"di,omitempty"`
}

// IsEmpty reports whether neither annotation is present
func (a AnnotationInfo) IsEmpty() bool {
	return a.Route == nil && a.DI == nil
}

// MethodInfo is an annotated controller method
type MethodInfo struct {
	Name           string `yaml:"name"`
	AnnotationInfo `yaml:",inline"`
}

// ClassInfo is a controller type
type ClassInfo struct {
	Name           string `yaml:"name"` // fully-qualified, e.g. example.com/app/controller.TestController
	ServiceKey     string `yaml:"serviceKey"`
	AnnotationInfo `yaml:",inline"`
	Methods        []MethodInfo `yaml:"methods,omitempty"`
}

// TypeName returns the unqualified type name
func (c *ClassInfo) TypeName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// Prefix returns the mount prefix declared by a class-level @Route
func (c *ClassInfo) Prefix() string {
	if c.Route == nil {
		return ""
	}
	return c.Route.Pattern
}

// IsController reports whether at least one method declares a route
func (c *ClassInfo) IsController() bool {
	for _, m := range c.Methods {
		if m.Route != nil {
			return true
		}
	}
	return false
}

// RouteCount returns the number of routed methods
func (c *ClassInfo) RouteCount() int {
	n := 0
	for _, m := range c.Methods {
		if m.Route != nil {
			n++
		}
	}
	return n
}

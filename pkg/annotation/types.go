// Package annotation holds the typed routing and dependency-injection metadata
// that controllers declare in their doc comments, together with the parser that
// reads the @Route/@DI comment syntax.
package annotation

import (
	"sort"
	"strings"
)

// Annotation is implemented by every typed annotation value.
type Annotation interface {
	AnnotationName() string
}

// Annotation names
const (
	RouteName    = "Route"
	ConvertName  = "Convert"
	CallbackName = "Callback"
	DIName       = "DI"
)

// Route describes a route on a controller method, or the mount prefix when
// attached to the controller type itself.
type Route struct {
	Pattern      string            `yaml:"pattern"`
	Bind         string            `yaml:"bind,omitempty"`
	Asserts      map[string]string `yaml:"asserts,omitempty"`
	Defaults     map[string]string `yaml:"defaults,omitempty"`
	Converters   []Convert         `yaml:"converters,omitempty"`
	Method       string            `yaml:"method,omitempty"`
	RequireHTTP  bool              `yaml:"requireHttp,omitempty"`
	RequireHTTPS bool              `yaml:"requireHttps,omitempty"`
	Before       []Callback        `yaml:"before,omitempty"`
	After        []Callback        `yaml:"after,omitempty"`
}

// AnnotationName implements Annotation
func (*Route) AnnotationName() string { return RouteName }

// Variables returns the {placeholder} names of the pattern in order of appearance.
func (r *Route) Variables() []string {
	return PatternVariables(r.Pattern)
}

// AssertKeys returns the assert variables sorted, for deterministic replay.
func (r *Route) AssertKeys() []string {
	return sortedKeys(r.Asserts)
}

// DefaultKeys returns the default variables sorted, for deterministic replay.
func (r *Route) DefaultKeys() []string {
	return sortedKeys(r.Defaults)
}

// Convert registers a value converter for one route variable.
type Convert struct {
	Variable string   `yaml:"variable"`
	Callback Callback `yaml:"callback"`
}

// AnnotationName implements Annotation
func (*Convert) AnnotationName() string { return ConvertName }

// Callback is a reference to something invokable: "service:Method",
// "Type::Func" or a plain name.
type Callback struct {
	Reference string `yaml:"reference"`
}

// AnnotationName implements Annotation
func (*Callback) AnnotationName() string { return CallbackName }

// DI declares how a controller (type level) or a setter (method level) receives
// its dependencies.
type DI struct {
	InjectContainer bool     `yaml:"injectContainer,omitempty"`
	ServiceIDs      []string `yaml:"serviceIds,omitempty"`
}

// AnnotationName implements Annotation
func (*DI) AnnotationName() string { return DIName }

// PatternVariables extracts {name} placeholders from a route pattern.
func PatternVariables(pattern string) []string {
	var vars []string
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			return vars
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			return vars
		}
		if name := pattern[open+1 : open+end]; name != "" {
			vars = append(vars, name)
		}
		pattern = pattern[open+end+1:]
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

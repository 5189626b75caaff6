package web

import (
	"fmt"
	"net/url"
	"strings"
)

// PathPartType represents the type of path part
type PathPartType int

const (
	StaticPart PathPartType = iota
	ParameterPart
)

// PathPart represents a single part of a route path
type PathPart struct {
	Type  PathPartType
	Value string // For static parts: the literal text, for parameters: the parameter name
}

// Path is a route path using {name} placeholders
type Path string

// Raw returns the original path
func (p Path) Raw() string {
	return string(p)
}

// Parts parses the path and returns the individual parts
func (p Path) Parts() []PathPart {
	path := string(p)
	var parts []PathPart

	i := 0
	for i < len(path) {
		if path[i] == '{' {
			j := strings.IndexByte(path[i:], '}')
			if j > 1 {
				parts = append(parts, PathPart{Type: ParameterPart, Value: path[i+1 : i+j]})
				i += j + 1
				continue
			}
			// Malformed, treat as static
			parts = append(parts, PathPart{Type: StaticPart, Value: path[i : i+1]})
			i++
			continue
		}

		start := i
		for i < len(path) && path[i] != '{' {
			i++
		}
		parts = append(parts, PathPart{Type: StaticPart, Value: path[start:i]})
	}

	return parts
}

// Variables returns the placeholder names in order
func (p Path) Variables() []string {
	var vars []string
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			vars = append(vars, part.Value)
		}
	}
	return vars
}

// Format renders the path with every placeholder replaced by param(name).
// Backends use it to produce their own syntax, e.g. ":name".
func (p Path) Format(param func(name string) string) string {
	var b strings.Builder
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			b.WriteString(param(part.Value))
		} else {
			b.WriteString(part.Value)
		}
	}
	return b.String()
}

// ColonFormat renders the path in the ":name" syntax shared by echo, gin and fiber
func (p Path) ColonFormat() string {
	return p.Format(func(name string) string { return ":" + name })
}

// Expand substitutes values into the placeholders, escaping each value.
func (p Path) Expand(values map[string]string) (string, error) {
	var missing []string
	out := p.Format(func(name string) string {
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			return ""
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}
	return out, nil
}

// TrimTrailingVariable drops a final "/{name}" segment. It reports false when
// the path does not end with exactly that placeholder.
func (p Path) TrimTrailingVariable(name string) (Path, bool) {
	suffix := "/{" + name + "}"
	s := string(p)
	if !strings.HasSuffix(s, suffix) {
		return p, false
	}
	trimmed := strings.TrimSuffix(s, suffix)
	if trimmed == "" {
		trimmed = "/"
	}
	return Path(trimmed), true
}

// JoinPath joins a mount prefix and a route pattern
func JoinPath(prefix, pattern string) string {
	prefix = strings.TrimRight(prefix, "/")
	if pattern == "" || pattern == "/" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}
	return prefix + pattern
}

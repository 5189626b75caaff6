// Package resolver derives service keys from type names and rewrites the
// __self placeholder in callback references.
package resolver

import (
	"reflect"
	"strings"
)

// ServiceKey derives the container key of a controller from its
// fully-qualified name: lowercased, with namespace separators turned into dots.
//
//	App\Controller\TestController                    -> app.controller.testcontroller
//	github.com/acme/app/controller.TestController    -> github.com.acme.app.controller.testcontroller
func ServiceKey(fqn string) string {
	key := strings.ToLower(fqn)
	key = strings.ReplaceAll(key, `\`, ".")
	key = strings.ReplaceAll(key, "/", ".")
	return key
}

// TypeName returns the fully-qualified name of a named type, dereferencing
// pointers: "<import path>.<Name>". Unnamed types yield "".
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// FQN joins an import path and a type name the same way TypeName does.
func FQN(importPath, typeName string) string {
	if importPath == "" {
		return typeName
	}
	return importPath + "." + typeName
}

// Package container is a small service container with lazy, shared services.
//
// Expected usage:
//
//	c := container.New()
//	c.Set("config", cfg)
//	c.Share("app.controller.home", func(c *container.Container) (any, error) {
//		return NewHomeController(c), nil
//	})
//	home, err := c.Get("app.controller.home")
package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrServiceNotFound is returned by Get for keys that were never defined.
	ErrServiceNotFound = errors.New("container: service not found")
	// ErrFactoryPanic is returned if a factory panics while building a service.
	ErrFactoryPanic = errors.New("container: panic in service factory")
)

// Factory builds a service. It receives the container so it can resolve its
// own dependencies.
type Factory func(c *Container) (any, error)

type entryKind int

const (
	valueEntry entryKind = iota
	sharedEntry
	factoryEntry
)

type entry struct {
	kind    entryKind
	factory Factory

	mu    sync.Mutex
	built bool
	value any
}

// Container maps keys to values and factories
type Container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty container
func New() *Container {
	return &Container{entries: make(map[string]*entry)}
}

// Set stores a ready value under key, replacing any previous definition.
func (c *Container) Set(key string, value any) *Container {
	c.define(key, &entry{kind: valueEntry, value: value, built: true})
	return c
}

// Share registers a lazily built singleton. The factory runs on first Get and
// every later Get returns the same instance. A failing factory is retried on
// the next Get. A factory must not Get its own key, directly or through other
// shared services: that Get waits for the build it is part of.
func (c *Container) Share(key string, factory Factory) *Container {
	c.define(key, &entry{kind: sharedEntry, factory: factory})
	return c
}

// Factory registers a factory that builds a new instance on every Get.
func (c *Container) Factory(key string, factory Factory) *Container {
	c.define(key, &entry{kind: factoryEntry, factory: factory})
	return c
}

func (c *Container) define(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Has reports whether key is defined
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Keys returns every defined key, sorted
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get resolves key, building it if needed.
func (c *Container) Get(key string) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, key)
	}

	switch e.kind {
	case valueEntry:
		return e.value, nil
	case factoryEntry:
		return c.build(key, e.factory)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return e.value, nil
	}

	v, err := c.build(key, e.factory)
	if err != nil {
		return nil, err
	}
	e.value, e.built = v, true
	return v, nil
}

// MustGet returns the service or panics with a helpful message.
func (c *Container) MustGet(key string) any {
	v, err := c.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// build runs a factory and converts panics into errors
func (c *Container) build(key string, factory Factory) (val any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = fmt.Errorf("%w %q: %v", ErrFactoryPanic, key, rec)
		}
	}()

	val, err = factory(c)
	if err != nil {
		return nil, fmt.Errorf("container: building %q: %w", key, err)
	}
	return val, nil
}

// Get resolves key and asserts its type.
func Get[T any](c *Container, key string) (T, error) {
	var zero T
	v, err := c.Get(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: service %q is %T, not %T", key, v, zero)
	}
	return t, nil
}

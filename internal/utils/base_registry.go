package utils

import (
	"fmt"
	"sync"
)

// RegistryValidator is a function that validates a key-value pair before registration
type RegistryValidator[K comparable, V any] func(key K, value V, existing map[K]V) error

// BaseRegistry is a thread-safe registry that remembers insertion order
type BaseRegistry[K comparable, V any] struct {
	mu           sync.RWMutex
	items        map[K]V
	order        []K
	validator    RegistryValidator[K, V]
	registryName string
}

// NewBaseRegistry creates a new registry. validator may be nil.
func NewBaseRegistry[K comparable, V any](registryName string, validator RegistryValidator[K, V]) *BaseRegistry[K, V] {
	return &BaseRegistry[K, V]{
		items:        make(map[K]V),
		validator:    validator,
		registryName: registryName,
	}
}

// Register adds an item to the registry with validation
func (r *BaseRegistry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.validator != nil {
		if err := r.validator(key, value, r.items); err != nil {
			return fmt.Errorf("%s registry: %w", r.registryName, err)
		}
	}

	if _, exists := r.items[key]; !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = value
	return nil
}

// Get retrieves an item from the registry
func (r *BaseRegistry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[key]
	return value, exists
}

// Has checks if a key exists in the registry
func (r *BaseRegistry[K, V]) Has(key K) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys returns all keys in registration order
func (r *BaseRegistry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]K(nil), r.order...)
}

// Size returns the number of items in the registry
func (r *BaseRegistry[K, V]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// NotEmptyKeyValidator validates that a string key is not empty
func NotEmptyKeyValidator[V any](keyDesc string) RegistryValidator[string, V] {
	return func(key string, value V, existing map[string]V) error {
		if key == "" {
			return fmt.Errorf("%s cannot be empty", keyDesc)
		}
		return nil
	}
}

// NoDuplicateValidator validates that a key doesn't already exist
func NoDuplicateValidator[K comparable, V any](keyDesc string) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		if _, exists := existing[key]; exists {
			return fmt.Errorf("%s '%v' is already registered", keyDesc, key)
		}
		return nil
	}
}

// ChainValidators combines multiple validators into one
func ChainValidators[K comparable, V any](validators ...RegistryValidator[K, V]) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		for _, validator := range validators {
			if validator == nil {
				continue
			}
			if err := validator(key, value, existing); err != nil {
				return err
			}
		}
		return nil
	}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/schema"
)

// Binding pairs an entity name with the backend client that serves it and the
// entity's ordered key fields. Bindings are immutable once registered.
type Binding struct {
	Entity    string
	Client    datastore.Client
	KeyFields []string
	// Schema is the full record shape of the entity. Key fields absent from a
	// requested shape are taken from here.
	Schema *schema.Shape
}

// Key assembles the key value for a lookup from a caller supplied key path.
// A single key field yields the component itself; a composite key yields a
// map keyed by field name.
func (b Binding) Key(path ...any) (any, error) {
	if len(path) != len(b.KeyFields) {
		return nil, errors.NewKeyMismatchError(b.Entity, b.KeyFields, len(path))
	}
	if len(path) == 1 {
		return path[0], nil
	}
	key := make(map[string]any, len(path))
	for i, field := range b.KeyFields {
		key[field] = path[i]
	}
	return key, nil
}

// Registry is a thread-safe entity name -> Binding lookup.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		bindings: make(map[string]Binding),
	}
}

// Register validates b and stores it under b.Entity.
func (r *Registry) Register(b Binding) error {
	if b.Entity == "" {
		return errors.NewValidationError("entity", "entity name is required")
	}
	if b.Client == nil {
		return errors.NewValidationError("client", fmt.Sprintf("entity %q has no client", b.Entity))
	}
	if b.Schema == nil {
		return errors.NewValidationError("schema", fmt.Sprintf("entity %q has no schema", b.Entity))
	}
	seen := make(map[string]bool, len(b.KeyFields))
	for _, k := range b.KeyFields {
		if seen[k] {
			return errors.NewValidationError("keyFields", fmt.Sprintf("entity %q: duplicate key field %q", b.Entity, k))
		}
		seen[k] = true
		f, ok := b.Schema.Field(k)
		if !ok {
			return errors.NewValidationError("keyFields", fmt.Sprintf("entity %q: key field %q is not in the schema", b.Entity, k))
		}
		if f.Relation {
			return errors.NewValidationError("keyFields", fmt.Sprintf("entity %q: key field %q is a relation", b.Entity, k))
		}
	}
	b.KeyFields = append([]string(nil), b.KeyFields...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[b.Entity]; exists {
		return fmt.Errorf("entity %q already registered", b.Entity)
	}
	r.bindings[b.Entity] = b
	return nil
}

// Resolve returns the binding for entity. An unknown entity is a local
// resolution failure matching errors.ErrEntityNotFound.
func (r *Registry) Resolve(entity string) (Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[entity]
	if !ok {
		return Binding{}, errors.NewEntityNotFoundError(entity)
	}
	return b, nil
}

// Remove deletes the binding for entity.
func (r *Registry) Remove(entity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[entity]; !ok {
		return errors.NewEntityNotFoundError(entity)
	}
	delete(r.bindings, entity)
	return nil
}

// Entities lists the registered entity names in sorted order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = New()

// Default returns the process-wide registry used when no other is supplied.
func Default() *Registry {
	return defaultRegistry
}

// Register adds b to the default registry.
func Register(b Binding) error {
	return defaultRegistry.Register(b)
}

// MustRegister is Register for init() functions; it panics on failure.
func MustRegister(b Binding) {
	if err := defaultRegistry.Register(b); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
}

// Resolve looks entity up in the default registry.
func Resolve(entity string) (Binding, error) {
	return defaultRegistry.Resolve(entity)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package persist

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/schema"
	"github.com/suparena/persist/storagemodels"
)

// Entity provides type-safe reads of one entity into Go values of type T.
// Record members are matched to T's fields through their JSON names, so
// persist tag names must agree with json tag names.
type Entity[T any] struct {
	d     *Dispatcher
	name  string
	shape *schema.Shape
}

// Result is one decoded item of a typed stream
type Result[T any] struct {
	Item  T
	Error error
	Meta  storagemodels.StreamMeta
}

// For binds type T to entity. The requested shape is derived from T once.
func For[T any](d *Dispatcher, entity string) (*Entity[T], error) {
	shape, err := schema.Of[T]()
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", entity, err)
	}
	return &Entity[T]{d: d, name: entity, shape: shape}, nil
}

// Name returns the entity name
func (e *Entity[T]) Name() string {
	return e.name
}

// Shape returns the shape requested on every read
func (e *Entity[T]) Shape() *schema.Shape {
	return e.shape
}

// All scans the entity and decodes every record
func (e *Entity[T]) All(ctx context.Context) ([]T, error) {
	rs := e.d.Scan(ctx, e.name, e.shape)
	defer rs.Close()

	records, err := rs.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		v, err := Decode[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Stream scans the entity and decodes records as they arrive
func (e *Entity[T]) Stream(ctx context.Context, opts ...storagemodels.StreamOption) <-chan Result[T] {
	options := storagemodels.ApplyStreamOptions(opts...)
	out := make(chan Result[T], options.BufferSize)

	in := e.d.Scan(ctx, e.name, e.shape).Channel(ctx, opts...)
	go func() {
		defer close(out)
		for r := range in {
			res := Result[T]{Error: r.Error, Meta: r.Meta}
			if r.Error == nil {
				res.Item, res.Error = Decode[T](r.Item)
			}
			select {
			case <-ctx.Done():
				return
			case out <- res:
			}
			if res.Error != nil {
				return
			}
		}
	}()
	return out
}

// Get looks up one record by key and decodes it
func (e *Entity[T]) Get(ctx context.Context, keyPath ...any) (*T, error) {
	record, err := e.d.LookupByKey(ctx, e.name, e.shape, keyPath...)
	if err != nil {
		return nil, err
	}
	v, err := Decode[T](record)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Reload looks up the current record for v by the members T tags as keys.
func (e *Entity[T]) Reload(ctx context.Context, v T) (*T, error) {
	return e.Get(ctx, schema.KeyPathOf(v)...)
}

// Decode converts a record into T through its JSON representation
func Decode[T any](record datastore.Record) (T, error) {
	var v T
	raw, err := json.Marshal(record)
	if err != nil {
		return v, fmt.Errorf("failed to encode record: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed to decode record into %T: %w", v, err)
	}
	return v, nil
}

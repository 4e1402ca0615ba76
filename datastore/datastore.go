/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/persist/schema"
)

// Record is one materialized row, keyed by field name.
type Record = map[string]any

// Stream is a pull iterator over records owned by the backend that produced it.
// Next returns io.EOF once the stream is exhausted. A Stream has one consumer.
type Stream interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// ReadRequest carries everything a backend needs for a streamed read.
type ReadRequest struct {
	// Entity is the logical entity name the read was dispatched for.
	Entity string
	// Shape is the augmented shape: requested fields plus missing key fields.
	Shape *schema.Shape
	// TypeMap maps field name to declared type name for value coercion.
	TypeMap map[string]string
	// Fields are the scalar members to project. Empty means backend default projection.
	Fields []string
	// Includes are the relation members the caller asked for.
	Includes []string
}

// KeyRequest carries everything a backend needs for a single-row lookup.
type KeyRequest struct {
	Entity string
	// Target is the shape the caller asked for.
	Target *schema.Shape
	// Shape is the augmented shape.
	Shape   *schema.Shape
	TypeMap map[string]string
	// Key is the single key value, or map[string]any for a composite key.
	Key              any
	Fields           []string
	Includes         []string
	TypeDescriptions []*schema.Shape
}

// Client is the read contract every backend implements.
//
// ReadByKey must report a missing row with errors.NewRowNotFoundError (or any
// error matching errors.ErrNotFound). Returning a nil record with a nil error
// is a contract violation.
type Client interface {
	ReadQuery(ctx context.Context, req ReadRequest) (Stream, error)

	ReadTableAsStream(ctx context.Context, req ReadRequest) (Stream, error)

	ReadByKey(ctx context.Context, req KeyRequest) (Record, error)
}

// RelationResolver is implemented by backends that can populate include
// members on a record after it has been read.
type RelationResolver interface {
	ResolveRelations(ctx context.Context, record Record, includes []string, descriptions []*schema.Shape) error
}

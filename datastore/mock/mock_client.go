/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Client, used by
// tests and by the memory backend of the config package
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/schema"
)

// RelationFunc produces the value of an include member for a record.
type RelationFunc func(ctx context.Context, record datastore.Record, description *schema.Shape) (any, error)

// Client is a mock implementation of datastore.Client backed by a slice of rows
type Client struct {
	mu        sync.RWMutex
	entity    string
	keyFields []string
	rows      []datastore.Record

	readQueryFunc func(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error)
	readTableFunc func(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error)
	readByKeyFunc func(ctx context.Context, req datastore.KeyRequest) (datastore.Record, error)
	readError     error
	relations     map[string]RelationFunc

	readRequests []datastore.ReadRequest
	keyRequests  []datastore.KeyRequest
}

// New creates a mock client for entity whose rows are identified by keyFields
func New(entity string, keyFields ...string) *Client {
	return &Client{
		entity:    entity,
		keyFields: keyFields,
		relations: make(map[string]RelationFunc),
	}
}

// WithRows replaces the stored rows
func (m *Client) WithRows(rows ...datastore.Record) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	return m
}

// WithReadQueryFunc sets a custom ReadQuery implementation
func (m *Client) WithReadQueryFunc(f func(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error)) *Client {
	m.readQueryFunc = f
	return m
}

// WithReadTableFunc sets a custom ReadTableAsStream implementation
func (m *Client) WithReadTableFunc(f func(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error)) *Client {
	m.readTableFunc = f
	return m
}

// WithReadByKeyFunc sets a custom ReadByKey implementation
func (m *Client) WithReadByKeyFunc(f func(ctx context.Context, req datastore.KeyRequest) (datastore.Record, error)) *Client {
	m.readByKeyFunc = f
	return m
}

// WithReadError makes every read return err
func (m *Client) WithReadError(err error) *Client {
	m.readError = err
	return m
}

// WithRelation registers how the include named include is resolved
func (m *Client) WithRelation(include string, f RelationFunc) *Client {
	m.relations[include] = f
	return m
}

// ReadQuery streams the stored rows projected onto the request shape
func (m *Client) ReadQuery(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error) {
	m.recordRead(req)
	if m.readQueryFunc != nil {
		return m.readQueryFunc(ctx, req)
	}
	if m.readError != nil {
		return nil, m.readError
	}
	return m.stream(req.Shape, req.TypeMap)
}

// ReadTableAsStream streams every stored row with all of its columns
func (m *Client) ReadTableAsStream(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error) {
	m.recordRead(req)
	if m.readTableFunc != nil {
		return m.readTableFunc(ctx, req)
	}
	if m.readError != nil {
		return nil, m.readError
	}
	return m.stream(nil, req.TypeMap)
}

// ReadByKey finds the row whose key fields match req.Key
func (m *Client) ReadByKey(ctx context.Context, req datastore.KeyRequest) (datastore.Record, error) {
	m.mu.Lock()
	m.keyRequests = append(m.keyRequests, req)
	m.mu.Unlock()

	if m.readByKeyFunc != nil {
		return m.readByKeyFunc(ctx, req)
	}
	if m.readError != nil {
		return nil, m.readError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.rows {
		if !m.matches(row, req.Key) {
			continue
		}
		out := project(row, req.Shape)
		if err := datastore.CoerceRecord(out, req.TypeMap); err != nil {
			return nil, errors.NewBackendError(fmt.Sprintf("%s: %v", m.entity, err), err)
		}
		return out, nil
	}
	return nil, errors.NewRowNotFoundError(m.entity, req.Key)
}

// ResolveRelations fills include members using the registered relation funcs
func (m *Client) ResolveRelations(ctx context.Context, record datastore.Record, includes []string, descriptions []*schema.Shape) error {
	for i, include := range includes {
		f, ok := m.relations[include]
		if !ok {
			continue
		}
		var desc *schema.Shape
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		v, err := f(ctx, record, desc)
		if err != nil {
			return err
		}
		record[include] = v
	}
	return nil
}

// Helper methods for testing

// ReadRequests returns the streamed read requests received so far
func (m *Client) ReadRequests() []datastore.ReadRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]datastore.ReadRequest(nil), m.readRequests...)
}

// KeyRequests returns the key lookups received so far
func (m *Client) KeyRequests() []datastore.KeyRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]datastore.KeyRequest(nil), m.keyRequests...)
}

// Count returns the number of stored rows
func (m *Client) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Client) recordRead(req datastore.ReadRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readRequests = append(m.readRequests, req)
}

func (m *Client) stream(shape *schema.Shape, typeMap map[string]string) (datastore.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]datastore.Record, 0, len(m.rows))
	for _, row := range m.rows {
		r := project(row, shape)
		if err := datastore.CoerceRecord(r, typeMap); err != nil {
			return nil, errors.NewBackendError(fmt.Sprintf("%s: %v", m.entity, err), err)
		}
		out = append(out, r)
	}
	return datastore.NewSliceStream(out), nil
}

func (m *Client) matches(row datastore.Record, key any) bool {
	if composite, ok := key.(map[string]any); ok {
		for field, want := range composite {
			if !equalCell(row[field], want) {
				return false
			}
		}
		return len(composite) > 0
	}
	if len(m.keyFields) != 1 {
		return false
	}
	return equalCell(row[m.keyFields[0]], key)
}

// project copies the scalar members of shape out of row. A nil or empty shape
// copies the whole row.
func project(row datastore.Record, shape *schema.Shape) datastore.Record {
	if shape == nil || len(shape.Fields) == 0 {
		out := make(datastore.Record, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(datastore.Record, len(shape.Fields))
	for _, f := range shape.Fields {
		if f.Relation {
			continue
		}
		if v, ok := row[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

func equalCell(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

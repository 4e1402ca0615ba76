/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/logger"
	"github.com/suparena/persist/registry"
	"github.com/suparena/persist/schema"
)

// Resolver maps an entity name to its client binding.
type Resolver interface {
	Resolve(entity string) (registry.Binding, error)
}

// Operation names the backend read a dispatch issues.
type Operation string

const (
	OpScan        Operation = "scan"
	OpTableScan   Operation = "table-scan"
	OpLookupByKey Operation = "lookup-by-key"
)

// Dispatcher routes entity reads to their backend clients.
// It holds no per-query state and is safe for concurrent use.
type Dispatcher struct {
	resolver Resolver
	logger   *zap.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithResolver sets where entity bindings come from (default: registry.Default()).
func WithResolver(r Resolver) Option {
	return func(d *Dispatcher) {
		d.resolver = r
	}
}

// WithLogger sets the logger (default: logger.Get()).
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: registry.Default(),
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.Named("dispatcher")
	return d
}

// plan is the outcome of the shared preamble: binding, shapes and metadata.
type plan struct {
	binding   registry.Binding
	requested *schema.Shape
	augmented *schema.Shape
	metadata  schema.Metadata
}

// prepare resolves the binding and extracts metadata. A nil shape requests the
// entity's full schema. Failures here are local and never reclassified.
func (d *Dispatcher) prepare(entity string, shape *schema.Shape) (plan, *errors.Error) {
	b, err := d.resolver.Resolve(entity)
	if err != nil {
		return plan{}, errors.NewResolutionError(entity, err)
	}
	if shape == nil {
		shape = b.Schema
	}
	augmented, md, err := schema.Extract(shape, b.KeyFields, b.Schema)
	if err != nil {
		if pe := errors.Normalize(err); pe.Kind == errors.KindLocalResolution {
			return plan{}, pe
		}
		return plan{}, errors.NewInvalidShapeError(entity, err.Error())
	}
	return plan{
		binding:   b,
		requested: shape,
		augmented: augmented,
		metadata:  md,
	}, nil
}

// Scan reads the entity through the backend's query operation.
// Failures never escape as a return value; they are deferred into the stream.
func (d *Dispatcher) Scan(ctx context.Context, entity string, shape *schema.Shape) *ResultStream {
	return d.stream(ctx, OpScan, entity, shape, datastore.Client.ReadQuery)
}

// TableScan reads the entity's whole backing table as a stream, bypassing
// backend-side filtering. Failures are deferred into the stream as with Scan.
func (d *Dispatcher) TableScan(ctx context.Context, entity string, shape *schema.Shape) *ResultStream {
	return d.stream(ctx, OpTableScan, entity, shape, datastore.Client.ReadTableAsStream)
}

type readFunc func(c datastore.Client, ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error)

func (d *Dispatcher) stream(ctx context.Context, op Operation, entity string, shape *schema.Shape, read readFunc) *ResultStream {
	log := logger.WithContext(ctx, d.logger).With(zap.String("entity", entity), zap.String("op", string(op)))

	p, perr := d.prepare(entity, shape)
	if perr != nil {
		log.Debug("dispatch rejected", zap.Error(perr))
		return Wrap(nil, shape, schema.Metadata{}, nil, perr)
	}

	req := datastore.ReadRequest{
		Entity:   entity,
		Shape:    p.augmented,
		TypeMap:  p.metadata.TypeMap,
		Fields:   p.metadata.Fields,
		Includes: p.metadata.Includes,
	}
	log.Debug("dispatch",
		zap.Strings("fields", req.Fields),
		zap.Strings("includes", req.Includes),
		zap.Int("augmentedFields", len(p.augmented.Fields)-len(p.requested.Fields)),
	)

	client := p.binding.Client
	data, err := spawn(ctx, func(callCtx context.Context) (datastore.Stream, error) {
		return read(client, callCtx, req)
	}).await()
	if err != nil {
		return Wrap(data, p.requested, p.metadata, client, d.normalize(log, err))
	}
	return Wrap(data, p.requested, p.metadata, client, nil)
}

// LookupByKey reads a single record by key. keyPath holds one value per key
// field of the entity, in key order. Unlike Scan, the error is returned
// directly; it is always an *errors.Error.
//
// A missing row is reported by the backend as an error matching
// errors.ErrNotFound.
func (d *Dispatcher) LookupByKey(ctx context.Context, entity string, shape *schema.Shape, keyPath ...any) (datastore.Record, error) {
	log := logger.WithContext(ctx, d.logger).With(zap.String("entity", entity), zap.String("op", string(OpLookupByKey)))

	p, perr := d.prepare(entity, shape)
	if perr != nil {
		log.Debug("dispatch rejected", zap.Error(perr))
		return nil, perr
	}
	key, err := p.binding.Key(keyPath...)
	if err != nil {
		log.Debug("dispatch rejected", zap.Error(err))
		return nil, err
	}

	req := datastore.KeyRequest{
		Entity:           entity,
		Target:           p.requested,
		Shape:            p.augmented,
		TypeMap:          p.metadata.TypeMap,
		Key:              key,
		Fields:           p.metadata.Fields,
		Includes:         p.metadata.Includes,
		TypeDescriptions: p.metadata.TypeDescriptions,
	}
	log.Debug("dispatch", zap.Any("key", key), zap.Strings("fields", req.Fields), zap.Strings("includes", req.Includes))

	client := p.binding.Client
	record, err := spawn(ctx, func(callCtx context.Context) (datastore.Record, error) {
		return client.ReadByKey(callCtx, req)
	}).await()
	if err != nil {
		return nil, d.normalize(log, err)
	}
	if record == nil {
		return nil, errors.NewBackendError(fmt.Sprintf("%s: backend returned no record and no error for key %v", entity, key), nil)
	}
	return record, nil
}

func (d *Dispatcher) normalize(log *zap.Logger, err error) *errors.Error {
	pe := errors.Normalize(err)
	if pe.Kind == errors.KindForeign {
		log.Warn("reclassified foreign backend error", zap.Error(err))
	} else {
		log.Debug("backend error", zap.Error(pe), zap.String("kind", string(pe.Kind)))
	}
	return pe
}

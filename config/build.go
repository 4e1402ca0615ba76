/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/datastore/ddb"
	"github.com/suparena/persist/datastore/mock"
	"github.com/suparena/persist/datastore/sqlite"
	"github.com/suparena/persist/registry"
)

// Backends owns the connections opened by Build.
type Backends struct {
	sqlDB  *sql.DB
	dynamo ddb.API
}

// Close releases the connections. It is safe to call on a nil *Backends.
func (b *Backends) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}

// BuildOption configures Build
type BuildOption func(*buildOptions)

type buildOptions struct {
	dynamo ddb.API
	sqlDB  *sql.DB
	logger *zap.Logger
}

// WithDynamoDBAPI uses api instead of building an SDK client from the file.
func WithDynamoDBAPI(api ddb.API) BuildOption {
	return func(o *buildOptions) {
		o.dynamo = api
	}
}

// WithSQLDB uses db instead of opening the file's sqlite path. Build does not
// take ownership of db.
func WithSQLDB(db *sql.DB) BuildOption {
	return func(o *buildOptions) {
		o.sqlDB = db
	}
}

// WithLogger sets the logger handed to the backends.
func WithLogger(l *zap.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// Build constructs a client for every entity and registers its binding in reg.
// Backend connections are opened lazily, once per backend kind.
func (f *File) Build(ctx context.Context, reg *registry.Registry, opts ...BuildOption) (*Backends, error) {
	options := buildOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	shapes, err := f.BuildShapes()
	if err != nil {
		return nil, err
	}

	b := &Backends{dynamo: options.dynamo}
	sqlDB := options.sqlDB
	for _, e := range f.Entities {
		var client datastore.Client
		switch e.Backend {
		case BackendDynamoDB:
			if b.dynamo == nil {
				api, err := ddb.NewDynamoDBClient(ctx, f.DynamoDB)
				if err != nil {
					b.Close()
					return nil, err
				}
				b.dynamo = api
			}
			table := e.Table
			if table == "" {
				table = f.DynamoDB.Table
			}
			client = ddb.New(b.dynamo, table,
				ddb.WithEntityType(e.EntityType),
				ddb.WithKeyFields(e.KeyFields...),
				ddb.WithKeyMap(e.KeyMap),
				ddb.WithLogger(options.logger),
			)
		case BackendSQLite:
			if sqlDB == nil {
				db, err := sqlite.OpenDB(ctx, f.SQLite.Path)
				if err != nil {
					b.Close()
					return nil, err
				}
				sqlDB, b.sqlDB = db, db
			}
			client = sqlite.New(sqlDB, e.Table,
				sqlite.WithKeyFields(e.KeyFields...),
				sqlite.WithLogger(options.logger),
			)
		case BackendMemory:
			rows := make([]datastore.Record, len(e.Rows))
			for i, r := range e.Rows {
				rows[i] = r
			}
			client = mock.New(e.Name, e.KeyFields...).WithRows(rows...)
		default:
			b.Close()
			return nil, fmt.Errorf("entity %q: unknown backend %q", e.Name, e.Backend)
		}

		if err := reg.Register(registry.Binding{
			Entity:    e.Name,
			Client:    client,
			KeyFields: e.KeyFields,
			Schema:    shapes[e.Name],
		}); err != nil {
			b.Close()
			return nil, err
		}
		options.logger.Debug("registered entity", zap.String("entity", e.Name), zap.String("backend", e.Backend))
	}
	return b, nil
}

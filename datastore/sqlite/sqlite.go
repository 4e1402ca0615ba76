/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/logger"
	"github.com/suparena/persist/schema"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Querier is the part of *sql.DB the client reads through.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Client implements datastore.Client on one SQL table.
type Client struct {
	db        Querier
	table     string
	keyFields []string
	closer    io.Closer
	logger    *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithKeyFields names the key columns, in order.
func WithKeyFields(fields ...string) Option {
	return func(c *Client) {
		c.keyFields = append([]string(nil), fields...)
	}
}

// WithLogger sets the logger (default: logger.Get()).
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client reading table through db.
func New(db Querier, table string, opts ...Option) *Client {
	c := &Client{
		db:     db,
		table:  table,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("table", table))
	return c
}

// Config holds the settings for Open.
type Config struct {
	// Path is the database file, or ":memory:".
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// OpenDB opens and pings the SQLite database at path.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", "sqlite database path is required")
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Open opens the SQLite database at cfg.Path and returns a Client that owns it.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.Table == "" {
		return nil, errors.NewValidationError("table", "sqlite table name is required")
	}
	db, err := OpenDB(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}
	c := New(db, cfg.Table, opts...)
	c.closer = db
	return c, nil
}

// Close closes the database if the client opened it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// ReadQuery selects the scalar columns of the request shape.
func (c *Client) ReadQuery(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", columnList(req.Shape), quoteIdent(c.table))
	return c.query(ctx, req.Entity, req.TypeMap, query)
}

// ReadTableAsStream selects every column of every row.
func (c *Client) ReadTableAsStream(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error) {
	query := fmt.Sprintf("SELECT * FROM %s", quoteIdent(c.table))
	return c.query(ctx, req.Entity, req.TypeMap, query)
}

// ReadByKey selects the single row whose key columns equal the key.
func (c *Client) ReadByKey(ctx context.Context, req datastore.KeyRequest) (datastore.Record, error) {
	where, args, err := c.keyClause(req.Entity, req.Key)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1", columnList(req.Shape), quoteIdent(c.table), where)

	s, err := c.query(ctx, req.Entity, req.TypeMap, query, args...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	record, err := s.Next(ctx)
	if err == io.EOF {
		return nil, errors.NewRowNotFoundError(req.Entity, req.Key)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) query(ctx context.Context, entity string, typeMap map[string]string, query string, args ...any) (datastore.Stream, error) {
	c.logger.Debug("query", zap.String("entity", entity), zap.String("sql", query))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	next := func(context.Context) (datastore.Record, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
			return nil, io.EOF
		}
		record, err := scanRow(rows, columns)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := datastore.CoerceRecord(record, typeMap); err != nil {
			return nil, errors.NewBackendError(fmt.Sprintf("%s: %v", entity, err), err)
		}
		return record, nil
	}
	return datastore.NewFuncStream(next, rows.Close), nil
}

// keyClause builds the WHERE clause and arguments for a dispatched key.
func (c *Client) keyClause(entity string, key any) (string, []any, error) {
	if composite, ok := key.(map[string]any); ok {
		fields := c.keyFields
		if len(fields) == 0 {
			for f := range composite {
				fields = append(fields, f)
			}
			sort.Strings(fields)
		}
		clauses := make([]string, 0, len(fields))
		args := make([]any, 0, len(fields))
		for _, f := range fields {
			v, ok := composite[f]
			if !ok {
				return "", nil, errors.NewBackendError(fmt.Sprintf("%s: key has no value for column %q", entity, f), nil)
			}
			clauses = append(clauses, quoteIdent(f)+" = ?")
			args = append(args, v)
		}
		return strings.Join(clauses, " AND "), args, nil
	}
	if len(c.keyFields) != 1 {
		return "", nil, errors.NewBackendError(fmt.Sprintf("%s: single key value given but client has key columns %v", entity, c.keyFields), nil)
	}
	return quoteIdent(c.keyFields[0]) + " = ?", []any{key}, nil
}

// scanRow scans the current row into a record keyed by column name.
func scanRow(rows *sql.Rows, columns []string) (datastore.Record, error) {
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	record := make(datastore.Record, len(columns))
	for i, col := range columns {
		record[col] = values[i]
	}
	return record, nil
}

// columnList renders the scalar members of shape as a select list.
func columnList(shape *schema.Shape) string {
	if shape == nil {
		return "*"
	}
	cols := make([]string, 0, len(shape.Fields))
	for _, f := range shape.Fields {
		if !f.Relation {
			cols = append(cols, quoteIdent(f.Name))
		}
	}
	if len(cols) == 0 {
		return "*"
	}
	return strings.Join(cols, ", ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

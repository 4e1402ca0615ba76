/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/suparena/persist"
	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/registry"
	"github.com/suparena/persist/schema"
)

func newScanCmd(a *app, table bool) *cobra.Command {
	var fields []string
	var limit int

	cmd := &cobra.Command{
		Use:   "scan ENTITY",
		Short: "Stream the records of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.setup(ctx); err != nil {
				return err
			}
			defer a.teardown()

			shape, err := a.requestedShape(args[0], fields)
			if err != nil {
				return err
			}

			var rs *persist.ResultStream
			if table {
				rs = a.dispatcher.TableScan(ctx, args[0], shape)
			} else {
				rs = a.dispatcher.Scan(ctx, args[0], shape)
			}
			defer rs.Close()

			enc := json.NewEncoder(a.out)
			for n := 0; limit <= 0 || n < limit; n++ {
				record, err := rs.Next(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if err := enc.Encode(record); err != nil {
					return fmt.Errorf("failed to write record: %w", err)
				}
			}
			return nil
		},
	}
	if table {
		cmd.Use = "table ENTITY"
		cmd.Short = "Stream every row of an entity's backing table"
	}
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to read (default: all)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after n records")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "get ENTITY KEY...",
		Short: "Look up one record by key",
		Long:  "Look up one record by key. Composite keys take one value per key field, in key order.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.setup(ctx); err != nil {
				return err
			}
			defer a.teardown()

			shape, err := a.requestedShape(args[0], fields)
			if err != nil {
				return err
			}
			keyPath, err := a.keyPath(args[0], args[1:])
			if err != nil {
				return err
			}

			record, err := a.dispatcher.LookupByKey(ctx, args[0], shape, keyPath...)
			if err != nil {
				return err
			}
			return writeRecord(a.out, record)
		},
	}
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to read (default: all)")
	return cmd
}

func newEntitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the configured entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			defer a.teardown()

			for _, name := range a.registry.Entities() {
				b, err := a.registry.Resolve(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\tkey=%s\t%s\n", name, strings.Join(b.KeyFields, ","), b.Schema)
			}
			return nil
		},
	}
}

// requestedShape projects the entity schema onto fields. No fields means the
// whole schema; an unknown entity is left for the dispatcher to report.
func (a *app) requestedShape(entity string, fields []string) (*schema.Shape, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	b, err := a.registry.Resolve(entity)
	if err != nil {
		return nil, nil
	}
	return b.Schema.Project(fields...)
}

// keyPath converts command line key components to the types of the entity's
// key fields, so numeric and boolean keys reach the backend as such. Unknown
// entities and mismatched lengths are passed through for the dispatcher to report.
func (a *app) keyPath(entity string, args []string) ([]any, error) {
	path := make([]any, len(args))
	for i, arg := range args {
		path[i] = arg
	}
	b, err := a.registry.Resolve(entity)
	if err != nil {
		return path, nil
	}
	return coerceKeyPath(b, path)
}

func coerceKeyPath(b registry.Binding, path []any) ([]any, error) {
	if len(path) != len(b.KeyFields) {
		return path, nil
	}
	for i, name := range b.KeyFields {
		f, ok := b.Schema.Field(name)
		if !ok {
			continue
		}
		switch f.Type {
		case schema.TypeInt, schema.TypeFloat, schema.TypeDecimal, schema.TypeBoolean:
		default:
			continue
		}
		v, err := datastore.Coerce(path[i], f.Type)
		if err != nil {
			return nil, errors.NewValidationError("key", fmt.Sprintf("%s key field %q: %v", b.Entity, name, err))
		}
		path[i] = v
	}
	return path, nil
}

func writeRecord(w io.Writer, record datastore.Record) error {
	if err := json.NewEncoder(w).Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

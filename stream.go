/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package persist

import (
	"context"
	"io"
	"time"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/schema"
	"github.com/suparena/persist/storagemodels"
)

// ResultStream is what Scan and TableScan return: either a lazily consumed
// record stream or a deferred terminal error, never both.
//
// With an error set, the first Next returns that error and every later call
// returns io.EOF. A ResultStream has a single consumer.
type ResultStream struct {
	data     datastore.Stream
	shape    *schema.Shape
	metadata schema.Metadata
	client   datastore.Client
	err      *errors.Error
	done     bool
	closed   bool
}

// Wrap composes a ResultStream. It performs no I/O beyond closing data when err
// is set: the error wins and the payload is dropped. With neither data nor err
// an empty stream is substituted.
func Wrap(data datastore.Stream, shape *schema.Shape, metadata schema.Metadata, client datastore.Client, err *errors.Error) *ResultStream {
	rs := &ResultStream{
		shape:    shape,
		metadata: metadata,
		client:   client,
	}
	switch {
	case err != nil:
		if data != nil {
			_ = data.Close()
		}
		rs.err = err
	case data == nil:
		rs.data = datastore.Empty()
	default:
		rs.data = data
	}
	return rs
}

// Next returns the next record, io.EOF at the end of the stream, or the
// stream's terminal error. Errors raised mid-stream are normalized and end the
// stream.
func (rs *ResultStream) Next(ctx context.Context) (datastore.Record, error) {
	if rs.done {
		return nil, io.EOF
	}
	if rs.err != nil {
		rs.done = true
		return nil, rs.err
	}

	record, err := rs.data.Next(ctx)
	if err == io.EOF {
		rs.finish()
		return nil, io.EOF
	}
	if err != nil {
		rs.finish()
		return nil, errors.Normalize(err)
	}

	if len(rs.metadata.Includes) > 0 {
		if resolver, ok := rs.client.(datastore.RelationResolver); ok {
			if err := resolver.ResolveRelations(ctx, record, rs.metadata.Includes, rs.metadata.TypeDescriptions); err != nil {
				rs.finish()
				return nil, errors.Normalize(err)
			}
		}
	}
	return record, nil
}

// Collect drains the stream into a slice. On error the records read so far are
// returned alongside it.
func (rs *ResultStream) Collect(ctx context.Context) ([]datastore.Record, error) {
	var out []datastore.Record
	for {
		record, err := rs.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, record)
	}
}

// Channel adapts the stream to a channel of results. The channel is closed at
// the end of the stream, after a terminal error, or when ctx is done.
func (rs *ResultStream) Channel(ctx context.Context, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult, options.BufferSize)

	go func() {
		defer close(resultCh)
		defer rs.Close()

		var index int64
		for {
			record, err := rs.Next(ctx)
			if err == io.EOF {
				return
			}
			result := storagemodels.StreamResult{
				Item:  record,
				Error: err,
				Meta: storagemodels.StreamMeta{
					Index:     index,
					Timestamp: time.Now(),
				},
			}
			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}
			if err != nil {
				return
			}
			index++
		}
	}()

	return resultCh
}

// Close releases the backend stream. It is safe to call more than once.
func (rs *ResultStream) Close() error {
	if rs.data == nil || rs.closed {
		return nil
	}
	rs.closed = true
	return rs.data.Close()
}

// Err reports the deferred error without consuming the stream.
func (rs *ResultStream) Err() error {
	if rs.err == nil {
		return nil
	}
	return rs.err
}

// HasData reports whether the stream carries backend data rather than an error.
func (rs *ResultStream) HasData() bool {
	return rs.data != nil
}

// Shape is the shape the caller requested.
func (rs *ResultStream) Shape() *schema.Shape {
	return rs.shape
}

// Metadata is the query metadata computed for the read.
func (rs *ResultStream) Metadata() schema.Metadata {
	return rs.metadata
}

func (rs *ResultStream) finish() {
	rs.done = true
	_ = rs.Close()
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"io"
	"sync"
)

// SliceStream streams a fixed set of records in order.
type SliceStream struct {
	mu      sync.Mutex
	records []Record
	pos     int
	closed  bool
}

// NewSliceStream wraps records; the slice is not copied.
func NewSliceStream(records []Record) *SliceStream {
	return &SliceStream{records: records}
}

// Empty returns a stream that is already exhausted.
func Empty() Stream {
	return NewSliceStream(nil)
}

func (s *SliceStream) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pos >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

func (s *SliceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FuncStream adapts a pull function into a Stream. The function returns io.EOF
// at the end of data; closeFn may be nil.
type FuncStream struct {
	next    func(ctx context.Context) (Record, error)
	closeFn func() error
	once    sync.Once
	done    bool
}

// NewFuncStream builds a Stream from a next function and an optional close hook.
func NewFuncStream(next func(ctx context.Context) (Record, error), closeFn func() error) *FuncStream {
	return &FuncStream{next: next, closeFn: closeFn}
}

func (s *FuncStream) Next(ctx context.Context) (Record, error) {
	if s.done {
		return nil, io.EOF
	}
	r, err := s.next(ctx)
	if err == io.EOF {
		s.done = true
		_ = s.Close()
	}
	return r, err
}

func (s *FuncStream) Close() error {
	var err error
	s.once.Do(func() {
		s.done = true
		if s.closeFn != nil {
			err = s.closeFn()
		}
	})
	return err
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceStream(t *testing.T) {
	ctx := context.Background()
	s := NewSliceStream([]Record{{"id": "1"}, {"id": "2"}})

	r, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", r["id"])

	r, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", r["id"])

	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)

	require.NoError(t, s.Close())
	assert.True(t, s.Closed())
}

func TestSliceStreamClosedEarly(t *testing.T) {
	s := NewSliceStream([]Record{{"id": "1"}})
	require.NoError(t, s.Close())

	_, err := s.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestSliceStreamContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSliceStream([]Record{{"id": "1"}}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFuncStream(t *testing.T) {
	ctx := context.Background()
	remaining := 2
	closed := 0
	s := NewFuncStream(func(context.Context) (Record, error) {
		if remaining == 0 {
			return nil, io.EOF
		}
		remaining--
		return Record{"n": remaining}, nil
	}, func() error {
		closed++
		return nil
	})

	count := 0
	for {
		_, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, closed, "close hook runs once at end of data")

	require.NoError(t, s.Close())
	assert.Equal(t, 1, closed, "close hook is idempotent")

	_, err := s.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestTask(t *testing.T) {
	t.Run("Value", func(t *testing.T) {
		v, err := spawn(context.Background(), func(context.Context) (int, error) {
			return 42, nil
		}).await()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("Error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := spawn(context.Background(), func(context.Context) (int, error) {
			return 0, boom
		}).await()
		assert.Same(t, boom, err)
	})

	t.Run("PanicBecomesError", func(t *testing.T) {
		v, err := spawn(context.Background(), func(context.Context) (string, error) {
			panic("sheet exploded")
		}).await()
		assert.Empty(t, v)
		assert.EqualError(t, err, "backend panic: sheet exploded")
	})

	t.Run("NotCancelledByCaller", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey("k"), "v"))
		release := make(chan struct{})

		tk := spawn(ctx, func(callCtx context.Context) (string, error) {
			<-release
			if err := callCtx.Err(); err != nil {
				return "", err
			}
			return callCtx.Value(ctxKey("k")).(string), nil
		})
		cancel()
		close(release)

		v, err := tk.await()
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("AwaitBlocksUntilDone", func(t *testing.T) {
		release := make(chan struct{})
		tk := spawn(context.Background(), func(context.Context) (bool, error) {
			<-release
			return true, nil
		})

		select {
		case <-tk.done:
			t.Fatal("task finished before backend completed")
		case <-time.After(20 * time.Millisecond):
		}
		close(release)

		v, err := tk.await()
		require.NoError(t, err)
		assert.True(t, v)
	})
}

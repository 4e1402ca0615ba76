/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package persist

import (
	"context"
	"fmt"
)

// task is the single suspension primitive used by the dispatcher: the backend
// call runs on its own goroutine and the dispatching goroutine blocks in await
// until it completes. Every dispatch awaits exactly one task.
type task[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// spawn starts fn. The context handed to fn keeps ctx's values but is never
// cancelled: once a dispatch is issued it runs to backend completion.
func spawn[V any](ctx context.Context, fn func(context.Context) (V, error)) *task[V] {
	t := &task[V]{done: make(chan struct{})}
	callCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				var zero V
				t.val = zero
				t.err = fmt.Errorf("backend panic: %v", r)
			}
		}()
		t.val, t.err = fn(callCtx)
	}()
	return t
}

// await blocks until the task finishes. Results are published before done is
// closed, so reads after the receive are ordered after the backend's completion.
func (t *task[V]) await() (V, error) {
	<-t.done
	return t.val, t.err
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package blocking provides the synchronised hand-off primitives used
// between the owning goroutine and background workers: a FIFO Queue with a
// blocking pop, and a keyed Map whose values can be waited for by key.
// Both are safe for use by any number of producers and consumers.
package blocking

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// package errors
var (
	ErrClosed = errors.New("blocking: closed")
)

// Queue is a thread-safe FIFO queue. Items are delivered in the order they
// were pushed, except for those removed with Erase or EraseAll.
type Queue[T comparable] struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

// NewQueue creates an empty, open Queue.
func NewQueue[T comparable]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

// Push appends item to the back of the queue. When dedupe is set and an
// equal item is already queued, nothing is added and false is returned.
// Pushing onto a closed queue fails.
func (q *Queue[T]) Push(item T, dedupe bool) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return false
	}
	if dedupe && q.indexOf(item) >= 0 {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// TryPop removes and returns the front item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.popFront()
}

// WaitAndPop blocks until an item is available, then removes and returns it.
// It returns ErrClosed once the queue is closed, or the context error
// if ctx is done first.
func (q *Queue[T]) WaitAndPop(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mutex.Lock()
		q.cond.Broadcast()
		q.mutex.Unlock()
	})
	defer stop()

	q.mutex.Lock()
	defer q.mutex.Unlock()
	for {
		if q.closed {
			var zero T
			return zero, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if item, ok := q.popFront(); ok {
			return item, nil
		}
		q.cond.Wait()
	}
}

// Erase removes the first occurrence of item. Reports whether it was found.
func (q *Queue[T]) Erase(item T) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	idx := q.indexOf(item)
	if idx < 0 {
		return false
	}
	q.items = slices.Delete(q.items, idx, idx+1)
	return true
}

// EraseAll removes every occurrence of item and returns how many were removed.
func (q *Queue[T]) EraseAll(item T) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	kept := q.items[:0]
	for _, v := range q.items {
		if v != item {
			kept = append(kept, v)
		}
	}
	removed := len(q.items) - len(kept)
	var zero T
	for idx := len(kept); idx < len(q.items); idx++ {
		q.items[idx] = zero
	}
	q.items = kept
	return removed
}

// Contains reports whether an item equal to item is queued.
func (q *Queue[T]) Contains(item T) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.indexOf(item) >= 0
}

// Empty reports whether the queue holds no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

// Close drops all queued items and wakes every goroutine blocked in
// WaitAndPop. Further pushes fail. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

func (q *Queue[T]) popFront() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

func (q *Queue[T]) indexOf(item T) int {
	return slices.Index(q.items, item)
}

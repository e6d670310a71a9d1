// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package blocking

import (
	"context"
	"sync"
)

// Map is the keyed counterpart of Queue. Values are published under a key
// and claimed by that key rather than by position, so a consumer can wait
// for one specific result while others are still being produced.
type Map[K comparable, V any] struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	values map[K]V
	closed bool
}

// NewMap creates an empty, open Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	m := &Map[K, V]{
		values: make(map[K]V),
	}
	m.cond = sync.NewCond(&m.mutex)
	return m
}

// Put publishes value under key, replacing any unclaimed value and waking
// goroutines waiting on the map. It reports false if the map is closed.
func (m *Map[K, V]) Put(key K, value V) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return false
	}
	m.values[key] = value
	m.cond.Broadcast()
	return true
}

// Get returns the value under key without claiming it.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// TryPop claims the value under key: it is returned and removed.
func (m *Map[K, V]) TryPop(key K) (V, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	v, ok := m.values[key]
	if ok {
		delete(m.values, key)
	}
	return v, ok
}

// WaitAndPop blocks until a value is published under key and claims it.
// It returns ErrClosed once the map is closed, or the context error if ctx
// is done first.
func (m *Map[K, V]) WaitAndPop(ctx context.Context, key K) (V, error) {
	stop := context.AfterFunc(ctx, func() {
		m.mutex.Lock()
		m.cond.Broadcast()
		m.mutex.Unlock()
	})
	defer stop()

	m.mutex.Lock()
	defer m.mutex.Unlock()
	for {
		if v, ok := m.values[key]; ok {
			delete(m.values, key)
			return v, nil
		}
		if m.closed {
			var zero V
			return zero, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			var zero V
			return zero, err
		}
		m.cond.Wait()
	}
}

// Contains reports whether a value is published under key.
func (m *Map[K, V]) Contains(key K) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.values[key]
	return ok
}

// Delete drops the value under key, if any.
func (m *Map[K, V]) Delete(key K) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.values, key)
}

// Len returns the number of unclaimed values.
func (m *Map[K, V]) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.values)
}

// Clear drops every unclaimed value.
func (m *Map[K, V]) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.values = make(map[K]V)
}

// Close drops all values, wakes every waiter and rejects further puts.
func (m *Map[K, V]) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	m.values = make(map[K]V)
	m.cond.Broadcast()
}

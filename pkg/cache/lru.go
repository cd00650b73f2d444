// Package cache provides a bounded, concurrency-safe least recently used map.
// The HTTP server keeps recent reports in it, keyed by input digest and
// histogram parameters, so repeated requests skip the pipeline.
package cache

import (
	"sync"

	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

// node is an entry of the recency list.
type node[V any] struct {
	key   string
	value V
	prev  *node[V]
	next  *node[V]
}

// LRU is a fixed-capacity map that evicts the least recently used entry when full.
// A zero capacity LRU stores nothing.
type LRU[V any] struct {
	mutex    sync.Mutex
	capacity int
	items    map[string]*node[V]
	head     *node[V] // most recently used
	tail     *node[V] // least recently used
}

// NewLRU creates an LRU holding at most capacity entries.
func NewLRU[V any](capacity int) (*LRU[V], error) {
	if capacity < 0 {
		return nil, sentinel.ErrInvalidCapacity
	}

	return &LRU[V]{
		capacity: capacity,
		items:    make(map[string]*node[V], capacity),
	}, nil
}

// Get returns the value stored under key and marks it as most recently used.
func (l *LRU[V]) Get(key string) (V, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	n, ok := l.items[key]
	if !ok {
		var zero V

		return zero, false
	}

	l.moveToFront(n)

	return n.value, true
}

// Set stores value under key, evicting the least recently used entry if the LRU is full.
func (l *LRU[V]) Set(key string, value V) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.capacity == 0 {
		return
	}

	if n, ok := l.items[key]; ok {
		n.value = value
		l.moveToFront(n)

		return
	}

	if len(l.items) >= l.capacity {
		l.evict()
	}

	n := &node[V]{key: key, value: value}
	l.items[key] = n
	l.pushFront(n)
}

// Evict removes the least recently used entry and returns its key.
func (l *LRU[V]) Evict() (string, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.evict()
}

// Delete removes key.
func (l *LRU[V]) Delete(key string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	n, ok := l.items[key]
	if !ok {
		return
	}

	l.unlink(n)
	delete(l.items, key)
}

// Len returns the number of stored entries.
func (l *LRU[V]) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return len(l.items)
}

func (l *LRU[V]) evict() (string, bool) {
	if l.tail == nil {
		return "", false
	}

	n := l.tail
	l.unlink(n)
	delete(l.items, n.key)

	return n.key, true
}

func (l *LRU[V]) moveToFront(n *node[V]) {
	if l.head == n {
		return
	}

	l.unlink(n)
	l.pushFront(n)
}

func (l *LRU[V]) pushFront(n *node[V]) {
	n.prev = nil
	n.next = l.head

	if l.head != nil {
		l.head.prev = n
	}

	l.head = n

	if l.tail == nil {
		l.tail = n
	}
}

func (l *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}

	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}

	n.prev = nil
	n.next = nil
}

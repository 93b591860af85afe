// Package queue provides a bounded, non-blocking in-memory FIFO.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/dealdesk/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item without blocking. It fails with ErrFull when the
	// queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns a channel that yields items in FIFO order. It is
	// closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan T

	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int
	name     string

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultCapacity, name: "queue"}
	for _, opt := range opts {
		opt(&s)
	}
	return &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		capacity: s.capacity,
		name:     s.name,
	}
}

func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent(q.name, "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent(q.name, "context_cancelled")
		return fmt.Errorf("enqueue: %w", err)
	}

	select {
	case q.items <- item:
		return nil
	default:
		metrics.RecordErrorByComponent(q.name, "queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue[T]) Dequeue(_ context.Context) <-chan T {
	return q.items
}

func (q *InMemoryQueue[T]) Len(_ context.Context) int {
	return len(q.items)
}

func (q *InMemoryQueue[T]) Capacity() int {
	return q.capacity
}

// Close stops accepting items. Queued items can still be drained.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Package dedupe tracks Idempotency-Key values so a mutation request is
// applied at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen idempotency keys together with the id of the record
// the first request produced.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Complete attaches the resulting record id to a recorded key.
	Complete(ctx context.Context, key string, id int)

	// Lookup returns the record id of a completed key. ok is false while the
	// first request is still in flight or when the key is unknown.
	Lookup(ctx context.Context, key string) (id int, ok bool)

	// Unrecord forgets key so a failed request can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key  string
	id   int
	done bool
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest
// completed one.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(&entry{key: key})
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Complete(_ context.Context, key string, id int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		e := el.Value.(*entry)
		e.id, e.done = id, true
	}
}

func (d *inMemoryDeduper) Lookup(_ context.Context, key string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[key]
	if !ok {
		return 0, false
	}
	e := el.Value.(*entry)
	return e.id, e.done
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest drops the oldest completed key. In-flight keys are never
// evicted, so the cache may exceed maxSize while that many requests run.
// It must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for el := d.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if !e.done {
			continue
		}
		d.order.Remove(el)
		delete(d.seen, e.key)
		d.size.Add(-1)
		return
	}
}

// Size returns the current number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Package dedupe tracks idempotency keys of non-idempotent requests.
//
// Toggling a rider is its own inverse, so a retried toggle would undo the
// first one. Clients attach an Idempotency-Key; the API records it here and
// answers repeats without applying the mutation again.
package dedupe

import (
	"container/list"
	"context"
	"strings"
	"sync"
)

// defaultMaxSize bounds memory when no option is given.
const defaultMaxSize = 10_000

// Deduper records seen keys to ensure at-most-once application.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so that a request which failed can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Scope builds a tracker key that cannot collide across users or rosters.
func Scope(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// inMemoryDeduper keeps keys in insertion order for FIFO eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a tracker configured by opts.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// Package dedupe tracks idempotency keys of non-idempotent requests.
package dedupe

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered keys. When full the oldest key
// is forgotten first. maxSize <= 0 keeps every key.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

package storage

import "context"

// Stats summarises the entries stored under a key prefix.
type Stats struct {
	Count int
	Bytes int64 // serialized key and value bytes
}

// Add returns the sum of two Stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{Count: s.Count + o.Count, Bytes: s.Bytes + o.Bytes}
}

// MB reports Bytes in megabytes.
func (s Stats) MB() float64 {
	return float64(s.Bytes) / (1024 * 1024)
}

// BlobStore is a flat key-value store for opaque cache entries.
// Implementations must be thread-safe and support concurrent access.
type BlobStore interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key, value []byte) error

	// DeleteAll removes every entry whose key starts with prefix.
	DeleteAll(ctx context.Context, prefix []byte) error

	// Stat reports the number and size of entries under prefix.
	Stat(ctx context.Context, prefix []byte) (Stats, error)

	// Close releases the underlying storage.
	Close() error
}

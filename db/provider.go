// Package db abstracts the key-value engines the durable chain store
// can sit on. Backends implement DatabaseProvider; the store layer
// never sees engine-specific types.
package db

// DatabaseProvider abstracts low-level key-value operations so the
// chain store works against LevelDB, bbolt, or anything else exposing
// get/put/delete/iterate semantics.
type DatabaseProvider interface {
	// Get retrieves a value by key. A missing key yields (nil, nil).
	Get(key []byte) ([]byte, error)

	// GetBatch retrieves multiple values in one call. Missing keys are
	// simply absent from the result map.
	GetBatch(keys [][]byte) (map[string][]byte, error)

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key-value pair. Absent keys are a no-op.
	Delete(key []byte) error

	// Has checks if a key exists.
	Has(key []byte) (bool, error)

	// IteratePrefix visits every pair whose key starts with prefix.
	// The callback returns false to stop early.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error

	// Batch returns a new batch for atomic multi-key writes.
	Batch() DatabaseBatch

	// Close closes the underlying engine. Idempotent.
	Close() error
}

// DatabaseBatch collects writes that commit atomically.
type DatabaseBatch interface {
	// Put adds a key-value pair to the batch.
	Put(key, value []byte)

	// Delete adds a deletion to the batch.
	Delete(key []byte)

	// Write commits all operations in the batch.
	Write() error

	// Reset clears the batch for reuse.
	Reset()

	// Close releases batch resources.
	Close()
}

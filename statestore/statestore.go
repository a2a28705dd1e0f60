// Package statestore defines the content-addressed key-value store the
// chain runtime uses to materialize state at a block. The trie layout
// behind it is not this layer's concern; values go in, their content
// address comes back.
package statestore

import (
	"github.com/chainforge/chainstore/types"
)

// StateStore is a content-addressed byte store. Implementations must
// be safe for use by multiple goroutines.
type StateStore interface {
	// Get returns the value stored under hash, or false when absent.
	Get(hash types.HashDigest) ([]byte, bool)

	// Put stores value and returns its content address. Storing the
	// same bytes twice is a no-op returning the same address.
	Put(value []byte) types.HashDigest

	// Contains reports whether a value is stored under hash.
	Contains(hash types.HashDigest) bool

	// Close releases held resources. Safe to call more than once.
	Close() error
}

package store

import "errors"

var (
	// ErrNoCanonicalChain is returned by PruneOutdatedChains when no
	// canonical chain is set and the caller did not ask for a no-op.
	ErrNoCanonicalChain = errors.New("no canonical chain set")

	// ErrBlockIntegrity is returned by GetBlock when a stored digest
	// references a transaction that is no longer in the transaction
	// table. A stored block's transactions are always stored; hitting
	// this means the invariant was broken out of band.
	ErrBlockIntegrity = errors.New("block references a missing transaction")

	// ErrUnknownScheme is returned by LoadStore for a URI whose scheme
	// has no registered backend.
	ErrUnknownScheme = errors.New("unknown store scheme")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store closed")
)

// Package store defines the storage contract of the chain runtime:
// every operation a backend must support to persist chains, blocks,
// transactions, nonces, consensus commits, and state-root pointers,
// independent of the physical representation.
package store

import (
	"github.com/chainforge/chainstore/block"
	"github.com/chainforge/chainstore/transaction"
	"github.com/chainforge/chainstore/types"
)

// Store abstracts the chain storage backend (in-memory, LevelDB,
// bbolt, ...). It is the minimal interface required by the chain
// runtime.
//
// Implementations must be safe for use by multiple goroutines with no
// external locking. Every single-key update is atomic; operations
// spanning several tables (PutBlock, for one) are not atomic as a
// unit, and a concurrent reader may observe the block digest before
// all of its transactions, or the other way around. Lookups encode
// absence in their return values and never fail for a merely unknown
// key.
//
// Chains share blocks and transactions by hash reference, never by
// copy: deleting a chain removes its index and nonce table but leaves
// blocks and transactions alone, since sibling forks may still
// reference them.
type Store interface {
	// ListChainIDs returns the id of every chain with an index entry,
	// in no particular order.
	ListChainIDs() []types.ChainID

	// DeleteChainID removes the chain's block index and nonce table.
	// Stored blocks and transactions are untouched. Unknown ids are a
	// no-op.
	DeleteChainID(chainID types.ChainID)

	// GetCanonicalChainID returns the chain currently designated as
	// authoritative, or false when none is set.
	GetCanonicalChainID() (types.ChainID, bool)

	// SetCanonicalChainID designates chainID as canonical. The id is
	// not validated against existing chains; that is the caller's
	// responsibility, as is any read-modify-write coordination on the
	// pointer.
	SetCanonicalChainID(chainID types.ChainID)

	// CountIndex returns the height of the chain's index, 0 for
	// unknown chains.
	CountIndex(chainID types.ChainID) int

	// IterateIndexes returns at most limit block hashes starting at
	// offset; a negative limit means no bound. Unknown chains yield an
	// empty result, not an error.
	IterateIndexes(chainID types.ChainID, offset int, limit int) []types.BlockHash

	// IndexBlockHash returns the hash at the given height. Negative
	// heights address from the end (-1 is the tip). Returns false when
	// out of range after normalization, or when the chain is unknown.
	IndexBlockHash(chainID types.ChainID, index int) (types.BlockHash, bool)

	// AppendIndex appends hash to the chain's index and returns the
	// newly assigned height. The chain's nonce table is created empty
	// on its first block. Appends to the same chain serialize;
	// appends to different chains proceed in parallel.
	AppendIndex(chainID types.ChainID, hash types.BlockHash) int

	// ForkBlockIndexes copies the prefix of src's index up to and
	// including branchpoint into dst, overwriting any existing dst
	// index. When branchpoint does not occur in src's index the call
	// is a silent no-op and dst is left untouched; callers must guard
	// for this. The copy shares structure with src, so forking is
	// cheap even for long chains.
	ForkBlockIndexes(src, dst types.ChainID, branchpoint types.BlockHash)

	// GetTransaction returns the stored transaction, or nil when
	// absent.
	GetTransaction(txID types.TxID) *transaction.Transaction

	// PutTransaction stores tx, keyed by its id. Re-putting identical
	// content is an observable no-op.
	PutTransaction(tx *transaction.Transaction)

	// ContainsTransaction reports whether the transaction is stored.
	ContainsTransaction(txID types.TxID) bool

	// IterateBlockHashes returns the hash of every stored block
	// digest, in no particular order.
	IterateBlockHashes() []types.BlockHash

	// GetBlockDigest returns the stored digest, or false when absent.
	GetBlockDigest(hash types.BlockHash) (*block.Digest, bool)

	// GetBlock materializes the block by resolving every referenced
	// transaction. Returns (nil, nil) when no digest is stored. When a
	// digest is present but one of its transactions is missing, the
	// store's own invariant is broken and the call fails with an error
	// wrapping ErrBlockIntegrity rather than returning a partial
	// block.
	GetBlock(hash types.BlockHash) (*block.Block, error)

	// GetBlockIndex returns the block's height from its stored header,
	// or false when the digest is absent.
	GetBlockIndex(hash types.BlockHash) (uint64, bool)

	// PutBlock stores the block's digest and upserts every contained
	// transaction, so the same transaction stays resolvable through
	// blocks in any chain.
	PutBlock(b *block.Block)

	// DeleteBlock removes the block digest, reporting whether it was
	// present. Transactions are left alone.
	DeleteBlock(hash types.BlockHash) bool

	// ContainsBlock reports whether a digest is stored for hash.
	ContainsBlock(hash types.BlockHash) bool

	// CountBlocks returns the number of stored block digests.
	CountBlocks() int

	// PutTxExecution records the outcome of executing exec.TxID within
	// exec.BlockHash. At most one record exists per pair.
	PutTxExecution(exec *transaction.TxExecution)

	// GetTxExecution returns the recorded outcome, or nil when absent.
	GetTxExecution(blockHash types.BlockHash, txID types.TxID) *transaction.TxExecution

	// PutTxIDBlockHashIndex records that the transaction occurs in the
	// block, one association among possibly many.
	PutTxIDBlockHashIndex(txID types.TxID, blockHash types.BlockHash)

	// GetFirstTxIDBlockHashIndex returns one member of the
	// transaction's block set, or false when the set is empty. The
	// associations are unordered; implementations return a stable
	// member but callers must not read "first seen" into it.
	GetFirstTxIDBlockHashIndex(txID types.TxID) (types.BlockHash, bool)

	// IterateTxIDBlockHashIndex returns every block hash associated
	// with the transaction, in no particular order.
	IterateTxIDBlockHashIndex(txID types.TxID) []types.BlockHash

	// DeleteTxIDBlockHashIndex removes the single given association
	// without disturbing the transaction's other associations.
	// Removing an absent association is a no-op.
	DeleteTxIDBlockHashIndex(txID types.TxID, blockHash types.BlockHash)

	// ListTxNonces returns a snapshot of the chain's nonce table,
	// empty for unknown chains.
	ListTxNonces(chainID types.ChainID) map[types.Address]uint64

	// GetTxNonce returns the signer's nonce on the chain, 0 when
	// absent.
	GetTxNonce(chainID types.ChainID, signer types.Address) uint64

	// IncreaseTxNonce adds delta to the signer's nonce, creating the
	// chain's nonce table on demand. Nonces only move by increments;
	// they are never set backward directly.
	IncreaseTxNonce(chainID types.ChainID, signer types.Address, delta int64)

	// ForkTxNonces deep-copies src's nonce table into dst. The copies
	// evolve independently afterwards. Unknown src is a no-op.
	ForkTxNonces(src, dst types.ChainID)

	// PruneOutdatedChains deletes every chain except the canonical
	// one. With no canonical chain set it fails with
	// ErrNoCanonicalChain, unless noopWithoutCanon is true in which
	// case it does nothing.
	PruneOutdatedChains(noopWithoutCanon bool) error

	// GetChainBlockCommit returns the chain's current tip commit, or
	// nil when none is recorded.
	GetChainBlockCommit(chainID types.ChainID) *block.Commit

	// PutChainBlockCommit records the chain's current tip commit,
	// overwriting the previous one as the chain advances.
	PutChainBlockCommit(chainID types.ChainID, commit *block.Commit)

	// GetBlockCommit returns the finalized commit of the block, or nil
	// when none is recorded.
	GetBlockCommit(hash types.BlockHash) *block.Commit

	// PutBlockCommit records the finalized commit under
	// commit.BlockHash. Effectively immutable once set.
	PutBlockCommit(commit *block.Commit)

	// DeleteBlockCommit removes the block's finalized commit. Absent
	// keys are a no-op.
	DeleteBlockCommit(hash types.BlockHash)

	// GetBlockCommitHashes returns the hash of every block with a
	// finalized commit, in no particular order.
	GetBlockCommitHashes() []types.BlockHash

	// GetNextStateRootHash returns the state root resulting from
	// applying the block, or false when it has not been recorded.
	GetNextStateRootHash(hash types.BlockHash) (types.HashDigest, bool)

	// PutNextStateRootHash records the state root resulting from
	// applying the block.
	PutNextStateRootHash(hash types.BlockHash, stateRoot types.HashDigest)

	// DeleteNextStateRootHash removes the block's state-root pointer,
	// typically during rollback or pruning. Absent keys are a no-op.
	DeleteNextStateRootHash(hash types.BlockHash)

	// Close releases held resources. It must be idempotent and must
	// not panic; operations after Close fail with ErrClosed on durable
	// backends.
	Close() error
}

// Package memstore is the volatile reference implementation of the
// store contract. Every conceptual table is an independent concurrent
// map, so operations on unrelated keys never contend; shared
// append-only structures (the per-chain block index, the tx→block
// sets) are immutable values replaced through compare-and-swap retry
// loops rather than guarded by a coarse lock.
//
// Nothing is persisted: the store is meant for tests and ephemeral
// chains.
package memstore

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/chainforge/chainstore/block"
	"github.com/chainforge/chainstore/pvec"
	"github.com/chainforge/chainstore/statestore"
	"github.com/chainforge/chainstore/store"
	"github.com/chainforge/chainstore/transaction"
	"github.com/chainforge/chainstore/types"
)

// Scheme is the loader token selecting this backend; a bare "memory:"
// URI needs no further parameters.
const Scheme = "memory"

func init() {
	store.Register(Scheme, func(u *url.URL) (store.Store, statestore.StateStore, error) {
		return New(), NewStateStore(), nil
	})
}

// execKey identifies one transaction executed within one block.
type execKey struct {
	blockHash types.BlockHash
	txID      types.TxID
}

var _ store.Store = (*Store)(nil)

// Store realizes the store contract in process memory.
type Store struct {
	indexes      sync.Map // types.ChainID -> *pvec.Vector
	nonces       sync.Map // types.ChainID -> *nonceTable
	blocks       sync.Map // types.BlockHash -> *block.Digest
	txs          sync.Map // types.TxID -> *transaction.Transaction
	executions   sync.Map // execKey -> *transaction.TxExecution
	txBlocks     sync.Map // types.TxID -> *hashSet
	blockCommits sync.Map // types.BlockHash -> *block.Commit
	chainCommits sync.Map // types.ChainID -> *block.Commit
	stateRoots   sync.Map // types.BlockHash -> types.HashDigest

	canonicalMu  sync.RWMutex
	canonical    types.ChainID
	hasCanonical bool
}

// New returns an empty volatile store.
func New() *Store {
	return &Store{}
}

func (s *Store) ListChainIDs() []types.ChainID {
	var out []types.ChainID
	s.indexes.Range(func(key, _ any) bool {
		out = append(out, key.(types.ChainID))
		return true
	})
	return out
}

func (s *Store) DeleteChainID(chainID types.ChainID) {
	s.indexes.Delete(chainID)
	s.nonces.Delete(chainID)
	s.chainCommits.Delete(chainID)
}

func (s *Store) GetCanonicalChainID() (types.ChainID, bool) {
	s.canonicalMu.RLock()
	defer s.canonicalMu.RUnlock()
	return s.canonical, s.hasCanonical
}

func (s *Store) SetCanonicalChainID(chainID types.ChainID) {
	s.canonicalMu.Lock()
	defer s.canonicalMu.Unlock()
	s.canonical = chainID
	s.hasCanonical = true
}

func (s *Store) index(chainID types.ChainID) (*pvec.Vector, bool) {
	cur, ok := s.indexes.Load(chainID)
	if !ok {
		return nil, false
	}
	return cur.(*pvec.Vector), true
}

func (s *Store) CountIndex(chainID types.ChainID) int {
	vec, ok := s.index(chainID)
	if !ok {
		return 0
	}
	return vec.Len()
}

func (s *Store) IterateIndexes(chainID types.ChainID, offset int, limit int) []types.BlockHash {
	vec, ok := s.index(chainID)
	if !ok {
		return nil
	}
	return vec.Slice(offset, limit)
}

func (s *Store) IndexBlockHash(chainID types.ChainID, index int) (types.BlockHash, bool) {
	vec, ok := s.index(chainID)
	if !ok {
		return types.BlockHash{}, false
	}
	if index < 0 {
		index += vec.Len()
	}
	return vec.Get(index)
}

func (s *Store) AppendIndex(chainID types.ChainID, hash types.BlockHash) int {
	for {
		cur, loaded := s.indexes.LoadOrStore(chainID, pvec.Empty())
		vec := cur.(*pvec.Vector)
		next := vec.Append(hash)
		if s.indexes.CompareAndSwap(chainID, vec, next) {
			if !loaded || vec.Len() == 0 {
				// First block of the chain: its nonce table starts
				// existing, empty.
				s.nonces.LoadOrStore(chainID, newNonceTable())
			}
			return next.Len() - 1
		}
	}
}

func (s *Store) ForkBlockIndexes(src, dst types.ChainID, branchpoint types.BlockHash) {
	vec, ok := s.index(src)
	if !ok {
		return
	}
	pos, found := s.findHeight(vec, branchpoint)
	if !found {
		// Branchpoint not in the source index: silent no-op, dst is
		// left untouched.
		return
	}
	s.indexes.Store(dst, vec.Take(pos+1))
}

// findHeight locates branchpoint in vec. The stored header height is
// tried first so that forking a long chain near its tip stays cheap;
// the linear scan only runs for blocks the store has never seen.
func (s *Store) findHeight(vec *pvec.Vector, branchpoint types.BlockHash) (int, bool) {
	if cur, ok := s.blocks.Load(branchpoint); ok {
		height := int(cur.(*block.Digest).Header.Height)
		if got, ok := vec.Get(height); ok && got == branchpoint {
			return height, true
		}
	}
	return vec.Find(branchpoint)
}

func (s *Store) GetTransaction(txID types.TxID) *transaction.Transaction {
	cur, ok := s.txs.Load(txID)
	if !ok {
		return nil
	}
	return cur.(*transaction.Transaction).Copy()
}

func (s *Store) PutTransaction(tx *transaction.Transaction) {
	s.txs.Store(tx.ID(), tx.Copy())
}

func (s *Store) ContainsTransaction(txID types.TxID) bool {
	_, ok := s.txs.Load(txID)
	return ok
}

func (s *Store) IterateBlockHashes() []types.BlockHash {
	var out []types.BlockHash
	s.blocks.Range(func(key, _ any) bool {
		out = append(out, key.(types.BlockHash))
		return true
	})
	return out
}

func (s *Store) GetBlockDigest(hash types.BlockHash) (*block.Digest, bool) {
	cur, ok := s.blocks.Load(hash)
	if !ok {
		return nil, false
	}
	return cur.(*block.Digest).Copy(), true
}

func (s *Store) GetBlock(hash types.BlockHash) (*block.Block, error) {
	digest, ok := s.GetBlockDigest(hash)
	if !ok {
		return nil, nil
	}
	txs := make([]*transaction.Transaction, len(digest.TxIDs))
	for i, txID := range digest.TxIDs {
		tx := s.GetTransaction(txID)
		if tx == nil {
			return nil, fmt.Errorf("%w: block %s, tx %s", store.ErrBlockIntegrity, hash, txID)
		}
		txs[i] = tx
	}
	return &block.Block{Digest: *digest, Transactions: txs}, nil
}

func (s *Store) GetBlockIndex(hash types.BlockHash) (uint64, bool) {
	cur, ok := s.blocks.Load(hash)
	if !ok {
		return 0, false
	}
	return cur.(*block.Digest).Header.Height, true
}

func (s *Store) PutBlock(b *block.Block) {
	// Transactions first: a reader racing this call may see the digest
	// without some transactions either way (cross-table writes are not
	// atomic as a unit), but writing them first shortens the window in
	// which GetBlock would report an integrity failure.
	for _, tx := range b.Transactions {
		s.PutTransaction(tx)
	}
	s.blocks.Store(b.Hash, b.Digest.Copy())
}

func (s *Store) DeleteBlock(hash types.BlockHash) bool {
	_, present := s.blocks.LoadAndDelete(hash)
	return present
}

func (s *Store) ContainsBlock(hash types.BlockHash) bool {
	_, ok := s.blocks.Load(hash)
	return ok
}

func (s *Store) CountBlocks() int {
	count := 0
	s.blocks.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (s *Store) PutTxExecution(exec *transaction.TxExecution) {
	dup := *exec
	s.executions.Store(execKey{blockHash: exec.BlockHash, txID: exec.TxID}, &dup)
}

func (s *Store) GetTxExecution(blockHash types.BlockHash, txID types.TxID) *transaction.TxExecution {
	cur, ok := s.executions.Load(execKey{blockHash: blockHash, txID: txID})
	if !ok {
		return nil
	}
	dup := *cur.(*transaction.TxExecution)
	return &dup
}

func (s *Store) PutTxIDBlockHashIndex(txID types.TxID, blockHash types.BlockHash) {
	for {
		cur, _ := s.txBlocks.LoadOrStore(txID, emptyHashSet)
		set := cur.(*hashSet)
		next := set.with(blockHash)
		if next == set || s.txBlocks.CompareAndSwap(txID, set, next) {
			return
		}
	}
}

func (s *Store) GetFirstTxIDBlockHashIndex(txID types.TxID) (types.BlockHash, bool) {
	cur, ok := s.txBlocks.Load(txID)
	if !ok {
		return types.BlockHash{}, false
	}
	return cur.(*hashSet).first()
}

func (s *Store) IterateTxIDBlockHashIndex(txID types.TxID) []types.BlockHash {
	cur, ok := s.txBlocks.Load(txID)
	if !ok {
		return nil
	}
	return cur.(*hashSet).slice()
}

func (s *Store) DeleteTxIDBlockHashIndex(txID types.TxID, blockHash types.BlockHash) {
	// Retry until the association is observed absent or removed, so a
	// concurrent add or remove of a sibling association is never lost.
	for {
		cur, ok := s.txBlocks.Load(txID)
		if !ok {
			return
		}
		set := cur.(*hashSet)
		if !set.contains(blockHash) {
			return
		}
		next := set.without(blockHash)
		if next.len() == 0 {
			if s.txBlocks.CompareAndDelete(txID, cur) {
				return
			}
		} else if s.txBlocks.CompareAndSwap(txID, cur, next) {
			return
		}
	}
}

func (s *Store) nonceTable(chainID types.ChainID) (*nonceTable, bool) {
	cur, ok := s.nonces.Load(chainID)
	if !ok {
		return nil, false
	}
	return cur.(*nonceTable), true
}

func (s *Store) ListTxNonces(chainID types.ChainID) map[types.Address]uint64 {
	table, ok := s.nonceTable(chainID)
	if !ok {
		return map[types.Address]uint64{}
	}
	return table.snapshot()
}

func (s *Store) GetTxNonce(chainID types.ChainID, signer types.Address) uint64 {
	table, ok := s.nonceTable(chainID)
	if !ok {
		return 0
	}
	return table.get(signer)
}

func (s *Store) IncreaseTxNonce(chainID types.ChainID, signer types.Address, delta int64) {
	cur, _ := s.nonces.LoadOrStore(chainID, newNonceTable())
	cur.(*nonceTable).increase(signer, delta)
}

func (s *Store) ForkTxNonces(src, dst types.ChainID) {
	table, ok := s.nonceTable(src)
	if !ok {
		return
	}
	s.nonces.Store(dst, table.fork())
}

func (s *Store) PruneOutdatedChains(noopWithoutCanon bool) error {
	canonical, ok := s.GetCanonicalChainID()
	if !ok {
		if noopWithoutCanon {
			return nil
		}
		return store.ErrNoCanonicalChain
	}
	for _, chainID := range s.ListChainIDs() {
		if chainID != canonical {
			s.DeleteChainID(chainID)
		}
	}
	return nil
}

func (s *Store) GetChainBlockCommit(chainID types.ChainID) *block.Commit {
	cur, ok := s.chainCommits.Load(chainID)
	if !ok {
		return nil
	}
	return cur.(*block.Commit).Copy()
}

func (s *Store) PutChainBlockCommit(chainID types.ChainID, commit *block.Commit) {
	s.chainCommits.Store(chainID, commit.Copy())
}

func (s *Store) GetBlockCommit(hash types.BlockHash) *block.Commit {
	cur, ok := s.blockCommits.Load(hash)
	if !ok {
		return nil
	}
	return cur.(*block.Commit).Copy()
}

func (s *Store) PutBlockCommit(commit *block.Commit) {
	s.blockCommits.Store(commit.BlockHash, commit.Copy())
}

func (s *Store) DeleteBlockCommit(hash types.BlockHash) {
	s.blockCommits.Delete(hash)
}

func (s *Store) GetBlockCommitHashes() []types.BlockHash {
	var out []types.BlockHash
	s.blockCommits.Range(func(key, _ any) bool {
		out = append(out, key.(types.BlockHash))
		return true
	})
	return out
}

func (s *Store) GetNextStateRootHash(hash types.BlockHash) (types.HashDigest, bool) {
	cur, ok := s.stateRoots.Load(hash)
	if !ok {
		return types.HashDigest{}, false
	}
	return cur.(types.HashDigest), true
}

func (s *Store) PutNextStateRootHash(hash types.BlockHash, stateRoot types.HashDigest) {
	s.stateRoots.Store(hash, stateRoot)
}

func (s *Store) DeleteNextStateRootHash(hash types.BlockHash) {
	s.stateRoots.Delete(hash)
}

// Close is a no-op: nothing is held beyond process memory. Safe to
// call any number of times.
func (s *Store) Close() error {
	return nil
}

// Package dbstore is the durable realization of the store contract on
// top of a db.DatabaseProvider. One generic implementation serves
// every engine (LevelDB, bbolt); table separation happens through key
// prefixes.
//
// Unlike the volatile store, forking here copies the shared index
// prefix key by key: the O(shared-structure) forking guarantee binds
// the in-memory reference implementation, a durable backend is allowed
// to trade that for persistence. Contract operations that cannot
// report failures log them and degrade to their "absent" result.
package dbstore

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chainforge/chainstore/block"
	"github.com/chainforge/chainstore/db"
	"github.com/chainforge/chainstore/jsonx"
	"github.com/chainforge/chainstore/logx"
	"github.com/chainforge/chainstore/store"
	"github.com/chainforge/chainstore/transaction"
	"github.com/chainforge/chainstore/types"
)

const logCategory = "DB_STORE"

var _ store.Store = (*Store)(nil)

// Store persists the chain store through a DatabaseProvider.
type Store struct {
	provider db.DatabaseProvider

	// indexMu serializes multi-key index mutations (append, fork,
	// chain deletion). Single-key operations go straight to the
	// provider.
	indexMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates a durable store over the given provider.
func New(provider db.DatabaseProvider) (*Store, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &Store{provider: provider}, nil
}

func (s *Store) ListChainIDs() []types.ChainID {
	var out []types.ChainID
	err := s.provider.IteratePrefix([]byte(prefixIndexCount), func(key, _ []byte) bool {
		raw := key[len(prefixIndexCount):]
		if len(raw) == types.ChainIDSize {
			var id types.ChainID
			copy(id[:], raw)
			out = append(out, id)
		}
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to list chain ids: ", err)
	}
	return out
}

func (s *Store) DeleteChainID(chainID types.ChainID) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.deleteChainLocked(chainID)
}

func (s *Store) deleteChainLocked(chainID types.ChainID) {
	batch := s.provider.Batch()
	defer batch.Close()

	collect := func(prefix []byte) {
		err := s.provider.IteratePrefix(prefix, func(key, _ []byte) bool {
			batch.Delete(append([]byte(nil), key...))
			return true
		})
		if err != nil {
			logx.Error(logCategory, "failed to collect chain keys: ", err)
		}
	}
	collect(indexPrefix(chainID))
	collect(noncePrefix(chainID))
	batch.Delete(indexCountKey(chainID))
	batch.Delete(chainCommitKey(chainID))

	if err := batch.Write(); err != nil {
		logx.Error(logCategory, "failed to delete chain ", chainID, ": ", err)
	}
}

func (s *Store) GetCanonicalChainID() (types.ChainID, bool) {
	value, err := s.provider.Get([]byte(keyCanonical))
	if err != nil {
		logx.Error(logCategory, "failed to read canonical chain: ", err)
		return types.ChainID{}, false
	}
	if len(value) != types.ChainIDSize {
		return types.ChainID{}, false
	}
	var id types.ChainID
	copy(id[:], value)
	return id, true
}

func (s *Store) SetCanonicalChainID(chainID types.ChainID) {
	if err := s.provider.Put([]byte(keyCanonical), chainID.Bytes()); err != nil {
		logx.Error(logCategory, "failed to set canonical chain: ", err)
	}
}

func (s *Store) readCount(chainID types.ChainID) uint64 {
	value, err := s.provider.Get(indexCountKey(chainID))
	if err != nil {
		logx.Error(logCategory, "failed to read index count: ", err)
		return 0
	}
	if len(value) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(value)
}

func (s *Store) CountIndex(chainID types.ChainID) int {
	return int(s.readCount(chainID))
}

func (s *Store) IterateIndexes(chainID types.ChainID, offset int, limit int) []types.BlockHash {
	count := int(s.readCount(chainID))
	if offset < 0 || offset >= count {
		return nil
	}
	end := count
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]types.BlockHash, 0, end-offset)
	for i := offset; i < end; i++ {
		hash, ok := s.readIndex(chainID, uint64(i))
		if !ok {
			break
		}
		out = append(out, hash)
	}
	return out
}

func (s *Store) readIndex(chainID types.ChainID, height uint64) (types.BlockHash, bool) {
	value, err := s.provider.Get(indexKey(chainID, height))
	if err != nil {
		logx.Error(logCategory, "failed to read index entry: ", err)
		return types.BlockHash{}, false
	}
	if len(value) != types.HashSize {
		return types.BlockHash{}, false
	}
	var hash types.BlockHash
	copy(hash[:], value)
	return hash, true
}

func (s *Store) IndexBlockHash(chainID types.ChainID, index int) (types.BlockHash, bool) {
	count := int(s.readCount(chainID))
	if index < 0 {
		index += count
	}
	if index < 0 || index >= count {
		return types.BlockHash{}, false
	}
	return s.readIndex(chainID, uint64(index))
}

func (s *Store) AppendIndex(chainID types.ChainID, hash types.BlockHash) int {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	count := s.readCount(chainID)
	batch := s.provider.Batch()
	defer batch.Close()
	batch.Put(indexKey(chainID, count), hash.Bytes())
	batch.Put(indexCountKey(chainID), binary.BigEndian.AppendUint64(nil, count+1))
	if err := batch.Write(); err != nil {
		logx.Error(logCategory, "failed to append index: ", err)
	}
	return int(count)
}

func (s *Store) ForkBlockIndexes(src, dst types.ChainID, branchpoint types.BlockHash) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	height, found := s.findHeight(src, branchpoint)
	if !found {
		return
	}

	s.deleteChainIndexLocked(dst)

	batch := s.provider.Batch()
	defer batch.Close()
	for i := uint64(0); i <= height; i++ {
		hash, ok := s.readIndex(src, i)
		if !ok {
			logx.Error(logCategory, "index gap in source chain ", src, " at height ", i)
			return
		}
		batch.Put(indexKey(dst, i), hash.Bytes())
	}
	batch.Put(indexCountKey(dst), binary.BigEndian.AppendUint64(nil, height+1))
	if err := batch.Write(); err != nil {
		logx.Error(logCategory, "failed to fork indexes: ", err)
	}
}

// deleteChainIndexLocked clears only dst's index keys; nonces and the
// chain commit survive a fork overwrite.
func (s *Store) deleteChainIndexLocked(chainID types.ChainID) {
	batch := s.provider.Batch()
	defer batch.Close()
	err := s.provider.IteratePrefix(indexPrefix(chainID), func(key, _ []byte) bool {
		batch.Delete(append([]byte(nil), key...))
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to collect index keys: ", err)
	}
	batch.Delete(indexCountKey(chainID))
	if err := batch.Write(); err != nil {
		logx.Error(logCategory, "failed to clear destination index: ", err)
	}
}

// findHeight locates branchpoint in the chain's index, using the
// stored header height as a shortcut before falling back to a scan.
func (s *Store) findHeight(chainID types.ChainID, branchpoint types.BlockHash) (uint64, bool) {
	count := s.readCount(chainID)
	if digest, ok := s.GetBlockDigest(branchpoint); ok {
		height := digest.Header.Height
		if height < count {
			if got, ok := s.readIndex(chainID, height); ok && got == branchpoint {
				return height, true
			}
		}
	}
	for i := count; i > 0; i-- {
		if got, ok := s.readIndex(chainID, i-1); ok && got == branchpoint {
			return i - 1, true
		}
	}
	return 0, false
}

func (s *Store) GetTransaction(txID types.TxID) *transaction.Transaction {
	value, err := s.provider.Get(txKey(txID))
	if err != nil {
		logx.Error(logCategory, "failed to read tx: ", err)
		return nil
	}
	if value == nil {
		return nil
	}
	var tx transaction.Transaction
	if err := jsonx.Unmarshal(value, &tx); err != nil {
		logx.Error(logCategory, "failed to unmarshal tx ", txID, ": ", err)
		return nil
	}
	return &tx
}

func (s *Store) PutTransaction(tx *transaction.Transaction) {
	value, err := jsonx.Marshal(tx)
	if err != nil {
		logx.Error(logCategory, "failed to marshal tx: ", err)
		return
	}
	if err := s.provider.Put(txKey(tx.ID()), value); err != nil {
		logx.Error(logCategory, "failed to write tx: ", err)
	}
}

func (s *Store) ContainsTransaction(txID types.TxID) bool {
	found, err := s.provider.Has(txKey(txID))
	if err != nil {
		logx.Error(logCategory, "failed to check tx: ", err)
		return false
	}
	return found
}

func (s *Store) IterateBlockHashes() []types.BlockHash {
	var out []types.BlockHash
	err := s.provider.IteratePrefix([]byte(prefixBlock), func(key, _ []byte) bool {
		raw := key[len(prefixBlock):]
		if len(raw) == types.HashSize {
			var hash types.BlockHash
			copy(hash[:], raw)
			out = append(out, hash)
		}
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to iterate blocks: ", err)
	}
	return out
}

func (s *Store) GetBlockDigest(hash types.BlockHash) (*block.Digest, bool) {
	value, err := s.provider.Get(blockKey(hash))
	if err != nil {
		logx.Error(logCategory, "failed to read block digest: ", err)
		return nil, false
	}
	if value == nil {
		return nil, false
	}
	var digest block.Digest
	if err := jsonx.Unmarshal(value, &digest); err != nil {
		logx.Error(logCategory, "failed to unmarshal block ", hash, ": ", err)
		return nil, false
	}
	return &digest, true
}

func (s *Store) GetBlock(hash types.BlockHash) (*block.Block, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	digest, ok := s.GetBlockDigest(hash)
	if !ok {
		return nil, nil
	}

	keys := make([][]byte, len(digest.TxIDs))
	for i, txID := range digest.TxIDs {
		keys[i] = txKey(txID)
	}
	values, err := s.provider.GetBatch(keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read block transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, len(digest.TxIDs))
	for i, txID := range digest.TxIDs {
		raw, ok := values[string(keys[i])]
		if !ok {
			return nil, fmt.Errorf("%w: block %s, tx %s", store.ErrBlockIntegrity, hash, txID)
		}
		var tx transaction.Transaction
		if err := jsonx.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tx %s: %w", txID, err)
		}
		txs[i] = &tx
	}
	return &block.Block{Digest: *digest, Transactions: txs}, nil
}

func (s *Store) GetBlockIndex(hash types.BlockHash) (uint64, bool) {
	digest, ok := s.GetBlockDigest(hash)
	if !ok {
		return 0, false
	}
	return digest.Header.Height, true
}

func (s *Store) PutBlock(b *block.Block) {
	batch := s.provider.Batch()
	defer batch.Close()

	for _, tx := range b.Transactions {
		value, err := jsonx.Marshal(tx)
		if err != nil {
			logx.Error(logCategory, "failed to marshal tx: ", err)
			return
		}
		batch.Put(txKey(tx.ID()), value)
	}
	value, err := jsonx.Marshal(&b.Digest)
	if err != nil {
		logx.Error(logCategory, "failed to marshal block digest: ", err)
		return
	}
	batch.Put(blockKey(b.Hash), value)

	if err := batch.Write(); err != nil {
		logx.Error(logCategory, "failed to write block ", b.Hash, ": ", err)
	}
}

func (s *Store) DeleteBlock(hash types.BlockHash) bool {
	found, err := s.provider.Has(blockKey(hash))
	if err != nil {
		logx.Error(logCategory, "failed to check block: ", err)
		return false
	}
	if !found {
		return false
	}
	if err := s.provider.Delete(blockKey(hash)); err != nil {
		logx.Error(logCategory, "failed to delete block: ", err)
		return false
	}
	return true
}

func (s *Store) ContainsBlock(hash types.BlockHash) bool {
	found, err := s.provider.Has(blockKey(hash))
	if err != nil {
		logx.Error(logCategory, "failed to check block: ", err)
		return false
	}
	return found
}

func (s *Store) CountBlocks() int {
	count := 0
	err := s.provider.IteratePrefix([]byte(prefixBlock), func(_, _ []byte) bool {
		count++
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to count blocks: ", err)
	}
	return count
}

func (s *Store) PutTxExecution(exec *transaction.TxExecution) {
	value, err := jsonx.Marshal(exec)
	if err != nil {
		logx.Error(logCategory, "failed to marshal tx execution: ", err)
		return
	}
	if err := s.provider.Put(txExecKey(exec.BlockHash, exec.TxID), value); err != nil {
		logx.Error(logCategory, "failed to write tx execution: ", err)
	}
}

func (s *Store) GetTxExecution(blockHash types.BlockHash, txID types.TxID) *transaction.TxExecution {
	value, err := s.provider.Get(txExecKey(blockHash, txID))
	if err != nil {
		logx.Error(logCategory, "failed to read tx execution: ", err)
		return nil
	}
	if value == nil {
		return nil
	}
	var exec transaction.TxExecution
	if err := jsonx.Unmarshal(value, &exec); err != nil {
		logx.Error(logCategory, "failed to unmarshal tx execution: ", err)
		return nil
	}
	return &exec
}

func (s *Store) PutTxIDBlockHashIndex(txID types.TxID, blockHash types.BlockHash) {
	if err := s.provider.Put(txBlockKey(txID, blockHash), nil); err != nil {
		logx.Error(logCategory, "failed to write tx-block index: ", err)
	}
}

func (s *Store) GetFirstTxIDBlockHashIndex(txID types.TxID) (types.BlockHash, bool) {
	var first types.BlockHash
	found := false
	// Prefix iteration is key-ordered in both engines, so the member
	// returned here is stable across calls.
	err := s.provider.IteratePrefix(txBlockPrefix(txID), func(key, _ []byte) bool {
		raw := key[len(prefixTxBlock)+types.HashSize:]
		if len(raw) == types.HashSize {
			copy(first[:], raw)
			found = true
		}
		return false
	})
	if err != nil {
		logx.Error(logCategory, "failed to read tx-block index: ", err)
		return types.BlockHash{}, false
	}
	return first, found
}

func (s *Store) IterateTxIDBlockHashIndex(txID types.TxID) []types.BlockHash {
	var out []types.BlockHash
	err := s.provider.IteratePrefix(txBlockPrefix(txID), func(key, _ []byte) bool {
		raw := key[len(prefixTxBlock)+types.HashSize:]
		if len(raw) == types.HashSize {
			var hash types.BlockHash
			copy(hash[:], raw)
			out = append(out, hash)
		}
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to iterate tx-block index: ", err)
	}
	return out
}

func (s *Store) DeleteTxIDBlockHashIndex(txID types.TxID, blockHash types.BlockHash) {
	// One association is one key, so sibling associations cannot be
	// disturbed.
	if err := s.provider.Delete(txBlockKey(txID, blockHash)); err != nil {
		logx.Error(logCategory, "failed to delete tx-block index: ", err)
	}
}

func (s *Store) ListTxNonces(chainID types.ChainID) map[types.Address]uint64 {
	out := make(map[types.Address]uint64)
	prefix := noncePrefix(chainID)
	err := s.provider.IteratePrefix(prefix, func(key, value []byte) bool {
		raw := key[len(prefix):]
		if len(raw) == types.AddressSize && len(value) == 8 {
			var signer types.Address
			copy(signer[:], raw)
			out[signer] = binary.BigEndian.Uint64(value)
		}
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to list nonces: ", err)
	}
	return out
}

func (s *Store) GetTxNonce(chainID types.ChainID, signer types.Address) uint64 {
	value, err := s.provider.Get(nonceKey(chainID, signer))
	if err != nil {
		logx.Error(logCategory, "failed to read nonce: ", err)
		return 0
	}
	if len(value) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(value)
}

func (s *Store) IncreaseTxNonce(chainID types.ChainID, signer types.Address, delta int64) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	nonce := s.GetTxNonce(chainID, signer)
	next := uint64(int64(nonce) + delta)
	key := nonceKey(chainID, signer)
	if err := s.provider.Put(key, binary.BigEndian.AppendUint64(nil, next)); err != nil {
		logx.Error(logCategory, "failed to write nonce: ", err)
	}
}

func (s *Store) ForkTxNonces(src, dst types.ChainID) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	batch := s.provider.Batch()
	defer batch.Close()

	// Clear dst first so the copy replaces rather than merges.
	dstPrefix := noncePrefix(dst)
	err := s.provider.IteratePrefix(dstPrefix, func(key, _ []byte) bool {
		batch.Delete(append([]byte(nil), key...))
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to collect nonce keys: ", err)
		return
	}

	srcPrefix := noncePrefix(src)
	err = s.provider.IteratePrefix(srcPrefix, func(key, value []byte) bool {
		raw := key[len(srcPrefix):]
		if len(raw) == types.AddressSize {
			var signer types.Address
			copy(signer[:], raw)
			batch.Put(nonceKey(dst, signer), append([]byte(nil), value...))
		}
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to copy nonces: ", err)
		return
	}

	if err := batch.Write(); err != nil {
		logx.Error(logCategory, "failed to fork nonces: ", err)
	}
}

func (s *Store) PruneOutdatedChains(noopWithoutCanon bool) error {
	canonical, ok := s.GetCanonicalChainID()
	if !ok {
		if noopWithoutCanon {
			return nil
		}
		return store.ErrNoCanonicalChain
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	for _, chainID := range s.ListChainIDs() {
		if chainID != canonical {
			s.deleteChainLocked(chainID)
		}
	}
	return nil
}

func (s *Store) GetChainBlockCommit(chainID types.ChainID) *block.Commit {
	return s.readCommit(chainCommitKey(chainID))
}

func (s *Store) PutChainBlockCommit(chainID types.ChainID, commit *block.Commit) {
	s.writeCommit(chainCommitKey(chainID), commit)
}

func (s *Store) GetBlockCommit(hash types.BlockHash) *block.Commit {
	return s.readCommit(commitKey(hash))
}

func (s *Store) PutBlockCommit(commit *block.Commit) {
	s.writeCommit(commitKey(commit.BlockHash), commit)
}

func (s *Store) readCommit(key []byte) *block.Commit {
	value, err := s.provider.Get(key)
	if err != nil {
		logx.Error(logCategory, "failed to read commit: ", err)
		return nil
	}
	if value == nil {
		return nil
	}
	var commit block.Commit
	if err := jsonx.Unmarshal(value, &commit); err != nil {
		logx.Error(logCategory, "failed to unmarshal commit: ", err)
		return nil
	}
	return &commit
}

func (s *Store) writeCommit(key []byte, commit *block.Commit) {
	value, err := jsonx.Marshal(commit)
	if err != nil {
		logx.Error(logCategory, "failed to marshal commit: ", err)
		return
	}
	if err := s.provider.Put(key, value); err != nil {
		logx.Error(logCategory, "failed to write commit: ", err)
	}
}

func (s *Store) DeleteBlockCommit(hash types.BlockHash) {
	if err := s.provider.Delete(commitKey(hash)); err != nil {
		logx.Error(logCategory, "failed to delete commit: ", err)
	}
}

func (s *Store) GetBlockCommitHashes() []types.BlockHash {
	var out []types.BlockHash
	err := s.provider.IteratePrefix([]byte(prefixCommit), func(key, _ []byte) bool {
		raw := key[len(prefixCommit):]
		if len(raw) == types.HashSize {
			var hash types.BlockHash
			copy(hash[:], raw)
			out = append(out, hash)
		}
		return true
	})
	if err != nil {
		logx.Error(logCategory, "failed to iterate commits: ", err)
	}
	return out
}

func (s *Store) GetNextStateRootHash(hash types.BlockHash) (types.HashDigest, bool) {
	value, err := s.provider.Get(stateRootKey(hash))
	if err != nil {
		logx.Error(logCategory, "failed to read state root: ", err)
		return types.HashDigest{}, false
	}
	if len(value) != types.HashSize {
		return types.HashDigest{}, false
	}
	var root types.HashDigest
	copy(root[:], value)
	return root, true
}

func (s *Store) PutNextStateRootHash(hash types.BlockHash, stateRoot types.HashDigest) {
	if err := s.provider.Put(stateRootKey(hash), stateRoot.Bytes()); err != nil {
		logx.Error(logCategory, "failed to write state root: ", err)
	}
}

func (s *Store) DeleteNextStateRootHash(hash types.BlockHash) {
	if err := s.provider.Delete(stateRootKey(hash)); err != nil {
		logx.Error(logCategory, "failed to delete state root: ", err)
	}
}

// Close closes the underlying provider once; later calls return nil.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.provider.Close()
		logx.Info(logCategory, "store closed")
	})
	return err
}

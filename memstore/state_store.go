package memstore

import (
	"crypto/sha256"
	"sync"

	"github.com/chainforge/chainstore/statestore"
	"github.com/chainforge/chainstore/types"
)

var _ statestore.StateStore = (*StateStore)(nil)

// StateStore is the in-memory content-addressed store paired with the
// volatile chain store by the "memory" loader.
type StateStore struct {
	values sync.Map // types.HashDigest -> []byte
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

func (s *StateStore) Get(hash types.HashDigest) ([]byte, bool) {
	cur, ok := s.values.Load(hash)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), cur.([]byte)...), true
}

func (s *StateStore) Put(value []byte) types.HashDigest {
	hash := types.HashDigest(sha256.Sum256(value))
	s.values.Store(hash, append([]byte(nil), value...))
	return hash
}

func (s *StateStore) Contains(hash types.HashDigest) bool {
	_, ok := s.values.Load(hash)
	return ok
}

func (s *StateStore) Close() error {
	return nil
}

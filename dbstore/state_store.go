package dbstore

import (
	"crypto/sha256"

	"github.com/chainforge/chainstore/db"
	"github.com/chainforge/chainstore/logx"
	"github.com/chainforge/chainstore/statestore"
	"github.com/chainforge/chainstore/types"
)

const prefixState = "state:"

var _ statestore.StateStore = (*StateStore)(nil)

// StateStore is the content-addressed companion of the durable chain
// store, sharing the same provider under its own key prefix.
type StateStore struct {
	provider db.DatabaseProvider
}

func NewStateStore(provider db.DatabaseProvider) *StateStore {
	return &StateStore{provider: provider}
}

func stateKey(hash types.HashDigest) []byte {
	return append([]byte(prefixState), hash[:]...)
}

func (s *StateStore) Get(hash types.HashDigest) ([]byte, bool) {
	value, err := s.provider.Get(stateKey(hash))
	if err != nil {
		logx.Error(logCategory, "failed to read state value: ", err)
		return nil, false
	}
	if value == nil {
		return nil, false
	}
	return value, true
}

func (s *StateStore) Put(value []byte) types.HashDigest {
	hash := types.HashDigest(sha256.Sum256(value))
	if err := s.provider.Put(stateKey(hash), value); err != nil {
		logx.Error(logCategory, "failed to write state value: ", err)
	}
	return hash
}

func (s *StateStore) Contains(hash types.HashDigest) bool {
	found, err := s.provider.Has(stateKey(hash))
	if err != nil {
		logx.Error(logCategory, "failed to check state value: ", err)
		return false
	}
	return found
}

// Close is a no-op: the provider is owned by the chain store, which
// closes it.
func (s *StateStore) Close() error {
	return nil
}

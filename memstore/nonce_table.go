package memstore

import (
	"sync"

	"github.com/chainforge/chainstore/types"
)

// nonceTable tracks per-signer transaction nonces for one chain. Each
// chain owns an independent table: forking copies the table at the
// fork point and the copies evolve separately.
type nonceTable struct {
	mu     sync.RWMutex
	nonces map[types.Address]uint64
}

func newNonceTable() *nonceTable {
	return &nonceTable{nonces: make(map[types.Address]uint64)}
}

func (t *nonceTable) get(signer types.Address) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nonces[signer]
}

func (t *nonceTable) increase(signer types.Address, delta int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nonces[signer] = uint64(int64(t.nonces[signer]) + delta)
}

func (t *nonceTable) snapshot() map[types.Address]uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[types.Address]uint64, len(t.nonces))
	for signer, nonce := range t.nonces {
		out[signer] = nonce
	}
	return out
}

// fork returns a deep copy of the table.
func (t *nonceTable) fork() *nonceTable {
	dup := newNonceTable()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for signer, nonce := range t.nonces {
		dup.nonces[signer] = nonce
	}
	return dup
}

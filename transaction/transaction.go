package transaction

import (
	"crypto/sha256"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/chainforge/chainstore/jsonx"
	"github.com/chainforge/chainstore/types"
)

const (
	TxTypeTransfer = 0
	TxTypeData     = 1
)

// Transaction is one signed action recorded on a chain. It is
// immutable once stored: the store keys it by its content hash and
// never rewrites an existing entry with different content. The same
// transaction may be referenced by blocks in many chains, since a
// candidate payload can be re-included by sibling forks before one of
// them wins.
type Transaction struct {
	Type      int32         `json:"type"`
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Amount    *uint256.Int  `json:"amount"`
	Timestamp uint64        `json:"timestamp"`
	Nonce     uint64        `json:"nonce,omitempty"`
	TextData  string        `json:"text_data,omitempty"`
	Signature string        `json:"signature,omitempty"` // opaque, base58
}

// Bytes returns the canonical serialized form used for hashing.
func (tx *Transaction) Bytes() []byte {
	b, err := jsonx.Marshal(tx)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal transaction: %v", err))
	}
	return b
}

// ID returns the content-derived transaction id.
func (tx *Transaction) ID() types.TxID {
	return types.TxID(sha256.Sum256(tx.Bytes()))
}

// Equal reports whether two transactions carry identical content.
func (tx *Transaction) Equal(other *Transaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}
	return tx.ID() == other.ID()
}

// Copy returns a deep copy so callers can hold a transaction without
// pinning store internals.
func (tx *Transaction) Copy() *Transaction {
	if tx == nil {
		return nil
	}
	dup := *tx
	if tx.Amount != nil {
		dup.Amount = new(uint256.Int).Set(tx.Amount)
	}
	return &dup
}

package block

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/chainforge/chainstore/transaction"
	"github.com/chainforge/chainstore/types"
)

// Header carries the metadata of one block. StateRootHash is the
// content address of the state resulting from the parent block; the
// state produced by this block is tracked separately by the store
// (NextStateRootHash) because it only exists after execution.
type Header struct {
	ProtocolVersion int32            `json:"protocol_version"`
	Height          uint64           `json:"height"`
	Timestamp       time.Time        `json:"timestamp"`
	Proposer        types.Address    `json:"proposer"`
	PrevHash        types.BlockHash  `json:"prev_hash"`
	TxMerkleRoot    types.HashDigest `json:"tx_merkle_root"`
	StateRootHash   types.HashDigest `json:"state_root_hash"`
}

// Digest is the stored, compact representation of a block: its header
// plus the ordered ids of the transactions it contains. The
// transaction bodies live in the transaction table and are resolved on
// demand, so that a transaction shared by blocks in several forks is
// stored once.
type Digest struct {
	Header Header          `json:"header"`
	TxIDs  []types.TxID    `json:"tx_ids"`
	Hash   types.BlockHash `json:"hash"`
}

// Block is the fully materialized form: the digest with every
// referenced transaction resolved, in digest order.
type Block struct {
	Digest
	Transactions []*transaction.Transaction `json:"transactions"`
}

// Assemble builds a block from its header and transactions and seals
// it with its content hash. The hash is computed exactly once, here;
// the store treats it as opaque afterwards.
func Assemble(header Header, txs []*transaction.Transaction) *Block {
	txIDs := make([]types.TxID, len(txs))
	for i, tx := range txs {
		txIDs[i] = tx.ID()
	}
	d := Digest{Header: header, TxIDs: txIDs}
	d.Hash = d.computeHash()
	return &Block{Digest: d, Transactions: txs}
}

func (d *Digest) computeHash() types.BlockHash {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[:4], uint32(d.Header.ProtocolVersion))
	h.Write(buf[:4])
	binary.BigEndian.PutUint64(buf, d.Header.Height)
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, uint64(d.Header.Timestamp.UnixNano()))
	h.Write(buf)
	h.Write(d.Header.Proposer[:])
	h.Write(d.Header.PrevHash[:])
	h.Write(d.Header.TxMerkleRoot[:])
	h.Write(d.Header.StateRootHash[:])
	for _, id := range d.TxIDs {
		h.Write(id[:])
	}
	var out types.BlockHash
	copy(out[:], h.Sum(nil))
	return out
}

// CountTxs returns the number of transactions the digest references.
func (d *Digest) CountTxs() int { return len(d.TxIDs) }

// Copy returns a digest whose tx id slice is independent of the
// receiver's.
func (d *Digest) Copy() *Digest {
	dup := *d
	dup.TxIDs = append([]types.TxID(nil), d.TxIDs...)
	return &dup
}

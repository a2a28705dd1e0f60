package block

import (
	"time"

	"github.com/chainforge/chainstore/types"
)

// VoteFlag classifies a consensus vote.
type VoteFlag int32

const (
	VoteNull VoteFlag = iota
	VotePreVote
	VotePreCommit
)

// Vote is one validator's vote over a block. Signatures are opaque to
// the store; verification happens in the consensus layer.
type Vote struct {
	Validator types.Address   `json:"validator"`
	Flag      VoteFlag        `json:"flag"`
	Height    uint64          `json:"height"`
	Round     int32           `json:"round"`
	BlockHash types.BlockHash `json:"block_hash"`
	Timestamp time.Time       `json:"timestamp"`
	Signature []byte          `json:"signature,omitempty"` // opaque
}

// Commit is the consensus artifact finalizing a block: the votes that
// carried it. Attached per block (the finalized commit, effectively
// immutable once set) and per chain (the chain's current tip commit,
// overwritten as the chain advances).
type Commit struct {
	Height    uint64          `json:"height"`
	Round     int32           `json:"round"`
	BlockHash types.BlockHash `json:"block_hash"`
	Votes     []Vote          `json:"votes"`
}

// Copy returns a commit whose vote slice is independent of the
// receiver's.
func (c *Commit) Copy() *Commit {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Votes = make([]Vote, len(c.Votes))
	for i, v := range c.Votes {
		dup.Votes[i] = v
		dup.Votes[i].Signature = append([]byte(nil), v.Signature...)
	}
	return &dup
}

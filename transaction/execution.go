package transaction

import (
	"github.com/chainforge/chainstore/types"
)

// TxExecution is the outcome of running one transaction inside one
// specific block. The same transaction executed in a sibling fork gets
// its own record, keyed by (BlockHash, TxID). At most one record
// exists per pair and it is immutable once written.
type TxExecution struct {
	BlockHash types.BlockHash `json:"block_hash"`
	TxID      types.TxID      `json:"tx_id"`
	Fail      bool            `json:"fail"`
	ExitCode  int32           `json:"exit_code,omitempty"`
	Output    string          `json:"output,omitempty"`
}

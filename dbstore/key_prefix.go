package dbstore

import (
	"encoding/binary"

	"github.com/chainforge/chainstore/types"
)

// Database key layout. Every conceptual table gets its own prefix;
// composite keys concatenate fixed-width ids so prefix iteration walks
// one table (or one chain / one transaction) at a time.
const (
	prefixIndex      = "idx:"         // idx:<chain><height BE8> -> block hash
	prefixIndexCount = "idxcnt:"      // idxcnt:<chain>          -> BE8 count
	prefixBlock      = "blk:"         // blk:<hash>              -> digest json
	prefixTx         = "tx:"          // tx:<txid>               -> tx json
	prefixTxExec     = "txexec:"      // txexec:<hash><txid>     -> execution json
	prefixTxBlock    = "txblk:"       // txblk:<txid><hash>      -> empty
	prefixNonce      = "nonce:"       // nonce:<chain><address>  -> BE8 nonce
	prefixCommit     = "commit:"      // commit:<hash>           -> commit json
	prefixChainCmt   = "chaincommit:" // chaincommit:<chain>     -> commit json
	prefixStateRoot  = "stateroot:"   // stateroot:<hash>        -> 32 bytes
	keyCanonical     = "canon"        // -> chain id bytes
)

func indexKey(chainID types.ChainID, height uint64) []byte {
	key := make([]byte, 0, len(prefixIndex)+types.ChainIDSize+8)
	key = append(key, prefixIndex...)
	key = append(key, chainID[:]...)
	key = binary.BigEndian.AppendUint64(key, height)
	return key
}

func indexPrefix(chainID types.ChainID) []byte {
	key := make([]byte, 0, len(prefixIndex)+types.ChainIDSize)
	key = append(key, prefixIndex...)
	key = append(key, chainID[:]...)
	return key
}

func indexCountKey(chainID types.ChainID) []byte {
	return append([]byte(prefixIndexCount), chainID[:]...)
}

func blockKey(hash types.BlockHash) []byte {
	return append([]byte(prefixBlock), hash[:]...)
}

func txKey(txID types.TxID) []byte {
	return append([]byte(prefixTx), txID[:]...)
}

func txExecKey(blockHash types.BlockHash, txID types.TxID) []byte {
	key := make([]byte, 0, len(prefixTxExec)+types.HashSize*2)
	key = append(key, prefixTxExec...)
	key = append(key, blockHash[:]...)
	key = append(key, txID[:]...)
	return key
}

func txBlockKey(txID types.TxID, blockHash types.BlockHash) []byte {
	key := make([]byte, 0, len(prefixTxBlock)+types.HashSize*2)
	key = append(key, prefixTxBlock...)
	key = append(key, txID[:]...)
	key = append(key, blockHash[:]...)
	return key
}

func txBlockPrefix(txID types.TxID) []byte {
	return append([]byte(prefixTxBlock), txID[:]...)
}

func nonceKey(chainID types.ChainID, signer types.Address) []byte {
	key := make([]byte, 0, len(prefixNonce)+types.ChainIDSize+types.AddressSize)
	key = append(key, prefixNonce...)
	key = append(key, chainID[:]...)
	key = append(key, signer[:]...)
	return key
}

func noncePrefix(chainID types.ChainID) []byte {
	return append([]byte(prefixNonce), chainID[:]...)
}

func commitKey(hash types.BlockHash) []byte {
	return append([]byte(prefixCommit), hash[:]...)
}

func chainCommitKey(chainID types.ChainID) []byte {
	return append([]byte(prefixChainCmt), chainID[:]...)
}

func stateRootKey(hash types.BlockHash) []byte {
	return append([]byte(prefixStateRoot), hash[:]...)
}

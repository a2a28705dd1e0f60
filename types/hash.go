package types

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashSize is the byte width of every content-derived identifier
	// handled by the store (block hashes, tx ids, state roots).
	HashSize = 32
)

// BlockHash is the content-derived identifier of a block. It is unique
// across the whole store, not per chain: the same block may sit at an
// index position in many chains at once.
type BlockHash [HashSize]byte

// TxID is the content-derived identifier of a transaction.
type TxID [HashSize]byte

// HashDigest is the content address of a state trie root.
type HashDigest [HashSize]byte

func NewBlockHashFromHex(s string) (BlockHash, error) {
	var h BlockHash
	if err := decodeFixedHex(s, h[:]); err != nil {
		return BlockHash{}, fmt.Errorf("invalid block hash: %w", err)
	}
	return h, nil
}

func NewTxIDFromHex(s string) (TxID, error) {
	var id TxID
	if err := decodeFixedHex(s, id[:]); err != nil {
		return TxID{}, fmt.Errorf("invalid tx id: %w", err)
	}
	return id, nil
}

func NewHashDigestFromHex(s string) (HashDigest, error) {
	var d HashDigest
	if err := decodeFixedHex(s, d[:]); err != nil {
		return HashDigest{}, fmt.Errorf("invalid hash digest: %w", err)
	}
	return d, nil
}

func (h BlockHash) String() string { return hex.EncodeToString(h[:]) }
func (h BlockHash) Bytes() []byte  { return append([]byte(nil), h[:]...) }

func (h BlockHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *BlockHash) UnmarshalText(text []byte) error {
	parsed, err := NewBlockHashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (id TxID) String() string { return hex.EncodeToString(id[:]) }
func (id TxID) Bytes() []byte  { return append([]byte(nil), id[:]...) }

func (id TxID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *TxID) UnmarshalText(text []byte) error {
	parsed, err := NewTxIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (d HashDigest) String() string { return hex.EncodeToString(d[:]) }
func (d HashDigest) Bytes() []byte  { return append([]byte(nil), d[:]...) }

func (d HashDigest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *HashDigest) UnmarshalText(text []byte) error {
	parsed, err := NewHashDigestFromHex(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func decodeFixedHex(s string, dst []byte) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("failed to decode hex string: %w", err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}

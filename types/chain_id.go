package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const ChainIDSize = 16

// ChainID identifies one chain: a linear sequence of blocks. Forks are
// distinct ChainIDs sharing a common index prefix. The zero value means
// "no chain".
type ChainID [ChainIDSize]byte

// NewChainID returns a fresh random chain id.
func NewChainID() ChainID {
	var id ChainID
	if _, err := rand.Read(id[:]); err != nil {
		panic(fmt.Sprintf("failed to generate chain id: %v", err))
	}
	return id
}

func NewChainIDFromHex(s string) (ChainID, error) {
	var id ChainID
	if err := decodeFixedHex(s, id[:]); err != nil {
		return ChainID{}, fmt.Errorf("invalid chain id: %w", err)
	}
	return id, nil
}

func (id ChainID) String() string { return hex.EncodeToString(id[:]) }
func (id ChainID) Bytes() []byte  { return append([]byte(nil), id[:]...) }

// IsZero reports whether the id is the "no chain" value.
func (id ChainID) IsZero() bool { return id == ChainID{} }

func (id ChainID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ChainID) UnmarshalText(text []byte) error {
	parsed, err := NewChainIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

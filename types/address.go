package types

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

const AddressSize = 32

// Address identifies a transaction signer. It is an opaque fixed-width
// value (an ed25519 public key in practice); the store never verifies
// signatures against it.
type Address [AddressSize]byte

// NewAddressFromString parses an address in its canonical base58 form.
// Hex is accepted as a fallback for tooling that prints raw digests.
func NewAddressFromString(s string) (Address, error) {
	var addr Address
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != AddressSize {
		raw, err = hex.DecodeString(s)
		if err != nil {
			return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
		}
	}
	if len(raw) != AddressSize {
		return Address{}, fmt.Errorf("invalid address %q: expected %d bytes, got %d", s, AddressSize, len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

func (a Address) String() string { return base58.Encode(a[:]) }
func (a Address) Hex() string    { return hex.EncodeToString(a[:]) }
func (a Address) Bytes() []byte  { return append([]byte(nil), a[:]...) }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

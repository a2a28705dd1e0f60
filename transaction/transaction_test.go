package transaction

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"

	"github.com/chainforge/chainstore/types"
)

func sampleTx() *Transaction {
	var sender, recipient types.Address
	sender[0] = 1
	recipient[0] = 2
	return &Transaction{
		Type:      TxTypeTransfer,
		Sender:    sender,
		Recipient: recipient,
		Amount:    uint256.NewInt(42),
		Timestamp: 1700000000,
		Nonce:     7,
		TextData:  "hello",
	}
}

func TestTransaction_IDIsStable(t *testing.T) {
	tx := sampleTx()
	if tx.ID() != tx.ID() {
		t.Error("id changed between calls")
	}
	if tx.ID() != tx.Copy().ID() {
		t.Error("copy has a different id")
	}
}

func TestTransaction_IDDependsOnContent(t *testing.T) {
	a := sampleTx()
	b := sampleTx()
	b.Nonce++
	if a.ID() == b.ID() {
		t.Error("different content produced the same id")
	}
	if a.Equal(b) {
		t.Error("different transactions compare equal")
	}
	if !a.Equal(sampleTx()) {
		t.Error("identical transactions compare unequal")
	}
}

func TestTransaction_CopyIsIndependent(t *testing.T) {
	tx := sampleTx()
	dup := tx.Copy()
	dup.Amount.SetUint64(999)
	dup.Nonce = 100

	if tx.Amount.Uint64() != 42 {
		t.Errorf("mutating the copy changed the original amount: %d", tx.Amount.Uint64())
	}
	if tx.Nonce != 7 {
		t.Errorf("mutating the copy changed the original nonce: %d", tx.Nonce)
	}
}

func TestTransaction_FuzzedRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 8).Funcs(
		func(amount **uint256.Int, c fuzz.Continue) {
			*amount = uint256.NewInt(c.Uint64())
		},
	)
	for i := 0; i < 50; i++ {
		var tx Transaction
		f.Fuzz(&tx)
		dup := tx.Copy()
		if dup.ID() != tx.ID() {
			t.Fatalf("fuzzed tx %d: copy id diverged", i)
		}
	}
}

package store_test

import (
	"errors"
	"testing"

	"github.com/chainforge/chainstore/memstore"
	"github.com/chainforge/chainstore/store"
	"github.com/chainforge/chainstore/types"
)

func TestLoadStore_MemoryScheme(t *testing.T) {
	s, states, err := store.LoadStore("memory:")
	if err != nil {
		t.Fatalf("failed to load memory store: %v", err)
	}
	defer s.Close()
	defer states.Close()

	if _, ok := s.(*memstore.Store); !ok {
		t.Fatalf("memory scheme yielded %T", s)
	}

	// The pair is usable immediately.
	chain := types.NewChainID()
	if got := s.AppendIndex(chain, types.BlockHash{1}); got != 0 {
		t.Errorf("append on loaded store: height %d", got)
	}
	hash := states.Put([]byte("state"))
	if !states.Contains(hash) {
		t.Error("paired state store does not hold its value")
	}
}

func TestLoadStore_UnknownScheme(t *testing.T) {
	_, _, err := store.LoadStore("carrierpigeon://somewhere")
	if !errors.Is(err, store.ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}

	_, _, err = store.LoadStore("not a uri at all \x00")
	if err == nil {
		t.Fatal("expected an error for an unparsable uri")
	}

	_, _, err = store.LoadStore("/no/scheme")
	if !errors.Is(err, store.ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme for schemeless uri, got %v", err)
	}
}

func TestSchemes_ListsRegisteredBackends(t *testing.T) {
	schemes := store.Schemes()
	found := map[string]bool{}
	for _, s := range schemes {
		found[s] = true
	}
	if !found[memstore.Scheme] {
		t.Errorf("memory scheme not registered: %v", schemes)
	}
}

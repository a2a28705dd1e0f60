package memstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/chainstore/types"
)

func TestStore_ConcurrentAppendSameChain(t *testing.T) {
	s := New()
	chain := types.NewChainID()

	const workers = 8
	const perWorker = 200

	heights := make([][]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				h := s.AppendIndex(chain, makeHash(w*perWorker+i))
				heights[w] = append(heights[w], h)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, s.CountIndex(chain))

	// Every append got a distinct height: no lost updates.
	seen := make(map[int]bool, workers*perWorker)
	for _, hs := range heights {
		for _, h := range hs {
			assert.False(t, seen[h], "height %d assigned twice", h)
			seen[h] = true
		}
	}
	for i := 0; i < workers*perWorker; i++ {
		assert.True(t, seen[i], "height %d never assigned", i)
	}
}

func TestStore_ConcurrentAppendDifferentChains(t *testing.T) {
	s := New()

	const chains = 16
	const perChain = 100

	ids := make([]types.ChainID, chains)
	for i := range ids {
		ids[i] = types.NewChainID()
	}

	var wg sync.WaitGroup
	for c := 0; c < chains; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perChain; i++ {
				h := s.AppendIndex(ids[c], makeHash(c*perChain+i))
				require.Equal(t, i, h, "chain %d append %d", c, i)
			}
		}(c)
	}
	wg.Wait()

	for c, id := range ids {
		require.Equal(t, perChain, s.CountIndex(id), "chain %d", c)
		for i := 0; i < perChain; i++ {
			got, ok := s.IndexBlockHash(id, i)
			require.True(t, ok)
			require.Equal(t, makeHash(c*perChain+i), got)
		}
	}
}

func TestStore_ConcurrentTxBlockIndex(t *testing.T) {
	s := New()
	txID := makeTx(1).ID()

	const total = 200

	// Add everything, then remove the odd half concurrently with
	// re-adding the even half. No association may be lost.
	for i := 0; i < total; i++ {
		s.PutTxIDBlockHashIndex(txID, makeHash(i))
	}

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 1 {
				s.DeleteTxIDBlockHashIndex(txID, makeHash(i))
			} else {
				s.PutTxIDBlockHashIndex(txID, makeHash(i))
			}
		}(i)
	}
	wg.Wait()

	left := s.IterateTxIDBlockHashIndex(txID)
	require.Len(t, left, total/2)
	for _, h := range left {
		assert.NotEqual(t, byte(1), h[1]&1, "odd association %s survived", h)
	}
}

func TestStore_ConcurrentNonceIncrements(t *testing.T) {
	s := New()
	chain := types.NewChainID()
	signer := makeAddress(1)

	const workers = 10
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.IncreaseTxNonce(chain, signer, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(workers*perWorker), s.GetTxNonce(chain, signer))
}

func TestStore_ConcurrentForkAndAppend(t *testing.T) {
	s := New()
	src := types.NewChainID()
	const n = 500
	for i := 0; i < n; i++ {
		s.AppendIndex(src, makeHash(i))
	}

	// Forks while the source keeps growing: every fork must observe a
	// consistent prefix.
	var wg sync.WaitGroup
	forks := make([]types.ChainID, 8)
	for f := range forks {
		forks[f] = types.NewChainID()
		wg.Add(1)
		go func(dst types.ChainID) {
			defer wg.Done()
			s.ForkBlockIndexes(src, dst, makeHash(n-1))
		}(forks[f])
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := n; i < n+100; i++ {
			s.AppendIndex(src, makeHash(i))
		}
	}()
	wg.Wait()

	for _, dst := range forks {
		require.Equal(t, n, s.CountIndex(dst))
		for _, i := range []int{0, n / 2, n - 1} {
			got, ok := s.IndexBlockHash(dst, i)
			require.True(t, ok)
			require.Equal(t, makeHash(i), got)
		}
	}
	require.Equal(t, n+100, s.CountIndex(src))
}

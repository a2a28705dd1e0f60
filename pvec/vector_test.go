package pvec

import (
	"encoding/binary"
	"testing"

	"github.com/chainforge/chainstore/types"
)

func hashOf(i int) types.BlockHash {
	var h types.BlockHash
	binary.BigEndian.PutUint64(h[:8], uint64(i)+1)
	return h
}

func buildVector(n int) *Vector {
	v := Empty()
	for i := 0; i < n; i++ {
		v = v.Append(hashOf(i))
	}
	return v
}

func TestVector_AppendAndGet(t *testing.T) {
	// Crosses the tail boundary (32), a leaf push (33), a full root
	// (1056) and one level growth.
	const n = 3000
	v := buildVector(n)

	if v.Len() != n {
		t.Fatalf("expected length %d, got %d", n, v.Len())
	}
	for i := 0; i < n; i++ {
		got, ok := v.Get(i)
		if !ok {
			t.Fatalf("index %d missing", i)
		}
		if got != hashOf(i) {
			t.Fatalf("index %d: got %s, want %s", i, got, hashOf(i))
		}
	}
	if _, ok := v.Get(n); ok {
		t.Errorf("index %d should be out of range", n)
	}
	if _, ok := v.Get(-1); ok {
		t.Error("negative index should be out of range")
	}
}

func TestVector_AppendDoesNotMutateOldVersions(t *testing.T) {
	v1 := buildVector(100)
	v2 := v1.Append(hashOf(1000))

	if v1.Len() != 100 {
		t.Errorf("old version length changed: %d", v1.Len())
	}
	if v2.Len() != 101 {
		t.Errorf("new version length: %d", v2.Len())
	}
	if _, ok := v1.Get(100); ok {
		t.Error("old version sees the new element")
	}
	if got, _ := v2.Get(100); got != hashOf(1000) {
		t.Errorf("new version misses the appended element: %s", got)
	}
}

func TestVector_Take(t *testing.T) {
	const n = 2500
	v := buildVector(n)

	for _, cut := range []int{1, 31, 32, 33, 64, 1024, 1056, 1057, 2048, n - 1, n} {
		p := v.Take(cut)
		if p.Len() != cut {
			t.Fatalf("Take(%d): length %d", cut, p.Len())
		}
		for _, i := range []int{0, cut / 2, cut - 1} {
			got, ok := p.Get(i)
			if !ok || got != hashOf(i) {
				t.Fatalf("Take(%d).Get(%d): got %s ok=%v", cut, i, got, ok)
			}
		}
		if _, ok := p.Get(cut); ok {
			t.Fatalf("Take(%d) still exposes index %d", cut, cut)
		}
	}

	if v.Take(0).Len() != 0 {
		t.Error("Take(0) should be empty")
	}
	if v.Take(-5).Len() != 0 {
		t.Error("Take with negative n should be empty")
	}
	if v.Take(n+10) != v {
		t.Error("Take past the end should return the receiver")
	}
}

func TestVector_TakeThenDiverge(t *testing.T) {
	v := buildVector(200)
	fork := v.Take(100)

	// The original keeps growing; the prefix must not see it.
	v2 := v
	for i := 200; i < 300; i++ {
		v2 = v2.Append(hashOf(i))
	}
	forked := fork.Append(hashOf(9999))

	if fork.Len() != 100 {
		t.Errorf("prefix length changed: %d", fork.Len())
	}
	if got, _ := forked.Get(100); got != hashOf(9999) {
		t.Errorf("diverged fork lost its append: %s", got)
	}
	if got, _ := v2.Get(100); got != hashOf(100) {
		t.Errorf("original chain corrupted at 100: %s", got)
	}
	for i := 0; i < 100; i++ {
		a, _ := fork.Get(i)
		b, _ := v2.Get(i)
		if a != b {
			t.Fatalf("shared prefix diverged at %d", i)
		}
	}
}

func TestVector_TakeSharesStructure(t *testing.T) {
	v := buildVector(5000)
	p := v.Take(4096)

	// Full subtrees left of the cut must be the same nodes, not
	// copies.
	if v.root.children[0] != p.root.children[0] {
		t.Error("leftmost subtree was copied instead of shared")
	}
}

func TestVector_Slice(t *testing.T) {
	v := buildVector(100)

	got := v.Slice(10, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(got))
	}
	for i, h := range got {
		if h != hashOf(10+i) {
			t.Errorf("slice[%d]: got %s", i, h)
		}
	}

	if rest := v.Slice(90, -1); len(rest) != 10 {
		t.Errorf("negative limit: expected 10 elements, got %d", len(rest))
	}
	if out := v.Slice(100, 5); out != nil {
		t.Errorf("offset past end: expected nil, got %v", out)
	}
	if out := v.Slice(-1, 5); out != nil {
		t.Errorf("negative offset: expected nil, got %v", out)
	}
	if got := v.Slice(95, 100); len(got) != 5 {
		t.Errorf("limit past end: expected 5 elements, got %d", len(got))
	}
}

func TestVector_Find(t *testing.T) {
	v := buildVector(300)

	for _, i := range []int{0, 150, 299} {
		pos, ok := v.Find(hashOf(i))
		if !ok || pos != i {
			t.Errorf("Find(%d): got %d ok=%v", i, pos, ok)
		}
	}
	if _, ok := v.Find(hashOf(12345)); ok {
		t.Error("found a hash that was never appended")
	}

	// Duplicates: Find scans from the end, so the last occurrence wins.
	dup := v.Append(hashOf(0))
	pos, ok := dup.Find(hashOf(0))
	if !ok || pos != 300 {
		t.Errorf("duplicate: got %d ok=%v, want 300", pos, ok)
	}
}

func TestVector_EmptyBehaviour(t *testing.T) {
	v := Empty()
	if v.Len() != 0 {
		t.Fatalf("empty vector length %d", v.Len())
	}
	if _, ok := v.Get(0); ok {
		t.Error("empty vector has an element")
	}
	if out := v.Slice(0, 10); out != nil {
		t.Errorf("empty slice: %v", out)
	}
	if _, ok := v.Find(hashOf(1)); ok {
		t.Error("empty vector found something")
	}
}

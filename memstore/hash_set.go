package memstore

import (
	"bytes"

	"github.com/chainforge/chainstore/types"
)

// hashSet is an immutable set of block hashes. Mutations return a new
// set, so a *hashSet stored in a sync.Map can be replaced with
// CompareAndSwap without locking: concurrent writers race on the swap,
// never on the contents.
type hashSet struct {
	members map[types.BlockHash]struct{}
}

var emptyHashSet = &hashSet{}

func (s *hashSet) len() int {
	return len(s.members)
}

func (s *hashSet) contains(h types.BlockHash) bool {
	_, ok := s.members[h]
	return ok
}

func (s *hashSet) with(h types.BlockHash) *hashSet {
	if s.contains(h) {
		return s
	}
	members := make(map[types.BlockHash]struct{}, len(s.members)+1)
	for m := range s.members {
		members[m] = struct{}{}
	}
	members[h] = struct{}{}
	return &hashSet{members: members}
}

func (s *hashSet) without(h types.BlockHash) *hashSet {
	if !s.contains(h) {
		return s
	}
	if len(s.members) == 1 {
		return emptyHashSet
	}
	members := make(map[types.BlockHash]struct{}, len(s.members)-1)
	for m := range s.members {
		if m != h {
			members[m] = struct{}{}
		}
	}
	return &hashSet{members: members}
}

func (s *hashSet) slice() []types.BlockHash {
	out := make([]types.BlockHash, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	return out
}

// first returns the lexicographically smallest member. The set is
// unordered; this just keeps repeated calls stable.
func (s *hashSet) first() (types.BlockHash, bool) {
	var min types.BlockHash
	found := false
	for m := range s.members {
		if !found || bytes.Compare(m[:], min[:]) < 0 {
			min = m
			found = true
		}
	}
	return min, found
}

// Package pvec provides an immutable, persistent vector of block
// hashes with structural sharing. Every mutation returns a new version
// that shares all untouched trie nodes with its predecessor, so a
// chain index can be forked at any height without copying history.
package pvec

import (
	"github.com/chainforge/chainstore/types"
)

const (
	bits   = 5
	branch = 1 << bits
	mask   = branch - 1
)

// node is either internal (children populated) or a leaf (values
// populated). Nodes are never mutated after publication.
type node struct {
	children [branch]*node
	values   []types.BlockHash
}

// Vector is a 32-way branching persistent vector with a tail buffer.
// Append and Get are O(log32 n); Take shares every full subtree left
// of the cut. The zero-length vector is Empty(); all methods are safe
// for concurrent use since no version is ever mutated in place.
type Vector struct {
	count int
	shift uint
	root  *node
	tail  []types.BlockHash
}

var empty = &Vector{shift: bits}

// Empty returns the vector of length zero.
func Empty() *Vector { return empty }

// Len returns the number of elements.
func (v *Vector) Len() int { return v.count }

func (v *Vector) tailOffset() int {
	if v.count < branch {
		return 0
	}
	return ((v.count - 1) >> bits) << bits
}

// leafFor returns the backing array holding index i. i must be in
// range.
func (v *Vector) leafFor(i int) []types.BlockHash {
	if i >= v.tailOffset() {
		return v.tail
	}
	n := v.root
	for level := v.shift; level > 0; level -= bits {
		n = n.children[(i>>level)&mask]
	}
	return n.values
}

// Get returns the element at index i, or false when out of range.
func (v *Vector) Get(i int) (types.BlockHash, bool) {
	if i < 0 || i >= v.count {
		return types.BlockHash{}, false
	}
	return v.leafFor(i)[i&mask], true
}

// Append returns a new vector with h added at the end.
func (v *Vector) Append(h types.BlockHash) *Vector {
	if v.count-v.tailOffset() < branch {
		newTail := make([]types.BlockHash, len(v.tail)+1)
		copy(newTail, v.tail)
		newTail[len(v.tail)] = h
		return &Vector{count: v.count + 1, shift: v.shift, root: v.root, tail: newTail}
	}

	// Tail is full: push it down into the trie.
	tailNode := &node{values: v.tail}
	newShift := v.shift
	var newRoot *node
	if (v.count >> bits) > (1 << v.shift) {
		// Root overflow: grow one level.
		newRoot = &node{}
		newRoot.children[0] = v.root
		newRoot.children[1] = newPath(v.shift, tailNode)
		newShift += bits
	} else {
		newRoot = v.pushTail(v.shift, v.root, tailNode)
	}
	return &Vector{count: v.count + 1, shift: newShift, root: newRoot, tail: []types.BlockHash{h}}
}

func newPath(level uint, n *node) *node {
	if level == bits {
		ret := &node{}
		ret.children[0] = n
		return ret
	}
	ret := &node{}
	ret.children[0] = newPath(level-bits, n)
	return ret
}

func (v *Vector) pushTail(level uint, parent *node, tailNode *node) *node {
	subIdx := ((v.count - 1) >> level) & mask
	ret := &node{}
	if parent != nil {
		ret.children = parent.children
	}
	if level == bits {
		ret.children[subIdx] = tailNode
		return ret
	}
	var child *node
	if parent != nil {
		child = parent.children[subIdx]
	}
	if child != nil {
		ret.children[subIdx] = v.pushTail(level-bits, child, tailNode)
	} else {
		ret.children[subIdx] = newPath(level-bits, tailNode)
	}
	return ret
}

// Take returns the prefix of length n. Full subtrees left of the cut
// are shared between the result and the receiver; only the nodes on
// the cut path are rebuilt.
func (v *Vector) Take(n int) *Vector {
	if n >= v.count {
		return v
	}
	if n <= 0 {
		return empty
	}

	tailOff := ((n - 1) >> bits) << bits
	src := v.leafFor(n - 1)
	newTail := append([]types.BlockHash(nil), src[:n-tailOff]...)
	if tailOff == 0 {
		return &Vector{count: n, shift: bits, tail: newTail}
	}

	newShift := v.shift
	newRoot := truncate(v.root, v.shift, tailOff)
	for newShift > bits && newRoot.children[1] == nil {
		newRoot = newRoot.children[0]
		newShift -= bits
	}
	return &Vector{count: n, shift: newShift, root: newRoot, tail: newTail}
}

// truncate rebuilds the trie rooted at n so that it holds exactly the
// first size elements. Callers cut on a tail boundary, so size is a
// positive multiple of the leaf width.
func truncate(n *node, level uint, size int) *node {
	last := ((size - 1) >> level) & mask
	ret := &node{}
	copy(ret.children[:last], n.children[:last])
	remaining := size - (last << level)
	if remaining == 1<<level {
		ret.children[last] = n.children[last]
	} else if level == bits {
		leaf := n.children[last]
		ret.children[last] = &node{values: append([]types.BlockHash(nil), leaf.values[:remaining]...)}
	} else {
		ret.children[last] = truncate(n.children[last], level-bits, remaining)
	}
	return ret
}

// Slice returns up to limit elements starting at offset. A negative
// limit means "the rest". Out-of-range offsets yield an empty slice.
func (v *Vector) Slice(offset, limit int) []types.BlockHash {
	if offset < 0 || offset >= v.count {
		return nil
	}
	end := v.count
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]types.BlockHash, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, v.leafFor(i)[i&mask])
	}
	return out
}

// Find returns the index of the first occurrence of h, scanning from
// the end since callers mostly look for recent blocks.
func (v *Vector) Find(h types.BlockHash) (int, bool) {
	for i := v.count - 1; i >= 0; i-- {
		if v.leafFor(i)[i&mask] == h {
			return i, true
		}
	}
	return 0, false
}

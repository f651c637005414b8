package classtree

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/lluisalemanypuig/chesspebase/internal/arena"
	"github.com/lluisalemanypuig/chesspebase/internal/position"
)

// branchNode is one non-leaf level of the tree. occ is a bitmask of
// which of the 32 attribute values have a populated child; exactly
// one of children/leaves is meaningful, selected by isLeafLevel.
//
// A plain uint32 bitmask (rather than github.com/bits-and-blooms/bitset)
// keeps this arena-carved node self-contained: the field lives inline
// in the node's own slot with no second, lazily-initialized allocation
// for the bitset's backing word slice.
type branchNode struct {
	occ         uint32
	isLeafLevel bool
	children    [AlphabetSize]*branchNode
	leaves      [AlphabetSize]*leafNode
}

// leafEntry is one (Position, occurrence count) pair stored at a leaf.
type leafEntry struct {
	Pos   *position.Position
	Hash  uint64
	Count uint64
}

// leafNode holds the entries sharing one attribute tuple, in ascending
// natural-string order.
type leafNode struct {
	entries []leafEntry
}

// insert places pos in sorted position, or folds count into an
// existing equal entry. Returns true if a new entry was created.
func (l *leafNode) insert(pos *position.Position, count uint64) bool {
	key := pos.ToNaturalString()
	h := xxhash.Sum64String(key)

	i := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].Pos.ToNaturalString() >= key
	})
	if i < len(l.entries) && l.entries[i].Hash == h && l.entries[i].Pos.Equal(pos) {
		l.entries[i].Count += count
		return false
	}

	l.entries = append(l.entries, leafEntry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = leafEntry{Pos: pos, Hash: h, Count: count}
	return true
}

// nodeAllocator constructs fresh nodes, either from the Go heap (the
// default) or carved from a bump arena when a memory profile has
// pre-sized one.
type nodeAllocator interface {
	newBranch(isLeafLevel bool) *branchNode
	newLeaf() *leafNode
}

type heapAllocator struct{}

func (heapAllocator) newBranch(isLeafLevel bool) *branchNode {
	return &branchNode{isLeafLevel: isLeafLevel}
}

func (heapAllocator) newLeaf() *leafNode {
	return &leafNode{}
}

// arenaAllocator carves nodes out of two typed bump arenas instead of
// the Go heap. Each arena's backing slice is ordinary Go memory (not
// raw bytes reinterpreted via unsafe.Pointer), so the pointers a
// branchNode/leafNode holds — children, leaves, entries — stay visible
// to the garbage collector. A pool slot is not guaranteed zero after a
// Reset (only the bump index rewinds), so every carved node is
// explicitly reset to its zero value before use.
type arenaAllocator struct {
	branches *arena.Arena[branchNode]
	leaves   *arena.Arena[leafNode]
}

func (al *arenaAllocator) newBranch(isLeafLevel bool) *branchNode {
	n := al.branches.Allocate()
	*n = branchNode{isLeafLevel: isLeafLevel}
	return n
}

func (al *arenaAllocator) newLeaf() *leafNode {
	n := al.leaves.Allocate()
	*n = leafNode{}
	return n
}

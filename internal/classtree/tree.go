package classtree

import (
	"github.com/lluisalemanypuig/chesspebase/internal/arena"
	"github.com/lluisalemanypuig/chesspebase/internal/position"
)

// Tree is one classtree: a fixed-arity, coalescing, ordered index.
// The zero value is not usable; build one with New or Initialize.
type Tree struct {
	root      *branchNode
	size      uint64
	trackSize bool
	alloc     nodeAllocator
}

// New builds an empty, heap-backed tree.
func New() *Tree {
	t := &Tree{alloc: heapAllocator{}, trackSize: true}
	t.root = t.alloc.newBranch(Arity == 1)
	return t
}

// newArenaTree builds an empty tree whose nodes are carved from the
// given typed arenas. Used on the memory-profile restore path
// (§4.3.4), by Initialize, once it knows exactly how many branch and
// leaf nodes the restored tree needs: size is not maintained online on
// this path — call UpdateSize after bulk ingest.
func newArenaTree(branches *arena.Arena[branchNode], leaves *arena.Arena[leafNode]) *Tree {
	t := &Tree{alloc: &arenaAllocator{branches: branches, leaves: leaves}, trackSize: false}
	t.root = t.alloc.newBranch(Arity == 1)
	return t
}

// Add inserts (pos, count) under the attribute tuple keys, descending
// through ordered branch levels and creating them on demand, then
// coalescing into the target leaf: an equal position already present
// has count folded into it rather than a duplicate entry created.
func (t *Tree) Add(keys Keys, pos *position.Position, count uint64) {
	node := t.root
	for level := 0; level < Arity-1; level++ {
		k := keys[level]
		child := node.children[k]
		if child == nil {
			child = t.alloc.newBranch(level+1 == Arity-1)
			node.children[k] = child
			node.occ |= 1 << uint(k)
		}
		node = child
	}

	k := keys[Arity-1]
	leaf := node.leaves[k]
	if leaf == nil {
		leaf = t.alloc.newLeaf()
		node.leaves[k] = leaf
		node.occ |= 1 << uint(k)
	}
	if leaf.insert(pos, count) && t.trackSize {
		t.size++
	}
}

// Size reports the number of leaf entries across the whole tree. It
// is O(1) when online tracking is enabled (the default); on the
// arena/memory-profile path it stays at zero until the first
// UpdateSize, which also turns online tracking on.
func (t *Tree) Size() uint64 {
	return t.size
}

// UpdateSize recomputes the entry count by a full traversal. Needed
// after Merge or after bulk ingest into an arena-backed tree, where
// online maintenance is suppressed.
func (t *Tree) UpdateSize() {
	var n uint64
	walkAllLeaves(t.root, 0, func(l *leafNode) {
		n += uint64(len(l.entries))
	})
	t.size = n
	t.trackSize = true
}

// Clear drops every node and entry and resets size to zero, replacing
// the root with a fresh one from the tree's allocator.
func (t *Tree) Clear() {
	t.root = t.alloc.newBranch(Arity == 1)
	t.size = 0
}

// Merge destructively consumes other: every leaf entry of other is
// added to t as if by Add, coalescing on overlapping attribute
// tuples. Merge is associative and commutative over disjoint
// keysets. Size follows the merge only when t tracks it online (as
// Add does); on an arena-backed tree call UpdateSize afterward.
func (t *Tree) Merge(other *Tree) {
	var keys Keys
	walkAllEntries(other.root, 0, &keys, func(k Keys, e leafEntry) {
		t.Add(k, e.Pos, e.Count)
	})
}

// TopEntry is one (attribute value, subtree) pair at the root level,
// as returned by TopLevel.
type TopEntry struct {
	Key   byte
	Child *branchNode
}

// TopLevel returns the root's populated children in ascending key
// order — the "begin()/end()" top-level iteration of §4.3.1.
func (t *Tree) TopLevel() []TopEntry {
	var out []TopEntry
	for k := 0; k < AlphabetSize; k++ {
		if t.root.occ&(1<<uint(k)) == 0 {
			continue
		}
		out = append(out, TopEntry{Key: byte(k), Child: t.root.children[k]})
	}
	return out
}

// All visits every (attribute tuple, position, occurrence count) in
// the tree, in no particular order. Used by reference/flat-scan code
// that needs to cross-check the pruning iterator's results.
func (t *Tree) All(visit func(Keys, *position.Position, uint64)) {
	var keys Keys
	walkAllEntries(t.root, 0, &keys, func(k Keys, e leafEntry) {
		visit(k, e.Pos, e.Count)
	})
}

func walkAllLeaves(n *branchNode, level int, visit func(*leafNode)) {
	if n.isLeafLevel {
		for k := 0; k < AlphabetSize; k++ {
			if n.occ&(1<<uint(k)) == 0 {
				continue
			}
			visit(n.leaves[k])
		}
		return
	}
	for k := 0; k < AlphabetSize; k++ {
		if n.occ&(1<<uint(k)) == 0 {
			continue
		}
		walkAllLeaves(n.children[k], level+1, visit)
	}
}

func walkAllEntries(n *branchNode, level int, keys *Keys, visit func(Keys, leafEntry)) {
	if n.isLeafLevel {
		for k := 0; k < AlphabetSize; k++ {
			if n.occ&(1<<uint(k)) == 0 {
				continue
			}
			keys[Arity-1] = byte(k)
			for _, e := range n.leaves[k].entries {
				visit(*keys, e)
			}
		}
		return
	}
	for k := 0; k < AlphabetSize; k++ {
		if n.occ&(1<<uint(k)) == 0 {
			continue
		}
		keys[level] = byte(k)
		walkAllEntries(n.children[k], level+1, keys, visit)
	}
}

package classtree

import "github.com/lluisalemanypuig/chesspebase/internal/position"

type iterState uint8

const (
	stateBeforeBegin iterState = iota
	statePositioned
	stateAtEnd
)

type frame struct {
	branch *branchNode
	key    int
}

// LevelPredicate gates one classtree level. ancestors holds the
// attribute values already chosen at levels 0..level-1 (read-only,
// always reflecting the iterator's true current path); candidate is
// the value being considered at this level. Predicates are pure
// functions of (ancestors, candidate) rather than closures mutating
// shared state: the pruning traversal revisits and abandons candidate
// subtrees while backtracking, and a predicate that accumulated state
// destructively across calls would have no correct way to undo a
// discarded candidate's contribution. Any context a predicate needs —
// a running total, a sibling piece's white count — is always
// recoverable from ancestors, since frames for levels above the one
// being tested never change until the traversal backs out past them.
type LevelPredicate func(ancestors []byte, candidate byte) bool

// Iterator is a live, pruning range iterator over a Tree (§4.3.3). It
// owns its per-level predicate state but does not own the store.
type Iterator struct {
	tree  *Tree
	preds [Arity]LevelPredicate

	frames   [Arity]frame
	entryIdx int
	state    iterState
}

// RangeIteratorBegin constructs a pruning iterator positioned
// before the first result. preds[i] gates attribute level i; a nil
// entry accepts every value at that level.
func RangeIteratorBegin(t *Tree, preds [Arity]LevelPredicate) *Iterator {
	it := &Iterator{tree: t, preds: preds}
	it.Begin()
	return it
}

// SetFunctions rebinds the iterator's predicates without discarding
// the iterator or its tree binding — the mechanism sessions use to
// run a new query over an existing cursor.
func (it *Iterator) SetFunctions(preds [Arity]LevelPredicate) {
	it.preds = preds
}

// Begin rewinds the iterator to the before-begin sentinel.
func (it *Iterator) Begin() {
	it.state = stateBeforeBegin
	it.entryIdx = -1
}

// PastBegin reports whether the iterator is at the before-begin
// sentinel.
func (it *Iterator) PastBegin() bool {
	return it.state == stateBeforeBegin
}

// AtEnd reports whether the iterator has run off the last result.
func (it *Iterator) AtEnd() bool {
	return it.state == stateAtEnd
}

// Current returns the entry the iterator is positioned on. Valid
// only when neither PastBegin nor AtEnd holds.
func (it *Iterator) Current() (*position.Position, uint64) {
	leaf := it.frames[Arity-1].branch.leaves[it.frames[Arity-1].key]
	e := leaf.entries[it.entryIdx]
	return e.Pos, e.Count
}

func (it *Iterator) ancestors(level int) []byte {
	out := make([]byte, level)
	for i := 0; i < level; i++ {
		out[i] = byte(it.frames[i].key)
	}
	return out
}

func (it *Iterator) accept(level int, k int) bool {
	p := it.preds[level]
	return p == nil || p(it.ancestors(level), byte(k))
}

// tryLevel finds, starting at startKey, the first attribute value at
// level satisfying its predicate with a non-empty subtree beneath it,
// descending and filling frames[level+1:] on success.
func (it *Iterator) tryLevel(level, startKey int) bool {
	node := it.frames[level].branch
	for k := startKey; k < AlphabetSize; k++ {
		if node.occ&(1<<uint(k)) == 0 || !it.accept(level, k) {
			continue
		}
		if level == Arity-1 {
			leaf := node.leaves[k]
			if leaf == nil || len(leaf.entries) == 0 {
				continue
			}
			it.frames[level].key = k
			it.entryIdx = 0
			return true
		}
		child := node.children[k]
		if child == nil {
			continue
		}
		it.frames[level].key = k
		it.frames[level+1].branch = child
		if it.tryLevel(level+1, 0) {
			return true
		}
	}
	return false
}

// tryLevelRev is tryLevel's mirror, searching downward from startKey
// and landing on the last entry of the last matching leaf.
func (it *Iterator) tryLevelRev(level, startKey int) bool {
	node := it.frames[level].branch
	for k := startKey; k >= 0; k-- {
		if node.occ&(1<<uint(k)) == 0 || !it.accept(level, k) {
			continue
		}
		if level == Arity-1 {
			leaf := node.leaves[k]
			if leaf == nil || len(leaf.entries) == 0 {
				continue
			}
			it.frames[level].key = k
			it.entryIdx = len(leaf.entries) - 1
			return true
		}
		child := node.children[k]
		if child == nil {
			continue
		}
		it.frames[level].key = k
		it.frames[level+1].branch = child
		if it.tryLevelRev(level+1, AlphabetSize-1) {
			return true
		}
	}
	return false
}

// backtrackForward retries from one level above the current leaf
// level upward, looking for the next sibling key satisfying its
// predicate.
func (it *Iterator) backtrackForward() bool {
	for level := Arity - 2; level >= 0; level-- {
		if it.tryLevel(level, it.frames[level].key+1) {
			return true
		}
	}
	return false
}

func (it *Iterator) backtrackReverse() bool {
	for level := Arity - 2; level >= 0; level-- {
		if it.tryLevelRev(level, it.frames[level].key-1) {
			return true
		}
	}
	return false
}

// Next advances the cursor and reports whether it landed on a result;
// false means the iterator pinned itself at the end sentinel.
func (it *Iterator) Next() bool {
	switch it.state {
	case stateAtEnd:
		return false
	case stateBeforeBegin:
		it.frames[0].branch = it.tree.root
		if it.tryLevel(0, 0) {
			it.state = statePositioned
			return true
		}
		it.state = stateAtEnd
		return false
	default: // statePositioned
		leaf := it.frames[Arity-1].branch.leaves[it.frames[Arity-1].key]
		if it.entryIdx+1 < len(leaf.entries) {
			it.entryIdx++
			return true
		}
		if it.tryLevel(Arity-1, it.frames[Arity-1].key+1) || it.backtrackForward() {
			return true
		}
		it.state = stateAtEnd
		return false
	}
}

// Prev is Next's mirror.
func (it *Iterator) Prev() bool {
	switch it.state {
	case stateBeforeBegin:
		return false
	case stateAtEnd:
		it.frames[0].branch = it.tree.root
		if it.tryLevelRev(0, AlphabetSize-1) {
			it.state = statePositioned
			return true
		}
		it.state = stateBeforeBegin
		return false
	default: // statePositioned
		if it.entryIdx-1 >= 0 {
			it.entryIdx--
			return true
		}
		if it.tryLevelRev(Arity-1, it.frames[Arity-1].key-1) || it.backtrackReverse() {
			return true
		}
		it.state = stateBeforeBegin
		return false
	}
}

// Count runs the iterator to completion from the beginning and
// reports the number of matching leaf entries, without materializing
// them. The caller is expected to rewind via Begin afterward (the
// session layer's Run operation does exactly this).
func (it *Iterator) Count() uint64 {
	it.Begin()
	var n uint64
	for it.Next() {
		n++
	}
	return n
}

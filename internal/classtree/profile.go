package classtree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/lluisalemanypuig/chesspebase/internal/arena"
)

// ErrMalformedProfile is returned by Initialize when the profile
// stream does not match the format OutputProfile writes.
var ErrMalformedProfile = errors.New("classtree: malformed memory profile")

// OutputProfile writes a shape snapshot of t: how many bytes an
// identically-shaped tree would need from a bump arena, followed by,
// one line per branch level, the branching factor encountered at
// every branch node visited in traversal order, terminated by a line
// of per-leaf entry counts. The entries themselves are never
// recorded — this is purely a skeleton used to pre-size an arena
// before a bulk restore (§4.3.4).
func OutputProfile(t *Tree, w io.Writer) error {
	var branchCount, leafCount int
	levelBranching := make([][]int, Arity)
	var leafCounts []int

	var walk func(n *branchNode, level int)
	walk = func(n *branchNode, level int) {
		branchCount++
		if n.isLeafLevel {
			for k := 0; k < AlphabetSize; k++ {
				if n.occ&(1<<uint(k)) == 0 {
					continue
				}
				leafCount++
				leafCounts = append(leafCounts, len(n.leaves[k].entries))
			}
			levelBranching[level] = append(levelBranching[level], popcount(n.occ))
			return
		}
		levelBranching[level] = append(levelBranching[level], popcount(n.occ))
		for k := 0; k < AlphabetSize; k++ {
			if n.occ&(1<<uint(k)) == 0 {
				continue
			}
			walk(n.children[k], level+1)
		}
	}
	walk(t.root, 0)

	totalBytes := branchCount*int(unsafe.Sizeof(branchNode{})) + leafCount*int(unsafe.Sizeof(leafNode{}))

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, totalBytes); err != nil {
		return errors.Wrap(err, "classtree: writing profile header")
	}
	for _, factors := range levelBranching {
		if err := writeIntLine(bw, factors); err != nil {
			return errors.Wrap(err, "classtree: writing level branching line")
		}
	}
	if err := writeIntLine(bw, leafCounts); err != nil {
		return errors.Wrap(err, "classtree: writing leaf-count line")
	}
	return errors.Wrap(bw.Flush(), "classtree: flushing profile")
}

// EstimatedBytes reports how many bytes an identically-shaped,
// arena-backed tree would occupy — the same figure OutputProfile
// writes as its header line, without the rest of the profile.
func EstimatedBytes(t *Tree) int {
	var branchCount, leafCount int
	var walk func(n *branchNode)
	walk = func(n *branchNode) {
		branchCount++
		if n.isLeafLevel {
			for k := 0; k < AlphabetSize; k++ {
				if n.occ&(1<<uint(k)) != 0 {
					leafCount++
				}
			}
			return
		}
		for k := 0; k < AlphabetSize; k++ {
			if n.occ&(1<<uint(k)) == 0 {
				continue
			}
			walk(n.children[k])
		}
	}
	walk(t.root)
	return branchCount*int(unsafe.Sizeof(branchNode{})) + leafCount*int(unsafe.Sizeof(leafNode{}))
}

func writeIntLine(w io.Writer, vals []int) error {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}

func popcount(x uint32) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

// Initialize reads a profile written by OutputProfile, pre-sizes two
// typed arenas from the recorded shape, and returns a fresh,
// arena-backed tree ready to receive Add calls without ever spilling
// to the system allocator for node storage. Size is not maintained
// online on the returned tree; call UpdateSize after bulk ingest.
func Initialize(r io.Reader) (*Tree, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, errors.Wrap(ErrMalformedProfile, "missing header line")
	}
	// The header's total byte count is the same figure EstimatedBytes
	// reports; it is a human-facing summary, not an input to restoring
	// the tree, so beyond validating that it parses it is not used
	// here.
	if _, err := strconv.Atoi(strings.TrimSpace(sc.Text())); err != nil {
		return nil, errors.Wrap(ErrMalformedProfile, "header is not an integer")
	}

	// Each of the next Arity lines carries one value per branch node
	// OutputProfile's traversal visited at that level, and the final
	// line one value per leaf node. The
	// values themselves (branching factors, leaf entry counts) are
	// diagnostic and not read back; what this restore path actually
	// needs is how many values each line holds, which is exactly the
	// number of branch and leaf nodes to pre-size the two arenas below
	// with, so they never spill to the heap during restore.
	branchCount := 0
	for i := 0; i < Arity; i++ {
		if !sc.Scan() {
			return nil, errors.Wrap(ErrMalformedProfile, "missing level branching line")
		}
		branchCount += len(strings.Fields(sc.Text()))
	}
	if !sc.Scan() {
		return nil, errors.Wrap(ErrMalformedProfile, "missing leaf-count line")
	}
	leafCount := len(strings.Fields(sc.Text()))
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "classtree: reading profile")
	}

	branches := arena.New[branchNode](branchCount)
	leaves := arena.New[leafNode](leafCount)
	return newArenaTree(branches, leaves), nil
}

package classtree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lluisalemanypuig/chesspebase/internal/position"
)

func mustParse(t *testing.T, fen string) (*position.Position, *position.Info) {
	t.Helper()
	p, info, err := position.Parse(fen)
	require.NoError(t, err)
	return p, info
}

func TestClasstree_CoalescingOnEqualPosition(t *testing.T) {
	tr := New()
	p, info := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	keys := KeysFromInfo(info, p.Side)

	tr.Add(keys, p, 1)
	p2, _ := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	tr.Add(keys, p2, 1)

	assert.EqualValues(t, 1, tr.Size())

	it := RangeIteratorBegin(tr, [Arity]LevelPredicate{})
	require.True(t, it.Next())
	_, count := it.Current()
	assert.EqualValues(t, 2, count)
	assert.False(t, it.Next())
}

func TestClasstree_DistinctPositionsDoNotCoalesce(t *testing.T) {
	tr := New()
	p1, info1 := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	p2, info2 := mustParse(t, "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 1")

	tr.Add(KeysFromInfo(info1, p1.Side), p1, 1)
	tr.Add(KeysFromInfo(info2, p2.Side), p2, 1)

	assert.EqualValues(t, 2, tr.Size())
}

func TestClasstree_IteratorOrderingAndNaturalStringSort(t *testing.T) {
	tr := New()
	fens := []string{
		"8/1P5k/8/8/8/8/4K3/8 w - - 0 1",
		"8/8/8/8/8/8/1P2K2k/8 w - - 0 1",
	}
	var keys Keys
	for _, fen := range fens {
		p, info := mustParse(t, fen)
		keys = KeysFromInfo(info, p.Side)
		tr.Add(keys, p, 1)
	}

	it := RangeIteratorBegin(tr, [Arity]LevelPredicate{})
	var seen []string
	for it.Next() {
		pos, _ := it.Current()
		seen = append(seen, pos.ToNaturalString())
	}
	require.Len(t, seen, 2)
	assert.Less(t, seen[0], seen[1], "leaf entries must come out in ascending natural-string order")
}

func TestClasstree_PredicatePruning(t *testing.T) {
	tr := New()
	p1, info1 := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1") // 8 white pawns
	p2, info2 := mustParse(t, "8/1P5k/8/8/8/8/4K3/8 w - - 0 1")                           // 1 white pawn
	tr.Add(KeysFromInfo(info1, p1.Side), p1, 1)
	tr.Add(KeysFromInfo(info2, p2.Side), p2, 1)

	var preds [Arity]LevelPredicate
	preds[0] = func(_ []byte, v byte) bool { return v == 1 } // only n_white_pawns == 1

	it := RangeIteratorBegin(tr, preds)
	require.True(t, it.Next())
	pos, _ := it.Current()
	assert.Equal(t, p2.ToNaturalString(), pos.ToNaturalString())
	assert.False(t, it.Next())
}

func TestClasstree_CursorStateMachine(t *testing.T) {
	tr := New()
	p, info := mustParse(t, "8/1P5k/8/8/8/8/4K3/8 w - - 0 1")
	tr.Add(KeysFromInfo(info, p.Side), p, 1)

	it := RangeIteratorBegin(tr, [Arity]LevelPredicate{})
	assert.True(t, it.PastBegin())

	require.True(t, it.Next())
	assert.False(t, it.PastBegin())
	assert.False(t, it.AtEnd())

	assert.False(t, it.Next(), "next at the last entry lands on the end sentinel")
	assert.True(t, it.AtEnd())

	require.True(t, it.Prev(), "previous from end returns to the last result")
	assert.False(t, it.Prev(), "previous from the only entry reaches before-begin")
	assert.True(t, it.PastBegin())
}

func TestClasstree_Count(t *testing.T) {
	tr := New()
	for _, fen := range []string{
		"8/1P5k/8/8/8/8/4K3/8 w - - 0 1",
		"8/8/8/8/8/8/1P2K2k/8 w - - 0 1",
	} {
		p, info := mustParse(t, fen)
		tr.Add(KeysFromInfo(info, p.Side), p, 1)
	}
	it := RangeIteratorBegin(tr, [Arity]LevelPredicate{})
	assert.EqualValues(t, 2, it.Count())
	// Count runs to completion; the caller is responsible for rewinding.
	assert.True(t, it.AtEnd())
	it.Begin()
	assert.True(t, it.PastBegin())
}

func TestClasstree_ClearResetsSizeAndIsIdempotent(t *testing.T) {
	tr := New()
	p, info := mustParse(t, "8/1P5k/8/8/8/8/4K3/8 w - - 0 1")
	tr.Add(KeysFromInfo(info, p.Side), p, 1)
	require.EqualValues(t, 1, tr.Size())

	tr.Clear()
	assert.EqualValues(t, 0, tr.Size())
	tr.Clear()
	assert.EqualValues(t, 0, tr.Size())
}

func TestClasstree_Merge(t *testing.T) {
	a := New()
	b := New()
	p1, info1 := mustParse(t, "8/1P5k/8/8/8/8/4K3/8 w - - 0 1")
	p2, info2 := mustParse(t, "8/8/8/8/8/8/1P2K2k/8 w - - 0 1")
	a.Add(KeysFromInfo(info1, p1.Side), p1, 1)
	b.Add(KeysFromInfo(info2, p2.Side), p2, 1)

	a.Merge(b)
	a.UpdateSize()
	assert.EqualValues(t, 2, a.Size())
}

func TestClasstree_MemoryProfileRoundTrip(t *testing.T) {
	tr := New()
	for _, fen := range []string{
		"8/1P5k/8/8/8/8/4K3/8 w - - 0 1",
		"8/8/8/8/8/8/1P2K2k/8 w - - 0 1",
	} {
		p, info := mustParse(t, fen)
		tr.Add(KeysFromInfo(info, p.Side), p, 1)
	}

	var buf bytes.Buffer
	require.NoError(t, OutputProfile(tr, &buf))

	restored, err := Initialize(&buf)
	require.NoError(t, err)

	p, info := mustParse(t, "8/1P5k/8/8/8/8/4K3/8 w - - 0 1")
	restored.Add(KeysFromInfo(info, p.Side), p, 1)
	restored.UpdateSize()
	assert.EqualValues(t, 1, restored.Size())
}

func TestClasstree_TopLevelSeedsShardPartition(t *testing.T) {
	tr := New()
	p, info := mustParse(t, "8/1P5k/8/8/8/8/4K3/8 w - - 0 1")
	tr.Add(KeysFromInfo(info, p.Side), p, 1)

	top := tr.TopLevel()
	require.Len(t, top, 1)
	assert.EqualValues(t, 1, top[0].Key)
}

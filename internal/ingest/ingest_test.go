package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lluisalemanypuig/chesspebase/internal/classtree"
)

func TestParseRow_ExtractsFENAndMoveToken(t *testing.T) {
	line := "00001,rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1,e2e4 ,1500"
	entry, shard, ok := parseRow(line)
	require.True(t, ok)
	assert.Equal(t, 8, shard) // e2e4 does not change white pawn count
	assert.Equal(t, byte('e'), entry.Pos.EnPassant[0])
}

func TestParseRow_RejectsMalformedMoveToken(t *testing.T) {
	line := "00001,rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1,zz99 ,1500"
	_, _, ok := parseRow(line)
	assert.False(t, ok)
}

func TestLoad_CountingInvarianceAndCoalescing(t *testing.T) {
	store, result, err := Load(context.Background(), []string{"../../testdata/lichess_small.csv"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RowsRead)
	assert.Equal(t, 0, result.RowsFailed)

	// Rows 1 and 5 both start from the starting position and play e2e4,
	// landing on the identical resulting position: they coalesce into
	// one leaf entry with num_occurrences == 2.
	assert.EqualValues(t, 4, store.Size())

	it := classtree.RangeIteratorBegin(store, [classtree.Arity]classtree.LevelPredicate{})
	var total uint64
	foundDoubled := false
	for it.Next() {
		_, count := it.Current()
		total += count
		if count == 2 {
			foundDoubled = true
		}
	}
	assert.EqualValues(t, 5, total, "five rows read, even though one pair coalesced")
	assert.True(t, foundDoubled)
}

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lluisalemanypuig/chesspebase/internal/ingest"
	"github.com/lluisalemanypuig/chesspebase/internal/query"
)

func buildManager(t *testing.T) *Manager {
	t.Helper()
	store, _, err := ingest.Load(context.Background(), []string{"../../testdata/lichess_small.csv"}, nil)
	require.NoError(t, err)
	mgr, err := New(store)
	require.NoError(t, err)
	return mgr
}

func TestSession_RunCreatesAndCountsThenRewinds(t *testing.T) {
	mgr := buildManager(t)
	id, s := mgr.Run("", &query.Query{})
	require.NotEmpty(t, id)
	assert.EqualValues(t, 4, s.Total)
	assert.Equal(t, 0, s.Cursor)
	assert.True(t, s.Iter.PastBegin())
}

func TestSession_ReusesSessionAndReplacesPredicates(t *testing.T) {
	mgr := buildManager(t)
	id, _ := mgr.Run("", &query.Query{})

	white := mgr
	_ = white
	id2, s2 := mgr.Run(id, &query.Query{Pawn: query.PieceRanges{White: &query.Range{Lo: 1, Hi: 1}}})
	assert.Equal(t, id, id2, "Run on a known id must reuse it, not mint a new one")
	assert.LessOrEqual(t, int(s2.Total), 4)
}

func TestSession_UnknownIDReturnsErrSessionNotFound(t *testing.T) {
	mgr := buildManager(t)
	_, err := mgr.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, _, _, err = mgr.Next("does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = mgr.Snapshot("does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_NextPreviousStateMachine(t *testing.T) {
	mgr := buildManager(t)
	id, s := mgr.Run("", &query.Query{})
	require.EqualValues(t, 4, s.Total)

	fen1, ok, cursor, total, err := mgr.Next(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, fen1)
	assert.Equal(t, 1, cursor)
	assert.EqualValues(t, 4, total)

	for i := 0; i < 3; i++ {
		_, ok, _, _, err = mgr.Next(id)
		require.NoError(t, err)
		require.True(t, ok)
	}

	sentinel, ok, cursor, _, err := mgr.Next(id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "end", sentinel)
	assert.Equal(t, 4, cursor)

	back, ok, cursor, _, err := mgr.Previous(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, back)
	assert.Equal(t, 3, cursor)

	snapCursor, snapTotal, err := mgr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, 3, snapCursor)
	assert.EqualValues(t, 4, snapTotal)
}

package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lluisalemanypuig/chesspebase/internal/position"
)

func TestParseQueryBody_PieceFieldsAndTotal(t *testing.T) {
	body := "p[w:1,1;b:0,8;]r[t:0,2;]T[T:2,6]M[w]"
	q := ParseQueryBody(body)

	require.NotNil(t, q.Pawn.White)
	assert.Equal(t, 1, q.Pawn.White.Lo)
	assert.Equal(t, 1, q.Pawn.White.Hi)

	require.NotNil(t, q.Pawn.Black)
	assert.Equal(t, 0, q.Pawn.Black.Lo)
	assert.Equal(t, 8, q.Pawn.Black.Hi)

	require.NotNil(t, q.Rook.Combined)
	assert.Equal(t, 0, q.Rook.Combined.Lo)
	assert.Equal(t, 2, q.Rook.Combined.Hi)

	require.NotNil(t, q.Total)
	assert.Equal(t, 2, q.Total.Lo)
	assert.Equal(t, 6, q.Total.Hi)

	require.NotNil(t, q.Side)
	assert.Equal(t, position.White, *q.Side)
}

func TestParseQueryBody_EmptyBodyYieldsUnconstrainedQuery(t *testing.T) {
	q := ParseQueryBody("")
	assert.Nil(t, q.Pawn.White)
	assert.Nil(t, q.Total)
	assert.Nil(t, q.Side)
}

func TestParseQueryBody_MalformedGroupIsSkipped(t *testing.T) {
	// Missing closing bracket for "p[" — parsing stops there, but a
	// well-formed group before it still takes effect.
	q := ParseQueryBody("q[w:1,1;]p[w:2,2")
	require.NotNil(t, q.Queen.White)
	assert.Equal(t, 1, q.Queen.White.Lo)
	assert.Nil(t, q.Pawn.White)
}

func TestParseQueryBody_InvalidTurnIndicatorIsIgnored(t *testing.T) {
	q := ParseQueryBody("M[x]")
	assert.Nil(t, q.Side)
}

package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StartingPosition(t *testing.T) {
	p, info, err := Parse("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	assert.Equal(t, int8(8), info.WhitePawns)
	assert.Equal(t, int8(8), info.BlackPawns)
	assert.Equal(t, White, p.Side)
	assert.True(t, p.WhiteKingCastle && p.WhiteQueenCastle && p.BlackKingCastle && p.BlackQueenCastle)
	assert.Equal(t, byte('-'), p.EnPassant[0])
}

func TestParse_RejectsBadTokens(t *testing.T) {
	cases := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBXR w KQkq - 0 1", // bad piece char
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", // bad side
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQKQ - 0 1", // duplicate castling flag
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9 0 1", // bad en-passant file
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq",        // truncated
	}
	for _, fen := range cases {
		_, _, err := Parse(fen)
		assert.ErrorIs(t, err, ErrMalformedFEN, fen)
	}
}

func TestRoundTrip(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 1",
		"8/1P5k/8/8/8/8/4K3/8 w - - 0 1",
		"r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1",
	}
	for _, fen := range fens {
		p, _, err := Parse(fen)
		require.NoError(t, err)
		rendered := Render(p)
		p2, _, err := Parse(rendered)
		require.NoError(t, err)
		assert.True(t, p.Equal(p2), "round trip mismatch for %s", fen)
	}
}

func TestApplyMove_PawnDoubleAdvance(t *testing.T) {
	p, info, err := Parse("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	ApplyMove("e2", "e4", ' ', p, info)
	assert.Equal(t, int8(8), info.WhitePawns)
	assert.Equal(t, Black, p.Side)
	assert.Equal(t, byte('e'), p.EnPassant[0])
	assert.Equal(t, byte('3'), p.EnPassant[1])
}

func TestApplyMove_EnPassant(t *testing.T) {
	p, info, err := Parse("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 1")
	require.NoError(t, err)
	ApplyMove("e5", "d6", ' ', p, info)
	assert.Equal(t, int8(7), info.BlackPawns)
	assert.Equal(t, Empty, p.Square("d5"))
	assert.Equal(t, WhitePawn, p.Square("d6"))
}

func TestApplyMove_Promotion(t *testing.T) {
	p, info, err := Parse("8/1P5k/8/8/8/8/4K3/8 w - - 0 1")
	require.NoError(t, err)
	ApplyMove("b7", "b8", 'q', p, info)
	assert.Equal(t, int8(0), info.WhitePawns)
	assert.Equal(t, int8(1), info.WhiteQueens)
	assert.Equal(t, WhiteQueen, p.Square("b8"))
}

func TestApplyMove_Castling(t *testing.T) {
	p, info, err := Parse("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	require.NoError(t, err)
	ApplyMove("e1", "g1", ' ', p, info)
	assert.Equal(t, WhiteKing, p.Square("g1"))
	assert.Equal(t, WhiteRook, p.Square("f1"))
	assert.False(t, p.WhiteKingCastle)
	assert.False(t, p.WhiteQueenCastle)
}

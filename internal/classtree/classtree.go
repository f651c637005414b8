// Package classtree implements the indexed store of the puzzle
// database: a fixed-arity, ordered, coalescing trie keyed by the
// eleven-value attribute tuple
//
//	(n_white_pawns, n_black_pawns, n_white_rooks, n_black_rooks,
//	 n_white_knights, n_black_knights, n_white_bishops, n_black_bishops,
//	 n_white_queens, n_black_queens, side_to_move)
//
// Every branch level is a fixed 32-wide array indexed by attribute
// value rather than a dynamic ordered map, per the arity/alphabet
// being type-driven and small; this keeps the hot path (descend,
// check occupancy bit, recurse) allocation-free and cache-friendly.
package classtree

import "github.com/lluisalemanypuig/chesspebase/internal/position"

// Arity is the number of levels a leaf sits below the root: one per
// attribute in the tuple above.
const Arity = 11

// AlphabetSize bounds every attribute value: piece counts are clamped
// to 0..31 before insertion, and side-to-move only ever uses 0/1.
const AlphabetSize = 32

// Keys is the attribute tuple identifying one leaf in the tree.
type Keys [Arity]byte

// KeysFromInfo builds a Keys tuple from a parsed position, clamping
// each piece count to the classtree's alphabet.
func KeysFromInfo(info *position.Info, side position.Side) Keys {
	return Keys{
		clamp(info.WhitePawns),
		clamp(info.BlackPawns),
		clamp(info.WhiteRooks),
		clamp(info.BlackRooks),
		clamp(info.WhiteKnights),
		clamp(info.BlackKnights),
		clamp(info.WhiteBishops),
		clamp(info.BlackBishops),
		clamp(info.WhiteQueens),
		clamp(info.BlackQueens),
		byte(side),
	}
}

func clamp(v int8) byte {
	if v < 0 {
		return 0
	}
	if v >= AlphabetSize {
		return AlphabetSize - 1
	}
	return byte(v)
}

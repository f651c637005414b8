// Package query implements the predicate compiler of §4.6: it turns
// a declarative Query into the eleven classtree.LevelPredicate
// closures that drive a pruning range iterator.
package query

import "github.com/lluisalemanypuig/chesspebase/internal/position"

// Range is an inclusive [Lo, Hi] bound. A nil *Range means "no
// constraint" per §3.5.
type Range struct {
	Lo, Hi int
}

// Contains reports whether v falls within the range.
func (r *Range) Contains(v int) bool {
	if r == nil {
		return true
	}
	return v >= r.Lo && v <= r.Hi
}

// LessOrEqualHi reports whether v could still satisfy the range's
// upper bound — used at the white-count level, where the black
// contribution to a combined/total range is not yet known.
func (r *Range) LessOrEqualHi(v int) bool {
	if r == nil {
		return true
	}
	return v <= r.Hi
}

// PieceRanges bundles the three optional ranges §3.5 allows per
// piece: white count, black count, and white+black combined.
type PieceRanges struct {
	White, Black, Combined *Range
}

// Query is a record of optional range constraints keyed by piece and
// scope, plus a global total-pieces range and an optional
// side-to-move fixed value (§3.5). Absent fields mean "no
// constraint".
type Query struct {
	Pawn, Rook, Knight, Bishop, Queen PieceRanges
	Total                             *Range
	Side                              *position.Side
}

// pieces lists the five piece types in the attribute-tuple's level
// order: each contributes a white level followed by a black level.
func (q *Query) pieces() [5]PieceRanges {
	return [5]PieceRanges{q.Pawn, q.Rook, q.Knight, q.Bishop, q.Queen}
}

package query

import (
	"github.com/lluisalemanypuig/chesspebase/internal/classtree"
	"github.com/lluisalemanypuig/chesspebase/internal/position"
)

// Compile builds the eleven level predicates driving a pruning range
// iterator over the classtree's attribute tuple
//
//	(wP, bP, wR, bR, wN, bN, wB, bB, wQ, bQ, side)
//
// For each piece, handled at its two consecutive levels (white count,
// then black count), the predicates enforce in order: the piece's own
// white/black range, the combined (white+black) range — upper bound
// only at the white level, both bounds once black is known — and the
// global total-pieces range the same way, fully checked only once all
// five pieces have been seen (at the last piece's black level).
func Compile(q *Query) [classtree.Arity]classtree.LevelPredicate {
	var preds [classtree.Arity]classtree.LevelPredicate
	pieces := q.pieces()

	for i, pr := range pieces {
		whiteLevel := 2 * i
		blackLevel := 2*i + 1
		lastPiece := i == len(pieces)-1

		preds[whiteLevel] = func(ancestors []byte, v byte) bool {
			if !pr.White.Contains(int(v)) {
				return false
			}
			if !pr.Combined.LessOrEqualHi(int(v)) {
				return false
			}
			if !q.Total.LessOrEqualHi(sumBytes(ancestors) + int(v)) {
				return false
			}
			return true
		}

		preds[blackLevel] = func(ancestors []byte, v byte) bool {
			if !pr.Black.Contains(int(v)) {
				return false
			}
			whiteCount := int(ancestors[whiteLevel])
			if !pr.Combined.Contains(whiteCount + int(v)) {
				return false
			}
			total := sumBytes(ancestors) + int(v)
			if lastPiece {
				if !q.Total.Contains(total) {
					return false
				}
			} else if !q.Total.LessOrEqualHi(total) {
				return false
			}
			return true
		}
	}

	preds[classtree.Arity-1] = func(_ []byte, v byte) bool {
		if q.Side == nil {
			return true
		}
		return position.Side(v) == *q.Side
	}

	return preds
}

func sumBytes(bs []byte) int {
	n := 0
	for _, b := range bs {
		n += int(b)
	}
	return n
}

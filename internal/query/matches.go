package query

import "github.com/lluisalemanypuig/chesspebase/internal/classtree"

// Matches evaluates q directly against a full attribute tuple — a
// straightforward, non-pruning reference check used to cross-validate
// the compiled pruning predicates (§8's "Query equivalence").
func Matches(q *Query, keys classtree.Keys) bool {
	pieces := q.pieces()
	total := 0
	for i, pr := range pieces {
		w := int(keys[2*i])
		b := int(keys[2*i+1])
		if !pr.White.Contains(w) || !pr.Black.Contains(b) || !pr.Combined.Contains(w+b) {
			return false
		}
		total += w + b
	}
	if !q.Total.Contains(total) {
		return false
	}
	if q.Side != nil && keys[classtree.Arity-1] != byte(*q.Side) {
		return false
	}
	return true
}

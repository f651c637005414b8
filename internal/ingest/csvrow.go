package ingest

import (
	"strings"

	"github.com/lluisalemanypuig/chesspebase/internal/classtree"
)

// parseRow implements the row layout of §6: bytes 0..6 are an opaque
// identifier, the FEN runs from byte 6 to the next comma, and the
// five characters immediately after that comma are the move token
// (<from-file><from-rank><to-file><to-rank><promotion>).
func parseRow(line string) (Entry, int, bool) {
	if len(line) < 6 {
		return Entry{}, 0, false
	}
	rest := line[6:]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return Entry{}, 0, false
	}
	fen := rest[:comma]
	afterFEN := rest[comma+1:]
	if len(afterFEN) < 5 {
		return Entry{}, 0, false
	}
	moveToken := afterFEN[:5]

	p, info, err := parseAndApply(fen, moveToken)
	if err != nil {
		return Entry{}, 0, false
	}

	shard := int(info.WhitePawns)
	if shard < 0 {
		shard = 0
	}
	if shard > Shards-1 {
		shard = Shards - 1
	}
	keys := classtree.KeysFromInfo(info, p.Side)
	return Entry{Pos: p, Keys: keys}, shard, true
}

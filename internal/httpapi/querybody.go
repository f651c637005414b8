package httpapi

import (
	"strconv"
	"strings"

	"github.com/lluisalemanypuig/chesspebase/internal/position"
	"github.com/lluisalemanypuig/chesspebase/internal/query"
)

// ParseQueryBody decodes the bracketed query-description body of §6:
// a sequence of `<field>[<content>]` groups with no separator between
// groups. `p`, `r`, `k`, `b`, `q` hold piece sub-fields separated by
// `;`, each `<color>:<lb>,<ub>` with color one of `w`/`b`/`t`; `T`
// holds a single `T:<lb>,<ub>` sub-field for the total-pieces range;
// `M` holds a bare `w` or `b` turn indicator. Malformed groups are
// skipped; ParseQueryBody never returns an error, mirroring the
// original parser's "log and continue" behavior.
func ParseQueryBody(body string) *query.Query {
	q := &query.Query{}
	pieceRanges := map[byte]*query.PieceRanges{
		'p': &q.Pawn,
		'r': &q.Rook,
		'k': &q.Knight,
		'b': &q.Bishop,
		'q': &q.Queen,
	}

	pos := 0
	for pos < len(body) {
		open := strings.IndexByte(body[pos:], '[')
		shut := strings.IndexByte(body[pos:], ']')
		if open < 0 || shut < 0 {
			break
		}
		open += pos
		shut += pos
		if shut < open {
			break
		}

		name := body[pos:open]
		content := body[open+1 : shut]
		pos = shut + 1

		switch name {
		case "p", "r", "k", "b", "q":
			parsePieceField(content, pieceRanges[name[0]])
		case "T":
			color, lo, hi, ok := parseSubfield(content)
			if ok && color == 'T' {
				q.Total = &query.Range{Lo: lo, Hi: hi}
			}
		case "M":
			switch content {
			case "w":
				white := position.White
				q.Side = &white
			case "b":
				black := position.Black
				q.Side = &black
			}
		}
	}
	return q
}

func parsePieceField(content string, pr *query.PieceRanges) {
	pos := 0
	for pos < len(content) {
		end := strings.IndexByte(content[pos:], ';')
		if end < 0 {
			break
		}
		end += pos
		color, lo, hi, ok := parseSubfield(content[pos:end])
		pos = end + 1
		if !ok {
			continue
		}
		r := &query.Range{Lo: lo, Hi: hi}
		switch color {
		case 'w':
			pr.White = r
		case 'b':
			pr.Black = r
		case 't':
			pr.Combined = r
		}
	}
}

// parseSubfield decodes one "<letter>:<lb>,<ub>" token.
func parseSubfield(sub string) (color byte, lo, hi int, ok bool) {
	colon := strings.IndexByte(sub, ':')
	if colon < 0 {
		return 0, 0, 0, false
	}
	comma := strings.IndexByte(sub[colon:], ',')
	if comma < 0 {
		return 0, 0, 0, false
	}
	comma += colon

	loStr := sub[colon+1 : comma]
	hiStr := sub[comma+1:]
	loVal, err1 := strconv.Atoi(loStr)
	hiVal, err2 := strconv.Atoi(hiStr)
	if err1 != nil || err2 != nil {
		return 0, 0, 0, false
	}
	return sub[0], loVal, hiVal, true
}

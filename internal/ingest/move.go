package ingest

import "github.com/lluisalemanypuig/chesspebase/internal/position"

// parseAndApply parses fen, validates moveToken, and applies the
// encoded half-move. §9's open question on move-token validation is
// resolved here, tightened relative to the original: both the from-
// and to-squares must be well-formed algebraic squares before
// position.ApplyMove is called at all, since ApplyMove itself assumes
// a legal move and performs no validation.
func parseAndApply(fen, moveToken string) (*position.Position, *position.Info, error) {
	p, info, err := position.Parse(fen)
	if err != nil {
		return nil, nil, err
	}

	from, to, promotion, ok := parseMoveToken(moveToken)
	if !ok {
		return nil, nil, ErrInvalidPosition
	}

	position.ApplyMove(from, to, promotion, p, info)
	return p, info, nil
}

func parseMoveToken(tok string) (from, to string, promotion byte, ok bool) {
	if len(tok) != 5 {
		return "", "", 0, false
	}
	if !isSquare(tok[0:2]) || !isSquare(tok[2:4]) {
		return "", "", 0, false
	}
	return tok[0:2], tok[2:4], tok[4], true
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

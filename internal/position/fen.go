package position

import (
	"strings"
)

func isFileLetter(c byte) bool { return c >= 'a' && c <= 'h' }
func isRankDigit(c byte) bool  { return c >= '0' && c <= '9' }

func isPieceByte(c byte) bool {
	switch c {
	case WhitePawn, WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen, WhiteKing,
		BlackPawn, BlackRook, BlackKnight, BlackBishop, BlackQueen, BlackKing:
		return true
	default:
		return false
	}
}

// Parse parses a FEN string's piece-placement, side-to-move, castling
// and en-passant fields (half-move/full-move fields are ignored), and
// computes the accompanying Info piece-count vector. It returns
// ErrMalformedFEN on any of the failure modes of spec §4.1.
func Parse(s string) (*Position, *Info, error) {
	n := len(s)
	p := &Position{}
	for i := range p.Board {
		p.Board[i] = Empty
	}
	info := &Info{}

	i := 0
	rank := 8
	file := 1

	for i < n && s[i] != ' ' {
		c := s[i]
		switch {
		case c == '/':
			rank--
			file = 1
			i++
			continue
		case isPieceByte(c):
			if file < 1 || file > 8 || rank < 1 {
				return nil, nil, ErrMalformedFEN
			}
			p.SetAt(file, rank, c)
			switch c {
			case WhitePawn:
				info.WhitePawns++
			case WhiteRook:
				info.WhiteRooks++
			case WhiteKnight:
				info.WhiteKnights++
			case WhiteBishop:
				info.WhiteBishops++
			case WhiteQueen:
				info.WhiteQueens++
			case BlackPawn:
				info.BlackPawns++
			case BlackRook:
				info.BlackRooks++
			case BlackKnight:
				info.BlackKnights++
			case BlackBishop:
				info.BlackBishops++
			case BlackQueen:
				info.BlackQueens++
			}
			file++
		case isRankDigit(c):
			file += int(c - '0')
		default:
			return nil, nil, ErrMalformedFEN
		}
		i++
	}

	if i == n {
		return nil, nil, ErrMalformedFEN
	}
	if s[i] != ' ' {
		return nil, nil, ErrMalformedFEN
	}

	// -- side to move --
	i++
	if i >= n || (s[i] != 'w' && s[i] != 'b') {
		return nil, nil, ErrMalformedFEN
	}
	if s[i] == 'w' {
		p.Side = White
	} else {
		p.Side = Black
	}

	// -- space --
	i++
	if i >= n || s[i] != ' ' {
		return nil, nil, ErrMalformedFEN
	}

	// -- castling rights --
	i++
	for i < n && s[i] != ' ' {
		switch s[i] {
		case 'Q':
			if p.WhiteQueenCastle {
				return nil, nil, ErrMalformedFEN
			}
			p.WhiteQueenCastle = true
		case 'K':
			if p.WhiteKingCastle {
				return nil, nil, ErrMalformedFEN
			}
			p.WhiteKingCastle = true
		case 'q':
			if p.BlackQueenCastle {
				return nil, nil, ErrMalformedFEN
			}
			p.BlackQueenCastle = true
		case 'k':
			if p.BlackKingCastle {
				return nil, nil, ErrMalformedFEN
			}
			p.BlackKingCastle = true
		case '-':
			// nothing
		default:
			return nil, nil, ErrMalformedFEN
		}
		i++
	}

	if i == n {
		return nil, nil, ErrMalformedFEN
	}
	if s[i] != ' ' {
		return nil, nil, ErrMalformedFEN
	}

	// -- en passant --
	i++
	p.EnPassant = [2]byte{'-', '-'}
	if i >= n {
		return nil, nil, ErrMalformedFEN
	}
	if s[i] == '-' {
		i++
	} else {
		if !isFileLetter(s[i]) {
			return nil, nil, ErrMalformedFEN
		}
		p.EnPassant[0] = s[i]
		i++
		if i >= n || !isRankDigit(s[i]) {
			return nil, nil, ErrMalformedFEN
		}
		p.EnPassant[1] = s[i]
		i++
	}

	// half-move and full-move fields are ignored.
	return p, info, nil
}

// Render emits a FEN string: piece placement (ranks 8->1,
// run-length-encoded empties), side, castling in fixed order KQkq
// (omitting absent flags), en passant or "-", and the literal " 0 0"
// half/full-move suffix. Render(Parse(s)) round-trips on the subset
// Parse accepts.
func Render(p *Position) string {
	var b strings.Builder
	b.Grow(80)

	for rank := 8; rank >= 1; rank-- {
		empties := 0
		for file := 1; file <= 8; file++ {
			c := p.At(file, rank)
			if c == Empty {
				empties++
				continue
			}
			if empties > 0 {
				b.WriteByte(byte('0' + empties))
				empties = 0
			}
			b.WriteByte(c)
		}
		if empties > 0 {
			b.WriteByte(byte('0' + empties))
		}
		if rank > 1 {
			b.WriteByte('/')
		}
	}

	b.WriteByte(' ')
	if p.Side == White {
		b.WriteByte('w')
	} else {
		b.WriteByte('b')
	}

	b.WriteByte(' ')
	any := false
	if p.WhiteKingCastle {
		b.WriteByte('K')
		any = true
	}
	if p.WhiteQueenCastle {
		b.WriteByte('Q')
		any = true
	}
	if p.BlackKingCastle {
		b.WriteByte('k')
		any = true
	}
	if p.BlackQueenCastle {
		b.WriteByte('q')
		any = true
	}
	if !any {
		b.WriteByte('-')
	}

	b.WriteByte(' ')
	if p.EnPassant[0] != '-' {
		b.WriteByte(p.EnPassant[0])
		b.WriteByte(p.EnPassant[1])
	} else {
		b.WriteByte('-')
	}

	b.WriteString(" 0 0")

	return b.String()
}

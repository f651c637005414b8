package position

// coordinates converts an algebraic square ("e4") into (file, rank),
// both 1..=8.
func coordinates(sq string) (int, int) {
	return int(sq[0]-'a') + 1, int(sq[1]-'1') + 1
}

func fileDistance(f1, f2 int) int {
	if f1 > f2 {
		return f1 - f2
	}
	return f2 - f1
}

// ApplyMove realizes exactly the effects of spec §4.2 and nothing else:
// it assumes a well-formed position and a move that is legal in the
// chess sense, and performs no validation of its own. from/to are
// algebraic squares such as "e2"/"e4"; promotion is one of 'q','r','b',
// 'n', or a blank/non-letter byte when the move is not a promotion.
func ApplyMove(from, to string, promotion byte, p *Position, info *Info) {
	f1, r1 := coordinates(from)
	f2, r2 := coordinates(to)

	p.Side = 1 - p.Side

	piece1 := p.At(f1, r1)
	piece2 := p.At(f2, r2)

	dr := r2 - r1
	if dr < 0 {
		dr = -dr
	}

	simple := true

	if isPawn(piece1) {
		enPassant := f1 != f2 && (r1 == 4 || r1 == 5) && piece2 == Empty
		isPromotion := promotion == 'q' || promotion == 'r' || promotion == 'b' || promotion == 'n'

		switch {
		case enPassant:
			moverWhite := isWhite(piece1)
			if moverWhite {
				info.BlackPawns--
			} else {
				info.WhitePawns--
			}
			if f2 < f1 {
				p.SetAt(f1-1, r1, Empty)
			} else {
				p.SetAt(f1+1, r1, Empty)
			}
			p.SetAt(f2, r2, piece1)
			p.SetAt(f1, r1, Empty)
			simple = false

		case isPromotion:
			p.SetAt(f1, r1, Empty)
			moverWhite := isWhite(piece1)
			if moverWhite {
				info.WhitePawns--
			} else {
				info.BlackPawns--
			}
			switch promotion {
			case 'q':
				if moverWhite {
					info.WhiteQueens++
					p.SetAt(f2, r2, WhiteQueen)
				} else {
					info.BlackQueens++
					p.SetAt(f2, r2, BlackQueen)
				}
			case 'r':
				if moverWhite {
					info.WhiteRooks++
					p.SetAt(f2, r2, WhiteRook)
				} else {
					info.BlackRooks++
					p.SetAt(f2, r2, BlackRook)
				}
			case 'b':
				if moverWhite {
					info.WhiteBishops++
					p.SetAt(f2, r2, WhiteBishop)
				} else {
					info.BlackBishops++
					p.SetAt(f2, r2, BlackBishop)
				}
			case 'n':
				if moverWhite {
					info.WhiteKnights++
					p.SetAt(f2, r2, WhiteKnight)
				} else {
					info.BlackKnights++
					p.SetAt(f2, r2, BlackKnight)
				}
			}
			simple = false
		}
	} else if isKing(piece1) {
		castling := r1 == r2 && fileDistance(f1, f2) > 1
		if castling {
			if f2 < f1 {
				// queen-side castle
				p.SetAt(f2, r2, piece1)
				p.SetAt(f2+1, r2, p.At(1, r2))
				p.SetAt(1, r2, Empty)
			} else {
				// king-side castle
				p.SetAt(f2, r2, piece1)
				p.SetAt(f2-1, r2, p.At(8, r2))
				p.SetAt(8, r2, Empty)
			}
			p.SetAt(f1, r1, Empty)

			if isWhite(piece1) {
				p.WhiteKingCastle = false
				p.WhiteQueenCastle = false
			} else {
				p.BlackKingCastle = false
				p.BlackQueenCastle = false
			}
			simple = false
		}
	}

	if simple {
		if piece2 != Empty {
			switch piece2 {
			case WhitePawn:
				info.WhitePawns--
			case WhiteRook:
				info.WhiteRooks--
			case WhiteKnight:
				info.WhiteKnights--
			case WhiteBishop:
				info.WhiteBishops--
			case WhiteQueen:
				info.WhiteQueens--
			case BlackPawn:
				info.BlackPawns--
			case BlackRook:
				info.BlackRooks--
			case BlackKnight:
				info.BlackKnights--
			case BlackBishop:
				info.BlackBishops--
			case BlackQueen:
				info.BlackQueens--
			}
		}

		p.SetAt(f2, r2, piece1)
		p.SetAt(f1, r1, Empty)

		if isKing(piece1) || isRook(piece1) {
			if isWhite(piece1) {
				p.WhiteKingCastle = false
				p.WhiteQueenCastle = false
			} else {
				p.BlackKingCastle = false
				p.BlackQueenCastle = false
			}
		} else if isPawn(piece1) && dr == 2 {
			p.EnPassant[0] = byte('a' + f2 - 1)
			newRank := r2 - 1
			if r2 < r1 {
				newRank = r2 + 1
			}
			p.EnPassant[1] = byte('1' + newRank - 1)
		}
	}
}

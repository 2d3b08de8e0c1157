package game

import "github.com/notnil/chess"

// Move is a single chess move as a small value type, usable as a map key.
type Move struct {
	From  chess.Square
	To    chess.Square
	Promo chess.PieceType
}

// UCI renders the move in UCI notation, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	return m.From.String() + m.To.String() + promoSuffix(m.Promo)
}

func (m Move) String() string {
	return m.UCI()
}

func promoSuffix(p chess.PieceType) string {
	switch p {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	default:
		return ""
	}
}

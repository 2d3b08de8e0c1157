package game

import (
	"fmt"

	"github.com/notnil/chess"
)

// Position implements State on top of a notnil/chess position.
type Position struct {
	pos *chess.Position
}

// NewPosition parses a FEN string into a Position.
func NewPosition(fen string) (*Position, error) {
	fn, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid fen %q: %w", fen, err)
	}
	return &Position{pos: chess.NewGame(fn).Position()}, nil
}

// StartingPosition returns the standard chess starting position.
func StartingPosition() *Position {
	return &Position{pos: chess.NewGame().Position()}
}

func (p *Position) FEN() string {
	return p.pos.String()
}

func (p *Position) LegalMoves() []Move {
	valid := p.pos.ValidMoves()
	moves := make([]Move, len(valid))
	for i, m := range valid {
		moves[i] = Move{From: m.S1(), To: m.S2(), Promo: m.Promo()}
	}
	return moves
}

// Play applies a legal move and returns the successor position. Playing a
// move that is not legal in this position panics: moves always originate
// from LegalMoves on the same state, so an unknown move is a caller bug.
func (p *Position) Play(m Move) State {
	for _, vm := range p.pos.ValidMoves() {
		if vm.S1() == m.From && vm.S2() == m.To && vm.Promo() == m.Promo {
			return &Position{pos: p.pos.Update(vm)}
		}
	}
	panic(fmt.Sprintf("illegal move %s in position %s", m.UCI(), p.FEN()))
}

// GameOver reports whether the side to move has no legal moves (checkmate
// or stalemate). Draws that need move history (threefold repetition, the
// fifty-move rule) are not visible from a single position and are handled
// by whatever owns the game record, not here.
func (p *Position) GameOver() bool {
	return p.pos.Status() != chess.NoMethod
}

func (p *Position) Result() float64 {
	switch p.pos.Status() {
	case chess.Checkmate:
		// The side to move is the side that got mated.
		return -1
	case chess.Stalemate:
		return 0
	default:
		return 0
	}
}

// Turn returns the color to move.
func (p *Position) Turn() chess.Color {
	return p.pos.Turn()
}

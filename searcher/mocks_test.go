package searcher

import (
	"fmt"

	"github.com/notnil/chess"

	"hybrid/game"
)

// mockState is a scripted game.State: moves and successors are wired up
// by hand so tests control the shape of the game tree exactly.
type mockState struct {
	fen    string
	moves  []game.Move
	next   map[game.Move]*mockState
	over   bool
	result float64
}

func (s *mockState) FEN() string { return s.fen }

func (s *mockState) LegalMoves() []game.Move {
	return append([]game.Move{}, s.moves...)
}

func (s *mockState) Play(m game.Move) game.State {
	child, ok := s.next[m]
	if !ok {
		panic(fmt.Sprintf("mockState %s: unscripted move %s", s.fen, m))
	}
	return child
}

func (s *mockState) GameOver() bool  { return s.over }
func (s *mockState) Result() float64 { return s.result }

// mv builds distinct move values for scripting.
func mv(i int) game.Move {
	return game.Move{From: chess.Square(i), To: chess.Square(i + 8)}
}

// link wires a move from parent to child.
func link(parent *mockState, m game.Move, child *mockState) {
	if parent.next == nil {
		parent.next = map[game.Move]*mockState{}
	}
	parent.moves = append(parent.moves, m)
	parent.next[m] = child
}

// filterFunc adapts a function to the MoveFilter interface.
type filterFunc func(state game.State, candidates []game.Move, priors map[game.Move]float64) ([]game.Move, error)

func (f filterFunc) FilterMoves(state game.State, candidates []game.Move, priors map[game.Move]float64) ([]game.Move, error) {
	return f(state, candidates, priors)
}

// acceptAll passes every candidate through unchanged.
var acceptAll = filterFunc(func(_ game.State, candidates []game.Move, _ map[game.Move]float64) ([]game.Move, error) {
	return candidates, nil
})

// rejectAll prunes everything.
var rejectAll = filterFunc(func(game.State, []game.Move, map[game.Move]float64) ([]game.Move, error) {
	return nil, nil
})

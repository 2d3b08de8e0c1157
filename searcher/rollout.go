package searcher

import (
	"golang.org/x/exp/rand"

	"hybrid/game"
)

// RolloutEvaluator returns a leaf evaluator that plays random moves from
// the leaf until the game ends or cutoff plies have been played, and
// scores the reached state from the leaf's side-to-move perspective. A
// playout cut off before the end is scored 0, same as the placeholder.
func RolloutEvaluator(cutoff int) Evaluator {
	return func(state game.State) float64 {
		sign := 1.0
		for depth := 0; depth < cutoff; depth++ {
			if state.GameOver() {
				return sign * state.Result()
			}
			moves := state.LegalMoves()
			state = state.Play(moves[rand.Intn(len(moves))])
			sign = -sign
		}
		if state.GameOver() {
			return sign * state.Result()
		}
		return 0
	}
}

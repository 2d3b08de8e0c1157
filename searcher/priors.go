package searcher

import "hybrid/game"

// Uniform assigns every legal move the same prior. It is the default
// provider; a policy network can slot in through WithPriorProvider later.
type Uniform struct{}

func (Uniform) Priors(_ game.State, moves []game.Move) map[game.Move]float64 {
	if len(moves) == 0 {
		return map[game.Move]float64{}
	}
	p := 1.0 / float64(len(moves))
	priors := make(map[game.Move]float64, len(moves))
	for _, move := range moves {
		priors[move] = p
	}
	return priors
}

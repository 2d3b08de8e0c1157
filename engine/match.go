// Package engine runs matches between move-selecting agents on top of the
// game state abstraction.
package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"hybrid/experiments/metrics"
	"hybrid/game"
)

// MaxMoves caps a match that never reaches a terminal position. Without
// history the position layer cannot see repetition draws, so a hard cap
// stands in for them.
const MaxMoves = 400

// Agent produces one move for the side to move, together with the
// telemetry of the search that picked it. ok is false when the agent has
// no move to offer (terminal position, or its search produced nothing).
type Agent interface {
	FindMove(state game.State) (move game.Move, metric metrics.SearchMetric, ok bool, err error)
}

// Match alternates two agents from a starting state until the game ends,
// an agent has no move, or MaxMoves is reached.
type Match struct {
	state  game.State
	agents [2]Agent
}

func NewMatch(start game.State, white, black Agent) *Match {
	if white == nil || black == nil {
		panic("engine: nil agent")
	}
	return &Match{state: start, agents: [2]Agent{white, black}}
}

// Run plays the match and returns the final state together with per-move
// telemetry. The result from the final state is interpreted by the
// caller; Run itself only drives the loop.
func (m *Match) Run() (game.State, []metrics.MoveMetric, error) {
	var moves []metrics.MoveMetric

	for step := 1; step <= MaxMoves; step++ {
		if m.state.GameOver() {
			break
		}
		agentIndex := (step - 1) % 2

		move, metric, ok, err := m.agents[agentIndex].FindMove(m.state)
		if err != nil {
			return m.state, moves, fmt.Errorf("move %d: %w", step, err)
		}
		if !ok {
			log.Warn().Int("step", step).Msg("agent returned no move")
			break
		}

		log.Info().
			Int("step", step).
			Str("move", move.UCI()).
			Int("engine_calls", metric.EngineCalls).
			Msg("move played")
		m.state = m.state.Play(move)

		moves = append(moves, metrics.MoveMetric{
			Step:         step,
			Side:         sideName(agentIndex),
			SearchMetric: metric,
		})
	}

	return m.state, moves, nil
}

func sideName(agentIndex int) string {
	if agentIndex == 0 {
		return "white"
	}
	return "black"
}

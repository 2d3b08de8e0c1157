package searcher

import (
	"fmt"
	"math"
	"sort"

	"hybrid/experiments/metrics"
	"hybrid/game"
)

// DefaultExploration is the exploration constant C in the PUCT formula.
const DefaultExploration = 1.5

// MoveFilter prunes a UCB-ranked candidate list down to the moves worth
// expanding. Implementations may reorder internally but the searcher never
// trusts their order: it picks the highest-ranked candidate they accepted.
type MoveFilter interface {
	FilterMoves(state game.State, candidates []game.Move, priors map[game.Move]float64) ([]game.Move, error)
}

// Evaluator scores a non-terminal leaf state from the perspective of the
// side to move, in [-1, 1].
type Evaluator func(state game.State) float64

// ZeroEvaluator is the placeholder leaf evaluator: every non-terminal
// position is worth 0, so the only value signal comes from game endings.
func ZeroEvaluator(game.State) float64 { return 0 }

// PriorProvider assigns a probability to each legal move of a state,
// summing to 1. Priors bias both exploration and the filter's top-K cut.
type PriorProvider interface {
	Priors(state game.State, moves []game.Move) map[game.Move]float64
}

type Option func(*MCTS)

// MCTS drives selection, expansion, evaluation and backpropagation over a
// tree of Nodes. It is strictly sequential: simulations read and mutate
// shared tree state without synchronization, so one MCTS value must only
// ever be driven from a single goroutine.
type MCTS struct {
	filter      MoveFilter
	priors      PriorProvider
	exploration float64
	leaf        Evaluator
	metrics     metrics.Collector
}

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c > 0 {
			m.exploration = c
		}
	}
}

func WithLeafEvaluator(evaluate Evaluator) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.leaf = evaluate
		}
	}
}

func WithPriorProvider(priors PriorProvider) Option {
	return func(m *MCTS) {
		if priors != nil {
			m.priors = priors
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(m *MCTS) {
		if collector != nil {
			m.metrics = collector
		}
	}
}

func NewMCTS(filter MoveFilter, options ...Option) *MCTS {
	if filter == nil {
		panic("searcher: nil move filter")
	}
	m := &MCTS{
		filter:      filter,
		priors:      Uniform{},
		exploration: DefaultExploration,
		leaf:        ZeroEvaluator,
		metrics:     metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// RunSimulations performs count selection-expansion-evaluation-backup
// passes from root, mutating the tree in place. A filter error (a dead
// evaluator process, typically) aborts the run and is returned: search
// results built on a degraded evaluator must not look like normal results.
func (m *MCTS) RunSimulations(root *Node, count int) error {
	for i := 0; i < count; i++ {
		if err := m.simulate(root); err != nil {
			return fmt.Errorf("simulation %d: %w", i+1, err)
		}
		m.metrics.AddSimulation()
	}
	return nil
}

func (m *MCTS) simulate(root *Node) error {
	node := root

	// Selection walks down existing children; the first move chosen that
	// has no child yet becomes this simulation's single expansion.
	for {
		if node.state.GameOver() {
			node.terminal = true
			break
		}

		move, ok, err := m.selectMove(node)
		if err != nil {
			return err
		}
		if !ok { // Every candidate pruned: evaluate right here
			break
		}

		child, exists := node.children[move]
		if !exists {
			node = node.addChild(move, node.state.Play(move))
			m.metrics.AddExpansion()
			break
		}
		node = child
	}

	value := m.leafValue(node)
	backpropagate(node, value)
	return nil
}

// selectMove ranks the legal moves by PUCT score, asks the filter which of
// them are acceptable, and returns the highest-ranked accepted move.
func (m *MCTS) selectMove(node *Node) (game.Move, bool, error) {
	legal := node.state.LegalMoves()
	if len(legal) == 0 {
		return game.Move{}, false, nil
	}

	if node.priors == nil {
		node.priors = m.priors.Priors(node.state, legal)
	}

	ranked := m.rank(node, legal)
	kept, err := m.filter.FilterMoves(node.state, ranked, node.priors)
	if err != nil {
		return game.Move{}, false, fmt.Errorf("filter moves at %s: %w", node.state.FEN(), err)
	}
	if len(kept) == 0 {
		return game.Move{}, false, nil
	}

	accepted := make(map[game.Move]bool, len(kept))
	for _, move := range kept {
		accepted[move] = true
	}
	for _, move := range ranked {
		if accepted[move] {
			return move, true, nil
		}
	}
	// The filter returned a move outside the candidate list; trust it
	// rather than dead-end the simulation.
	return kept[0], true, nil
}

// rank orders moves by descending PUCT score
//
//	score = Q + C * P * sqrt(max(1, N)) / (1 + n)
//
// where Q is the child's mean value, P the prior, N this node's visits and
// n the child's visits. The sort is stable so ties keep the legal-move
// enumeration order.
func (m *MCTS) rank(node *Node, moves []game.Move) []game.Move {
	ranked := make([]game.Move, len(moves))
	copy(ranked, moves)

	sqrtN := math.Sqrt(math.Max(1, float64(node.visits)))
	score := func(move game.Move) float64 {
		q := node.q(move)
		p := node.priors[move]
		n := node.childVisits(move)
		return q + m.exploration*p*sqrtN/float64(1+n)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	return ranked
}

func (m *MCTS) leafValue(node *Node) float64 {
	if node.state.GameOver() {
		return node.state.Result()
	}
	return m.leaf(node.state)
}

// backpropagate adds value to every node on the path back to the root,
// negating it at each step: a good position for the player to move here is
// a bad one for the opponent one ply up.
func backpropagate(node *Node, value float64) {
	for node != nil {
		node.visits++
		node.value += value
		value = -value
		node = node.parent
	}
}

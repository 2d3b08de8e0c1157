package engine

import (
	"hybrid/experiments/metrics"
	"hybrid/game"
	"hybrid/searcher"
)

// SearchAgent plays moves by running a fixed number of hybrid search
// simulations from the given state. A fresh tree is built per decision.
type SearchAgent struct {
	mcts        *searcher.MCTS
	simulations int
	collector   metrics.Collector
}

type AgentOption func(*SearchAgent)

// WithCollector records per-decision search telemetry into collector.
// Pass the same collector the searcher and filter report to, so each
// FindMove returns the counters of exactly its own search.
func WithCollector(collector metrics.Collector) AgentOption {
	return func(a *SearchAgent) {
		if collector != nil {
			a.collector = collector
		}
	}
}

func NewSearchAgent(mcts *searcher.MCTS, simulations int, options ...AgentOption) *SearchAgent {
	if simulations <= 0 {
		panic("engine: simulations must be positive")
	}
	a := &SearchAgent{
		mcts:        mcts,
		simulations: simulations,
		collector:   metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *SearchAgent) FindMove(state game.State) (game.Move, metrics.SearchMetric, bool, error) {
	root := searcher.NewRoot(state)
	a.collector.Start()
	if err := a.mcts.RunSimulations(root, a.simulations); err != nil {
		return game.Move{}, metrics.SearchMetric{}, false, err
	}
	metric := a.collector.Complete()
	move, ok := root.BestMove()
	return move, metric, ok, nil
}

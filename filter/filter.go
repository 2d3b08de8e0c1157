// Package filter implements the hybrid pruning step: candidate moves
// ranked by the tree search are screened by an external position
// evaluator, and only the ones scoring above a threshold survive.
package filter

import (
	"fmt"
	"sort"

	"hybrid/experiments/metrics"
	"hybrid/game"
)

// PositionEvaluator scores a position, in centipawns from the perspective
// of the side to move. *uci.Client satisfies it.
type PositionEvaluator interface {
	Evaluate(fen string) (int, error)
}

// DefaultTopK bounds evaluator calls per invocation when Config leaves
// TopK unset.
const DefaultTopK = 8

// Config carries the pruning policy knobs.
type Config struct {
	// ThresholdCP is the minimum acceptable score; the comparison is
	// inclusive, so a move scoring exactly ThresholdCP survives.
	ThresholdCP int
	// TopK bounds how many candidates get an evaluator call per filter
	// invocation.
	TopK int
}

// Filter prunes candidate moves via an evaluator, memoizing scores in a
// Cache keyed by the successor position's FEN.
type Filter struct {
	engine    PositionEvaluator
	cache     *Cache
	threshold int
	topK      int
	metrics   metrics.Collector
}

type Option func(*Filter)

func WithMetrics(collector metrics.Collector) Option {
	return func(f *Filter) {
		if collector != nil {
			f.metrics = collector
		}
	}
}

func New(engine PositionEvaluator, cache *Cache, cfg Config, options ...Option) *Filter {
	if engine == nil {
		panic("filter: nil evaluator")
	}
	if cache == nil {
		cache = NewCache(nil)
	}
	// A non-positive TopK would silently truncate every candidate list to
	// nothing, bypassing the fallback guarantee.
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	f := &Filter{
		engine:    engine,
		cache:     cache,
		threshold: cfg.ThresholdCP,
		topK:      cfg.TopK,
		metrics:   metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(f)
	}
	return f
}

type scoredMove struct {
	move  game.Move
	score int
}

// FilterMoves evaluates at most topK of the candidates, ordered by
// descending prior, and returns those scoring at least the threshold. If
// everything scored below it, the single best-scoring candidate is
// returned instead, so a non-empty candidate list never filters down to
// nothing. An empty candidate list returns empty without touching the
// evaluator.
func (f *Filter) FilterMoves(state game.State, candidates []game.Move, priors map[game.Move]float64) ([]game.Move, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ordered := make([]game.Move, len(candidates))
	copy(ordered, candidates)
	if len(priors) > 0 {
		sort.SliceStable(ordered, func(i, j int) bool {
			return priors[ordered[i]] > priors[ordered[j]]
		})
	}
	if len(ordered) > f.topK {
		ordered = ordered[:f.topK]
	}

	scored := make([]scoredMove, 0, len(ordered))
	for _, move := range ordered {
		score, err := f.evalSuccessor(state, move)
		if err != nil {
			return nil, err
		}
		scored = append(scored, scoredMove{move: move, score: score})
	}

	kept := make([]game.Move, 0, len(scored))
	for _, sm := range scored {
		if sm.score >= f.threshold {
			kept = append(kept, sm.move)
		}
	}
	f.metrics.AddPruned(len(scored) - len(kept))

	if len(kept) == 0 && len(scored) > 0 {
		best := scored[0]
		for _, sm := range scored[1:] {
			if sm.score > best.score {
				best = sm
			}
		}
		f.metrics.AddFallback()
		kept = append(kept, best.move)
	}
	return kept, nil
}

// evalSuccessor scores the position after playing move, from the new
// side-to-move's perspective, going through the cache first.
func (f *Filter) evalSuccessor(state game.State, move game.Move) (int, error) {
	fen := state.Play(move).FEN()

	if score, ok := f.cache.Get(fen); ok {
		f.metrics.AddCacheHit()
		return score, nil
	}

	score, err := f.engine.Evaluate(fen)
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", fen, err)
	}
	f.metrics.AddEngineCall()
	f.cache.Put(fen, score)
	return score, nil
}

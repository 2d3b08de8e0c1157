package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one top-level search invocation.
type SearchMetric struct {
	Simulations int
	Expansions  int
	EngineCalls int
	CacheHits   int
	Pruned      int
	Fallbacks   int
	Duration    time.Duration
}

// MoveMetric ties a SearchMetric to a move of a match.
type MoveMetric struct {
	Step int
	Side string
	SearchMetric
}

// Collector gathers counters during a search. The searcher and the filter
// share one collector per search; counters are atomic so a future
// parallel searcher can keep using it unchanged.
type Collector interface {
	Start()
	AddSimulation()
	AddExpansion()
	AddEngineCall()
	AddCacheHit()
	AddPruned(count int)
	AddFallback()
	Complete() SearchMetric
}

type collector struct {
	startTime   time.Time
	simulations atomic.Int64
	expansions  atomic.Int64
	engineCalls atomic.Int64
	cacheHits   atomic.Int64
	pruned      atomic.Int64
	fallbacks   atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start() {
	c.startTime = time.Now()
	c.simulations.Store(0)
	c.expansions.Store(0)
	c.engineCalls.Store(0)
	c.cacheHits.Store(0)
	c.pruned.Store(0)
	c.fallbacks.Store(0)
}

func (c *collector) AddSimulation()      { c.simulations.Add(1) }
func (c *collector) AddExpansion()       { c.expansions.Add(1) }
func (c *collector) AddEngineCall()      { c.engineCalls.Add(1) }
func (c *collector) AddCacheHit()        { c.cacheHits.Add(1) }
func (c *collector) AddPruned(count int) { c.pruned.Add(int64(count)) }
func (c *collector) AddFallback()        { c.fallbacks.Add(1) }

func (c *collector) Complete() SearchMetric {
	return SearchMetric{
		Simulations: int(c.simulations.Load()),
		Expansions:  int(c.expansions.Load()),
		EngineCalls: int(c.engineCalls.Load()),
		CacheHits:   int(c.cacheHits.Load()),
		Pruned:      int(c.pruned.Load()),
		Fallbacks:   int(c.fallbacks.Load()),
		Duration:    time.Since(c.startTime),
	}
}

type dummyCollector struct{}

// NewDummyCollector returns a collector that records nothing.
func NewDummyCollector() Collector {
	return dummyCollector{}
}

func (dummyCollector) Start()                 {}
func (dummyCollector) AddSimulation()         {}
func (dummyCollector) AddExpansion()          {}
func (dummyCollector) AddEngineCall()         {}
func (dummyCollector) AddCacheHit()           {}
func (dummyCollector) AddPruned(int)          {}
func (dummyCollector) AddFallback()           {}
func (dummyCollector) Complete() SearchMetric { return SearchMetric{} }

package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one enumeration pass.
type SearchMetric struct {
	Duration       time.Duration
	Paths          int
	Terminals      int
	Replays        int
	CacheHits      int
	CacheMisses    int
	DuplicateSkips int
	FailedActions  int
	MaxDepth       int
	Partial        bool
}

// HitRate is the transposition hit fraction over all probes.
func (m SearchMetric) HitRate() float64 {
	probes := m.CacheHits + m.CacheMisses
	if probes == 0 {
		return 0
	}
	return float64(m.CacheHits) / float64(probes)
}

type Collector interface {
	Start()
	AddPath()
	AddTerminal()
	AddReplay()
	AddCacheHit()
	AddCacheMiss()
	AddDuplicateSkip()
	AddFailedAction()
	ObserveDepth(depth int)
	SetPartial(value bool)
	Complete() SearchMetric
}

type collector struct {
	startTime      time.Time
	paths          atomic.Int64
	terminals      atomic.Int64
	replays        atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	duplicateSkips atomic.Int64
	failedActions  atomic.Int64
	maxDepth       atomic.Int64
	partial        atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() {
	m.startTime = time.Now()
}

func (m *collector) AddPath()          { m.paths.Add(1) }
func (m *collector) AddTerminal()      { m.terminals.Add(1) }
func (m *collector) AddReplay()        { m.replays.Add(1) }
func (m *collector) AddCacheHit()      { m.cacheHits.Add(1) }
func (m *collector) AddCacheMiss()     { m.cacheMisses.Add(1) }
func (m *collector) AddDuplicateSkip() { m.duplicateSkips.Add(1) }
func (m *collector) AddFailedAction()  { m.failedActions.Add(1) }

func (m *collector) ObserveDepth(depth int) {
	for {
		current := m.maxDepth.Load()
		if int64(depth) <= current {
			return
		}
		if m.maxDepth.CompareAndSwap(current, int64(depth)) {
			return
		}
	}
}

func (m *collector) SetPartial(value bool) {
	m.partial.Store(value)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Duration:       time.Since(m.startTime),
		Paths:          int(m.paths.Load()),
		Terminals:      int(m.terminals.Load()),
		Replays:        int(m.replays.Load()),
		CacheHits:      int(m.cacheHits.Load()),
		CacheMisses:    int(m.cacheMisses.Load()),
		DuplicateSkips: int(m.duplicateSkips.Load()),
		FailedActions:  int(m.failedActions.Load()),
		MaxDepth:       int(m.maxDepth.Load()),
		Partial:        m.partial.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                 {}
func (m *dummyCollector) AddPath()               {}
func (m *dummyCollector) AddTerminal()           {}
func (m *dummyCollector) AddReplay()             {}
func (m *dummyCollector) AddCacheHit()           {}
func (m *dummyCollector) AddCacheMiss()          {}
func (m *dummyCollector) AddDuplicateSkip()      {}
func (m *dummyCollector) AddFailedAction()       {}
func (m *dummyCollector) ObserveDepth(depth int) {}
func (m *dummyCollector) SetPartial(value bool)  {}
func (m *dummyCollector) Complete() SearchMetric { return SearchMetric{} }

package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Iterations   int
	Cutoff       int
	Duration     time.Duration
	Episodes     int
	FullPlayouts int
	Fallbacks    int // Rollouts whose evaluation was unavailable
	Nodes        int
}

type MoveMetric struct {
	Step   int
	Player string
	Move   string
	SearchMetric
}

type GameMetric struct {
	StartingPlayer string
	Outcome        string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(iterations, cutoff int)
	AddEpisode()
	AddFullPlayout()
	AddFallback()
	AddNode()
	Complete() SearchMetric
}

type collector struct {
	iterations   int
	cutoff       int
	startTime    time.Time
	episodes     atomic.Int32
	fullPlayouts atomic.Int32
	fallbacks    atomic.Int32
	nodes        atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(iterations, cutoff int) {
	m.startTime = time.Now()
	m.iterations = iterations
	m.cutoff = cutoff
	m.episodes.Store(0)
	m.fullPlayouts.Store(0)
	m.fallbacks.Store(0)
	m.nodes.Store(0)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddFallback() {
	m.fallbacks.Add(1)
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Iterations:   m.iterations,
		Cutoff:       m.cutoff,
		Duration:     time.Since(m.startTime),
		Episodes:     int(m.episodes.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		Fallbacks:    int(m.fallbacks.Load()),
		Nodes:        int(m.nodes.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(iterations, cutoff int) {}
func (m *dummyCollector) AddEpisode()                  {}
func (m *dummyCollector) AddFullPlayout()              {}
func (m *dummyCollector) AddFallback()                 {}
func (m *dummyCollector) AddNode()                     {}
func (m *dummyCollector) Complete() SearchMetric       { return SearchMetric{} }

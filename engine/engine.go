package engine

import "chessmcts/experiments/metrics"

type Engine interface {
	// Run plays a game till it is over or a max number of moves is reached
	Run() (metrics.GameMetric, []metrics.MoveMetric, error)
}

package agent

import (
	"chessmcts/experiments/metrics"
	"chessmcts/game"
)

type Agent interface {
	// FindMove returns a move and performance metrics (if collected) from the simulation process
	FindMove(state game.State) (game.Move, metrics.SearchMetric, error)
}

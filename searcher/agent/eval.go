package agent

import (
	"chessmcts/experiments/metrics"
	"chessmcts/game"
	"chessmcts/searcher"
)

type evaluationAgent struct {
	mcts *searcher.MCTS
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
func NewEvaluationAgent(mcts *searcher.MCTS) Agent {
	return evaluationAgent{mcts: mcts}
}

func (a evaluationAgent) FindMove(state game.State) (game.Move, metrics.SearchMetric, error) {
	edges, metric, err := a.mcts.Simulate(state)
	if err != nil {
		return nil, metric, err
	}
	return edges[findMax(edges)].Move, metric, nil
}

// findMax returns the index of the most visited edge, the first one on ties
func findMax(edges []searcher.Edge) int {
	best := 0
	for i, edge := range edges {
		if edge.Visits > edges[best].Visits {
			best = i
		}
	}
	return best
}

package agent

import (
	"math"
	"time"

	"chessmcts/experiments/metrics"
	"chessmcts/game"
	"chessmcts/searcher"

	"golang.org/x/exp/rand"
)

// Sampler draws uniform numbers in [0, 1)
type Sampler interface {
	Float64() float64
}

type trainingAgent struct {
	mcts        *searcher.MCTS
	temperature float64
	rand        Sampler
}

// NewTrainingAgent returns a new agent for self-play during training.
// Moves are sampled from root visit counts raised to 1/temperature.
func NewTrainingAgent(mcts *searcher.MCTS, temperature float64, r Sampler) Agent {
	if temperature <= 0 {
		panic("temperature must be positive")
	}
	if r == nil {
		r = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return trainingAgent{mcts: mcts, temperature: temperature, rand: r}
}

func (a trainingAgent) FindMove(state game.State) (game.Move, metrics.SearchMetric, error) {
	edges, metric, err := a.mcts.Simulate(state)
	if err != nil {
		return nil, metric, err
	}
	policy := adjustTemperature(edges, a.temperature)
	return edges[sample(policy, a.rand)].Move, metric, nil
}

// adjustTemperature turns visit counts into move probabilities
func adjustTemperature(edges []searcher.Edge, temperature float64) []float64 {
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make([]float64, len(edges))
	for i, edge := range edges {
		prob := math.Pow(float64(edge.Visits), exponent)
		sum += prob
		adjusted[i] = prob
	}
	if sum == 0 || math.IsInf(sum, 0) {
		// Very low temperatures overflow, play greedily instead
		adjusted = make([]float64, len(edges))
		adjusted[findMax(edges)] = 1
		return adjusted
	}
	// Normalize
	for i := range adjusted {
		adjusted[i] /= sum
	}
	return adjusted
}

func sample(policy []float64, r Sampler) int {
	sampled := r.Float64()
	cumulative := 0.0
	for i, prob := range policy {
		cumulative += prob
		if sampled < cumulative {
			return i
		}
	}
	return len(policy) - 1 // Fallback in case of rounding errors
}

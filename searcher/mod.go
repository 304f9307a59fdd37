package searcher

import "errors"

// Hyperparameters for MCTS

const Exploration = 2.0 // Weight of the exploration term

// Keep ln() and the division defined before anything is visited
const (
	LogEpsilon    = 1e-6
	VisitsEpsilon = 1e-10
)

var (
	ErrInvalidInput = errors.New("invalid input state")
	ErrNoLegalMoves = errors.New("no legal moves")
)

// Rand is the source of randomness for rollouts. *rand.Rand from golang.org/x/exp/rand satisfies it.
type Rand interface {
	Intn(n int) int
}

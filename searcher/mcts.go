package searcher

import (
	"fmt"
	"math"
	"time"

	"chessmcts/experiments/metrics"
	"chessmcts/game"
	"chessmcts/meta"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(mcts *MCTS)

// Edge holds the search statistics of one root move
type Edge struct {
	Move    game.Move
	Visits  int
	Rewards float64
}

func (e Edge) Value() float64 {
	if e.Visits == 0 {
		return 0
	}
	return e.Rewards / float64(e.Visits)
}

type MCTS struct {
	iterations int
	cutoff     int
	evaluate   game.Evaluate
	rand       Rand
	metrics    metrics.Collector
}

func WithIterations(iterations int) Option {
	return func(m *MCTS) {
		m.iterations = iterations
	}
}

// WithCutoff caps the number of random moves per rollout, 0 evaluates the leaf directly
func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth >= 0 {
			m.cutoff = depth
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithRand(r Rand) Option {
	return func(m *MCTS) {
		if r != nil {
			m.rand = r
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rand = rand.New(rand.NewSource(seed))
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

// NewMCTS builds a searcher. It is not safe for concurrent use.
func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		iterations: meta.ITERATIONS,
		cutoff:     meta.CUTOFF,
		evaluate:   game.EvaluateMaterial,
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.iterations <= 0 {
		panic("Must specify a positive number of search iterations")
	}
	if m.rand == nil {
		m.rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return m
}

// FindNextMove returns the most visited root move after a fresh search
func (m *MCTS) FindNextMove(state game.State) (game.Move, error) {
	root, err := m.search(state)
	if err != nil {
		return nil, err
	}
	return bestMove(root)
}

// Simulate runs a fresh search and returns the statistics of every root move in legal-move expansion order
func (m *MCTS) Simulate(state game.State) ([]Edge, metrics.SearchMetric, error) {
	root, err := m.search(state)
	if err != nil {
		return nil, metrics.SearchMetric{}, err
	}
	metric := m.metrics.Complete()
	if len(root.children) == 0 {
		return nil, metric, ErrNoLegalMoves
	}

	edges := make([]Edge, len(root.children))
	for i, child := range root.children {
		edges[i] = Edge{Move: child.move, Visits: child.visits, Rewards: child.rewards}
	}
	return edges, metric, nil
}

func (m *MCTS) search(state game.State) (*node, error) {
	if err := validate(state); err != nil {
		return nil, err
	}

	m.metrics.Start(m.iterations, m.cutoff)
	start := time.Now()

	root := newNode(nil, nil, state)
	m.metrics.AddNode()
	if !root.expandable() {
		return nil, fmt.Errorf("%w: root position is terminal", ErrNoLegalMoves)
	}
	for i := 0; i < m.iterations; i++ {
		m.simulate(root)
		m.metrics.AddEpisode()
	}

	log.Debug().
		Int("iterations", m.iterations).
		Int("cutoff", m.cutoff).
		Int("children", len(root.children)).
		Dur("elapsed", time.Since(start)).
		Msg("search completed")
	return root, nil
}

func (m *MCTS) simulate(root *node) {
	leaf := selectLeaf(root)
	if leaf.expandable() {
		leaf = leaf.expand()
		m.metrics.AddNode()
	}
	reward := rollout(leaf.state, m.cutoff, m.evaluate, m.rand, m.metrics)
	backup(leaf, reward)
}

func validate(state game.State) error {
	if state == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidInput)
	}
	if v, ok := state.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// selectLeaf descends fully expanded nodes until it reaches an expandable or childless node
func selectLeaf(root *node) *node {
	node := root
	for !node.expandable() && len(node.children) > 0 {
		node = node.pickChild()
	}
	return node
}

// rollout returns the reward for the player who moved into the rollout's starting state
func rollout(state game.State, cutoff int, evaluate game.Evaluate, r Rand, metrics metrics.Collector) float64 {
	depth := 0
	// Rollout till game over or for cutoff number of moves
	for depth < cutoff && !state.IsTerminal() {
		moves := state.LegalMoves()
		if len(moves) == 0 {
			break
		}
		move := moves[r.Intn(len(moves))] // Random rollout policy
		state = state.Play(move)
		depth++
	}

	if state.IsTerminal() { // Game over before cutoff
		metrics.AddFullPlayout()
	}

	score, err := evaluate(state)
	if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
		err = fmt.Errorf("non-finite score %v", score)
	}
	if err != nil {
		log.Debug().Err(err).Msg("evaluation unavailable, using a neutral reward")
		metrics.AddFallback()
		return 0
	}

	// The score is from the side to move at the end of the rollout,
	// which is the opponent of the starting node's mover after an even number of plies
	if depth%2 == 0 {
		return -score
	}
	return score
}

func backup(newNode *node, reward float64) {
	node := newNode
	for node != nil {
		node = node.backup(reward)
		reward = -reward
	}
}

func bestMove(root *node) (game.Move, error) {
	best := root.mostVisited()
	if best == nil {
		return nil, ErrNoLegalMoves
	}
	return best.move, nil
}

package searcher

import (
	"errors"
	"math"
	"testing"

	"chessmcts/experiments/metrics"
	"chessmcts/game"

	"github.com/stretchr/testify/require"
)

/*
- selection: unvisited child first, max UCT otherwise, first child on ties
- expansion: last untried move becomes a child
- rollout: cutoff, terminal stop, evaluation fallback, reward perspective
- backup: sign alternation up to the root
- driver: legality, invariants, failures, determinism
*/

// panicState refuses to be played
type panicState struct{}

func (panicState) LegalMoves() []game.Move   { return []game.Move{mockMove{id: "a"}} }
func (panicState) Play(game.Move) game.State { panic("no move should be played") }
func (panicState) IsTerminal() bool          { return false }

func chain() mockState {
	return newMockState(
		map[string][]string{"root": {"s1"}, "s1": {"s2"}, "s2": {"s3"}, "s3": {"s4"}},
		map[string]float64{"s3": 0.5, "s4": 0.25},
	)
}

func TestRollout(t *testing.T) {
	t.Run("zero cutoff evaluates the input state", func(t *testing.T) {
		var evaluated game.State
		evaluate := func(s game.State) (float64, error) {
			evaluated = s
			return 0.75, nil
		}

		got := rollout(panicState{}, 0, evaluate, nil, metrics.NewDummyCollector())

		require.Equal(t, panicState{}, evaluated, "Input state should be evaluated without moves")
		require.Equal(t, -0.75, got, "Score of the side to move should be negated for the player who moved in")
	})

	t.Run("stopping at cutoff", func(t *testing.T) {
		state := chain()
		collector := metrics.NewCollector()
		collector.Start(1, 3)

		got := rollout(state, 3, state.game.evaluate, fixedRand{}, collector)

		require.Equal(t, 0.5, got, "After an odd number of moves the score already belongs to the starting mover")
		require.Equal(t, 0, collector.Complete().FullPlayouts)
	})

	t.Run("stopping at terminal state", func(t *testing.T) {
		state := chain()
		collector := metrics.NewCollector()
		collector.Start(1, 10)

		got := rollout(state, 10, state.game.evaluate, fixedRand{}, collector)

		require.Equal(t, -0.25, got, "Rollout should end at s4 after an even number of moves")
		require.Equal(t, 1, collector.Complete().FullPlayouts)
	})

	t.Run("falling back on evaluation error", func(t *testing.T) {
		collector := metrics.NewCollector()
		collector.Start(1, 0)
		evaluate := func(game.State) (float64, error) {
			return 0.9, errors.New("engine went away")
		}

		got := rollout(panicState{}, 0, evaluate, nil, collector)

		require.Equal(t, 0.0, got, "Unavailable evaluation should give a neutral reward")
		require.Equal(t, 1, collector.Complete().Fallbacks)
	})

	t.Run("falling back on non-finite score", func(t *testing.T) {
		for _, score := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			evaluate := func(game.State) (float64, error) { return score, nil }

			got := rollout(panicState{}, 0, evaluate, nil, metrics.NewDummyCollector())

			require.Equal(t, 0.0, got)
		}
	})
}

// fixedRand always picks the first move
type fixedRand struct{}

func (fixedRand) Intn(int) int { return 0 }

func TestBackup(t *testing.T) {
	t.Run("alternating reward sign up to the root", func(t *testing.T) {
		root := &node{}
		a := &node{parent: root}
		b := &node{parent: a}
		root.children = []*node{a}
		a.children = []*node{b}

		backup(b, 1)

		require.Equal(t, 1.0, b.rewards)
		require.Equal(t, -1.0, a.rewards)
		require.Equal(t, 1.0, root.rewards)
		for _, n := range []*node{root, a, b} {
			require.Equal(t, 1, n.visits, "Every node on the path should record a visit")
		}
	})
}

func TestSelectLeaf(t *testing.T) {
	t.Run("stopping at a node with untried moves", func(t *testing.T) {
		state := newMockState(map[string][]string{"root": {"a", "b"}}, nil)
		root := newNode(nil, nil, state)
		root.expand()
		root.visits = 1

		require.Same(t, root, selectLeaf(root), "Selection should not descend past untried moves")
	})

	t.Run("descending to the first unvisited child", func(t *testing.T) {
		state := newMockState(map[string][]string{"root": {"y", "x"}}, nil)
		root := newNode(nil, nil, state)
		x := root.expand()
		root.expand()

		require.Same(t, x, selectLeaf(root), "First child in order should be selected on ties")
	})

	t.Run("stopping at a terminal leaf", func(t *testing.T) {
		state := newMockState(map[string][]string{"root": {"a"}}, nil)
		root := newNode(nil, nil, state)
		a := root.expand()
		backup(a, 1)

		require.Same(t, a, selectLeaf(root))
	})
}

func TestFindNextMove(t *testing.T) {
	t.Run("choosing the winning move", func(t *testing.T) {
		state := newMockState(
			map[string][]string{"root": {"a", "b"}},
			map[string]float64{"a": -1, "b": 1}, // The player to move in a has lost
		)
		mcts := NewMCTS(WithIterations(50), WithSeed(1), WithEvaluationFn(state.game.evaluate))

		got, err := mcts.FindNextMove(state)

		require.NoError(t, err)
		require.Equal(t, "a", got.String())
	})

	t.Run("avoiding a refuted move", func(t *testing.T) {
		// x lets the opponent win with x1, y is a certain draw
		state := newMockState(
			map[string][]string{"root": {"x", "y"}, "x": {"x1", "x2"}},
			map[string]float64{"x1": -1, "x2": 1, "y": 0},
		)
		mcts := NewMCTS(WithIterations(300), WithSeed(1), WithEvaluationFn(state.game.evaluate))

		got, err := mcts.FindNextMove(state)

		require.NoError(t, err)
		require.Equal(t, "y", got.String())
	})

	t.Run("returning a legal chess move", func(t *testing.T) {
		state := game.NewChessState()
		mcts := NewMCTS(WithIterations(60), WithCutoff(4), WithSeed(3))

		got, err := mcts.FindNextMove(state)

		require.NoError(t, err)
		require.Contains(t, moveIDs(state.LegalMoves()), got.String())
	})

	t.Run("finding mate in one", func(t *testing.T) {
		state, err := game.ChessFromFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
		require.NoError(t, err)
		mcts := NewMCTS(WithIterations(2000), WithCutoff(2), WithSeed(7))

		got, err := mcts.FindNextMove(state)

		require.NoError(t, err)
		require.Equal(t, "a1a8", got.String())
	})

	t.Run("failing on a terminal root", func(t *testing.T) {
		state, err := game.ChessFromFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
		require.NoError(t, err)

		got, err := NewMCTS(WithSeed(1)).FindNextMove(state)

		require.Nil(t, got)
		require.True(t, errors.Is(err, ErrNoLegalMoves))
	})

	t.Run("failing on nil input", func(t *testing.T) {
		_, err := NewMCTS().FindNextMove(nil)
		require.True(t, errors.Is(err, ErrInvalidInput))

		var missing *game.ChessState
		_, err = NewMCTS().FindNextMove(missing)
		require.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("surviving an unavailable evaluator", func(t *testing.T) {
		state := game.NewChessState()
		broken := func(game.State) (float64, error) { return 0, errors.New("no evaluator") }
		mcts := NewMCTS(WithIterations(30), WithCutoff(1), WithSeed(1), WithEvaluationFn(broken), WithMetrics())

		edges, metric, err := mcts.Simulate(state)

		require.NoError(t, err)
		require.NotEmpty(t, edges)
		require.Equal(t, 30, metric.Fallbacks)
	})

	t.Run("same seed, same move", func(t *testing.T) {
		state := game.NewChessState()

		first, err := NewMCTS(WithIterations(80), WithCutoff(3), WithSeed(42)).FindNextMove(state)
		require.NoError(t, err)
		second, err := NewMCTS(WithIterations(80), WithCutoff(3), WithSeed(42)).FindNextMove(state)
		require.NoError(t, err)

		require.Equal(t, first.String(), second.String())
	})

	t.Run("panics without iterations", func(t *testing.T) {
		require.Panics(t, func() {
			NewMCTS(WithIterations(0))
		})
	})
}

func TestSimulate(t *testing.T) {
	state := game.NewChessState()
	mcts := NewMCTS(WithIterations(100), WithCutoff(2), WithSeed(5), WithMetrics())

	edges, metric, err := mcts.Simulate(state)

	require.NoError(t, err)
	require.Len(t, edges, 20, "Every opening move should be expanded")
	total := 0
	for _, edge := range edges {
		total += edge.Visits
		require.GreaterOrEqual(t, edge.Value(), -1.0)
		require.LessOrEqual(t, edge.Value(), 1.0)
	}
	require.Equal(t, 100, total, "Root children visits should add up to the iterations")
	require.Equal(t, 100, metric.Episodes)
	require.Equal(t, 101, metric.Nodes, "Every iteration should add one node below the root")
}

func TestSearchInvariants(t *testing.T) {
	state := game.NewChessState()
	mcts := NewMCTS(WithIterations(250), WithCutoff(4), WithSeed(11))

	root, err := mcts.search(state)
	require.NoError(t, err)

	require.Equal(t, 250, root.visits)

	var walk func(n *node)
	walk = func(n *node) {
		// Move partition
		moves := make([]game.Move, 0, len(n.untried)+len(n.children))
		moves = append(moves, n.untried...)
		childVisits := 0
		for _, child := range n.children {
			require.Same(t, n, child.parent)
			moves = append(moves, child.move)
			childVisits += child.visits
		}
		if n.state.IsTerminal() {
			require.Empty(t, moves)
		} else {
			require.Equal(t, moveIDs(n.state.LegalMoves()), moveIDs(moves))
		}

		// Visit accounting: rollouts start below the root, once at each expansion and again only at terminal leaves
		rooted := n.visits - childVisits
		switch {
		case n.parent == nil:
			require.Equal(t, 0, rooted)
		case n.state.IsTerminal():
			require.GreaterOrEqual(t, rooted, 1)
		default:
			require.Equal(t, 1, rooted)
		}

		for _, child := range n.children {
			walk(child)
		}
	}
	walk(root)
}

func TestRootVisitsGrowByOne(t *testing.T) {
	state := newMockState(
		map[string][]string{"root": {"a", "b"}, "a": {"c"}, "b": {"d", "e"}},
		map[string]float64{"c": 1, "d": -1, "e": 0.5},
	)
	mcts := NewMCTS(WithSeed(1), WithEvaluationFn(state.game.evaluate))
	root := newNode(nil, nil, state)

	for i := 0; i < 20; i++ {
		mcts.simulate(root)
		require.Equal(t, i+1, root.visits)
	}
}

package searcher

import (
	"math"

	"chessmcts/game"

	"golang.org/x/exp/slices"
)

type node struct {
	parent   *node // Non-owning, only walked upwards
	move     game.Move
	state    game.State
	untried  []game.Move
	children []*node
	rewards  float64
	visits   int
}

func newNode(parent *node, move game.Move, state game.State) *node {
	var untried []game.Move
	if !state.IsTerminal() {
		// Own copy: expansion shrinks it
		untried = slices.Clone(state.LegalMoves())
	}

	return &node{
		parent:   parent,
		move:     move,
		state:    state,
		untried:  untried,
		children: make([]*node, 0, len(untried)),
	}
}

func (n *node) expandable() bool {
	return len(n.untried) > 0
}

// expand materializes the last untried move into a new child
func (n *node) expand() *node {
	if !n.expandable() {
		panic("cannot expand: node has no untried moves")
	}

	last := len(n.untried) - 1
	move := n.untried[last]
	n.untried = n.untried[:last]

	child := newNode(n, move, n.state.Play(move))
	n.children = append(n.children, child)
	return child
}

// pickChild returns the child with the max UCT score, the first one on ties
func (n *node) pickChild() *node {
	policy := newUCT(n.visits)

	var best *node
	maxScore := math.Inf(-1)
	for _, child := range n.children {
		score := policy.evaluate(child.rewards, child.visits)
		if score == math.Inf(1) {
			return child
		}
		if score > maxScore {
			maxScore = score
			best = child
		}
	}
	return best
}

// backup records a visit and returns the parent
func (n *node) backup(reward float64) *node {
	n.rewards += reward
	n.visits++
	return n.parent
}

func (n *node) mostVisited() *node {
	var best *node
	for _, child := range n.children {
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	return best
}

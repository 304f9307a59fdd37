package engine

import (
	"fmt"
	"strconv"
	"time"

	"chessmcts/experiments/metrics"
	"chessmcts/game"
	"chessmcts/searcher/agent"
	"chessmcts/utils"

	"github.com/rs/zerolog/log"
)

type localEngine struct {
	state    game.State
	agents   []agent.Agent
	maxMoves int
}

// LocalEngine alternates two in-process agents, the first one moving first from state
func LocalEngine(agents []agent.Agent, state game.State, maxMoves int) Engine {
	if len(agents) != 2 {
		panic("need exactly two agents")
	}
	if maxMoves <= 0 {
		panic("need a positive move limit")
	}
	return &localEngine{state: state, agents: agents, maxMoves: maxMoves}
}

// Run executes the entire game loop until the game is over or the move limit is hit.
func (e *localEngine) Run() (metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{
		StartingPlayer: player(0),
		StartTime:      time.Now(),
	}
	var moveMetrics []metrics.MoveMetric

	log.Info().Msgf("player %s is starting", gameMetric.StartingPlayer)

	state := e.state
	turn := 0
	for !state.IsTerminal() && gameMetric.TotalMoves < e.maxMoves {
		move, searchMetric, err := e.agents[turn].FindMove(state)
		if err != nil {
			return e.complete(gameMetric, state), moveMetrics,
				fmt.Errorf("player %s failed to find move %d: %w", player(turn), gameMetric.TotalMoves+1, err)
		}

		move = legalize(state, move)
		gameMetric.TotalMoves++
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         gameMetric.TotalMoves,
			Player:       player(turn),
			Move:         move.String(),
			SearchMetric: searchMetric,
		})

		state = state.Play(move)
		turn = 1 - turn
	}

	gameMetric = e.complete(gameMetric, state)
	if state.IsTerminal() {
		log.Info().Msgf("game over after %d moves: %s", gameMetric.TotalMoves, gameMetric.Outcome)
	} else {
		log.Info().Msgf("stopped after %d moves (no result yet)", gameMetric.TotalMoves)
	}
	return gameMetric, moveMetrics, nil
}

func (e *localEngine) complete(gameMetric metrics.GameMetric, state game.State) metrics.GameMetric {
	gameMetric.Outcome = game.Outcome(state)
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	return gameMetric
}

// legalize maps a move onto the state's own legal move, forcing the first legal move if there is none
func legalize(state game.State, move game.Move) game.Move {
	legal := state.LegalMoves()
	if len(legal) == 0 {
		panic("no legal moves in a non-terminal state")
	}

	if move != nil {
		names := make([]string, len(legal))
		for i, m := range legal {
			names[i] = m.String()
		}
		if i := utils.FindIndex(names, move.String()); i >= 0 {
			return legal[i]
		}
	}

	log.Warn().Msgf("agent returned an illegal move %v => forcing %s", move, legal[0])
	return legal[0]
}

func player(index int) string {
	return strconv.Itoa(index + 1)
}

package experiments

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"chessmcts/engine"
	"chessmcts/experiments/metrics"
	"chessmcts/game"
	"chessmcts/meta"
	"chessmcts/searcher"
	"chessmcts/searcher/agent"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const NumGames = 10 // Per match up

var ErrInvalidExperiment = errors.New("invalid experiment")

type Experiment struct {
	Name     string                `yaml:"name"`
	Games    int                   `yaml:"games"` // Per match up, colours alternate between games
	MaxMoves int                   `yaml:"max_moves"`
	Parallel int                   `yaml:"parallel"`
	Seed     uint64                `yaml:"seed"` // Zero seeds every search from the clock
	Agents   []metrics.AgentConfig `yaml:"agents"`
	MatchUps [][]int               `yaml:"match_ups"` // Pairs of agent IDs
}

type Result struct {
	Dir     string
	Summary metrics.Summary
}

// IterationsExperiment pairs agents with different search budgets against the default agent
func IterationsExperiment() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Iterations: meta.ITERATIONS, Cutoff: meta.CUTOFF, Evaluator: meta.EVALUATOR}
	configs := []metrics.AgentConfig{
		baseline,
		{ID: 1, Iterations: 50, Cutoff: meta.CUTOFF, Evaluator: meta.EVALUATOR},
		{ID: 2, Iterations: 100, Cutoff: meta.CUTOFF, Evaluator: meta.EVALUATOR},
		{ID: 3, Iterations: 600, Cutoff: meta.CUTOFF, Evaluator: meta.EVALUATOR},
	}
	return againstBaseline("iterations", configs)
}

// CutoffExperiment pairs agents with different rollout lengths against the default agent
func CutoffExperiment() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Iterations: meta.ITERATIONS, Cutoff: meta.CUTOFF, Evaluator: meta.EVALUATOR}
	configs := []metrics.AgentConfig{
		baseline,
		{ID: 1, Iterations: meta.ITERATIONS, Cutoff: 0, Evaluator: meta.EVALUATOR}, // Evaluate leaves directly
		{ID: 2, Iterations: meta.ITERATIONS, Cutoff: 2, Evaluator: meta.EVALUATOR},
		{ID: 3, Iterations: meta.ITERATIONS, Cutoff: 5, Evaluator: meta.EVALUATOR},
		{ID: 4, Iterations: meta.ITERATIONS, Cutoff: 20, Evaluator: meta.EVALUATOR},
	}
	return againstBaseline("cutoff", configs)
}

// againstBaseline pairs the first config against each of the others
func againstBaseline(name string, configs []metrics.AgentConfig) Experiment {
	matchUps := [][]int{}
	for _, config := range configs[1:] {
		matchUps = append(matchUps, []int{configs[0].ID, config.ID})
	}
	return Experiment{
		Name:     name,
		Games:    NumGames,
		MaxMoves: meta.MAX_MOVES,
		Parallel: runtime.NumCPU(),
		Agents:   configs,
		MatchUps: matchUps,
	}
}

// LoadExperiment reads an experiment definition from a YAML file
func LoadExperiment(path string) (Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, fmt.Errorf("failed to read experiment: %w", err)
	}

	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return Experiment{}, fmt.Errorf("failed to parse experiment %s: %w", path, err)
	}
	exp.applyDefaults()
	if err := exp.Validate(); err != nil {
		return Experiment{}, err
	}
	return exp, nil
}

func (e *Experiment) applyDefaults() {
	if e.Games == 0 {
		e.Games = NumGames
	}
	if e.MaxMoves == 0 {
		e.MaxMoves = meta.MAX_MOVES
	}
	if e.Parallel == 0 {
		e.Parallel = 1
	}
	for i := range e.Agents {
		if e.Agents[i].Iterations == 0 {
			e.Agents[i].Iterations = meta.ITERATIONS
		}
		if e.Agents[i].Evaluator == "" {
			e.Agents[i].Evaluator = meta.EVALUATOR
		}
	}
}

func (e Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidExperiment)
	}
	if e.Games <= 0 || e.MaxMoves <= 0 || e.Parallel <= 0 {
		return fmt.Errorf("%w: games, max_moves and parallel must be positive", ErrInvalidExperiment)
	}
	if len(e.MatchUps) == 0 {
		return fmt.Errorf("%w: no match ups", ErrInvalidExperiment)
	}

	ids := map[int]bool{}
	for _, config := range e.Agents {
		if ids[config.ID] {
			return fmt.Errorf("%w: duplicate agent id %d", ErrInvalidExperiment, config.ID)
		}
		ids[config.ID] = true
		if config.Iterations <= 0 || config.Cutoff < 0 {
			return fmt.Errorf("%w: agent %d needs positive iterations and a non-negative cutoff", ErrInvalidExperiment, config.ID)
		}
		if _, err := game.LookupEvaluator(config.Evaluator); err != nil {
			return fmt.Errorf("%w: agent %d: %w", ErrInvalidExperiment, config.ID, err)
		}
	}
	for _, matchUp := range e.MatchUps {
		if len(matchUp) != 2 {
			return fmt.Errorf("%w: match up %v is not a pair", ErrInvalidExperiment, matchUp)
		}
		for _, id := range matchUp {
			if !ids[id] {
				return fmt.Errorf("%w: match up %v names unknown agent %d", ErrInvalidExperiment, matchUp, id)
			}
		}
	}
	return nil
}

type fixture struct {
	id    int
	white metrics.AgentConfig
	black metrics.AgentConfig
}

// Run plays every match up and stores agent configs, game records and move records under outDir
func Run(ctx context.Context, exp Experiment, outDir string) (Result, error) {
	if err := exp.Validate(); err != nil {
		return Result{}, err
	}
	configs := map[int]metrics.AgentConfig{}
	for _, config := range exp.Agents {
		configs[config.ID] = config
	}

	// Colours alternate so neither agent always moves first
	var games []fixture
	for _, matchUp := range exp.MatchUps {
		for i := 0; i < exp.Games; i++ {
			white, black := configs[matchUp[0]], configs[matchUp[1]]
			if i%2 == 1 {
				white, black = black, white
			}
			games = append(games, fixture{id: len(games) + 1, white: white, black: black})
		}
	}

	log.Info().Msgf("starting %s experiment with %d games...", exp.Name, len(games))

	gameRecords := make([]metrics.GameRecord, len(games))
	moveRecords := make([][]metrics.MoveRecord, len(games))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(exp.Parallel)
	for i, f := range games {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gameRecord, moves, err := runGame(f, exp)
			if err != nil {
				return fmt.Errorf("game %d: %w", f.id, err)
			}
			gameRecords[i] = gameRecord
			moveRecords[i] = moves

			log.Info().Msgf("completed game %d of %d (agent%d vs agent%d): %s",
				f.id, len(games), f.white.ID, f.black.ID, gameRecord.Outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	log.Info().Msgf("completed %s experiment", exp.Name)

	var allMoves []metrics.MoveRecord
	for _, moves := range moveRecords {
		allMoves = append(allMoves, moves...)
	}
	dir, err := store(exp, outDir, gameRecords, allMoves)
	if err != nil {
		return Result{}, err
	}
	return Result{Dir: dir, Summary: metrics.Summarize(gameRecords, allMoves)}, nil
}

func store(exp Experiment, outDir string, gameRecords []metrics.GameRecord, moveRecords []metrics.MoveRecord) (string, error) {
	// Store experiment metadata
	writer, err := metrics.NewWriter(outDir, exp.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(exp.Agents); err != nil {
		return "", fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	// Store experiment results
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")

	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")
	return writer.Dir(), nil
}

// runGame executes a single game between two fresh agents
func runGame(f fixture, exp Experiment) (metrics.GameRecord, []metrics.MoveRecord, error) {
	agents := []agent.Agent{
		agent.NewEvaluationAgent(createMCTS(f.white, seed(exp.Seed, f.id, 0))),
		agent.NewEvaluationAgent(createMCTS(f.black, seed(exp.Seed, f.id, 1))),
	}
	e := engine.LocalEngine(agents, game.NewChessState(), exp.MaxMoves)

	gameMetric, moveMetrics, err := e.Run()
	if err != nil {
		return metrics.GameRecord{}, nil, err
	}

	gameRecord := metrics.GameRecord{
		ID:         f.id,
		Agent1:     f.white.ID,
		Agent2:     f.black.ID,
		GameMetric: gameMetric,
	}
	moveRecords := make([]metrics.MoveRecord, len(moveMetrics))
	for i, mm := range moveMetrics {
		moveRecords[i] = metrics.MoveRecord{Game: f.id, MoveMetric: mm}
	}
	return gameRecord, moveRecords, nil
}

// seed derives a distinct search seed per game and side
func seed(base uint64, gameID, side int) uint64 {
	if base == 0 {
		return 0
	}
	return base + uint64(2*gameID+side)
}

func createMCTS(config metrics.AgentConfig, seed uint64) *searcher.MCTS {
	options := []searcher.Option{
		searcher.WithIterations(config.Iterations),
		searcher.WithCutoff(config.Cutoff),
	}

	if evaluate, err := game.LookupEvaluator(config.Evaluator); err == nil {
		options = append(options, searcher.WithEvaluationFn(evaluate))
	}
	if seed != 0 {
		options = append(options, searcher.WithSeed(seed))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(options...)
}

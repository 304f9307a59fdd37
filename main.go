package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"chessmcts/engine"
	"chessmcts/experiments"
	"chessmcts/game"
	"chessmcts/meta"
	"chessmcts/searcher"
	"chessmcts/searcher/agent"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type config struct {
	mode       string
	fen        string
	iterations int
	cutoff     int
	evaluator  string
	seed       uint64
	port       string
	experiment string
	outDir     string
	logLevel   string
}

func main() {
	cfg := config{}
	flag.StringVar(&cfg.mode, "mode", "move", "One of move, selfplay, serve, experiment")
	flag.StringVar(&cfg.fen, "fen", "", "Position to search (default: starting position)")
	flag.IntVar(&cfg.iterations, "iterations", meta.ITERATIONS, "Search iterations per move")
	flag.IntVar(&cfg.cutoff, "cutoff", meta.CUTOFF, "Max random moves per rollout")
	flag.StringVar(&cfg.evaluator, "eval", meta.EVALUATOR, "Position evaluator: "+strings.Join(game.EvaluatorNames(), ", "))
	flag.Uint64Var(&cfg.seed, "seed", 0, "Random seed (0: seed from clock)")
	flag.StringVar(&cfg.port, "port", meta.PORT, "Agent server port")
	flag.StringVar(&cfg.experiment, "config", "iterations", "Experiment: iterations, cutoff or a YAML file")
	flag.StringVar(&cfg.outDir, "out", "results", "Experiment output directory")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level")
	flag.Parse()

	level, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", cfg.logLevel)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msgf("%s failed", cfg.mode)
	}
}

func run(cfg config) error {
	switch cfg.mode {
	case "move":
		return findMove(cfg)
	case "selfplay":
		return selfPlay(cfg)
	case "serve":
		return agent.NewServer(searchOptions(cfg)...).ListenAndServe(cfg.port)
	case "experiment":
		return runExperiment(cfg)
	default:
		return fmt.Errorf("unknown mode %q", cfg.mode)
	}
}

func searchOptions(cfg config) []searcher.Option {
	options := []searcher.Option{
		searcher.WithIterations(cfg.iterations),
		searcher.WithCutoff(cfg.cutoff),
	}
	if evaluate, err := game.LookupEvaluator(cfg.evaluator); err == nil {
		options = append(options, searcher.WithEvaluationFn(evaluate))
	} else {
		log.Warn().Err(err).Msgf("falling back to the %s evaluator", meta.EVALUATOR)
	}
	if cfg.seed != 0 {
		options = append(options, searcher.WithSeed(cfg.seed))
	}
	return options
}

func startingState(cfg config) (*game.ChessState, error) {
	if cfg.fen == "" {
		return game.NewChessState(), nil
	}
	return game.ChessFromFEN(cfg.fen)
}

func findMove(cfg config) error {
	state, err := startingState(cfg)
	if err != nil {
		return err
	}

	mcts := searcher.NewMCTS(append(searchOptions(cfg), searcher.WithMetrics())...)
	move, metric, err := agent.NewEvaluationAgent(mcts).FindMove(state)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	fmt.Fprintln(out, highlight(out, move.String()))
	log.Info().Msgf("searched %d episodes, %d nodes, %d fallbacks in %s",
		metric.Episodes, metric.Nodes, metric.Fallbacks, metric.Duration)
	return nil
}

// selfPlay plays one local game between two agents sharing the same configuration
func selfPlay(cfg config) error {
	state, err := startingState(cfg)
	if err != nil {
		return err
	}

	agents := make([]agent.Agent, 2)
	for i := range agents {
		options := searchOptions(cfg)
		if cfg.seed != 0 {
			options = append(options, searcher.WithSeed(cfg.seed+uint64(i)))
		}
		agents[i] = agent.NewEvaluationAgent(searcher.NewMCTS(options...))
	}

	gameMetric, moveMetrics, err := engine.LocalEngine(agents, state, meta.MAX_MOVES).Run()
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	moves := make([]string, len(moveMetrics))
	for i, mm := range moveMetrics {
		moves[i] = mm.Move
	}
	fmt.Fprintln(out, strings.Join(moves, " "))
	fmt.Fprintf(out, "%s after %d moves in %s\n",
		highlight(out, gameMetric.Outcome), gameMetric.TotalMoves, gameMetric.Duration)
	return nil
}

func runExperiment(cfg config) error {
	var exp experiments.Experiment
	switch cfg.experiment {
	case "iterations":
		exp = experiments.IterationsExperiment()
	case "cutoff":
		exp = experiments.CutoffExperiment()
	default:
		var err error
		if exp, err = experiments.LoadExperiment(cfg.experiment); err != nil {
			return err
		}
	}
	if cfg.seed != 0 {
		exp.Seed = cfg.seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := experiments.Run(ctx, exp, cfg.outDir)
	if err != nil {
		return err
	}

	s := result.Summary
	out := termenv.NewOutput(os.Stdout)
	fmt.Fprintf(out, "%s: %d games, white %d, black %d, draws %d, unfinished %d\n",
		highlight(out, exp.Name), s.Games, s.WhiteWins, s.BlackWins, s.Draws, s.Unfinished)
	fmt.Fprintf(out, "moves %.1f ± %.1f, search %s ± %s\n", s.MeanMoves, s.StdDevMoves, s.MeanSearchTime, s.StdDevSearch)
	fmt.Fprintf(out, "records in %s\n", result.Dir)
	return nil
}

func highlight(out *termenv.Output, s string) termenv.Style {
	return out.String(s).Bold().Foreground(out.Color("#5fd700"))
}

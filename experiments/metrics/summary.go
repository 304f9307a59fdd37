package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	Games          int
	WhiteWins      int
	BlackWins      int
	Draws          int
	Unfinished     int
	MeanMoves      float64
	StdDevMoves    float64
	MeanSearchTime time.Duration
	StdDevSearch   time.Duration
	MeanEpisodes   float64
}

// Summarize aggregates game lengths and per-move search statistics.
func Summarize(games []GameRecord, moves []MoveRecord) Summary {
	summary := Summary{Games: len(games)}

	lengths := make([]float64, len(games))
	for i, g := range games {
		lengths[i] = float64(g.TotalMoves)
		switch g.Outcome {
		case "1-0":
			summary.WhiteWins++
		case "0-1":
			summary.BlackWins++
		case "1/2-1/2":
			summary.Draws++
		default:
			summary.Unfinished++
		}
	}
	if len(lengths) > 0 {
		summary.MeanMoves, summary.StdDevMoves = meanStdDev(lengths)
	}

	if len(moves) > 0 {
		durations := make([]float64, len(moves))
		episodes := make([]float64, len(moves))
		for i, m := range moves {
			durations[i] = float64(m.Duration)
			episodes[i] = float64(m.Episodes)
		}
		mean, std := meanStdDev(durations)
		summary.MeanSearchTime = time.Duration(mean)
		summary.StdDevSearch = time.Duration(std)
		summary.MeanEpisodes = stat.Mean(episodes, nil)
	}

	return summary
}

// Sample standard deviation is undefined for a single observation
func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

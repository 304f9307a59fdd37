package game

import (
	"fmt"
	"sort"

	"github.com/notnil/chess"
)

var pieceValues = map[chess.PieceType]float64{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

// Central squares weigh 2, the ring around them 1
var centerWeights = map[chess.Square]float64{
	chess.D4: 2, chess.E4: 2, chess.D5: 2, chess.E5: 2,
	chess.C3: 1, chess.D3: 1, chess.E3: 1, chess.F3: 1,
	chess.C4: 1, chess.F4: 1, chess.C5: 1, chess.F5: 1,
	chess.C6: 1, chess.D6: 1, chess.E6: 1, chess.F6: 1,
}

var evaluators = map[string]Evaluate{
	"material":        EvaluateMaterial,
	"center":          EvaluateCenterControl,
	"material-center": EvaluateMaterialCenter,
}

// LookupEvaluator resolves an evaluator by the name used in flags and experiment configs.
func LookupEvaluator(name string) (Evaluate, error) {
	evaluate, ok := evaluators[name]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator %q (known: %v)", name, EvaluatorNames())
	}
	return evaluate, nil
}

func EvaluatorNames() []string {
	names := make([]string, 0, len(evaluators))
	for name := range evaluators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EvaluateMaterial compares the material of both sides to produce a score between -1 and 1 from the
// perspective of the player to move
func EvaluateMaterial(s State) (float64, error) {
	cs, ok := s.(*ChessState)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnexpectedState, s)
	}
	if score, over := cs.terminalScore(); over {
		return score, nil
	}
	return cs.calculateMaterialScore(), nil
}

// EvaluateCenterControl compares the occupation of the central squares
func EvaluateCenterControl(s State) (float64, error) {
	cs, ok := s.(*ChessState)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnexpectedState, s)
	}
	if score, over := cs.terminalScore(); over {
		return score, nil
	}
	return cs.calculateCenterScore(), nil
}

func EvaluateMaterialCenter(s State) (float64, error) {
	cs, ok := s.(*ChessState)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnexpectedState, s)
	}
	if score, over := cs.terminalScore(); over {
		return score, nil
	}
	// Material dominates, the center breaks ties between equal trades
	return (3*cs.calculateMaterialScore() + cs.calculateCenterScore()) / 4, nil
}

// terminalScore: the player to move has lost when checkmated
func (s *ChessState) terminalScore() (float64, bool) {
	switch s.pos.Status() {
	case chess.Checkmate:
		return -1, true
	case chess.NoMethod:
		return 0, false
	default:
		return 0, true
	}
}

func (s *ChessState) calculateMaterialScore() float64 {
	material := make(map[chess.Color]float64)
	for _, piece := range s.pos.Board().SquareMap() {
		material[piece.Color()] += pieceValues[piece.Type()]
	}
	current := s.pos.Turn()
	return normalize(material[current], material[current.Other()])
}

func (s *ChessState) calculateCenterScore() float64 {
	center := make(map[chess.Color]float64)
	board := s.pos.Board()
	for sq, weight := range centerWeights {
		if piece := board.Piece(sq); piece != chess.NoPiece {
			center[piece.Color()] += weight
		}
	}
	current := s.pos.Turn()
	return normalize(center[current], center[current.Other()])
}

// normalize normalizes value relative to otherValue to a score between -1 and 1
func normalize(value float64, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}

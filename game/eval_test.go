package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type otherState struct{}

func (otherState) LegalMoves() []Move { return nil }
func (otherState) Play(Move) State    { return otherState{} }
func (otherState) IsTerminal() bool   { return true }

func TestEvaluateMaterial(t *testing.T) {
	t.Run("balanced starting position", func(t *testing.T) {
		score, err := EvaluateMaterial(NewChessState())
		require.NoError(t, err)
		require.Equal(t, 0.0, score)
	})

	t.Run("scores from the player to move", func(t *testing.T) {
		white, err := ChessFromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNB1KBNR w KQkq - 0 1")
		require.NoError(t, err)
		black, err := ChessFromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNB1KBNR b KQkq - 0 1")
		require.NoError(t, err)

		whiteScore, err := EvaluateMaterial(white)
		require.NoError(t, err)
		blackScore, err := EvaluateMaterial(black)
		require.NoError(t, err)

		require.InDelta(t, (30.0-39.0)/69.0, whiteScore, 1e-9, "Side down a queen should score negative")
		require.InDelta(t, -whiteScore, blackScore, 1e-9, "Scores should be symmetric between sides")
	})

	t.Run("checkmated side to move scores a loss", func(t *testing.T) {
		state, err := ChessFromFEN(foolsMateFEN)
		require.NoError(t, err)

		score, err := EvaluateMaterial(state)
		require.NoError(t, err)
		require.Equal(t, -1.0, score)
	})

	t.Run("stalemate scores a draw", func(t *testing.T) {
		state, err := ChessFromFEN(stalemateFEN)
		require.NoError(t, err)

		score, err := EvaluateMaterialCenter(state)
		require.NoError(t, err)
		require.Equal(t, 0.0, score)
	})

	t.Run("rejects non-chess states", func(t *testing.T) {
		_, err := EvaluateMaterial(otherState{})
		require.True(t, errors.Is(err, ErrUnexpectedState))
	})
}

func TestEvaluateCenterControl(t *testing.T) {
	state, err := ChessFromFEN("rnbqkbnr/pppppppp/8/8/3PP3/8/PPP2PPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	score, err := EvaluateCenterControl(state)
	require.NoError(t, err)
	require.Equal(t, 1.0, score, "Only white occupies the center")
}

func TestLookupEvaluator(t *testing.T) {
	for _, name := range EvaluatorNames() {
		evaluate, err := LookupEvaluator(name)
		require.NoError(t, err)
		require.NotNil(t, evaluate)
	}

	_, err := LookupEvaluator("nnue")
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, 0.0, normalize(0, 0))
	require.Equal(t, 1.0, normalize(3, 0))
	require.Equal(t, -0.5, normalize(1, 3))
}

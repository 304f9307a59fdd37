package game

import "errors"

// Move is an opaque move handed out by State.LegalMoves and consumed by State.Play.
type Move interface {
	String() string
}

// State should be immutable - operations on State always return a new copy
type State interface {
	LegalMoves() []Move
	Play(Move) State
	IsTerminal() bool
}

// Evaluates the game state to a score between -1 and 1 indicating how
// favorable the position is for the player to move in it.
// An error means the score is unavailable.
type Evaluate func(State) (float64, error)

var ErrUnexpectedState = errors.New("unexpected state type")

// Outcome reports the result of a finished game, "*" if it is not decided
// or the state cannot tell.
func Outcome(s State) string {
	if o, ok := s.(interface{ Outcome() string }); ok {
		return o.Outcome()
	}
	return NoOutcome
}

const (
	WhiteWon  = "1-0"
	BlackWon  = "0-1"
	Draw      = "1/2-1/2"
	NoOutcome = "*"
)

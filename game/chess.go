package game

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

// ChessMove wraps a move of the underlying rules engine. String() is the UCI form.
type ChessMove struct {
	*chess.Move
}

// ChessState is a chess position. Play never mutates the receiver.
type ChessState struct {
	pos *chess.Position
}

// NewChessState returns the standard starting position.
func NewChessState() *ChessState {
	return &ChessState{pos: chess.NewGame().Position()}
}

// ChessFromFEN decodes a position from Forsyth-Edwards Notation.
func ChessFromFEN(fen string) (*ChessState, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fen %q: %w", fen, err)
	}
	return &ChessState{pos: chess.NewGame(opt).Position()}, nil
}

func (s *ChessState) Validate() error {
	if s == nil || s.pos == nil {
		return errors.New("chess state has no position")
	}
	return nil
}

func (s *ChessState) LegalMoves() []Move {
	valid := s.pos.ValidMoves()
	moves := make([]Move, len(valid))
	for i, m := range valid {
		moves[i] = ChessMove{Move: m}
	}
	return moves
}

func (s *ChessState) Play(move Move) State {
	m, ok := move.(ChessMove)
	if !ok {
		panic(fmt.Sprintf("unexpected move type %T", move))
	}
	return &ChessState{pos: s.pos.Update(m.Move)}
}

func (s *ChessState) IsTerminal() bool {
	return s.pos.Status() != chess.NoMethod
}

// Outcome is decided by checkmate or stalemate only; draw claims belong to a game record.
func (s *ChessState) Outcome() string {
	switch s.pos.Status() {
	case chess.Checkmate:
		if s.pos.Turn() == chess.White {
			return BlackWon
		}
		return WhiteWon
	case chess.Stalemate:
		return Draw
	default:
		return NoOutcome
	}
}

func (s *ChessState) Turn() chess.Color {
	return s.pos.Turn()
}

func (s *ChessState) FEN() string {
	return s.pos.String()
}

func (s *ChessState) String() string {
	return s.FEN()
}

// ParseMove decodes a UCI move (e.g. "e2e4", "e7e8q") legal in the given position.
func ParseMove(s *ChessState, uci string) (ChessMove, error) {
	m, err := chess.UCINotation{}.Decode(s.pos, uci)
	if err != nil {
		return ChessMove{}, fmt.Errorf("failed to decode move %q: %w", uci, err)
	}
	for _, legal := range s.pos.ValidMoves() {
		if legal.String() == m.String() {
			return ChessMove{Move: legal}, nil
		}
	}
	return ChessMove{}, fmt.Errorf("move %q is not legal in %s", uci, s.FEN())
}

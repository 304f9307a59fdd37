package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"chessmcts/game"
	"chessmcts/searcher"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

type FindMoveRequest struct {
	FEN        string `json:"fen"`
	Iterations int    `json:"iterations,omitempty"` // Server default when zero
}

type PolicyEntry struct {
	Move   string  `json:"move"`
	Visits int     `json:"visits"`
	Value  float64 `json:"value"`
}

type FindMoveResponse struct {
	ID     string        `json:"id"`
	Move   string        `json:"move"`
	Visits int           `json:"visits"`
	Policy []PolicyEntry `json:"policy"` // Most visited first
}

// Server answers move requests over HTTP. Searches run one at a time.
type Server struct {
	mu      sync.Mutex
	options []searcher.Option
	mux     *http.ServeMux
}

func NewServer(options ...searcher.Option) *Server {
	s := &Server{options: options}

	// Create a local mux rather than using the global DefaultServeMux
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/findmove", s.handleFindMove)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks serving on the given port
func (s *Server) ListenAndServe(port string) error {
	log.Info().Msgf("starting agent server on :%s ...", port)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleFindMove(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload FindMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Iterations < 0 {
		http.Error(w, "bad request: iterations must not be negative", http.StatusBadRequest)
		return
	}
	state, err := game.ChessFromFEN(payload.FEN)
	if err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger := log.With().Str("id", id).Logger()
	logger.Info().Str("fen", payload.FEN).Int("iterations", payload.Iterations).Msg("finding move")

	edges, err := s.simulate(state, payload.Iterations)
	switch {
	case errors.Is(err, searcher.ErrNoLegalMoves):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, searcher.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logger.Error().Err(err).Msg("search failed")
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	best := edges[findMax(edges)]
	response := FindMoveResponse{
		ID:     id,
		Move:   best.Move.String(),
		Visits: best.Visits,
		Policy: policy(edges),
	}
	logger.Info().Str("move", response.Move).Int("visits", response.Visits).Msg("found move")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode move")
	}
}

func (s *Server) simulate(state game.State, iterations int) ([]searcher.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	options := slices.Clone(s.options)
	if iterations > 0 {
		options = append(options, searcher.WithIterations(iterations))
	}
	edges, _, err := searcher.NewMCTS(options...).Simulate(state)
	return edges, err
}

func policy(edges []searcher.Edge) []PolicyEntry {
	entries := make([]PolicyEntry, len(edges))
	for i, edge := range edges {
		entries[i] = PolicyEntry{Move: edge.Move.String(), Visits: edge.Visits, Value: edge.Value()}
	}
	slices.SortStableFunc(entries, func(a, b PolicyEntry) int {
		return b.Visits - a.Visits
	})
	return entries
}

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chessmcts/experiments/metrics"
	"chessmcts/game"
	"chessmcts/searcher/agent"
)

var _ agent.Agent = (*RemoteAgent)(nil)

// RemoteAgent asks an agent server for its moves
type RemoteAgent struct {
	URL        string
	Iterations int // Server default when zero
	Client     *http.Client
}

func NewRemoteAgent(url string, iterations int) *RemoteAgent {
	return &RemoteAgent{
		URL:        url,
		Iterations: iterations,
		Client:     &http.Client{Timeout: time.Minute},
	}
}

// FindMove encodes the position as FEN and posts it to /findmove
func (a *RemoteAgent) FindMove(state game.State) (game.Move, metrics.SearchMetric, error) {
	metric := metrics.SearchMetric{Iterations: a.Iterations}
	chessState, ok := state.(*game.ChessState)
	if !ok {
		return nil, metric, fmt.Errorf("%w: %T", game.ErrUnexpectedState, state)
	}

	bodyBytes, err := json.Marshal(agent.FindMoveRequest{FEN: chessState.FEN(), Iterations: a.Iterations})
	if err != nil {
		return nil, metric, fmt.Errorf("failed to encode request: %w", err)
	}

	start := time.Now()
	resp, err := a.Client.Post(a.URL+"/findmove", "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, metric, fmt.Errorf("failed to reach agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return nil, metric, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}

	var response agent.FindMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, metric, fmt.Errorf("failed to decode agent response: %w", err)
	}
	metric.Duration = time.Since(start)
	for _, entry := range response.Policy {
		metric.Episodes += entry.Visits
	}

	move, err := game.ParseMove(chessState, response.Move)
	if err != nil {
		return nil, metric, err
	}
	return move, metric, nil
}

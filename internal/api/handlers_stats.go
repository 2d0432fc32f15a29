package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/deckforge/internal/llm"
)

type llmStatsResponse struct {
	Model  string            `json:"model"`
	Limits llm.Limits        `json:"limits"`
	Stats  llm.StatsSnapshot `json:"stats"`
}

// handleLLMStats reports latency percentiles of recent pipeline calls.
func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(llmStatsResponse{
		Model:  s.llm.Model(),
		Limits: s.llm.Limits(),
		Stats:  s.llm.Stats.Snapshot(),
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/okian/radrate/internal/domain/stats"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	now           func() time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, now: time.Now}
}

// HandleStats handles GET /stats. format=markdown renders a report instead
// of JSON.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st := h.statsProvider.Stats(r.Context())
	if r.URL.Query().Get("format") != "markdown" {
		writeJSON(w, http.StatusOK, st)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if err := stats.WriteMarkdown(w, st, h.now()); err != nil {
		writeFailure(w, Wrap("api.stats", err))
	}
}

package handle

import (
	"net/http"
	"strconv"
	"time"
)

type JournalEntry struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"`
	Service    string    `json:"service"`
	Operation  string    `json:"operation"`
	Input      string    `json:"input"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// History lists the most recent journalled calls, optionally for one service.
func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	repo := h.Journal.Repo()
	if repo == nil {
		notConfigured(w, "journal")
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	entries, err := repo.Recent(r.Context(), r.URL.Query().Get("service"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "journal error: "+err.Error())
		return
	}
	out := make([]JournalEntry, len(entries))
	for i, e := range entries {
		out[i] = JournalEntry{
			ID: e.ID, CreatedAt: e.CreatedAt, Source: e.Source, Service: e.Service,
			Operation: e.Operation, Input: e.Input, Output: e.Output, Error: e.Error,
			DurationMS: e.Duration.Milliseconds(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

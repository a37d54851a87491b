package handle

import (
	"log"
	"net/http"
	"strconv"
)

// History lists recent identifications, newest first. Returns 503 when the
// service runs without a database.
func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	if h.history == nil {
		writeDetail(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("history: %v", err)
		writeDetail(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(rows),
		"results": rows,
	})
}

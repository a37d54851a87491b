// Package handle exposes the HTTP surface: identify, health, root metadata
// and the optional history listing.
package handle

import (
	"encoding/json"
	"net/http"

	"device-identifier/api/internal/config"
	"device-identifier/api/internal/pipeline"
	"device-identifier/api/internal/store"
)

const serviceName = "Telecom Device Identifier API"
const serviceVersion = "1.0.0"

type Handle struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	history  *store.HistoryRepo // nil when no database is configured
}

func New(cfg *config.Config, p *pipeline.Pipeline, history *store.HistoryRepo) *Handle {
	return &Handle{
		cfg:      cfg,
		pipeline: p,
		history:  history,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail emits the {"detail": ...} error payload the mobile client
// expects.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// CORS wraps a handler with the permissive headers the Ionic/Angular dev
// clients need.
func CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

package handle

import "net/http"

// Root lists the service endpoints.
func (h *Handle) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	endpoints := map[string]string{
		"/identify": "POST - Upload image to identify telecom device",
		"/health":   "GET - Health check",
	}
	if h.history != nil {
		endpoints["/history"] = "GET - Recent identification results"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   serviceName,
		"version":   serviceVersion,
		"endpoints": endpoints,
	})
}

// Health reports whether the classification credential is configured and
// which model is active.
func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                 "healthy",
		"service":                serviceName,
		"huggingface_configured": h.cfg.HuggingFaceToken != "",
		"model":                  h.cfg.HuggingFaceModelID,
	})
}

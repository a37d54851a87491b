package handle

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"device-identifier/api/internal/classify"
	"device-identifier/api/internal/imaging"
	"device-identifier/api/internal/pipeline"
)

// Identify accepts a multipart image upload (form field "file") and returns
// the identification envelope.
func (h *Handle) Identify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	// Allow some slack over the configured max; oversized payloads are
	// rejected with a 400 by the normalizer, not cut off mid-read.
	if err := r.ParseMultipartForm(h.cfg.MaxFileSize + 1<<20); err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "no file provided; use 'file' as the form field name")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	log.Printf("received image: %s (%d bytes)", header.Filename, len(data))

	env, err := h.pipeline.Identify(r.Context(), pipeline.Upload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	})
	if err != nil {
		h.writeIdentifyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, env)
}

// writeIdentifyError maps pipeline failures onto HTTP statuses: invalid
// uploads are 400, a missing credential 500, upstream rejections keep the
// remote status, timeouts 408, anything else a generic 500.
func (h *Handle) writeIdentifyError(w http.ResponseWriter, err error) {
	var upstream *classify.UpstreamError
	switch {
	case errors.Is(err, imaging.ErrInvalidImage):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, classify.ErrNotConfigured):
		writeDetail(w, http.StatusInternalServerError, "Hugging Face API token not configured")
	case errors.As(err, &upstream):
		writeDetail(w, upstream.StatusCode, fmt.Sprintf("Hugging Face API error: %s", upstream.Body))
	case errors.Is(err, classify.ErrTimeout):
		writeDetail(w, http.StatusRequestTimeout, "Request to Hugging Face API timed out")
	default:
		log.Printf("identify: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Error communicating with Hugging Face API: "+err.Error())
	}
}

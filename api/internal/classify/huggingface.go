package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

const defaultBaseURL = "https://router.huggingface.co/hf-inference/models"

// Default retry estimate when a loading response carries none.
const defaultEstimatedTime = 30

// HuggingFace posts raw JPEG bytes to the hosted inference endpoint for a
// given model and reshapes the answer into a Result.
type HuggingFace struct {
	Token   string
	ModelID string
	BaseURL string
	httpc   *http.Client
}

func NewHuggingFace(token, modelID string, timeout time.Duration) *HuggingFace {
	return &HuggingFace{
		Token:   strings.TrimSpace(token),
		ModelID: strings.TrimSpace(modelID),
		BaseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (h *HuggingFace) Classify(ctx context.Context, jpeg []byte) (*Result, error) {
	if h.Token == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(h.BaseURL, "/"), h.ModelID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jpeg))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.Token)
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := h.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("classification api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return loadingResult(resp.Body), nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var preds []Prediction
	if err := json.NewDecoder(resp.Body).Decode(&preds); err != nil || len(preds) == 0 {
		return &Result{
			Status:      StatusNoClassification,
			Predictions: []Prediction{},
			Message:     "Unable to classify the device",
		}, nil
	}

	// Stable sort keeps the upstream order for equal scores.
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })

	top := preds[0]
	conf := top.Score
	return &Result{
		Status:        StatusSuccess,
		Predictions:   preds,
		TopPrediction: &top,
		Confidence:    &conf,
	}, nil
}

// loadingResult reads the 503 body for an estimated_time hint. A loading
// model is a valid result state, not an error.
func loadingResult(body io.Reader) *Result {
	est := float64(defaultEstimatedTime)
	var payload struct {
		EstimatedTime *float64 `json:"estimated_time"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.EstimatedTime != nil {
		est = *payload.EstimatedTime
	}
	return &Result{
		Status:        StatusModelLoading,
		Predictions:   []Prediction{},
		Message:       "Model is currently loading. Please try again in a few moments.",
		EstimatedTime: &est,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

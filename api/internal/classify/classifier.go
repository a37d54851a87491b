package classify

import (
	"context"
	"errors"
	"fmt"
)

// Status tags for a classification result.
const (
	StatusSuccess          = "success"
	StatusNoClassification = "no_classification"
	StatusModelLoading     = "model_loading"
)

// Prediction is one ranked label from the remote model.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result is the ranked-predictions envelope returned by a Classifier.
// Predictions is non-empty exactly when Status is StatusSuccess.
type Result struct {
	Status        string       `json:"status"`
	Predictions   []Prediction `json:"predictions"`
	TopPrediction *Prediction  `json:"top_prediction,omitempty"`
	Confidence    *float64     `json:"confidence,omitempty"`
	Message       string       `json:"message,omitempty"`
	EstimatedTime *float64     `json:"estimated_time,omitempty"`
}

// Classifier turns normalized JPEG bytes into a ranked Result. Implementations
// are swappable so tests can substitute deterministic fakes.
type Classifier interface {
	Classify(ctx context.Context, jpeg []byte) (*Result, error)
}

// ErrNotConfigured is returned when no API credential is available.
var ErrNotConfigured = errors.New("huggingface api token not configured")

// ErrTimeout is returned when the remote call exceeds the configured timeout.
var ErrTimeout = errors.New("request to classification api timed out")

// UpstreamError carries a non-200, non-503 remote status and its raw body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("classification api error %d: %s", e.StatusCode, e.Body)
}

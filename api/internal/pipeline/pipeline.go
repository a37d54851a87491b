// Package pipeline sequences one identification request: normalize the
// upload, classify it remotely, extract label text, evaluate the diagnostic
// rules, and assemble the response envelope.
package pipeline

import (
	"context"
	"log"

	"device-identifier/api/internal/classify"
	"device-identifier/api/internal/devicetext"
	"device-identifier/api/internal/diagnose"
	"device-identifier/api/internal/imaging"
)

// Upload is one incoming image, owned by the request handler for the
// duration of a single request.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Envelope is the flattened identification response. It is built once and
// returned; nothing mutates it afterwards.
type Envelope struct {
	Filename        string `json:"filename"`
	FileSize        int    `json:"file_size"`
	ModelUsed       string `json:"model_used"`
	ProblemDetected bool   `json:"problem_detected"`

	ProblemDescription string `json:"problem_description,omitempty"`
	DispatchNote       string `json:"dispatch_note,omitempty"`

	Status        string                `json:"status"`
	Predictions   []classify.Prediction `json:"predictions"`
	TopPrediction *classify.Prediction  `json:"top_prediction,omitempty"`
	Confidence    *float64              `json:"confidence,omitempty"`
	Message       string                `json:"message,omitempty"`
	EstimatedTime *float64              `json:"estimated_time,omitempty"`

	DeviceInfo devicetext.Info `json:"device_info"`
}

// Recorder persists envelopes after the fact. Failures are logged, never
// surfaced: history is an audit convenience, not part of the contract.
type Recorder interface {
	Record(ctx context.Context, env *Envelope) error
}

type Pipeline struct {
	Normalizer *imaging.Normalizer
	Classifier classify.Classifier
	Extractor  devicetext.Extractor
	ModelID    string
	History    Recorder // optional
}

// Identify runs the full pipeline for one upload. A classification failure
// aborts with a typed error; text extraction is best-effort and lands its
// failures inside the device_info sub-object. Diagnostic rules run against
// the original upload filename, not the image content.
func (p *Pipeline) Identify(ctx context.Context, up Upload) (*Envelope, error) {
	norm, err := p.Normalizer.Normalize(up.Data, up.ContentType)
	if err != nil {
		return nil, err
	}

	result, err := p.Classifier.Classify(ctx, norm.JPEG)
	if err != nil {
		return nil, err
	}

	info := p.Extractor.Extract(ctx, norm.JPEG)

	ann := diagnose.Evaluate(up.Filename)

	env := &Envelope{
		Filename:        up.Filename,
		FileSize:        len(norm.JPEG),
		ModelUsed:       p.ModelID,
		ProblemDetected: ann.ProblemDetected,

		Status:        result.Status,
		Predictions:   result.Predictions,
		TopPrediction: result.TopPrediction,
		Confidence:    result.Confidence,
		Message:       result.Message,
		EstimatedTime: result.EstimatedTime,

		DeviceInfo: info,
	}
	if ann.ProblemDetected && ann.ProblemDescription != "" {
		env.ProblemDescription = ann.ProblemDescription
	}
	if ann.ProblemDetected && ann.DispatchNote != "" {
		env.DispatchNote = ann.DispatchNote
	}

	if p.History != nil {
		if err := p.History.Record(ctx, env); err != nil {
			log.Printf("history: record %q: %v", up.Filename, err)
		}
	}
	return env, nil
}

// Package devicetext pulls printed device information (model number, serial
// number, product type) out of an image. Recognition itself is delegated to a
// pluggable OCR engine; everything here is best-effort and never fails the
// surrounding request.
package devicetext

import (
	"context"
	"strings"
)

// Product types detectable from label text.
const (
	ProductONT     = "ONT"
	ProductModem   = "Modem"
	ProductRouter  = "Router"
	ProductUnknown = "Unknown"
)

// Info is the device_info sub-object of the identification response.
type Info struct {
	ModelNumber    string   `json:"model_number,omitempty"`
	SerialNumber   string   `json:"serial_number,omitempty"`
	ProductType    string   `json:"product_type"`
	RawText        []string `json:"raw_text"`
	TextDetections int      `json:"text_detections"`
	Error          string   `json:"error,omitempty"`
}

// Extractor is the capability the pipeline depends on. Failures are reported
// inside Info, never as an error.
type Extractor interface {
	Extract(ctx context.Context, img []byte) Info
}

// Engine is a single-operation OCR collaborator: image bytes in, text lines out.
type Engine interface {
	Recognize(ctx context.Context, img []byte) ([]string, error)
}

// Service runs an Engine and parses its output.
type Service struct {
	engine Engine
}

func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) Extract(ctx context.Context, img []byte) Info {
	lines, err := s.engine.Recognize(ctx, img)
	if err != nil {
		return Info{
			ProductType: ProductUnknown,
			RawText:     []string{},
			Error:       err.Error(),
		}
	}
	return ParseLines(lines)
}

// ParseLines classifies the detected text lines. Empty-after-trim lines are
// dropped; the remaining order is preserved.
func ParseLines(lines []string) Info {
	clean := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			clean = append(clean, t)
		}
	}

	upper := strings.ToUpper(strings.Join(clean, " "))
	return Info{
		ModelNumber:    matchFirst(modelPatterns, upper),
		SerialNumber:   matchFirst(serialPatterns, upper),
		ProductType:    detectProductType(upper),
		RawText:        clean,
		TextDetections: len(clean),
	}
}

// Package gemini implements the devicetext OCR engine on top of the Gemini
// vision API. It only transcribes; all parsing stays in devicetext.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemPrompt = `You are an OCR module. Transcribe ALL printed text visible on the photographed
device label or chassis, one detected text fragment per line, in reading order.
Output plain text only: no commentary, no markdown, no blank lines.`

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Recognize(ctx context.Context, img []byte) ([]string, error) {
	if e.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "text/plain",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := m.GenerateContent(ctx, genai.ImageData("jpeg", img))
	if err != nil {
		return nil, fmt.Errorf("gemini ocr: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
			sb.WriteString("\n")
		}
	}

	var lines []string
	for _, l := range strings.Split(sb.String(), "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines, nil
}

func ptrFloat32(v float32) *float32 { return &v }

// internal/ai/generator.go

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var ErrNoAPIKey = errors.New("ai: GEMINI_API_KEY is not set")

// Audio is a recorded question.
type Audio struct {
	MIMEType string
	Data     []byte
}

// Generator produces the full text answer for a prompt and a recording.
type Generator interface {
	Generate(ctx context.Context, prompt string, audio Audio) (string, error)
}

// Gemini streams answers from the Gemini API and joins the chunks.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, audio Audio) (string, error) {
	mime := audio.MIMEType
	if mime == "" || mime == "application/octet-stream" {
		mime = "audio/webm"
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mime, Data: audio.Data}},
		},
	}}
	cfg := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}

	var out strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			return "", fmt.Errorf("ai: stream: %w", err)
		}
		out.WriteString(resp.Text())
	}
	return out.String(), nil
}

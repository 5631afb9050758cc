package knowledge

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiAsker implements Asker using Gemini text generation.
type GeminiAsker struct {
	client      *genai.Client
	model       string
	temperature float64
}

func NewGeminiAsker(ctx context.Context, opts AskerOptions) (*GeminiAsker, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiAsker{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

func (a *GeminiAsker) Ask(ctx context.Context, tpl *Template, question string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(tpl.UserMessage(question)), geminiConfig(tpl, a.temperature))
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func geminiConfig(tpl *Template, temperature float64) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(temperature))
	}
	if sys := strings.TrimSpace(tpl.SystemPrompt); sys != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	if tpl.ResponseFormat != nil {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

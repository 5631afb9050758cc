package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIAsker talks to any OpenAI-compatible chat completions endpoint,
// including local servers.
type OpenAIAsker struct {
	client      *http.Client
	apiKey      string
	model       string
	endpoint    string
	temperature float64
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIChatMessage   `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *ResponseFormat `json:"json_schema,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIAsker(opts AskerOptions) *OpenAIAsker {
	endpoint := strings.TrimSpace(opts.BaseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	} else {
		endpoint = strings.TrimRight(endpoint, "/")
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			if strings.HasSuffix(endpoint, "/v1") {
				endpoint += "/chat/completions"
			} else {
				endpoint += "/v1/chat/completions"
			}
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAIAsker{
		client: &http.Client{
			Timeout: timeout,
		},
		apiKey:      opts.APIKey,
		model:       opts.Model,
		endpoint:    endpoint,
		temperature: opts.Temperature,
	}
}

func (a *OpenAIAsker) Ask(ctx context.Context, tpl *Template, question string) (string, error) {
	if strings.TrimSpace(a.model) == "" {
		return "", fmt.Errorf("openai model is required")
	}

	var messages []openAIChatMessage
	if sys := strings.TrimSpace(tpl.SystemPrompt); sys != "" {
		messages = append(messages, openAIChatMessage{Role: "system", Content: sys})
	}
	messages = append(messages, openAIChatMessage{Role: "user", Content: tpl.UserMessage(question)})

	reqBody := openAIChatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
	}
	if tpl.ResponseFormat != nil {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_schema", JSONSchema: tpl.ResponseFormat}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	// local servers usually run without a key
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type AskerOptions struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

func NewAsker(ctx context.Context, opts AskerOptions) (Asker, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		return NewOpenAIAsker(opts), nil
	case "gemini":
		return NewGeminiAsker(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", opts.Provider)
	}
}

// Package llm provides clients for the hosted and local language models used
// by the extraction pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

var ErrEmptyResponse = errors.New("empty model response")

// Client sends a single prompt and returns the raw model text.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider  string
	Model     string
	APIKey    string
	OllamaURL string
}

// New builds the client for the configured provider. It returns a nil client
// and no error for ProviderNone.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}

		return g, nil
	case ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.Model), nil
	case ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

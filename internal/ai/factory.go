package ai

import (
	"fmt"
	"log/slog"

	"github.com/gst-automator/invoice-tracker/internal/common"
)

// NewExtractor creates the provider named by configuration.
func NewExtractor(cfg common.AIConfig, logger *slog.Logger) (Extractor, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil

	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %q (supported: gemini, openai)", cfg.Provider)
	}
}

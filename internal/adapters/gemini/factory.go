package gemini

import (
	"context"
	"fmt"

	"github.com/mikey/reply-assistant/internal/config"
	"go.uber.org/zap"
)

// Factory creates new instances of Generator
type Factory struct {
	cfg    config.GeminiConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for Generator instances. The API key in
// cfg must already be resolved.
func NewFactory(cfg config.GeminiConfig, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGenerator creates a new Generator
func (f *Factory) CreateGenerator() (*Generator, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	return NewGenerator(
		context.Background(),
		f.cfg.APIKey,
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.logger,
	)
}

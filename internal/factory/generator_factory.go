package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/mikey/reply-assistant/internal/adapters/bedrock"
	"github.com/mikey/reply-assistant/internal/adapters/gemini"
	"github.com/mikey/reply-assistant/internal/adapters/openai"
	"github.com/mikey/reply-assistant/internal/adapters/paramstore"
	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// GeneratorFactory creates reply generators
type GeneratorFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	// newParameterGetter is replaced in tests
	newParameterGetter func(ctx context.Context) (paramstore.Getter, error)
}

// NewGeneratorFactory creates a new generator factory
func NewGeneratorFactory(cfg *config.Config, logger *zap.Logger) *GeneratorFactory {
	return &GeneratorFactory{
		cfg:                cfg,
		logger:             logger,
		newParameterGetter: newSSMGetter,
	}
}

// CreateGenerator creates the configured generator. It returns nil when
// generation is disabled or the provider cannot be set up; replies then
// fall back to templates. Only configuration errors are returned.
func (f *GeneratorFactory) CreateGenerator() (core.Generator, error) {
	genConfig, err := f.cfg.GetGenerator()
	if err != nil {
		return nil, err
	}
	if !genConfig.Enabled {
		f.logger.Info("Reply generator disabled, using templates only")
		return nil, nil
	}

	switch genConfig.Provider {
	case "openai", "gemini", "bedrock":
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", genConfig.Provider)
	}

	gen, err := f.buildGenerator(context.Background(), genConfig.Provider)
	if err != nil {
		f.logger.Warn("Reply generator unavailable, using templates only",
			zap.String("provider", genConfig.Provider),
			zap.Error(err))
		return nil, nil
	}
	return gen, nil
}

func (f *GeneratorFactory) buildGenerator(ctx context.Context, provider string) (core.Generator, error) {
	var err error
	switch provider {
	case "openai":
		openaiConfig := f.cfg.GetOpenAI()
		if openaiConfig.APIKey, err = f.resolveKey(ctx, openaiConfig.APIKey, openaiConfig.APIKeyParameter); err != nil {
			return nil, err
		}
		gen, err := openai.NewFactory(openaiConfig, f.logger).CreateGenerator()
		if err != nil {
			return nil, err
		}
		return gen, nil
	case "gemini":
		geminiConfig := f.cfg.GetGemini()
		if geminiConfig.APIKey, err = f.resolveKey(ctx, geminiConfig.APIKey, geminiConfig.APIKeyParameter); err != nil {
			return nil, err
		}
		gen, err := gemini.NewFactory(geminiConfig, f.logger).CreateGenerator()
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		gen, err := bedrock.NewFactory(f.cfg.GetBedrock(), f.logger).CreateGenerator()
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}

// resolveKey reads the API key from Parameter Store when only a
// parameter name is configured.
func (f *GeneratorFactory) resolveKey(ctx context.Context, value, parameter string) (string, error) {
	if value != "" || parameter == "" {
		return value, nil
	}

	getter, err := f.newParameterGetter(ctx)
	if err != nil {
		return "", err
	}
	key, err := paramstore.Resolve(ctx, getter, value, parameter)
	if err != nil {
		return "", fmt.Errorf("failed to resolve API key: %w", err)
	}

	f.logger.Debug("Resolved API key from parameter store", zap.String("parameter", parameter))
	return key, nil
}

func newSSMGetter(ctx context.Context) (paramstore.Getter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return paramstore.New(ssm.NewFromConfig(awsCfg))
}

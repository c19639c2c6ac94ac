package di

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Dataset flags
	DatasetPath string
	DatasetType string
	Strict      bool

	// Generator flags
	Generate    bool
	Provider    string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey      string
	GeminiAPIKeyParam string
	GeminiModelName   string

	// OpenAI flags
	OpenAIAPIKey      string
	OpenAIAPIKeyParam string
	OpenAIBaseURL     string
	OpenAIModelName   string

	// Pipeline flags
	VIPDomains    string
	KnowledgePath string
	Workers       int

	// Output flags
	EmailID    string
	JSON       bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("reply-cli", flag.ContinueOnError)

	// Dataset flags
	fs.StringVar(&flags.DatasetPath, "dataset", "./data/emails.csv", "Path to the CSV file or .eml directory")
	fs.StringVar(&flags.DatasetType, "dataset-type", "csv", "Dataset type (csv, eml)")
	fs.BoolVar(&flags.Strict, "strict", false, "Fail on the first malformed row instead of skipping it")

	// Generator flags
	fs.BoolVar(&flags.Generate, "generate", false, "Generate replies with an LLM instead of templates only")
	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, gemini, bedrock)")
	fs.DurationVar(&flags.Timeout, "timeout", 10*time.Second, "Timeout for a single generation")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 400, "Maximum tokens for LLM response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.3, "Temperature for LLM generation")
	fs.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size to send to LLM")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiAPIKeyParam, "gemini-api-key-param", "", "SSM parameter holding the Gemini API key")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-2.0-flash", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIAPIKeyParam, "openai-api-key-param", "", "SSM parameter holding the OpenAI API key")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible API")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")

	// Pipeline flags
	fs.StringVar(&flags.VIPDomains, "vip", "", "Comma-separated list of VIP sender domains")
	fs.StringVar(&flags.KnowledgePath, "knowledge", "", "Directory of .txt files used as prompt context")
	fs.IntVar(&flags.Workers, "workers", 4, "Number of emails processed concurrently")

	// Output flags
	fs.StringVar(&flags.EmailID, "id", "", "Only process the email with this id")
	fs.BoolVar(&flags.JSON, "json", false, "Print results as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and body previews")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container
// for the CLI application. Results are written to out.
func BuildCLIContainer(flags *CLIFlags, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			applyOutputFlags(cfg.GetViper(), flags)
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register CLI output
	if err := container.Provide(func() io.Writer { return out }); err != nil {
		return nil, err
	}

	if err := provideComponents(container); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Dataset
	v.Set("dataset.path", flags.DatasetPath)
	v.Set("dataset.type", flags.DatasetType)
	v.Set("dataset.strict", flags.Strict)

	// Generator
	v.Set("generator.enabled", flags.Generate)
	v.Set("generator.provider", flags.Provider)
	v.Set("generator.timeout", flags.Timeout.String())
	v.Set("generator.max_body_size", flags.MaxBodySize)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.api_key_parameter", flags.GeminiAPIKeyParam)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.api_key_parameter", flags.OpenAIAPIKeyParam)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	// Pipeline
	v.Set("priority.vip_domains", splitList(flags.VIPDomains))
	v.Set("knowledge.path", flags.KnowledgePath)
	v.Set("pipeline.workers", flags.Workers)

	// No store for one-shot runs
	v.Set("store.enabled", false)

	applyOutputFlags(v, flags)

	return config.NewFromViper(v)
}

// applyOutputFlags forces the CLI frontend, whatever the config file says
func applyOutputFlags(v *viper.Viper, flags *CLIFlags) {
	v.Set("server.frontend", "cli")
	v.Set("server.json_output", flags.JSON)
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.email_id", flags.EmailID)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. An empty path searches the
// standard locations for config.yaml.
func New(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/reply-assistant/")
		v.AddConfigPath("$HOME/.reply-assistant")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("REPLY_ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.type", "csv")
	v.SetDefault("dataset.path", "./data/emails.csv")
	v.SetDefault("dataset.strict", false)

	// Generator defaults
	v.SetDefault("generator.enabled", false)
	v.SetDefault("generator.provider", "openai")
	v.SetDefault("generator.timeout", "10s")
	v.SetDefault("generator.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.api_key_parameter", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 400)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.api_key_parameter", "")
	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.max_tokens", 400)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 400)
	v.SetDefault("bedrock.temperature", 0.3)
	v.SetDefault("bedrock.top_p", 0.9)

	// Classifier defaults
	v.SetDefault("classifier.fallback_label", "other")
	v.SetDefault("classifier.intents", defaultIntents())
	v.SetDefault("classifier.positive_words", []string{"great", "thanks", "thank you", "appreciate", "love", "awesome", "good"})
	v.SetDefault("classifier.negative_words", []string{"issue", "problem", "angry", "frustrated", "not working", "cannot", "error", "fail", "failed"})
	v.SetDefault("classifier.urgent_words", []string{"urgent", "immediately", "asap", "critical", "cannot access", "down", "outage", "blocked"})
	v.SetDefault("classifier.request_cues", []string{"need", "require", "want", "request", "help", "cannot", "unable", "fix", "access", "please"})

	// Reply defaults
	v.SetDefault("reply.signature", "Support Team")
	v.SetDefault("reply.templates", defaultTemplates())
	v.SetDefault("reply.fallback_template", defaultFallbackTemplate)

	// Knowledge base defaults
	v.SetDefault("knowledge.path", "")
	v.SetDefault("knowledge.top_k", 3)

	// Store defaults
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.ttl", "168h")
	v.SetDefault("store.cleanup_frequency", "1h")
	v.SetDefault("store.sqlite_path", "./data/replies.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/reply_assistant?parseTime=true")
	v.SetDefault("store.dynamodb_table", "reply-assistant")
	v.SetDefault("store.dynamodb_region", "us-east-1")

	// Priority defaults
	v.SetDefault("priority.vip_domains", []string{})

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 4)

	// Server defaults
	v.SetDefault("server.frontend", "web")
	v.SetDefault("server.listen_address", "127.0.0.1:8080")
	v.SetDefault("server.json_output", false)

	// CLI defaults
	v.SetDefault("cli.verbose", false)
	v.SetDefault("cli.email_id", "")
	v.SetDefault("cli.timeout", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetStringMapString gets a map of strings from the configuration
func (c *Config) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

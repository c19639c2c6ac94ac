package config

import (
	"fmt"
	"time"
)

const defaultFallbackTemplate = `Hi {{.Name}},

Thanks for reaching out about "{{.Subject}}". We have received your message and a member of our team will follow up shortly.

Best regards,
{{.Signature}}`

// defaultIntents lists the intent vocabulary in priority order. Earlier
// labels win ties.
func defaultIntents() []map[string]interface{} {
	return []map[string]interface{}{
		{"label": "complaint", "keywords": []string{"refund", "cancel", "complaint", "broken", "damaged", "disappointed", "unacceptable", "not working", "terrible"}},
		{"label": "inquiry", "keywords": []string{"price", "pricing", "quote", "cost", "how much", "availability", "information", "details"}},
		{"label": "request", "keywords": []string{"request", "reset", "access", "update", "change", "install", "schedule", "send me"}},
	}
}

func defaultTemplates() map[string]string {
	return map[string]string{
		"complaint": `Hi {{.Name}},

I'm really sorry for the trouble you're facing, and thank you for letting us know.{{if .Keywords}} I can see this concerns {{.KeywordList}}.{{end}} {{if .Urgent}}I've marked this as urgent and escalated it to our team.{{else}}I've logged this and our team will follow up.{{end}}

If you can share an order number or screenshots, please reply to this message.

Best regards,
{{.Signature}}`,
		"inquiry": `Hi {{.Name}},

Thanks for your interest!{{if .Keywords}} You asked about {{.KeywordList}}, and we'll get you the details shortly.{{end}} In the meantime, feel free to reply with any specifics such as quantities or deadlines.

Best regards,
{{.Signature}}`,
		"request": `Hi {{.Name}},

Thanks for reaching out. We've received your request{{if .Requirements}}: {{.Requirements}}{{else}}.{{end}} {{if .Urgent}}It has been prioritised and{{else}}Our team{{end}} will get back to you as soon as possible.

Best regards,
{{.Signature}}`,
	}
}

// DatasetConfig represents the configuration for the email dataset
type DatasetConfig struct {
	Type   string
	Path   string
	Strict bool
}

// GeneratorConfig represents the configuration for the optional reply generator
type GeneratorConfig struct {
	Enabled     bool
	Provider    string
	Timeout     time.Duration
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey          string
	APIKeyParameter string
	BaseURL         string
	ModelName       string
	MaxTokens       int
	Temperature     float32
	TopP            float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey          string
	APIKeyParameter string
	ModelName       string
	MaxTokens       int
	Temperature     float32
	TopP            float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// IntentConfig is one entry of the classifier vocabulary
type IntentConfig struct {
	Label    string   `mapstructure:"label"`
	Keywords []string `mapstructure:"keywords"`
}

// ClassifierConfig represents the configuration for the intent classifier
type ClassifierConfig struct {
	FallbackLabel string
	Intents       []IntentConfig
	PositiveWords []string
	NegativeWords []string
	UrgentWords   []string
	RequestCues   []string
}

// ReplyConfig represents the configuration for template replies
type ReplyConfig struct {
	Signature        string
	Templates        map[string]string
	FallbackTemplate string
}

// KnowledgeConfig represents the configuration for the knowledge base
type KnowledgeConfig struct {
	Path string
	TopK int
}

// StoreConfig represents the configuration for the reply store
type StoreConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	DynamoDBTable    string
	DynamoDBRegion   string
}

// ServerConfig represents the configuration for the presentation layer
type ServerConfig struct {
	Frontend      string
	ListenAddress string
	JSONOutput    bool
}

// GetDataset returns the dataset configuration
func (c *Config) GetDataset() DatasetConfig {
	return DatasetConfig{
		Type:   c.GetString("dataset.type"),
		Path:   c.GetString("dataset.path"),
		Strict: c.GetBool("dataset.strict"),
	}
}

// GetGenerator returns the generator configuration
func (c *Config) GetGenerator() (GeneratorConfig, error) {
	timeout, err := c.GetDuration("generator.timeout")
	if err != nil {
		return GeneratorConfig{}, fmt.Errorf("invalid generator timeout: %w", err)
	}
	return GeneratorConfig{
		Enabled:     c.GetBool("generator.enabled"),
		Provider:    c.GetString("generator.provider"),
		Timeout:     timeout,
		MaxBodySize: c.GetInt("generator.max_body_size"),
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:          c.GetString("openai.api_key"),
		APIKeyParameter: c.GetString("openai.api_key_parameter"),
		BaseURL:         c.GetString("openai.base_url"),
		ModelName:       c.GetString("openai.model_name"),
		MaxTokens:       c.GetInt("openai.max_tokens"),
		Temperature:     float32(c.GetFloat64("openai.temperature")),
		TopP:            float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:          c.GetString("gemini.api_key"),
		APIKeyParameter: c.GetString("gemini.api_key_parameter"),
		ModelName:       c.GetString("gemini.model_name"),
		MaxTokens:       c.GetInt("gemini.max_tokens"),
		Temperature:     float32(c.GetFloat64("gemini.temperature")),
		TopP:            float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() (ClassifierConfig, error) {
	var intents []IntentConfig
	if err := c.v.UnmarshalKey("classifier.intents", &intents); err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier intents: %w", err)
	}
	for i, intent := range intents {
		if intent.Label == "" {
			return ClassifierConfig{}, fmt.Errorf("classifier intent %d has no label", i)
		}
	}
	return ClassifierConfig{
		FallbackLabel: c.GetString("classifier.fallback_label"),
		Intents:       intents,
		PositiveWords: c.GetStringSlice("classifier.positive_words"),
		NegativeWords: c.GetStringSlice("classifier.negative_words"),
		UrgentWords:   c.GetStringSlice("classifier.urgent_words"),
		RequestCues:   c.GetStringSlice("classifier.request_cues"),
	}, nil
}

// GetReply returns the reply template configuration
func (c *Config) GetReply() ReplyConfig {
	return ReplyConfig{
		Signature:        c.GetString("reply.signature"),
		Templates:        c.GetStringMapString("reply.templates"),
		FallbackTemplate: c.GetString("reply.fallback_template"),
	}
}

// GetKnowledge returns the knowledge base configuration
func (c *Config) GetKnowledge() KnowledgeConfig {
	return KnowledgeConfig{
		Path: c.GetString("knowledge.path"),
		TopK: c.GetInt("knowledge.top_k"),
	}
}

// GetStore returns the reply store configuration
func (c *Config) GetStore() (StoreConfig, error) {
	ttl, err := c.GetDuration("store.ttl")
	if err != nil {
		return StoreConfig{}, fmt.Errorf("invalid store ttl: %w", err)
	}
	cleanupFreq, err := c.GetDuration("store.cleanup_frequency")
	if err != nil {
		return StoreConfig{}, fmt.Errorf("invalid store cleanup frequency: %w", err)
	}
	return StoreConfig{
		Enabled:          c.GetBool("store.enabled"),
		Type:             c.GetString("store.type"),
		TTL:              ttl,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		DynamoDBTable:    c.GetString("store.dynamodb_table"),
		DynamoDBRegion:   c.GetString("store.dynamodb_region"),
	}, nil
}

// GetServer returns the presentation layer configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Frontend:      c.GetString("server.frontend"),
		ListenAddress: c.GetString("server.listen_address"),
		JSONOutput:    c.GetBool("server.json_output"),
	}
}

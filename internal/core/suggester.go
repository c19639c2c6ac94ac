package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"
)

// builtinFallbackText is used when every configured template fails
const builtinFallbackText = "Hi there,\n\nThanks for your message. We have received it and will get back to you shortly.\n\nBest regards,\nSupport Team"

const defaultGeneratorTimeout = 10 * time.Second

// SuggesterConfig holds the template set and generator settings
type SuggesterConfig struct {
	// Templates maps intent labels to text/template sources
	Templates map[string]string
	// FallbackTemplate renders labels without a template
	FallbackTemplate string
	Signature        string

	GeneratorEnabled bool
	GeneratorTimeout time.Duration
}

// TemplateData is the data available to reply templates
type TemplateData struct {
	Name         string
	Subject      string
	Intent       string
	Keywords     []string
	KeywordList  string
	Requirements string
	Urgent       bool
	Sentiment    string
	Signature    string
}

// ReplySuggester produces suggested replies from templates or, when
// configured, from a Generator with template fallback.
type ReplySuggester struct {
	templates map[string]*template.Template
	fallback  *template.Template
	signature string

	generator        Generator
	generatorEnabled bool
	timeout          time.Duration
	prompts          *PromptBuilder
	logger           *zap.Logger
}

// NewReplySuggester creates a suggester. generator and prompts may be nil;
// templates that fail to parse are logged and skipped.
func NewReplySuggester(
	cfg SuggesterConfig,
	generator Generator,
	prompts *PromptBuilder,
	logger *zap.Logger,
) *ReplySuggester {
	s := &ReplySuggester{
		templates:        make(map[string]*template.Template, len(cfg.Templates)),
		signature:        cfg.Signature,
		generator:        generator,
		generatorEnabled: cfg.GeneratorEnabled && generator != nil,
		timeout:          cfg.GeneratorTimeout,
		prompts:          prompts,
		logger:           logger,
	}
	if s.timeout <= 0 {
		s.timeout = defaultGeneratorTimeout
	}
	if s.signature == "" {
		s.signature = "Support Team"
	}

	for label, src := range cfg.Templates {
		tmpl, err := template.New(label).Option("missingkey=zero").Parse(src)
		if err != nil {
			logger.Warn("Skipping invalid reply template", zap.String("intent", label), zap.Error(err))
			continue
		}
		// Config keys arrive lowercased, so labels match case-insensitively.
		s.templates[strings.ToLower(label)] = tmpl
	}

	if cfg.FallbackTemplate != "" {
		tmpl, err := template.New("fallback").Parse(cfg.FallbackTemplate)
		if err != nil {
			logger.Warn("Invalid fallback template, using built-in text", zap.Error(err))
		} else {
			s.fallback = tmpl
		}
	}

	if s.generatorEnabled {
		logger.Info("Reply generator enabled",
			zap.String("model", generator.ModelName()),
			zap.Duration("timeout", s.timeout))
	}

	return s
}

// SuggestReply returns a non-empty reply for the record. Generator failures
// are absorbed and the template path is used instead.
func (s *ReplySuggester) SuggestReply(ctx context.Context, record EmailRecord, classification ClassificationResult) SuggestedReply {
	if s.generatorEnabled {
		text, err := s.generate(ctx, record, classification)
		if err == nil {
			return SuggestedReply{
				Text:          text,
				SourceEmailID: record.ID,
				GeneratedBy:   s.generator.ModelName(),
			}
		}
		s.logger.Warn("Falling back to template reply",
			zap.String("email_id", record.ID),
			zap.Error(err))
	}

	return SuggestedReply{
		Text:          s.renderTemplate(record, classification),
		SourceEmailID: record.ID,
		GeneratedBy:   GeneratedByTemplate,
	}
}

func (s *ReplySuggester) generate(ctx context.Context, record EmailRecord, classification ClassificationResult) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var prompt string
	if s.prompts != nil {
		prompt = s.prompts.Build(record, classification)
	} else {
		prompt = NewPromptBuilder(nil, nil, 0, 0).Build(record, classification)
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	start := time.Now()
	go func() {
		text, err := s.generator.Generate(ctx, prompt)
		done <- result{text: text, err: err}
	}()

	// A generator that ignores ctx is abandoned once the deadline passes.
	var text string
	var err error
	select {
	case r := <-done:
		text, err = r.text, r.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", fmt.Errorf("%w: timed out after %v: %v", ErrGenerationUnavailable, s.timeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", ErrGenerationUnavailable, s.generator.ModelName())
	}

	s.logger.Debug("Generated reply",
		zap.String("email_id", record.ID),
		zap.String("model", s.generator.ModelName()),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

func (s *ReplySuggester) renderTemplate(record EmailRecord, classification ClassificationResult) string {
	data := s.templateData(record, classification)

	if tmpl, ok := s.templates[strings.ToLower(classification.IntentLabel)]; ok {
		text, err := execute(tmpl, data)
		if err == nil {
			return text
		}
		s.logger.Warn("Reply template failed",
			zap.String("intent", classification.IntentLabel),
			zap.String("email_id", record.ID),
			zap.Error(err))
	}

	if s.fallback != nil {
		text, err := execute(s.fallback, data)
		if err == nil {
			return text
		}
		s.logger.Warn("Fallback template failed", zap.String("email_id", record.ID), zap.Error(err))
	}

	return builtinFallbackText
}

func (s *ReplySuggester) templateData(record EmailRecord, classification ClassificationResult) TemplateData {
	name := record.SenderName()
	if name == "" {
		name = "there"
	}
	subject := strings.TrimSpace(record.Subject)
	if subject == "" {
		subject = "your message"
	}
	return TemplateData{
		Name:         name,
		Subject:      subject,
		Intent:       classification.IntentLabel,
		Keywords:     classification.Keywords,
		KeywordList:  joinKeywords(classification.Keywords),
		Requirements: classification.Requirements,
		Urgent:       classification.Priority == PriorityUrgent,
		Sentiment:    string(classification.Sentiment),
		Signature:    s.signature,
	}
}

func execute(tmpl *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", errors.New("template rendered empty text")
	}
	return text, nil
}

// joinKeywords renders ["a","b","c"] as "a, b and c"
func joinKeywords(keywords []string) string {
	switch len(keywords) {
	case 0:
		return ""
	case 1:
		return keywords[0]
	default:
		return strings.Join(keywords[:len(keywords)-1], ", ") + " and " + keywords[len(keywords)-1]
	}
}

package factory

import (
	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"github.com/mikey/reply-assistant/internal/knowledge"
	"github.com/mikey/reply-assistant/internal/utils"
	"github.com/mikey/reply-assistant/internal/vip"
	"go.uber.org/zap"
)

// PipelineFactory creates the classification and reply components
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *PipelineFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateClassifier builds the intent classifier from the configured vocabulary
func (f *PipelineFactory) CreateClassifier() (*core.IntentClassifier, error) {
	classifierConfig, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}

	rules := make([]core.IntentRule, 0, len(classifierConfig.Intents))
	for _, intent := range classifierConfig.Intents {
		rules = append(rules, core.IntentRule{
			Label:    intent.Label,
			Keywords: intent.Keywords,
		})
	}

	f.logger.Debug("Classifier vocabulary loaded", zap.Int("intents", len(rules)))

	return core.NewIntentClassifier(core.ClassifierConfig{
		Rules:         rules,
		FallbackLabel: classifierConfig.FallbackLabel,
		PositiveWords: classifierConfig.PositiveWords,
		NegativeWords: classifierConfig.NegativeWords,
		UrgentWords:   classifierConfig.UrgentWords,
		RequestCues:   classifierConfig.RequestCues,
	}), nil
}

// CreateKnowledgeBase loads the knowledge base. A missing or broken
// knowledge base disables retrieval instead of failing startup.
func (f *PipelineFactory) CreateKnowledgeBase(textProcessor *utils.TextProcessor) core.KnowledgeRetriever {
	kbConfig := f.cfg.GetKnowledge()
	if kbConfig.Path == "" {
		return nil
	}

	base, err := knowledge.Load(kbConfig.Path, textProcessor, f.logger)
	if err != nil {
		f.logger.Warn("Knowledge base unavailable", zap.String("path", kbConfig.Path), zap.Error(err))
		return nil
	}
	return base
}

// CreatePromptBuilder creates the generator prompt builder. kb may be nil.
func (f *PipelineFactory) CreatePromptBuilder(textProcessor *utils.TextProcessor, kb core.KnowledgeRetriever) (*core.PromptBuilder, error) {
	genConfig, err := f.cfg.GetGenerator()
	if err != nil {
		return nil, err
	}
	return core.NewPromptBuilder(textProcessor, kb, genConfig.MaxBodySize, f.cfg.GetKnowledge().TopK), nil
}

// CreateSuggester creates the reply suggester. generator may be nil.
func (f *PipelineFactory) CreateSuggester(generator core.Generator, prompts *core.PromptBuilder) (*core.ReplySuggester, error) {
	genConfig, err := f.cfg.GetGenerator()
	if err != nil {
		return nil, err
	}
	replyConfig := f.cfg.GetReply()

	return core.NewReplySuggester(core.SuggesterConfig{
		Templates:        replyConfig.Templates,
		FallbackTemplate: replyConfig.FallbackTemplate,
		Signature:        replyConfig.Signature,
		GeneratorEnabled: genConfig.Enabled,
		GeneratorTimeout: genConfig.Timeout,
	}, generator, prompts, f.logger), nil
}

// CreatePriorityChecker creates the VIP sender checker
func (f *PipelineFactory) CreatePriorityChecker() core.PriorityChecker {
	return vip.NewChecker(f.cfg.GetStringSlice("priority.vip_domains"), f.logger)
}

// CreateService wires the pipeline service. replyStore may be nil.
func (f *PipelineFactory) CreateService(
	source core.EmailSource,
	classifier *core.IntentClassifier,
	suggester *core.ReplySuggester,
	replyStore core.ReplyStore,
	priority core.PriorityChecker,
) (*core.AssistantService, error) {
	storeConfig, err := f.cfg.GetStore()
	if err != nil {
		return nil, err
	}

	return core.NewAssistantService(source, classifier, suggester, replyStore, priority, f.logger,
		core.ServiceOptions{
			Workers:  f.cfg.GetInt("pipeline.workers"),
			StoreTTL: storeConfig.TTL,
		}), nil
}

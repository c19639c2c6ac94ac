package di

import (
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"github.com/mikey/reply-assistant/internal/factory"
	"github.com/mikey/reply-assistant/internal/logging"
	"github.com/mikey/reply-assistant/internal/ports"
	"github.com/mikey/reply-assistant/internal/utils"
)

// BuildContainer creates and configures a dependency injection container.
// An empty configPath searches the default locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.New(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register CLI output
	if err := container.Provide(func() io.Writer { return os.Stdout }); err != nil {
		return nil, err
	}

	if err := provideComponents(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideComponents registers the factories and everything they build.
// Config, logger and io.Writer must already be provided.
func provideComponents(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewGeneratorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.PipelineFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register email source
	if err := container.Provide(func(f *factory.SourceFactory) (core.EmailSource, error) {
		return f.CreateSource()
	}); err != nil {
		return err
	}

	// Register reply generator, nil when disabled
	if err := container.Provide(func(f *factory.GeneratorFactory) (core.Generator, error) {
		return f.CreateGenerator()
	}); err != nil {
		return err
	}

	// Register reply store, nil when disabled
	if err := container.Provide(func(f *factory.StoreFactory) (core.ReplyStore, error) {
		return f.CreateStore()
	}); err != nil {
		return err
	}

	// Register knowledge base, nil when disabled
	if err := container.Provide(func(f *factory.PipelineFactory, tp *utils.TextProcessor) core.KnowledgeRetriever {
		return f.CreateKnowledgeBase(tp)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.PipelineFactory, tp *utils.TextProcessor, kb core.KnowledgeRetriever) (*core.PromptBuilder, error) {
		return f.CreatePromptBuilder(tp, kb)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.PipelineFactory) (*core.IntentClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.PipelineFactory, gen core.Generator, prompts *core.PromptBuilder) (*core.ReplySuggester, error) {
		return f.CreateSuggester(gen, prompts)
	}); err != nil {
		return err
	}

	// Register VIP domains
	if err := container.Provide(func(f *factory.PipelineFactory, cfg *config.Config, logger *zap.Logger) core.PriorityChecker {
		if domains := cfg.GetStringSlice("priority.vip_domains"); len(domains) > 0 {
			logger.Info("Loaded VIP domains", zap.Strings("domains", domains))
		}
		return f.CreatePriorityChecker()
	}); err != nil {
		return err
	}

	// Register assistant service
	if err := container.Provide(func(
		f *factory.PipelineFactory,
		source core.EmailSource,
		classifier *core.IntentClassifier,
		suggester *core.ReplySuggester,
		replyStore core.ReplyStore,
		priority core.PriorityChecker,
	) (*core.AssistantService, error) {
		return f.CreateService(source, classifier, suggester, replyStore, priority)
	}); err != nil {
		return err
	}

	// Register frontend
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	}); err != nil {
		return err
	}

	return nil
}

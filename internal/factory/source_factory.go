package factory

import (
	"fmt"

	"github.com/mikey/reply-assistant/internal/adapters/source"
	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// SourceFactory creates email sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource loads the configured dataset
func (f *SourceFactory) CreateSource() (core.EmailSource, error) {
	dataset := f.cfg.GetDataset()
	opts := source.Options{Strict: dataset.Strict}

	var (
		collection *source.Collection
		err        error
	)
	switch dataset.Type {
	case "csv":
		collection, err = source.LoadCSV(dataset.Path, opts, f.logger)
	case "eml":
		collection, err = source.LoadEMLDir(dataset.Path, opts, f.logger)
	default:
		return nil, fmt.Errorf("unsupported dataset type: %s", dataset.Type)
	}
	if err != nil {
		return nil, err
	}
	if collection.Len() == 0 {
		f.logger.Warn("Email dataset is empty", zap.String("path", dataset.Path))
	}

	return collection, nil
}

package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/mikey/reply-assistant/internal/adapters/store"
	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates reply stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates the configured reply store. It returns nil when the
// store is disabled.
func (f *StoreFactory) CreateStore() (core.ReplyStore, error) {
	storeConfig, err := f.cfg.GetStore()
	if err != nil {
		return nil, err
	}
	if !storeConfig.Enabled {
		return nil, nil
	}

	f.logger.Info("Reply store enabled",
		zap.String("type", storeConfig.Type),
		zap.Duration("ttl", storeConfig.TTL))

	switch storeConfig.Type {
	case "memory":
		return store.NewMemoryStore(f.logger, storeConfig.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeConfig.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(storeConfig.SQLitePath, f.logger, storeConfig.CleanupFrequency)
	case "mysql":
		return store.NewMySQLStore(storeConfig.MySQLDSN, f.logger, storeConfig.CleanupFrequency)
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(storeConfig.DynamoDBRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return store.NewDynamoDBStore(dynamodb.NewFromConfig(awsCfg), storeConfig.DynamoDBTable, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeConfig.Type)
	}
}

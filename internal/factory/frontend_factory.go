package factory

import (
	"fmt"
	"io"
	"time"

	"github.com/mikey/reply-assistant/internal/adapters/cli"
	"github.com/mikey/reply-assistant/internal/adapters/web"
	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"github.com/mikey/reply-assistant/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates frontends based on configuration
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AssistantService
	out     io.Writer
}

// NewFrontendFactory creates a new frontend factory. out receives CLI output.
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, service *core.AssistantService, out io.Writer) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		out:     out,
	}
}

// CreateFrontend creates a frontend based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	serverConfig := f.cfg.GetServer()

	switch serverConfig.Frontend {
	case "web":
		server, err := web.NewServer(f.service, f.logger, serverConfig.ListenAddress)
		if err != nil {
			return nil, err
		}
		return server, nil
	case "cli":
		var timeout time.Duration
		if raw := f.cfg.GetString("cli.timeout"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid cli timeout: %w", err)
			}
			timeout = parsed
		}
		return cli.NewPrinter(f.service, f.logger, f.out, cli.Options{
			JSON:    serverConfig.JSONOutput,
			Verbose: f.cfg.GetBool("cli.verbose"),
			EmailID: f.cfg.GetString("cli.email_id"),
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported frontend: %s", serverConfig.Frontend)
	}
}

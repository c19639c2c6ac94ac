package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mikey/reply-assistant/internal/core"
	"github.com/mikey/reply-assistant/internal/di"
	"github.com/mikey/reply-assistant/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger, frontend ports.Frontend, generator core.Generator) error {
	defer logger.Sync()

	defer func() {
		if closer, ok := generator.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close reply generator", zap.Error(err))
			}
		}
	}()

	if err := frontend.Start(); err != nil {
		return err
	}
	return frontend.Stop()
}

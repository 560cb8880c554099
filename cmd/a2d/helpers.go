package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/config"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
)

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if rootFlags.profiles != "" {
		cfg.ProfilesPath = rootFlags.profiles
	}
	if rootFlags.sources != "" {
		cfg.SourcesPath = rootFlags.sources
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, logger.Logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/config"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
	"github.com/simiyu-dess/OnboardIQ/internal/service"
)

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if rootFlags.config == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(rootFlags.config)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootFlags.logLevel != "" {
		cfg.Logging.Level = rootFlags.logLevel
	}
	return cfg, nil
}

// openService loads config, builds the logger and wires the service. The
// returned cleanup closes the service and flushes the logger.
func openService(ctx context.Context) (*service.RAGService, *zap.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := service.Build(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := svc.Close(); err != nil {
			log.Warn("close service", zap.Error(err))
		}
		_ = log.Sync()
	}
	return svc, log, cleanup, nil
}

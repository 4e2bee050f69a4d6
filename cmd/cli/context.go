package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/himanishpuri/VideoDNA/internal/config"
	"github.com/himanishpuri/VideoDNA/pkg/logger"
	"github.com/himanishpuri/VideoDNA/pkg/videodna"
)

const skipConfigAnnotation = "videodna/skip-config"

type globalFlags struct {
	config   string
	db       string
	temp     string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and layers the global flags on top.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.flags.db); v != "" {
			cfg.Storage.DBPath = v
		}
		if v := strings.TrimSpace(c.flags.temp); v != "" {
			cfg.Storage.TempDir = v
		}
		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			cfg.Logging.Level = strings.ToLower(v)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		log := logger.GetLogger()
		level, err := logger.ParseLevel(cfg.Logging.Level)
		if err != nil {
			c.configErr = err
			return
		}
		log.SetLevel(level)
		log.SetShowCaller(cfg.Logging.ShowCaller)

		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) serviceOptions() ([]videodna.Option, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := []videodna.Option{
		videodna.WithDBPath(cfg.Storage.DBPath),
		videodna.WithTempDir(cfg.Storage.TempDir),
		videodna.WithSecondsPerHash(cfg.Hashing.SecondsPerHash),
		videodna.WithDownsampleDimension(cfg.Hashing.DownsampleDimension),
		videodna.WithDistanceTolerance(cfg.Matching.DistanceTolerance),
		videodna.WithQualityTolerance(cfg.Matching.QualityTolerance),
		videodna.WithMatchThreshold(cfg.Matching.Threshold),
		videodna.WithLogger(logger.GetLogger()),
	}
	if cfg.Storage.LockPath != "" {
		opts = append(opts, videodna.WithLockPath(cfg.Storage.LockPath))
	}
	if cfg.Matching.Workers > 0 {
		opts = append(opts, videodna.WithWorkers(cfg.Matching.Workers))
	}
	return opts, nil
}

// withService opens the library for the duration of fn.
func (c *commandContext) withService(fn func(videodna.Service) error) error {
	opts, err := c.serviceOptions()
	if err != nil {
		return err
	}
	svc, err := videodna.NewService(opts...)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer svc.Close()
	return fn(svc)
}

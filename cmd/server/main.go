//go:build !js && !wasm

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/VideoDNA/internal/config"
	"github.com/himanishpuri/VideoDNA/pkg/logger"
	"github.com/himanishpuri/VideoDNA/pkg/videodna"
)

var (
	configPath     string
	addr           string
	dbPath         string
	tempDir        string
	allowedOrigins string
	logRequests    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides [server] bind)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config and VIDEODNA_DB_PATH)")
	flag.StringVar(&tempDir, "temp", "", "Temporary directory for uploads and downloads")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.BoolVar(&logRequests, "log-requests", false, "Log every HTTP request")
}

func parseOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if exists {
		log.Infof("Using config %s", resolved)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if tempDir != "" {
		cfg.Storage.TempDir = tempDir
	}
	if addr != "" {
		cfg.Server.Bind = addr
	}
	if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}
	log.SetShowCaller(cfg.Logging.ShowCaller)

	opts := []videodna.Option{
		videodna.WithDBPath(cfg.Storage.DBPath),
		videodna.WithTempDir(cfg.Storage.TempDir),
		videodna.WithSecondsPerHash(cfg.Hashing.SecondsPerHash),
		videodna.WithDownsampleDimension(cfg.Hashing.DownsampleDimension),
		videodna.WithDistanceTolerance(cfg.Matching.DistanceTolerance),
		videodna.WithQualityTolerance(cfg.Matching.QualityTolerance),
		videodna.WithMatchThreshold(cfg.Matching.Threshold),
		videodna.WithLogger(log),
	}
	if cfg.Storage.LockPath != "" {
		opts = append(opts, videodna.WithLockPath(cfg.Storage.LockPath))
	}
	if cfg.Matching.Workers > 0 {
		opts = append(opts, videodna.WithWorkers(cfg.Matching.Workers))
	}

	service, err := videodna.NewService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Addr:              cfg.Server.Bind,
		DBPath:            cfg.Storage.DBPath,
		TempDir:           cfg.Storage.TempDir,
		MaxUploadBytes:    cfg.Server.MaxUploadMB << 20,
		SecondsPerHash:    cfg.Hashing.SecondsPerHash,
		DistanceTolerance: cfg.Matching.DistanceTolerance,
		QualityTolerance:  cfg.Matching.QualityTolerance,
		MatchThreshold:    cfg.Matching.Threshold,
		AllowedOrigins:    parseOrigins(allowedOrigins),
		LogRequests:       logRequests,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		service.Close()
		os.Exit(1)
	}
}

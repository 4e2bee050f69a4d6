package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Storage locates the library database.
type Storage struct {
	DBPath   string `toml:"db_path"`
	TempDir  string `toml:"temp_dir"`
	LockPath string `toml:"lock_path"`
}

// Hashing controls how videos are sampled and hashed.
type Hashing struct {
	SecondsPerHash      float64 `toml:"seconds_per_hash"`
	DownsampleDimension int     `toml:"downsample_dimension"`
}

// Matching controls tolerances for comparing fingerprints.
type Matching struct {
	DistanceTolerance int     `toml:"distance_tolerance"`
	QualityTolerance  int     `toml:"quality_tolerance"`
	Threshold         float64 `toml:"threshold"`
	Workers           int     `toml:"workers"`
}

type Logging struct {
	Level      string `toml:"level"`
	ShowCaller bool   `toml:"show_caller"`
}

type Server struct {
	Bind        string `toml:"bind"`
	MaxUploadMB int64  `toml:"max_upload_mb"`
}

// Config is the on-disk configuration shared by the CLI and the server.
type Config struct {
	Storage  Storage  `toml:"storage"`
	Hashing  Hashing  `toml:"hashing"`
	Matching Matching `toml:"matching"`
	Logging  Logging  `toml:"logging"`
	Server   Server   `toml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: Storage{
			DBPath:  "videodna.sqlite3",
			TempDir: os.TempDir(),
		},
		Hashing: Hashing{
			SecondsPerHash:      1.0,
			DownsampleDimension: 64,
		},
		Matching: Matching{
			DistanceTolerance: 31,
			QualityTolerance:  50,
			Threshold:         80.0,
		},
		Logging: Logging{
			Level: "info",
		},
		Server: Server{
			Bind:        ":8080",
			MaxUploadMB: 512,
		},
	}
}

// SampleConfig returns a commented configuration file with default values.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path of the per-user configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/videodna/config.toml")
}

// Load locates and parses a configuration file, applies environment
// overrides and validates the result. A missing file is not an error; the
// returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("VIDEODNA_DB_PATH")); v != "" {
		c.Storage.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("VIDEODNA_TEMP_DIR")); v != "" {
		c.Storage.TempDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Storage.DBPath, err = expandPath(strings.TrimSpace(c.Storage.DBPath)); err != nil {
		return fmt.Errorf("storage.db_path: %w", err)
	}
	if c.Storage.TempDir, err = expandPath(strings.TrimSpace(c.Storage.TempDir)); err != nil {
		return fmt.Errorf("storage.temp_dir: %w", err)
	}
	if c.Storage.LockPath, err = expandPath(strings.TrimSpace(c.Storage.LockPath)); err != nil {
		return fmt.Errorf("storage.lock_path: %w", err)
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s: %w", expanded, err)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("videodna.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

package videodna

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

const (
	DefaultDBPath            = "videodna.sqlite3"
	DefaultSecondsPerHash    = 1.0
	DefaultDistanceTolerance = 31
	DefaultQualityTolerance  = 50
	DefaultMatchThreshold    = 80.0
)

type Config struct {
	DBPath              string
	TempDir             string
	LockPath            string
	SecondsPerHash      float64
	DownsampleDimension int // 0 decodes at native size
	DistanceTolerance   int
	QualityTolerance    int
	MatchThreshold      float64 // percent, applied to both directions
	Workers             int
	Logger              Logger
	Storage             Storage
	Hasher              fingerprint.FrameHasher
	Opener              SourceOpener
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithLockPath overrides the write lock file, <DBPath>.lock by default.
func WithLockPath(path string) Option {
	return func(c *Config) {
		c.LockPath = path
	}
}

func WithSecondsPerHash(seconds float64) Option {
	return func(c *Config) {
		c.SecondsPerHash = seconds
	}
}

func WithDownsampleDimension(dim int) Option {
	return func(c *Config) {
		c.DownsampleDimension = dim
	}
}

func WithDistanceTolerance(d int) Option {
	return func(c *Config) {
		c.DistanceTolerance = d
	}
}

func WithQualityTolerance(q int) Option {
	return func(c *Config) {
		c.QualityTolerance = q
	}
}

func WithMatchThreshold(percent float64) Option {
	return func(c *Config) {
		c.MatchThreshold = percent
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithFrameHasher(h fingerprint.FrameHasher) Option {
	return func(c *Config) {
		c.Hasher = h
	}
}

// WithSourceOpener replaces the ffmpeg decoder, mainly for tests.
func WithSourceOpener(o SourceOpener) Option {
	return func(c *Config) {
		c.Opener = o
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:              DefaultDBPath,
		TempDir:             os.TempDir(),
		SecondsPerHash:      DefaultSecondsPerHash,
		DownsampleDimension: fingerprint.DownscaleDimension,
		DistanceTolerance:   DefaultDistanceTolerance,
		QualityTolerance:    DefaultQualityTolerance,
		MatchThreshold:      DefaultMatchThreshold,
		Workers:             runtime.NumCPU(),
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.SecondsPerHash < 0 {
		errs = append(errs, fmt.Errorf("seconds per hash must be non-negative, got %v", c.SecondsPerHash))
	}
	if c.DownsampleDimension != 0 && c.DownsampleDimension < fingerprint.MinHashableDimension {
		errs = append(errs, fmt.Errorf("downsample dimension must be 0 or at least %d, got %d", fingerprint.MinHashableDimension, c.DownsampleDimension))
	}
	if c.DistanceTolerance < 0 || c.DistanceTolerance > fingerprint.HashBits+1 {
		errs = append(errs, fmt.Errorf("distance tolerance must be in [0,%d], got %d", fingerprint.HashBits+1, c.DistanceTolerance))
	}
	if c.QualityTolerance < fingerprint.MinQuality || c.QualityTolerance > fingerprint.MaxQuality {
		errs = append(errs, fmt.Errorf("quality tolerance must be in [%d,%d], got %d", fingerprint.MinQuality, fingerprint.MaxQuality, c.QualityTolerance))
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		errs = append(errs, fmt.Errorf("match threshold must be in [0,100], got %v", c.MatchThreshold))
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return errors.Join(errs...)
}

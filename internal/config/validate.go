package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Storage.DBPath) == "" {
		errs = append(errs, errors.New("storage.db_path must be set"))
	}
	if c.Hashing.SecondsPerHash < 0 {
		errs = append(errs, fmt.Errorf("hashing.seconds_per_hash must be non-negative, got %v", c.Hashing.SecondsPerHash))
	}
	if d := c.Hashing.DownsampleDimension; d != 0 && d < 5 {
		errs = append(errs, fmt.Errorf("hashing.downsample_dimension must be 0 or at least 5, got %d", d))
	}
	if c.Matching.DistanceTolerance < 0 {
		errs = append(errs, fmt.Errorf("matching.distance_tolerance must be non-negative, got %d", c.Matching.DistanceTolerance))
	}
	if q := c.Matching.QualityTolerance; q < 0 || q > 100 {
		errs = append(errs, fmt.Errorf("matching.quality_tolerance must be in [0,100], got %d", q))
	}
	if th := c.Matching.Threshold; th < 0 || th > 100 {
		errs = append(errs, fmt.Errorf("matching.threshold must be in [0,100], got %v", th))
	}
	if c.Matching.Workers < 0 {
		errs = append(errs, fmt.Errorf("matching.workers must be non-negative, got %d", c.Matching.Workers))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, fatal", c.Logging.Level))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}

	return errors.Join(errs...)
}

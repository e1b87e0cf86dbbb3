package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the voxel-fusion
// pipeline's tunable parameters, loaded once at startup. The grid
// control endpoint does not use this struct; it takes its own request
// shape (api.GridUpdateRequest).
type TuningConfig struct {
	// Grid geometry.
	GridMinX   *float64 `json:"grid_min_x,omitempty"`
	GridMinY   *float64 `json:"grid_min_y,omitempty"`
	GridMinZ   *float64 `json:"grid_min_z,omitempty"`
	GridMaxX   *float64 `json:"grid_max_x,omitempty"`
	GridMaxY   *float64 `json:"grid_max_y,omitempty"`
	GridMaxZ   *float64 `json:"grid_max_z,omitempty"`
	Resolution *int     `json:"resolution,omitempty"`

	// PercentileExtractor.
	Percentile *float64 `json:"percentile,omitempty"`

	// Clusterer.
	MinSamples *int `json:"min_samples,omitempty"`

	// ClusterTracker.
	MaxAssociationDistance *float64 `json:"max_association_distance,omitempty"`
	MaxAge                 *int64   `json:"max_age,omitempty"`

	// Batcher (TableSource).
	WindowThresholdSeconds *float64 `json:"window_threshold_seconds,omitempty"`
}

// Helper functions to create pointers.
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are structurally sane.
func (c *TuningConfig) Validate() error {
	if c.Resolution != nil && *c.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %d", *c.Resolution)
	}
	if c.Percentile != nil && (*c.Percentile < 0 || *c.Percentile > 100) {
		return fmt.Errorf("percentile must be between 0 and 100, got %f", *c.Percentile)
	}
	if c.MinSamples != nil && *c.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1, got %d", *c.MinSamples)
	}
	if c.MaxAssociationDistance != nil && *c.MaxAssociationDistance <= 0 {
		return fmt.Errorf("max_association_distance must be positive, got %f", *c.MaxAssociationDistance)
	}
	if c.MaxAge != nil && *c.MaxAge < 0 {
		return fmt.Errorf("max_age must be non-negative, got %d", *c.MaxAge)
	}
	if c.WindowThresholdSeconds != nil && *c.WindowThresholdSeconds <= 0 {
		return fmt.Errorf("window_threshold_seconds must be positive, got %f", *c.WindowThresholdSeconds)
	}
	if c.GridMinX != nil && c.GridMaxX != nil && *c.GridMinX >= *c.GridMaxX {
		return fmt.Errorf("grid_min_x must be less than grid_max_x")
	}
	if c.GridMinY != nil && c.GridMaxY != nil && *c.GridMinY >= *c.GridMaxY {
		return fmt.Errorf("grid_min_y must be less than grid_max_y")
	}
	if c.GridMinZ != nil && c.GridMaxZ != nil && *c.GridMinZ >= *c.GridMaxZ {
		return fmt.Errorf("grid_min_z must be less than grid_max_z")
	}
	return nil
}

// GetResolution returns the per-axis voxel count, or the default (200,
// matching the reference pipeline's grid size).
func (c *TuningConfig) GetResolution() int {
	if c.Resolution == nil {
		return 200
	}
	return *c.Resolution
}

// GetPercentile returns the extraction percentile, or the default 99.9.
func (c *TuningConfig) GetPercentile() float64 {
	if c.Percentile == nil {
		return 99.9
	}
	return *c.Percentile
}

// GetMinSamples returns DBSCAN's min_samples, or the default 3.
func (c *TuningConfig) GetMinSamples() int {
	if c.MinSamples == nil {
		return 3
	}
	return *c.MinSamples
}

// GetMaxAssociationDistance returns the tracker's association gate in
// metres, or the default 15.
func (c *TuningConfig) GetMaxAssociationDistance() float64 {
	if c.MaxAssociationDistance == nil {
		return 15.0
	}
	return *c.MaxAssociationDistance
}

// GetMaxAge returns the tracker's age-out threshold in ticks, or the
// default 5.
func (c *TuningConfig) GetMaxAge() int64 {
	if c.MaxAge == nil {
		return 5
	}
	return *c.MaxAge
}

// GetWindowThresholdSeconds returns the batch window threshold, or the
// default 2.0 seconds.
func (c *TuningConfig) GetWindowThresholdSeconds() float64 {
	if c.WindowThresholdSeconds == nil {
		return 2.0
	}
	return *c.WindowThresholdSeconds
}

// GridBounds returns the configured grid min/max corners, defaulting to
// a 2km x 2km footprint spanning sea level to 1km altitude when unset.
func (c *TuningConfig) GridBounds() (min, max [3]float64) {
	min = [3]float64{-1000, -1000, 0}
	max = [3]float64{1000, 1000, 1000}
	if c.GridMinX != nil {
		min[0] = *c.GridMinX
	}
	if c.GridMinY != nil {
		min[1] = *c.GridMinY
	}
	if c.GridMinZ != nil {
		min[2] = *c.GridMinZ
	}
	if c.GridMaxX != nil {
		max[0] = *c.GridMaxX
	}
	if c.GridMaxY != nil {
		max[1] = *c.GridMaxY
	}
	if c.GridMaxZ != nil {
		max[2] = *c.GridMaxZ
	}
	return min, max
}

// Package config loads odometry tuning parameters from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldsense/lidarodom/internal/odom"
)

// TuningConfig is the on-disk tuning schema. All fields are pointers so
// a partial file overrides only what it names; everything else keeps
// the engine defaults.
type TuningConfig struct {
	MaxRange           *float64 `json:"max_range,omitempty"`
	MinRange           *float64 `json:"min_range,omitempty"`
	Deskew             *bool    `json:"deskew,omitempty"`
	VoxelSize          *float64 `json:"voxel_size,omitempty"`
	MaxPointsPerVoxel  *int     `json:"max_points_per_voxel,omitempty"`
	InitialThreshold   *float64 `json:"initial_threshold,omitempty"`
	MinMotionThreshold *float64 `json:"min_motion_threshold,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file keep the engine
// defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
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

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.MaxRange != nil && *c.MaxRange <= 0 {
		return fmt.Errorf("max_range must be positive, got %f", *c.MaxRange)
	}
	if c.MinRange != nil && *c.MinRange < 0 {
		return fmt.Errorf("min_range must be non-negative, got %f", *c.MinRange)
	}
	if c.MaxRange != nil && c.MinRange != nil && *c.MinRange >= *c.MaxRange {
		return fmt.Errorf("min_range %f must be below max_range %f", *c.MinRange, *c.MaxRange)
	}
	if c.VoxelSize != nil && *c.VoxelSize <= 0 {
		return fmt.Errorf("voxel_size must be positive, got %f", *c.VoxelSize)
	}
	if c.MaxPointsPerVoxel != nil && *c.MaxPointsPerVoxel < 1 {
		return fmt.Errorf("max_points_per_voxel must be at least 1, got %d", *c.MaxPointsPerVoxel)
	}
	if c.InitialThreshold != nil && *c.InitialThreshold <= 0 {
		return fmt.Errorf("initial_threshold must be positive, got %f", *c.InitialThreshold)
	}
	if c.MinMotionThreshold != nil && *c.MinMotionThreshold < 0 {
		return fmt.Errorf("min_motion_threshold must be non-negative, got %f", *c.MinMotionThreshold)
	}
	return nil
}

// Apply overlays the set fields onto an engine config and returns the
// result.
func (c *TuningConfig) Apply(base odom.Config) odom.Config {
	if c.MaxRange != nil {
		base.MaxRange = *c.MaxRange
	}
	if c.MinRange != nil {
		base.MinRange = *c.MinRange
	}
	if c.Deskew != nil {
		base.Deskew = *c.Deskew
	}
	if c.VoxelSize != nil {
		base.VoxelSize = *c.VoxelSize
	}
	if c.MaxPointsPerVoxel != nil {
		base.MaxPointsPerVoxel = *c.MaxPointsPerVoxel
	}
	if c.InitialThreshold != nil {
		base.InitialThreshold = *c.InitialThreshold
	}
	if c.MinMotionThreshold != nil {
		base.MinMotionThreshold = *c.MinMotionThreshold
	}
	return base
}

// Package config loads tuning defaults for the compensation pipeline from
// a JSON file, so deployments can override the shipped slider defaults
// without a rebuild.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/driftline/internal/drift"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds optional overrides for the per-stick runtime config
// and the session loop. All fields are pointers so a partial file only
// touches the values it names; the pipeline clamps at point of use, so
// validation here is limited to structural checks.
type TuningConfig struct {
	// Per-stick pipeline params
	ManualDeadzone       *float64 `json:"manual_deadzone,omitempty"`
	AntiDeadzone         *float64 `json:"anti_deadzone,omitempty"`
	ResponseGamma        *float64 `json:"response_gamma,omitempty"`
	Smoothing            *float64 `json:"smoothing,omitempty"`
	AdaptiveCenter       *bool    `json:"adaptive_center,omitempty"`
	AdaptiveLearningRate *float64 `json:"adaptive_learning_rate,omitempty"`
	AdaptiveLimit        *float64 `json:"adaptive_limit,omitempty"`
	NeutralCaptureRadius *float64 `json:"neutral_capture_radius,omitempty"`

	// Session loop params
	Rate         *float64 `json:"rate,omitempty"`
	RollupWindow *int     `json:"rollup_window,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the file are left nil, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

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

// Validate checks the structural sanity of the overrides. Out-of-range
// numeric values pass here and are clamped by the pipeline instead.
func (c *TuningConfig) Validate() error {
	if c.Rate != nil && *c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %f", *c.Rate)
	}
	if c.RollupWindow != nil && *c.RollupWindow < 1 {
		return fmt.Errorf("rollup_window must be at least 1, got %d", *c.RollupWindow)
	}
	return nil
}

// ApplyTo overlays the set fields onto a stick runtime config.
func (c *TuningConfig) ApplyTo(sc *drift.StickRuntimeConfig) {
	if c.ManualDeadzone != nil {
		sc.ManualDeadzoneX = *c.ManualDeadzone
		sc.ManualDeadzoneY = *c.ManualDeadzone
	}
	if c.AntiDeadzone != nil {
		sc.AntiDeadzone = *c.AntiDeadzone
	}
	if c.ResponseGamma != nil {
		sc.ResponseGamma = *c.ResponseGamma
	}
	if c.Smoothing != nil {
		sc.Smoothing = *c.Smoothing
	}
	if c.AdaptiveCenter != nil {
		sc.AdaptiveCenter = *c.AdaptiveCenter
	}
	if c.AdaptiveLearningRate != nil {
		sc.AdaptiveLearningRate = *c.AdaptiveLearningRate
	}
	if c.AdaptiveLimit != nil {
		sc.AdaptiveLimit = *c.AdaptiveLimit
	}
	if c.NeutralCaptureRadius != nil {
		sc.NeutralCaptureRadius = *c.NeutralCaptureRadius
	}
}

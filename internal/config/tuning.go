package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tracking defaults file.
// This is the single source of truth for all default tracking values.
const DefaultConfigPath = "config/tracking.defaults.json"

// TrackingConfig represents the root configuration for the gaze tracking
// engine. The schema matches the /api/gaze/params endpoint so the same JSON
// can be used for both startup configuration and runtime updates. All fields
// are pointers so partial configs merge cleanly over defaults.
type TrackingConfig struct {
	// Decider params
	HorizontalAwayThreshold *float64 `json:"horizontal_away_threshold,omitempty"`
	VerticalAwayThreshold   *float64 `json:"vertical_away_threshold,omitempty"`
	HorizontalEnabled       *bool    `json:"horizontal_enabled,omitempty"`
	VerticalEnabled         *bool    `json:"vertical_enabled,omitempty"`
	MinConfidence           *float64 `json:"min_confidence,omitempty"`
	EyesClosedThreshold     *float64 `json:"eyes_closed_threshold,omitempty"`
	BoundaryForgiveness     *float64 `json:"boundary_forgiveness,omitempty"`

	// Baseline params
	BaselineSmoothing         *float64 `json:"baseline_smoothing,omitempty"`
	MinBaselineSamples        *int     `json:"min_baseline_samples,omitempty"`
	BaselineUpdateThreshold   *float64 `json:"baseline_update_threshold,omitempty"`
	BaselineDefaultHorizontal *float64 `json:"baseline_default_horizontal,omitempty"`
	BaselineDefaultVertical   *float64 `json:"baseline_default_vertical,omitempty"`
	BaselineUpdatesEnabled    *bool    `json:"baseline_updates_enabled,omitempty"`

	// Distance compensation params
	DistanceSmoothing   *float64 `json:"distance_smoothing,omitempty"`
	DistanceScaleMin    *float64 `json:"distance_scale_min,omitempty"`
	DistanceScaleMax    *float64 `json:"distance_scale_max,omitempty"`
	WideDistanceRange   *bool    `json:"wide_distance_range,omitempty"`
	DistanceSensitivity *float64 `json:"distance_sensitivity,omitempty"`

	// Eye region padding params (fractions of the unpadded box extent)
	EyePaddingHorizontal *float64 `json:"eye_padding_horizontal,omitempty"`
	EyePaddingUp         *float64 `json:"eye_padding_up,omitempty"`
	EyePaddingDown       *float64 `json:"eye_padding_down,omitempty"`

	// Calibration params
	SamplesPerStep          *int  `json:"samples_per_step,omitempty"`
	StrictThresholdOrdering *bool `json:"strict_threshold_ordering,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTrackingConfig returns a TrackingConfig with all fields set to nil.
// Use LoadTrackingConfig to load actual values from a config file.
func EmptyTrackingConfig() *TrackingConfig {
	return &TrackingConfig{}
}

// LoadTrackingConfig loads a TrackingConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTrackingConfig(path string) (*TrackingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTrackingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TrackingConfig) Validate() error {
	unitChecks := []struct {
		name string
		v    *float64
	}{
		{"horizontal_away_threshold", c.HorizontalAwayThreshold},
		{"vertical_away_threshold", c.VerticalAwayThreshold},
		{"min_confidence", c.MinConfidence},
		{"eyes_closed_threshold", c.EyesClosedThreshold},
		{"baseline_update_threshold", c.BaselineUpdateThreshold},
		{"baseline_default_horizontal", c.BaselineDefaultHorizontal},
		{"baseline_default_vertical", c.BaselineDefaultVertical},
	}
	for _, check := range unitChecks {
		if check.v != nil && (*check.v < 0 || *check.v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", check.name, *check.v)
		}
	}

	if c.BaselineSmoothing != nil && (*c.BaselineSmoothing <= 0 || *c.BaselineSmoothing > 1) {
		return fmt.Errorf("baseline_smoothing must be in (0,1], got %f", *c.BaselineSmoothing)
	}
	if c.DistanceSmoothing != nil && (*c.DistanceSmoothing <= 0 || *c.DistanceSmoothing > 1) {
		return fmt.Errorf("distance_smoothing must be in (0,1], got %f", *c.DistanceSmoothing)
	}
	if c.MinBaselineSamples != nil && *c.MinBaselineSamples < 0 {
		return fmt.Errorf("min_baseline_samples must be non-negative, got %d", *c.MinBaselineSamples)
	}
	if c.SamplesPerStep != nil && *c.SamplesPerStep < 1 {
		return fmt.Errorf("samples_per_step must be at least 1, got %d", *c.SamplesPerStep)
	}
	if c.DistanceScaleMin != nil && *c.DistanceScaleMin <= 0 {
		return fmt.Errorf("distance_scale_min must be positive, got %f", *c.DistanceScaleMin)
	}
	if c.DistanceScaleMin != nil && c.DistanceScaleMax != nil && *c.DistanceScaleMin > *c.DistanceScaleMax {
		return fmt.Errorf("distance_scale_min %f exceeds distance_scale_max %f",
			*c.DistanceScaleMin, *c.DistanceScaleMax)
	}
	if c.DistanceSensitivity != nil && *c.DistanceSensitivity < 0 {
		return fmt.Errorf("distance_sensitivity must be non-negative, got %f", *c.DistanceSensitivity)
	}

	paddingChecks := []struct {
		name string
		v    *float64
	}{
		{"eye_padding_horizontal", c.EyePaddingHorizontal},
		{"eye_padding_up", c.EyePaddingUp},
		{"eye_padding_down", c.EyePaddingDown},
	}
	for _, check := range paddingChecks {
		if check.v != nil && *check.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", check.name, *check.v)
		}
	}
	// Upper padding covers eyelid occlusion and may never be smaller than
	// the lower padding.
	if c.EyePaddingUp != nil && c.EyePaddingDown != nil && *c.EyePaddingUp < *c.EyePaddingDown {
		return fmt.Errorf("eye_padding_up %f must be >= eye_padding_down %f",
			*c.EyePaddingUp, *c.EyePaddingDown)
	}
	return nil
}

// Merge returns a copy of c with any non-nil fields from o applied on top.
// Used by the params endpoint to fold runtime updates into the active config.
func (c *TrackingConfig) Merge(o *TrackingConfig) *TrackingConfig {
	merged := *c
	if o == nil {
		return &merged
	}
	if o.HorizontalAwayThreshold != nil {
		merged.HorizontalAwayThreshold = o.HorizontalAwayThreshold
	}
	if o.VerticalAwayThreshold != nil {
		merged.VerticalAwayThreshold = o.VerticalAwayThreshold
	}
	if o.HorizontalEnabled != nil {
		merged.HorizontalEnabled = o.HorizontalEnabled
	}
	if o.VerticalEnabled != nil {
		merged.VerticalEnabled = o.VerticalEnabled
	}
	if o.MinConfidence != nil {
		merged.MinConfidence = o.MinConfidence
	}
	if o.EyesClosedThreshold != nil {
		merged.EyesClosedThreshold = o.EyesClosedThreshold
	}
	if o.BoundaryForgiveness != nil {
		merged.BoundaryForgiveness = o.BoundaryForgiveness
	}
	if o.BaselineSmoothing != nil {
		merged.BaselineSmoothing = o.BaselineSmoothing
	}
	if o.MinBaselineSamples != nil {
		merged.MinBaselineSamples = o.MinBaselineSamples
	}
	if o.BaselineUpdateThreshold != nil {
		merged.BaselineUpdateThreshold = o.BaselineUpdateThreshold
	}
	if o.BaselineDefaultHorizontal != nil {
		merged.BaselineDefaultHorizontal = o.BaselineDefaultHorizontal
	}
	if o.BaselineDefaultVertical != nil {
		merged.BaselineDefaultVertical = o.BaselineDefaultVertical
	}
	if o.BaselineUpdatesEnabled != nil {
		merged.BaselineUpdatesEnabled = o.BaselineUpdatesEnabled
	}
	if o.DistanceSmoothing != nil {
		merged.DistanceSmoothing = o.DistanceSmoothing
	}
	if o.DistanceScaleMin != nil {
		merged.DistanceScaleMin = o.DistanceScaleMin
	}
	if o.DistanceScaleMax != nil {
		merged.DistanceScaleMax = o.DistanceScaleMax
	}
	if o.WideDistanceRange != nil {
		merged.WideDistanceRange = o.WideDistanceRange
	}
	if o.DistanceSensitivity != nil {
		merged.DistanceSensitivity = o.DistanceSensitivity
	}
	if o.EyePaddingHorizontal != nil {
		merged.EyePaddingHorizontal = o.EyePaddingHorizontal
	}
	if o.EyePaddingUp != nil {
		merged.EyePaddingUp = o.EyePaddingUp
	}
	if o.EyePaddingDown != nil {
		merged.EyePaddingDown = o.EyePaddingDown
	}
	if o.SamplesPerStep != nil {
		merged.SamplesPerStep = o.SamplesPerStep
	}
	if o.StrictThresholdOrdering != nil {
		merged.StrictThresholdOrdering = o.StrictThresholdOrdering
	}
	return &merged
}

// GetHorizontalAwayThreshold returns the horizontal_away_threshold value or the default.
func (c *TrackingConfig) GetHorizontalAwayThreshold() float64 {
	if c.HorizontalAwayThreshold == nil {
		return 0.12
	}
	return *c.HorizontalAwayThreshold
}

// GetVerticalAwayThreshold returns the vertical_away_threshold value or the default.
func (c *TrackingConfig) GetVerticalAwayThreshold() float64 {
	if c.VerticalAwayThreshold == nil {
		return 0.10
	}
	return *c.VerticalAwayThreshold
}

// GetHorizontalEnabled returns the horizontal_enabled value or the default.
func (c *TrackingConfig) GetHorizontalEnabled() bool {
	if c.HorizontalEnabled == nil {
		return true
	}
	return *c.HorizontalEnabled
}

// GetVerticalEnabled returns the vertical_enabled value or the default.
func (c *TrackingConfig) GetVerticalEnabled() bool {
	if c.VerticalEnabled == nil {
		return true
	}
	return *c.VerticalEnabled
}

// GetMinConfidence returns the min_confidence value or the default.
func (c *TrackingConfig) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return 0.30
	}
	return *c.MinConfidence
}

// GetEyesClosedThreshold returns the eyes_closed_threshold value or the default.
func (c *TrackingConfig) GetEyesClosedThreshold() float64 {
	if c.EyesClosedThreshold == nil {
		return 0.18
	}
	return *c.EyesClosedThreshold
}

// GetBoundaryForgiveness returns the boundary_forgiveness value or the default.
// The forgiveness margin is added to the away thresholds before distance
// scaling, widening the on-screen zone.
func (c *TrackingConfig) GetBoundaryForgiveness() float64 {
	if c.BoundaryForgiveness == nil {
		return 0.0
	}
	return *c.BoundaryForgiveness
}

// GetBaselineSmoothing returns the baseline_smoothing value or the default.
func (c *TrackingConfig) GetBaselineSmoothing() float64 {
	if c.BaselineSmoothing == nil {
		return 0.15
	}
	return *c.BaselineSmoothing
}

// GetMinBaselineSamples returns the min_baseline_samples value or the default.
func (c *TrackingConfig) GetMinBaselineSamples() int {
	if c.MinBaselineSamples == nil {
		return 10
	}
	return *c.MinBaselineSamples
}

// GetBaselineUpdateThreshold returns the baseline_update_threshold value or the default.
func (c *TrackingConfig) GetBaselineUpdateThreshold() float64 {
	if c.BaselineUpdateThreshold == nil {
		return 0.08
	}
	return *c.BaselineUpdateThreshold
}

// GetBaselineDefaultHorizontal returns the baseline_default_horizontal value or the default.
func (c *TrackingConfig) GetBaselineDefaultHorizontal() float64 {
	if c.BaselineDefaultHorizontal == nil {
		return 0.5
	}
	return *c.BaselineDefaultHorizontal
}

// GetBaselineDefaultVertical returns the baseline_default_vertical value or the default.
func (c *TrackingConfig) GetBaselineDefaultVertical() float64 {
	if c.BaselineDefaultVertical == nil {
		return 0.5
	}
	return *c.BaselineDefaultVertical
}

// GetBaselineUpdatesEnabled returns the baseline_updates_enabled value or the default.
func (c *TrackingConfig) GetBaselineUpdatesEnabled() bool {
	if c.BaselineUpdatesEnabled == nil {
		return true
	}
	return *c.BaselineUpdatesEnabled
}

// GetDistanceSmoothing returns the distance_smoothing value or the default.
func (c *TrackingConfig) GetDistanceSmoothing() float64 {
	if c.DistanceSmoothing == nil {
		return 0.10
	}
	return *c.DistanceSmoothing
}

// GetDistanceScaleMin returns the distance_scale_min value or the default.
// The default depends on wide_distance_range: the wide range admits users
// who move a lot relative to the camera.
func (c *TrackingConfig) GetDistanceScaleMin() float64 {
	if c.DistanceScaleMin != nil {
		return *c.DistanceScaleMin
	}
	if c.GetWideDistanceRange() {
		return 0.5
	}
	return 0.85
}

// GetDistanceScaleMax returns the distance_scale_max value or the default.
func (c *TrackingConfig) GetDistanceScaleMax() float64 {
	if c.DistanceScaleMax != nil {
		return *c.DistanceScaleMax
	}
	if c.GetWideDistanceRange() {
		return 2.0
	}
	return 1.4
}

// GetWideDistanceRange returns the wide_distance_range value or the default.
func (c *TrackingConfig) GetWideDistanceRange() bool {
	if c.WideDistanceRange == nil {
		return false
	}
	return *c.WideDistanceRange
}

// GetDistanceSensitivity returns the distance_sensitivity value or the default.
// 1.0 applies the measured distance scale as-is; 0 disables compensation.
func (c *TrackingConfig) GetDistanceSensitivity() float64 {
	if c.DistanceSensitivity == nil {
		return 1.0
	}
	return *c.DistanceSensitivity
}

// GetEyePaddingHorizontal returns the eye_padding_horizontal value or the default.
func (c *TrackingConfig) GetEyePaddingHorizontal() float64 {
	if c.EyePaddingHorizontal == nil {
		return 0.15
	}
	return *c.EyePaddingHorizontal
}

// GetEyePaddingUp returns the eye_padding_up value or the default.
func (c *TrackingConfig) GetEyePaddingUp() float64 {
	if c.EyePaddingUp == nil {
		return 0.40
	}
	return *c.EyePaddingUp
}

// GetEyePaddingDown returns the eye_padding_down value or the default.
func (c *TrackingConfig) GetEyePaddingDown() float64 {
	if c.EyePaddingDown == nil {
		return 0.25
	}
	return *c.EyePaddingDown
}

// GetSamplesPerStep returns the samples_per_step value or the default.
func (c *TrackingConfig) GetSamplesPerStep() int {
	if c.SamplesPerStep == nil {
		return 10
	}
	return *c.SamplesPerStep
}

// GetStrictThresholdOrdering returns the strict_threshold_ordering value or
// the default. When enabled, calibrated thresholds must additionally satisfy
// the ordered-bounds validity check before being applied.
func (c *TrackingConfig) GetStrictThresholdOrdering() bool {
	if c.StrictThresholdOrdering == nil {
		return false
	}
	return *c.StrictThresholdOrdering
}

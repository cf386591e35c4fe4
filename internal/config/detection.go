package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/metrics"
)

// DefaultConfigPath is the path to the canonical detection defaults file.
const DefaultConfigPath = "config/detection.defaults.json"

// DetectionConfig is the root configuration for fixation detection and
// the per-trial analysis around it. Every field is optional; the Get*
// methods supply the default for anything left out of the JSON.
type DetectionConfig struct {
	// Segmenter selection: "idt" or "smt"
	Method *string `json:"method,omitempty"`

	// Display geometry
	ScreenWidth          *float64 `json:"screen_width,omitempty"`
	ScreenHeight         *float64 `json:"screen_height,omitempty"`
	EyeToDisplayDistance *float64 `json:"eye_to_display_distance,omitempty"` // cm

	// IDT params
	DispersionThreshold *float64 `json:"dispersion_threshold,omitempty"` // px, roughly 1 degree of visual angle
	DurationThreshold   *float64 `json:"duration_threshold,omitempty"`   // seconds

	// SMT params
	UseAngularVelocity *bool    `json:"use_angular_velocity,omitempty"`
	PeakWindowWidth    *float64 `json:"peak_window_width,omitempty"`
	VelocityThreshold  *float64 `json:"velocity_threshold,omitempty"`

	// Metrics params
	TimeWindowSeconds    *float64         `json:"time_window_seconds,omitempty"`
	TrialDurationSeconds *float64         `json:"trial_duration_seconds,omitempty"`
	AOIRegions           []metrics.Region `json:"aoi_regions,omitempty"`

	// Runtime params
	CacheTTL *string `json:"cache_ttl,omitempty"` // duration string like "24h"
	Workers  *int    `json:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyDetectionConfig returns a DetectionConfig with all fields unset.
func EmptyDetectionConfig() *DetectionConfig {
	return &DetectionConfig{}
}

// DefaultDetectionConfig returns a config with every field populated from
// the Get* defaults.
func DefaultDetectionConfig() *DetectionConfig {
	empty := EmptyDetectionConfig()
	return &DetectionConfig{
		Method:               ptrString(string(empty.GetMethod())),
		ScreenWidth:          ptrFloat64(empty.GetScreenWidth()),
		ScreenHeight:         ptrFloat64(empty.GetScreenHeight()),
		EyeToDisplayDistance: ptrFloat64(empty.GetEyeToDisplayDistance()),
		DispersionThreshold:  ptrFloat64(empty.GetDispersionThreshold()),
		DurationThreshold:    ptrFloat64(empty.GetDurationThreshold()),
		UseAngularVelocity:   ptrBool(empty.GetUseAngularVelocity()),
		PeakWindowWidth:      ptrFloat64(empty.GetPeakWindowWidth()),
		VelocityThreshold:    ptrFloat64(empty.GetVelocityThreshold()),
		TimeWindowSeconds:    ptrFloat64(empty.GetTimeWindowSeconds()),
		TrialDurationSeconds: ptrFloat64(empty.GetTrialDurationSeconds()),
		CacheTTL:             ptrString(empty.GetCacheTTL().String()),
		Workers:              ptrInt(empty.GetWorkers()),
	}
}

// LoadDetectionConfig loads a DetectionConfig from a JSON file.
// The file must have a .json extension and be at most 1MB. Fields omitted
// from the file fall back to their defaults.
func LoadDetectionConfig(path string) (*DetectionConfig, error) {
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
	return ParseDetectionConfig(data)
}

// ParseDetectionConfig decodes and validates a JSON config document.
func ParseDetectionConfig(data []byte) (*DetectionConfig, error) {
	cfg := EmptyDetectionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from
// the working directory. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *DetectionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadDetectionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable. It runs the
// segmenter validation as well, so a config that passes here can be handed
// straight to gaze.NewSegmenter.
func (c *DetectionConfig) Validate() error {
	if c.Method != nil {
		if _, err := gaze.ParseMethod(*c.Method); err != nil {
			return err
		}
	}

	if c.ScreenWidth != nil && *c.ScreenWidth <= 0 {
		return fmt.Errorf("screen_width must be positive, got %f", *c.ScreenWidth)
	}
	if c.ScreenHeight != nil && *c.ScreenHeight <= 0 {
		return fmt.Errorf("screen_height must be positive, got %f", *c.ScreenHeight)
	}
	if c.EyeToDisplayDistance != nil && *c.EyeToDisplayDistance <= 0 {
		return fmt.Errorf("eye_to_display_distance must be positive, got %f", *c.EyeToDisplayDistance)
	}

	if err := c.DispersionConfig().Validate(); err != nil {
		return err
	}
	if err := c.VelocityConfig().Validate(); err != nil {
		return err
	}

	if c.TimeWindowSeconds != nil && *c.TimeWindowSeconds <= 0 {
		return fmt.Errorf("time_window_seconds must be positive, got %f", *c.TimeWindowSeconds)
	}
	if c.TrialDurationSeconds != nil && *c.TrialDurationSeconds <= 0 {
		return fmt.Errorf("trial_duration_seconds must be positive, got %f", *c.TrialDurationSeconds)
	}
	for i, r := range c.AOIRegions {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("aoi_regions[%d]: %w", i, err)
		}
	}

	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// DispersionConfig builds the IDT parameters.
func (c *DetectionConfig) DispersionConfig() gaze.DispersionConfig {
	return gaze.DispersionConfig{
		DispersionThreshold: c.GetDispersionThreshold(),
		DurationThreshold:   c.GetDurationThreshold(),
	}
}

// VelocityConfig builds the SMT parameters.
func (c *DetectionConfig) VelocityConfig() gaze.VelocityConfig {
	return gaze.VelocityConfig{
		UseAngularVelocity:   c.GetUseAngularVelocity(),
		EyeToDisplayDistance: c.GetEyeToDisplayDistance(),
		PeakWindowWidth:      c.GetPeakWindowWidth(),
		VelocityThreshold:    c.GetVelocityThreshold(),
		ScreenWidth:          c.GetScreenWidth(),
		ScreenHeight:         c.GetScreenHeight(),
	}
}

// Segmenter builds the configured segmenter.
func (c *DetectionConfig) Segmenter() (gaze.Segmenter, error) {
	return gaze.NewSegmenter(c.GetMethod(), c.DispersionConfig(), c.VelocityConfig())
}

// Clone returns a deep copy so callers can override fields per request.
func (c *DetectionConfig) Clone() *DetectionConfig {
	out := *c
	out.AOIRegions = append([]metrics.Region(nil), c.AOIRegions...)
	return &out
}

// WithOverrides returns a validated copy of c with the fields present in
// the JSON document raw replaced. c is not modified.
func (c *DetectionConfig) WithOverrides(raw []byte) (*DetectionConfig, error) {
	base, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode base config: %w", err)
	}
	out := EmptyDetectionConfig()
	if err := json.Unmarshal(base, out); err != nil {
		return nil, fmt.Errorf("failed to copy base config: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to parse config overrides: %w", err)
		}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return out, nil
}

// GetMethod returns the method or the default (idt).
func (c *DetectionConfig) GetMethod() gaze.Method {
	if c.Method == nil {
		return gaze.MethodDispersion
	}
	return gaze.Method(*c.Method)
}

// GetScreenWidth returns the screen_width value or the default.
func (c *DetectionConfig) GetScreenWidth() float64 {
	if c.ScreenWidth == nil {
		return 1920
	}
	return *c.ScreenWidth
}

// GetScreenHeight returns the screen_height value or the default.
func (c *DetectionConfig) GetScreenHeight() float64 {
	if c.ScreenHeight == nil {
		return 1080
	}
	return *c.ScreenHeight
}

// GetEyeToDisplayDistance returns the eye_to_display_distance value or the default.
func (c *DetectionConfig) GetEyeToDisplayDistance() float64 {
	if c.EyeToDisplayDistance == nil {
		return 50
	}
	return *c.EyeToDisplayDistance
}

// GetDispersionThreshold returns the dispersion_threshold value or the default.
func (c *DetectionConfig) GetDispersionThreshold() float64 {
	if c.DispersionThreshold == nil {
		return 50
	}
	return *c.DispersionThreshold
}

// GetDurationThreshold returns the duration_threshold value or the default.
func (c *DetectionConfig) GetDurationThreshold() float64 {
	if c.DurationThreshold == nil {
		return 0.1 // generally 100-200ms
	}
	return *c.DurationThreshold
}

// GetUseAngularVelocity returns the use_angular_velocity value or the default.
func (c *DetectionConfig) GetUseAngularVelocity() bool {
	if c.UseAngularVelocity == nil {
		return true
	}
	return *c.UseAngularVelocity
}

// GetPeakWindowWidth returns the peak_window_width value or the default.
func (c *DetectionConfig) GetPeakWindowWidth() float64 {
	if c.PeakWindowWidth == nil {
		return 8
	}
	return *c.PeakWindowWidth
}

// GetVelocityThreshold returns the velocity_threshold value or the default.
func (c *DetectionConfig) GetVelocityThreshold() float64 {
	if c.VelocityThreshold == nil {
		return 0.015
	}
	return *c.VelocityThreshold
}

// GetTimeWindowSeconds returns the time_window_seconds value or the default.
func (c *DetectionConfig) GetTimeWindowSeconds() float64 {
	if c.TimeWindowSeconds == nil {
		return 10
	}
	return *c.TimeWindowSeconds
}

// GetTrialDurationSeconds returns the trial_duration_seconds value or the default.
func (c *DetectionConfig) GetTrialDurationSeconds() float64 {
	if c.TrialDurationSeconds == nil {
		return 60
	}
	return *c.TrialDurationSeconds
}

// GetCacheTTL parses and returns CacheTTL. Zero means entries never expire.
func (c *DetectionConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return 24 * time.Hour // default on parse error
	}
	return d
}

// GetWorkers returns the workers value or the default.
func (c *DetectionConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

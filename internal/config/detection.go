package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical detection defaults file.
// This is the single source of truth for all default detection values.
const DefaultConfigPath = "config/detection.defaults.json"

// DetectionConfig represents the tunable parameters of the driver-behaviour
// detection pipeline. Fields are pointers so a partial JSON document can be
// merged over defaults: omitted fields fall back to the documented default,
// which keeps older persisted records forward compatible.
type DetectionConfig struct {
	// Classifier thresholds (m/s², longitudinal axis)
	AccelerationThreshold *float64 `json:"acceleration_threshold,omitempty"`
	BrakingThreshold      *float64 `json:"braking_threshold,omitempty"`

	// Sampling and debounce (milliseconds)
	SamplingRateMs  *int `json:"sampling_rate,omitempty"`
	AlertCooldownMs *int `json:"alert_cooldown,omitempty"`

	// Pipeline feature toggles
	EnableSensorFusion        *bool `json:"enable_sensor_fusion,omitempty"`
	EnableMultistageFiltering *bool `json:"enable_multistage_filtering,omitempty"`

	// Fusion params
	SmoothingFactor *float64 `json:"smoothing_factor,omitempty"`

	// Filter params
	ProcessNoise        *float64 `json:"process_noise,omitempty"`
	MeasurementNoise    *float64 `json:"measurement_noise,omitempty"`
	CutoffFrequency     *float64 `json:"cutoff_frequency,omitempty"`
	MovingAverageWindow *int     `json:"moving_average_window,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyDetectionConfig returns a DetectionConfig with all fields set to nil.
// Use LoadDetectionConfig to load actual values from the defaults file.
func EmptyDetectionConfig() *DetectionConfig {
	return &DetectionConfig{}
}

// LoadDetectionConfig loads a DetectionConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadDetectionConfig(path string) (*DetectionConfig, error) {
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

	cfg := EmptyDetectionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical detection defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *DetectionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/motion/*
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadDetectionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Merge returns a new DetectionConfig where every non-nil field of overlay
// replaces the corresponding field of the receiver. Neither input is mutated.
func (c *DetectionConfig) Merge(overlay *DetectionConfig) *DetectionConfig {
	out := c.Clone()
	if overlay == nil {
		return out
	}
	if overlay.AccelerationThreshold != nil {
		out.AccelerationThreshold = ptrFloat64(*overlay.AccelerationThreshold)
	}
	if overlay.BrakingThreshold != nil {
		out.BrakingThreshold = ptrFloat64(*overlay.BrakingThreshold)
	}
	if overlay.SamplingRateMs != nil {
		out.SamplingRateMs = ptrInt(*overlay.SamplingRateMs)
	}
	if overlay.AlertCooldownMs != nil {
		out.AlertCooldownMs = ptrInt(*overlay.AlertCooldownMs)
	}
	if overlay.EnableSensorFusion != nil {
		out.EnableSensorFusion = ptrBool(*overlay.EnableSensorFusion)
	}
	if overlay.EnableMultistageFiltering != nil {
		out.EnableMultistageFiltering = ptrBool(*overlay.EnableMultistageFiltering)
	}
	if overlay.SmoothingFactor != nil {
		out.SmoothingFactor = ptrFloat64(*overlay.SmoothingFactor)
	}
	if overlay.ProcessNoise != nil {
		out.ProcessNoise = ptrFloat64(*overlay.ProcessNoise)
	}
	if overlay.MeasurementNoise != nil {
		out.MeasurementNoise = ptrFloat64(*overlay.MeasurementNoise)
	}
	if overlay.CutoffFrequency != nil {
		out.CutoffFrequency = ptrFloat64(*overlay.CutoffFrequency)
	}
	if overlay.MovingAverageWindow != nil {
		out.MovingAverageWindow = ptrInt(*overlay.MovingAverageWindow)
	}
	return out
}

// Clone returns a deep copy of the config.
func (c *DetectionConfig) Clone() *DetectionConfig {
	out := EmptyDetectionConfig()
	if c == nil {
		return out
	}
	if c.AccelerationThreshold != nil {
		out.AccelerationThreshold = ptrFloat64(*c.AccelerationThreshold)
	}
	if c.BrakingThreshold != nil {
		out.BrakingThreshold = ptrFloat64(*c.BrakingThreshold)
	}
	if c.SamplingRateMs != nil {
		out.SamplingRateMs = ptrInt(*c.SamplingRateMs)
	}
	if c.AlertCooldownMs != nil {
		out.AlertCooldownMs = ptrInt(*c.AlertCooldownMs)
	}
	if c.EnableSensorFusion != nil {
		out.EnableSensorFusion = ptrBool(*c.EnableSensorFusion)
	}
	if c.EnableMultistageFiltering != nil {
		out.EnableMultistageFiltering = ptrBool(*c.EnableMultistageFiltering)
	}
	if c.SmoothingFactor != nil {
		out.SmoothingFactor = ptrFloat64(*c.SmoothingFactor)
	}
	if c.ProcessNoise != nil {
		out.ProcessNoise = ptrFloat64(*c.ProcessNoise)
	}
	if c.MeasurementNoise != nil {
		out.MeasurementNoise = ptrFloat64(*c.MeasurementNoise)
	}
	if c.CutoffFrequency != nil {
		out.CutoffFrequency = ptrFloat64(*c.CutoffFrequency)
	}
	if c.MovingAverageWindow != nil {
		out.MovingAverageWindow = ptrInt(*c.MovingAverageWindow)
	}
	return out
}

// Violations checks every set field against its documented closed range and
// returns one human-readable message per violation. Out-of-range values are
// reported, never clamped; an empty slice means the config is valid.
func (c *DetectionConfig) Violations() []string {
	var out []string
	if c.AccelerationThreshold != nil {
		if v := *c.AccelerationThreshold; v < 1 || v > 20 {
			out = append(out, fmt.Sprintf("acceleration_threshold must be between 1 and 20 m/s², got %g", v))
		}
	}
	if c.BrakingThreshold != nil {
		if v := *c.BrakingThreshold; v < -20 || v > -1 {
			out = append(out, fmt.Sprintf("braking_threshold must be between -20 and -1 m/s², got %g", v))
		}
	}
	if c.SamplingRateMs != nil {
		if v := *c.SamplingRateMs; v < 50 || v > 1000 {
			out = append(out, fmt.Sprintf("sampling_rate must be between 50 and 1000 ms, got %d", v))
		}
	}
	if c.SmoothingFactor != nil {
		if v := *c.SmoothingFactor; v < 0 || v > 1 {
			out = append(out, fmt.Sprintf("smoothing_factor must be between 0 and 1, got %g", v))
		}
	}
	if c.AlertCooldownMs != nil {
		if v := *c.AlertCooldownMs; v < 1000 || v > 60000 {
			out = append(out, fmt.Sprintf("alert_cooldown must be between 1000 and 60000 ms, got %d", v))
		}
	}
	if c.ProcessNoise != nil {
		if v := *c.ProcessNoise; v < 0.001 || v > 1 {
			out = append(out, fmt.Sprintf("process_noise must be between 0.001 and 1, got %g", v))
		}
	}
	if c.MeasurementNoise != nil {
		if v := *c.MeasurementNoise; v < 0.01 || v > 10 {
			out = append(out, fmt.Sprintf("measurement_noise must be between 0.01 and 10, got %g", v))
		}
	}
	if c.CutoffFrequency != nil {
		if v := *c.CutoffFrequency; v < 0.5 || v > 5 {
			out = append(out, fmt.Sprintf("cutoff_frequency must be between 0.5 and 5 Hz, got %g", v))
		}
	}
	if c.MovingAverageWindow != nil {
		if v := *c.MovingAverageWindow; v < 3 || v > 20 {
			out = append(out, fmt.Sprintf("moving_average_window must be between 3 and 20 samples, got %d", v))
		}
	}
	// The Butterworth stage is only stable below the Nyquist frequency.
	// Both fields must be set (or defaulted) for the check to be meaningful;
	// Violations only inspects fields the caller actually provided.
	if c.CutoffFrequency != nil && c.SamplingRateMs != nil && *c.SamplingRateMs > 0 {
		nyquist := 1000.0 / float64(*c.SamplingRateMs) / 2.0
		if *c.CutoffFrequency >= nyquist {
			out = append(out, fmt.Sprintf("cutoff_frequency %g Hz must be below the Nyquist frequency %g Hz for sampling_rate %d ms",
				*c.CutoffFrequency, nyquist, *c.SamplingRateMs))
		}
	}
	return out
}

// Validate checks that the configuration values are valid.
func (c *DetectionConfig) Validate() error {
	if violations := c.Violations(); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// ValidationError reports one or more out-of-range configuration fields.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid settings: " + e.Violations[0]
	}
	return fmt.Sprintf("invalid settings: %d violations (first: %s)", len(e.Violations), e.Violations[0])
}

// GetAccelerationThreshold returns the acceleration_threshold value or the default.
func (c *DetectionConfig) GetAccelerationThreshold() float64 {
	if c.AccelerationThreshold == nil {
		return 6.5
	}
	return *c.AccelerationThreshold
}

// GetBrakingThreshold returns the braking_threshold value or the default.
func (c *DetectionConfig) GetBrakingThreshold() float64 {
	if c.BrakingThreshold == nil {
		return -7.0
	}
	return *c.BrakingThreshold
}

// GetSamplingRateMs returns the sampling_rate value or the default.
func (c *DetectionConfig) GetSamplingRateMs() int {
	if c.SamplingRateMs == nil {
		return 100 // 10 Hz
	}
	return *c.SamplingRateMs
}

// SamplingFrequencyHz derives the nominal sample frequency from the
// sampling period.
func (c *DetectionConfig) SamplingFrequencyHz() float64 {
	return 1000.0 / float64(c.GetSamplingRateMs())
}

// GetAlertCooldownMs returns the alert_cooldown value or the default.
func (c *DetectionConfig) GetAlertCooldownMs() int {
	if c.AlertCooldownMs == nil {
		return 5000
	}
	return *c.AlertCooldownMs
}

// GetEnableSensorFusion returns the enable_sensor_fusion value or the default.
func (c *DetectionConfig) GetEnableSensorFusion() bool {
	if c.EnableSensorFusion == nil {
		return true
	}
	return *c.EnableSensorFusion
}

// GetEnableMultistageFiltering returns the enable_multistage_filtering value or the default.
func (c *DetectionConfig) GetEnableMultistageFiltering() bool {
	if c.EnableMultistageFiltering == nil {
		return true
	}
	return *c.EnableMultistageFiltering
}

// GetSmoothingFactor returns the smoothing_factor value or the default.
func (c *DetectionConfig) GetSmoothingFactor() float64 {
	if c.SmoothingFactor == nil {
		return 0.3
	}
	return *c.SmoothingFactor
}

// GetProcessNoise returns the process_noise value or the default.
func (c *DetectionConfig) GetProcessNoise() float64 {
	if c.ProcessNoise == nil {
		return 0.01
	}
	return *c.ProcessNoise
}

// GetMeasurementNoise returns the measurement_noise value or the default.
func (c *DetectionConfig) GetMeasurementNoise() float64 {
	if c.MeasurementNoise == nil {
		return 0.1
	}
	return *c.MeasurementNoise
}

// GetCutoffFrequency returns the cutoff_frequency value or the default.
func (c *DetectionConfig) GetCutoffFrequency() float64 {
	if c.CutoffFrequency == nil {
		return 2.0
	}
	return *c.CutoffFrequency
}

// GetMovingAverageWindow returns the moving_average_window value or the default.
func (c *DetectionConfig) GetMovingAverageWindow() int {
	if c.MovingAverageWindow == nil {
		return 5
	}
	return *c.MovingAverageWindow
}

// Settings is a fully-resolved, immutable snapshot of a DetectionConfig.
// Pipeline constructors take a Settings value rather than the pointer-field
// config so a running filter/detector can never observe a partial update.
type Settings struct {
	AccelerationThreshold     float64
	BrakingThreshold          float64
	SamplingRateMs            int
	AlertCooldownMs           int
	EnableSensorFusion        bool
	EnableMultistageFiltering bool
	SmoothingFactor           float64
	ProcessNoise              float64
	MeasurementNoise          float64
	CutoffFrequency           float64
	MovingAverageWindow       int
}

// Resolve materialises every field, substituting defaults for nil fields.
func (c *DetectionConfig) Resolve() Settings {
	return Settings{
		AccelerationThreshold:     c.GetAccelerationThreshold(),
		BrakingThreshold:          c.GetBrakingThreshold(),
		SamplingRateMs:            c.GetSamplingRateMs(),
		AlertCooldownMs:           c.GetAlertCooldownMs(),
		EnableSensorFusion:        c.GetEnableSensorFusion(),
		EnableMultistageFiltering: c.GetEnableMultistageFiltering(),
		SmoothingFactor:           c.GetSmoothingFactor(),
		ProcessNoise:              c.GetProcessNoise(),
		MeasurementNoise:          c.GetMeasurementNoise(),
		CutoffFrequency:           c.GetCutoffFrequency(),
		MovingAverageWindow:       c.GetMovingAverageWindow(),
	}
}

// SamplingFrequencyHz derives the nominal sample frequency from the
// sampling period.
func (s Settings) SamplingFrequencyHz() float64 {
	return 1000.0 / float64(s.SamplingRateMs)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDetectionConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads partial config", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"acceleration_threshold": 5.5}`), 0644))

		cfg, err := LoadDetectionConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 5.5, cfg.GetAccelerationThreshold())
		// Omitted fields fall back to defaults.
		assert.Equal(t, -7.0, cfg.GetBrakingThreshold())
		assert.Equal(t, 100, cfg.GetSamplingRateMs())
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		t.Parallel()
		_, err := LoadDetectionConfig("cfg.yaml")
		assert.Error(t, err)
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"acceleration_threshold": 25}`), 0644))

		_, err := LoadDetectionConfig(path)
		assert.Error(t, err)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadDetectionConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}

func TestDefaultsFileMatchesAccessors(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	// The canonical defaults file must agree with the inline accessor
	// defaults so a missing file and a pristine file behave identically.
	want := EmptyDetectionConfig().Resolve()
	got := cfg.Resolve()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("detection.defaults.json disagrees with accessor defaults (-accessors +file):\n%s", diff)
	}
}

func TestViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DetectionConfig
		want int
	}{
		{"empty config is valid", DetectionConfig{}, 0},
		{"acceleration too high", DetectionConfig{AccelerationThreshold: ptrFloat64(25)}, 1},
		{"acceleration too low", DetectionConfig{AccelerationThreshold: ptrFloat64(0.5)}, 1},
		{"braking must be negative", DetectionConfig{BrakingThreshold: ptrFloat64(3)}, 1},
		{"sampling rate below minimum", DetectionConfig{SamplingRateMs: ptrInt(10)}, 1},
		{"smoothing factor above one", DetectionConfig{SmoothingFactor: ptrFloat64(1.5)}, 1},
		{"cooldown too short", DetectionConfig{AlertCooldownMs: ptrInt(500)}, 1},
		{"process noise zero", DetectionConfig{ProcessNoise: ptrFloat64(0)}, 1},
		{"measurement noise too large", DetectionConfig{MeasurementNoise: ptrFloat64(50)}, 1},
		{"cutoff out of range", DetectionConfig{CutoffFrequency: ptrFloat64(0.1)}, 1},
		{"window too small", DetectionConfig{MovingAverageWindow: ptrInt(2)}, 1},
		{"window too large", DetectionConfig{MovingAverageWindow: ptrInt(32)}, 1},
		{
			"cutoff above nyquist",
			DetectionConfig{CutoffFrequency: ptrFloat64(4.0), SamplingRateMs: ptrInt(200)},
			1,
		},
		{
			"multiple violations reported together",
			DetectionConfig{
				AccelerationThreshold: ptrFloat64(100),
				BrakingThreshold:      ptrFloat64(100),
				MovingAverageWindow:   ptrInt(1),
			},
			3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.cfg.Violations()
			assert.Len(t, got, tt.want, "violations: %v", got)
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	base := &DetectionConfig{AccelerationThreshold: ptrFloat64(6.5)}
	overlay := &DetectionConfig{AccelerationThreshold: ptrFloat64(4.0), SamplingRateMs: ptrInt(200)}

	merged := base.Merge(overlay)

	assert.Equal(t, 4.0, merged.GetAccelerationThreshold())
	assert.Equal(t, 200, merged.GetSamplingRateMs())
	assert.Equal(t, 6.5, *base.AccelerationThreshold, "base must be unchanged")

	// Merged copies must not alias the overlay's pointers.
	*overlay.AccelerationThreshold = 99
	assert.Equal(t, 4.0, merged.GetAccelerationThreshold())
}

func TestPresetsAreValid(t *testing.T) {
	t.Parallel()

	presets := GetPresets()
	require.Len(t, presets, len(GetPresetNames()))

	defaults := EmptyDetectionConfig()
	for _, name := range GetPresetNames() {
		preset, ok := presets[name]
		require.True(t, ok, "missing preset %q", name)

		merged := defaults.Merge(preset)
		assert.Empty(t, merged.Violations(), "preset %q merged over defaults must validate", name)
	}
}

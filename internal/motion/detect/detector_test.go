package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion"
)

func testSettings() config.Settings {
	s := config.EmptyDetectionConfig().Resolve()
	s.AccelerationThreshold = 6.5
	s.BrakingThreshold = -7.0
	s.AlertCooldownMs = 5000
	return s
}

func TestDetectorEmitsOnThresholdCrossing(t *testing.T) {
	t.Parallel()

	t.Run("acceleration", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(testSettings())

		assert.Nil(t, d.Process(5.0, 1000))

		ev := d.Process(8.2, 1100)
		require.NotNil(t, ev)
		assert.Equal(t, ViolationAcceleration, ev.Type)
		assert.Equal(t, 8.2, ev.Magnitude)
		assert.Equal(t, int64(1100), ev.TimestampMs)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, StateViolationActive, d.State())
	})

	t.Run("braking", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(testSettings())

		ev := d.Process(-9.1, 1000)
		require.NotNil(t, ev)
		assert.Equal(t, ViolationBraking, ev.Type)
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(testSettings())

		assert.Nil(t, d.Process(6.5, 1000), "exactly at threshold must not fire")
		assert.Nil(t, d.Process(-7.0, 1100))
	})
}

func TestDetectorDebounce(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSettings())

	// A sustained excursion crossing the threshold on every sample must
	// yield exactly one event within the cooldown window.
	events := 0
	for ts := int64(1000); ts < 5000; ts += 100 {
		if ev := d.Process(9.0, ts); ev != nil {
			events++
		}
	}
	assert.Equal(t, 1, events)
	assert.Equal(t, 1, d.EventCount())
}

func TestDetectorRearmsAfterCooldown(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSettings())

	first := d.Process(9.0, 1000)
	require.NotNil(t, first)

	// Still cooling down at +4999 ms.
	assert.Nil(t, d.Process(9.0, 5999))

	// Cooldown elapsed: a fresh crossing fires again.
	second := d.Process(9.0, 6000)
	require.NotNil(t, second)
	assert.GreaterOrEqual(t, second.TimestampMs-first.TimestampMs, int64(5000),
		"consecutive events must be at least a cooldown apart")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDetectorReturnsToNormalOnQuietSignal(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSettings())
	require.NotNil(t, d.Process(9.0, 1000))
	require.Equal(t, StateViolationActive, d.State())

	d.Process(0.5, 6100)
	assert.Equal(t, StateNormal, d.State())
}

func TestDetectorOneEventPerSample(t *testing.T) {
	t.Parallel()

	// A value beyond both thresholds is impossible physically, but each
	// sample still classifies as exactly one type with at most one event.
	d := NewDetector(testSettings())
	ev := d.Process(25.0, 1000)
	require.NotNil(t, ev)
	assert.Equal(t, ViolationAcceleration, ev.Type)
}

func TestDetectorReset(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSettings())
	require.NotNil(t, d.Process(9.0, 1000))
	require.Equal(t, 1, d.EventCount())

	d.Reset()
	assert.Equal(t, StateNormal, d.State())
	assert.Equal(t, 0, d.EventCount())

	// No residual cooldown: an immediate crossing fires.
	assert.NotNil(t, d.Process(9.0, 1100))
}

func TestDetectorEventIDsReproducible(t *testing.T) {
	t.Parallel()

	run := func() *ViolationEvent {
		d := NewDetector(testSettings())
		d.Process(5.0, 1000)
		return d.Process(9.0, 1100)
	}

	first := run()
	second := run()
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID, "identical input sequences must reproduce identical events")

	// Different content yields a different identifier.
	d := NewDetector(testSettings())
	other := d.Process(9.0, 2000)
	require.NotNil(t, other)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestSelectInput(t *testing.T) {
	t.Parallel()

	raw := motion.Vector3D{X: 3.3, Y: 1.0, Z: 9.8}

	fused := testSettings()
	fused.EnableSensorFusion = true
	assert.Equal(t, 7.7, SelectInput(fused, raw, 7.7))

	legacy := testSettings()
	legacy.EnableSensorFusion = false
	assert.Equal(t, 3.3, SelectInput(legacy, raw, 7.7))
}

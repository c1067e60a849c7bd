package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion"
	"github.com/banshee-data/behavior.report/internal/units"
)

func testSettings() config.Settings {
	return config.EmptyDetectionConfig().Resolve()
}

// feedStationary delivers n flat-mounted stationary samples at 100 ms
// intervals starting at startMs, returning the last estimate.
func feedStationary(e *Estimator, startMs int64, n int) Estimate {
	var est Estimate
	for i := 0; i < n; i++ {
		est = e.Process(motion.SensorSample{
			TimestampMs:   startMs + int64(i)*100,
			Accelerometer: motion.Vector3D{Z: units.StandardGravity},
		})
	}
	return est
}

func TestStationaryDeviceProducesNoLinearAcceleration(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())
	est := feedStationary(e, 1000, 100)

	assert.InDelta(t, 0, est.Linear.Magnitude(), 0.05)
	assert.InDelta(t, 0, est.Longitudinal, 0.05)
	assert.True(t, est.Calibrated)
}

func TestCalibrationSucceedsNearOneG(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())
	feedStationary(e, 1000, 30) // 3 s at 10 Hz covers the 2 s window

	calib := e.Calibration()
	assert.True(t, calib.Attempted)
	assert.True(t, calib.Succeeded)
	assert.GreaterOrEqual(t, calib.DurationMs, int64(2000))
}

func TestCalibrationFailsOnBogusGravity(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())
	// A device reporting 3 m/s² total is nowhere near 1 g.
	for i := 0; i < 30; i++ {
		e.Process(motion.SensorSample{
			TimestampMs:   1000 + int64(i)*100,
			Accelerometer: motion.Vector3D{Z: 3.0},
		})
	}

	calib := e.Calibration()
	assert.True(t, calib.Attempted)
	assert.False(t, calib.Succeeded)
}

func TestTiltedMountingIsCompensated(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())

	// Gravity split between Y and Z: device mounted at an angle.
	tilted := motion.Vector3D{Y: units.StandardGravity * 0.6, Z: units.StandardGravity * 0.8}
	var est Estimate
	for i := 0; i < 100; i++ {
		est = e.Process(motion.SensorSample{
			TimestampMs:   1000 + int64(i)*100,
			Accelerometer: tilted,
		})
	}

	// Once the baseline tracks the tilted gravity, linear output is near
	// zero even though raw Y reads ~5.9 m/s².
	assert.InDelta(t, 0, est.Linear.Magnitude(), 0.1)
}

func TestLongitudinalSignConvention(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())
	feedStationary(e, 1000, 30)

	g := units.StandardGravity
	ts := int64(4000)

	// Sustained forward acceleration seeds the travel axis positive.
	var est Estimate
	for i := 0; i < 20; i++ {
		ts += 100
		est = e.Process(motion.SensorSample{
			TimestampMs:   ts,
			Accelerometer: motion.Vector3D{X: 3.0, Z: g},
		})
	}
	require.Greater(t, est.Longitudinal, 1.0, "forward acceleration must be positive")

	// Settle, then brake along the same axis: the projection flips sign.
	for i := 0; i < 20; i++ {
		ts += 100
		est = e.Process(motion.SensorSample{
			TimestampMs:   ts,
			Accelerometer: motion.Vector3D{Z: g},
		})
	}
	for i := 0; i < 20; i++ {
		ts += 100
		est = e.Process(motion.SensorSample{
			TimestampMs:   ts,
			Accelerometer: motion.Vector3D{X: -3.0, Z: g},
		})
	}
	assert.Less(t, est.Longitudinal, -1.0, "braking must be negative")
}

func TestResetClearsState(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())
	feedStationary(e, 1000, 30)
	require.True(t, e.Calibration().Attempted)

	e.Reset()
	assert.False(t, e.Calibration().Attempted)

	// After reset the estimator behaves like a fresh one.
	fresh := NewEstimator(testSettings())
	a := feedStationary(e, 99000, 30)
	b := feedStationary(fresh, 99000, 30)
	assert.Equal(t, b, a)
}

func TestTiltAngles(t *testing.T) {
	t.Parallel()

	e := NewEstimator(testSettings())
	feedStationary(e, 1000, 30)

	roll, pitch := e.TiltAngles()
	assert.InDelta(t, 0, roll, 1.0)
	assert.InDelta(t, 0, pitch, 1.0)
}

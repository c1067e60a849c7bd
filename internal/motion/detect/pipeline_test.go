package detect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/behavior.report/internal/motion"
)

func stationarySample(ts int64) motion.SensorSample {
	return motion.SensorSample{
		TimestampMs:   ts,
		Accelerometer: motion.Vector3D{Z: 9.81},
	}
}

func TestPipelineRejectsNonFiniteSamples(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.EnableSensorFusion = true
	s.EnableMultistageFiltering = true
	p := NewPipeline(s)

	p.ProcessSample(stationarySample(0))

	bad := stationarySample(100)
	bad.Accelerometer.X = math.NaN()
	assert.Nil(t, p.ProcessSample(bad))

	bad = stationarySample(200)
	bad.Gyroscope.Y = math.Inf(1)
	assert.Nil(t, p.ProcessSample(bad))

	seen, skipped := p.SampleCounts()
	assert.Equal(t, 3, seen)
	assert.Equal(t, 2, skipped)
}

func TestPipelineStationaryEmitsNothing(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.EnableSensorFusion = true
	s.EnableMultistageFiltering = true
	p := NewPipeline(s)

	for ts := int64(0); ts < 10_000; ts += 100 {
		assert.Nil(t, p.ProcessSample(stationarySample(ts)))
	}
	assert.Equal(t, 0, p.Detector().EventCount())
}

func TestPipelineRawPathDetects(t *testing.T) {
	t.Parallel()

	// Fusion and filtering off: the detector sees the raw X axis.
	s := testSettings()
	s.EnableSensorFusion = false
	s.EnableMultistageFiltering = false
	p := NewPipeline(s)

	sample := stationarySample(1000)
	sample.Accelerometer.X = 9.0
	ev := p.ProcessSample(sample)
	require.NotNil(t, ev)
	assert.Equal(t, ViolationAcceleration, ev.Type)
	assert.Equal(t, 9.0, p.LastInput())
}

func TestPipelineReset(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.EnableSensorFusion = false
	s.EnableMultistageFiltering = false
	p := NewPipeline(s)

	sample := stationarySample(1000)
	sample.Accelerometer.X = 9.0
	require.NotNil(t, p.ProcessSample(sample))

	p.Reset()
	seen, skipped := p.SampleCounts()
	assert.Equal(t, 0, seen)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 0, p.Detector().EventCount())
	assert.Equal(t, 0.0, p.LastInput())
}

func TestPipelineApplySettings(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.EnableSensorFusion = false
	s.EnableMultistageFiltering = false
	p := NewPipeline(s)

	// Raise the threshold: a crossing that fired before no longer does.
	s.AccelerationThreshold = 15.0
	p.ApplySettings(s)

	sample := stationarySample(1000)
	sample.Accelerometer.X = 9.0
	assert.Nil(t, p.ProcessSample(sample))

	sample = stationarySample(1100)
	sample.Accelerometer.X = 16.0
	assert.NotNil(t, p.ProcessSample(sample))
}

func TestPipelineApplySettingsRetunesSampleRate(t *testing.T) {
	t.Parallel()

	s := testSettings()
	p := NewPipeline(s)
	require.Equal(t, s.SamplingFrequencyHz(), p.filter.Params().SamplingFrequencyHz)

	// A sampling rate change must reach the filter so the Butterworth
	// coefficients derive from the rate actually in effect.
	s.SamplingRateMs = 200
	p.ApplySettings(s)
	assert.Equal(t, 5.0, p.filter.Params().SamplingFrequencyHz)
}

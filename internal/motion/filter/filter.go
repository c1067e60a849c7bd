// Package filter implements the three-stage noise filter applied to
// inertial samples before violation detection: a scalar Kalman estimate,
// a second-order Butterworth low-pass and a moving average, applied in
// sequence and independently per axis.
//
// The stages suppress high-frequency sensor noise while preserving the
// transients that indicate harsh driving. Filtering is deterministic:
// the same state and input sequence always produce the same outputs.
package filter

import (
	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion"
)

// Params holds the tunable filter parameters for one construction.
type Params struct {
	ProcessNoise        float64 // Kalman Q
	MeasurementNoise    float64 // Kalman R
	CutoffFrequencyHz   float64 // Butterworth low-pass cutoff
	SamplingFrequencyHz float64 // nominal sample rate
	MovingAverageWindow int     // moving-average buffer size (samples)
}

// ParamsFromSettings derives filter parameters from a resolved settings
// snapshot.
func ParamsFromSettings(s config.Settings) Params {
	return Params{
		ProcessNoise:        s.ProcessNoise,
		MeasurementNoise:    s.MeasurementNoise,
		CutoffFrequencyHz:   s.CutoffFrequency,
		SamplingFrequencyHz: s.SamplingFrequencyHz(),
		MovingAverageWindow: s.MovingAverageWindow,
	}
}

// Update describes a partial parameter change. Nil fields keep their
// current value. Changing the moving-average window invalidates the
// buffer shape, so Multistage.UpdateParameters forces a full reset in
// that case.
type Update struct {
	ProcessNoise        *float64
	MeasurementNoise    *float64
	CutoffFrequencyHz   *float64
	SamplingFrequencyHz *float64
	MovingAverageWindow *int
}

// scalarChain is the per-axis stage sequence. The three axes of a
// Multistage filter are three instances of this one type.
type scalarChain struct {
	kalman      kalmanState
	butterworth butterworthState
	movingAvg   movingAverageState
}

func newScalarChain(p Params) scalarChain {
	return scalarChain{
		kalman:      newKalmanState(p.ProcessNoise, p.MeasurementNoise),
		butterworth: newButterworthState(p.CutoffFrequencyHz, p.SamplingFrequencyHz),
		movingAvg:   newMovingAverageState(p.MovingAverageWindow),
	}
}

func (c *scalarChain) filter(input float64) float64 {
	v := c.kalman.update(input)
	v = c.butterworth.update(v)
	return c.movingAvg.update(v)
}

func (c *scalarChain) reset() {
	c.kalman.reset()
	c.butterworth.reset()
	c.movingAvg.reset()
}

// Multistage filters three axes independently through identical stage
// chains. Instances carry mutable state and must be exclusively owned by
// one tracking session; create a fresh filter per session rather than
// reusing one across sessions.
type Multistage struct {
	params Params
	x      scalarChain
	y      scalarChain
	z      scalarChain
}

// NewMultistage creates a filter for the given parameters.
func NewMultistage(p Params) *Multistage {
	return &Multistage{
		params: p,
		x:      newScalarChain(p),
		y:      newScalarChain(p),
		z:      newScalarChain(p),
	}
}

// Filter passes one sample through all three stages on every axis.
func (m *Multistage) Filter(input motion.Vector3D) motion.Vector3D {
	return motion.Vector3D{
		X: m.x.filter(input.X),
		Y: m.y.filter(input.Y),
		Z: m.z.filter(input.Z),
	}
}

// FilterScalar runs a single value through the X-axis chain. Used when
// sensor fusion has already collapsed the sample to one longitudinal
// component.
func (m *Multistage) FilterScalar(input float64) float64 {
	return m.x.filter(input)
}

// Reset zeroes all stage states on all axes. Parameters are retained.
func (m *Multistage) Reset() {
	m.x.reset()
	m.y.reset()
	m.z.reset()
}

// Params returns the filter's current parameters.
func (m *Multistage) Params() Params {
	return m.params
}

// UpdateParameters applies a partial parameter change in place. Noise,
// cutoff and sample-rate changes retune their stages without disturbing
// accumulated state.
// A window-size change invalidates the moving-average buffer shape, so it
// forces an implicit Reset of all stages; there is never a mixed-size
// buffer state.
func (m *Multistage) UpdateParameters(u Update) {
	if u.ProcessNoise != nil {
		m.params.ProcessNoise = *u.ProcessNoise
	}
	if u.MeasurementNoise != nil {
		m.params.MeasurementNoise = *u.MeasurementNoise
	}
	retune := false
	if u.CutoffFrequencyHz != nil && *u.CutoffFrequencyHz != m.params.CutoffFrequencyHz {
		m.params.CutoffFrequencyHz = *u.CutoffFrequencyHz
		retune = true
	}
	// Butterworth coefficients depend on the sample rate too, so a rate
	// change re-derives them against the new rate.
	if u.SamplingFrequencyHz != nil && *u.SamplingFrequencyHz != m.params.SamplingFrequencyHz {
		m.params.SamplingFrequencyHz = *u.SamplingFrequencyHz
		retune = true
	}

	for _, c := range []*scalarChain{&m.x, &m.y, &m.z} {
		c.kalman.q = m.params.ProcessNoise
		c.kalman.r = m.params.MeasurementNoise
		if retune {
			// Re-derive coefficients; the delay line carries over.
			coeffs := newButterworthState(m.params.CutoffFrequencyHz, m.params.SamplingFrequencyHz)
			c.butterworth.nb0, c.butterworth.nb1, c.butterworth.nb2 = coeffs.nb0, coeffs.nb1, coeffs.nb2
			c.butterworth.na1, c.butterworth.na2 = coeffs.na1, coeffs.na2
		}
	}

	if u.MovingAverageWindow != nil && *u.MovingAverageWindow != m.params.MovingAverageWindow {
		m.params.MovingAverageWindow = *u.MovingAverageWindow
		p := m.params
		m.x = newScalarChain(p)
		m.y = newScalarChain(p)
		m.z = newScalarChain(p)
	}
}

// Package fusion combines accelerometer and gyroscope readings into a
// gravity-compensated, orientation-independent acceleration estimate.
//
// A complementary filter tracks the gravity direction: the previous
// gravity estimate is propagated by the gyroscope rotation rates, then
// blended with the raw accelerometer using the configured smoothing
// factor. Subtracting the tracked gravity from the raw reading yields
// linear acceleration regardless of how the device is mounted, which is
// what makes detection robust to tilt.
package fusion

import (
	"math"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion"
	"github.com/banshee-data/behavior.report/internal/units"
)

// Calibration bounds: the settled gravity magnitude must land within
// ±20% of standard gravity for the baseline to count as established.
const (
	minGravityMagnitude = 0.8 * units.StandardGravity
	maxGravityMagnitude = 1.2 * units.StandardGravity

	// calibrationWindowMs is how much sample time the estimator gathers
	// before judging the gravity baseline.
	calibrationWindowMs = 2000

	// maxSampleGapSeconds clamps dt across delivery gaps so a stalled
	// sensor stream cannot produce an inflated gyro propagation step.
	maxSampleGapSeconds = 0.5

	// forwardAxisMinAccel is the minimum horizontal linear acceleration
	// (m/s²) considered informative for forward-axis estimation.
	forwardAxisMinAccel = 0.5

	// forwardAxisAlpha is the EMA weight of a new heading observation.
	forwardAxisAlpha = 0.05
)

// Estimate is the per-sample fusion output.
type Estimate struct {
	// Linear is the gravity-compensated acceleration vector (m/s²).
	Linear motion.Vector3D
	// Longitudinal is the signed component along the estimated travel
	// axis: positive for acceleration, negative for braking.
	Longitudinal float64
	// Calibrated reports whether the gravity baseline is established;
	// estimates produced before that are warm-up output.
	Calibrated bool
}

// CalibrationResult summarises the baseline-establishment phase.
type CalibrationResult struct {
	Attempted  bool
	Succeeded  bool
	DurationMs int64
}

// Estimator carries the fusion state for one tracking session. It is
// mutable, single-owner state like the multistage filter: build a fresh
// one per session.
type Estimator struct {
	smoothing float64 // accelerometer blend weight in the complementary filter
	windowMs  int64

	gravity  motion.Vector3D
	haveGrav bool

	// Calibration accumulation
	calibSamples int
	calibSum     motion.Vector3D
	calibStartMs int64
	calib        CalibrationResult

	// Forward (travel) axis estimate in the horizontal plane.
	forward     motion.Vector3D
	haveForward bool

	lastTimestampMs int64
}

// NewEstimator builds an estimator from a resolved settings snapshot.
func NewEstimator(s config.Settings) *Estimator {
	return &Estimator{
		smoothing: s.SmoothingFactor,
		windowMs:  calibrationWindowMs,
	}
}

// Reset discards all fusion state, returning the estimator to the
// uncalibrated condition.
func (e *Estimator) Reset() {
	*e = Estimator{smoothing: e.smoothing, windowMs: e.windowMs}
}

// Calibration returns the outcome of the baseline phase so far.
func (e *Estimator) Calibration() CalibrationResult {
	return e.calib
}

// Process consumes one sample and returns the fused estimate. Samples
// must be finite; the caller screens them at ingestion.
func (e *Estimator) Process(sample motion.SensorSample) Estimate {
	dt := e.deltaSeconds(sample.TimestampMs)

	if !e.calib.Attempted {
		e.accumulateCalibration(sample)
	}

	if !e.haveGrav {
		// Bootstrap the gravity estimate from the first reading.
		e.gravity = sample.Accelerometer
		e.haveGrav = true
	} else {
		// Propagate gravity by the gyro rotation: for small angles,
		// g' = g − (ω × g)·dt, then blend toward the raw accelerometer.
		// The smoothing factor is a per-second blend rate, so the
		// per-sample weight is smoothing·dt: the gravity baseline adapts
		// over seconds while multi-second maneuvers still pass through
		// as linear acceleration.
		weight := e.smoothing * dt
		if weight > 1 {
			weight = 1
		}
		propagated := subtract(e.gravity, scale(cross(sample.Gyroscope, e.gravity), dt))
		e.gravity = add(scale(propagated, 1-weight), scale(sample.Accelerometer, weight))
	}

	linear := subtract(sample.Accelerometer, e.gravity)
	longitudinal := e.longitudinal(linear)

	return Estimate{
		Linear:       linear,
		Longitudinal: longitudinal,
		Calibrated:   e.calib.Attempted && e.calib.Succeeded,
	}
}

// deltaSeconds computes the clamped time step since the previous sample.
func (e *Estimator) deltaSeconds(timestampMs int64) float64 {
	if e.lastTimestampMs == 0 {
		e.lastTimestampMs = timestampMs
		return 0
	}
	dt := float64(timestampMs-e.lastTimestampMs) / 1000.0
	e.lastTimestampMs = timestampMs
	if dt < 0 {
		return 0
	}
	if dt > maxSampleGapSeconds {
		return maxSampleGapSeconds
	}
	return dt
}

// accumulateCalibration gathers samples until the calibration window has
// elapsed, then judges the gravity baseline. A failed calibration does
// not halt the pipeline: the estimator keeps running on the standard
// gravity fallback and the failure is reported through Calibration().
func (e *Estimator) accumulateCalibration(sample motion.SensorSample) {
	if e.calibStartMs == 0 {
		e.calibStartMs = sample.TimestampMs
	}
	e.calibSum = add(e.calibSum, sample.Accelerometer)
	e.calibSamples++

	if sample.TimestampMs-e.calibStartMs < e.windowMs {
		return
	}

	mean := scale(e.calibSum, 1/float64(e.calibSamples))
	magnitude := mean.Magnitude()

	e.calib.Attempted = true
	e.calib.DurationMs = sample.TimestampMs - e.calibStartMs
	e.calib.Succeeded = magnitude >= minGravityMagnitude && magnitude <= maxGravityMagnitude

	if e.calib.Succeeded {
		e.gravity = mean
		e.haveGrav = true
	} else {
		// Device-frame unknown; assume flat mounting as the fallback.
		e.gravity = motion.Vector3D{Z: units.StandardGravity}
		e.haveGrav = true
	}
}

// longitudinal projects the linear acceleration onto the horizontal
// plane and signs it along the estimated travel axis. The axis is seeded
// by the first sustained horizontal acceleration (assumed to be a
// pull-away, not a brake) and refined by EMA afterwards; subsequent
// opposing accelerations update the axis with their negation so braking
// keeps its negative sign.
func (e *Estimator) longitudinal(linear motion.Vector3D) float64 {
	horizontal := linear
	if g := e.gravity.Magnitude(); g > 1e-9 {
		ghat := scale(e.gravity, 1/g)
		horizontal = subtract(linear, scale(ghat, dot(linear, ghat)))
	}

	mag := horizontal.Magnitude()
	if mag < 1e-9 {
		return 0
	}
	hhat := scale(horizontal, 1/mag)

	if !e.haveForward {
		if mag < forwardAxisMinAccel {
			return mag
		}
		e.forward = hhat
		e.haveForward = true
		return mag
	}

	projected := dot(horizontal, e.forward)

	if mag >= forwardAxisMinAccel {
		observation := hhat
		if projected < 0 {
			observation = scale(hhat, -1)
		}
		e.forward = normalize(add(scale(e.forward, 1-forwardAxisAlpha), scale(observation, forwardAxisAlpha)))
	}

	return projected
}

func add(a, b motion.Vector3D) motion.Vector3D {
	return motion.Vector3D{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func subtract(a, b motion.Vector3D) motion.Vector3D {
	return motion.Vector3D{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func scale(v motion.Vector3D, s float64) motion.Vector3D {
	return motion.Vector3D{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func dot(a, b motion.Vector3D) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b motion.Vector3D) motion.Vector3D {
	return motion.Vector3D{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func normalize(v motion.Vector3D) motion.Vector3D {
	m := v.Magnitude()
	if m < 1e-12 {
		return v
	}
	return scale(v, 1/m)
}

// TiltAngles returns roll and pitch (degrees) derived from the current
// gravity estimate, using the accelerometer tilt formulas. Exposed for
// diagnostics output.
func (e *Estimator) TiltAngles() (rollDeg, pitchDeg float64) {
	g := e.gravity
	roll := math.Atan2(g.Y, g.Z)
	pitch := math.Atan2(-g.X, math.Sqrt(g.Y*g.Y+g.Z*g.Z))
	return roll * 180 / math.Pi, pitch * 180 / math.Pi
}

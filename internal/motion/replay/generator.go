package replay

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/behavior.report/internal/motion"
	"github.com/banshee-data/behavior.report/internal/units"
)

// sessionEpochMs anchors synthetic timestamps at 2026-01-01T00:00:00Z.
// Captured sessions carry epoch-milliseconds timestamps, so fixtures do
// too; nothing downstream may depend on a zero time origin.
const sessionEpochMs int64 = 1_767_225_600_000

// GeneratorConfig shapes a synthetic session. The zero value is not
// usable; start from DefaultGeneratorConfig.
type GeneratorConfig struct {
	// Seed drives the noise source. Identical seeds and parameters
	// produce byte-identical sessions.
	Seed           int64
	SamplingRateMs int
	DurationMs     int64

	// StationaryMs is the quiet lead-in that lets gravity calibration
	// settle before any maneuver starts.
	StationaryMs int64

	// NoiseStdDev is the accelerometer noise per axis in m/s².
	NoiseStdDev float64
	// GyroNoiseStdDev is the gyroscope noise per axis in rad/s.
	GyroNoiseStdDev float64

	// TiltDegrees rotates the mounting about the device Y axis, leaking
	// gravity into the X axis the way a windshield-mounted phone does.
	TiltDegrees float64

	// SpikeAmplitude is the peak maneuver acceleration in m/s². Risky
	// sessions spike beyond it; safe sessions stay well inside.
	SpikeAmplitude float64
	// SpikeIntervalMs spaces maneuver onsets. Keep it above the alert
	// cooldown so each spike can score as its own event.
	SpikeIntervalMs int64
	// SpikeDurationMs is how long each maneuver is held at peak.
	SpikeDurationMs int64

	// DropoutProbability corrupts a sample to NaN with this per-sample
	// probability, exercising the non-finite rejection path.
	DropoutProbability float64
}

// DefaultGeneratorConfig returns the parameters used for fixture
// sessions: two minutes at 100ms with a 3s stationary lead-in.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:            1,
		SamplingRateMs:  100,
		DurationMs:      120_000,
		StationaryMs:    3_000,
		NoiseStdDev:     0.15,
		GyroNoiseStdDev: 0.01,
		SpikeAmplitude:  9.0,
		SpikeIntervalMs: 10_000,
		SpikeDurationMs: 600,
	}
}

// GenerateSession synthesizes a labeled session. Risky sessions carry
// hard acceleration and braking maneuvers at SpikeAmplitude on a fixed
// cadence; safe sessions carry gentle maneuvers at a third of it on the
// same cadence, so the two labels separate on violation rate rather
// than on signal shape.
func GenerateSession(name, label string, cfg GeneratorConfig) (*DatasetSession, error) {
	if label != SessionSafe && label != SessionRisky {
		return nil, fmt.Errorf("%w: unknown label %q", ErrMalformedSession, label)
	}
	if cfg.SamplingRateMs <= 0 || cfg.DurationMs <= 0 {
		return nil, fmt.Errorf("generator config needs positive sampling rate and duration")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	tilt := cfg.TiltDegrees * math.Pi / 180
	gravityX := units.StandardGravity * math.Sin(tilt)
	gravityZ := units.StandardGravity * math.Cos(tilt)

	peak := cfg.SpikeAmplitude
	if label == SessionSafe {
		peak = cfg.SpikeAmplitude / 3
	}

	session := &DatasetSession{Name: name, Type: label}
	for ts := int64(0); ts <= cfg.DurationMs; ts += int64(cfg.SamplingRateMs) {
		forward := 0.0
		if ts >= cfg.StationaryMs && cfg.SpikeIntervalMs > 0 {
			phase := (ts - cfg.StationaryMs) % cfg.SpikeIntervalMs
			if phase < cfg.SpikeDurationMs {
				forward = peak
				// Alternate hard acceleration and hard braking.
				if ((ts-cfg.StationaryMs)/cfg.SpikeIntervalMs)%2 == 1 {
					forward = -peak
				}
			}
		}

		sample := motion.SensorSample{
			TimestampMs: sessionEpochMs + ts,
			Accelerometer: motion.Vector3D{
				X: gravityX + forward*math.Cos(tilt) + rng.NormFloat64()*cfg.NoiseStdDev,
				Y: rng.NormFloat64() * cfg.NoiseStdDev,
				Z: gravityZ - forward*math.Sin(tilt) + rng.NormFloat64()*cfg.NoiseStdDev,
			},
			Gyroscope: motion.Vector3D{
				X: rng.NormFloat64() * cfg.GyroNoiseStdDev,
				Y: rng.NormFloat64() * cfg.GyroNoiseStdDev,
				Z: rng.NormFloat64() * cfg.GyroNoiseStdDev,
			},
		}
		if cfg.DropoutProbability > 0 && rng.Float64() < cfg.DropoutProbability {
			sample.Accelerometer.X = math.NaN()
		}
		session.Data = append(session.Data, sample)
	}

	session.Normalize()
	return session, nil
}

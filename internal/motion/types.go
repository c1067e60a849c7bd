// Package motion defines the shared types for the driver-behaviour
// detection pipeline: raw inertial samples and the vectors they carry.
//
// The pipeline layers build on these types in sequence: fusion
// (gravity compensation), filter (multistage smoothing), detect
// (threshold/cooldown classification), replay (offline validation).
package motion

import "math"

// Vector3D is a three-axis sensor reading in the device frame.
// Accelerometer vectors are in m/s² (gravity plus linear acceleration);
// gyroscope vectors are in rad/s.
type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns the Euclidean norm of the vector.
func (v Vector3D) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether all three components are finite numbers.
func (v Vector3D) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// SensorSample is one timestamped accelerometer + gyroscope reading.
// Samples arrive at a nominal period of SamplingRate milliseconds.
type SensorSample struct {
	// TimestampMs is milliseconds since the Unix epoch.
	TimestampMs   int64    `json:"timestamp"`
	Accelerometer Vector3D `json:"accelerometer"`
	Gyroscope     Vector3D `json:"gyroscope"`
}

// IsFinite reports whether every numeric field of the sample is finite.
// Non-finite samples must be rejected at ingestion, before they can
// contaminate filter state.
func (s SensorSample) IsFinite() bool {
	return s.Accelerometer.IsFinite() && s.Gyroscope.IsFinite()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

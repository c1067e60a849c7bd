// Package detect turns the continuous filtered acceleration signal into
// discrete, debounced harsh-driving events.
package detect

import (
	"fmt"
	"math"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion"
	"github.com/google/uuid"
)

// ViolationType discriminates the two event classes.
type ViolationType string

const (
	ViolationAcceleration ViolationType = "acceleration"
	ViolationBraking      ViolationType = "braking"
)

// DetectorState is the lifecycle state of the threshold classifier.
type DetectorState string

const (
	StateNormal          DetectorState = "normal"
	StateViolationActive DetectorState = "violation_active"
)

// ViolationEvent is one detected harsh acceleration or braking event.
// Events are immutable once emitted.
type ViolationEvent struct {
	ID          string        `json:"id"`
	Type        ViolationType `json:"type"`
	Magnitude   float64       `json:"magnitude"`
	TimestampMs int64         `json:"timestamp"`
}

// Detector is the stateful threshold/cooldown classifier. It consumes one
// longitudinal acceleration value per sample and emits at most one event
// per sample. State is mutable and single-owner: one detector per active
// tracking session, never shared.
type Detector struct {
	accelerationThreshold float64
	brakingThreshold      float64
	cooldownMs            int64

	state       DetectorState
	lastEventMs int64
	events      int
}

// NewDetector builds a detector from a resolved settings snapshot.
func NewDetector(s config.Settings) *Detector {
	return &Detector{
		accelerationThreshold: s.AccelerationThreshold,
		brakingThreshold:      s.BrakingThreshold,
		cooldownMs:            int64(s.AlertCooldownMs),
		state:                 StateNormal,
	}
}

// State returns the current classifier state.
func (d *Detector) State() DetectorState {
	return d.state
}

// EventCount returns the number of events emitted since construction or
// the last Reset.
func (d *Detector) EventCount() int {
	return d.events
}

// Reset returns the detector to NORMAL with no cooldown pending.
func (d *Detector) Reset() {
	d.state = StateNormal
	d.lastEventMs = 0
	d.events = 0
}

// Process classifies one longitudinal acceleration value (m/s²). It
// returns a non-nil event exactly when a new threshold crossing fires:
// crossings within the cooldown window of the previous event are
// suppressed, so one physical excursion yields one event.
func (d *Detector) Process(value float64, timestampMs int64) *ViolationEvent {
	// Leave the active state once the cooldown from the triggering sample
	// has elapsed. A still-elevated signal may then re-trigger, which is
	// a new event at least cooldownMs after the previous one.
	if d.state == StateViolationActive && timestampMs-d.lastEventMs >= d.cooldownMs {
		d.state = StateNormal
	}

	if d.state != StateNormal {
		return nil
	}

	var vtype ViolationType
	switch {
	case value > d.accelerationThreshold:
		vtype = ViolationAcceleration
	case value < d.brakingThreshold:
		vtype = ViolationBraking
	default:
		return nil
	}

	d.state = StateViolationActive
	d.lastEventMs = timestampMs
	d.events++

	return &ViolationEvent{
		ID:          eventID(vtype, value, timestampMs),
		Type:        vtype,
		Magnitude:   value,
		TimestampMs: timestampMs,
	}
}

// eventIDNamespace scopes the content-derived event identifiers.
var eventIDNamespace = uuid.MustParse("6f5c1f0a-8e49-4c5f-b0d3-42a97e6d1c58")

// eventID derives a stable identifier from the event content. Replaying
// a session therefore reproduces identical events, IDs included. Within
// one session IDs cannot collide: the cooldown guarantees distinct
// timestamps between events.
func eventID(vtype ViolationType, magnitude float64, timestampMs int64) string {
	name := fmt.Sprintf("%s/%d/%x", vtype, timestampMs, math.Float64bits(magnitude))
	return uuid.NewSHA1(eventIDNamespace, []byte(name)).String()
}

// SelectInput picks the detector input for one processed sample per the
// configured mode: the gravity-compensated fused component when sensor
// fusion is enabled (robust to device tilt), otherwise the raw
// longitudinal device axis. The raw path is the legacy mode and misreads
// on tilted mountings.
func SelectInput(s config.Settings, raw motion.Vector3D, fusedLongitudinal float64) float64 {
	if s.EnableSensorFusion {
		return fusedLongitudinal
	}
	return raw.X
}

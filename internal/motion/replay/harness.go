package replay

import (
	"time"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/monitoring"
	"github.com/banshee-data/behavior.report/internal/motion/detect"
	"github.com/banshee-data/behavior.report/internal/timeutil"
)

// SessionTestResult is the outcome of replaying one labeled session
// through one configuration. The ground-truth label is carried through
// untouched so the metrics layer can build confusion counts.
type SessionTestResult struct {
	SessionName string `json:"session_name"`
	// GroundTruth is the session's label, "safe" or "risky".
	GroundTruth string `json:"ground_truth"`

	Violations       int                     `json:"violations"`
	ViolationsPerMin float64                 `json:"violations_per_min"`
	Events           []detect.ViolationEvent `json:"events,omitempty"`

	TotalSamples   int `json:"total_samples"`
	SamplesSkipped int `json:"samples_skipped"`
	// SkippedRate is the fraction of samples rejected as non-finite.
	SkippedRate float64 `json:"skipped_rate"`
	// DataQuality is 1 − SkippedRate.
	DataQuality float64 `json:"data_quality"`

	CalibrationAttempted bool  `json:"calibration_attempted"`
	CalibrationSucceeded bool  `json:"calibration_succeeded"`
	CalibrationTimeMs    int64 `json:"calibration_time_ms"`

	SessionDurationMs int64 `json:"session_duration_ms"`
	// ProcessingTime is how long the synchronous replay took.
	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// Harness replays labeled sessions through a configuration. Every
// RunSessionTest call builds a fresh pipeline, so results are a pure
// function of (session, settings): no state survives between calls and
// repeated runs on identical input produce identical results.
type Harness struct {
	settings config.Settings
	clock    timeutil.Clock
}

// NewHarness creates a harness for one resolved configuration.
func NewHarness(settings config.Settings) *Harness {
	return &Harness{settings: settings, clock: timeutil.RealClock{}}
}

// Settings returns the configuration the harness replays against.
func (h *Harness) Settings() config.Settings {
	return h.settings
}

// RunSessionTest replays one session synchronously (samples are fed in
// timestamp order with no wall-clock pacing) and scores it.
func (h *Harness) RunSessionTest(session *DatasetSession) (*SessionTestResult, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	session.Normalize()

	started := h.clock.Now()
	pipeline := detect.NewPipeline(h.settings)

	var events []detect.ViolationEvent
	for _, sample := range session.Data {
		if ev := pipeline.ProcessSample(sample); ev != nil {
			events = append(events, *ev)
		}
	}

	seen, skipped := pipeline.SampleCounts()
	calib := pipeline.Calibration()

	result := &SessionTestResult{
		SessionName:          session.Name,
		GroundTruth:          session.Type,
		Violations:           len(events),
		Events:               events,
		TotalSamples:         seen,
		SamplesSkipped:       skipped,
		CalibrationAttempted: calib.Attempted,
		CalibrationSucceeded: calib.Succeeded,
		CalibrationTimeMs:    calib.DurationMs,
		SessionDurationMs:    session.DurationMs,
		ProcessingTime:       h.clock.Since(started),
	}
	if seen > 0 {
		result.SkippedRate = float64(skipped) / float64(seen)
		result.DataQuality = 1 - result.SkippedRate
	}
	if session.DurationMs > 0 {
		result.ViolationsPerMin = float64(len(events)) / (float64(session.DurationMs) / 60000.0)
	}

	monitoring.Debugf("session %s: %d violations over %d samples (%.2f/min)",
		session.Name, result.Violations, result.TotalSamples, result.ViolationsPerMin)

	return result, nil
}

// RunBatch replays a batch of sessions in the order given. A malformed
// session fails alone: its error is collected and the rest of the batch
// still runs.
func (h *Harness) RunBatch(sessions []*DatasetSession) ([]*SessionTestResult, []error) {
	var results []*SessionTestResult
	var errs []error
	for _, s := range sessions {
		r, err := h.RunSessionTest(s)
		if err != nil {
			errs = append(errs, err)
			monitoring.Logf("skipping session: %v", err)
			continue
		}
		results = append(results, r)
	}
	return results, errs
}

package detect

import (
	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion"
	"github.com/banshee-data/behavior.report/internal/motion/filter"
	"github.com/banshee-data/behavior.report/internal/motion/fusion"
)

// Pipeline wires the full per-session detection chain: sensor fusion,
// multistage filtering and the violation detector, honouring the
// enable_sensor_fusion / enable_multistage_filtering toggles. All state
// is owned by the pipeline; build a fresh one per tracking session.
type Pipeline struct {
	settings  config.Settings
	estimator *fusion.Estimator
	filter    *filter.Multistage
	detector  *Detector

	samplesSeen    int
	samplesSkipped int
	lastInput      float64
}

// NewPipeline builds a pipeline with freshly-initialised stages.
func NewPipeline(s config.Settings) *Pipeline {
	return &Pipeline{
		settings:  s,
		estimator: fusion.NewEstimator(s),
		filter:    filter.NewMultistage(filter.ParamsFromSettings(s)),
		detector:  NewDetector(s),
	}
}

// ProcessSample runs one raw sample through the chain and returns the
// violation event it produced, if any. Non-finite samples are rejected
// before they can reach filter state; the rejection is counted and the
// sample contributes nothing downstream.
func (p *Pipeline) ProcessSample(sample motion.SensorSample) *ViolationEvent {
	p.samplesSeen++
	if !sample.IsFinite() {
		p.samplesSkipped++
		return nil
	}

	var fusedLongitudinal float64
	if p.settings.EnableSensorFusion {
		est := p.estimator.Process(sample)
		fusedLongitudinal = est.Longitudinal
		if p.settings.EnableMultistageFiltering {
			fusedLongitudinal = p.filter.FilterScalar(fusedLongitudinal)
		}
	}

	raw := sample.Accelerometer
	if !p.settings.EnableSensorFusion && p.settings.EnableMultistageFiltering {
		raw = p.filter.Filter(raw)
	}

	value := SelectInput(p.settings, raw, fusedLongitudinal)
	p.lastInput = value
	return p.detector.Process(value, sample.TimestampMs)
}

// Reset restores every stage to its initial state. Call on settings
// notifications that invalidate filter shape, and between sessions when
// a pipeline would otherwise be reused.
func (p *Pipeline) Reset() {
	p.estimator.Reset()
	p.filter.Reset()
	p.detector.Reset()
	p.samplesSeen = 0
	p.samplesSkipped = 0
	p.lastInput = 0
}

// ApplySettings adopts a new settings snapshot. The filter parameters are
// updated in place; a moving-average window change forces the implicit
// filter reset, and threshold/cooldown changes rebuild the detector while
// preserving fusion state.
func (p *Pipeline) ApplySettings(s config.Settings) {
	samplingHz := s.SamplingFrequencyHz()
	p.filter.UpdateParameters(filter.Update{
		ProcessNoise:        &s.ProcessNoise,
		MeasurementNoise:    &s.MeasurementNoise,
		CutoffFrequencyHz:   &s.CutoffFrequency,
		SamplingFrequencyHz: &samplingHz,
		MovingAverageWindow: &s.MovingAverageWindow,
	})
	p.detector = NewDetector(s)
	p.settings = s
}

// Calibration exposes the fusion calibration outcome for quality
// reporting.
func (p *Pipeline) Calibration() fusion.CalibrationResult {
	return p.estimator.Calibration()
}

// SampleCounts returns how many samples were seen and how many were
// rejected as non-finite.
func (p *Pipeline) SampleCounts() (seen, skipped int) {
	return p.samplesSeen, p.samplesSkipped
}

// LastInput returns the detector input produced by the most recent
// accepted sample. Used by trace plotting.
func (p *Pipeline) LastInput() float64 {
	return p.lastInput
}

// Detector returns the pipeline's classifier, for state inspection.
func (p *Pipeline) Detector() *Detector {
	return p.detector
}

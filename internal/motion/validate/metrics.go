// Package validate scores replay results against ground truth and
// compares candidate configurations against a baseline.
package validate

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/behavior.report/internal/motion/replay"
)

// DefaultRiskyRateThreshold is the violation rate (events per minute)
// above which a session classifies as risky.
const DefaultRiskyRateThreshold = 1.0

// ClassifySession labels a replay result by its violation rate. The
// threshold is exclusive: exactly at the rate classifies as safe.
func ClassifySession(r *replay.SessionTestResult, rateThreshold float64) string {
	if r.ViolationsPerMin > rateThreshold {
		return replay.SessionRisky
	}
	return replay.SessionSafe
}

// MetricsReport scores one configuration over a batch of labeled
// sessions. Risky is the positive class.
type MetricsReport struct {
	Sessions      int     `json:"sessions"`
	SafeSessions  int     `json:"safe_sessions"`
	RiskySessions int     `json:"risky_sessions"`
	RateThreshold float64 `json:"rate_threshold"`

	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`

	// Derived rates. Any rate whose denominator is zero reports 0.
	Accuracy          float64 `json:"accuracy"`
	Precision         float64 `json:"precision"`
	Recall            float64 `json:"recall"`
	F1Score           float64 `json:"f1_score"`
	FalsePositiveRate float64 `json:"false_positive_rate"`

	MeanDataQuality            float64 `json:"mean_data_quality"`
	MeanSkippedRate            float64 `json:"mean_skipped_rate"`
	MeanRiskyRate              float64 `json:"mean_risky_rate"`
	RiskyRateStdDev            float64 `json:"risky_rate_std_dev"`
	MeanSafeRate               float64 `json:"mean_safe_rate"`
	MeanProcessingMsPerSession float64 `json:"mean_processing_ms_per_session"`

	CalibrationAttempts    int     `json:"calibration_attempts"`
	CalibrationSuccesses   int     `json:"calibration_successes"`
	CalibrationSuccessRate float64 `json:"calibration_success_rate"`
	MeanCalibrationTimeMs  float64 `json:"mean_calibration_time_ms"`
}

// ratio guards the zero-denominator convention.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ComputeMetrics scores a batch of replay results. It fails on an empty
// batch and on results carrying unknown ground-truth labels.
func ComputeMetrics(results []*replay.SessionTestResult, rateThreshold float64) (*MetricsReport, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to score")
	}

	m := &MetricsReport{
		Sessions:      len(results),
		RateThreshold: rateThreshold,
	}

	var quality, skipped, processing []float64
	var safeRates, riskyRates []float64
	var calibrationTimeSumMs float64

	for _, r := range results {
		predicted := ClassifySession(r, rateThreshold)
		switch r.GroundTruth {
		case replay.SessionRisky:
			riskyRates = append(riskyRates, r.ViolationsPerMin)
			if predicted == replay.SessionRisky {
				m.TruePositives++
			} else {
				m.FalseNegatives++
			}
		case replay.SessionSafe:
			safeRates = append(safeRates, r.ViolationsPerMin)
			if predicted == replay.SessionRisky {
				m.FalsePositives++
			} else {
				m.TrueNegatives++
			}
		default:
			return nil, fmt.Errorf("session %q has unknown ground truth %q", r.SessionName, r.GroundTruth)
		}

		quality = append(quality, r.DataQuality)
		skipped = append(skipped, r.SkippedRate)
		processing = append(processing, float64(r.ProcessingTime.Microseconds())/1000.0)
		if r.CalibrationAttempted {
			m.CalibrationAttempts++
			calibrationTimeSumMs += float64(r.CalibrationTimeMs)
		}
		if r.CalibrationSucceeded {
			m.CalibrationSuccesses++
		}
	}

	tp := float64(m.TruePositives)
	fp := float64(m.FalsePositives)
	tn := float64(m.TrueNegatives)
	fn := float64(m.FalseNegatives)

	m.Accuracy = ratio(tp+tn, tp+tn+fp+fn)
	m.Precision = ratio(tp, tp+fp)
	m.Recall = ratio(tp, tp+fn)
	m.F1Score = ratio(2*m.Precision*m.Recall, m.Precision+m.Recall)
	m.FalsePositiveRate = ratio(fp, fp+tn)

	m.SafeSessions = len(safeRates)
	m.RiskySessions = len(riskyRates)
	m.MeanDataQuality = stat.Mean(quality, nil)
	m.MeanSkippedRate = stat.Mean(skipped, nil)
	m.MeanProcessingMsPerSession = stat.Mean(processing, nil)
	m.MeanCalibrationTimeMs = ratio(calibrationTimeSumMs, float64(m.CalibrationAttempts))
	if len(riskyRates) > 0 {
		m.MeanRiskyRate = stat.Mean(riskyRates, nil)
	}
	if len(riskyRates) > 1 {
		m.RiskyRateStdDev = stat.StdDev(riskyRates, nil)
	}
	if len(safeRates) > 0 {
		m.MeanSafeRate = stat.Mean(safeRates, nil)
	}
	m.CalibrationSuccessRate = ratio(float64(m.CalibrationSuccesses), float64(m.CalibrationAttempts))

	return m, nil
}

// OverallScore collapses a report to one comparable number. Detection
// quality dominates; data handling contributes the rest.
func (m *MetricsReport) OverallScore() float64 {
	return 0.35*m.Accuracy +
		0.35*m.F1Score +
		0.20*(1-m.FalsePositiveRate) +
		0.10*m.CalibrationSuccessRate
}

package validate

import (
	"fmt"

	"github.com/banshee-data/behavior.report/internal/motion/replay"
)

// ComparisonReport puts a candidate configuration next to the baseline
// it should replace. Improvement fields are signed: positive means the
// candidate is better on that axis.
type ComparisonReport struct {
	BaselineName  string `json:"baseline_name"`
	CandidateName string `json:"candidate_name"`

	Baseline  *MetricsReport `json:"baseline"`
	Candidate *MetricsReport `json:"candidate"`

	// FalsePositiveReduction is the drop in false-positive rate.
	FalsePositiveReduction float64 `json:"false_positive_reduction"`
	// QualityImprovement is the gain in mean data quality.
	QualityImprovement float64 `json:"quality_improvement"`
	// CalibrationImprovement is the gain in calibration success rate.
	CalibrationImprovement float64 `json:"calibration_improvement"`

	BaselineScore  float64 `json:"baseline_score"`
	CandidateScore float64 `json:"candidate_score"`
	// Recommended reports whether the candidate's overall score beats
	// the baseline's.
	Recommended bool `json:"recommended"`
}

// Compare scores both result batches and builds the comparison. Both
// batches should replay the same sessions; only the configuration
// should differ.
func Compare(baselineName string, baseline []*replay.SessionTestResult,
	candidateName string, candidate []*replay.SessionTestResult,
	rateThreshold float64) (*ComparisonReport, error) {

	bm, err := ComputeMetrics(baseline, rateThreshold)
	if err != nil {
		return nil, fmt.Errorf("baseline %s: %w", baselineName, err)
	}
	cm, err := ComputeMetrics(candidate, rateThreshold)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateName, err)
	}

	report := &ComparisonReport{
		BaselineName:           baselineName,
		CandidateName:          candidateName,
		Baseline:               bm,
		Candidate:              cm,
		FalsePositiveReduction: bm.FalsePositiveRate - cm.FalsePositiveRate,
		QualityImprovement:     cm.MeanDataQuality - bm.MeanDataQuality,
		CalibrationImprovement: cm.CalibrationSuccessRate - bm.CalibrationSuccessRate,
		BaselineScore:          bm.OverallScore(),
		CandidateScore:         cm.OverallScore(),
	}
	report.Recommended = report.CandidateScore > report.BaselineScore
	return report, nil
}

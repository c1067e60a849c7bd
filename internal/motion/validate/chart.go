package validate

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/behavior.report/internal/motion/replay"
	"github.com/banshee-data/behavior.report/internal/security"
)

// RenderComparisonHTML renders a comparison report as a standalone HTML
// page: confusion counts, score breakdown and per-session violation
// rates for both configurations.
func RenderComparisonHTML(w io.Writer, report *ComparisonReport,
	baseline, candidate []*replay.SessionTestResult) error {

	page := components.NewPage()
	page.AddCharts(
		confusionChart(report),
		scoreChart(report),
		rateChart(report.BaselineName, baseline, report.Baseline.RateThreshold),
		rateChart(report.CandidateName, candidate, report.Candidate.RateThreshold),
	)

	return page.Render(w)
}

// WriteComparisonHTML renders the report to a file. The path must stay
// under the working directory or the system temp directory.
func WriteComparisonHTML(path string, report *ComparisonReport,
	baseline, candidate []*replay.SessionTestResult) error {

	if err := security.ValidateExportPath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := RenderComparisonHTML(f, report, baseline, candidate); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func confusionChart(report *ComparisonReport) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Detection Validation Report", Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Confusion Counts",
			Subtitle: fmt.Sprintf("%d sessions, risky above %.1f violations/min", report.Baseline.Sessions, report.Baseline.RateThreshold),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	bar.SetXAxis([]string{"true pos", "false pos", "true neg", "false neg"})
	bar.AddSeries(report.BaselineName, []opts.BarData{
		{Value: report.Baseline.TruePositives},
		{Value: report.Baseline.FalsePositives},
		{Value: report.Baseline.TrueNegatives},
		{Value: report.Baseline.FalseNegatives},
	})
	bar.AddSeries(report.CandidateName, []opts.BarData{
		{Value: report.Candidate.TruePositives},
		{Value: report.Candidate.FalsePositives},
		{Value: report.Candidate.TrueNegatives},
		{Value: report.Candidate.FalseNegatives},
	})
	return bar
}

func scoreChart(report *ComparisonReport) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Classification Scores",
			Subtitle: fmt.Sprintf("overall: %s %.3f vs %s %.3f", report.BaselineName, report.BaselineScore, report.CandidateName, report.CandidateScore),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	bar.SetXAxis([]string{"accuracy", "precision", "recall", "f1", "fp rate", "calibration"})
	bar.AddSeries(report.BaselineName, scoreBars(report.Baseline))
	bar.AddSeries(report.CandidateName, scoreBars(report.Candidate))
	return bar
}

func scoreBars(m *MetricsReport) []opts.BarData {
	return []opts.BarData{
		{Value: m.Accuracy},
		{Value: m.Precision},
		{Value: m.Recall},
		{Value: m.F1Score},
		{Value: m.FalsePositiveRate},
		{Value: m.CalibrationSuccessRate},
	}
}

func rateChart(name string, results []*replay.SessionTestResult, rateThreshold float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Violation Rates: %s", name),
			Subtitle: fmt.Sprintf("sessions classify risky above %.1f/min", rateThreshold),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "violations/min"}),
	)

	var labels []string
	var safe, risky []opts.BarData
	for _, r := range results {
		labels = append(labels, r.SessionName)
		// Split by ground truth so mislabeled sessions stand out.
		if r.GroundTruth == replay.SessionRisky {
			risky = append(risky, opts.BarData{Value: r.ViolationsPerMin})
			safe = append(safe, opts.BarData{Value: 0.0})
		} else {
			safe = append(safe, opts.BarData{Value: r.ViolationsPerMin})
			risky = append(risky, opts.BarData{Value: 0.0})
		}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("safe sessions", safe)
	bar.AddSeries("risky sessions", risky)
	return bar
}

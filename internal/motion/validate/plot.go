package validate

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion/detect"
	"github.com/banshee-data/behavior.report/internal/motion/replay"
	"github.com/banshee-data/behavior.report/internal/security"
)

// PlotSessionTrace replays one session and saves a PNG of the raw
// longitudinal axis against the processed detector input, with the two
// thresholds drawn as horizontal lines. Useful when a session scores
// unexpectedly and the filter behaviour needs eyeballing.
func PlotSessionTrace(session *replay.DatasetSession, settings config.Settings, path string) error {
	if err := security.ValidateExportPath(path); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return err
	}
	session.Normalize()

	rawPts, inputPts, eventPts := tracePoints(session, settings)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s (%s)", session.Name, session.Type)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Acceleration (m/s²)"

	rawLine, err := plotter.NewLine(rawPts)
	if err != nil {
		return err
	}
	rawLine.Color = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	rawLine.Width = vg.Points(1)
	p.Add(rawLine)
	p.Legend.Add("raw X", rawLine)

	inputLine, err := plotter.NewLine(inputPts)
	if err != nil {
		return err
	}
	inputLine.Color = color.RGBA{B: 200, A: 255}
	inputLine.Width = vg.Points(1.5)
	p.Add(inputLine)
	p.Legend.Add("detector input", inputLine)

	if len(eventPts) > 0 {
		events, err := plotter.NewScatter(eventPts)
		if err != nil {
			return err
		}
		events.Color = color.RGBA{R: 220, A: 255}
		events.Radius = vg.Points(3)
		p.Add(events)
		p.Legend.Add("violations", events)
	}

	duration := float64(session.DurationMs) / 1000.0
	for _, threshold := range []struct {
		value float64
		label string
	}{
		{settings.AccelerationThreshold, "accel threshold"},
		{settings.BrakingThreshold, "braking threshold"},
	} {
		line, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: threshold.value},
			{X: duration, Y: threshold.value},
		})
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 220, G: 120, A: 255}
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(line)
		p.Legend.Add(threshold.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save trace plot: %w", err)
	}
	return nil
}

// tracePoints replays the session and collects the plotted series. X is
// seconds relative to the first sample, not absolute epoch time, so the
// data shares an origin with the [0, duration] threshold lines.
func tracePoints(session *replay.DatasetSession, settings config.Settings) (raw, input, events plotter.XYs) {
	pipeline := detect.NewPipeline(settings)

	raw = make(plotter.XYs, 0, len(session.Data))
	input = make(plotter.XYs, 0, len(session.Data))
	events = make(plotter.XYs, 0, 8)

	startMs := session.Data[0].TimestampMs
	for _, sample := range session.Data {
		seconds := float64(sample.TimestampMs-startMs) / 1000.0
		ev := pipeline.ProcessSample(sample)
		if !sample.IsFinite() {
			continue
		}
		raw = append(raw, plotter.XY{X: seconds, Y: sample.Accelerometer.X})
		input = append(input, plotter.XY{X: seconds, Y: pipeline.LastInput()})
		if ev != nil {
			events = append(events, plotter.XY{X: seconds, Y: ev.Magnitude})
		}
	}
	return raw, input, events
}

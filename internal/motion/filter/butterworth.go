package filter

import "math"

// butterworthState is a second-order Butterworth low-pass section in
// direct form I. Coefficients are derived once from the cutoff and
// sampling frequencies; the difference equation carries the last two raw
// and filtered values as state.
type butterworthState struct {
	// Normalised coefficients
	nb0, nb1, nb2 float64
	na1, na2      float64

	// Delay line
	x1, x2 float64 // previous raw inputs
	y1, y2 float64 // previous filtered outputs
}

// newButterworthState derives coefficients for the given cutoff (Hz) and
// sampling frequency (Hz). The section is only stable for
// cutoffHz < samplingHz/2; settings validation enforces that upstream.
func newButterworthState(cutoffHz, samplingHz float64) butterworthState {
	omega := 2 * math.Pi * cutoffHz / samplingHz
	sinW := math.Sin(omega)
	cosW := math.Cos(omega)
	alpha := sinW / math.Sqrt2 // Q = 1/√2 for a Butterworth response

	b0 := (1 - cosW) / 2
	b1 := 1 - cosW
	b2 := (1 - cosW) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW
	a2 := 1 - alpha

	return butterworthState{
		nb0: b0 / a0,
		nb1: b1 / a0,
		nb2: b2 / a0,
		na1: a1 / a0,
		na2: a2 / a0,
	}
}

// update applies the difference equation
// y[n] = nb0·x[n] + nb1·x[n-1] + nb2·x[n-2] − na1·y[n-1] − na2·y[n-2]
// and advances the delay line.
func (f *butterworthState) update(input float64) float64 {
	output := f.nb0*input + f.nb1*f.x1 + f.nb2*f.x2 - f.na1*f.y1 - f.na2*f.y2

	f.x2 = f.x1
	f.x1 = input
	f.y2 = f.y1
	f.y1 = output

	return output
}

// reset clears the delay line; coefficients are retained.
func (f *butterworthState) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

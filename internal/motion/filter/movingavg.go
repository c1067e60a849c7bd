package filter

// movingAverageState is a fixed-size circular buffer with a running sum,
// giving O(1) updates per sample. Invariant: sum always equals the sum of
// the current buffer contents and len(buffer) never changes after
// construction.
//
// The buffer is zero-initialised rather than primed with the first real
// sample, so the first windowSize outputs are biased toward zero. This
// matches the behaviour of the deployed detector; TestMovingAverageWarmupBias
// pins it down so any future change to the priming policy is deliberate.
type movingAverageState struct {
	buffer []float64
	sum    float64
	index  int
}

func newMovingAverageState(windowSize int) movingAverageState {
	return movingAverageState{buffer: make([]float64, windowSize)}
}

// update evicts the oldest value, inserts the new one and returns the
// window mean.
func (f *movingAverageState) update(input float64) float64 {
	f.sum -= f.buffer[f.index]
	f.buffer[f.index] = input
	f.sum += input
	f.index = (f.index + 1) % len(f.buffer)

	return f.sum / float64(len(f.buffer))
}

// reset zeroes the buffer, sum and cursor; the window size is retained.
func (f *movingAverageState) reset() {
	for i := range f.buffer {
		f.buffer[i] = 0
	}
	f.sum = 0
	f.index = 0
}

package filter

// kalmanState is a scalar Kalman filter with a constant-value process
// model. It trades responsiveness against noise rejection through the
// process noise Q and measurement noise R.
type kalmanState struct {
	x float64 // current estimate
	p float64 // estimation error covariance
	q float64 // process noise covariance
	r float64 // measurement noise covariance
	k float64 // kalman gain
}

func newKalmanState(q, r float64) kalmanState {
	return kalmanState{q: q, r: r, p: 1}
}

// update runs one predict/correct cycle and returns the new estimate.
func (f *kalmanState) update(measurement float64) float64 {
	// Predict: with a constant-value model only the covariance grows.
	f.p += f.q

	// Correct.
	f.k = f.p / (f.p + f.r)
	f.x += f.k * (measurement - f.x)
	f.p *= 1 - f.k

	return f.x
}

// reset zeroes the estimate and restores the initial covariance.
func (f *kalmanState) reset() {
	f.x = 0
	f.p = 1
	f.k = 0
}

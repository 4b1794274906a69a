package odom

import "math"

// AdaptiveThreshold estimates the correspondence gate from how far the
// actual registration keeps deviating from the constant-velocity
// prediction. A well-predicted motion yields a tight gate; jerky motion
// widens it. The estimate is the RMS of the accumulated model error,
// so it settles as the run progresses.
type AdaptiveThreshold struct {
	initialThreshold   float64
	minMotionThreshold float64
	maxRange           float64

	modelDeviation Transform
	sse            float64
	numSamples     int
}

// NewAdaptiveThreshold seeds the estimator. initial is used until enough
// motion has been observed; deviations below minMotion are treated as
// noise and ignored; maxRange converts rotational deviation into a
// worst-case point displacement.
func NewAdaptiveThreshold(initial, minMotion, maxRange float64) *AdaptiveThreshold {
	return &AdaptiveThreshold{
		initialThreshold:   initial,
		minMotionThreshold: minMotion,
		maxRange:           maxRange,
		modelDeviation:     Identity(),
	}
}

// UpdateModelDeviation records the latest prediction-vs-estimate delta.
func (t *AdaptiveThreshold) UpdateModelDeviation(deviation Transform) {
	t.modelDeviation = deviation
}

// ComputeThreshold folds the current deviation into the running error
// statistic and returns the gate to use for the next registration.
func (t *AdaptiveThreshold) ComputeThreshold() float64 {
	err := t.modelError()
	if err > t.minMotionThreshold {
		t.sse += err * err
		t.numSamples++
	}
	if t.numSamples < 1 {
		return t.initialThreshold
	}
	return math.Sqrt(t.sse / float64(t.numSamples))
}

// modelError is the worst-case point displacement the deviation could
// cause: the chord the rotation sweeps at max range plus the translation.
func (t *AdaptiveThreshold) modelError() float64 {
	theta := t.modelDeviation.RotationAngle()
	deltaRot := 2 * t.maxRange * math.Sin(theta/2)
	deltaTrans := t.modelDeviation.Translation().Norm()
	return deltaRot + deltaTrans
}

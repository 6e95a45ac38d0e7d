package mathx

import "math"

// NormalPDF evaluates the Gaussian(mean, sigma) density at x.
func NormalPDF(x, mean, sigma float32) float32 {
	diff := x - mean
	ret := float32(math.Exp(float64(-diff * diff / (2 * sigma * sigma))))
	ret /= sigma * float32(math.Sqrt(float64(2*PI)))
	return ret
}

// NormalCDF numerically integrates the standard normal density on
// (-inf, x] with a uniform step, starting far enough left that the
// tail mass beyond it is negligible. It is only ever called at index
// build time to derive QALSH's collision probabilities, never on the
// query hot path.
func NormalCDF(x float32, step float32) float32 {
	if step <= 0 {
		step = 0.001
	}
	const left = -10.0
	var area float32
	for t := float32(left); t < x; t += step {
		area += NormalPDF(t, 0, 1) * step
	}
	return area
}

// NewCDF integrates the standard normal density on [-x, x], matching
// the original "new_cdf" helper: the probability mass a random
// projection falls within +/-x of its mean.
func NewCDF(x float32, step float32) float32 {
	if step <= 0 {
		step = 0.001
	}
	if x <= 0 {
		return 0
	}
	var area float32
	for t := -x; t < x; t += step {
		area += NormalPDF(t, 0, 1) * step
	}
	return area
}

package itemindex

import (
	"math"
)

// h2Extend appends sqrt(M^2 - ||x||^2) to x, producing the dimension
// d+1 vector H2-ALSH indexes. M is the block's maximum norm, so the
// appended coordinate is always real (>= 0) for every member of the
// block it was computed from.
func h2Extend(x []float32, norm, M float32) []float32 {
	out := make([]float32, len(x)+1)
	copy(out, x)
	diff := M*M - norm*norm
	if diff < 0 {
		diff = 0
	}
	out[len(x)] = float32(math.Sqrt(float64(diff)))
	return out
}

// h2TransformQuery produces the (lambda*q, 0) query H2-ALSH searches
// with, where lambda = M / userNorm ties the query's scale to the
// block it is being verified against.
func h2TransformQuery(query []float32, M, userNorm float32) []float32 {
	out := make([]float32, len(query)+1)
	lambda := float32(0)
	if userNorm != 0 {
		lambda = M / userNorm
	}
	for i, v := range query {
		out[i] = lambda * v
	}
	out[len(query)] = 0
	return out
}

// h2Radius converts a target inner product threshold kip into the NN
// search radius R such that ||extended_x - extended_q||^2 = 2*(M^2 -
// lambda*kip), per the H2-ALSH correspondence between MIPS and NNS.
func h2Radius(M, lambda, kip float32) float32 {
	v := 2 * (M*M - lambda*kip)
	if v < 0 {
		v = 0
	}
	return float32(math.Sqrt(float64(v)))
}

// saExtend shifts x by centroid (already applied by the caller into
// shifted) and appends sqrt(Rhat^2 - ||shifted||^2), producing the
// dimension d+1 vector SA-ALSH's SRP sub-index hashes.
func saExtend(shifted []float32, shiftedNorm, rHat float32) []float32 {
	out := make([]float32, len(shifted)+1)
	copy(out, shifted)
	diff := rHat*rHat - shiftedNorm*shiftedNorm
	if diff < 0 {
		diff = 0
	}
	out[len(shifted)] = float32(math.Sqrt(float64(diff)))
	return out
}

// saTransformQuery produces the (lambda*q, 0) query SA-ALSH searches
// with, where lambda = Rhat / userNorm (or Rhat directly for
// pre-normalized users).
func saTransformQuery(query []float32, rHat, userNorm float32, userPreNormalized bool) []float32 {
	out := make([]float32, len(query)+1)
	lambda := rHat
	if !userPreNormalized && userNorm != 0 {
		lambda = rHat / userNorm
	}
	for i, v := range query {
		out[i] = lambda * v
	}
	out[len(query)] = 0
	return out
}

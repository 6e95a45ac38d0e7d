package mathx

import "math"

// InnerProduct computes the dot product of two equal-length float32
// vectors. Callers are expected to pass vectors of matching dimension;
// this is a hot-path kernel and deliberately does no bounds checking
// beyond what Go's slice indexing gives for free.
func InnerProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// L2Sqr computes the squared Euclidean distance between two vectors.
func L2Sqr(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// L2Dist computes the Euclidean distance between two vectors.
func L2Dist(a, b []float32) float32 {
	return float32(math.Sqrt(float64(L2Sqr(a, b))))
}

// Norm computes the L2 norm of a vector.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(InnerProduct(v, v))))
}

// CosineAngle computes the cosine of the angle between two vectors,
// clamped to [-1, 1] to absorb floating point drift near the poles.
func CosineAngle(a, b []float32) float32 {
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := InnerProduct(a, b) / (normA * normB)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return cos
}

// Centroid writes the mean of the given vectors into dst.
func Centroid(vectors [][]float32, dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	if len(vectors) == 0 {
		return
	}
	for _, v := range vectors {
		for i, x := range v {
			dst[i] += x
		}
	}
	n := float32(len(vectors))
	for i := range dst {
		dst[i] /= n
	}
}

// CentroidIndexed writes the mean of vectors[idx[i]] for i in idx into
// dst, used when the member set is addressed by an index slice rather
// than materialized contiguously.
func CentroidIndexed(idx []int, vectors [][]float32, dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	if len(idx) == 0 {
		return
	}
	for _, id := range idx {
		v := vectors[id]
		for i, x := range v {
			dst[i] += x
		}
	}
	n := float32(len(idx))
	for i := range dst {
		dst[i] /= n
	}
}

// ShiftAndNorms shifts every vector in data by subtracting centroid,
// writing the shifted vectors into shiftData (row-major, same layout
// as data) and the shifted squared L2 norms into shiftNorms. It
// returns the maximum shifted norm observed, used by the SA transform
// to size the dimension-extension term.
func ShiftAndNorms(data [][]float32, centroid []float32, shiftData [][]float32, shiftNorms []float32) float32 {
	var maxNorm float32
	for i, v := range data {
		shifted := shiftData[i]
		var sqr float32
		for d, x := range v {
			s := x - centroid[d]
			shifted[d] = s
			sqr += s * s
		}
		shiftNorms[i] = sqr
		norm := float32(math.Sqrt(float64(sqr)))
		if norm > maxNorm {
			maxNorm = norm
		}
	}
	return maxNorm
}

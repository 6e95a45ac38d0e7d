package mathx

import (
	"math"
	"math/rand"
)

// Rng wraps math/rand with the Gaussian and uniform samplers the index
// builders need. A single Rng seeded from RandomSeed drives every
// projection vector in a build, which is what makes two builds over
// the same data byte-identical.
type Rng struct {
	src *rand.Rand
}

// NewRng creates a generator seeded with the given value. Index builds
// should use mathx.RandomSeed unless a test deliberately wants to
// observe seed sensitivity.
func NewRng(seed int64) *Rng {
	return &Rng{src: rand.New(rand.NewSource(seed))}
}

// Uniform draws from Uniform(min, max).
func (r *Rng) Uniform(min, max float32) float32 {
	return min + r.src.Float32()*(max-min)
}

// Gaussian draws from Gaussian(mean, sigma) using Marsaglia's polar
// method, which only needs uniform samples and avoids the trig calls
// of the Box-Muller transform.
func (r *Rng) Gaussian(mean, sigma float32) float32 {
	var u, v, s float32
	for {
		u = r.Uniform(-1, 1)
		v = r.Uniform(-1, 1)
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}
	mul := float32(math.Sqrt(-2 * math.Log(float64(s)) / float64(s)))
	return mean + sigma*u*mul
}

// FillGaussian fills dst with i.i.d. N(mean, sigma) samples.
func (r *Rng) FillGaussian(dst []float32, mean, sigma float32) {
	for i := range dst {
		dst[i] = r.Gaussian(mean, sigma)
	}
}

// Intn draws a uniform integer in [0, n), used by the cone-tree
// builder to pick its random pivot.
func (r *Rng) Intn(n int) int {
	return r.src.Intn(n)
}

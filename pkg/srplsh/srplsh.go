// Package srplsh implements Sign-Random-Projection LSH for maximum
// cosine similarity search: K random projections turn each vector into
// a K-bit sign hash, packed MSB-first into ceil(K/64) 64-bit words, and
// candidates are ranked by Hamming match via a popcount table. SA-ALSH
// builds one of these per item block after the SA shift-and-extend
// transform reduces MIPS to MCSS.
package srplsh

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/topk"
)

// Index is a built SRP-LSH structure over n points of dimension d.
type Index struct {
	n int
	d int
	k int // number of bits
	words int // ceil(k/64)

	projections []float32 // k*d projection coefficients
	hashes      [][]uint64 // n * words packed sign bits
}

// Build constructs an SRP-LSH index over data using K bits (must be a
// multiple of 64) and projection coefficients drawn from rng.
func Build(data [][]float32, k int, rng *mathx.Rng) (*Index, error) {
	if k <= 0 || k%64 != 0 {
		return nil, fmt.Errorf("srplsh: K must be a positive multiple of 64, got %d", k)
	}

	n := len(data)
	d := 0
	if n > 0 {
		d = len(data[0])
	}
	words := k / 64

	projections := make([]float32, k*d)
	rng.FillGaussian(projections, 0, 1)

	hashes := make([][]uint64, n)
	for i, v := range data {
		hashes[i] = packSignature(projections, k, d, words, v)
	}

	return &Index{n: n, d: d, k: k, words: words, projections: projections, hashes: hashes}, nil
}

// packSignature computes the K sign bits of v against the projection
// bank and packs them MSB-first into `words` 64-bit words.
func packSignature(projections []float32, k, d, words int, v []float32) []uint64 {
	packed := make([]uint64, words)
	for bit := 0; bit < k; bit++ {
		a := projections[bit*d : bit*d+d]
		word := bit / 64
		shift := uint(63 - bit%64)
		if mathx.InnerProduct(a, v) >= 0 {
			packed[word] |= 1 << shift
		}
	}
	return packed
}

// K returns the number of hash bits.
func (s *Index) K() int { return s.k }

// MemoryEstimate returns an approximate byte footprint of the index.
func (s *Index) MemoryEstimate() uint64 {
	return uint64(len(s.projections))*4 + uint64(s.n*s.words)*8
}

// Query computes the query's signature and ranks all n items by
// Hamming match (total bits minus XOR popcount), returning the ids of
// the cand best matches (descending match score). cand is typically
// Candidates + k - 1 per the calling verification routine.
func (s *Index) Query(query []float32, cand int) []int {
	sig := packSignature(s.projections, s.k, s.d, s.words, query)

	list := topk.NewMaxKList(cand)
	totalBits := s.k
	for id, h := range s.hashes {
		mismatches := 0
		for w := 0; w < s.words; w++ {
			mismatches += popcount64(sig[w] ^ h[w])
		}
		match := float32(totalBits - mismatches)
		list.Insert(match, id)
	}
	return list.IDs()
}

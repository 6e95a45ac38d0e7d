// Package itemindex implements the item-side pruning structure (C5):
// items are sorted by descending L2 norm, split into contiguous blocks
// whose norm ratio stays above b, and each sufficiently large block
// gets a QALSH (H2 transform) or SRP-LSH (SA transform) sub-index built
// over it. Small blocks fall back to a plain linear scan.
package itemindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/qalsh"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/srplsh"
)

// SubIndexChoice selects which sub-index flavor H2/SA-ALSH builds for
// every block large enough to need one.
type SubIndexChoice int

const (
	// ChooseQalsh builds an H2-transformed QALSH sub-index per large
	// block (the H2-ALSH family of engine variants).
	ChooseQalsh SubIndexChoice = iota
	// ChooseSrp builds an SA-transformed SRP-LSH sub-index per large
	// block (the SA-ALSH family of engine variants).
	ChooseSrp
)

// Index is the full built item partition: a norm-descending sequence
// of Blocks covering every item exactly once.
type Index struct {
	Blocks []*Block

	// ItemNorms is the full set of item norms in the same
	// norm-descending order the engine uses for the L2 pruning lemma
	// (items[k-1] by norm).
	ItemNorms []float32
}

// Build sorts items by descending norm, splits them into blocks with
// min/max norm ratio >= b (each capped at mathx.BlockMax), and builds a
// sub-index of the requested kind over every block larger than
// mathx.NIndexThreshold. kSrp is only consulted when choice ==
// ChooseSrp. c0 is the QALSH nearest-neighbor approximation ratio
// passed through to every QALSH sub-index; 0 uses mathx.NNApproxRatio.
// rng drives every sampled projection vector.
func Build(items [][]float32, b float32, choice SubIndexChoice, kSrp int, c0 float32, rng *mathx.Rng) (*Index, error) {
	if b <= 0 || b >= 1 {
		return nil, fmt.Errorf("itemindex: block ratio b must be in (0,1), got %v", b)
	}
	if choice == ChooseSrp && (kSrp <= 0 || kSrp%64 != 0) {
		return nil, fmt.Errorf("itemindex: K_SRP must be a positive multiple of 64, got %d", kSrp)
	}
	if c0 == 0 {
		c0 = mathx.NNApproxRatio
	}

	n := len(items)
	order := make([]int, n)
	norms := make([]float32, n)
	for i, v := range items {
		order[i] = i
		norms[i] = mathx.Norm(v)
	}
	sort.Slice(order, func(i, j int) bool { return norms[order[i]] > norms[order[j]] })

	sortedNorms := make([]float32, n)
	sortedVectors := make([][]float32, n)
	for pos, id := range order {
		sortedNorms[pos] = norms[id]
		sortedVectors[pos] = items[id]
	}

	var blocks []*Block
	start := 0
	for start < n {
		M := sortedNorms[start]
		end := start + 1
		for end < n && end-start < mathx.BlockMax {
			if sortedNorms[end] < b*M {
				break
			}
			end++
		}

		block, err := buildBlock(order[start:end], sortedNorms[start:end], sortedVectors[start:end], M, choice, kSrp, c0, rng)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		start = end
	}

	if err := validateCoverage(blocks, n); err != nil {
		return nil, err
	}

	return &Index{Blocks: blocks, ItemNorms: sortedNorms}, nil
}

func buildBlock(globalIDs []int, norms []float32, vectors [][]float32, M float32, choice SubIndexChoice, kSrp int, c0 float32, rng *mathx.Rng) (*Block, error) {
	n := len(vectors)
	b := &Block{
		N:         n,
		MaxNorm:   M,
		GlobalIDs: append([]int(nil), globalIDs...),
		Norms:     append([]float32(nil), norms...),
		Vectors:   vectors,
	}

	if n <= mathx.NIndexThreshold {
		b.Kind = NoIndex
		return b, nil
	}

	switch choice {
	case ChooseQalsh:
		extended := make([][]float32, n)
		for i, v := range vectors {
			extended[i] = h2Extend(v, norms[i], M)
		}
		b.Kind = QalshIndex
		b.qalsh = qalsh.Build(extended, c0, rng)
		return b, nil

	case ChooseSrp:
		centroid := make([]float32, len(vectors[0]))
		mathx.Centroid(vectors, centroid)

		shifted := make([][]float32, n)
		for i := range shifted {
			shifted[i] = make([]float32, len(vectors[0]))
		}
		shiftedNorms := make([]float32, n)
		rHat := mathx.ShiftAndNorms(vectors, centroid, shifted, shiftedNorms)

		extended := make([][]float32, n)
		for i, s := range shifted {
			extended[i] = saExtend(s, sqrtf32(shiftedNorms[i]), rHat)
		}

		srpIdx, err := srplsh.Build(extended, kSrp, rng)
		if err != nil {
			return nil, err
		}
		b.Kind = SrpIndex
		b.srp = srpIdx
		b.centroid = centroid
		b.rHat = rHat
		b.kSrp = kSrp
		return b, nil
	}

	return nil, fmt.Errorf("itemindex: unknown sub-index choice %v", choice)
}

func validateCoverage(blocks []*Block, n int) error {
	seen := make([]bool, n)
	count := 0
	for _, b := range blocks {
		if b.N > mathx.BlockMax {
			return fmt.Errorf("itemindex: block size %d exceeds BLOCK_MAX %d", b.N, mathx.BlockMax)
		}
		for _, id := range b.GlobalIDs {
			if id < 0 || id >= n {
				return fmt.Errorf("itemindex: block references out-of-range item id %d", id)
			}
			if seen[id] {
				return fmt.Errorf("itemindex: item id %d covered by more than one block", id)
			}
			seen[id] = true
			count++
		}
	}
	if count != n {
		return fmt.Errorf("itemindex: blocks cover %d of %d items", count, n)
	}
	return nil
}

func sqrtf32(x float32) float32 {
	if x < 0 {
		x = 0
	}
	return float32(math.Sqrt(float64(x)))
}

// Package scan implements the exhaustive exact baseline (C8): for
// every user it computes tau_k(u), the true k-th largest inner product
// against the item set, for every k in [1, k_max]. It serves both as
// the ExhaustiveScan engine variant and as the ground-truth generator
// the LSH-accelerated variants are measured against.
package scan

import (
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/topk"
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/workerpool"
)

// Index holds the exact per-user, per-k bounds computed against a
// fixed item set.
type Index struct {
	// KBounds[u][k-1] = tau_k(u).
	KBounds [][]float32
	KMax    int
}

// Build computes exact per-user top-k_max MIPS bounds in parallel
// across users. items/itemNorms must already be sorted descending by
// norm. workers <= 0 uses workerpool.DefaultWorkers.
func Build(users [][]float32, items [][]float32, itemNorms []float32, kMax int, workers int) *Index {
	bounds := make([][]float32, len(users))
	workerpool.For(len(users), workers, func(i int) {
		bounds[i] = exactBounds(users[i], items, itemNorms, kMax)
	})
	return &Index{KBounds: bounds, KMax: kMax}
}

func exactBounds(user []float32, items [][]float32, itemNorms []float32, kMax int) []float32 {
	arr := topk.NewMaxKArray(kMax)
	userNorm := mathx.Norm(user)
	for j, x := range items {
		if arr.Len() == kMax && userNorm*itemNorms[j] <= arr.MinKey() {
			break
		}
		arr.Add(mathx.InnerProduct(user, x))
	}
	out := make([]float32, kMax)
	for i := 0; i < kMax; i++ {
		out[i] = arr.IthKey(i)
	}
	return out
}

// TauK returns the stored tau_k(u) for user u (0-based, 1-based k).
func (idx *Index) TauK(u, k int) float32 {
	return idx.KBounds[u][k-1]
}

// ReverseKMips answers the reverse k-MIPS query by comparing every
// user's query inner product against its stored tau_k, exactly.
func (idx *Index) ReverseKMips(query []float32, users [][]float32, k int) []int {
	var result []int
	for u, uv := range users {
		if mathx.InnerProduct(query, uv) >= idx.TauK(u, k) {
			result = append(result, u)
		}
	}
	return result
}

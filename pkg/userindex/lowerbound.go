package userindex

import (
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/topk"
)

// computeLowerBounds fills a valid (possibly loose) lower bound on
// tau_j(user) for every j in [1, kMax] by running an exact k-MIPS
// against only the top kMax*COEFF items by norm. Restricting the item
// set can only decrease the true tau_k, so the result is always a
// sound under-approximation; when n <= kMax*COEFF every item is
// scanned and the bounds are exact. items and itemNorms must already
// be sorted descending by norm.
func computeLowerBounds(user []float32, userNorm float32, items [][]float32, itemNorms []float32, kMax int) []float32 {
	arr := topk.NewMaxKArray(kMax)

	limit := kMax * mathx.COEFF
	if limit > len(items) {
		limit = len(items)
	}

	for j := 0; j < limit; j++ {
		if arr.Len() == kMax && userNorm*itemNorms[j] <= arr.MinKey() {
			break
		}
		arr.Add(mathx.InnerProduct(user, items[j]))
	}

	bounds := make([]float32, kMax)
	for i := 0; i < kMax; i++ {
		bounds[i] = arr.IthKey(i)
	}
	return bounds
}

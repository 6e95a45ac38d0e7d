package engine

import (
	"fmt"
	"math"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/topk"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/userindex"
)

// ReverseKMips answers reverse k-MIPS for query q at top-k k, returning
// every qualifying user's original id (0-based, unordered, with no
// duplicates). It is the only operation that can fail at query time,
// and only on an out-of-range k.
func (e *Engine) ReverseKMips(q []float32, k int) ([]int, error) {
	if k < 1 || k > e.kMax {
		return nil, &ConfigError{Field: "k", Msg: fmt.Sprintf("k=%d must be in [1, k_max=%d]", k, e.kMax)}
	}

	if cached, ok := e.cache.get(q, k); ok {
		return cached, nil
	}

	var result []int
	switch {
	case e.scanIdx != nil:
		result = e.scanIdx.ReverseKMips(q, e.users.Rows(), k)
	case e.linear != nil:
		result = e.reverseKMipsLinear(q, k)
	case e.cone != nil:
		result = e.reverseKMipsCone(q, k)
	default:
		return nil, &IndexError{Component: "engine", Msg: "engine was built with no user container"}
	}

	e.cache.put(q, k, result)
	return result, nil
}

func (e *Engine) reverseKMipsLinear(q []float32, k int) []int {
	qNorm := mathx.Norm(q)
	itemKNorm := e.itemNorms[k-1]

	var result []int
	for _, block := range e.linear.Blocks {
		if block.MaxNorm*qNorm < block.BlockLowerBounds[k-1] {
			continue // L3
		}
		for _, u := range block.Members {
			if e.acceptUser(q, qNorm, itemKNorm, u, k) {
				result = append(result, u.OriginalID)
			}
		}
	}
	return result
}

func (e *Engine) reverseKMipsCone(q []float32, k int) []int {
	qNorm := mathx.Norm(q)
	itemKNorm := e.itemNorms[k-1]

	var result []int
	e.walkCone(e.cone.Root, q, qNorm, itemKNorm, k, &result)
	return result
}

func (e *Engine) walkCone(n *userindex.ConeNode, q []float32, qNorm, itemKNorm float32, k int, result *[]int) {
	if n == nil {
		return
	}

	if n.MaxNorm*qNorm < n.NodeLowerBounds[k-1] {
		return // L3, norm form
	}

	qCos := mathx.InnerProduct(q, n.Center)
	if n.CenterNorm != 0 {
		qCos /= n.CenterNorm
	} else {
		qCos = 0
	}
	qSinSq := qNorm*qNorm - qCos*qCos
	if qSinSq < 0 {
		qSinSq = 0
	}
	qSin := sqrtf32(qSinSq)
	angularBound := n.MaxNorm * (qCos*n.MCos + qSin*n.MSin)
	if angularBound < n.NodeLowerBounds[k-1] {
		return // L3, angular form
	}

	if n.IsLeaf() {
		for _, u := range n.Members {
			userAngular := u.Norm * (qCos*u.CosToCenter + qSin*u.SinToCenter)
			if userAngular < u.LowerBounds[k-1] {
				continue
			}
			if e.acceptUser(q, qNorm, itemKNorm, u, k) {
				*result = append(*result, u.OriginalID)
			}
		}
		return
	}

	e.walkCone(n.Left, q, qNorm, itemKNorm, k, result)
	e.walkCone(n.Right, q, qNorm, itemKNorm, k, result)
}

// acceptUser applies L1', the exact inner product, L1, L2, and finally
// the verification routine, in that order, per the engine's query
// algorithm.
func (e *Engine) acceptUser(q []float32, qNorm, itemKNorm float32, u *userindex.User, k int) bool {
	lk := u.LowerBounds[k-1]

	if qNorm*u.Norm < lk {
		return false // L1'
	}

	ip := mathx.InnerProduct(q, u.Vector)
	if ip < lk {
		return false // L1
	}
	if ip >= u.Norm*itemKNorm {
		return true // L2
	}

	return e.verify(q, u, ip, k)
}

// verify implements the per-item-block verification routine: walk item
// blocks in descending max-norm order, early-accepting or early-
// rejecting as soon as the current bound settles the answer, otherwise
// retrieving block candidates (via QALSH, SRP-LSH, or linear scan) and
// refining the running top-k array with their exact inner products.
func (e *Engine) verify(q []float32, u *userindex.User, uqIP float32, k int) bool {
	kip := topk.NewMaxKArray(k)
	kip.Init(k, u.LowerBounds)

	// u.LowerBounds already account for the first kMax*COEFF items in
	// descending-norm order; the blocks follow that same order, so those
	// positions are skipped below instead of being counted twice.
	seeded := e.kMax * mathx.COEFF
	offset := 0

	for _, block := range e.itemIdx.Blocks {
		upper := block.MaxNorm * u.Norm
		if upper <= uqIP {
			return true
		}
		if upper <= kip.MinKey() {
			return true
		}

		candidates := block.Candidates(u.Vector, u.Norm, kip.MinKey(), k)
		for _, local := range candidates {
			if offset+local < seeded {
				continue
			}
			if block.Norms[local]*u.Norm <= kip.MinKey() {
				continue
			}
			ip := mathx.InnerProduct(block.Vectors[local], u.Vector)
			kip.Add(ip)
			if kip.MinKey() > uqIP {
				return false
			}
		}
		offset += block.N
	}

	return true
}

func sqrtf32(x float32) float32 {
	if x < 0 {
		x = 0
	}
	return float32(math.Sqrt(float64(x)))
}

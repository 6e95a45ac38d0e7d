package itemindex

import (
	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/qalsh"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/srplsh"
)

// SubIndexKind tags which sub-index (if any) an item block built,
// matching the three-way tagged variant { NoIndex, Qalsh, Srp } the
// design notes call for instead of inheritance.
type SubIndexKind int

const (
	// NoIndex blocks are small enough (n <= NIndexThreshold) that a
	// plain descending-norm linear scan outperforms building a
	// sub-index.
	NoIndex SubIndexKind = iota
	// QalshIndex blocks were H2-transformed and verified via QALSH.
	QalshIndex
	// SrpIndex blocks were SA-transformed and verified via SRP-LSH.
	SrpIndex
)

// Block is one contiguous, norm-sorted slice of the full item set plus
// whatever sub-index was built over it. GlobalIDs[i] / Norms[i] /
// Vectors[i] are block-local views (index 0..N-1) into the globally
// norm-sorted item arrays; GlobalIDs maps back to the original
// (pre-sort) item id the caller supplied at build time.
type Block struct {
	N       int
	MaxNorm float32 // M: the block's largest member norm

	GlobalIDs []int
	Norms     []float32 // descending within the block
	Vectors   [][]float32

	Kind SubIndexKind

	// QALSH path (H2 transform).
	qalsh *qalsh.Index

	// SRP path (SA transform).
	srp      *srplsh.Index
	centroid []float32
	rHat     float32
	kSrp     int
}

// MemoryEstimate returns an approximate byte footprint of the block
// including any sub-index it owns.
func (b *Block) MemoryEstimate() uint64 {
	var total uint64
	total += uint64(b.N) * (8 + 4) // GlobalIDs + Norms
	for _, v := range b.Vectors {
		total += uint64(len(v)) * 4
	}
	switch b.Kind {
	case QalshIndex:
		total += b.qalsh.MemoryEstimate()
	case SrpIndex:
		total += b.srp.MemoryEstimate()
		total += uint64(len(b.centroid)) * 4
	}
	return total
}

// Candidates returns candidate local positions (0-based, into this
// block's GlobalIDs/Norms/Vectors arrays) that verification should
// check against user. kip is the current k-th best inner product seen
// by the caller's top-k array; k is the requested top-k for the
// reverse query. For NoIndex blocks it returns every position 0..N-1
// in order, leaving the norm cut-off to the caller; for QALSH/SRP
// blocks it dispatches to the sub-index and maps its local ids through
// unchanged, since the sub-index was built over exactly this block's
// members in the same order.
func (b *Block) Candidates(query []float32, userNorm float32, kip float32, k int) []int {
	switch b.Kind {
	case QalshIndex:
		lambda := float32(0)
		if userNorm != 0 {
			lambda = b.MaxNorm / userNorm
		}
		tq := h2TransformQuery(query, b.MaxNorm, userNorm)
		R := h2Radius(b.MaxNorm, lambda, kip)
		return b.qalsh.KNNs(k, R, tq)
	case SrpIndex:
		tq := saTransformQuery(query, b.rHat, userNorm, false)
		candNum := mathx.Candidates + k - 1
		return b.srp.Query(tq, candNum)
	default:
		// Linear scan: positions are already norm-descending, so the
		// caller can early-exit on norms[j]*userNorm <= threshold
		// without consulting a sub-index at all.
		out := make([]int, b.N)
		for i := range out {
			out[i] = i
		}
		return out
	}
}

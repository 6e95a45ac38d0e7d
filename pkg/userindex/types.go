// Package userindex implements the two user-side pruning containers
// that feed the reverse k-MIPS engine's outer loop: a Simpfer-style
// linear blocking index (C6) and a cone-tree angular index (C7). Both
// precompute per-user top-k lower bounds over the item set and
// aggregate them so whole groups of users can be skipped by the L3
// pruning lemma before any per-user inner product is taken.
package userindex

// User is one user's sorted-position record: its original (pre-sort)
// id, its L2 norm, its vector (a read-only view into the engine's
// arena), and its k_max lower bounds on tau_k.
type User struct {
	OriginalID int
	Norm       float32
	Vector     []float32

	// LowerBounds[j] is a valid under-approximation of tau_{j+1}(u),
	// non-increasing in j.
	LowerBounds []float32

	// CosToCenter / SinToCenter are filled only for cone-tree leaves;
	// zero otherwise.
	CosToCenter float32
	SinToCenter float32
}

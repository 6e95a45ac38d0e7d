// Package mathx holds the numeric kernels and tuning constants shared by
// every pruning structure in the reverse k-MIPS stack: inner products,
// norms, centroids, the Gaussian sampler used to build LSH projections,
// and the normal CDF that pkg/qalsh uses to derive its parameters.
//
// All accumulation is done in float32 to match the published analyses of
// H2-ALSH and SA-ALSH; promoting to float64 here would make the
// exhaustive baseline and the stored lower bounds diverge from the
// LSH-accelerated paths bit-for-bit.
package mathx

import "math"

// E approximates Euler's number in float32, matching the constant used
// by the QALSH failure-probability derivation (delta = 1/E).
const E float32 = 2.7182818

// PI is the float32 value of pi used by normal_pdf.
const PI float32 = 3.141592654

// RandomSeed is the single fixed seed controlling every projection
// vector drawn during index construction. Changing it perturbs LSH
// output but must never affect the exhaustive baseline.
const RandomSeed int64 = 41

// COEFF bounds how many norm-sorted items are scanned when computing a
// user's lower bounds: the top KMax*COEFF items by norm.
const COEFF = 4

// BlockMax caps the number of items grouped into a single item block.
const BlockMax = 10_000

// NIndexThreshold is the item-block size above which a QALSH or SRP
// sub-index is built instead of relying on a plain linear scan.
const NIndexThreshold = 1_000

// Candidates is the base candidate budget handed to QALSH/SRP-LSH
// verification; the actual candidate cap is Candidates + k - 1.
const Candidates = 100

// ScanSize is the number of hash-table slots QALSH expands per side,
// per table, per round of dynamic collision counting.
const ScanSize = 64

// NNApproxRatio is the hard-coded c0 approximation ratio QALSH uses
// when it is operating as the nearest-neighbor sub-index inside
// H2-ALSH.
const NNApproxRatio float32 = 2.0

// MaxReal stands in for the C++ source's MAXREAL sentinel: a value
// larger than any real bucket distance, used to signal "out of range"
// without needing +Inf bookkeeping.
const MaxReal = float32(math.MaxFloat32)

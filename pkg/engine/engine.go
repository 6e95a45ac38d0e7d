// Package engine implements the reverse k-MIPS orchestration (C9):
// the six engine variants, each a different combination of item
// sub-index (QALSH/SRP/none) and user container (flat linear blocks,
// Simpfer-blocked linear, or cone-tree), composed through the four
// pruning lemmas at query time.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/itemindex"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/scan"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/userindex"
)

// Variant selects one of the six engine configurations named in the
// original SAH paper and its source tree.
type Variant int

const (
	// ExhaustiveScan computes exact per-user bounds with no pruning
	// structure at all; the ground-truth generator and sanity path.
	ExhaustiveScan Variant = iota
	// H2Linear pairs an H2-ALSH (QALSH) item index with a flat,
	// single-block user container: no Simpfer block granularity.
	H2Linear
	// H2Simpfer pairs an H2-ALSH item index with a Simpfer-blocked
	// linear user container.
	H2Simpfer
	// SAlshSimpfer pairs an SA-ALSH (SRP-LSH) item index with a
	// Simpfer-blocked linear user container.
	SAlshSimpfer
	// SAHCone pairs an SA-ALSH item index with a cone-tree user
	// container.
	SAHCone
	// H2Cone pairs an H2-ALSH item index with a cone-tree user
	// container.
	H2Cone
)

func (v Variant) String() string {
	switch v {
	case ExhaustiveScan:
		return "ExhaustiveScan"
	case H2Linear:
		return "H2Linear"
	case H2Simpfer:
		return "H2Simpfer"
	case SAlshSimpfer:
		return "SAlshSimpfer"
	case SAHCone:
		return "SAHCone"
	case H2Cone:
		return "H2Cone"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant maps a variant's name, as used in configuration and the
// CLI surface, to its Variant value.
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "ExhaustiveScan":
		return ExhaustiveScan, nil
	case "H2Linear":
		return H2Linear, nil
	case "H2Simpfer":
		return H2Simpfer, nil
	case "SAlshSimpfer":
		return SAlshSimpfer, nil
	case "SAHCone":
		return SAHCone, nil
	case "H2Cone":
		return H2Cone, nil
	default:
		return 0, &ConfigError{Field: "variant", Msg: fmt.Sprintf("unknown engine variant %q", name)}
	}
}

// BuildConfig collects every parameter build_engine needs. B, KSrp and
// LeafSize are only consulted by the variants that use them (see
// Variant's doc comments).
type BuildConfig struct {
	Items    [][]float32
	Users    [][]float32
	Variant  Variant
	KMax     int
	B        float32
	KSrp     int
	LeafSize int
	C0       float32 // QALSH nearest-neighbor approximation ratio; 0 uses mathx.NNApproxRatio
	Workers  int      // preprocessing worker count; 0 uses workerpool.DefaultWorkers

	// CacheCapacity, when positive, enables the (query,k) result
	// cache with this many entries. 0 disables caching.
	CacheCapacity int
}

// Engine is a fully built reverse k-MIPS index: an item arena plus one
// user-side structure (linear blocks, cone tree, or the exact scan
// bounds for ExhaustiveScan), ready to answer
// ReverseKMips queries.
type Engine struct {
	variant Variant
	kMax    int

	items     *VectorSet
	users     *VectorSet
	itemNorms []float32 // descending, aligned to items' rows

	itemIdx *itemindex.Index // nil for ExhaustiveScan

	linear *userindex.LinearIndex // H2Linear, H2Simpfer, SAlshSimpfer
	cone   *userindex.ConeIndex   // SAHCone, H2Cone
	scanIdx *scan.Index           // ExhaustiveScan

	cache *queryCache
}

// Variant reports which of the six configurations this engine was
// built as.
func (e *Engine) Variant() Variant { return e.variant }

// KMax reports the largest k this engine precomputed bounds for.
func (e *Engine) KMax() int { return e.kMax }

// CacheStats reports the query-result cache's current hit/miss counts
// and size.
func (e *Engine) CacheStats() (hits, misses int64, size int) {
	return e.cache.Stats()
}

// BuildEngine validates cfg and builds the requested engine variant.
// Validation failures return a *ConfigError; a structural build
// failure (e.g. partition coverage) returns an *IndexError.
func BuildEngine(cfg BuildConfig) (*Engine, error) {
	if cfg.KMax <= 0 {
		return nil, &ConfigError{Field: "k_max", Msg: "must be positive"}
	}
	if len(cfg.Users) == 0 {
		return nil, &ConfigError{Field: "users", Msg: "must be non-empty"}
	}
	if len(cfg.Items) == 0 {
		return nil, &ConfigError{Field: "items", Msg: "must be non-empty"}
	}

	c0 := cfg.C0
	if c0 == 0 {
		c0 = mathx.NNApproxRatio
	}

	rng := mathx.NewRng(mathx.RandomSeed)

	sortedItems, sortedNorms := sortItemsDescending(cfg.Items)

	itemSet, err := NewVectorSetFromRows(sortedItems)
	if err != nil {
		return nil, err
	}
	userSet, err := NewVectorSetFromRows(cfg.Users)
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		variant:   cfg.Variant,
		kMax:      cfg.KMax,
		items:     itemSet,
		users:     userSet,
		itemNorms: sortedNorms,
		cache:     newQueryCache(cfg.CacheCapacity),
	}

	switch cfg.Variant {
	case ExhaustiveScan:
		eng.scanIdx = scan.Build(cfg.Users, sortedItems, sortedNorms, cfg.KMax, cfg.Workers)

	case H2Linear:
		idx, err := itemindex.Build(cfg.Items, cfg.B, itemindex.ChooseQalsh, 0, c0, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("itemindex", err)
		}
		lin, err := userindex.BuildLinearFlat(cfg.Users, sortedItems, sortedNorms, cfg.KMax)
		if err != nil {
			return nil, wrapConfigOrIndex("userindex", err)
		}
		eng.itemIdx = idx
		eng.linear = lin

	case H2Simpfer:
		idx, err := itemindex.Build(cfg.Items, cfg.B, itemindex.ChooseQalsh, 0, c0, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("itemindex", err)
		}
		lin, err := userindex.BuildLinear(cfg.Users, sortedItems, sortedNorms, cfg.KMax)
		if err != nil {
			return nil, wrapConfigOrIndex("userindex", err)
		}
		eng.itemIdx = idx
		eng.linear = lin

	case SAlshSimpfer:
		idx, err := itemindex.Build(cfg.Items, cfg.B, itemindex.ChooseSrp, cfg.KSrp, c0, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("itemindex", err)
		}
		lin, err := userindex.BuildLinear(cfg.Users, sortedItems, sortedNorms, cfg.KMax)
		if err != nil {
			return nil, wrapConfigOrIndex("userindex", err)
		}
		eng.itemIdx = idx
		eng.linear = lin

	case SAHCone:
		idx, err := itemindex.Build(cfg.Items, cfg.B, itemindex.ChooseSrp, cfg.KSrp, c0, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("itemindex", err)
		}
		cone, err := userindex.BuildCone(cfg.Users, sortedItems, sortedNorms, cfg.KMax, cfg.LeafSize, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("userindex", err)
		}
		eng.itemIdx = idx
		eng.cone = cone

	case H2Cone:
		idx, err := itemindex.Build(cfg.Items, cfg.B, itemindex.ChooseQalsh, 0, c0, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("itemindex", err)
		}
		cone, err := userindex.BuildCone(cfg.Users, sortedItems, sortedNorms, cfg.KMax, cfg.LeafSize, rng)
		if err != nil {
			return nil, wrapConfigOrIndex("userindex", err)
		}
		eng.itemIdx = idx
		eng.cone = cone

	default:
		return nil, &ConfigError{Field: "variant", Msg: fmt.Sprintf("unknown variant %v", cfg.Variant)}
	}

	return eng, nil
}

// configErrorMarkers are substrings unique to the validation errors
// itemindex/userindex raise for bad build parameters, as opposed to
// the structural errors (coverage, split failure) the same packages
// raise for a corrupted build.
var configErrorMarkers = []string{"must be in (0,1)", "must be a positive multiple", "must be positive"}

func wrapConfigOrIndex(component string, err error) error {
	msg := err.Error()
	for _, marker := range configErrorMarkers {
		if strings.Contains(msg, marker) {
			return &ConfigError{Field: component, Msg: msg}
		}
	}
	return wrapIndexError(component, err)
}

func sortItemsDescending(items [][]float32) (sorted [][]float32, norms []float32) {
	n := len(items)
	order := make([]int, n)
	allNorms := make([]float32, n)
	for i, v := range items {
		order[i] = i
		allNorms[i] = mathx.Norm(v)
	}
	sort.Slice(order, func(i, j int) bool { return allNorms[order[i]] > allNorms[order[j]] })

	sorted = make([][]float32, n)
	norms = make([]float32, n)
	for pos, id := range order {
		sorted[pos] = items[id]
		norms[pos] = allNorms[id]
	}
	return sorted, norms
}

// Display returns a one-line build-time diagnostic summarizing the
// engine's variant, sizes and estimated memory footprint, mirroring
// the original SAH tree's per-structure display() methods.
func (e *Engine) Display() string {
	var b strings.Builder
	fmt.Fprintf(&b, "variant=%s k_max=%d items=%d users=%d memory=%d bytes",
		e.variant, e.kMax, e.items.Len(), e.users.Len(), e.MemoryEstimate())
	if e.itemIdx != nil {
		fmt.Fprintf(&b, " blocks=%d", len(e.itemIdx.Blocks))
	}
	return b.String()
}

// MemoryEstimate returns the built engine's approximate byte
// footprint: the item/user arenas plus whatever sub-index and user
// container it built.
func (e *Engine) MemoryEstimate() uint64 {
	total := e.items.MemoryEstimate() + e.users.MemoryEstimate()
	if e.itemIdx != nil {
		for _, b := range e.itemIdx.Blocks {
			total += b.MemoryEstimate()
		}
	}
	if e.linear != nil {
		total += linearMemoryEstimate(e.linear)
	}
	if e.cone != nil {
		total += coneMemoryEstimate(e.cone)
	}
	return total
}

func linearMemoryEstimate(lin *userindex.LinearIndex) uint64 {
	var total uint64
	for _, u := range lin.Users {
		total += uint64(len(u.Vector))*4 + uint64(len(u.LowerBounds))*4
	}
	for _, b := range lin.Blocks {
		total += uint64(len(b.BlockLowerBounds)) * 4
	}
	return total
}

func coneMemoryEstimate(idx *userindex.ConeIndex) uint64 {
	var walk func(n *userindex.ConeNode) uint64
	walk = func(n *userindex.ConeNode) uint64 {
		if n == nil {
			return 0
		}
		var total uint64
		total += uint64(len(n.Center)) * 4
		for _, u := range n.Members {
			total += uint64(len(u.Vector))*4 + uint64(len(u.LowerBounds))*4
		}
		total += uint64(len(n.NodeLowerBounds)) * 4
		return total + walk(n.Left) + walk(n.Right)
	}
	return walk(idx.Root)
}

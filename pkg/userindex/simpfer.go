package userindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

// Block is one fixed-size group of norm-descending users plus the
// per-k aggregate of its members' lower bounds, letting the engine's
// L3 lemma skip the whole group with one comparison.
type Block struct {
	Members []*User

	// BlockLowerBounds[j] = min over members of member.LowerBounds[j].
	BlockLowerBounds []float32

	// MaxNorm is the block's largest member norm (its first member,
	// since members are stored norm-descending).
	MaxNorm float32
}

// LinearIndex is the Simpfer-style user blocking index (C6): users
// sorted by descending norm, grouped into fixed-size blocks, each
// carrying per-user and per-block top-k lower bounds.
type LinearIndex struct {
	Users  []*User
	Blocks []*Block
	KMax   int
}

// BuildLinear sorts users by descending norm, computes each user's
// lower bounds against the norm-sorted items, and groups them into
// blocks of size ceil(20*log2(m)) (clamped to m). items/itemNorms must
// already be sorted descending by norm.
func BuildLinear(users [][]float32, items [][]float32, itemNorms []float32, kMax int) (*LinearIndex, error) {
	m := len(users)
	blockSize := m
	if m > 0 {
		blockSize = int(math.Ceil(20 * math.Log2(float64(m))))
		if blockSize > m {
			blockSize = m
		}
		if blockSize < 1 {
			blockSize = 1
		}
	}
	return buildLinear(users, items, itemNorms, kMax, blockSize)
}

// BuildLinearFlat builds the same per-user lower bounds as BuildLinear
// but groups every user into a single block, degenerating the L3
// block prune into one global check. This is the plain linear-scan
// user container the H2Linear engine variant pairs with an H2-ALSH
// item index: no Simpfer block granularity, just per-user pruning.
func BuildLinearFlat(users [][]float32, items [][]float32, itemNorms []float32, kMax int) (*LinearIndex, error) {
	return buildLinear(users, items, itemNorms, kMax, len(users))
}

func buildLinear(users [][]float32, items [][]float32, itemNorms []float32, kMax, blockSize int) (*LinearIndex, error) {
	if kMax <= 0 {
		return nil, fmt.Errorf("userindex: k_max must be positive, got %d", kMax)
	}

	m := len(users)
	order := make([]int, m)
	norms := make([]float32, m)
	for i, u := range users {
		order[i] = i
		norms[i] = mathx.Norm(u)
	}
	sort.Slice(order, func(i, j int) bool { return norms[order[i]] > norms[order[j]] })

	sorted := make([]*User, m)
	for pos, id := range order {
		sorted[pos] = &User{
			OriginalID:  id,
			Norm:        norms[id],
			Vector:      users[id],
			LowerBounds: computeLowerBounds(users[id], norms[id], items, itemNorms, kMax),
		}
	}

	if blockSize > m {
		blockSize = m
	}
	if blockSize < 1 {
		blockSize = 1
	}

	var blocks []*Block
	for start := 0; start < m; start += blockSize {
		end := start + blockSize
		if end > m {
			end = m
		}
		members := sorted[start:end]

		agg := make([]float32, kMax)
		for j := 0; j < kMax; j++ {
			best := float32(math.MaxFloat32)
			for _, u := range members {
				if u.LowerBounds[j] < best {
					best = u.LowerBounds[j]
				}
			}
			agg[j] = best
		}

		blocks = append(blocks, &Block{
			Members:          members,
			BlockLowerBounds: agg,
			MaxNorm:          members[0].Norm,
		})
	}

	return &LinearIndex{Users: sorted, Blocks: blocks, KMax: kMax}, nil
}

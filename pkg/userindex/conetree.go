package userindex

import (
	"fmt"
	"math"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

// ConeNode is either a leaf (Members set, per-member cos/sin filled
// in, NodeLowerBounds aggregated) or an internal node (Left/Right set,
// Center/MCos/MSin recomputed over the full subtree). Center is the
// node's (possibly unnormalized) centroid; MCos is the minimum cosine
// between any member and Center, i.e. the cosine of the cone's half
// angle, and MSin = sqrt(1-MCos^2).
type ConeNode struct {
	Members []*User

	Center     []float32
	CenterNorm float32
	MCos       float32
	MSin       float32

	Left, Right *ConeNode

	// NodeLowerBounds[j] = min over every member in this node's
	// subtree of member.LowerBounds[j]; for internal nodes this is
	// the elementwise min of the two children's NodeLowerBounds,
	// letting the engine prune a whole subtree without visiting its
	// leaves.
	NodeLowerBounds []float32

	// MaxNorm is the largest member norm anywhere in this node's
	// subtree, used together with MCos/MSin to bound <q,u> for every
	// u in the subtree: <q,u> <= MaxNorm*(q_cos*MCos + q_sin*MSin).
	MaxNorm float32
}

// IsLeaf reports whether n is a leaf node.
func (n *ConeNode) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// ConeIndex is the cone-tree user index (C7): a recursive 2-pivot
// angular-split binary tree over users, pruning by direction instead
// of by norm block.
type ConeIndex struct {
	Root     *ConeNode
	KMax     int
	LeafSize int
}

// BuildCone builds the cone tree over users, computing each user's
// lower bounds against the norm-sorted items exactly as the linear
// index does. items/itemNorms must already be sorted descending by
// norm.
func BuildCone(users [][]float32, items [][]float32, itemNorms []float32, kMax, leafSize int, rng *mathx.Rng) (*ConeIndex, error) {
	if kMax <= 0 {
		return nil, fmt.Errorf("userindex: k_max must be positive, got %d", kMax)
	}
	if leafSize <= 0 {
		return nil, fmt.Errorf("userindex: leaf_size must be positive, got %d", leafSize)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("userindex: cannot build a cone tree over zero users")
	}

	members := make([]*User, len(users))
	for i, v := range users {
		norm := mathx.Norm(v)
		members[i] = &User{
			OriginalID:  i,
			Norm:        norm,
			Vector:      v,
			LowerBounds: computeLowerBounds(v, norm, items, itemNorms, kMax),
		}
	}

	root, err := buildConeNode(members, leafSize, rng)
	if err != nil {
		return nil, err
	}
	return &ConeIndex{Root: root, KMax: kMax, LeafSize: leafSize}, nil
}

func buildConeNode(members []*User, leafSize int, rng *mathx.Rng) (*ConeNode, error) {
	n := len(members)
	if n <= leafSize {
		return buildLeaf(members), nil
	}

	left, right, ok := splitMembers(members, rng)
	if !ok {
		mid := n / 2
		left = append([]*User(nil), members[:mid]...)
		right = append([]*User(nil), members[mid:]...)
	}
	if len(left) == 0 || len(right) == 0 {
		return nil, fmt.Errorf("userindex: cone split produced an empty side for %d members", n)
	}

	leftNode, err := buildConeNode(left, leafSize, rng)
	if err != nil {
		return nil, err
	}
	rightNode, err := buildConeNode(right, leafSize, rng)
	if err != nil {
		return nil, err
	}

	center, centerNorm := combineCenters(leftNode, rightNode, len(left), len(right))
	mCos := computeMCos(center, centerNorm, members)
	mSin := float32(math.Sqrt(float64(1 - mCos*mCos)))

	maxNorm := leftNode.MaxNorm
	if rightNode.MaxNorm > maxNorm {
		maxNorm = rightNode.MaxNorm
	}

	kMax := len(leftNode.NodeLowerBounds)
	nodeLB := make([]float32, kMax)
	for j := 0; j < kMax; j++ {
		nodeLB[j] = leftNode.NodeLowerBounds[j]
		if rightNode.NodeLowerBounds[j] < nodeLB[j] {
			nodeLB[j] = rightNode.NodeLowerBounds[j]
		}
	}

	return &ConeNode{
		Center:          center,
		CenterNorm:      centerNorm,
		MCos:            mCos,
		MSin:            mSin,
		Left:            leftNode,
		Right:           rightNode,
		NodeLowerBounds: nodeLB,
		MaxNorm:         maxNorm,
	}, nil
}

// splitMembers implements the 2-pivot angular split: pick a random
// member p0, let l be the member farthest in angle from p0 and r the
// member farthest in angle from l, then split by the sign of
// <l-r, x>. It retries up to 3 times with a fresh pivot if a split
// puts every member on one side.
func splitMembers(members []*User, rng *mathx.Rng) (left, right []*User, ok bool) {
	n := len(members)
	for attempt := 0; attempt < 3; attempt++ {
		p0 := members[rng.Intn(n)]
		l := farthestByAngle(p0, members)
		r := farthestByAngle(l, members)

		diff := make([]float32, len(l.Vector))
		for i := range diff {
			diff[i] = l.Vector[i] - r.Vector[i]
		}

		var lg, rg []*User
		for _, u := range members {
			if mathx.InnerProduct(diff, u.Vector) < 0 {
				lg = append(lg, u)
			} else {
				rg = append(rg, u)
			}
		}
		if len(lg) > 0 && len(rg) > 0 {
			return lg, rg, true
		}
	}
	return nil, nil, false
}

func farthestByAngle(from *User, members []*User) *User {
	best := members[0]
	bestCos := float32(2)
	for _, u := range members {
		c := mathx.CosineAngle(from.Vector, u.Vector)
		if c < bestCos {
			bestCos = c
			best = u
		}
	}
	return best
}

func buildLeaf(members []*User) *ConeNode {
	d := len(members[0].Vector)
	vecs := make([][]float32, len(members))
	for i, u := range members {
		vecs[i] = u.Vector
	}
	centroid := make([]float32, d)
	mathx.Centroid(vecs, centroid)
	centerNorm := mathx.Norm(centroid)

	mCos := float32(1)
	for _, u := range members {
		cos := cosineToCenter(u, centroid, centerNorm)
		sin := float32(math.Sqrt(float64(1 - cos*cos)))
		u.CosToCenter = cos
		u.SinToCenter = sin
		if cos < mCos {
			mCos = cos
		}
	}
	mSin := float32(math.Sqrt(float64(1 - mCos*mCos)))

	kMax := len(members[0].LowerBounds)
	nodeLB := make([]float32, kMax)
	for j := 0; j < kMax; j++ {
		best := float32(math.MaxFloat32)
		for _, u := range members {
			if u.LowerBounds[j] < best {
				best = u.LowerBounds[j]
			}
		}
		nodeLB[j] = best
	}

	maxNorm := float32(0)
	for _, u := range members {
		if u.Norm > maxNorm {
			maxNorm = u.Norm
		}
	}

	return &ConeNode{
		Members:         members,
		Center:          centroid,
		CenterNorm:      centerNorm,
		MCos:            mCos,
		MSin:            mSin,
		NodeLowerBounds: nodeLB,
		MaxNorm:         maxNorm,
	}
}

func combineCenters(left, right *ConeNode, nLeft, nRight int) ([]float32, float32) {
	d := len(left.Center)
	center := make([]float32, d)
	n := float32(nLeft + nRight)
	for i := 0; i < d; i++ {
		center[i] = (float32(nLeft)*left.Center[i] + float32(nRight)*right.Center[i]) / n
	}
	return center, mathx.Norm(center)
}

func computeMCos(center []float32, centerNorm float32, members []*User) float32 {
	mCos := float32(1)
	for _, u := range members {
		cos := cosineToCenter(u, center, centerNorm)
		if cos < mCos {
			mCos = cos
		}
	}
	return mCos
}

func cosineToCenter(u *User, center []float32, centerNorm float32) float32 {
	if centerNorm == 0 || u.Norm == 0 {
		return 0
	}
	cos := mathx.InnerProduct(u.Vector, center) / (u.Norm * centerNorm)
	if cos > 1 {
		return 1
	}
	if cos < -1 {
		return -1
	}
	return cos
}

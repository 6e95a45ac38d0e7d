package userindex

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

func randomVectors(n, d int, seed int64) [][]float32 {
	r := rand.New(rand.NewSource(seed))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, d)
		for j := range v {
			v[j] = r.Float32()*2 - 1
		}
		out[i] = v
	}
	return out
}

func normSortedItems(items [][]float32) ([][]float32, []float32) {
	n := len(items)
	order := make([]int, n)
	norms := make([]float32, n)
	for i, v := range items {
		order[i] = i
		norms[i] = mathx.Norm(v)
	}
	sort.Slice(order, func(i, j int) bool { return norms[order[i]] > norms[order[j]] })
	sortedItems := make([][]float32, n)
	sortedNorms := make([]float32, n)
	for pos, id := range order {
		sortedItems[pos] = items[id]
		sortedNorms[pos] = norms[id]
	}
	return sortedItems, sortedNorms
}

func exactTauK(user []float32, items [][]float32, k int) float32 {
	ips := make([]float32, len(items))
	for i, x := range items {
		ips[i] = mathx.InnerProduct(user, x)
	}
	sort.Slice(ips, func(i, j int) bool { return ips[i] > ips[j] })
	if k-1 >= len(ips) {
		return float32(-1e38)
	}
	return ips[k-1]
}

func TestComputeLowerBoundsNeverExceedsTruth(t *testing.T) {
	items := randomVectors(200, 8, 1)
	sortedItems, sortedNorms := normSortedItems(items)
	user := randomVectors(1, 8, 2)[0]
	kMax := 10

	bounds := computeLowerBounds(user, mathx.Norm(user), sortedItems, sortedNorms, kMax)
	for k := 1; k <= kMax; k++ {
		truth := exactTauK(user, items, k)
		if bounds[k-1] > truth+1e-4 {
			t.Errorf("k=%d: lower bound %v exceeds truth %v", k, bounds[k-1], truth)
		}
	}
}

func TestComputeLowerBoundsExactWhenFewItems(t *testing.T) {
	items := randomVectors(5, 8, 3)
	sortedItems, sortedNorms := normSortedItems(items)
	user := randomVectors(1, 8, 4)[0]
	kMax := 5 // kMax*COEFF = 20 >= n = 5, so every item is scanned

	bounds := computeLowerBounds(user, mathx.Norm(user), sortedItems, sortedNorms, kMax)
	for k := 1; k <= kMax; k++ {
		truth := exactTauK(user, items, k)
		if diff := bounds[k-1] - truth; diff > 1e-4 || diff < -1e-4 {
			t.Errorf("k=%d: bound %v != truth %v", k, bounds[k-1], truth)
		}
	}
}

func TestBuildLinearBlockBoundsAreMinOfMembers(t *testing.T) {
	items := randomVectors(300, 8, 5)
	sortedItems, sortedNorms := normSortedItems(items)
	users := randomVectors(50, 8, 6)

	idx, err := BuildLinear(users, sortedItems, sortedNorms, 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, blk := range idx.Blocks {
		for j := 0; j < idx.KMax; j++ {
			want := float32(1e38)
			for _, u := range blk.Members {
				if u.LowerBounds[j] < want {
					want = u.LowerBounds[j]
				}
			}
			if blk.BlockLowerBounds[j] != want {
				t.Errorf("block bound[%d] = %v, want min %v", j, blk.BlockLowerBounds[j], want)
			}
		}
	}
}

func TestBuildLinearUsersSortedByDescendingNorm(t *testing.T) {
	items := randomVectors(300, 8, 7)
	sortedItems, sortedNorms := normSortedItems(items)
	users := randomVectors(40, 8, 8)

	idx, err := BuildLinear(users, sortedItems, sortedNorms, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(idx.Users); i++ {
		if idx.Users[i].Norm > idx.Users[i-1].Norm {
			t.Errorf("users not norm-descending at %d", i)
		}
	}
}

func TestBuildConeProducesValidTree(t *testing.T) {
	items := randomVectors(300, 8, 9)
	sortedItems, sortedNorms := normSortedItems(items)
	users := randomVectors(80, 8, 10)
	rng := mathx.NewRng(mathx.RandomSeed)

	idx, err := BuildCone(users, sortedItems, sortedNorms, 5, 10, rng)
	if err != nil {
		t.Fatal(err)
	}

	var countLeafMembers func(n *ConeNode) int
	countLeafMembers = func(n *ConeNode) int {
		if n.IsLeaf() {
			return len(n.Members)
		}
		return countLeafMembers(n.Left) + countLeafMembers(n.Right)
	}
	if got := countLeafMembers(idx.Root); got != len(users) {
		t.Errorf("cone tree covers %d users, want %d", got, len(users))
	}
}

func TestConeLeafAngularBoundIsTight(t *testing.T) {
	items := randomVectors(50, 4, 11)
	sortedItems, sortedNorms := normSortedItems(items)
	users := randomVectors(8, 4, 12)
	rng := mathx.NewRng(mathx.RandomSeed)

	idx, err := BuildCone(users, sortedItems, sortedNorms, 2, 100, rng)
	if err != nil {
		t.Fatal(err)
	}
	leaf := idx.Root
	if !leaf.IsLeaf() {
		t.Fatal("expected a single leaf for n <= leaf_size")
	}
	attained := false
	for _, u := range leaf.Members {
		if u.CosToCenter < leaf.MCos-1e-4 {
			t.Errorf("member cos %v below node MCos %v", u.CosToCenter, leaf.MCos)
		}
		if u.CosToCenter == leaf.MCos {
			attained = true
		}
	}
	if !attained {
		t.Errorf("no member attains node MCos %v", leaf.MCos)
	}
}

func TestBuildConeRejectsBadConfig(t *testing.T) {
	items := randomVectors(10, 4, 13)
	sortedItems, sortedNorms := normSortedItems(items)
	users := randomVectors(5, 4, 14)
	rng := mathx.NewRng(mathx.RandomSeed)

	if _, err := BuildCone(users, sortedItems, sortedNorms, 0, 10, rng); err == nil {
		t.Errorf("expected error for k_max=0")
	}
	if _, err := BuildCone(users, sortedItems, sortedNorms, 2, 0, rng); err == nil {
		t.Errorf("expected error for leaf_size=0")
	}
}

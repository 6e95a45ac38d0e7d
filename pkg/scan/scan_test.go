package scan

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

func normSorted(items [][]float32) ([][]float32, []float32) {
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

func bruteForceTauK(user []float32, items [][]float32, k int) float32 {
	ips := make([]float32, len(items))
	for i, x := range items {
		ips[i] = mathx.InnerProduct(user, x)
	}
	sort.Slice(ips, func(i, j int) bool { return ips[i] > ips[j] })
	return ips[k-1]
}

func TestBuildMatchesBruteForce(t *testing.T) {
	items := randomVectors(400, 8, 1)
	sortedItems, sortedNorms := normSorted(items)
	users := randomVectors(20, 8, 2)

	idx := Build(users, sortedItems, sortedNorms, 10, 0)
	for u, uv := range users {
		for k := 1; k <= 10; k++ {
			want := bruteForceTauK(uv, items, k)
			got := idx.TauK(u, k)
			if diff := got - want; diff > 1e-3 || diff < -1e-3 {
				t.Errorf("user %d k=%d: got %v want %v", u, k, got, want)
			}
		}
	}
}

func TestReverseKMipsMatchesDirectComparison(t *testing.T) {
	items := randomVectors(200, 8, 3)
	sortedItems, sortedNorms := normSorted(items)
	users := randomVectors(30, 8, 4)
	idx := Build(users, sortedItems, sortedNorms, 5, 0)

	query := randomVectors(1, 8, 5)[0]
	k := 3
	result := idx.ReverseKMips(query, users, k)

	resultSet := make(map[int]bool)
	for _, u := range result {
		resultSet[u] = true
	}
	for u, uv := range users {
		ip := mathx.InnerProduct(query, uv)
		want := ip >= bruteForceTauK(uv, items, k)
		if resultSet[u] != want {
			t.Errorf("user %d membership mismatch: got %v want %v", u, resultSet[u], want)
		}
	}
}

func TestBuildIsParallelSafe(t *testing.T) {
	items := randomVectors(100, 4, 6)
	sortedItems, sortedNorms := normSorted(items)
	users := randomVectors(500, 4, 7)

	idx1 := Build(users, sortedItems, sortedNorms, 4, 8)
	idx2 := Build(users, sortedItems, sortedNorms, 4, 1)

	for u := range users {
		for k := 1; k <= 4; k++ {
			if idx1.TauK(u, k) != idx2.TauK(u, k) {
				t.Errorf("user %d k=%d: parallel result %v != sequential %v", u, k, idx1.TauK(u, k), idx2.TauK(u, k))
			}
		}
	}
}

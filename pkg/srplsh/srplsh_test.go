package srplsh

import (
	"math/rand"
	"testing"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

func randomData(n, d int, seed int64) [][]float32 {
	r := rand.New(rand.NewSource(seed))
	data := make([][]float32, n)
	for i := range data {
		v := make([]float32, d)
		for j := range v {
			v[j] = r.Float32()*2 - 1
		}
		data[i] = v
	}
	return data
}

func TestBuildRejectsBadK(t *testing.T) {
	data := randomData(10, 4, 1)
	rng := mathx.NewRng(mathx.RandomSeed)
	if _, err := Build(data, 100, rng); err == nil {
		t.Errorf("expected error for K=100 (not multiple of 64)")
	}
}

func TestPopcount64(t *testing.T) {
	cases := []struct {
		x    uint64
		want int
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFFFFFFFFFF, 64},
		{0xF0F0F0F0F0F0F0F0, 32},
	}
	for _, c := range cases {
		if got := popcount64(c.x); got != c.want {
			t.Errorf("popcount64(%x) = %d, want %d", c.x, got, c.want)
		}
	}
}

func TestQueryFindsExactVector(t *testing.T) {
	data := randomData(500, 16, 5)
	rng := mathx.NewRng(mathx.RandomSeed)
	idx, err := Build(data, 128, rng)
	if err != nil {
		t.Fatal(err)
	}

	target := 17
	cand := idx.Query(data[target], 20)

	found := false
	for _, id := range cand {
		if id == target {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected exact vector %d among candidates %v", target, cand)
	}
	// The exact vector's signature exactly matches itself, so it must
	// rank first.
	if cand[0] != target {
		t.Errorf("expected exact match to rank first, got %v", cand)
	}
}

func TestQueryReproducible(t *testing.T) {
	data := randomData(300, 8, 9)
	rng1 := mathx.NewRng(mathx.RandomSeed)
	idx1, _ := Build(data, 64, rng1)
	rng2 := mathx.NewRng(mathx.RandomSeed)
	idx2, _ := Build(data, 64, rng2)

	q := data[3]
	c1 := idx1.Query(q, 10)
	c2 := idx2.Query(q, 10)
	if len(c1) != len(c2) {
		t.Fatalf("length mismatch: %d vs %d", len(c1), len(c2))
	}
	for i := range c1 {
		if c1[i] != c2[i] {
			t.Errorf("candidate %d diverged: %d vs %d", i, c1[i], c2[i])
		}
	}
}

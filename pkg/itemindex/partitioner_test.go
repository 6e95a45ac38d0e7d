package itemindex

import (
	"math/rand"
	"testing"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

func randomItems(n, d int, seed int64) [][]float32 {
	r := rand.New(rand.NewSource(seed))
	items := make([][]float32, n)
	for i := range items {
		v := make([]float32, d)
		for j := range v {
			v[j] = r.Float32()*2 - 1
		}
		items[i] = v
	}
	return items
}

func TestBuildRejectsBadRatio(t *testing.T) {
	items := randomItems(10, 4, 1)
	rng := mathx.NewRng(mathx.RandomSeed)
	if _, err := Build(items, 0, ChooseQalsh, 0, 0, rng); err == nil {
		t.Errorf("expected error for b=0")
	}
	if _, err := Build(items, 1, ChooseQalsh, 0, 0, rng); err == nil {
		t.Errorf("expected error for b=1")
	}
}

func TestBuildRejectsBadKSrp(t *testing.T) {
	items := randomItems(10, 4, 1)
	rng := mathx.NewRng(mathx.RandomSeed)
	if _, err := Build(items, 0.5, ChooseSrp, 100, 0, rng); err == nil {
		t.Errorf("expected error for K_SRP=100 (not multiple of 64)")
	}
}

func TestBuildCoversEveryItemExactlyOnce(t *testing.T) {
	items := randomItems(3000, 8, 2)
	rng := mathx.NewRng(mathx.RandomSeed)
	idx, err := Build(items, 0.5, ChooseQalsh, 0, 0, rng)
	if err != nil {
		t.Fatal(err)
	}

	seen := make([]bool, len(items))
	for _, b := range idx.Blocks {
		for _, id := range b.GlobalIDs {
			if seen[id] {
				t.Fatalf("item %d covered twice", id)
			}
			seen[id] = true
		}
	}
	for id, ok := range seen {
		if !ok {
			t.Fatalf("item %d not covered by any block", id)
		}
	}
}

func TestBuildBlocksAreNormDescendingAndRatioRespected(t *testing.T) {
	items := randomItems(5000, 8, 3)
	rng := mathx.NewRng(mathx.RandomSeed)
	b := float32(0.5)
	idx, err := Build(items, b, ChooseQalsh, 0, 0, rng)
	if err != nil {
		t.Fatal(err)
	}

	prevNorm := float32(mathx.MaxReal)
	for _, blk := range idx.Blocks {
		if len(blk.Norms) == 0 {
			t.Fatal("empty block")
		}
		if blk.Norms[0] > prevNorm {
			t.Errorf("blocks are not norm-descending: block max %v > previous block's min %v", blk.Norms[0], prevNorm)
		}
		for i := 1; i < len(blk.Norms); i++ {
			if blk.Norms[i] > blk.Norms[i-1] {
				t.Errorf("block not internally norm-descending at %d", i)
			}
			if blk.Norms[i] < b*blk.MaxNorm {
				t.Errorf("block norm ratio violated: %v < %v*%v", blk.Norms[i], b, blk.MaxNorm)
			}
		}
		prevNorm = blk.Norms[len(blk.Norms)-1]
		if blk.N > mathx.BlockMax {
			t.Errorf("block size %d exceeds BlockMax", blk.N)
		}
	}
}

func TestBuildSmallSetStaysNoIndex(t *testing.T) {
	items := randomItems(50, 4, 4)
	rng := mathx.NewRng(mathx.RandomSeed)
	idx, err := Build(items, 0.5, ChooseQalsh, 0, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range idx.Blocks {
		if b.Kind != NoIndex {
			t.Errorf("expected NoIndex for a block of %d items", b.N)
		}
	}
}

func TestBuildLargeSetGetsQalshSubIndex(t *testing.T) {
	items := randomItems(4000, 8, 5)
	rng := mathx.NewRng(mathx.RandomSeed)
	idx, err := Build(items, 0.9, ChooseQalsh, 0, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	sawQalsh := false
	for _, b := range idx.Blocks {
		if b.Kind == QalshIndex {
			sawQalsh = true
		}
	}
	if !sawQalsh {
		t.Errorf("expected at least one QALSH sub-index among blocks: %+v", idx.Blocks)
	}
}

func TestBuildLargeSetGetsSrpSubIndex(t *testing.T) {
	items := randomItems(4000, 8, 6)
	rng := mathx.NewRng(mathx.RandomSeed)
	idx, err := Build(items, 0.9, ChooseSrp, 64, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	sawSrp := false
	for _, b := range idx.Blocks {
		if b.Kind == SrpIndex {
			sawSrp = true
		}
	}
	if !sawSrp {
		t.Errorf("expected at least one SRP sub-index among blocks: %+v", idx.Blocks)
	}
}

func TestCandidatesFromQalshBlockIncludesStrongMatch(t *testing.T) {
	items := randomItems(4000, 8, 7)
	rng := mathx.NewRng(mathx.RandomSeed)
	idx, err := Build(items, 0.9, ChooseQalsh, 0, 0, rng)
	if err != nil {
		t.Fatal(err)
	}

	blk := idx.Blocks[0]
	query := blk.Vectors[0]
	cand := blk.Candidates(query, 1.0, 0, 5)
	if len(cand) == 0 {
		t.Errorf("expected at least one candidate position")
	}
	sawSelf := false
	for _, pos := range cand {
		if pos < 0 || pos >= blk.N {
			t.Errorf("candidate position %d out of range [0,%d)", pos, blk.N)
		}
		if pos == 0 {
			sawSelf = true
		}
	}
	if !sawSelf {
		t.Errorf("expected the query's own position 0 among candidates %v", cand)
	}
}

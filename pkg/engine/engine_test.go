package engine

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

func bruteForceReverseKMips(query []float32, users, items [][]float32, k int) map[int]bool {
	want := make(map[int]bool)
	for u, uv := range users {
		ips := make([]float32, len(items))
		for i, x := range items {
			ips[i] = mathx.InnerProduct(uv, x)
		}
		sort.Slice(ips, func(i, j int) bool { return ips[i] > ips[j] })
		if mathx.InnerProduct(query, uv) >= ips[k-1] {
			want[u] = true
		}
	}
	return want
}

func asSet(ids []int) map[int]bool {
	out := make(map[int]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// allVariants are exercised against a dataset small enough that every
// item block stays under mathx.NIndexThreshold, so QALSH/SRP blocks
// fall back to an exact linear scan and every variant must agree with
// ExhaustiveScan exactly.
var allVariants = []Variant{ExhaustiveScan, H2Linear, H2Simpfer, SAlshSimpfer, SAHCone, H2Cone}

func TestAllVariantsAgreeWithBruteForceOnSmallDataset(t *testing.T) {
	items := randomVectors(300, 8, 1)
	users := randomVectors(150, 8, 2)
	query := randomVectors(1, 8, 3)[0]
	k := 5

	want := bruteForceReverseKMips(query, users, items, k)

	for _, v := range allVariants {
		eng, err := BuildEngine(BuildConfig{
			Items: items, Users: users, Variant: v,
			KMax: 10, B: 0.9, KSrp: 64, LeafSize: 20,
		})
		if err != nil {
			t.Fatalf("variant %v: BuildEngine failed: %v", v, err)
		}
		got, err := eng.ReverseKMips(query, k)
		if err != nil {
			t.Fatalf("variant %v: ReverseKMips failed: %v", v, err)
		}
		if gotSet := asSet(got); !setsEqual(gotSet, want) {
			t.Errorf("variant %v: result %v does not match brute force %v", v, gotSet, want)
		}
	}
}

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func TestExactSingletonQueryAcceptsItsOwnDirection(t *testing.T) {
	items := randomVectors(100, 6, 10)
	users := randomVectors(50, 6, 11)
	// A query aligned with a user's own vector and scaled up is
	// virtually certain to land in that user's top-k.
	query := make([]float32, 6)
	for i, x := range users[0] {
		query[i] = x * 1000
	}

	eng, err := BuildEngine(BuildConfig{
		Items: items, Users: users, Variant: ExhaustiveScan, KMax: 10,
	})
	if err != nil {
		t.Fatalf("BuildEngine failed: %v", err)
	}
	got, err := eng.ReverseKMips(query, 10)
	if err != nil {
		t.Fatalf("ReverseKMips failed: %v", err)
	}
	if !asSet(got)[0] {
		t.Errorf("expected user 0 to be accepted for its own scaled-up direction, got %v", got)
	}
}

func TestRejectedByBoundWhenQueryIsOrthogonalAndWeak(t *testing.T) {
	items := randomVectors(200, 4, 20)
	users := [][]float32{{1, 0, 0, 0}}
	query := []float32{0, 0, 0, 0.0001}

	eng, err := BuildEngine(BuildConfig{
		Items: items, Users: users, Variant: ExhaustiveScan, KMax: 5,
	})
	if err != nil {
		t.Fatalf("BuildEngine failed: %v", err)
	}
	got, err := eng.ReverseKMips(query, 1)
	if err != nil {
		t.Fatalf("ReverseKMips failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no users accepted for a near-zero orthogonal query, got %v", got)
	}
}

func TestSameQueryTwiceReturnsSameResult(t *testing.T) {
	items := randomVectors(300, 8, 30)
	users := randomVectors(100, 8, 31)
	query := randomVectors(1, 8, 32)[0]

	eng, err := BuildEngine(BuildConfig{
		Items: items, Users: users, Variant: H2Simpfer, KMax: 8, B: 0.9, LeafSize: 20,
		CacheCapacity: 64,
	})
	if err != nil {
		t.Fatalf("BuildEngine failed: %v", err)
	}
	first, err := eng.ReverseKMips(query, 4)
	if err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	second, err := eng.ReverseKMips(query, 4)
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if !setsEqual(asSet(first), asSet(second)) {
		t.Errorf("repeated query diverged: %v vs %v", first, second)
	}
	hits, misses, size := eng.cache.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("expected 1 hit, 1 miss, size 1; got hits=%d misses=%d size=%d", hits, misses, size)
	}
}

func TestIncreasingKMaxDoesNotChangeResultsForSmallerK(t *testing.T) {
	items := randomVectors(250, 6, 40)
	users := randomVectors(80, 6, 41)
	query := randomVectors(1, 6, 42)[0]

	small, err := BuildEngine(BuildConfig{Items: items, Users: users, Variant: ExhaustiveScan, KMax: 3})
	if err != nil {
		t.Fatalf("BuildEngine(small) failed: %v", err)
	}
	large, err := BuildEngine(BuildConfig{Items: items, Users: users, Variant: ExhaustiveScan, KMax: 9})
	if err != nil {
		t.Fatalf("BuildEngine(large) failed: %v", err)
	}

	got1, err := small.ReverseKMips(query, 3)
	if err != nil {
		t.Fatalf("small.ReverseKMips failed: %v", err)
	}
	got2, err := large.ReverseKMips(query, 3)
	if err != nil {
		t.Fatalf("large.ReverseKMips failed: %v", err)
	}
	if !setsEqual(asSet(got1), asSet(got2)) {
		t.Errorf("k_max=3 result %v != k_max=9 result restricted to k=3 %v", got1, got2)
	}
}

func TestKOutOfRangeIsRejected(t *testing.T) {
	items := randomVectors(50, 4, 50)
	users := randomVectors(20, 4, 51)
	eng, err := BuildEngine(BuildConfig{Items: items, Users: users, Variant: ExhaustiveScan, KMax: 5})
	if err != nil {
		t.Fatalf("BuildEngine failed: %v", err)
	}
	query := randomVectors(1, 4, 52)[0]

	if _, err := eng.ReverseKMips(query, 0); err == nil {
		t.Error("expected k=0 to be rejected")
	}
	if _, err := eng.ReverseKMips(query, 6); err == nil {
		t.Error("expected k > k_max to be rejected")
	}
	if _, err := eng.ReverseKMips(query, 1); err != nil {
		t.Errorf("expected k=1 to succeed, got %v", err)
	}
	if _, err := eng.ReverseKMips(query, 5); err != nil {
		t.Errorf("expected k=k_max to succeed, got %v", err)
	}
}

func TestBuildEngineRejectsBadConfig(t *testing.T) {
	items := randomVectors(10, 4, 60)
	users := randomVectors(10, 4, 61)

	cases := []BuildConfig{
		{Items: items, Users: users, Variant: ExhaustiveScan, KMax: 0},
		{Items: nil, Users: users, Variant: ExhaustiveScan, KMax: 5},
		{Items: items, Users: nil, Variant: ExhaustiveScan, KMax: 5},
		{Items: items, Users: users, Variant: H2Simpfer, KMax: 5, B: 1.5},
		{Items: items, Users: users, Variant: SAlshSimpfer, KMax: 5, B: 0.9, KSrp: 10},
	}
	for i, cfg := range cases {
		if _, err := BuildEngine(cfg); err == nil {
			t.Errorf("case %d: expected BuildEngine to reject %+v", i, cfg)
		} else if _, ok := err.(*ConfigError); !ok {
			t.Errorf("case %d: expected *ConfigError, got %T (%v)", i, err, err)
		}
	}
}

func TestParseVariantRoundTrips(t *testing.T) {
	for _, v := range allVariants {
		parsed, err := ParseVariant(v.String())
		if err != nil {
			t.Errorf("ParseVariant(%q) failed: %v", v.String(), err)
		}
		if parsed != v {
			t.Errorf("ParseVariant(%q) = %v, want %v", v.String(), parsed, v)
		}
	}
	if _, err := ParseVariant("NotAVariant"); err == nil {
		t.Error("expected unknown variant name to be rejected")
	}
}

func TestApproximateVariantsAchieveHighRecallOnLargerDataset(t *testing.T) {
	items := randomVectors(1500, 12, 70)
	users := randomVectors(400, 12, 71)
	query := randomVectors(1, 12, 72)[0]
	k := 5

	want := bruteForceReverseKMips(query, users, items, k)

	approximate := []Variant{H2Simpfer, SAlshSimpfer, SAHCone, H2Cone}
	for _, v := range approximate {
		eng, err := BuildEngine(BuildConfig{
			Items: items, Users: users, Variant: v,
			KMax: 8, B: 0.9, KSrp: 64, LeafSize: 50,
		})
		if err != nil {
			t.Fatalf("variant %v: BuildEngine failed: %v", v, err)
		}
		got, err := eng.ReverseKMips(query, k)
		if err != nil {
			t.Fatalf("variant %v: ReverseKMips failed: %v", v, err)
		}
		gotSet := asSet(got)

		missed := 0
		for u := range want {
			if !gotSet[u] {
				missed++
			}
		}
		if len(want) > 0 && float64(missed)/float64(len(want)) > 0.2 {
			t.Errorf("variant %v: missed %d/%d true positives, recall below 80%%", v, missed, len(want))
		}
	}
}

func TestMemoryEstimateIsPositiveForEveryVariant(t *testing.T) {
	items := randomVectors(300, 8, 80)
	users := randomVectors(100, 8, 81)

	for _, v := range allVariants {
		eng, err := BuildEngine(BuildConfig{
			Items: items, Users: users, Variant: v, KMax: 6, B: 0.9, KSrp: 64, LeafSize: 20,
		})
		if err != nil {
			t.Fatalf("variant %v: BuildEngine failed: %v", v, err)
		}
		if eng.MemoryEstimate() == 0 {
			t.Errorf("variant %v: expected non-zero memory estimate", v)
		}
	}
}

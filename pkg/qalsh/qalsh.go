// Package qalsh implements Query-Aware Locality-Sensitive Hashing for
// approximate nearest-neighbor search: m random 1-D projections, each
// stored as an ascending-sorted hash table, searched outward from the
// query's projected position with dynamic collision counting. It is
// the sub-index H2-ALSH builds per item block once H2's dimension
// extension has turned maximum inner product into nearest neighbor.
//
// Parameters are derived analytically from a target approximation
// ratio c0 following Huang et al., "Query-aware locality-sensitive
// hashing for approximate nearest neighbor search" (PVLDB 9(1), 2015).
package qalsh

import (
	"math"
	"sort"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

// hashEntry is one (id, projection value) pair in a sorted table.
type hashEntry struct {
	id  int
	key float32
}

// Index is a built QALSH structure over n points of dimension d.
type Index struct {
	n  int
	d  int
	c0 float32

	w float32 // bucket width
	m int     // number of hash tables
	l int     // collision threshold

	projections []float32   // m*d projection coefficients
	tables      [][]hashEntry // m tables, each sorted ascending by key
}

// Build constructs a QALSH index over data (n vectors of dimension d,
// row-major) using approximation ratio c0 and the base points'
// projections computed with rng. CANDIDATES (mathx.Candidates) is the
// base candidate budget baked into the beta/delta derivation.
func Build(data [][]float32, c0 float32, rng *mathx.Rng) *Index {
	n := len(data)
	d := 0
	if n > 0 {
		d = len(data[0])
	}

	w := float32(math.Sqrt(float64(8*c0*c0*float32(math.Log(float64(c0)))) / float64(c0*c0-1)))

	p1 := newCDF(w/2, 0.001)
	p2 := newCDF(w/(2*c0), 0.001)
	beta := float32(mathx.Candidates) / float32(maxInt(n, 1))
	delta := 1.0 / mathx.E

	para1 := float32(math.Sqrt(math.Log(float64(2 / beta))))
	para2 := float32(math.Sqrt(math.Log(float64(1 / delta))))
	para3 := 2 * (p1 - p2) * (p1 - p2)
	eta := para1 / para2
	alpha := (eta*p1 + p2) / (1 + eta)

	m := int(math.Ceil(float64((para1 + para2) * (para1 + para2) / para3)))
	if m < 1 {
		m = 1
	}
	l := int(math.Ceil(float64(alpha) * float64(m)))
	if l < 1 {
		l = 1
	}

	projections := make([]float32, m*d)
	rng.FillGaussian(projections, 0, 1)

	tables := make([][]hashEntry, m)
	for t := 0; t < m; t++ {
		table := make([]hashEntry, n)
		a := projections[t*d : t*d+d]
		for i, v := range data {
			table[i] = hashEntry{id: i, key: mathx.InnerProduct(a, v)}
		}
		sort.Slice(table, func(i, j int) bool { return table[i].key < table[j].key })
		tables[t] = table
	}

	return &Index{
		n: n, d: d, c0: c0,
		w: w, m: m, l: l,
		projections: projections,
		tables:      tables,
	}
}

// M returns the number of hash tables (diagnostic / test use).
func (q *Index) M() int { return q.m }

// L returns the collision threshold (diagnostic / test use).
func (q *Index) L() int { return q.l }

// W returns the bucket width (diagnostic / test use).
func (q *Index) W() float32 { return q.w }

// MemoryEstimate returns an approximate byte footprint of the index.
func (q *Index) MemoryEstimate() uint64 {
	var total uint64
	total += uint64(len(q.projections)) * 4
	for _, t := range q.tables {
		total += uint64(len(t)) * 12 // id (8 on most platforms) + key
	}
	return total
}

func newCDF(x float32, step float32) float32 {
	return mathx.NewCDF(x, step)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

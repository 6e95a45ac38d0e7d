package qalsh

import (
	"math"
	"sort"

	"github.com/therealutkarshpriyadarshi/reversekmips/internal/mathx"
)

// lowerBound returns the index of the first table entry whose key is
// >= target, matching std::lower_bound's contract over the ascending
// per-table projection values.
func lowerBound(table []hashEntry, target float32) int {
	return sort.Search(len(table), func(i int) bool { return table[i].key >= target })
}

// searchState holds the per-query scratch QALSH needs for dynamic
// collision counting. It is allocated fresh per call to KNNs so the
// built index itself stays read-only and safe to share across
// concurrently running queries.
type searchState struct {
	freq    []int
	checked []bool
	bFlag   []bool
	lPos    []int
	rPos    []int
	qVal    []float32
}

func newSearchState(q *Index) *searchState {
	return &searchState{
		freq:    make([]int, q.n),
		checked: make([]bool, q.n),
		bFlag:   make([]bool, q.m),
		lPos:    make([]int, q.m),
		rPos:    make([]int, q.m),
		qVal:    make([]float32, q.m),
	}
}

func (q *Index) initPositions(st *searchState, query []float32) {
	for t := 0; t < q.m; t++ {
		a := q.projections[t*q.d : t*q.d+q.d]
		qv := mathx.InnerProduct(a, query)
		st.qVal[t] = qv

		table := q.tables[t]
		n := len(table)
		pos := lowerBound(table, qv)

		if pos <= 0 {
			st.lPos[t] = -1
			st.rPos[t] = 0
		} else if pos >= n-1 {
			st.lPos[t] = n - 1
			st.rPos[t] = n
		} else {
			st.lPos[t] = pos
			st.rPos[t] = pos + 1
		}
	}
}

// KNNs returns up to Candidates+k-1 candidate local ids whose distance
// to query is plausibly within R, using unbounded range when R is
// +Inf. Ordering of the returned ids is unspecified.
func (q *Index) KNNs(k int, R float32, query []float32) []int {
	st := newSearchState(q)
	q.initPositions(st, query)

	if R >= mathx.MaxReal {
		return q.dynamicCollisionCountingNoRange(st, k)
	}
	return q.dynamicCollisionCounting(st, k, R)
}

// KNNsUnbounded is the R = +Inf overload: it drops the range-flag
// bookkeeping entirely, matching the original two-overload split.
func (q *Index) KNNsUnbounded(k int, query []float32) []int {
	st := newSearchState(q)
	q.initPositions(st, query)
	return q.dynamicCollisionCountingNoRange(st, k)
}

func (q *Index) dynamicCollisionCounting(st *searchState, k int, R float32) []int {
	candNum := mathx.Candidates + k - 1
	var cand []int
	candCnt := 0
	numRange := 0

	radius := float32(1.0)
	width := radius * q.w / 2
	searchRange := R * q.w / 2

	rFlag := make([]bool, q.m)
	for i := range rFlag {
		rFlag[i] = true
	}

	for {
		numBucket := 0
		for i := range st.bFlag {
			st.bFlag[i] = true
		}

		for numBucket < q.m && numRange < q.m {
			for j := 0; j < q.m; j++ {
				if !st.bFlag[j] {
					continue
				}
				table := q.tables[j]
				qv := st.qVal[j]
				ldist, rdist := float32(-1), float32(-1)

				cnt := 0
				pos := st.lPos[j]
				for cnt < mathx.ScanSize {
					ldist = mathx.MaxReal
					if pos >= 0 {
						ldist = absf32(qv - table[pos].key)
					} else {
						break
					}
					if ldist > width || ldist > searchRange {
						break
					}
					id := table[pos].id
					st.freq[id]++
					if st.freq[id] >= q.l && !st.checked[id] {
						st.checked[id] = true
						cand = append(cand, id)
						candCnt++
						if candCnt >= candNum {
							break
						}
					}
					pos--
					cnt++
				}
				st.lPos[j] = pos
				if candCnt >= candNum {
					break
				}

				cnt = 0
				pos = st.rPos[j]
				for cnt < mathx.ScanSize {
					rdist = mathx.MaxReal
					if pos < len(table) {
						rdist = absf32(qv - table[pos].key)
					} else {
						break
					}
					if rdist > width || rdist > searchRange {
						break
					}
					id := table[pos].id
					st.freq[id]++
					if st.freq[id] >= q.l && !st.checked[id] {
						st.checked[id] = true
						cand = append(cand, id)
						candCnt++
						if candCnt >= candNum {
							break
						}
					}
					pos++
					cnt++
				}
				st.rPos[j] = pos
				if candCnt >= candNum {
					break
				}

				if ldist > width && rdist > width {
					st.bFlag[j] = false
					numBucket++
				}
				if ldist > searchRange && rdist > searchRange {
					if st.bFlag[j] {
						st.bFlag[j] = false
						numBucket++
					}
					if rFlag[j] {
						rFlag[j] = false
						numRange++
					}
				}
			}
			if numBucket > q.m || numRange > q.m || candCnt >= candNum {
				break
			}
		}

		if numRange >= q.m || candCnt >= candNum {
			break
		}

		radius = q.c0 * radius
		width = radius * q.w / 2
	}

	return cand
}

func (q *Index) dynamicCollisionCountingNoRange(st *searchState, k int) []int {
	candNum := mathx.Candidates + k - 1
	var cand []int
	candCnt := 0

	radius := float32(1.0)
	width := radius * q.w / 2

	for {
		numBucket := 0
		for i := range st.bFlag {
			st.bFlag[i] = true
		}

		for numBucket < q.m {
			for j := 0; j < q.m; j++ {
				if !st.bFlag[j] {
					continue
				}
				table := q.tables[j]
				qv := st.qVal[j]
				ldist, rdist := float32(-1), float32(-1)

				cnt := 0
				pos := st.lPos[j]
				for cnt < mathx.ScanSize {
					ldist = mathx.MaxReal
					if pos >= 0 {
						ldist = absf32(qv - table[pos].key)
					} else {
						break
					}
					if ldist > width {
						break
					}
					id := table[pos].id
					st.freq[id]++
					if st.freq[id] >= q.l && !st.checked[id] {
						st.checked[id] = true
						cand = append(cand, id)
						candCnt++
						if candCnt >= candNum {
							break
						}
					}
					pos--
					cnt++
				}
				st.lPos[j] = pos
				if candCnt >= candNum {
					break
				}

				cnt = 0
				pos = st.rPos[j]
				for cnt < mathx.ScanSize {
					rdist = mathx.MaxReal
					if pos < len(table) {
						rdist = absf32(qv - table[pos].key)
					} else {
						break
					}
					if rdist > width {
						break
					}
					id := table[pos].id
					st.freq[id]++
					if st.freq[id] >= q.l && !st.checked[id] {
						st.checked[id] = true
						cand = append(cand, id)
						candCnt++
						if candCnt >= candNum {
							break
						}
					}
					pos++
					cnt++
				}
				st.rPos[j] = pos
				if candCnt >= candNum {
					break
				}

				if ldist > width && rdist > width {
					st.bFlag[j] = false
					numBucket++
				}
			}
			if numBucket > q.m || candCnt >= candNum {
				break
			}
		}

		if candCnt >= candNum {
			break
		}

		radius = q.c0 * radius
		width = radius * q.w / 2
	}

	return cand
}

func absf32(x float32) float32 {
	if x < 0 {
		return float32(math.Abs(float64(x)))
	}
	return x
}

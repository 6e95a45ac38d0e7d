// Package topk implements the fixed-capacity bounded top-k structures
// used throughout the pruning stack: MaxKList and MaxKArray keep the k
// largest keys seen so far, MinKList keeps the k smallest. All three
// use O(k) sorted-slice insertion rather than a heap, since k is small
// (tens, not thousands) in every caller and a shifted insert into a
// contiguous slice beats heap bookkeeping at that size.
package topk

// MaxKList keeps the k largest (key, id) pairs inserted so far, sorted
// descending by key. Before k elements have been inserted, MinKey
// reports -Inf so callers never mistake an under-full list for a real
// threshold.
type MaxKList struct {
	k     int
	keys  []float32
	ids   []int
	count int
}

// NewMaxKList creates a list with the given capacity.
func NewMaxKList(k int) *MaxKList {
	return &MaxKList{
		k:    k,
		keys: make([]float32, k),
		ids:  make([]int, k),
	}
}

// Len returns the number of elements currently held (<= k).
func (l *MaxKList) Len() int { return l.count }

// Full reports whether the list has reached capacity.
func (l *MaxKList) Full() bool { return l.count >= l.k }

// Insert inserts (key, id), evicting the smallest element if the list
// is already full and key beats it. Returns true if the element was
// kept.
func (l *MaxKList) Insert(key float32, id int) bool {
	if l.k == 0 {
		return false
	}
	if l.count < l.k {
		pos := l.count
		for pos > 0 && l.keys[pos-1] < key {
			l.keys[pos] = l.keys[pos-1]
			l.ids[pos] = l.ids[pos-1]
			pos--
		}
		l.keys[pos] = key
		l.ids[pos] = id
		l.count++
		return true
	}

	if key <= l.keys[l.count-1] {
		return false
	}

	pos := l.count - 1
	for pos > 0 && l.keys[pos-1] < key {
		l.keys[pos] = l.keys[pos-1]
		l.ids[pos] = l.ids[pos-1]
		pos--
	}
	l.keys[pos] = key
	l.ids[pos] = id
	return true
}

// MinKey returns the k-th largest key seen (the worst kept element),
// or -Inf if fewer than k elements have been inserted.
func (l *MaxKList) MinKey() float32 {
	if l.count < l.k {
		return negInf
	}
	return l.keys[l.count-1]
}

// MaxKey returns the largest key kept, or -Inf if the list is empty.
func (l *MaxKList) MaxKey() float32 {
	if l.count == 0 {
		return negInf
	}
	return l.keys[0]
}

// IthKey returns the 0-based i-th ranked key.
func (l *MaxKList) IthKey(i int) float32 {
	if i < 0 || i >= l.count {
		return negInf
	}
	return l.keys[i]
}

// IthID returns the 0-based i-th ranked id.
func (l *MaxKList) IthID(i int) int {
	if i < 0 || i >= l.count {
		return -1
	}
	return l.ids[i]
}

// IDs returns the ids currently kept, in descending-key order.
func (l *MaxKList) IDs() []int {
	out := make([]int, l.count)
	copy(out, l.ids[:l.count])
	return out
}

const negInf = float32(-1e38)

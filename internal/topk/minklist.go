package topk

// MinKList keeps the k smallest (key, id) pairs inserted so far,
// sorted ascending by key. It mirrors MaxKList and is used by QALSH's
// nearest-neighbor bookkeeping, where "best" means smallest distance
// rather than largest inner product.
type MinKList struct {
	k     int
	keys  []float32
	ids   []int
	count int
}

// NewMinKList creates a list with the given capacity.
func NewMinKList(k int) *MinKList {
	return &MinKList{
		k:    k,
		keys: make([]float32, k),
		ids:  make([]int, k),
	}
}

// Len returns the number of elements currently held (<= k).
func (l *MinKList) Len() int { return l.count }

// Insert inserts (key, id), evicting the largest element if the list
// is already full and key beats it. Returns true if the element was
// kept.
func (l *MinKList) Insert(key float32, id int) bool {
	if l.k == 0 {
		return false
	}
	if l.count < l.k {
		pos := l.count
		for pos > 0 && l.keys[pos-1] > key {
			l.keys[pos] = l.keys[pos-1]
			l.ids[pos] = l.ids[pos-1]
			pos--
		}
		l.keys[pos] = key
		l.ids[pos] = id
		l.count++
		return true
	}

	if key >= l.keys[l.count-1] {
		return false
	}

	pos := l.count - 1
	for pos > 0 && l.keys[pos-1] > key {
		l.keys[pos] = l.keys[pos-1]
		l.ids[pos] = l.ids[pos-1]
		pos--
	}
	l.keys[pos] = key
	l.ids[pos] = id
	return true
}

// MaxKey returns the k-th smallest key seen (the worst kept element),
// or +Inf if fewer than k elements have been inserted.
func (l *MinKList) MaxKey() float32 {
	if l.count < l.k {
		return posInf
	}
	return l.keys[l.count-1]
}

// IthKey returns the 0-based i-th ranked key.
func (l *MinKList) IthKey(i int) float32 {
	if i < 0 || i >= l.count {
		return posInf
	}
	return l.keys[i]
}

// IthID returns the 0-based i-th ranked id.
func (l *MinKList) IthID(i int) int {
	if i < 0 || i >= l.count {
		return -1
	}
	return l.ids[i]
}

const posInf = float32(1e38)

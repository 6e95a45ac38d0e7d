package topk

// MaxKArray keeps only the k largest keys (no ids), sorted descending.
// Unlike MaxKList it supports Init, which seeds the array from an
// already-descending slice so verification can start from a user's
// stored lower bounds instead of rebuilding a top-k from scratch.
type MaxKArray struct {
	k     int
	keys  []float32
	count int
}

// NewMaxKArray creates an array with the given capacity.
func NewMaxKArray(k int) *MaxKArray {
	return &MaxKArray{k: k, keys: make([]float32, k)}
}

// Init seeds the array with an already-descending slice of keys. Only
// the first k entries of sorted (or fewer, if shorter) are kept.
func (a *MaxKArray) Init(k int, sorted []float32) {
	a.k = k
	if cap(a.keys) < k {
		a.keys = make([]float32, k)
	}
	a.keys = a.keys[:k]
	n := len(sorted)
	if n > k {
		n = k
	}
	copy(a.keys, sorted[:n])
	a.count = n
}

// Len returns the number of elements currently held (<= k).
func (a *MaxKArray) Len() int { return a.count }

// Add inserts key, evicting the smallest kept element once full.
// Returns true if the key was kept.
func (a *MaxKArray) Add(key float32) bool {
	if a.k == 0 {
		return false
	}
	if a.count < a.k {
		pos := a.count
		for pos > 0 && a.keys[pos-1] < key {
			a.keys[pos] = a.keys[pos-1]
			pos--
		}
		a.keys[pos] = key
		a.count++
		return true
	}

	if key <= a.keys[a.count-1] {
		return false
	}

	pos := a.count - 1
	for pos > 0 && a.keys[pos-1] < key {
		a.keys[pos] = a.keys[pos-1]
		pos--
	}
	a.keys[pos] = key
	return true
}

// MinKey returns the k-th largest key, or -Inf if fewer than k have
// been kept.
func (a *MaxKArray) MinKey() float32 {
	if a.count < a.k {
		return negInf
	}
	return a.keys[a.count-1]
}

// IthKey returns the 0-based i-th ranked key.
func (a *MaxKArray) IthKey(i int) float32 {
	if i < 0 || i >= a.count {
		return negInf
	}
	return a.keys[i]
}

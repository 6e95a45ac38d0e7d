package engine

import "fmt"

// VectorSet is a contiguous row-major arena of fixed-dimension
// vectors. It is the engine's realization of the "items/users live in
// a single arena; blocks and nodes hold opaque slice handles" ownership
// model: every row returned by At is a slice view into the same
// backing array, never copied, and never mutated once the engine is
// built.
type VectorSet struct {
	dim  int
	data []float32
	rows [][]float32
}

// NewVectorSet builds a VectorSet from a flat row-major buffer, as
// produced by the raw little-endian f32 loader. len(flat) must be a
// multiple of dim.
func NewVectorSet(flat []float32, dim int) (*VectorSet, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("engine: vector dimension must be positive, got %d", dim)
	}
	if len(flat)%dim != 0 {
		return nil, fmt.Errorf("engine: flat buffer of length %d is not a multiple of dimension %d", len(flat), dim)
	}
	n := len(flat) / dim
	rows := make([][]float32, n)
	for i := 0; i < n; i++ {
		rows[i] = flat[i*dim : (i+1)*dim]
	}
	return &VectorSet{dim: dim, data: flat, rows: rows}, nil
}

// NewVectorSetFromRows copies a slice of already-separate row vectors
// into one contiguous arena. Every row must share the same dimension.
func NewVectorSetFromRows(rows [][]float32) (*VectorSet, error) {
	if len(rows) == 0 {
		return &VectorSet{}, nil
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("engine: vectors must have positive dimension")
	}
	flat := make([]float32, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("engine: row %d has dimension %d, want %d", i, len(r), dim)
		}
		flat = append(flat, r...)
	}
	return NewVectorSet(flat, dim)
}

// Dim returns the common dimension of every row.
func (s *VectorSet) Dim() int { return s.dim }

// Len returns the number of rows.
func (s *VectorSet) Len() int { return len(s.rows) }

// At returns a read-only view of row i.
func (s *VectorSet) At(i int) []float32 { return s.rows[i] }

// Rows returns every row as a slice of views, in original order.
func (s *VectorSet) Rows() [][]float32 { return s.rows }

// MemoryEstimate returns the arena's backing storage footprint.
func (s *VectorSet) MemoryEstimate() uint64 {
	return uint64(len(s.data)) * 4
}

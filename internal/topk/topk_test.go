package topk

import "testing"

func TestMaxKListBasic(t *testing.T) {
	l := NewMaxKList(3)
	if l.MinKey() != negInf {
		t.Errorf("empty list MinKey should be -Inf, got %v", l.MinKey())
	}

	l.Insert(5, 0)
	l.Insert(1, 1)
	l.Insert(9, 2)

	if l.MinKey() != 1 {
		t.Errorf("MinKey = %v, want 1", l.MinKey())
	}
	if l.MaxKey() != 9 {
		t.Errorf("MaxKey = %v, want 9", l.MaxKey())
	}

	// Now full; a smaller key should be rejected.
	if l.Insert(0, 3) {
		t.Errorf("expected insert of 0 to be rejected once full")
	}
	if l.Insert(7, 4) != true {
		t.Errorf("expected insert of 7 to be kept")
	}
	if l.MinKey() != 5 {
		t.Errorf("MinKey after evicting 1 = %v, want 5", l.MinKey())
	}

	ids := l.IDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if ids[0] != 2 || ids[1] != 4 || ids[2] != 0 {
		t.Errorf("unexpected id order: %v", ids)
	}
}

func TestMaxKArrayInit(t *testing.T) {
	a := NewMaxKArray(3)
	a.Init(3, []float32{10, 8, 2})

	if a.MinKey() != 2 {
		t.Errorf("MinKey = %v, want 2", a.MinKey())
	}

	if !a.Add(9) {
		t.Errorf("expected 9 to be kept")
	}
	if a.MinKey() != 8 {
		t.Errorf("MinKey after adding 9 = %v, want 8", a.MinKey())
	}

	if a.Add(1) {
		t.Errorf("expected 1 to be rejected")
	}
}

func TestMaxKArrayInitShorterThanK(t *testing.T) {
	a := NewMaxKArray(5)
	a.Init(5, []float32{3, 1})
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}
	if a.MinKey() != negInf {
		t.Errorf("under-full array should report -Inf, got %v", a.MinKey())
	}
}

func TestMinKListBasic(t *testing.T) {
	l := NewMinKList(2)
	if l.MaxKey() != posInf {
		t.Errorf("empty list MaxKey should be +Inf, got %v", l.MaxKey())
	}

	l.Insert(5, 0)
	l.Insert(1, 1)
	l.Insert(9, 2) // rejected, larger than current max (5)

	if l.MaxKey() != 5 {
		t.Errorf("MaxKey = %v, want 5", l.MaxKey())
	}
	if l.IthID(0) != 1 || l.IthID(1) != 0 {
		t.Errorf("unexpected id order")
	}
}

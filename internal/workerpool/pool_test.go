package workerpool

import (
	"sync/atomic"
	"testing"
)

func TestForVisitsEveryIndex(t *testing.T) {
	const n = 1000
	var seen [n]int32

	For(n, 4, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})

	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	For(0, 4, func(i int) { called = true })
	if called {
		t.Errorf("fn should not be called for n=0")
	}
}

func TestForDefaultWorkers(t *testing.T) {
	var count int32
	For(10, 0, func(i int) { atomic.AddInt32(&count, 1) })
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}

package parallel_test

import (
	"sync/atomic"
	"testing"

	"github.com/quantself/moodlab/core/parallel"
)

func TestParallelizeCoversRange(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single", 1},
		{"small", 7},
		{"exact multiple of cpus", 64},
		{"large odd", 10001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.n)
			parallel.Parallelize(tt.n, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})

			for i, c := range seen {
				if c != 1 {
					t.Fatalf("index %d visited %d times, want exactly once", i, c)
				}
			}
		})
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	// Below the threshold the callback must receive the whole range in a
	// single sequential call.
	var calls int32
	parallel.ParallelizeWithThreshold(10, 1000, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 10 {
			t.Errorf("expected single chunk [0,10), got [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected 1 sequential call below threshold, got %d", calls)
	}

	// At or above the threshold the full range must still be covered.
	var total int64
	parallel.ParallelizeWithThreshold(5000, 1000, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	if total != 5000 {
		t.Errorf("expected 5000 items covered, got %d", total)
	}
}

func TestParallelizeWithWorkers(t *testing.T) {
	// More workers than items must not produce empty or overlapping chunks.
	seen := make([]int32, 3)
	parallel.ParallelizeWithWorkers(3, 16, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want exactly once", i, c)
		}
	}

	// Zero and negative n are no-ops.
	parallel.ParallelizeWithWorkers(0, 4, func(start, end int) {
		t.Error("callback should not run for n=0")
	})
	parallel.ParallelizeWithWorkers(-5, 4, func(start, end int) {
		t.Error("callback should not run for negative n")
	})
}

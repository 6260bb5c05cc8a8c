// Package parallel provides chunked goroutine fan-out helpers for
// data-parallel loops over row ranges.
//
// The helpers split [0, n) into contiguous chunks, one per worker, and
// block until every chunk is processed. Callers supply a closure that
// handles the half-open range [start, end); closures must not assume any
// particular chunk size or ordering.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize runs fn over [0, n) split across GOMAXPROCS workers.
// It is a no-op for n <= 0 and runs fn inline for tiny inputs where
// goroutine overhead would dominate.
func Parallelize(n int, fn func(start, end int)) {
	ParallelizeWithWorkers(n, runtime.GOMAXPROCS(0), fn)
}

// ParallelizeWithThreshold runs fn over [0, n), sequentially when
// n < threshold and in parallel otherwise. Estimators use this so small
// datasets stay on one goroutine.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < threshold {
		fn(0, n)
		return
	}
	Parallelize(n, fn)
}

// ParallelizeWithWorkers runs fn over [0, n) split across exactly workers
// goroutines (capped at n). workers <= 1 runs sequentially.
func ParallelizeWithWorkers(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

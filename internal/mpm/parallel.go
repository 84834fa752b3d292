package mpm

import (
	"runtime"
	"sync"
)

const defaultMinChunk = 256

type options struct {
	workers  int
	minChunk int
}

// Option configures how a kernel distributes work.
type Option func(*options)

// WithWorkers sets the number of goroutines. n <= 0 uses runtime.NumCPU().
// The default is 1 (serial and bitwise reproducible).
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.workers = n
	}
}

// WithMinChunk sets the smallest particle range handed to one worker.
func WithMinChunk(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minChunk = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{workers: 1, minChunk: defaultMinChunk}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// chunks returns how many workers a range of n items gets.
func (o options) chunks(n int) int {
	workers := o.workers
	if n/o.minChunk < workers {
		workers = n / o.minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// ParallelFor splits [0, n) into contiguous ranges, one per worker, and runs
// fn on each. It returns the error of the lowest-numbered failing worker, so
// the reported failure is the lowest failing index when fn stops at its first
// error.
func ParallelFor(n, workers int, fn func(worker, start, end int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 1 || n < 2 {
		return fn(0, 0, n)
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			errs[w] = fn(w, s, e)
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Job is one independent run in a Batch.
type Job struct {
	Name   string
	Sim    *Simulator
	Config Config
}

// Batch runs independent simulators concurrently, one goroutine per job.
// Jobs must not share a grid or bodies.
type Batch struct {
	jobs []Job
	errs []error
}

func NewBatch(jobs ...Job) *Batch {
	return &Batch{jobs: jobs}
}

// Run returns one result per job, in job order. Failed jobs keep their
// partial result; their errors are joined and tagged with the job name.
func (b *Batch) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(b.jobs))
	errs := make([]error, len(b.jobs))

	var wg sync.WaitGroup
	for i, job := range b.jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()

			res, err := job.Sim.Run(ctx, job.Config)
			results[idx] = res
			if err != nil {
				errs[idx] = fmt.Errorf("%s: %w", job.Name, err)
			}
		}(i, job)
	}

	wg.Wait()
	b.errs = errs

	return results, errors.Join(errs...)
}

// Errors returns the error of each job from the last Run, nil for jobs that
// completed.
func (b *Batch) Errors() []error {
	return b.errs
}

package team

import (
	"context"
	"sync"
)

// WorkerFunc processes a job of type T and returns a result of type U
type WorkerFunc[T any, U any] func(context.Context, T) (U, error)

// Team is a generic worker pool
// WorkerCount: number of concurrent workers (values below 1 mean one)
// Worker: the function to process each job
type Team[T any, U any] struct {
	WorkerCount int
	Worker      WorkerFunc[T, U]
}

// Report is what a Run hands back: the successful results, in no particular
// order, and the errors of the jobs that failed.
type Report[U any] struct {
	Results []U
	Errors  []error
}

// Run feeds jobs to the workers and collects what they produce. Jobs not yet
// handed out when ctx is cancelled are skipped.
func (t *Team[T, U]) Run(ctx context.Context, jobs []T) Report[U] {
	workerCount := min(max(t.WorkerCount, 1), max(len(jobs), 1))
	jobChan := make(chan T)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report Report[U]
	)

	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				res, err := t.Worker(ctx, job)
				mu.Lock()
				if err != nil {
					report.Errors = append(report.Errors, err)
				} else {
					report.Results = append(report.Results, res)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobChan <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobChan)
	wg.Wait()
	return report
}

package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one input together with its outcome.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over a slice of inputs.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a new worker pool. With one worker, inputs are processed
// in order on the calling goroutine.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute runs all inputs through the pool. Results keep input order; inputs
// not reached before ctx is cancelled carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i].Input = inputs[i]
	}

	if p.workers == 1 {
		for i := range inputs {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				continue
			}
			p.run(ctx, 0, i, results)
		}
		return results
	}

	inputCh := make(chan int, len(inputs))
	for i := range inputs {
		inputCh <- i
	}
	close(inputCh)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				if err := ctx.Err(); err != nil {
					results[idx].Err = err
					continue
				}
				p.run(ctx, workerID, idx, results)
			}
		}(w)
	}

	wg.Wait()
	return results
}

func (p *Pool[T, R]) run(ctx context.Context, workerID, idx int, results []Task[T, R]) {
	result, err := p.process(ctx, results[idx].Input)
	results[idx].Result = result
	results[idx].Err = err
	if err != nil {
		log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
	}
}

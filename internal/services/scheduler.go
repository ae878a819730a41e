package services

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// Task is one unit of work run by RunBatch
type Task[T any] func(ctx context.Context) (T, error)

// RunBatch runs tasks with at most limit of them in flight and returns one
// result per task in input order. A failing task does not stop the others.
// Tasks not yet admitted when ctx is cancelled fail with the context error.
func RunBatch[T any](ctx context.Context, limit int, tasks []Task[T]) []models.Result[T] {
	if limit < 1 {
		limit = 1
	}
	logger := config.GetLogger()
	results := make([]models.Result[T], len(tasks))
	sem := semaphore.NewWeighted(int64(limit))

	logger.Debug().Int("tasks", len(tasks)).Int("limit", limit).Msg("Running batch")

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(index int, task Task[T]) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[index] = models.Result[T]{Err: err}
				return
			}
			defer sem.Release(1)

			value, err := task(ctx)
			results[index] = models.Result[T]{Value: value, Err: err}
		}(i, task)
	}

	wg.Wait()
	return results
}

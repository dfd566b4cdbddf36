package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// PoolConfig configures a bounded fan-out.
type PoolConfig struct {
	// Name identifies the pool for logging.
	Name string

	// Concurrency caps the number of in-flight items. Values below 1 mean 1.
	Concurrency int

	// Logger for the pool.
	Logger *zerolog.Logger
}

// Map runs fn over items with at most cfg.Concurrency goroutines and returns
// the results in input order. It waits for every started item before returning.
// A panicking item is logged and leaves the zero value in its slot. Items not
// yet started when ctx is canceled also keep the zero value.
func Map[T, R any](ctx context.Context, cfg PoolConfig, items []T, fn func(ctx context.Context, index int, item T) R) []R {
	logger := getLogger(cfg.Logger)

	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	if limit > len(items) {
		limit = len(items)
	}

	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup

	for i, item := range items {
		select {
		case <-ctx.Done():
			logger.Debug().Str(logFieldWorker, cfg.Name).Int(logFieldIndex, i).Msg("pool canceled before item start")
			wg.Wait()

			return results
		case sem <- struct{}{}:
		}

		wg.Add(1)

		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			defer RecoverPanic(logger, cfg.Name)

			results[i] = fn(ctx, i, item)
		}(i, item)
	}

	wg.Wait()

	return results
}

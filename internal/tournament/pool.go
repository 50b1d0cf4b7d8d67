package tournament

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/ensiproject/ensi/internal/monitoring"
)

// Pool runs a batch of GameSpecs with bounded concurrency and checks that
// the batch didn't leak goroutines across games. Grounded on
// sourcegraph/conc's pool.ResultPool, already present in this module's
// dependency graph as an indirect pull (the teacher's own go.mod carries
// it too, unused); this is that dependency's one natural home in this
// repo, since it's exactly a bounded, ordered-results worker pool.
type Pool struct {
	workers int
	logger  zerolog.Logger
	monitor *monitoring.GoroutineMonitor
}

// NewPool builds a Pool bounded to workers concurrent games. workers <= 0
// means unbounded, matching pool.WithMaxGoroutines's own convention of
// treating a non-positive limit as "don't call it".
func NewPool(workers int, logger zerolog.Logger) *Pool {
	logger = logger.With().Str("component", "tournament").Logger()
	return &Pool{
		workers: workers,
		logger:  logger,
		monitor: monitoring.NewGoroutineMonitor(logger),
	}
}

// RunAll runs every spec, at most p.workers at a time, and returns one
// GameOutcome per spec in the same order specs was given. A game's own
// error is carried in its GameOutcome, never aborts the batch.
func (p *Pool) RunAll(ctx context.Context, specs []GameSpec) []GameOutcome {
	before := p.monitor.Check()

	wp := pool.NewWithResults[GameOutcome]()
	if p.workers > 0 {
		wp = wp.WithMaxGoroutines(p.workers)
	}

	for _, spec := range specs {
		spec := spec
		wp.Go(func() GameOutcome {
			result, err := RunGame(ctx, spec, p.logger)
			return GameOutcome{GameID: spec.GameID, Result: result, Err: err}
		})
	}

	outcomes := wp.Wait()

	after := p.monitor.Check()
	if after.Growth > before.Growth {
		p.logger.Warn().
			Int("before_growth", before.Growth).
			Int("after_growth", after.Growth).
			Int("games", len(specs)).
			Msg("goroutine count grew across tournament batch")
	}

	return outcomes
}

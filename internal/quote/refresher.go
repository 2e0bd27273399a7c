package quote

import (
	"context"
	"sync"
	"time"

	"github.com/brunoksato/finbot/internal/common/domain"
)

const (
	DefaultWorkers      = 8
	DefaultRoundTimeout = 10 * time.Second
)

// Result is the terminal outcome of one quote within a refresh round. Err is
// non-nil only for transport failures; the snapshot then carries the
// last-known values.
type Result struct {
	Snapshot domain.Snapshot
	Err      error
}

// Refresher fans quote refreshes out to a fixed pool of workers, so a
// valuation over a large portfolio is bounded by the pool size rather than
// opening one connection per instrument. The pool is created once and reused
// across rounds; Close stops it.
type Refresher struct {
	roundTimeout time.Duration

	jobs chan refreshJob

	closeOnce sync.Once
	workers   sync.WaitGroup
}

type refreshJob struct {
	ctx   context.Context
	quote *Quote
	done  func(Result)
}

func NewRefresher(workers int, roundTimeout time.Duration) *Refresher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if roundTimeout <= 0 {
		roundTimeout = DefaultRoundTimeout
	}

	r := &Refresher{
		roundTimeout: roundTimeout,
		jobs:         make(chan refreshJob),
	}

	for i := 0; i < workers; i++ {
		r.workers.Add(1)
		go r.worker()
	}

	return r
}

func (r *Refresher) worker() {
	defer r.workers.Done()

	for job := range r.jobs {
		snapshot, err := job.quote.Refresh(job.ctx)
		job.done(Result{Snapshot: snapshot, Err: err})
	}
}

// RefreshAll refreshes every quote concurrently and returns a result per
// ticker once each one reached a terminal outcome for this round. One
// instrument failing never aborts the others. The round shares a deadline;
// quotes still pending when it expires report the failure through their
// Result and keep their last-known values.
func (r *Refresher) RefreshAll(ctx context.Context, quotes []*Quote) map[string]Result {
	ctx, cancel := context.WithTimeout(ctx, r.roundTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		pending sync.WaitGroup
	)

	results := make(map[string]Result, len(quotes))

	pending.Add(len(quotes))
	for _, q := range quotes {
		r.jobs <- refreshJob{
			ctx:   ctx,
			quote: q,
			done: func(res Result) {
				mu.Lock()
				results[res.Snapshot.Ticker] = res
				mu.Unlock()

				pending.Done()
			},
		}
	}

	pending.Wait()

	return results
}

// Close stops the workers. It must not be called while a round is running.
func (r *Refresher) Close() {
	r.closeOnce.Do(func() {
		close(r.jobs)
	})

	r.workers.Wait()
}

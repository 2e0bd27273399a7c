package quote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brunoksato/finbot/internal/common/domain"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = time.Minute

// Quote caches the last answer of the price source for one ticker. Price,
// change and validity always come from the same refresh, guarded by one
// lock, so a reader never sees a new price next to an old change.
type Quote struct {
	ticker string
	ttl    time.Duration
	source domain.PriceSource

	group singleflight.Group

	mu            sync.RWMutex
	price         float64
	change        float64
	valid         bool
	lastRefreshed time.Time
}

func New(ticker string, source domain.PriceSource, ttl time.Duration) *Quote {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Quote{
		ticker: ticker,
		ttl:    ttl,
		source: source,
	}
}

func (q *Quote) Ticker() string {
	return q.ticker
}

// Snapshot returns the last-known values without touching the source.
func (q *Quote) Snapshot() domain.Snapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return domain.Snapshot{
		Ticker: q.ticker,
		Price:  q.price,
		Change: q.change,
		Valid:  q.valid,
	}
}

// Refresh returns a snapshot no older than the TTL, hitting the source only
// when the cached one expired. Concurrent callers share a single in-flight
// fetch. An unknown ticker is a normal outcome, reported via Snapshot.Valid;
// the returned error is non-nil only when the source was unreachable, and in
// that case the snapshot still carries the last-known values.
func (q *Quote) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if snap, ok := q.fresh(time.Now()); ok {
		return snap, nil
	}

	v, err, _ := q.group.Do(q.ticker, func() (any, error) {
		// A caller that queued behind a completed refresh must not
		// trigger another fetch.
		if snap, ok := q.fresh(time.Now()); ok {
			return snap, nil
		}

		return q.fetch(ctx)
	})
	if err != nil {
		return q.Snapshot(), err
	}

	return v.(domain.Snapshot), nil
}

func (q *Quote) fetch(ctx context.Context) (domain.Snapshot, error) {
	instrument, err := q.source.GetInstrumentQuote(ctx, q.ticker)
	now := time.Now()

	switch {
	case err == nil:
		q.mu.Lock()
		q.price = instrument.LastPrice
		q.change = instrument.Change
		q.valid = true
		q.lastRefreshed = now
		q.mu.Unlock()

	case errors.Is(err, domain.ErrInstrumentNotFound):
		q.mu.Lock()
		q.valid = false
		q.lastRefreshed = now
		q.mu.Unlock()

	default:
		// Transport failure. Keep the last-known values and the old
		// timestamp so the next read retries immediately instead of
		// caching the failure for a whole TTL window.
		return q.Snapshot(), err
	}

	return q.Snapshot(), nil
}

func (q *Quote) fresh(now time.Time) (domain.Snapshot, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.lastRefreshed.IsZero() || now.Sub(q.lastRefreshed) >= q.ttl {
		return domain.Snapshot{}, false
	}

	return domain.Snapshot{
		Ticker: q.ticker,
		Price:  q.price,
		Change: q.change,
		Valid:  q.valid,
	}, true
}

package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/brunoksato/finbot/internal/common/domain"
	"github.com/brunoksato/finbot/internal/quote"
	gocache "github.com/patrickmn/go-cache"
)

// Service is the portfolio ledger: it validates and applies buy/sell
// mutations and computes valuations over refreshed quotes. Mutations on one
// client are serialized by a per-client lock so the weighted-average
// arithmetic never interleaves.
type Service struct {
	quotes     *quote.Cache
	refresher  *quote.Refresher
	repository domain.PortfolioRepository

	clientLocks *gocache.Cache
}

// PositionValue is one valuation line. Stale means this round's refresh did
// not produce a fresh answer and Price/Change are the last-known figures.
type PositionValue struct {
	Ticker    string
	Quantity  int64
	Price     float64
	Change    float64
	Value     float64
	CostBasis float64
	Stale     bool
}

type Valuation struct {
	Positions   []PositionValue
	TotalValue  float64
	TotalChange float64
}

func New(quotes *quote.Cache, refresher *quote.Refresher, repository domain.PortfolioRepository) *Service {
	return &Service{
		quotes:      quotes,
		refresher:   refresher,
		repository:  repository,
		clientLocks: gocache.New(gocache.NoExpiration, 0),
	}
}

// Price returns a fresh-enough snapshot for one ticker.
func (s *Service) Price(ctx context.Context, code string) (domain.Snapshot, error) {
	ticker := domain.NormalizeTicker(code)
	if ticker == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: empty ticker", domain.ErrInstrumentNotFound)
	}

	return s.quotes.Get(ticker).Refresh(ctx)
}

// Buy adds quantity units bought at price to the client's position in code,
// creating the portfolio and the position as needed. The ticker must be
// recognized by the price source; when the source cannot be reached the buy
// fails with ErrSourceUnavailable so the caller can retry instead of being
// told the instrument does not exist.
func (s *Service) Buy(ctx context.Context, clientID int64, code string, quantity int64, price float64) (domain.Position, error) {
	ticker := domain.NormalizeTicker(code)

	if quantity <= 0 {
		return domain.Position{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidQuantity, quantity)
	}
	if price < 0 {
		return domain.Position{}, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidQuantity)
	}

	snapshot, err := s.quotes.Get(ticker).Refresh(ctx)
	if err != nil {
		return domain.Position{}, err
	}
	if !snapshot.Valid {
		return domain.Position{}, fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, ticker)
	}

	mu := s.clientLock(clientID)
	mu.Lock()
	defer mu.Unlock()

	portfolio, err := s.repository.GetPortfolio(ctx, clientID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoPortfolio) {
			return domain.Position{}, err
		}

		portfolio = domain.NewPortfolio(clientID)
	}

	current, ok := portfolio.Positions[ticker]
	if !ok {
		current = domain.Position{Ticker: ticker}
	}

	merged := domain.Merge(current, quantity, price)
	portfolio.Positions[ticker] = merged

	if err := s.repository.SavePortfolio(ctx, portfolio); err != nil {
		return domain.Position{}, err
	}

	return merged, nil
}

// Sell removes quantity units from the client's position in code. Selling
// more than held is rejected, not clamped. Selling down to exactly zero
// removes the position; the returned value then has Quantity 0.
func (s *Service) Sell(ctx context.Context, clientID int64, code string, quantity int64) (domain.Position, error) {
	ticker := domain.NormalizeTicker(code)

	if quantity <= 0 {
		return domain.Position{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidQuantity, quantity)
	}

	mu := s.clientLock(clientID)
	mu.Lock()
	defer mu.Unlock()

	portfolio, err := s.repository.GetPortfolio(ctx, clientID)
	if err != nil {
		return domain.Position{}, err
	}

	position, ok := portfolio.Positions[ticker]
	if !ok {
		return domain.Position{}, fmt.Errorf("%w: no %s position", domain.ErrInstrumentNotFound, ticker)
	}

	if quantity > position.Quantity {
		return domain.Position{}, fmt.Errorf("%w: holding %d, asked to sell %d", domain.ErrInsufficientQuantity, position.Quantity, quantity)
	}

	// The average price is a cost basis; partial sells do not recompute it.
	remaining := domain.Position{
		Ticker:   ticker,
		Quantity: position.Quantity - quantity,
		AvgPrice: position.AvgPrice,
	}

	if remaining.Quantity == 0 {
		remaining.AvgPrice = 0
		delete(portfolio.Positions, ticker)
	} else {
		portfolio.Positions[ticker] = remaining
	}

	if err := s.repository.SavePortfolio(ctx, portfolio); err != nil {
		return domain.Position{}, err
	}

	return remaining, nil
}

// Valuation refreshes every held quote concurrently and aggregates the
// portfolio's value and day change. A position whose refresh failed this
// round is never dropped: its last-known figures still contribute and the
// line is flagged stale.
func (s *Service) Valuation(ctx context.Context, clientID int64) (*Valuation, error) {
	mu := s.clientLock(clientID)
	mu.Lock()
	defer mu.Unlock()

	portfolio, err := s.repository.GetPortfolio(ctx, clientID)
	if err != nil {
		return nil, err
	}

	quotes := make([]*quote.Quote, 0, len(portfolio.Positions))
	for ticker := range portfolio.Positions {
		quotes = append(quotes, s.quotes.Get(ticker))
	}

	results := s.refresher.RefreshAll(ctx, quotes)

	valuation := &Valuation{
		Positions: make([]PositionValue, 0, len(portfolio.Positions)),
	}

	var weighted float64

	for _, position := range portfolio.Positions {
		result := results[position.Ticker]

		value := float64(position.Quantity) * result.Snapshot.Price

		valuation.Positions = append(valuation.Positions, PositionValue{
			Ticker:    position.Ticker,
			Quantity:  position.Quantity,
			Price:     result.Snapshot.Price,
			Change:    result.Snapshot.Change,
			Value:     value,
			CostBasis: float64(position.Quantity) * position.AvgPrice,
			Stale:     result.Err != nil || !result.Snapshot.Valid,
		})

		valuation.TotalValue += value
		weighted += value * result.Snapshot.Change
	}

	// A worthless or empty portfolio has no defined day change; report zero.
	if valuation.TotalValue > 0 {
		valuation.TotalChange = weighted / valuation.TotalValue
	}

	sort.Slice(valuation.Positions, func(i, j int) bool {
		return valuation.Positions[i].Ticker < valuation.Positions[j].Ticker
	})

	return valuation, nil
}

// clientLock returns the mutex serializing mutations for one client. Locks
// never expire: a *sync.Mutex is tiny and the set of active chats is small.
func (s *Service) clientLock(clientID int64) *sync.Mutex {
	key := strconv.FormatInt(clientID, 10)

	if mu, ok := s.clientLocks.Get(key); ok {
		return mu.(*sync.Mutex)
	}

	mu := &sync.Mutex{}
	if err := s.clientLocks.Add(key, mu, gocache.NoExpiration); err != nil {
		// Lost the race: another goroutine registered the lock first.
		existing, _ := s.clientLocks.Get(key)
		return existing.(*sync.Mutex)
	}

	return mu
}

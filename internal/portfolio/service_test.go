package portfolio

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brunoksato/finbot/internal/common/domain"
	"github.com/brunoksato/finbot/internal/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu     sync.Mutex
	quotes map[string]domain.InstrumentQuote
	errs   map[string]error
}

func (s *stubSource) GetInstrumentQuote(_ context.Context, ticker string) (*domain.InstrumentQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.errs[ticker]; ok {
		return nil, err
	}

	if q, ok := s.quotes[ticker]; ok {
		out := q
		return &out, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, ticker)
}

func (s *stubSource) setErr(ticker string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.errs == nil {
		s.errs = map[string]error{}
	}
	s.errs[ticker] = err
}

type fakeRepository struct {
	mu         sync.Mutex
	portfolios map[int64]*domain.Portfolio
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{portfolios: map[int64]*domain.Portfolio{}}
}

func (r *fakeRepository) GetPortfolio(_ context.Context, clientID int64) (*domain.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[clientID]
	if !ok {
		return nil, domain.ErrNoPortfolio
	}

	return clonePortfolio(p), nil
}

func (r *fakeRepository) SavePortfolio(_ context.Context, portfolio *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.portfolios[portfolio.ClientID] = clonePortfolio(portfolio)

	return nil
}

func clonePortfolio(p *domain.Portfolio) *domain.Portfolio {
	clone := domain.NewPortfolio(p.ClientID)
	for ticker, position := range p.Positions {
		clone.Positions[ticker] = position
	}

	return clone
}

func newTestService(t *testing.T, source domain.PriceSource, ttl time.Duration) (*Service, *fakeRepository) {
	t.Helper()

	repository := newFakeRepository()

	refresher := quote.NewRefresher(4, time.Second)
	t.Cleanup(refresher.Close)

	return New(quote.NewCache(source, ttl), refresher, repository), repository
}

func TestBuyCreatesPortfolioAndPosition(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2, Change: 0.01},
	}}

	service, repository := newTestService(t, source, time.Minute)

	position, err := service.Buy(context.Background(), 42, " enbr3 ", 10, 18)
	require.NoError(t, err)

	assert.Equal(t, domain.Position{Ticker: "ENBR3", Quantity: 10, AvgPrice: 18}, position)

	saved, err := repository.GetPortfolio(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, position, saved.Positions["ENBR3"])
}

func TestBuyMergesWeightedAverage(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2},
	}}

	service, _ := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)
	require.NoError(t, err)

	position, err := service.Buy(context.Background(), 42, "ENBR3", 10, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(20), position.Quantity)
	assert.Equal(t, float64(14), position.AvgPrice)
}

func TestBuyUnknownInstrument(t *testing.T) {
	service, repository := newTestService(t, &stubSource{}, time.Minute)

	_, err := service.Buy(context.Background(), 42, "NOPE3", 10, 18)
	require.ErrorIs(t, err, domain.ErrInstrumentNotFound)

	// No portfolio was created for the failed buy.
	_, err = repository.GetPortfolio(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNoPortfolio)
}

func TestBuySourceUnavailable(t *testing.T) {
	source := &stubSource{}
	source.setErr("ENBR3", fmt.Errorf("%w: connection refused", domain.ErrSourceUnavailable))

	service, _ := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)

	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.NotErrorIs(t, err, domain.ErrInstrumentNotFound)
}

func TestBuyInvalidArguments(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2},
	}}

	service, _ := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 0, 18)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = service.Buy(context.Background(), 42, "ENBR3", -5, 18)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = service.Buy(context.Background(), 42, "ENBR3", 10, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestSellPartialKeepsAvgPrice(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2},
	}}

	service, _ := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)
	require.NoError(t, err)

	position, err := service.Sell(context.Background(), 42, "ENBR3", 4)
	require.NoError(t, err)

	assert.Equal(t, int64(6), position.Quantity)
	assert.Equal(t, float64(18), position.AvgPrice)
}

func TestSellAllRemovesPosition(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2},
	}}

	service, repository := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)
	require.NoError(t, err)

	position, err := service.Sell(context.Background(), 42, "ENBR3", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), position.Quantity)

	// The position is gone but the (now empty) portfolio survives.
	saved, err := repository.GetPortfolio(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, saved.Positions)

	_, err = service.Sell(context.Background(), 42, "ENBR3", 1)
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)
}

func TestSellInsufficientLeavesPortfolioUnchanged(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2},
	}}

	service, repository := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)
	require.NoError(t, err)

	_, err = service.Sell(context.Background(), 42, "ENBR3", 20)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	saved, err := repository.GetPortfolio(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{Ticker: "ENBR3", Quantity: 10, AvgPrice: 18}, saved.Positions["ENBR3"])
}

func TestSellNoPortfolio(t *testing.T) {
	service, _ := newTestService(t, &stubSource{}, time.Minute)

	_, err := service.Sell(context.Background(), 42, "ENBR3", 1)

	assert.ErrorIs(t, err, domain.ErrNoPortfolio)
}

func TestSellInvalidQuantity(t *testing.T) {
	service, _ := newTestService(t, &stubSource{}, time.Minute)

	_, err := service.Sell(context.Background(), 42, "ENBR3", 0)

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestValuationTotals(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2, Change: 0.1},
		"BBAS3": {Ticker: "BBAS3", LastPrice: 20, Change: -0.02},
	}}

	service, _ := newTestService(t, source, time.Minute)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)
	require.NoError(t, err)
	_, err = service.Buy(context.Background(), 42, "BBAS3", 5, 21)
	require.NoError(t, err)

	valuation, err := service.Valuation(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, valuation.Positions, 2)
	assert.Equal(t, "BBAS3", valuation.Positions[0].Ticker)
	assert.Equal(t, "ENBR3", valuation.Positions[1].Ticker)

	assert.InDelta(t, 100, valuation.Positions[0].Value, 1e-9)
	assert.InDelta(t, 105, valuation.Positions[0].CostBasis, 1e-9)
	assert.InDelta(t, 182, valuation.Positions[1].Value, 1e-9)

	assert.InDelta(t, 282, valuation.TotalValue, 1e-9)
	// Value-weighted change: (182*0.1 + 100*-0.02) / 282
	assert.InDelta(t, 16.2/282, valuation.TotalChange, 1e-9)
}

func TestValuationKeepsPositionWhenSourceGoesDown(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2, Change: 0.1},
	}}

	service, _ := newTestService(t, source, 10*time.Millisecond)

	_, err := service.Buy(context.Background(), 42, "ENBR3", 10, 18)
	require.NoError(t, err)

	source.setErr("ENBR3", fmt.Errorf("%w: timeout", domain.ErrSourceUnavailable))
	time.Sleep(20 * time.Millisecond) // let the cached quote expire

	valuation, err := service.Valuation(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, valuation.Positions, 1)
	line := valuation.Positions[0]

	assert.True(t, line.Stale)
	assert.Equal(t, 18.2, line.Price) // last-known figures still contribute
	assert.InDelta(t, 182, valuation.TotalValue, 1e-9)
}

func TestValuationUnknownTickerContributesZero(t *testing.T) {
	source := &stubSource{quotes: map[string]domain.InstrumentQuote{
		"ENBR3": {Ticker: "ENBR3", LastPrice: 18.2, Change: 0.1},
	}}

	service, repository := newTestService(t, source, time.Minute)

	// A loaded portfolio may reference a ticker the source no longer knows.
	seeded := domain.NewPortfolio(42)
	seeded.Positions["GONE3"] = domain.Position{Ticker: "GONE3", Quantity: 7, AvgPrice: 3}
	seeded.Positions["ENBR3"] = domain.Position{Ticker: "ENBR3", Quantity: 10, AvgPrice: 18}
	require.NoError(t, repository.SavePortfolio(context.Background(), seeded))

	valuation, err := service.Valuation(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, valuation.Positions, 2)

	assert.Equal(t, "GONE3", valuation.Positions[1].Ticker)
	assert.True(t, valuation.Positions[1].Stale)
	assert.Zero(t, valuation.Positions[1].Value)

	assert.InDelta(t, 182, valuation.TotalValue, 1e-9)
}

func TestValuationNoPortfolio(t *testing.T) {
	service, _ := newTestService(t, &stubSource{}, time.Minute)

	_, err := service.Valuation(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrNoPortfolio)
}

func TestValuationEmptyPortfolioReportsZeroChange(t *testing.T) {
	service, repository := newTestService(t, &stubSource{}, time.Minute)

	require.NoError(t, repository.SavePortfolio(context.Background(), domain.NewPortfolio(42)))

	valuation, err := service.Valuation(context.Background(), 42)
	require.NoError(t, err)

	assert.Empty(t, valuation.Positions)
	assert.Zero(t, valuation.TotalValue)
	assert.Zero(t, valuation.TotalChange)
}

package domain

import (
	"context"
	"strings"
)

type PortfolioRepository interface {
	// GetPortfolio loads the client's portfolio, ErrNoPortfolio when the
	// client never had one.
	GetPortfolio(ctx context.Context, clientID int64) (*Portfolio, error)
	// SavePortfolio replaces the stored positions with the given ones.
	SavePortfolio(ctx context.Context, portfolio *Portfolio) error
}

// Position is the holding of one instrument: how many units and the
// weighted-average price they were bought at. A position with zero quantity
// is never stored, it is removed from the portfolio instead.
type Position struct {
	Ticker   string  `json:"ticker"`
	Quantity int64   `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// Portfolio is the set of positions held by one chat.
type Portfolio struct {
	ClientID  int64               `json:"client_id"`
	Positions map[string]Position `json:"positions"`
}

func NewPortfolio(clientID int64) *Portfolio {
	return &Portfolio{
		ClientID:  clientID,
		Positions: map[string]Position{},
	}
}

// Merge folds a buy of quantity units at price into pos and returns the
// combined position as a new value. The average price moves proportionally
// to the quantities on each side, so a zero-quantity side contributes
// nothing to it.
func Merge(pos Position, quantity int64, price float64) Position {
	total := pos.Quantity + quantity
	if total == 0 {
		return Position{Ticker: pos.Ticker}
	}

	return Position{
		Ticker:   pos.Ticker,
		Quantity: total,
		AvgPrice: (pos.AvgPrice*float64(pos.Quantity) + price*float64(quantity)) / float64(total),
	}
}

// NormalizeTicker maps user input to the canonical ticker form used as the
// portfolio and quote-cache key.
func NormalizeTicker(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package postgres

import (
	"time"

	"github.com/brunoksato/finbot/internal/common/domain"
)

type Position struct {
	ClientID int64 `db:"client_id"`

	Ticker   string  `db:"ticker"`
	Quantity int64   `db:"quantity"`
	AvgPrice float64 `db:"avg_price"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Position) CreateDomain() domain.Position {
	return domain.Position{
		Ticker:   p.Ticker,
		Quantity: p.Quantity,
		AvgPrice: p.AvgPrice,
	}
}

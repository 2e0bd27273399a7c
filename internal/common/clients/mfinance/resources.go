package mfinance

import "github.com/brunoksato/finbot/internal/common/domain"

type getStockResponse struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"lastPrice"`
	Change    float64 `json:"change"`
}

// CreateDomain maps the API payload to the domain quote. The API reports
// change in percent points; the domain keeps the fractional convention
// (0.01 per percent).
func (res *getStockResponse) CreateDomain() *domain.InstrumentQuote {
	return &domain.InstrumentQuote{
		Ticker:    res.Symbol,
		LastPrice: res.LastPrice,
		Change:    res.Change / 100,
	}
}

package domain

import "context"

// PriceSource answers current-quote lookups for a single ticker.
// ErrInstrumentNotFound means the source does not know the ticker;
// ErrSourceUnavailable covers transport failures, timeouts and
// malformed payloads.
type PriceSource interface {
	GetInstrumentQuote(ctx context.Context, ticker string) (*InstrumentQuote, error)
}

// InstrumentQuote is one successful answer from the price source.
// Change is fractional: 0.10 means +10% for the day.
type InstrumentQuote struct {
	Ticker    string  `json:"ticker"`
	LastPrice float64 `json:"last_price"`
	Change    float64 `json:"change"`
}

// Snapshot is the last-known view of a cached quote. Valid reports whether
// the source recognized the ticker on the last completed refresh.
type Snapshot struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	Valid  bool    `json:"valid"`
}

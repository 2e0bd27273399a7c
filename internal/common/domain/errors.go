package domain

import "errors"

var (
	// ErrInstrumentNotFound means the price source does not know the ticker,
	// or a sell referenced a ticker the client does not hold.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrInvalidQuantity means a buy or sell carried a non-positive quantity
	// or a negative price.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientQuantity means a sell asked for more than the client holds.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrSourceUnavailable means the price source could not be reached. It is
	// distinct from ErrInstrumentNotFound so callers can suggest retrying.
	ErrSourceUnavailable = errors.New("price source unavailable")

	// ErrNoPortfolio means the client never bought anything.
	ErrNoPortfolio = errors.New("no portfolio")
)

package quote

import (
	"sync"
	"time"

	"github.com/brunoksato/finbot/internal/common/domain"
)

// Cache keeps one Quote per ticker for the lifetime of the process, so every
// portfolio holding the same instrument shares one TTL window and one
// in-flight fetch.
type Cache struct {
	source domain.PriceSource
	ttl    time.Duration

	mu     sync.Mutex
	quotes map[string]*Quote
}

func NewCache(source domain.PriceSource, ttl time.Duration) *Cache {
	return &Cache{
		source: source,
		ttl:    ttl,
		quotes: map[string]*Quote{},
	}
}

// Get returns the quote for ticker, creating it on first use. The ticker is
// expected to be normalized already.
func (c *Cache) Get(ticker string) *Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.quotes[ticker]
	if !ok {
		q = New(ticker, c.source, c.ttl)
		c.quotes[ticker] = q
	}

	return q
}

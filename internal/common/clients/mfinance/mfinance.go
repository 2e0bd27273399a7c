package mfinance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brunoksato/finbot/internal/common/domain"
	"github.com/brunoksato/finbot/pkg/errs"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultBaseURL = "https://mfinance.com.br/api/v1"

	defaultTimeout = 5 * time.Second
	retryBase      = 200 * time.Millisecond
)

// Client talks to the mfinance REST API. It implements domain.PriceSource.
type Client struct {
	baseURL string
	retries uint64

	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration, retries uint64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: retries,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetInstrumentQuote returns the current quote for ticker. Transport
// failures are retried with fibonacci backoff and surface as
// domain.ErrSourceUnavailable; an unknown ticker is final and surfaces as
// domain.ErrInstrumentNotFound.
func (c *Client) GetInstrumentQuote(ctx context.Context, ticker string) (*domain.InstrumentQuote, error) {
	res := &getStockResponse{}

	backoff := retry.WithMaxRetries(c.retries, retry.NewFibonacci(retryBase))

	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.getStock(ctx, ticker, res); err != nil {
			if errors.Is(err, domain.ErrSourceUnavailable) {
				return retry.RetryableError(err)
			}

			return err
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return res.CreateDomain(), nil
}

func (c *Client) getStock(ctx context.Context, ticker string, res *getStockResponse) error {
	reqURL := fmt.Sprintf("%s/stocks/%s", c.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errs.NewStack(err)
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer rsp.Body.Close()

	switch rsp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, ticker)
	default:
		return fmt.Errorf("%w: unexpected status %d", domain.ErrSourceUnavailable, rsp.StatusCode)
	}

	if err := json.NewDecoder(rsp.Body).Decode(res); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrSourceUnavailable, err)
	}

	return nil
}

package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal/config"
)

// ErrSymbolNotFound is returned when the provider has no quote for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrThrottled is returned when the provider keeps refusing to quote because
// the API key is over its call allowance.
var ErrThrottled = errors.New("quote provider is throttling requests")

const maxRetries = 3

// QuoteSource fetches the latest traded price of a symbol.
type QuoteSource interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// AlphaVantageResponse is the GLOBAL_QUOTE payload. Alpha Vantage answers
// 200 for throttled and rejected calls and only fills one of the message
// fields instead of the quote.
type AlphaVantageResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (r *AlphaVantageResponse) throttleMessage() string {
	if r.Note != "" {
		return r.Note
	}
	return r.Information
}

// Client talks to the Alpha Vantage REST API.
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration
}

var _ QuoteSource = (*Client)(nil)

func NewClient(cfg config.Market, logger *zap.Logger) *Client {
	return &Client{
		client:  resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(10 * time.Second),
		apiKey:  cfg.APIKey,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		backoff: time.Second,
	}
}

// LatestPrice returns the last price Alpha Vantage reports for symbol.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	result, err := c.globalQuote(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	if result.GlobalQuote.Price == "" {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", result.GlobalQuote.Price, err)
	}
	return price, nil
}

// globalQuote calls GLOBAL_QUOTE under the rate limiter. Throttle notices,
// 429s, server errors and transport failures are retried with exponential
// backoff; a rejected call or any other client error is returned at once.
func (c *Client) globalQuote(ctx context.Context, symbol string) (*AlphaVantageResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.logger.Warn("Quote request failed, retrying",
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
				zap.Duration("retry_after", wait),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Requesting quote", zap.String("symbol", symbol))
		resp, err := c.client.R().
			SetContext(ctx).
			SetResult(&AlphaVantageResponse{}).
			SetQueryParams(map[string]string{
				"function": "GLOBAL_QUOTE",
				"symbol":   symbol,
				"apikey":   c.apiKey,
			}).
			Get("/query")

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
			lastErr = fmt.Errorf("quote provider returned %s", resp.Status())
		case resp.IsError():
			return nil, fmt.Errorf("quote provider returned %s: %s", resp.Status(), resp.String())
		default:
			result := resp.Result().(*AlphaVantageResponse)
			if result.ErrorMessage != "" {
				return nil, fmt.Errorf("quote provider rejected the request: %s", result.ErrorMessage)
			}
			msg := result.throttleMessage()
			if msg == "" {
				return result, nil
			}
			lastErr = fmt.Errorf("%w: %s", ErrThrottled, msg)
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a test server and a Client pointed at it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL),
		apiKey:  "test_api_key",
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
		backoff: time.Millisecond,
	}
	return c, server
}

func TestLatestPrice(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query", r.URL.Path)
			assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test_api_key", r.URL.Query().Get("apikey"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "189.2500"}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		price, err := c.LatestPrice(context.Background(), " aapl ")

		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("189.25").Equal(price))
	})

	t.Run("UnknownSymbol", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Global Quote": {}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		_, err := c.LatestPrice(context.Background(), "NOPE")

		assert.ErrorIs(t, err, ErrSymbolNotFound)
	})

	throttleCases := []struct {
		name string
		body string
	}{
		{"ThrottleNote", `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`},
		{"ThrottleInformation", `{"Information": "We have detected your API key as demo and our standard API rate limit is 25 requests per day."}`},
	}
	for _, tc := range throttleCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})

			c, server := setupTestServer(handler)
			defer server.Close()

			_, err := c.LatestPrice(context.Background(), "AAPL")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrThrottled)
			assert.False(t, errors.Is(err, ErrSymbolNotFound))
			assert.Equal(t, int32(maxRetries), atomic.LoadInt32(&calls))
		})
	}

	t.Run("ThrottleThenQuote", func(t *testing.T) {
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if atomic.AddInt32(&calls, 1) == 1 {
				_, _ = w.Write([]byte(`{"Information": "rate limit"}`))
				return
			}
			_, _ = w.Write([]byte(`{"Global Quote": {"05. price": "42.00"}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		price, err := c.LatestPrice(context.Background(), "AAPL")

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(42).Equal(price))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("ErrorMessageNotRetried", func(t *testing.T) {
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Error Message": "Invalid API call. Please retry or visit the documentation for GLOBAL_QUOTE."}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		_, err := c.LatestPrice(context.Background(), "AAPL")

		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrSymbolNotFound))
		assert.False(t, errors.Is(err, ErrThrottled))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Global Quote": {"05. price": "10.5"}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		price, err := c.LatestPrice(context.Background(), "MSFT")

		require.NoError(t, err)
		assert.Equal(t, "10.5", price.String())
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("GivesUpAfterRetries", func(t *testing.T) {
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		_, err := c.LatestPrice(context.Background(), "MSFT")

		require.Error(t, err)
		assert.Equal(t, int32(maxRetries), atomic.LoadInt32(&calls))
	})

	t.Run("ClientErrorNotRetried", func(t *testing.T) {
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		_, err := c.LatestPrice(context.Background(), "MSFT")

		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

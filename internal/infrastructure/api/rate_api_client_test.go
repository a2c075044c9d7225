// internal/infrastructure/api/rate_api_client_test.go
package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logger.Logger {
	return logger.NewJSONLogger(nil, logger.ErrorLevel)
}

func TestLatest(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("access_key"))
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "JPY,GBP", r.URL.Query().Get("symbols"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"timestamp":1704067200,"base":"USD","date":"2024-01-01","rates":{"JPY":130.5,"GBP":0.85}}`))
	}))
	defer mockServer.Close()

	client := NewRateAPIClient(mockServer.URL+"/", "secret", nil, quietLogger())

	quote, err := client.Latest(context.Background(), FetchOptions{Base: "USD", Symbols: []string{"JPY", "GBP"}})
	require.NoError(t, err)

	assert.True(t, quote.Success)
	assert.Equal(t, int64(1704067200), quote.Timestamp)
	assert.Equal(t, "USD", quote.Base)
	assert.Equal(t, "2024-01-01", quote.Date)
	assert.Equal(t, map[string]float64{"JPY": 130.5, "GBP": 0.85}, quote.Rates)
}

func TestHistoricalIsCached(t *testing.T) {
	var hits int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/2024-01-01", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("access_key"))
		w.Write([]byte(`{"success":true,"base":"EUR","date":"2024-01-01","rates":{"USD":1.2}}`))
	}))
	defer mockServer.Close()

	client := NewRateAPIClient(mockServer.URL, "", nil, quietLogger())
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first, err := client.Historical(ctx, date, FetchOptions{})
	require.NoError(t, err)
	second, err := client.Historical(ctx, date, FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// A different filter is a different cache entry
	_, err = client.Historical(ctx, date, FetchOptions{Symbols: []string{"USD"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHistoricalCacheTTL(t *testing.T) {
	var hits int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"success":true,"base":"EUR","date":"2024-01-01","rates":{"USD":1.2}}`))
	}))
	defer mockServer.Close()

	client := NewRateAPIClient(mockServer.URL, "", nil, quietLogger())
	client.SetCacheTTL(10 * time.Millisecond)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, err := client.Historical(ctx, date, FetchOptions{})
	require.NoError(t, err)
	_, err = client.Historical(ctx, date, FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	time.Sleep(20 * time.Millisecond)

	_, err = client.Historical(ctx, date, FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "expired entries are fetched again")
}

func TestErrorStatuses(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("access_key") {
		case "WRONG":
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case "teapot":
			http.Error(w, "short and stout", http.StatusTeapot)
		case "garbage":
			w.Write([]byte(`not json`))
		default:
			http.Error(w, "invalid endpoint", http.StatusBadRequest)
		}
	}))
	defer mockServer.Close()

	ctx := context.Background()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewRateAPIClient(mockServer.URL, "WRONG", nil, quietLogger()).Historical(ctx, date, FetchOptions{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewRateAPIClient(mockServer.URL, "ok", nil, quietLogger()).Latest(ctx, FetchOptions{})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	_, err = NewRateAPIClient(mockServer.URL, "teapot", nil, quietLogger()).Latest(ctx, FetchOptions{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTeapot, statusErr.StatusCode)
	assert.Equal(t, "short and stout", statusErr.Body)

	_, err = NewRateAPIClient(mockServer.URL, "garbage", nil, quietLogger()).Latest(ctx, FetchOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

// flakyTransport fails the first failures round trips before delegating
type flakyTransport struct {
	failures int32
	calls    int32
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if atomic.AddInt32(&f.calls, 1) <= f.failures {
		return nil, errors.New("connection refused")
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestRetriesTransportErrors(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"base":"EUR","date":"2024-01-01","rates":{}}`))
	}))
	defer mockServer.Close()

	t.Run("Recovers within the retry budget", func(t *testing.T) {
		transport := &flakyTransport{failures: 2}
		client := NewRateAPIClient(mockServer.URL, "", &http.Client{Transport: transport}, quietLogger())
		client.backoff = func(int) time.Duration { return 0 }

		quote, err := client.Latest(context.Background(), FetchOptions{})
		require.NoError(t, err)
		assert.True(t, quote.Success)
		assert.Equal(t, int32(3), atomic.LoadInt32(&transport.calls))
	})

	t.Run("Gives up after the retry budget", func(t *testing.T) {
		transport := &flakyTransport{failures: 5}
		client := NewRateAPIClient(mockServer.URL, "", &http.Client{Transport: transport}, quietLogger())
		client.backoff = func(int) time.Duration { return 0 }

		_, err := client.Latest(context.Background(), FetchOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, int32(3), atomic.LoadInt32(&transport.calls))
	})

	t.Run("Stops backing off when the context ends", func(t *testing.T) {
		transport := &flakyTransport{failures: 5}
		client := NewRateAPIClient(mockServer.URL, "", &http.Client{Transport: transport}, quietLogger())
		client.backoff = func(int) time.Duration { return time.Hour }

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.Latest(ctx, FetchOptions{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int32(1), atomic.LoadInt32(&transport.calls))
	})
}

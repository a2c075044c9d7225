package internal

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/application/service"
	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/api"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/db"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/handler"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/server"
)

func TestPerformance(t *testing.T) {
	// Skip in short mode or CI
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	badgerDB, err := db.OpenBadger("")
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer badgerDB.Close()

	ranges := entity.DefaultCurrencyRanges()
	source, err := service.NewSeededRateSource(ranges, 99)
	if err != nil {
		t.Fatalf("Failed to create rate source: %v", err)
	}

	log := logger.NewJSONLogger(nil, logger.ErrorLevel)
	quoteService := service.NewQuoteService(source, log)
	rates := handler.NewRateHandler(quoteService, db.NewBadgerQuoteJournal(badgerDB, 0), log)

	testServer := httptest.NewServer(server.NewHandler(rates, "perf-key", log))
	defer testServer.Close()

	bounds := make(map[string]entity.CurrencyRange, len(ranges))
	for _, r := range ranges {
		bounds[r.Code] = r
	}

	// Performance test configuration
	numRequests := 200
	concurrency := 10

	t.Run("Latest Quotes", func(t *testing.T) {
		startTime := time.Now()
		var failures int32

		wg := sync.WaitGroup{}
		wg.Add(concurrency)

		perWorker := numRequests / concurrency

		for i := 0; i < concurrency; i++ {
			go func(workerID int) {
				defer wg.Done()

				client := api.NewRateAPIClient(testServer.URL, "perf-key", &http.Client{Timeout: 5 * time.Second}, log)
				ctx := context.Background()

				for j := 0; j < perWorker; j++ {
					quote, err := client.Latest(ctx, api.FetchOptions{})
					if err != nil {
						t.Logf("Error fetching quote: %v", err)
						atomic.AddInt32(&failures, 1)
						continue
					}

					for code, rate := range quote.Rates {
						if !bounds[code].Contains(rate) {
							t.Errorf("worker %d: %s rate %f out of range", workerID, code, rate)
						}
					}
				}
			}(i)
		}

		wg.Wait()
		duration := time.Since(startTime)

		if failures > 0 {
			t.Errorf("%d of %d requests failed", failures, numRequests)
		}

		throughput := float64(numRequests) / duration.Seconds()
		t.Logf("Latest quotes: %d requests in %v (%.2f req/sec)",
			numRequests, duration, throughput)
	})

	t.Run("Historical Quotes", func(t *testing.T) {
		startTime := time.Now()

		wg := sync.WaitGroup{}
		wg.Add(concurrency)

		perWorker := numRequests / concurrency

		for i := 0; i < concurrency; i++ {
			go func(workerID int) {
				defer wg.Done()

				client := api.NewRateAPIClient(testServer.URL, "perf-key", nil, log)
				ctx := context.Background()
				symbols := [][]string{{"USD"}, {"JPY", "GBP"}, nil}

				for j := 0; j < perWorker; j++ {
					date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rand.Intn(365))
					opts := api.FetchOptions{Symbols: symbols[j%len(symbols)]}

					quote, err := client.Historical(ctx, date, opts)
					if err != nil {
						t.Errorf("worker %d: %v", workerID, err)
						continue
					}

					if quote.Date != date.Format(entity.DateLayout) {
						t.Errorf("worker %d: got date %s, want %s", workerID, quote.Date, date.Format(entity.DateLayout))
					}
					if opts.Symbols != nil && len(quote.Rates) != len(opts.Symbols) {
						t.Errorf("worker %d: got %d rates for %v", workerID, len(quote.Rates), opts.Symbols)
					}
				}
			}(i)
		}

		wg.Wait()
		duration := time.Since(startTime)

		throughput := float64(numRequests) / duration.Seconds()
		t.Logf("Historical quotes: %d requests in %v (%.2f req/sec)",
			numRequests, duration, throughput)
	})
}

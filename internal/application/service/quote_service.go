// Package service internal/application/service/quote_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/domain/repository"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/middleware"
)

// LatestPath is the endpoint name for today's rates
const LatestPath = "latest"

// ErrInvalidEndpoint is returned when a path is neither "latest" nor a YYYY-MM-DD date
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// Endpoint is a parsed request path
type Endpoint struct {
	Latest bool
	Date   time.Time
	Raw    string
}

// ParseEndpoint resolves a URL path, ignoring leading and trailing slashes
func ParseEndpoint(path string) (Endpoint, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == LatestPath {
		return Endpoint{Latest: true, Raw: trimmed}, nil
	}

	date, err := time.Parse(entity.DateLayout, trimmed)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, trimmed)
	}

	return Endpoint{Date: date, Raw: trimmed}, nil
}

// ParseSymbols splits a comma-separated symbols parameter; nil means no filter was requested
func ParseSymbols(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.TrimSpace(part); code != "" {
			symbols = append(symbols, code)
		}
	}
	return symbols
}

// QuoteRequest carries the optional query parameters of a quote request
type QuoteRequest struct {
	Base    string
	Symbols []string
}

// QuoteService builds rate quotes from a rate source
type QuoteService struct {
	source repository.RateSource
	logger logger.Logger
	now    func() time.Time
}

// NewQuoteService creates a new quote service
func NewQuoteService(source repository.RateSource, log logger.Logger) *QuoteService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &QuoteService{
		source: source,
		logger: log,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for timestamps and the latest date
func (s *QuoteService) SetClock(now func() time.Time) {
	s.now = now
}

// Currencies lists the codes the underlying source knows about
func (s *QuoteService) Currencies() []string {
	return s.source.Currencies()
}

// Quote builds a quote for the endpoint. The base is a label only, rates are never re-denominated.
func (s *QuoteService) Quote(ctx context.Context, endpoint Endpoint, req QuoteRequest) (*entity.RateQuote, error) {
	requestID := middleware.GetRequestID(ctx)
	now := s.now().UTC()

	date := endpoint.Date
	dateLabel := endpoint.Raw
	if endpoint.Latest {
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dateLabel = date.Format(entity.DateLayout)
	}

	base := strings.TrimSpace(req.Base)
	if base == "" {
		base = entity.DefaultBase
	}

	s.logger.Debug("Building rate quote", map[string]interface{}{
		"request_id": requestID,
		"date":       dateLabel,
		"base":       base,
		"symbols":    req.Symbols,
	})

	rates, err := s.source.Rates(ctx, date)
	if err != nil {
		s.logger.Error("Failed to produce rates", map[string]interface{}{
			"request_id": requestID,
			"date":       dateLabel,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to produce rates: %w", err)
	}

	if req.Symbols != nil {
		rates = filterRates(rates, req.Symbols)
	}

	quote := &entity.RateQuote{
		Success:   true,
		Timestamp: now.Unix(),
		Base:      base,
		Date:      dateLabel,
		Rates:     rates,
	}

	s.logger.Info("Rate quote built", map[string]interface{}{
		"request_id": requestID,
		"date":       quote.Date,
		"base":       quote.Base,
		"currencies": len(quote.Rates),
	})

	return quote, nil
}

// filterRates keeps only the requested codes that exist in rates; the result is never nil
func filterRates(rates map[string]float64, symbols []string) map[string]float64 {
	filtered := make(map[string]float64, len(symbols))
	for _, code := range symbols {
		if rate, ok := rates[code]; ok {
			filtered[code] = rate
		}
	}
	return filtered
}

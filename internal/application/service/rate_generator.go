package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RatePrecision is the number of decimal places generated rates are rounded to
const RatePrecision = 6

// Float64Source yields uniformly distributed values in [0, 1)
type Float64Source interface {
	Float64() float64
}

// RandomRateSource synthesizes rates by drawing an independent uniform value per currency
type RandomRateSource struct {
	ranges []entity.CurrencyRange
	codes  []string
	rng    Float64Source
	mutex  sync.Mutex
}

// NewRandomRateSource creates a rate source drawing from rng within the given ranges
func NewRandomRateSource(ranges []entity.CurrencyRange, rng Float64Source) (*RandomRateSource, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("at least one currency range is required")
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}

	seen := make(map[string]struct{}, len(ranges))
	codes := make([]string, 0, len(ranges))
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid currency range: %w", err)
		}
		if _, dup := seen[r.Code]; dup {
			return nil, fmt.Errorf("invalid currency range: duplicate currency %s", r.Code)
		}
		seen[r.Code] = struct{}{}
		codes = append(codes, r.Code)
	}
	sort.Strings(codes)

	return &RandomRateSource{
		ranges: append([]entity.CurrencyRange(nil), ranges...),
		codes:  codes,
		rng:    rng,
	}, nil
}

// NewSeededRateSource creates a deterministic rate source, two sources with the same seed yield the same sequence
func NewSeededRateSource(ranges []entity.CurrencyRange, seed uint64) (*RandomRateSource, error) {
	return NewRandomRateSource(ranges, rand.New(rand.NewPCG(seed, seed)))
}

// Rates draws a fresh rate for every configured currency; the date does not influence the draw
func (s *RandomRateSource) Rates(ctx context.Context, date time.Time) (map[string]float64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rates := make(map[string]float64, len(s.ranges))
	for _, r := range s.ranges {
		rates[r.Code] = sample(r, s.rng.Float64())
	}

	return rates, nil
}

// Currencies returns the sorted currency codes this source produces
func (s *RandomRateSource) Currencies() []string {
	return append([]string(nil), s.codes...)
}

// sample maps u in [0, 1) onto the range and rounds the result to RatePrecision places
func sample(r entity.CurrencyRange, u float64) float64 {
	lo := decimal.NewFromFloat(r.Min)
	hi := decimal.NewFromFloat(r.Max)

	value := lo.Add(hi.Sub(lo).Mul(decimal.NewFromFloat(u))).Round(RatePrecision)

	// Rounding may step outside bounds that carry more than RatePrecision places
	if value.GreaterThan(hi) {
		value = hi.RoundFloor(RatePrecision)
	}
	if value.LessThan(lo) {
		value = lo.RoundCeil(RatePrecision)
	}

	return value.InexactFloat64()
}

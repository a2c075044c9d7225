// Package repository internal/domain/repository/rate_source.go
package repository

import (
	"context"
	"time"
)

// RateSource defines the interface for producers of exchange rates
type RateSource interface {
	// Rates returns a fresh currency code to rate mapping for the given date
	Rates(ctx context.Context, date time.Time) (map[string]float64, error)

	// Currencies lists every code the source can produce, sorted
	Currencies() []string
}

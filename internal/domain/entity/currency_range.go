package entity

import (
	"errors"
	"fmt"
)

// CurrencyRange is the inclusive interval a randomized rate for Code is drawn from
type CurrencyRange struct {
	Code string  `json:"code" mapstructure:"code"`
	Min  float64 `json:"min" mapstructure:"min"`
	Max  float64 `json:"max" mapstructure:"max"`
}

// Validate ensures the range can be sampled
func (c CurrencyRange) Validate() error {
	if c.Code == "" {
		return errors.New("currency code must not be empty")
	}

	if c.Min > c.Max {
		return fmt.Errorf("currency %s: min %f is greater than max %f", c.Code, c.Min, c.Max)
	}

	return nil
}

// Contains reports whether rate lies within the range
func (c CurrencyRange) Contains(rate float64) bool {
	return rate >= c.Min && rate <= c.Max
}

// DefaultCurrencyRanges returns the EUR-relative ranges served in random mode
func DefaultCurrencyRanges() []CurrencyRange {
	return []CurrencyRange{
		{Code: "USD", Min: 1.1, Max: 1.3},
		{Code: "GBP", Min: 0.8, Max: 0.9},
		{Code: "JPY", Min: 125, Max: 135},
		{Code: "CHF", Min: 0.9, Max: 1.0},
		{Code: "AUD", Min: 1.5, Max: 1.7},
		{Code: "CAD", Min: 1.4, Max: 1.5},
		{Code: "CNY", Min: 7.5, Max: 8.0},
		{Code: "SEK", Min: 10.5, Max: 11.5},
		{Code: "NZD", Min: 1.7, Max: 1.8},
		{Code: "MXN", Min: 18, Max: 20},
	}
}

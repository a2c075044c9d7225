// Package fixture loads static exchange rates from a file once at startup.
// The loaded source is never mutated afterwards, so it is safe for concurrent reads.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a fixture file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrNoRates is returned when a fixture parses but contains no rates
var ErrNoRates = errors.New("fixture contains no rates")

// document is the full quote shape a fixture may be saved in
type document struct {
	Rates map[string]float64 `json:"rates" yaml:"rates"`
}

// RateSource serves the rates of a loaded fixture
type RateSource struct {
	path  string
	rates map[string]float64
	codes []string
}

// FormatForPath picks the fixture format from the file extension, defaulting to JSON
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses the fixture at path
func Load(path string) (*RateSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	source, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture %s: %w", path, err)
	}
	source.path = path

	return source, nil
}

// Parse decodes either a full quote document or a bare code to rate object
func Parse(data []byte, format Format) (*RateSource, error) {
	var (
		doc  document
		bare map[string]float64
		err  error
	)

	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	if err = unmarshal(data, &doc); err == nil && doc.Rates != nil {
		return newRateSource(doc.Rates)
	}

	if bareErr := unmarshal(data, &bare); bareErr != nil {
		if err == nil {
			err = bareErr
		}
		return nil, fmt.Errorf("failed to decode %s fixture: %w", format, err)
	}

	return newRateSource(bare)
}

func newRateSource(rates map[string]float64) (*RateSource, error) {
	if len(rates) == 0 {
		return nil, ErrNoRates
	}

	copied := make(map[string]float64, len(rates))
	codes := make([]string, 0, len(rates))
	for code, rate := range rates {
		copied[code] = rate
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return &RateSource{rates: copied, codes: codes}, nil
}

// Path returns the file the fixture was loaded from, empty for parsed data
func (s *RateSource) Path() string {
	return s.path
}

// Rates returns a copy of the fixture rates; the date is ignored
func (s *RateSource) Rates(ctx context.Context, date time.Time) (map[string]float64, error) {
	rates := make(map[string]float64, len(s.rates))
	for code, rate := range s.rates {
		rates[code] = rate
	}
	return rates, nil
}

// Currencies returns the sorted fixture currency codes
func (s *RateSource) Currencies() []string {
	return append([]string(nil), s.codes...)
}

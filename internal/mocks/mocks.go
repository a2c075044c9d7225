// internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockRateSource mocks the RateSource interface
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) Rates(ctx context.Context, date time.Time) (map[string]float64, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockRateSource) Currencies() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// MockQuoteJournal mocks the QuoteJournal interface
type MockQuoteJournal struct {
	mock.Mock
}

func (m *MockQuoteJournal) Record(ctx context.Context, entry *entity.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQuoteJournal) FindByRequestID(ctx context.Context, requestID string) (*entity.JournalEntry, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.JournalEntry), args.Error(1)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	return m.WithFields(map[string]interface{}{key: value})
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return m
}

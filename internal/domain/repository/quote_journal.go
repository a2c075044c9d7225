package repository

import (
	"context"
	"errors"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
)

// QuoteJournal defines the interface for recording served quotes
type QuoteJournal interface {
	// Record saves an entry under its request ID
	Record(ctx context.Context, entry *entity.JournalEntry) error

	// FindByRequestID retrieves the entry recorded for a request
	FindByRequestID(ctx context.Context, requestID string) (*entity.JournalEntry, error)
}

// ErrJournalEntryNotFound is returned when no entry exists for a request ID
var ErrJournalEntryNotFound = errors.New("journal entry not found")

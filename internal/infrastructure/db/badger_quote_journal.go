package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
)

// ErrEntryNotFound is returned when no quote was recorded for a request ID
var ErrEntryNotFound = repository.ErrJournalEntryNotFound

const journalKeyPrefix = "quote:"

// OpenBadger opens the journal database, in memory when path is empty
func OpenBadger(path string) (*badger.DB, error) {
	var badgerOpts badger.Options
	if path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		badgerOpts = badger.DefaultOptions(path)
	}
	badgerOpts.Logger = nil // Disable Badger's default logger

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	return db, nil
}

// BadgerQuoteJournal implements the quote journal interface using BadgerDB
type BadgerQuoteJournal struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerQuoteJournal creates a new BadgerDB quote journal; a zero ttl keeps entries forever
func NewBadgerQuoteJournal(db *badger.DB, ttl time.Duration) *BadgerQuoteJournal {
	return &BadgerQuoteJournal{db: db, ttl: ttl}
}

// Record saves an entry under its request ID
func (j *BadgerQuoteJournal) Record(ctx context.Context, entry *entity.JournalEntry) error {
	if entry.RequestID == "" {
		return errors.New("journal entry requires a request ID")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(journalKeyPrefix+entry.RequestID), data)
		if j.ttl > 0 {
			e = e.WithTTL(j.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to store journal entry: %w", err)
	}

	return nil
}

// FindByRequestID retrieves the entry recorded for a request
func (j *BadgerQuoteJournal) FindByRequestID(ctx context.Context, requestID string) (*entity.JournalEntry, error) {
	var entry entity.JournalEntry

	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(journalKeyPrefix + requestID))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, requestID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve journal entry: %w", err)
	}

	return &entry, nil
}

package entity

import (
	"time"
)

// JournalEntry records a quote that was served to a client
type JournalEntry struct {
	RequestID string     `json:"request_id"`
	Path      string     `json:"path"`
	Query     string     `json:"query"`
	Status    int        `json:"status"`
	ServedAt  time.Time  `json:"served_at"`
	Quote     *RateQuote `json:"quote,omitempty"`
}

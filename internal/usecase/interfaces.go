package usecase

import (
	"context"
	"time"

	"github.com/iho/payreplay/internal/domain"
)

// LedgerSource provides read access to an ordered transaction log.
type LedgerSource interface {
	// Open returns a fresh cursor positioned before the first record.
	// Every call starts over from the beginning; replays depend on that
	// to re-scan the log prefix during backward lookups.
	Open(ctx context.Context) (Cursor, error)
}

// Cursor iterates a ledger in chronological order.
type Cursor interface {
	// Next returns the next record, or io.EOF once the log is exhausted.
	// Any other error means the record could not be read or parsed and is
	// fatal for the run.
	Next(ctx context.Context) (domain.Record, error)
	Close() error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

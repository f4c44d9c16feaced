package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/payreplay/internal/domain"
	"github.com/iho/payreplay/internal/usecase"
)

// Loader bulk-inserts a parsed transaction log into ledger_records.
type Loader struct {
	pool    *pgxpool.Pool
	retrier *Retrier
	logger  zerolog.Logger
}

// NewLoader creates a ledger loader.
func NewLoader(pool *pgxpool.Pool, retrier *Retrier, logger zerolog.Logger) *Loader {
	return &Loader{pool: pool, retrier: retrier, logger: logger}
}

// Truncate clears the stored log and resets positions.
func (l *Loader) Truncate(ctx context.Context) error {
	err := l.retrier.Retry(ctx, func() error {
		_, err := l.pool.Exec(ctx, `TRUNCATE ledger_records RESTART IDENTITY`)
		return err
	})
	if err != nil {
		return fmt.Errorf("truncating ledger records: %w", err)
	}

	return nil
}

// Load streams every record from the source into the table via COPY. The
// serial position column assigns insertion order, preserving the log order.
// A failed copy is not retried; it may have landed partially.
func (l *Loader) Load(ctx context.Context, source usecase.LedgerSource) (int64, error) {
	cursor, err := source.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("opening ledger source: %w", err)
	}
	defer func() { _ = cursor.Close() }()

	copied, err := l.pool.CopyFrom(ctx,
		pgx.Identifier{"ledger_records"},
		[]string{"kind", "client_id", "tx_id", "amount"},
		&copySource{ctx: ctx, cursor: cursor},
	)
	if err != nil {
		return 0, fmt.Errorf("copying ledger records: %w", err)
	}

	l.logger.Info().Int64("records", copied).Msg("ledger loaded")

	return copied, nil
}

// copySource adapts a ledger cursor to pgx.CopyFromSource.
type copySource struct {
	ctx    context.Context
	cursor usecase.Cursor
	record domain.Record
	err    error
}

func (s *copySource) Next() bool {
	record, err := s.cursor.Next(s.ctx)
	if errors.Is(err, io.EOF) {
		return false
	}
	if err != nil {
		s.err = err
		return false
	}

	s.record = record

	return true
}

func (s *copySource) Values() ([]any, error) {
	amount := pgtype.Numeric{}
	if s.record.Amount.Valid {
		amount = toNumeric(s.record.Amount.Decimal)
	}

	return []any{
		string(s.record.Kind),
		int32(s.record.Client),
		int64(s.record.Tx),
		amount,
	}, nil
}

func (s *copySource) Err() error {
	return s.err
}

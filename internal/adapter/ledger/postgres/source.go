// Package postgres serves a transaction log from the ledger_records table.
//
// Records are read in position order, so a loaded log replays exactly like
// its CSV origin. Each Open issues a fresh query, which keeps the
// restartable-cursor contract: backward lookups get their own result set
// while the main scan stays put.
package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/payreplay/internal/domain"
	"github.com/iho/payreplay/internal/usecase"
)

const selectRecords = `
	SELECT kind, client_id, tx_id, amount
	FROM ledger_records
	ORDER BY position
`

// Source reads the ledger from PostgreSQL.
type Source struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewSource creates a postgres-backed ledger source.
func NewSource(pool *pgxpool.Pool, retrier *Retrier) *Source {
	return &Source{pool: pool, retrier: retrier}
}

// Open starts a new scan over the stored log. Concurrent cursors each hold
// their own pooled connection, so the pool must allow at least two.
func (s *Source) Open(ctx context.Context) (usecase.Cursor, error) {
	var rows pgx.Rows

	err := s.retrier.Retry(ctx, func() error {
		var err error
		rows, err = s.pool.Query(ctx, selectRecords)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("querying ledger records: %w", err)
	}

	return &cursor{rows: rows}, nil
}

type cursor struct {
	rows pgx.Rows
}

func (c *cursor) Next(ctx context.Context) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}

	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return domain.Record{}, fmt.Errorf("reading ledger row: %w", err)
		}

		return domain.Record{}, io.EOF
	}

	var (
		kind   string
		client int32
		tx     int64
		amount pgtype.Numeric
	)

	if err := c.rows.Scan(&kind, &client, &tx, &amount); err != nil {
		return domain.Record{}, fmt.Errorf("scanning ledger row: %w", err)
	}

	record := domain.Record{
		Kind:   domain.RecordKind(kind),
		Client: domain.ClientID(client),
		Tx:     domain.TxID(tx),
	}

	if !record.Kind.Valid() {
		return domain.Record{}, fmt.Errorf("%w: stored kind %q", domain.ErrMalformedRecord, kind)
	}

	if amount.Valid {
		value, err := toDecimal(amount)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%w: stored amount: %v", domain.ErrMalformedRecord, err)
		}

		record.Amount = decimal.NullDecimal{Decimal: value, Valid: true}
	}

	return record, nil
}

func (c *cursor) Close() error {
	c.rows.Close()
	return nil
}

func toDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.Int == nil {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(n.Int.String())
	if err != nil {
		return decimal.Zero, err
	}

	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d, nil
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

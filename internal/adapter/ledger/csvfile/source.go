// Package csvfile reads a transaction log from a CSV file.
//
// The source keeps one open file descriptor and hands out independent
// cursors over it, each reading from the top. Cursors never share position,
// so a replay can run backward lookups while the main scan is mid-file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/payreplay/internal/domain"
	"github.com/iho/payreplay/internal/usecase"
)

// Source is a file-backed ledger source.
type Source struct {
	file *os.File
	size int64
}

// New opens the transaction log at path. The file stays open until Close.
func New(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat ledger file: %w", err)
	}

	return &Source{file: file, size: info.Size()}, nil
}

// Open returns a cursor reading from the first record. The cursor wraps a
// section reader over the shared descriptor, so concurrent cursors do not
// disturb each other.
func (s *Source) Open(ctx context.Context) (usecase.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(io.NewSectionReader(s.file, 0, s.size))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// An empty file is an empty ledger, not an error.
		return &cursor{reader: reader}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", domain.ErrMalformedRecord, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	return &cursor{reader: reader, columns: columns}, nil
}

func (s *Source) Close() error {
	return s.file.Close()
}

type cursor struct {
	reader  *csv.Reader
	columns map[string]int
	row     int
}

func (c *cursor) Next(ctx context.Context) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}

	row, err := c.reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.Record{}, io.EOF
	}

	c.row++

	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: row %d: %v", domain.ErrMalformedRecord, c.row, err)
	}

	return c.parse(row)
}

func (c *cursor) Close() error {
	// The cursor borrows the source's descriptor; nothing to release.
	return nil
}

// parse turns one data row into a Record. Required columns are resolved by
// header name, so column order in the file does not matter. Any field that
// fails to parse makes the whole run fail.
func (c *cursor) parse(row []string) (domain.Record, error) {
	kindField, ok := c.field(row, "type")
	if !ok || kindField == "" {
		return domain.Record{}, c.malformed("missing type")
	}

	kind := domain.RecordKind(kindField)
	if !kind.Valid() {
		return domain.Record{}, c.malformed("unknown type %q", kindField)
	}

	clientField, ok := c.field(row, "client")
	if !ok || clientField == "" {
		return domain.Record{}, c.malformed("missing client")
	}

	client, err := strconv.ParseUint(clientField, 10, 16)
	if err != nil {
		return domain.Record{}, c.malformed("client %q: %v", clientField, err)
	}

	txField, ok := c.field(row, "tx")
	if !ok || txField == "" {
		return domain.Record{}, c.malformed("missing tx")
	}

	tx, err := strconv.ParseUint(txField, 10, 32)
	if err != nil {
		return domain.Record{}, c.malformed("tx %q: %v", txField, err)
	}

	var amount decimal.NullDecimal
	if amountField, ok := c.field(row, "amount"); ok && amountField != "" {
		value, err := decimal.NewFromString(amountField)
		if err != nil {
			return domain.Record{}, c.malformed("amount %q: %v", amountField, err)
		}

		amount = decimal.NullDecimal{Decimal: value, Valid: true}
	}

	// Deposits and withdrawals are meaningless without an amount. The
	// dispute family parses the column when present but carries none, so a
	// lookup that lands on one of its rows finds no amount to hold.
	if kind.RequiresLookup() {
		amount = decimal.NullDecimal{}
	} else if !amount.Valid {
		return domain.Record{}, c.malformed("%s without amount", kind)
	}

	return domain.Record{
		Kind:   kind,
		Client: domain.ClientID(client),
		Tx:     domain.TxID(tx),
		Amount: amount,
	}, nil
}

// field returns the trimmed value of the named column, when the header
// declared it and the row is long enough.
func (c *cursor) field(row []string, name string) (string, bool) {
	idx, ok := c.columns[name]
	if !ok || idx >= len(row) {
		return "", false
	}

	return strings.TrimSpace(row[idx]), true
}

func (c *cursor) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: row %d: %s", domain.ErrMalformedRecord, c.row, fmt.Sprintf(format, args...))
}

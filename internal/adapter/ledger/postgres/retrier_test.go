package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestRetrier_PermanentErrorNotRetried(t *testing.T) {
	retrier := NewRetrier(zerolog.Nop())

	permanent := errors.New("syntax error")
	attempts := 0

	err := retrier.Retry(context.Background(), func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("expected %v, got %v", permanent, err)
	}

	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrier_RetryableErrorRetried(t *testing.T) {
	retrier := NewRetrier(zerolog.Nop())

	attempts := 0

	err := retrier.Retry(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrier_GivesUpAfterMaxRetries(t *testing.T) {
	retrier := NewRetrier(zerolog.Nop())

	attempts := 0

	err := retrier.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	if attempts != retrier.maxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", retrier.maxRetries+1, attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, expected: true},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, expected: true},
		{name: "connection exception", err: &pgconn.PgError{Code: "08000"}, expected: true},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, expected: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.expected {
				t.Errorf("isRetryableError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/iho/payreplay/internal/domain"
	"github.com/iho/payreplay/internal/infrastructure/metrics"
)

// ReplayOptions control replay policy.
type ReplayOptions struct {
	// DisputeOverdraw holds the full disputed amount even when the account
	// lacks the available funds, letting available go negative. When false a
	// dispute against insufficient funds is ignored.
	DisputeOverdraw bool
}

// ReplayUseCase replays a transaction log against a fresh set of accounts
// and produces the final balance snapshot. The engine keeps no state between
// runs; a single value can replay any number of sources.
type ReplayUseCase struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
	opts    ReplayOptions
}

func NewReplayUseCase(logger zerolog.Logger, metrics *metrics.Metrics, opts ReplayOptions) *ReplayUseCase {
	return &ReplayUseCase{
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// ReplayResult is the outcome of one replay run.
type ReplayResult struct {
	RunID    string
	Accounts []domain.AccountSnapshot
	Records  int
}

// Replay reads the source once in order and applies every record. Accounts
// are created lazily on first reference. Dispute-family records trigger a
// backward lookup over the log prefix strictly before the current record.
// Business failures are absorbed; parse failures and bookkeeping
// inconsistencies abort the run.
func (uc *ReplayUseCase) Replay(ctx context.Context, source LedgerSource) (*ReplayResult, error) {
	start := time.Now()
	runID := ulid.Make().String()
	logger := uc.logger.With().Str("run_id", runID).Logger()

	logger.Info().Msg("replay started")

	cursor, err := source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening ledger source: %w", err)
	}
	defer func() { _ = cursor.Close() }()

	accounts := make(map[domain.ClientID]*domain.Account)

	index := 0
	for {
		record, err := cursor.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record at index %d: %w", index, err)
		}

		account, ok := accounts[record.Client]
		if !ok {
			account = domain.NewAccount(record.Client)
			accounts[record.Client] = account
		}

		if err := uc.apply(ctx, logger, source, account, record, index); err != nil {
			return nil, err
		}

		if uc.metrics != nil {
			uc.metrics.RecordsProcessed.WithLabelValues(string(record.Kind)).Inc()
		}

		index++
	}

	snapshots := make([]domain.AccountSnapshot, 0, len(accounts))
	for _, account := range accounts {
		snapshots = append(snapshots, account.Snapshot())
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Client < snapshots[j].Client
	})

	if uc.metrics != nil {
		uc.metrics.ReplaysCompleted.Inc()
		uc.metrics.ReplayDuration.Observe(time.Since(start).Seconds())
	}

	logger.Info().
		Int("records", index).
		Int("accounts", len(snapshots)).
		Dur("elapsed", time.Since(start)).
		Msg("replay finished")

	return &ReplayResult{
		RunID:    runID,
		Accounts: snapshots,
		Records:  index,
	}, nil
}

// apply dispatches one record at the given chronological index.
func (uc *ReplayUseCase) apply(ctx context.Context, logger zerolog.Logger, source LedgerSource, account *domain.Account, record domain.Record, index int) error {
	switch record.Kind {
	case domain.RecordDeposit:
		return uc.applyDeposit(logger, account, record)
	case domain.RecordWithdrawal:
		return uc.applyWithdrawal(logger, account, record)
	case domain.RecordDispute, domain.RecordResolve, domain.RecordChargeback:
		original, err := uc.lookupOriginal(ctx, source, record, index)
		if err != nil {
			return err
		}

		switch record.Kind {
		case domain.RecordDispute:
			uc.applyDispute(logger, account, record, original)
			return nil
		case domain.RecordResolve:
			return uc.applyResolve(logger, account, record, original)
		default:
			return uc.applyChargeback(logger, account, record, original)
		}
	default:
		return fmt.Errorf("record tx %d: unknown kind %q: %w", record.Tx, record.Kind, domain.ErrMalformedRecord)
	}
}

// lookupOriginal scans the log prefix strictly before index for the record
// the dispute family references. The first record matching both tx and
// client wins; a reference to another client's transaction finds nothing.
// Nil with no error means not found. An EOF before the prefix is exhausted
// is tolerated so a source that shrank between cursors reads as not found.
func (uc *ReplayUseCase) lookupOriginal(ctx context.Context, source LedgerSource, ref domain.Record, index int) (*domain.Record, error) {
	cursor, err := source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening lookup cursor: %w", err)
	}
	defer func() { _ = cursor.Close() }()

	depth := 0
	for depth < index {
		record, err := cursor.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning for tx %d: %w", ref.Tx, err)
		}

		depth++

		if record.Tx == ref.Tx && record.Client == ref.Client {
			uc.observeLookupDepth(depth)
			return &record, nil
		}
	}

	uc.observeLookupDepth(depth)

	return nil, nil
}

func (uc *ReplayUseCase) observeLookupDepth(depth int) {
	if uc.metrics != nil {
		uc.metrics.LookupDepth.Observe(float64(depth))
	}
}

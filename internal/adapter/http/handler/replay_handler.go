package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/payreplay/internal/adapter/http/dto"
	"github.com/iho/payreplay/internal/adapter/ledger/csvfile"
	"github.com/iho/payreplay/internal/adapter/snapshot"
	"github.com/iho/payreplay/internal/usecase"
)

// ReplayService runs a transaction log against fresh accounts.
type ReplayService interface {
	Replay(ctx context.Context, source usecase.LedgerSource) (*usecase.ReplayResult, error)
}

// ReplayHandler accepts transaction logs over HTTP and replays them.
type ReplayHandler struct {
	service  ReplayService
	logger   zerolog.Logger
	maxBytes int64
}

// NewReplayHandler creates a new ReplayHandler. maxBytes bounds the
// accepted request body size.
func NewReplayHandler(service ReplayService, logger zerolog.Logger, maxBytes int64) *ReplayHandler {
	return &ReplayHandler{
		service:  service,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// Replay handles POST /api/v1/replay. The body is a transaction log CSV.
// The response is the settled snapshot, as CSV by default or as JSON when
// the request asks for it.
//
// The body is spooled to a temp file first: dispute lookups re-read the
// log from the top, and a network stream cannot be rewound.
func (h *ReplayHandler) Replay(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	defer body.Close()

	tmp, err := os.CreateTemp("", "payreplay-*.csv")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to spool transaction log", err.Error())
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "transaction log too large", err.Error())
			return
		}

		writeError(w, http.StatusBadRequest, "failed to read transaction log", err.Error())
		return
	}

	source, err := csvfile.New(tmp.Name())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open spooled log", err.Error())
		return
	}
	defer source.Close()

	result, err := h.service.Replay(r.Context(), source)
	if err != nil {
		writeError(w, mapReplayError(err), "replay failed", err.Error())
		return
	}

	w.Header().Set("X-Replay-Run", result.RunID)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.ReplayResponse{
			RunID:    result.RunID,
			Records:  result.Records,
			Accounts: dto.ReplayAccountsFromDomain(result.Accounts),
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if err := snapshot.Write(w, result.Accounts); err != nil {
		h.logger.Error().Err(err).Str("run_id", result.RunID).Msg("failed to stream snapshot")
	}
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}

	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

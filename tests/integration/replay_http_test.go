package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/iho/payreplay/internal/adapter/http"
	"github.com/iho/payreplay/internal/adapter/http/dto"
	"github.com/iho/payreplay/internal/adapter/http/handler"
	redisrepo "github.com/iho/payreplay/internal/adapter/repository/redis"
	"github.com/iho/payreplay/internal/usecase"
)

const serveLog = `type,client,tx,amount
deposit,1,1,2.0
deposit,1,2,1.0
dispute,1,1,
`

const serveSnapshot = "client,available,held,total,locked\n1,1,2,3,false\n"

// newServeStack assembles the serve-mode router exactly like the serve
// command does: real engine, real parser, Redis-backed idempotency.
func newServeStack(t *testing.T) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	uc := usecase.NewReplayUseCase(zerolog.Nop(), nil, usecase.ReplayOptions{})

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		ReplayHandler:    handler.NewReplayHandler(uc, zerolog.Nop(), 1<<20),
		HealthHandler:    handler.NewHealthHandler(client),
		Logger:           zerolog.Nop(),
		IdempotencyStore: redisrepo.NewIdempotencyStore(client),
		IdempotencyTTL:   time.Minute,
	})

	return router, mr
}

func postReplay(t *testing.T, router http.Handler, target, body, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestServeReplayEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	router, _ := newServeStack(t)

	rec := postReplay(t, router, "/api/v1/replay", serveLog, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Replay-Run"))
	assert.Equal(t, serveSnapshot, rec.Body.String())
}

func TestServeReplayJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	router, _ := newServeStack(t)

	rec := postReplay(t, router, "/api/v1/replay?format=json", serveLog, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ReplayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, rec.Header().Get("X-Replay-Run"), resp.RunID)
	assert.Equal(t, 3, resp.Records)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, uint16(1), resp.Accounts[0].Client)
	assert.Equal(t, "1", resp.Accounts[0].Available)
	assert.Equal(t, "2", resp.Accounts[0].Held)
}

func TestServeReplayIdempotency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	router, _ := newServeStack(t)

	first := postReplay(t, router, "/api/v1/replay", serveLog, "run-once")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	require.NotEmpty(t, first.Header().Get("X-Replay-Run"))

	second := postReplay(t, router, "/api/v1/replay", serveLog, "run-once")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
	assert.Equal(t, first.Header().Get("X-Replay-Run"), second.Header().Get("X-Replay-Run"),
		"a replayed response must carry the original run id")
	assert.Equal(t, first.Body.String(), second.Body.String())

	fresh := postReplay(t, router, "/api/v1/replay", serveLog, "another-key")
	require.Equal(t, http.StatusOK, fresh.Code)
	assert.Empty(t, fresh.Header().Get("X-Idempotency-Replay"))
	assert.NotEqual(t, first.Header().Get("X-Replay-Run"), fresh.Header().Get("X-Replay-Run"),
		"a different key must trigger a fresh run")
}

func TestServeReplayMalformedLog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	router, _ := newServeStack(t)

	rec := postReplay(t, router, "/api/v1/replay", "type,client,tx,amount\nteleport,1,1,1.0\n", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "replay failed", resp.Error)
	assert.Contains(t, resp.Message, "malformed")
}

func TestServeReadiness(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	router, mr := newServeStack(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	mr.Close()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "readiness must fail once redis is gone")
}

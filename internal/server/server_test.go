package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koraei/bank/internal/config"
	"github.com/koraei/bank/internal/logging"
)

func TestNewServesPingAndShutsDown(t *testing.T) {
	cfg := config.Config{
		AppName:            "test",
		AppEnv:             "test",
		Port:               "0",
		WorkerPoolSize:     1,
		WorkerQueueSize:    8,
		OperationHistory:   8,
		TransactionLogPath: filepath.Join(t.TempDir(), "transactions.log"),
	}
	srv, err := New(cfg, nil, nil, logging.Discard())
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/bank/operations/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/juris/pkg/cmd"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_App(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	engine, err := cmd.NewEngine(t.Context(), logger, "juris-api-test", cmd.EngineConfig{
		DatabaseURL:           "file://" + t.TempDir(),
		EventBus:              "gochannel",
		LogLevel:              "info",
		MaxSteps:              100,
		NotificationQueueSize: 16,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = engine.Close(context.Background()) })

	app := NewAPI(logger, engine).App()

	for _, path := range []string{"/", healthcheck.DefaultLivenessEndpoint, healthcheck.DefaultReadinessEndpoint, "/health", "/workflows"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err, path)

		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", path, body)
	}
}

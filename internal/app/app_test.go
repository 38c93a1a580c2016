package app_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"marketdata/internal/aggregate"
	"marketdata/internal/app"
	"marketdata/internal/config"
	"marketdata/internal/provider"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestAdapters(t *testing.T) {
	t.Parallel()

	got, err := app.Adapters([]provider.Descriptor{{Tag: provider.Polygon}, {Tag: provider.AlphaVantage}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, provider.Polygon, got[0].Descriptor().Tag)

	_, err = app.Adapters([]provider.Descriptor{{Tag: "yahoo"}})
	require.Error(t, err)
}

func TestBuild_WithoutTokensServesUnavailable(t *testing.T) {
	t.Parallel()

	// Arrange
	cfg := loadConfig(t, "providers:\n  finnhub:\n    priority: 0\n  alpha_vantage:\n    priority: 1\n")

	// Act
	a, err := app.Build(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	_, qerr := a.Aggregator.GetQuote(t.Context(), "AAPL")

	// Assert
	require.Equal(t, []provider.Tag{provider.Finnhub, provider.AlphaVantage, provider.Polygon}, a.Aggregator.Providers())
	require.ErrorIs(t, qerr, aggregate.ErrUnavailable)
	require.NotNil(t, a.Poller)
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	// Arrange
	a, err := app.Build(t.Context(), loadConfig(t, "server:\n  port: \"9090\"\n"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	srv := a.Server()

	// Act
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/AAPL", nil))

	// Assert
	require.Equal(t, ":9090", srv.Addr)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

package aggregate

import (
	"context"
	"time"

	"marketdata/internal/httpx"
)

// Fetcher performs one upstream GET attempt.
//
//go:generate mockgen -package=aggregate_test -destination=mock_fetcher_test.go -source=fetcher.go Fetcher
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (httpx.Response, error)
}

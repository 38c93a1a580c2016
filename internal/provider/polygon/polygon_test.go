package polygon_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"marketdata/internal/provider"
	"marketdata/internal/provider/polygon"
)

func newAdapter() *polygon.Adapter {
	return polygon.New(provider.Descriptor{Limit: 5, Window: time.Minute, Token: "pk"})
}

func TestQuoteURL(t *testing.T) {
	t.Parallel()

	raw, err := newAdapter().QuoteURL("AAPL")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "api.polygon.io", u.Host)
	require.Equal(t, "/v2/aggs/ticker/AAPL/prev", u.Path)
	require.Equal(t, "pk", u.Query().Get("apiKey"))
}

func TestParseQuote_PrevAggregate(t *testing.T) {
	t.Parallel()

	// Arrange
	body := `{"ticker":"AAPL","queryCount":1,"resultsCount":1,"adjusted":true,
	  "results":[{"T":"AAPL","v":52000000,"vw":229.8,"o":200,"c":210,"h":212,"l":199,"t":1741636800000,"n":500000}],
	  "status":"OK","request_id":"abc"}`

	// Act
	q, err := newAdapter().ParseQuote("AAPL", http.StatusOK, []byte(body))

	// Assert
	require.NoError(t, err)
	require.Equal(t, 210.0, q.Price)
	require.Equal(t, 10.0, q.Change)
	require.Equal(t, 5.0, q.ChangePercent)
	require.EqualValues(t, 52_000_000, q.Volume)
	require.Equal(t, 200.0, *q.Open)
	require.Equal(t, 212.0, *q.High)
	require.Equal(t, 199.0, *q.Low)
	require.Nil(t, q.PreviousClose, "the aggregate carries no previous close")
	require.Equal(t, provider.Polygon, q.Source)
	require.Equal(t, time.UnixMilli(1741636800000).UTC(), q.Timestamp)
}

func TestParseQuote_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   provider.FailureKind
	}{
		{name: "no results", status: 200, body: `{"ticker":"NOPE","resultsCount":0,"status":"OK"}`, want: provider.SymbolUnknown},
		{name: "429", status: 429, body: `{"status":"ERROR","error":"You've exceeded the maximum requests per minute"}`, want: provider.UpstreamRateLimited},
		{name: "error status with limit", status: 200, body: `{"status":"ERROR","error":"You've exceeded the maximum requests per minute"}`, want: provider.UpstreamRateLimited},
		{name: "error status other", status: 200, body: `{"status":"ERROR","error":"internal"}`, want: provider.Transient},
		{name: "401", status: 401, body: `{"status":"ERROR","error":"Unknown API Key"}`, want: provider.Transient},
		{name: "garbage", status: 200, body: `]`, want: provider.MalformedResponse},
		{name: "missing close", status: 200, body: `{"resultsCount":1,"results":[{"o":1}],"status":"OK"}`, want: provider.MalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := newAdapter().ParseQuote("AAPL", tc.status, []byte(tc.body))

			require.Error(t, err)
			require.Equal(t, tc.want, provider.KindOf(err))
		})
	}
}

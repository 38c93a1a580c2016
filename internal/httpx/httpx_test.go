package httpx_test

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"marketdata/internal/httpx"
)

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestFetch_ReturnsBodyOn200(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request carries method, url and headers
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "https://example.test/quote?symbol=AAPL", req.URL.String())
			require.Equal(t, "marketdata/1.0", req.Header.Get("User-Agent"))
			require.Equal(t, "abc", req.Header.Get("X-Token"))
			_, ok := req.Context().Deadline()
			require.True(t, ok, "attempt context should carry a deadline")
			return okResponse(`{"c":1}`), nil
		}).
		Times(1)

	f := httpx.NewFetcher(
		httpx.WithHTTPClient(httpClient),
		httpx.WithHeader(http.Header{"X-Token": []string{"abc"}}),
	)

	// Act
	resp, err := f.Fetch(t.Context(), "https://example.test/quote?symbol=AAPL", time.Second)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.JSONEq(t, `{"c":1}`, string(resp.Body))
}

func TestFetch_NonOKStatusCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader(`{"error":"API limit reached"}`)),
		}, nil)

	f := httpx.NewFetcher(httpx.WithHTTPClient(httpClient))

	_, err := f.Fetch(t.Context(), "https://example.test", time.Second)

	var he *httpx.Error
	require.ErrorAs(t, err, &he)
	require.Equal(t, httpx.NonOKStatus, he.Kind)
	require.Equal(t, http.StatusTooManyRequests, he.Status)
	require.Contains(t, string(he.Body), "limit")
}

func TestFetch_ClassifiesTransportErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want httpx.Kind
	}{
		{name: "refused", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: httpx.ConnectionError},
		{name: "deadline", err: context.DeadlineExceeded, want: httpx.Timeout},
		{name: "tls", err: &url.Error{Op: "Get", URL: "https://example.test", Err: x509.UnknownAuthorityError{}}, want: httpx.TLSFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).Return(nil, tc.err)

			f := httpx.NewFetcher(httpx.WithHTTPClient(httpClient))
			_, err := f.Fetch(t.Context(), "https://example.test", time.Second)

			var he *httpx.Error
			require.ErrorAs(t, err, &he)
			require.Equal(t, tc.want, he.Kind)
		})
	}
}

func TestFetch_CallerCancellationIsReturnedAsContextError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	ctx, cancel := context.WithCancel(t.Context())
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			cancel()
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	f := httpx.NewFetcher(httpx.WithHTTPClient(httpClient))
	_, err := f.Fetch(ctx, "https://example.test", time.Second)

	require.ErrorIs(t, err, context.Canceled)
	var he *httpx.Error
	require.False(t, errors.As(err, &he))
}

func TestFetch_BodyCap(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(okResponse(strings.Repeat("x", 64)), nil)

	f := httpx.NewFetcher(httpx.WithHTTPClient(httpClient), httpx.WithMaxBody(16))
	_, err := f.Fetch(t.Context(), "https://example.test", time.Second)

	require.ErrorIs(t, err, httpx.ErrBodyTooLarge)
}

func TestFetch_AttemptTimeoutAgainstSlowServer(t *testing.T) {
	t.Parallel()

	// Arrange: a server slower than the attempt timeout
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := httpx.NewFetcher(httpx.WithHTTPClient(httpx.NewClient(5 * time.Second)))

	// Act
	_, err := f.Fetch(t.Context(), srv.URL, 50*time.Millisecond)

	// Assert
	var he *httpx.Error
	require.ErrorAs(t, err, &he)
	require.Equal(t, httpx.Timeout, he.Kind)
}

package httpx

import (
	"context"
	"net"
	"net/http"
	"time"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=httpx_test -destination=mock_http_client_test.go -source=httpx.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	// DefaultTimeout is the hard total timeout of the underlying client.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBody caps how much of an upstream body is read.
	DefaultMaxBody int64 = 1 << 20
	defaultUserAgent     = "marketdata/1.0"
)

// Fetcher performs single GET attempts against provider endpoints. It never
// retries; the aggregator cascades across providers instead.
type Fetcher struct {
	httpClient HTTPClient
	userAgent  string
	header     http.Header
	maxBody    int64
}

// FetcherOption is a configuration option for the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = httpClient
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) FetcherOption {
	return func(f *Fetcher) {
		for key, values := range header {
			for _, value := range values {
				f.header.Add(key, value)
			}
		}
	}
}

// WithMaxBody caps the number of body bytes read per response.
func WithMaxBody(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// NewClient returns an http.Client with a tuned transport and a hard total timeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// NewFetcher creates a Fetcher. Without WithHTTPClient it uses NewClient(DefaultTimeout).
func NewFetcher(options ...FetcherOption) *Fetcher {
	f := &Fetcher{
		userAgent: defaultUserAgent,
		header:    http.Header{},
		maxBody:   DefaultMaxBody,
	}
	for _, option := range options {
		option(f)
	}
	if f.httpClient == nil {
		f.httpClient = NewClient(DefaultTimeout)
	}
	return f
}

// Response is the raw outcome of a successful attempt.
type Response struct {
	Status int
	Body   []byte
}

// Fetch issues one GET to rawURL bounded by timeout. A 2xx returns the body.
// Any other status returns an *Error of kind NonOKStatus carrying status and
// body. Caller cancellation is returned as ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, &Error{Kind: ConnectionError, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, vs := range f.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Response{}, classify(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	body, err := readCapped(resp.Body, f.maxBody)
	if err != nil {
		return Response{}, classify(ctx, attemptCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{Status: resp.StatusCode, Body: body}, &Error{Kind: NonOKStatus, Status: resp.StatusCode, Body: body}
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}

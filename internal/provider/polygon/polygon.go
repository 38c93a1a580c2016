// Package polygon adapts the Polygon previous-day aggregate endpoint
// (/v2/aggs/ticker/{symbol}/prev).
package polygon

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketdata/internal/provider"
)

const (
	DefaultBaseURL = "https://api.polygon.io"
	DefaultLimit   = 5
	DefaultWindow  = time.Minute
)

const tag = provider.Polygon

type Adapter struct {
	desc provider.Descriptor
}

var _ provider.Adapter = (*Adapter)(nil)

func New(desc provider.Descriptor) *Adapter {
	desc.Tag = tag
	if desc.BaseURL == "" {
		desc.BaseURL = DefaultBaseURL
	}
	return &Adapter{desc: desc}
}

func (a *Adapter) Descriptor() provider.Descriptor { return a.desc }

func (a *Adapter) QuoteURL(symbol string) (string, error) {
	if symbol == "" {
		return "", errors.New("polygon: empty symbol")
	}
	u, err := url.Parse(strings.TrimRight(a.desc.BaseURL, "/") + "/v2/aggs/ticker/" + url.PathEscape(symbol) + "/prev")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("apiKey", a.desc.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type aggregate struct {
	Ticker string   `json:"T"`
	Open   *float64 `json:"o"`
	High   *float64 `json:"h"`
	Low    *float64 `json:"l"`
	Close  *float64 `json:"c"`
	Volume float64  `json:"v"`
	Time   int64    `json:"t"`
}

type prevBody struct {
	Status       string      `json:"status"`
	ResultsCount int         `json:"resultsCount"`
	Results      []aggregate `json:"results"`
	Error        string      `json:"error"`
	Message      string      `json:"message"`
}

func (b prevBody) reason() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func (a *Adapter) ParseQuote(symbol string, status int, body []byte) (provider.Quote, error) {
	var b prevBody
	decodeErr := json.Unmarshal(body, &b)

	if status != http.StatusOK {
		if status == http.StatusTooManyRequests || (decodeErr == nil && provider.MentionsLimit(b.reason())) {
			return provider.Quote{}, provider.Fail(provider.UpstreamRateLimited, tag, symbol, "http %d: %s", status, b.reason())
		}
		return provider.Quote{}, provider.Fail(provider.Transient, tag, symbol, "http %d", status)
	}
	if decodeErr != nil {
		return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "decode: %v", decodeErr)
	}
	if b.Status == "ERROR" {
		if provider.MentionsLimit(b.reason()) {
			return provider.Quote{}, provider.Fail(provider.UpstreamRateLimited, tag, symbol, "%s", b.reason())
		}
		return provider.Quote{}, provider.Fail(provider.Transient, tag, symbol, "%s", b.reason())
	}
	if b.ResultsCount == 0 || len(b.Results) == 0 {
		return provider.Quote{}, provider.Fail(provider.SymbolUnknown, tag, symbol, "no results")
	}

	r := b.Results[0]
	if r.Close == nil {
		return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "missing close")
	}
	q := provider.Quote{
		Symbol:            symbol,
		Price:             *r.Close,
		Open:              r.Open,
		High:              r.High,
		Low:               r.Low,
		Volume:            int64(r.Volume),
		Source:            tag,
		SessionConsistent: true,
	}
	// The aggregate has no previous close; change is intraday close minus open.
	if r.Open != nil {
		q.Change = *r.Close - *r.Open
		if *r.Open != 0 {
			q.ChangePercent = q.Change / *r.Open * 100
		}
	}
	if r.Time > 0 {
		q.Timestamp = time.UnixMilli(r.Time).UTC()
	}
	return q, nil
}

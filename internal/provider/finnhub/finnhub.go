// Package finnhub adapts the Finnhub /quote endpoint.
package finnhub

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
	DefaultBaseURL = "https://finnhub.io/api/v1"
	DefaultLimit   = 60
	DefaultWindow  = time.Minute
)

const tag = provider.Finnhub

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
		return "", errors.New("finnhub: empty symbol")
	}
	u, err := url.Parse(strings.TrimRight(a.desc.BaseURL, "/") + "/quote")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("token", a.desc.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// quoteBody mirrors the /quote response. Pointers distinguish absent from zero.
type quoteBody struct {
	C     *float64 `json:"c"`
	D     *float64 `json:"d"`
	DP    *float64 `json:"dp"`
	H     *float64 `json:"h"`
	L     *float64 `json:"l"`
	O     *float64 `json:"o"`
	PC    *float64 `json:"pc"`
	T     *int64   `json:"t"`
	V     *float64 `json:"v"`
	Error string   `json:"error"`
}

func (a *Adapter) ParseQuote(symbol string, status int, body []byte) (provider.Quote, error) {
	switch {
	case status == http.StatusTooManyRequests:
		return provider.Quote{}, provider.Fail(provider.UpstreamRateLimited, tag, symbol, "http %d", status)
	case status != http.StatusOK:
		return provider.Quote{}, provider.Fail(provider.Transient, tag, symbol, "http %d", status)
	}

	var b quoteBody
	if err := json.Unmarshal(body, &b); err != nil {
		return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "decode: %v", err)
	}
	if b.Error != "" {
		if provider.MentionsLimit(b.Error) {
			return provider.Quote{}, provider.Fail(provider.UpstreamRateLimited, tag, symbol, "%s", b.Error)
		}
		return provider.Quote{}, provider.Fail(provider.Transient, tag, symbol, "%s", b.Error)
	}
	if b.C == nil {
		return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "missing c")
	}
	// Finnhub answers unknown tickers with an all-zero object.
	if *b.C == 0 && (b.T == nil || *b.T == 0) {
		return provider.Quote{}, provider.Fail(provider.SymbolUnknown, tag, symbol, "zero quote")
	}

	q := provider.Quote{
		Symbol:            symbol,
		Price:             *b.C,
		Open:              b.O,
		High:              b.H,
		Low:               b.L,
		PreviousClose:     b.PC,
		Source:            tag,
		SessionConsistent: true,
	}
	switch {
	case b.D != nil:
		q.Change = *b.D
	case b.PC != nil:
		q.Change = *b.C - *b.PC
	}
	switch {
	case b.DP != nil:
		q.ChangePercent = *b.DP
	case b.PC != nil && *b.PC != 0:
		q.ChangePercent = (*b.C - *b.PC) / *b.PC * 100
	}
	if b.V != nil {
		q.Volume = int64(*b.V)
	}
	if b.T != nil && *b.T > 0 {
		q.Timestamp = time.Unix(*b.T, 0).UTC()
	}
	return q, nil
}

// Package alphavantage adapts the Alpha Vantage query API: GLOBAL_QUOTE for
// quotes, OVERVIEW for company profiles and SECTOR for sector performance.
package alphavantage

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"marketdata/internal/provider"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"
	DefaultLimit   = 5
	DefaultWindow  = time.Minute
)

const tag = provider.AlphaVantage

// Adapter implements provider.CompanyAdapter and provider.SectorAdapter.
type Adapter struct {
	desc provider.Descriptor
}

var (
	_ provider.CompanyAdapter = (*Adapter)(nil)
	_ provider.SectorAdapter  = (*Adapter)(nil)
)

// New returns an adapter for desc, filling in the Alpha Vantage defaults.
func New(desc provider.Descriptor) *Adapter {
	desc.Tag = tag
	if desc.BaseURL == "" {
		desc.BaseURL = DefaultBaseURL
	}
	return &Adapter{desc: desc}
}

func (a *Adapter) Descriptor() provider.Descriptor { return a.desc }

func (a *Adapter) QuoteURL(symbol string) (string, error) {
	return a.build("GLOBAL_QUOTE", symbol)
}

func (a *Adapter) CompanyURL(symbol string) (string, error) {
	return a.build("OVERVIEW", symbol)
}

func (a *Adapter) SectorURL() (string, error) {
	return a.build("SECTOR", "")
}

func (a *Adapter) build(function, symbol string) (string, error) {
	u, err := url.Parse(a.desc.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("function", function)
	if function != "SECTOR" {
		if symbol == "" {
			return "", errors.New("alphavantage: empty symbol")
		}
		q.Set("symbol", symbol)
	}
	q.Set("apikey", a.desc.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// envelope holds the notice fields Alpha Vantage returns with HTTP 200.
type envelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// notice maps the envelope to a failure, or nil when the body is a payload.
func (e envelope) notice(symbol string) error {
	switch {
	case e.Note != "":
		return provider.Fail(provider.UpstreamRateLimited, tag, symbol, "note: %s", e.Note)
	case e.Information != "" && provider.MentionsLimit(e.Information):
		return provider.Fail(provider.UpstreamRateLimited, tag, symbol, "information: %s", e.Information)
	case e.Information != "":
		return provider.Fail(provider.Transient, tag, symbol, "information: %s", e.Information)
	case e.ErrorMessage != "":
		return provider.Fail(provider.SymbolUnknown, tag, symbol, "%s", e.ErrorMessage)
	}
	return nil
}

func checkStatus(status int, symbol string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return provider.Fail(provider.UpstreamRateLimited, tag, symbol, "http %d", status)
	case status != http.StatusOK:
		return provider.Fail(provider.Transient, tag, symbol, "http %d", status)
	}
	return nil
}

type globalQuoteBody struct {
	envelope
	GlobalQuote map[string]string `json:"Global Quote"`
}

func (a *Adapter) ParseQuote(symbol string, status int, body []byte) (provider.Quote, error) {
	if err := checkStatus(status, symbol); err != nil {
		return provider.Quote{}, err
	}
	var b globalQuoteBody
	if err := json.Unmarshal(body, &b); err != nil {
		return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "decode: %v", err)
	}
	if err := b.notice(symbol); err != nil {
		return provider.Quote{}, err
	}
	gq := b.GlobalQuote
	if len(gq) == 0 {
		return provider.Quote{}, provider.Fail(provider.SymbolUnknown, tag, symbol, "empty Global Quote")
	}

	price, err := requiredFloat(gq, "05. price")
	if err != nil {
		return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "%v", err)
	}
	q := provider.Quote{
		Symbol:            symbol,
		Price:             price,
		Source:            tag,
		SessionConsistent: true,
		Open:              optionalFloat(gq, "02. open"),
		High:              optionalFloat(gq, "03. high"),
		Low:               optionalFloat(gq, "04. low"),
		PreviousClose:     optionalFloat(gq, "08. previous close"),
	}
	if s := gq["01. symbol"]; s != "" {
		q.Symbol = s
	}
	if v := optionalFloat(gq, "09. change"); v != nil {
		q.Change = *v
	}
	if v := percent(gq["10. change percent"]); v != nil {
		q.ChangePercent = *v
	}
	if s := gq["06. volume"]; s != "" {
		vol, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return provider.Quote{}, provider.Fail(provider.MalformedResponse, tag, symbol, "volume %q: %v", s, err)
		}
		q.Volume = vol
	}
	if s := gq["07. latest trading day"]; s != "" {
		if day, err := time.Parse(time.DateOnly, s); err == nil {
			q.Timestamp = day
		}
	}
	return q, nil
}

// ParseCompany decodes an OVERVIEW body. Alpha Vantage answers an unknown
// symbol with an empty object.
func (a *Adapter) ParseCompany(symbol string, status int, body []byte) (provider.CompanyProfile, error) {
	if err := checkStatus(status, symbol); err != nil {
		return provider.CompanyProfile{}, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return provider.CompanyProfile{}, provider.Fail(provider.MalformedResponse, tag, symbol, "decode: %v", err)
	}
	if err := env.notice(symbol); err != nil {
		return provider.CompanyProfile{}, err
	}
	var m map[string]string
	if err := json.Unmarshal(body, &m); err != nil {
		return provider.CompanyProfile{}, provider.Fail(provider.MalformedResponse, tag, symbol, "decode: %v", err)
	}
	if len(m) == 0 || m["Symbol"] == "" {
		return provider.CompanyProfile{}, provider.Fail(provider.SymbolUnknown, tag, symbol, "empty overview")
	}

	p := provider.CompanyProfile{
		Symbol:        m["Symbol"],
		Name:          m["Name"],
		Description:   m["Description"],
		Exchange:      m["Exchange"],
		Currency:      m["Currency"],
		Country:       m["Country"],
		Sector:        m["Sector"],
		Industry:      m["Industry"],
		PERatio:       optionalFloat(m, "PERatio"),
		DividendYield: optionalFloat(m, "DividendYield"),
		Week52High:    optionalFloat(m, "52WeekHigh"),
		Week52Low:     optionalFloat(m, "52WeekLow"),
		Source:        tag,
	}
	if s := m["MarketCapitalization"]; s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			p.MarketCap = &v
		}
	}
	return p, nil
}

type sectorBody struct {
	envelope
	RealTime map[string]string `json:"Rank A: Real-Time Performance"`
}

// ParseSectors decodes a SECTOR body, sorted by performance descending.
func (a *Adapter) ParseSectors(status int, body []byte) ([]provider.SectorPerformance, error) {
	if err := checkStatus(status, ""); err != nil {
		return nil, err
	}
	var b sectorBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, provider.Fail(provider.MalformedResponse, tag, "", "decode: %v", err)
	}
	if err := b.notice(""); err != nil {
		return nil, err
	}
	if len(b.RealTime) == 0 {
		return nil, provider.Fail(provider.MalformedResponse, tag, "", "missing real-time performance")
	}
	out := make([]provider.SectorPerformance, 0, len(b.RealTime))
	for sector, raw := range b.RealTime {
		v := percent(raw)
		if v == nil {
			continue
		}
		out = append(out, provider.SectorPerformance{Sector: sector, Performance: *v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Performance != out[j].Performance {
			return out[i].Performance > out[j].Performance
		}
		return out[i].Sector < out[j].Sector
	})
	return out, nil
}

func requiredFloat(m map[string]string, key string) (float64, error) {
	s, ok := m[key]
	if !ok || s == "" {
		return 0, errors.New("missing " + key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(key + ": " + err.Error())
	}
	return v, nil
}

// optionalFloat returns nil for absent, "None", "-" or unparsable values.
func optionalFloat(m map[string]string, key string) *float64 {
	s := strings.TrimSpace(m[key])
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// percent parses "0.5234%" into 0.52.
func percent(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := d.Round(2).InexactFloat64()
	return &v
}

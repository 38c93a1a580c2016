package provider

import (
	"time"
)

// Tag identifies an upstream quote provider.
type Tag string

const (
	AlphaVantage Tag = "alpha_vantage"
	Finnhub      Tag = "finnhub"
	Polygon      Tag = "polygon"
)

// Tags lists the known providers in their default priority order.
var Tags = []Tag{AlphaVantage, Finnhub, Polygon}

func (t Tag) Valid() bool {
	switch t {
	case AlphaVantage, Finnhub, Polygon:
		return true
	}
	return false
}

// Quote is the canonical record every adapter produces and every
// downstream component consumes. Optional fields are nil when the
// provider does not report them.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	Volume        int64    `json:"volume"`
	Open          *float64 `json:"open,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	PreviousClose *float64 `json:"previousClose,omitempty"`
	Source        Tag      `json:"source"`

	// Timestamp is the as-of time reported upstream, or the ingestion time
	// when TimestampSynthesized is set.
	Timestamp            time.Time `json:"timestamp"`
	TimestampSynthesized bool      `json:"timestampSynthesized"`
	FetchedAt            time.Time `json:"fetchedAt"`

	// SessionConsistent marks open/high/low/price as coming from the same
	// trading session, which lets the normalizer check their ordering.
	SessionConsistent bool `json:"-"`
}

// CompanyProfile is the static company information served by Alpha Vantage.
type CompanyProfile struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Country       string    `json:"country,omitempty"`
	Sector        string    `json:"sector,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	MarketCap     *int64    `json:"marketCap,omitempty"`
	PERatio       *float64  `json:"peRatio,omitempty"`
	DividendYield *float64  `json:"dividendYield,omitempty"`
	Week52High    *float64  `json:"week52High,omitempty"`
	Week52Low     *float64  `json:"week52Low,omitempty"`
	Source        Tag       `json:"source"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// SectorPerformance is one row of the real-time sector table, in percent.
type SectorPerformance struct {
	Sector      string  `json:"sector"`
	Performance float64 `json:"performance"`
}

// Descriptor is the immutable configuration of one provider.
type Descriptor struct {
	Tag      Tag
	Limit    int
	Window   time.Duration
	Priority int
	BaseURL  string
	Token    string
}

// Enabled reports whether the provider has credentials. Providers without
// a token are kept in the cascade but always denied by the limiter.
func (d Descriptor) Enabled() bool { return d.Token != "" }

// Adapter turns a symbol into a provider URL and a provider response into
// a canonical Quote. Implementations must not perform I/O.
type Adapter interface {
	Descriptor() Descriptor
	QuoteURL(symbol string) (string, error)
	ParseQuote(symbol string, status int, body []byte) (Quote, error)
}

// CompanyAdapter is implemented by adapters that serve company profiles.
type CompanyAdapter interface {
	Adapter
	CompanyURL(symbol string) (string, error)
	ParseCompany(symbol string, status int, body []byte) (CompanyProfile, error)
}

// SectorAdapter is implemented by adapters that serve sector performance.
type SectorAdapter interface {
	Adapter
	SectorURL() (string, error)
	ParseSectors(status int, body []byte) ([]SectorPerformance, error)
}

// Float returns a pointer to v; adapters use it for optional fields.
func Float(v float64) *float64 { return &v }

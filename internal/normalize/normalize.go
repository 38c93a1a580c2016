// Package normalize validates adapter output and coerces it into the
// canonical precision before it reaches the cache or the history ring.
package normalize

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"marketdata/internal/clock"
	"marketdata/internal/provider"
)

const (
	DefaultFreshness = 5 * time.Minute

	MaxSymbolLen           = 20
	MaxVolume        int64 = 1_000_000_000_000
	MinChangePercent       = -100.0
	MaxChangePercent       = 1000.0

	priceScale   = 4
	percentScale = 2
)

type Normalizer struct {
	clock     clock.Clock
	freshness time.Duration
}

// New returns a Normalizer. A freshness <= 0 uses DefaultFreshness.
func New(c clock.Clock, freshness time.Duration) *Normalizer {
	if c == nil {
		c = clock.Real{}
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Normalizer{clock: c, freshness: freshness}
}

// Normalize returns the canonical form of q or an InvalidQuote failure.
// Applying it twice yields the same record.
func (n *Normalizer) Normalize(q provider.Quote) (provider.Quote, error) {
	fail := func(format string, args ...any) (provider.Quote, error) {
		return provider.Quote{}, provider.Fail(provider.InvalidQuote, q.Source, q.Symbol, format, args...)
	}

	sym, ok := Symbol(q.Symbol)
	if !ok {
		return fail("symbol %q", q.Symbol)
	}
	q.Symbol = sym

	if !finite(q.Price) || q.Price < 0 {
		return fail("price %v", q.Price)
	}
	if !finite(q.Change) {
		return fail("change %v", q.Change)
	}
	if !finite(q.ChangePercent) {
		return fail("changePercent %v", q.ChangePercent)
	}
	for name, p := range map[string]*float64{"open": q.Open, "high": q.High, "low": q.Low, "previousClose": q.PreviousClose} {
		if p != nil && (!finite(*p) || *p < 0) {
			return fail("%s %v", name, *p)
		}
	}

	q.Price = round(q.Price, priceScale)
	q.Change = round(q.Change, priceScale)
	q.ChangePercent = round(q.ChangePercent, percentScale)
	q.Open = roundPtr(q.Open)
	q.High = roundPtr(q.High)
	q.Low = roundPtr(q.Low)
	q.PreviousClose = roundPtr(q.PreviousClose)

	if q.ChangePercent < MinChangePercent || q.ChangePercent > MaxChangePercent {
		return fail("changePercent %v out of range", q.ChangePercent)
	}
	if q.Volume < 0 || q.Volume > MaxVolume {
		return fail("volume %d out of range", q.Volume)
	}
	if q.SessionConsistent && q.Open != nil && q.High != nil && q.Low != nil {
		lo, hi := math.Min(*q.Open, q.Price), math.Max(*q.Open, q.Price)
		if *q.Low > lo || hi > *q.High {
			return fail("ohl ordering low=%v open=%v price=%v high=%v", *q.Low, *q.Open, q.Price, *q.High)
		}
	}

	now := n.clock.Now()
	if !n.fresh(q.Timestamp, now) {
		q.Timestamp = now
		q.TimestampSynthesized = true
	}
	if q.FetchedAt.IsZero() {
		q.FetchedAt = now
	}
	return q, nil
}

func (n *Normalizer) fresh(ts, now time.Time) bool {
	if ts.IsZero() {
		return false
	}
	if now.Sub(ts) > n.freshness {
		return false
	}
	return ts.Sub(now) <= n.freshness
}

// Symbol trims and uppercases s and reports whether it is a valid symbol.
func Symbol(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || len(s) > MaxSymbolLen {
		return "", false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", false
		}
	}
	return s, true
}

// Round2 rounds v half away from zero to two decimals.
func Round2(v float64) float64 { return round(v, percentScale) }

// Round4 rounds v half away from zero to four decimals.
func Round4(v float64) float64 { return round(v, priceScale) }

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := round(*p, priceScale)
	return &v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

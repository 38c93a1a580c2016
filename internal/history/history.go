// Package history keeps a bounded in-memory ring of normalized quotes per
// symbol and derives OHLCV series from it.
package history

import (
	"sort"
	"sync"
	"time"

	"marketdata/internal/normalize"
	"marketdata/internal/provider"
)

const DefaultRingSize = 1000

// Store holds one ring per symbol. The map lock is only taken to find or
// create a ring; appends and reads lock the ring alone.
type Store struct {
	size     int
	globalMu sync.RWMutex
	data     map[string]*ring
}

// ring is a fixed-capacity FIFO, newest last, ordered by FetchedAt.
type ring struct {
	mu    sync.Mutex
	buf   []provider.Quote
	start int
	n     int
}

func New(size int) *Store {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Store{size: size, data: make(map[string]*ring)}
}

func (s *Store) lookup(symbol string, create bool) *ring {
	s.globalMu.RLock()
	r, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if ok || !create {
		return r
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	if r, ok = s.data[symbol]; !ok {
		r = &ring{buf: make([]provider.Quote, s.size)}
		s.data[symbol] = r
	}
	return r
}

// Append adds q to its symbol's ring, evicting the oldest entry when full.
// A quote fetched before the newest stored one is dropped and Append
// reports false.
func (s *Store) Append(q provider.Quote) bool {
	r := s.lookup(q.Symbol, true)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.n > 0 && q.FetchedAt.Before(r.at(r.n-1).FetchedAt) {
		return false
	}
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = q
		r.n++
		return true
	}
	r.buf[r.start] = q
	r.start = (r.start + 1) % len(r.buf)
	return true
}

func (r *ring) at(i int) provider.Quote { return r.buf[(r.start+i)%len(r.buf)] }

// Range returns a copy of the quotes for symbol fetched within period of now,
// oldest first.
func (s *Store) Range(symbol string, period Period, now time.Time) []provider.Quote {
	r := s.lookup(symbol, false)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	span := period.Duration()
	cutoff := now.Add(-span)
	// FetchedAt is non-decreasing, so the window is a suffix of the ring.
	first := 0
	if span > 0 {
		first = sort.Search(r.n, func(i int) bool { return !r.at(i).FetchedAt.Before(cutoff) })
	}
	out := make([]provider.Quote, 0, r.n-first)
	for i := first; i < r.n; i++ {
		out = append(out, r.at(i))
	}
	return out
}

// OHLCV is one aggregated bucket.
type OHLCV struct {
	Time          time.Time `json:"time"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	DataPoints    int       `json:"dataPoints"`
}

// Bucketize folds Range(symbol, period, now) into OHLCV points whose start
// times are multiples of the bucket width since the Unix epoch.
func (s *Store) Bucketize(symbol string, period Period, bucket Bucket, now time.Time) []OHLCV {
	width := bucket.Duration()
	if width <= 0 {
		return nil
	}
	quotes := s.Range(symbol, period, now)

	var out []OHLCV
	var cur *OHLCV
	for _, q := range quotes {
		start := bucketStart(q.FetchedAt, width)
		if cur == nil || !cur.Time.Equal(start) {
			if cur != nil {
				out = append(out, finish(*cur))
			}
			cur = &OHLCV{Time: start, Open: q.Price, High: q.Price, Low: q.Price}
		}
		cur.Close = q.Price
		cur.High = max(cur.High, q.Price)
		cur.Low = min(cur.Low, q.Price)
		if q.High != nil {
			cur.High = max(cur.High, *q.High)
		}
		if q.Low != nil {
			cur.Low = min(cur.Low, *q.Low)
		}
		cur.Volume += q.Volume
		cur.DataPoints++
	}
	if cur != nil {
		out = append(out, finish(*cur))
	}
	return out
}

func bucketStart(t time.Time, width time.Duration) time.Time {
	ns := t.UnixNano()
	return time.Unix(0, ns-ns%int64(width)).UTC()
}

func finish(b OHLCV) OHLCV {
	b.Change = normalize.Round4(b.Close - b.Open)
	if b.Open != 0 {
		b.ChangePercent = normalize.Round2((b.Close - b.Open) / b.Open * 100)
	}
	return b
}

// Len returns the number of quotes held for symbol.
func (s *Store) Len(symbol string) int {
	r := s.lookup(symbol, false)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Symbols lists symbols with at least one stored quote, sorted.
func (s *Store) Symbols() []string {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	out := make([]string, 0, len(s.data))
	for sym := range s.data {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

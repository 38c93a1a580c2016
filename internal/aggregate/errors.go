package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketdata/internal/provider"
)

// Public error categories. Every error returned by the Aggregator matches
// exactly one of them with errors.Is.
var (
	ErrUnavailable    = errors.New("unavailable")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrCancelled      = errors.New("cancelled")
)

// Error carries the category, a human readable reason and the providers
// that were tried.
type Error struct {
	Kind      error
	Symbol    string
	Reason    string
	Attempted []provider.Tag
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Symbol != "" {
		fmt.Fprintf(&b, " (%s)", e.Symbol)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Attempted) > 0 {
		tags := make([]string, len(e.Attempted))
		for i, t := range e.Attempted {
			tags[i] = string(t)
		}
		fmt.Fprintf(&b, " [attempted: %s]", strings.Join(tags, ","))
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalid(symbol, format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidRequest, Symbol: symbol, Reason: fmt.Sprintf(format, args...)}
}

func notFound(symbol string, attempted []provider.Tag, cause error) *Error {
	return &Error{Kind: ErrNotFound, Symbol: symbol, Reason: "unknown symbol", Attempted: attempted, Err: cause}
}

func unavailable(symbol string, attempted []provider.Tag, reasons []string) *Error {
	reason := "all providers failed or were rate limited"
	if len(reasons) > 0 {
		reason += ": " + strings.Join(reasons, "; ")
	}
	return &Error{Kind: ErrUnavailable, Symbol: symbol, Reason: reason, Attempted: attempted}
}

func cancelled(ctx context.Context, symbol string, attempted []provider.Tag) *Error {
	return &Error{Kind: ErrCancelled, Symbol: symbol, Reason: "deadline or cancellation", Attempted: attempted, Err: context.Cause(ctx)}
}

// KindOf returns the public category of err, or nil when err is not an
// Aggregator error.
func KindOf(err error) error {
	for _, k := range []error{ErrUnavailable, ErrNotFound, ErrInvalidRequest, ErrCancelled} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

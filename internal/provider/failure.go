package provider

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why a provider attempt did not yield a quote.
type FailureKind int

const (
	Transient FailureKind = iota
	MalformedResponse
	UpstreamRateLimited
	SymbolUnknown
	InvalidQuote
)

func (k FailureKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case MalformedResponse:
		return "malformed_response"
	case UpstreamRateLimited:
		return "upstream_rate_limited"
	case SymbolUnknown:
		return "symbol_unknown"
	case InvalidQuote:
		return "invalid_quote"
	}
	return fmt.Sprintf("failure(%d)", int(k))
}

// Failure is the typed error returned by adapters and the normalizer.
type Failure struct {
	Kind     FailureKind
	Provider Tag
	Symbol   string
	Err      error
}

func (f *Failure) Error() string {
	msg := f.Kind.String()
	if f.Provider != "" {
		msg = string(f.Provider) + ": " + msg
	}
	if f.Symbol != "" {
		msg += " (" + f.Symbol + ")"
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail builds a Failure with a formatted cause.
func Fail(kind FailureKind, tag Tag, symbol, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Provider: tag, Symbol: symbol, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from err. Errors that are not a
// Failure are treated as transient.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return Transient
}

// MentionsLimit reports whether an upstream notice text is about throttling.
func MentionsLimit(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "limit") || strings.Contains(m, "frequency") || strings.Contains(m, "exceeded") || strings.Contains(m, "too many")
}

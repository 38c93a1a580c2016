package httpx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
)

// Kind classifies a failed fetch attempt.
type Kind int

const (
	Timeout Kind = iota + 1
	ConnectionError
	TLSFailure
	NonOKStatus
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case ConnectionError:
		return "connection_error"
	case TLSFailure:
		return "tls_failure"
	case NonOKStatus:
		return "non_ok_status"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrBodyTooLarge is wrapped when an upstream body exceeds the read cap.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Error is returned by Fetch for every failure except caller cancellation.
type Error struct {
	Kind   Kind
	Status int
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == NonOKStatus {
		return fmt.Sprintf("httpx: unexpected status %d", e.Status)
	}
	if e.Err == nil {
		return "httpx: " + e.Kind.String()
	}
	return "httpx: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps a transport error to an *Error. parent is the caller's
// context; when it is done its error wins so cancellation propagates as is.
func classify(parent, attempt context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Timeout, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Kind: Timeout, Err: err}
	}
	if isTLS(err) {
		return &Error{Kind: TLSFailure, Err: err}
	}
	return &Error{Kind: ConnectionError, Err: err}
}

func isTLS(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

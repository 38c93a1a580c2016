package hub

import (
	"context"

	"marketdata/internal/provider"
)

// ChanHandle is a Handle backed by a buffered channel. Deliver blocks until
// the reader drains the buffer or ctx expires.
type ChanHandle struct {
	ch chan provider.Quote
}

func NewChanHandle(buffer int) *ChanHandle {
	if buffer < 0 {
		buffer = 0
	}
	return &ChanHandle{ch: make(chan provider.Quote, buffer)}
}

func (c *ChanHandle) Deliver(ctx context.Context, q provider.Quote) error {
	select {
	case c.ch <- q:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C returns the channel quotes are delivered on.
func (c *ChanHandle) C() <-chan provider.Quote { return c.ch }

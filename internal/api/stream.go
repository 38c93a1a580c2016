package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"marketdata/internal/normalize"
	"marketdata/internal/provider"
)

// clientMessage is what a stream client sends: {"op":"subscribe","symbol":"AAPL"}.
type clientMessage struct {
	Op     string `json:"op"`
	Symbol string `json:"symbol"`
}

// serverMessage is what the stream pushes. Type is "quote", "subscribed",
// "unsubscribed" or "error".
type serverMessage struct {
	Type   string          `json:"type"`
	Symbol string          `json:"symbol,omitempty"`
	Quote  *provider.Quote `json:"quote,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// wsHandle is the hub handle of one websocket client. Writes are serialized
// because gorilla connections support a single concurrent writer.
type wsHandle struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func (w *wsHandle) write(ctx context.Context, m serverMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	deadline := time.Now().Add(w.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return w.conn.WriteJSON(m)
}

func (w *wsHandle) Deliver(ctx context.Context, q provider.Quote) error {
	return w.write(ctx, serverMessage{Type: "quote", Symbol: q.Symbol, Quote: &q})
}

func (w *wsHandle) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout))
}

// Stream upgrades GET /api/v1/stream to a websocket. After a subscribe the
// client receives the current quote followed by every published update.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	handle := &wsHandle{conn: conn, writeTimeout: h.writeTimeout}
	defer h.subs.UnsubscribeAll(handle)

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	go h.keepAlive(ctx, handle)

	conn.SetReadLimit(maxClientMessage)
	readWait := 2 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				h.logger.Debug("stream read ended", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		if err := h.handleMessage(ctx, handle, msg); err != nil {
			h.logger.Debug("stream write failed", zap.Error(err))
			return
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, handle *wsHandle, msg clientMessage) error {
	sym, ok := normalize.Symbol(msg.Symbol)
	if !ok {
		return handle.write(ctx, serverMessage{Type: "error", Symbol: msg.Symbol, Error: "invalid symbol"})
	}
	switch msg.Op {
	case "subscribe":
		h.subs.Subscribe(sym, handle)
		if err := handle.write(ctx, serverMessage{Type: "subscribed", Symbol: sym}); err != nil {
			return err
		}
		go h.snapshot(ctx, handle, sym)
		return nil
	case "unsubscribe":
		h.subs.Unsubscribe(sym, handle)
		return handle.write(ctx, serverMessage{Type: "unsubscribed", Symbol: sym})
	}
	return handle.write(ctx, serverMessage{Type: "error", Symbol: sym, Error: "unknown op " + msg.Op})
}

// snapshot pushes the current quote so a new subscriber does not wait for
// the next poll tick.
func (h *Handler) snapshot(ctx context.Context, handle *wsHandle, sym string) {
	q, err := h.svc.GetQuote(ctx, sym)
	if err != nil {
		_ = handle.write(ctx, serverMessage{Type: "error", Symbol: sym, Error: bodyOf(err).Reason})
		return
	}
	if err := handle.Deliver(ctx, q); err != nil {
		h.logger.Debug("snapshot delivery failed", zap.String("symbol", sym), zap.Error(err))
	}
}

func (h *Handler) keepAlive(ctx context.Context, handle *wsHandle) {
	t := time.NewTicker(h.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := handle.ping(); err != nil {
				return
			}
		}
	}
}

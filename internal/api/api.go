// Package api exposes the aggregator over HTTP with gin and streams hub
// notifications over a gorilla/websocket connection.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"marketdata/internal/aggregate"
	"marketdata/internal/history"
	"marketdata/internal/hub"
	"marketdata/internal/provider"
)

//go:generate mockgen -package=api_test -destination=mock_service_test.go -source=api.go Service,Subscriber

// Service is the read surface of the aggregator.
type Service interface {
	GetQuote(ctx context.Context, symbol string) (provider.Quote, error)
	GetBatch(ctx context.Context, symbols []string) (map[string]aggregate.BatchResult, error)
	GetIndices(ctx context.Context) (map[string]provider.Quote, error)
	GetIndex(ctx context.Context, symbol string) (provider.Quote, error)
	GetCompany(ctx context.Context, symbol string) (provider.CompanyProfile, error)
	GetSectorPerformance(ctx context.Context) ([]provider.SectorPerformance, error)
	GetOverview(ctx context.Context) (aggregate.Overview, error)
	GetHistory(ctx context.Context, symbol, period string) ([]provider.Quote, error)
	GetSeries(ctx context.Context, symbol, period, bucket string) ([]history.OHLCV, error)
}

// Subscriber is the part of the hub the stream endpoint needs.
type Subscriber interface {
	Subscribe(symbol string, handle hub.Handle) hub.Subscription
	Unsubscribe(symbol string, handle hub.Handle)
	UnsubscribeAll(handle hub.Handle)
}

const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 30 * time.Second
	maxClientMessage    = 4 << 10
)

type Handler struct {
	svc    Service
	subs   Subscriber
	logger *zap.Logger

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
}

type Option func(*Handler)

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) { h.writeTimeout = d }
}

func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) { h.pingInterval = d }
}

func New(svc Service, subs Subscriber, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		svc:          svc,
		subs:         subs,
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
		pingInterval: DefaultPingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes builds the gin engine with every endpoint mounted.
func (h *Handler) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))
	r.Use(cors())

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	// The stream route hijacks the connection and must not be compressed.
	v1.GET("/stream", h.Stream)

	rest := v1.Group("", gzipResponses())
	rest.GET("/quotes/:symbol", h.GetQuote)
	rest.GET("/quotes", h.GetBatch)
	rest.GET("/indices", h.GetIndices)
	rest.GET("/indices/:symbol", h.GetIndex)
	rest.GET("/company/:symbol", h.GetCompany)
	rest.GET("/sectors", h.GetSectors)
	rest.GET("/overview", h.GetOverview)
	rest.GET("/history/:symbol", h.GetHistory)
	return r
}

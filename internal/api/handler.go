package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"marketdata/internal/aggregate"
	"marketdata/internal/provider"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error     string         `json:"error"`
	Symbol    string         `json:"symbol,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Attempted []provider.Tag `json:"attempted,omitempty"`
}

type batchResponse struct {
	Quotes map[string]provider.Quote `json:"quotes"`
	Errors map[string]errorBody      `json:"errors,omitempty"`
}

func statusOf(err error) int {
	switch aggregate.KindOf(err) {
	case aggregate.ErrUnavailable:
		return http.StatusServiceUnavailable
	case aggregate.ErrNotFound:
		return http.StatusNotFound
	case aggregate.ErrInvalidRequest:
		return http.StatusBadRequest
	case aggregate.ErrCancelled:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func bodyOf(err error) errorBody {
	b := errorBody{Error: "internal error"}
	if k := aggregate.KindOf(err); k != nil {
		b.Error = k.Error()
	}
	var ae *aggregate.Error
	if errors.As(err, &ae) {
		b.Symbol = ae.Symbol
		b.Reason = ae.Reason
		b.Attempted = ae.Attempted
	}
	return b
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, bodyOf(err))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.svc.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetBatch serves GET /quotes?symbols=a,b. Per-symbol failures are listed
// under "errors" next to the successful quotes.
func (h *Handler) GetBatch(c *gin.Context) {
	symbols := splitCSV(c.Query("symbols"))
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, errorBody{Error: aggregate.ErrInvalidRequest.Error(), Reason: "missing symbols query param"})
		return
	}
	res, err := h.svc.GetBatch(c.Request.Context(), symbols)
	if err != nil && len(res) == 0 {
		h.fail(c, err)
		return
	}
	out := batchResponse{Quotes: make(map[string]provider.Quote, len(res))}
	for sym, r := range res {
		if r.OK() {
			out.Quotes[sym] = r.Quote
			continue
		}
		if out.Errors == nil {
			out.Errors = make(map[string]errorBody)
		}
		out.Errors[sym] = bodyOf(r.Err)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetIndices(c *gin.Context) {
	idx, err := h.svc.GetIndices(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

func (h *Handler) GetIndex(c *gin.Context) {
	q, err := h.svc.GetIndex(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) GetCompany(c *gin.Context) {
	p, err := h.svc.GetCompany(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetSectors(c *gin.Context) {
	rows, err := h.svc.GetSectorPerformance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetOverview(c *gin.Context) {
	ov, err := h.svc.GetOverview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// GetHistory returns raw stored quotes, or OHLCV buckets when a bucket
// query param is present.
func (h *Handler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	period := c.DefaultQuery("period", "1d")

	bucket, ok := c.GetQuery("bucket")
	if !ok {
		quotes, err := h.svc.GetHistory(c.Request.Context(), symbol, period)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"symbol": strings.ToUpper(strings.TrimSpace(symbol)), "period": period, "quotes": quotes})
		return
	}
	series, err := h.svc.GetSeries(c.Request.Context(), symbol, period, bucket)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": strings.ToUpper(strings.TrimSpace(symbol)), "period": period, "bucket": bucket, "series": series})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

package server

import (
	"net/http"
	"time"

	"auctions/internal/metrics"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader is echoed back on every response
const RequestIDHeader = "X-Request-ID"

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// RequestIDMiddleware keeps a well-formed incoming request ID or assigns a new one
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(RequestIDHeader)
	if !utils.IsID(requestID) {
		requestID = utils.GenerateID()
	}
	c.Set(RequestIDHeader, requestID)
	c.Header(RequestIDHeader, requestID)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"route":      routeLabel(c),
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": c.GetString(RequestIDHeader),
	}
	if len(c.Errors) > 0 {
		fields["error"] = c.Errors.Last().Error()
	}
	if c.Writer.Status() >= http.StatusInternalServerError {
		utils.Error("HTTP Request", fields)
		return
	}
	utils.Info("HTTP Request", fields)
}

// MetricsMiddleware counts requests per route template so IDs do not explode label cardinality
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

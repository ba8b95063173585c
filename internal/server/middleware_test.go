package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"auctions/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDHeader))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "valid id is kept", incoming: "3f6c2a1e-9d7b-4a55-8c1e-2b9f0d4e7a10", keep: true},
		{name: "malformed id is replaced", incoming: "not-an-id"},
		{name: "missing id is generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			require.NotEmpty(t, got)
			require.Equal(t, got, w.Body.String())
			if tt.keep {
				require.Equal(t, tt.incoming, got)
			} else {
				require.NotEqual(t, tt.incoming, got)
			}
		})
	}
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	router := gin.New()
	router.Use(MetricsMiddleware(m))
	router.GET("/listings/:listing_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/listings/a", "/listings/b", "/nowhere"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Equal(t, 2, testutil.CollectAndCount(m.Requests))
}

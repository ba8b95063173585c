package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSONResponse(c, http.StatusOK, []string{}, "listings retrieved successfully")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, float64(http.StatusOK), body["status"])
	require.Equal(t, "listings retrieved successfully", body["message"])
	require.Equal(t, []any{}, body["data"])
	require.NotContains(t, body, "error")
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSONError(c, http.StatusNotFound, errors.New("listing not found"), "listing not found")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, float64(http.StatusNotFound), body["status"])
	require.Equal(t, "listing not found", body["error"])
	require.NotContains(t, body, "data")
	require.Len(t, c.Errors, 1)
}

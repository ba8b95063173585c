package integrationtests

import (
	auction "auctions/internal/auctionService"
	"auctions/internal/repository"
	"auctions/internal/server"
	"auctions/services/auction/helpers"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	service := auction.NewAuctionService(repo)
	return server.SetupRouter(service, prometheus.NewRegistry())
}

// ExecuteRequest executes an HTTP request as userID (anonymous when empty) and returns the response recorder.
func ExecuteRequest(t *testing.T, router http.Handler, method, url, userID string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(helpers.ActorHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router http.Handler, method, url, userID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := ExecuteRequest(t, router, method, url, userID, reqBody)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// dataOf returns the data member of an envelope as an object
func dataOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no object data: %v", resp)
	return data
}

// RegisterUser creates a user through the API and returns its ID
func RegisterUser(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/users", "", helpers.RegisterUserRequest{Username: username})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataOf(t, resp)["user_id"].(string)
}

// CreateCategory creates a category through the API and returns its ID
func CreateCategory(t *testing.T, router http.Handler, userID, name string) string {
	t.Helper()

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/categories", userID, helpers.CreateCategoryRequest{Name: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataOf(t, resp)["category_id"].(string)
}

// CreateListing opens a listing through the API and returns the listing and opening bid IDs
func CreateListing(t *testing.T, router http.Handler, userID string, req helpers.CreateListingRequest) (string, string) {
	t.Helper()

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/listings", userID, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataOf(t, resp)
	listing := data["listing"].(map[string]any)
	opening := data["opening_bid"].(map[string]any)
	return listing["listing_id"].(string), opening["bid_id"].(string)
}

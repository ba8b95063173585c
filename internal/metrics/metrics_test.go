package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.BidPlaced()
	m.BidPlaced()
	m.BidRejected("too_low")
	m.ListingCreated()
	m.ListingStateChanged("closed")
	m.WatchlistChanged("added")
	m.WatchlistChanged("removed")
	m.WatchlistChanged("added")
	m.CommentAdded()
	m.ObserveRequest(http.MethodPost, "/listings/:listing_id/bids", http.StatusCreated, 15*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.BidsPlaced))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BidsRejected.WithLabelValues("too_low")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ListingsCreated))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ListingStateChanges.WithLabelValues("closed")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.WatchlistChanges.WithLabelValues("added")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.WatchlistChanges.WithLabelValues("removed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CommentsAdded))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodPost, "/listings/:listing_id/bids", "201")))

	count, err := testutil.GatherAndCount(reg, "auctions_http_request_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.BidPlaced()
		m.BidRejected("too_low")
		m.ListingCreated()
		m.ListingStateChanged("open")
		m.WatchlistChanged("added")
		m.CommentAdded()
		m.ObserveRequest(http.MethodGet, "/listings", http.StatusOK, time.Millisecond)
	})
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the auction service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests            *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	BidsPlaced          prometheus.Counter
	BidsRejected        *prometheus.CounterVec
	ListingsCreated     prometheus.Counter
	ListingStateChanges *prometheus.CounterVec
	WatchlistChanges    *prometheus.CounterVec
	CommentsAdded       prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctions_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auctions_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		BidsPlaced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auctions_bids_placed_total",
				Help: "Total number of accepted bids, opening bids excluded",
			},
		),
		BidsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctions_bids_rejected_total",
				Help: "Total number of rejected bids by reason",
			},
			[]string{"reason"},
		),
		ListingsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auctions_listings_created_total",
				Help: "Total number of listings created",
			},
		),
		ListingStateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctions_listing_state_changes_total",
				Help: "Total number of listing open/close requests by target state",
			},
			[]string{"state"},
		),
		WatchlistChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctions_watchlist_changes_total",
				Help: "Total number of watchlist additions and removals",
			},
			[]string{"action"},
		),
		CommentsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auctions_comments_added_total",
				Help: "Total number of comments added",
			},
		),
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.BidsPlaced,
		m.BidsRejected,
		m.ListingsCreated,
		m.ListingStateChanges,
		m.WatchlistChanges,
		m.CommentsAdded,
	)

	return m
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) BidPlaced() {
	if m == nil {
		return
	}
	m.BidsPlaced.Inc()
}

func (m *Metrics) BidRejected(reason string) {
	if m == nil {
		return
	}
	m.BidsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ListingCreated() {
	if m == nil {
		return
	}
	m.ListingsCreated.Inc()
}

func (m *Metrics) ListingStateChanged(state string) {
	if m == nil {
		return
	}
	m.ListingStateChanges.WithLabelValues(state).Inc()
}

func (m *Metrics) WatchlistChanged(action string) {
	if m == nil {
		return
	}
	m.WatchlistChanges.WithLabelValues(action).Inc()
}

func (m *Metrics) CommentAdded() {
	if m == nil {
		return
	}
	m.CommentsAdded.Inc()
}

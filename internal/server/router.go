package server

import (
	"net/http"

	"auctions/internal/metrics"
	handler "auctions/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures all Gin routes for the application. With a nil
// registry no metrics are collected and /metrics is not served.
func SetupRouter(auctionService handler.AuctionServiceInterface, reg *prometheus.Registry) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware) // custom request logging

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
		router.Use(MetricsMiddleware(m))
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auctionHandler := handler.NewAuctionHandler(auctionService, m)
	auth := auctionHandler.RequireActor

	users := router.Group("/users")
	{
		users.POST("", auctionHandler.RegisterUserHandler)
		users.GET("/:user_id/listings", auctionHandler.GetListingsByUserHandler)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", auctionHandler.ListCategoriesHandler)
		categories.POST("", auth, auctionHandler.CreateCategoryHandler)
		categories.GET("/:category_id/listings", auctionHandler.ListCategoryListingsHandler)
	}

	listings := router.Group("/listings")
	{
		listings.GET("", auctionHandler.ListListingsHandler)
		listings.POST("", auth, auctionHandler.CreateListingHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.DELETE("/:listing_id", auth, auctionHandler.DeleteListingHandler)
		listings.PUT("/:listing_id/state", auth, auctionHandler.SetListingStateHandler)
		listings.GET("/:listing_id/bids", auctionHandler.GetBidsByListingHandler)
		listings.POST("/:listing_id/bids", auth, auctionHandler.PlaceBidHandler)
		listings.GET("/:listing_id/winning", auctionHandler.GetWinningBidHandler)
		listings.GET("/:listing_id/comments", auctionHandler.GetCommentsHandler)
		listings.POST("/:listing_id/comments", auth, auctionHandler.AddCommentHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("/:bid_id/outbid", auth, auctionHandler.OutbidHandler)
	}

	watchlist := router.Group("/watchlist", auth)
	{
		watchlist.GET("", auctionHandler.GetWatchlistHandler)
		watchlist.POST("/:listing_id", auctionHandler.ToggleWatchlistHandler)
		watchlist.PUT("/:listing_id", auctionHandler.AddToWatchlistHandler)
		watchlist.DELETE("/:listing_id", auctionHandler.RemoveFromWatchlistHandler)
	}

	return router
}

package handler

import (
	"errors"
	"net/http"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

// PlaceBidHandler handles POST /listings/:listing_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	listingID := c.Param("listing_id")
	bid, err := h.service.PlaceBid(c.Request.Context(), actor, listingID, req.Price)
	h.respondBid(c, "PlaceBidHandler", actor, listingID, bid, err)
}

// OutbidHandler handles POST /bids/:bid_id/outbid, bidding on the listing the given bid belongs to
func (h *AuctionHandler) OutbidHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "OutbidHandler", err)
		return
	}

	lastBidID := c.Param("bid_id")
	bid, err := h.service.PlaceBidOnLastBid(c.Request.Context(), actor, lastBidID, req.Price)
	h.respondBid(c, "OutbidHandler", actor, bid.ListingID, bid, err)
}

func (h *AuctionHandler) respondBid(c *gin.Context, handlerName string, actor model.Actor, listingID string, bid model.Bid, err error) {
	if err != nil {
		h.metrics.BidRejected(helpers.BidRejectionReason(err))
		helpers.RespondError(c, handlerName, err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
		})
		return
	}

	h.metrics.BidPlaced()
	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess(handlerName, "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    actor.UserID,
		"price":      bid.Price,
	})
}

// GetBidsByListingHandler handles GET /listings/:listing_id/bids
func (h *AuctionHandler) GetBidsByListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bids, err := h.service.GetBidsForListing(c.Request.Context(), listingID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		helpers.RespondError(c, "GetBidsByListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByListingHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(bids),
	})
}

// GetWinningBidHandler handles GET /listings/:listing_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bid, err := h.service.GetWinningBid(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"listing_id": listingID})
			return
		}
		helpers.RespondError(c, "GetWinningBidHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    bid.UserID,
		"price":      bid.Price,
	})
}

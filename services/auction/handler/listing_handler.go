package handler

import (
	"net/http"
	"strconv"
	"strings"

	model "auctions/internal/models"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

// ListListingsHandler handles GET /listings?active=true
func (h *AuctionHandler) ListListingsHandler(c *gin.Context) {
	var filter model.ListingFilter
	if raw := c.Query("active"); raw != "" {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			helpers.HandleBindError(c, "ListListingsHandler", err)
			return
		}
		filter.ActiveOnly = activeOnly
	}

	listings, err := h.service.ListListings(c.Request.Context(), filter)
	if err != nil {
		helpers.RespondError(c, "ListListingsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "listings retrieved successfully")
	helpers.LogSuccess("ListListingsHandler", "listings retrieved successfully", map[string]any{
		"active_only": filter.ActiveOnly,
		"count":       len(listings),
	})
}

// CreateListingHandler handles POST /listings
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	listing, openingBid, err := h.service.CreateListing(c.Request.Context(), actor, model.CreateListingInput{
		Title:         req.Title,
		Description:   req.Description,
		Picture:       req.Picture,
		CategoryID:    req.CategoryID,
		StartingPrice: req.StartingPrice,
	})
	if err != nil {
		helpers.RespondError(c, "CreateListingHandler", err, map[string]any{
			"user_id": actor.UserID,
			"title":   req.Title,
		})
		return
	}

	h.metrics.ListingCreated()
	resp := helpers.CreateListingResponse{
		Listing:    helpers.NewListingResponse(listing).WithCurrentPrice(openingBid.Price),
		OpeningBid: helpers.NewBidResponse(openingBid),
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id":     listing.ListingID,
		"user_id":        actor.UserID,
		"starting_price": openingBid.Price,
	})
}

// GetListingHandler handles GET /listings/:listing_id. The watching flag is
// included when the request names a user.
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	ctx := c.Request.Context()

	listing, err := h.service.GetListing(ctx, listingID)
	if err != nil {
		helpers.RespondError(c, "GetListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	resp := helpers.NewListingResponse(listing)
	currentMax, hasBids, err := h.service.CurrentMax(ctx, listingID)
	if err != nil {
		helpers.RespondError(c, "GetListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}
	if hasBids {
		resp = resp.WithCurrentPrice(currentMax)
	}
	if userID := strings.TrimSpace(c.GetHeader(helpers.ActorHeader)); userID != "" {
		resp = resp.WithWatching(h.service.IsWatching(ctx, model.Actor{UserID: userID}, listingID))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "listing retrieved successfully")
	helpers.LogSuccess("GetListingHandler", "listing retrieved successfully", map[string]any{"listing_id": listingID})
}

// SetListingStateHandler handles PUT /listings/:listing_id/state
func (h *AuctionHandler) SetListingStateHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req helpers.SetListingStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SetListingStateHandler", err)
		return
	}

	listingID := c.Param("listing_id")
	state := model.ListingState(req.State)
	listing, err := h.service.SetListingState(c.Request.Context(), actor, listingID, state)
	if err != nil {
		helpers.RespondError(c, "SetListingStateHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
			"state":      req.State,
		})
		return
	}

	h.metrics.ListingStateChanged(string(state))
	message := "auction closed"
	if listing.Active {
		message = "auction reopened"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponse(listing), message)
	helpers.LogSuccess("SetListingStateHandler", message, map[string]any{
		"listing_id": listingID,
		"user_id":    actor.UserID,
		"active":     listing.Active,
	})
}

// DeleteListingHandler handles DELETE /listings/:listing_id
func (h *AuctionHandler) DeleteListingHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	listingID := c.Param("listing_id")
	if err := h.service.DeleteListing(c.Request.Context(), actor, listingID); err != nil {
		helpers.RespondError(c, "DeleteListingHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"listing_id": listingID}, "listing deleted successfully")
	helpers.LogSuccess("DeleteListingHandler", "listing deleted successfully", map[string]any{
		"listing_id": listingID,
		"user_id":    actor.UserID,
	})
}

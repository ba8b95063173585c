package handler

import (
	"net/http"

	model "auctions/internal/models"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

// GetWatchlistHandler handles GET /watchlist
func (h *AuctionHandler) GetWatchlistHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	listings, err := h.service.GetWatchlist(c.Request.Context(), actor)
	if err != nil {
		helpers.RespondError(c, "GetWatchlistHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "watchlist retrieved successfully")
	helpers.LogSuccess("GetWatchlistHandler", "watchlist retrieved successfully", map[string]any{
		"user_id": actor.UserID,
		"count":   len(listings),
	})
}

// ToggleWatchlistHandler handles POST /watchlist/:listing_id
func (h *AuctionHandler) ToggleWatchlistHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	listingID := c.Param("listing_id")
	action, err := h.service.ToggleWatchlist(c.Request.Context(), actor, listingID)
	if err != nil {
		helpers.RespondError(c, "ToggleWatchlistHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
		})
		return
	}

	h.respondWatchlist(c, "ToggleWatchlistHandler", actor, listingID, action)
}

// AddToWatchlistHandler handles PUT /watchlist/:listing_id
func (h *AuctionHandler) AddToWatchlistHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	listingID := c.Param("listing_id")
	if err := h.service.AddToWatchlist(c.Request.Context(), actor, listingID); err != nil {
		helpers.RespondError(c, "AddToWatchlistHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
		})
		return
	}

	h.respondWatchlist(c, "AddToWatchlistHandler", actor, listingID, model.WatchlistAdded)
}

// RemoveFromWatchlistHandler handles DELETE /watchlist/:listing_id
func (h *AuctionHandler) RemoveFromWatchlistHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	listingID := c.Param("listing_id")
	if err := h.service.RemoveFromWatchlist(c.Request.Context(), actor, listingID); err != nil {
		helpers.RespondError(c, "RemoveFromWatchlistHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
		})
		return
	}

	h.respondWatchlist(c, "RemoveFromWatchlistHandler", actor, listingID, model.WatchlistRemoved)
}

func (h *AuctionHandler) respondWatchlist(c *gin.Context, handlerName string, actor model.Actor, listingID string, action model.WatchlistAction) {
	h.metrics.WatchlistChanged(string(action))

	message := "added to watchlist"
	if action == model.WatchlistRemoved {
		message = "deleted from watchlist"
	}
	resp := helpers.WatchlistResponse{
		ListingID: listingID,
		Action:    string(action),
		Watching:  action == model.WatchlistAdded,
	}

	utils.JSONResponse(c, http.StatusOK, resp, message)
	helpers.LogSuccess(handlerName, message, map[string]any{
		"listing_id": listingID,
		"user_id":    actor.UserID,
	})
}

// AddCommentHandler handles POST /listings/:listing_id/comments
func (h *AuctionHandler) AddCommentHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req helpers.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddCommentHandler", err)
		return
	}

	listingID := c.Param("listing_id")
	comment, err := h.service.AddComment(c.Request.Context(), actor, listingID, req.Text)
	if err != nil {
		helpers.RespondError(c, "AddCommentHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    actor.UserID,
		})
		return
	}

	h.metrics.CommentAdded()
	utils.JSONResponse(c, http.StatusCreated, helpers.NewCommentResponse(comment), "comment added successfully")
	helpers.LogSuccess("AddCommentHandler", "comment added successfully", map[string]any{
		"comment_id": comment.CommentID,
		"listing_id": listingID,
		"user_id":    actor.UserID,
	})
}

// GetCommentsHandler handles GET /listings/:listing_id/comments
func (h *AuctionHandler) GetCommentsHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	comments, err := h.service.GetComments(c.Request.Context(), listingID)
	if err != nil {
		helpers.RespondError(c, "GetCommentsHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	resp := make([]helpers.CommentResponse, 0, len(comments))
	for _, cm := range comments {
		resp = append(resp, helpers.NewCommentResponse(cm))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "comments retrieved successfully")
	helpers.LogSuccess("GetCommentsHandler", "comments retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(comments),
	})
}

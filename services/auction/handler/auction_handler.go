package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"auctions/internal/auctionerrors"
	"auctions/internal/metrics"
	model "auctions/internal/models"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_handler.go -package=handler

type AuctionServiceInterface interface {
	RegisterUser(ctx context.Context, username string) (model.User, error)
	GetUser(ctx context.Context, userID string) (model.User, error)

	CreateCategory(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
	CreateListing(ctx context.Context, actor model.Actor, in model.CreateListingInput) (model.Listing, model.Bid, error)
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	SetListingState(ctx context.Context, actor model.Actor, listingID string, state model.ListingState) (model.Listing, error)
	DeleteListing(ctx context.Context, actor model.Actor, listingID string) error

	CurrentMax(ctx context.Context, listingID string) (int64, bool, error)
	PlaceBid(ctx context.Context, actor model.Actor, listingID, priceRaw string) (model.Bid, error)
	PlaceBidOnLastBid(ctx context.Context, actor model.Actor, lastBidID, priceRaw string) (model.Bid, error)
	GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, listingID string) (model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)

	AddToWatchlist(ctx context.Context, actor model.Actor, listingID string) error
	RemoveFromWatchlist(ctx context.Context, actor model.Actor, listingID string) error
	ToggleWatchlist(ctx context.Context, actor model.Actor, listingID string) (model.WatchlistAction, error)
	IsWatching(ctx context.Context, actor model.Actor, listingID string) bool
	GetWatchlist(ctx context.Context, actor model.Actor) ([]model.Listing, error)

	AddComment(ctx context.Context, actor model.Actor, listingID, text string) (model.Comment, error)
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
	metrics *metrics.Metrics
}

// NewAuctionHandler creates the HTTP handlers; m may be nil
func NewAuctionHandler(service AuctionServiceInterface, m *metrics.Metrics) *AuctionHandler {
	return &AuctionHandler{service: service, metrics: m}
}

// RequireActor resolves the X-User-ID header to a registered user and aborts with 401 otherwise
func (h *AuctionHandler) RequireActor(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader(helpers.ActorHeader))
	if userID == "" {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "authentication required")
		c.Abort()
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrUserNotFound) {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "authentication required")
			utils.Warn("RequireActor: unknown user", map[string]any{"user_id": userID})
		} else {
			helpers.RespondError(c, "RequireActor", err, map[string]any{"user_id": userID})
		}
		c.Abort()
		return
	}

	helpers.SetActor(c, model.Actor{UserID: user.UserID, Username: user.Username})
	c.Next()
}

// actor returns the authenticated actor or writes a 401
func (h *AuctionHandler) actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := helpers.ActorFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "authentication required")
		return model.Actor{}, false
	}
	return actor, true
}

// RegisterUserHandler handles POST /users
func (h *AuctionHandler) RegisterUserHandler(c *gin.Context) {
	var req helpers.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterUserHandler", err)
		return
	}

	user, err := h.service.RegisterUser(c.Request.Context(), req.Username)
	if err != nil {
		helpers.RespondError(c, "RegisterUserHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewUserResponse(user), "user registered successfully")
	helpers.LogSuccess("RegisterUserHandler", "user registered successfully", map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

// GetListingsByUserHandler handles GET /users/:user_id/listings
func (h *AuctionHandler) GetListingsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	listings, err := h.service.GetListingsByBidder(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, auctionerrors.ErrUserNoBids) {
		helpers.RespondError(c, "GetListingsByUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "listings retrieved successfully")
	helpers.LogSuccess("GetListingsByUserHandler", "listings retrieved successfully", map[string]any{
		"user_id":        userID,
		"listings_count": len(listings),
	})
}

// CreateCategoryHandler handles POST /categories
func (h *AuctionHandler) CreateCategoryHandler(c *gin.Context) {
	var req helpers.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateCategoryHandler", err)
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		helpers.RespondError(c, "CreateCategoryHandler", err, map[string]any{"name": req.Name})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, category, "category created successfully")
	helpers.LogSuccess("CreateCategoryHandler", "category created successfully", map[string]any{
		"category_id": category.CategoryID,
		"name":        category.Name,
	})
}

// ListCategoriesHandler handles GET /categories
func (h *AuctionHandler) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListCategoriesHandler", err, nil)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
	helpers.LogSuccess("ListCategoriesHandler", "categories retrieved successfully", map[string]any{"count": len(categories)})
}

// ListCategoryListingsHandler handles GET /categories/:category_id/listings
func (h *AuctionHandler) ListCategoryListingsHandler(c *gin.Context) {
	categoryID := c.Param("category_id")
	listings, err := h.service.ListListings(c.Request.Context(), model.ListingFilter{CategoryID: categoryID})
	if err != nil {
		helpers.RespondError(c, "ListCategoryListingsHandler", err, map[string]any{"category_id": categoryID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "listings retrieved successfully")
	helpers.LogSuccess("ListCategoryListingsHandler", "listings retrieved successfully", map[string]any{
		"category_id": categoryID,
		"count":       len(listings),
	})
}

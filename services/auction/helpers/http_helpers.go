package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"auctions/utils"

	"github.com/gin-gonic/gin"
)

// ActorHeader carries the ID of the registered user making the request
const ActorHeader = "X-User-ID"

const actorKey = "actor"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auctionerrors.ErrPermissionDenied):
		return http.StatusForbidden, "permission denied"
	case errors.Is(err, auctionerrors.ErrInvalidCategory):
		return http.StatusBadRequest, "select one of the listed categories"
	case errors.Is(err, auctionerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, auctionerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrCategoryNotFound):
		return http.StatusNotFound, "category not found"
	case errors.Is(err, auctionerrors.ErrInvalidPrice):
		return http.StatusBadRequest, "price must be numeric and positive"
	case errors.Is(err, auctionerrors.ErrInvalidListing):
		return http.StatusBadRequest, "invalid listing details"
	case errors.Is(err, auctionerrors.ErrBlankComment):
		return http.StatusBadRequest, "comment must not be blank"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, auctionerrors.ErrListingNotActive):
		return http.StatusConflict, "auction is closed"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAlreadyInWatchlist):
		return http.StatusConflict, "listing already in watchlist"
	case errors.Is(err, auctionerrors.ErrNotInWatchlist):
		return http.StatusConflict, "listing not in watchlist"
	case errors.Is(err, auctionerrors.ErrUsernameTaken):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, auctionerrors.ErrCategoryExists):
		return http.StatusConflict, "category already exists"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for listing"
	case errors.Is(err, auctionerrors.ErrUserNoBids):
		return http.StatusOK, "no listings found for user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// BidRejectionReason labels a failed bid for metrics
func BidRejectionReason(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, auctionerrors.ErrListingNotActive):
		return "not_active"
	case errors.Is(err, auctionerrors.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, auctionerrors.ErrListingNotFound), errors.Is(err, auctionerrors.ErrBidNotFound):
		return "not_found"
	default:
		return "other"
	}
}

// RespondError logs err and writes the mapped JSON error
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// SetActor stores the authenticated actor on the request context
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// ActorFrom returns the actor stored by SetActor
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

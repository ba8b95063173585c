package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrBidNotFound        = errors.New("bid not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrNoBids             = errors.New("no bids found for listing")
	ErrUserNoBids         = errors.New("user has not placed any bids")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrCategoryExists     = errors.New("category already exists")
	ErrAlreadyInWatchlist = errors.New("listing already in watchlist")
	ErrNotInWatchlist     = errors.New("listing not in watchlist")
)

// business logic errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidListing   = errors.New("invalid listing")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrListingNotActive = errors.New("listing not active")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBlankComment     = errors.New("blank comment")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

package helpers

import (
	"time"

	model "auctions/internal/models"
	"auctions/internal/price"
)

// Request DTOs. Prices are raw strings such as "150" or "$ 1.50"; they are
// parsed by the service, not by the binder.
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateListingRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	Picture       string `json:"picture"`
	CategoryID    string `json:"category_id"`
	StartingPrice string `json:"starting_price" binding:"required"`
}

type SetListingStateRequest struct {
	State string `json:"state" binding:"required,oneof=open closed"`
}

type PlaceBidRequest struct {
	Price string `json:"price" binding:"required"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

// Response DTOs
type UserResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type BidResponse struct {
	BidID        string `json:"bid_id"`
	ListingID    string `json:"listing_id"`
	UserID       string `json:"user_id"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"price_display"`
	CreatedAt    string `json:"created_at"`
}

type ListingResponse struct {
	ListingID           string  `json:"listing_id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Picture             string  `json:"picture"`
	CategoryID          *string `json:"category_id"`
	AuthorID            string  `json:"author_id"`
	Active              bool    `json:"active"`
	CreatedAt           string  `json:"created_at"`
	CurrentPrice        *int64  `json:"current_price,omitempty"`
	CurrentPriceDisplay string  `json:"current_price_display,omitempty"`
	Watching            *bool   `json:"watching,omitempty"`
}

type CreateListingResponse struct {
	Listing    ListingResponse `json:"listing"`
	OpeningBid BidResponse     `json:"opening_bid"`
}

type WatchlistResponse struct {
	ListingID string `json:"listing_id"`
	Action    string `json:"action"`
	Watching  bool   `json:"watching"`
}

type CommentResponse struct {
	CommentID string `json:"comment_id"`
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Username:  u.Username,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:        b.BidID,
		ListingID:    b.ListingID,
		UserID:       b.UserID,
		Price:        b.Price,
		PriceDisplay: price.Format(b.Price),
		CreatedAt:    formatTime(b.CreatedAt),
	}
}

func NewListingResponse(l model.Listing) ListingResponse {
	return ListingResponse{
		ListingID:   l.ListingID,
		Title:       l.Title,
		Description: l.Description,
		Picture:     l.Picture,
		CategoryID:  l.CategoryID,
		AuthorID:    l.AuthorID,
		Active:      l.Active,
		CreatedAt:   formatTime(l.CreatedAt),
	}
}

func NewListingResponses(listings []model.Listing) []ListingResponse {
	resp := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, NewListingResponse(l))
	}
	return resp
}

// WithCurrentPrice attaches the leading bid price to a listing response
func (r ListingResponse) WithCurrentPrice(cents int64) ListingResponse {
	r.CurrentPrice = &cents
	r.CurrentPriceDisplay = price.Format(cents)
	return r
}

// WithWatching attaches the caller's watchlist membership to a listing response
func (r ListingResponse) WithWatching(watching bool) ListingResponse {
	r.Watching = &watching
	return r
}

func NewCommentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		CommentID: c.CommentID,
		ListingID: c.ListingID,
		UserID:    c.UserID,
		Text:      c.Text,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

package models

import "time"

// User represents a participant in the marketplace
type User struct {
	UserID    string    `json:"user_id" gorm:"column:user_id;primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups listings; a listing may have none
type Category struct {
	CategoryID string `json:"category_id" gorm:"column:category_id;primaryKey"`
	Name       string `json:"name" gorm:"uniqueIndex;not null"`
}

// Listing represents an item up for auction
type Listing struct {
	ListingID   string    `json:"listing_id" gorm:"column:listing_id;primaryKey"`
	Title       string    `json:"title" gorm:"size:30;not null"`
	Description string    `json:"description"`
	Picture     string    `json:"picture"`
	CategoryID  *string   `json:"category_id" gorm:"index"`
	AuthorID    string    `json:"author_id" gorm:"not null;index"`
	Active      bool      `json:"active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bid represents a user's priced offer on a listing. Price is in cents.
type Bid struct {
	BidID     string    `json:"bid_id" gorm:"column:bid_id;primaryKey"`
	ListingID string    `json:"listing_id" gorm:"not null;index"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	Price     int64     `json:"price" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistEntry marks a listing as followed by a user
type WatchlistEntry struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	ListingID string    `json:"listing_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a user's note on a listing
type Comment struct {
	CommentID string    `json:"comment_id" gorm:"column:comment_id;primaryKey"`
	ListingID string    `json:"listing_id" gorm:"not null;index"`
	UserID    string    `json:"user_id" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor carries the identity of the user performing an operation
type Actor struct {
	UserID   string
	Username string
}

// ListingState is the desired open/closed state of a listing
type ListingState string

const (
	ListingOpen   ListingState = "open"
	ListingClosed ListingState = "closed"
)

// Active reports whether the state accepts bids
func (s ListingState) Active() bool { return s == ListingOpen }

// Valid reports whether s is a known state
func (s ListingState) Valid() bool { return s == ListingOpen || s == ListingClosed }

// WatchlistAction is the outcome of a watchlist toggle
type WatchlistAction string

const (
	WatchlistAdded   WatchlistAction = "added"
	WatchlistRemoved WatchlistAction = "removed"
)

// CreateListingInput holds the raw fields submitted for a new listing
type CreateListingInput struct {
	Title         string
	Description   string
	Picture       string
	CategoryID    string
	StartingPrice string
}

// ListingFilter narrows a listing index query. Empty fields match everything.
type ListingFilter struct {
	CategoryID string
	ActiveOnly bool
}

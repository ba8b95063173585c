package auction

import (
	"auctions/internal/auctionerrors"
	"auctions/internal/models"
	"auctions/internal/price"
	"auctions/internal/repository"
	"auctions/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleLength bounds listing titles, in runes
	MaxTitleLength = 30
	// MaxNameLength bounds usernames and category names, in runes
	MaxNameLength = 30
)

// AuctionService holds the business rules for listings, bids, watchlists and comments
type AuctionService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB) *AuctionService {
	return &AuctionService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser creates a user with a unique username
func (s *AuctionService) RegisterUser(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateName(username); err != nil {
		return models.User{}, fmt.Errorf("service: %w - username %s", err, username)
	}

	user := models.User{
		UserID:    utils.GenerateID(),
		Username:  username,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("service: failed to register user %s: %w", username, err)
	}
	return user, nil
}

// GetUser returns a registered user
func (s *AuctionService) GetUser(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// CreateCategory adds a category with a unique name
func (s *AuctionService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Category{}, fmt.Errorf("service: %w - category name %s", err, name)
	}

	category := models.Category{CategoryID: utils.GenerateID(), Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return models.Category{}, fmt.Errorf("service: failed to create category %s: %w", name, err)
	}
	return category, nil
}

// ListCategories returns every category
func (s *AuctionService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

// ListListings returns the listing index, optionally narrowed to one category or to open listings
func (s *AuctionService) ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	if filter.CategoryID != "" {
		if _, err := s.repo.GetCategory(ctx, filter.CategoryID); err != nil {
			return nil, fmt.Errorf("service: failed to get category %s: %w", filter.CategoryID, err)
		}
	}

	listings, err := s.repo.ListListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}

// CreateListing opens a new listing together with the author's opening bid at the starting price
func (s *AuctionService) CreateListing(ctx context.Context, actor models.Actor, in models.CreateListingInput) (models.Listing, models.Bid, error) {
	if actor.UserID == "" {
		return models.Listing{}, models.Bid{}, fmt.Errorf("service: %w - missing author", auctionerrors.ErrInvalidInput)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return models.Listing{}, models.Bid{}, fmt.Errorf("service: %w - title must be 1 to %d characters", auctionerrors.ErrInvalidListing, MaxTitleLength)
	}

	var categoryID *string
	if id := strings.TrimSpace(in.CategoryID); id != "" {
		if _, err := s.repo.GetCategory(ctx, id); err != nil {
			if errors.Is(err, auctionerrors.ErrCategoryNotFound) {
				return models.Listing{}, models.Bid{}, fmt.Errorf("service: %w - category %s does not exist", auctionerrors.ErrInvalidCategory, id)
			}
			return models.Listing{}, models.Bid{}, fmt.Errorf("service: failed to check category %s: %w", id, err)
		}
		categoryID = &id
	}

	startingPrice, err := price.ParsePositive(in.StartingPrice)
	if err != nil {
		return models.Listing{}, models.Bid{}, fmt.Errorf("service: starting price: %w", err)
	}

	now := s.now()
	listing := models.Listing{
		ListingID:   utils.GenerateID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Picture:     strings.TrimSpace(in.Picture),
		CategoryID:  categoryID,
		AuthorID:    actor.UserID,
		Active:      true,
		CreatedAt:   now,
	}
	bid := models.Bid{
		BidID:     utils.GenerateID(),
		ListingID: listing.ListingID,
		UserID:    actor.UserID,
		Price:     startingPrice,
		CreatedAt: now,
	}

	if err := s.repo.CreateListingWithBid(ctx, listing, bid); err != nil {
		if errors.Is(err, auctionerrors.ErrCategoryNotFound) {
			return models.Listing{}, models.Bid{}, fmt.Errorf("service: %w - %v", auctionerrors.ErrInvalidCategory, err)
		}
		return models.Listing{}, models.Bid{}, fmt.Errorf("service: failed to create listing %q by user %s: %w", title, actor.UserID, err)
	}

	return listing, bid, nil
}

// GetListing returns a listing by ID
func (s *AuctionService) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	return listing, nil
}

// SetListingState opens or closes a listing. Only the author may do it;
// asking for the current state succeeds without touching storage.
func (s *AuctionService) SetListingState(ctx context.Context, actor models.Actor, listingID string, state models.ListingState) (models.Listing, error) {
	if !state.Valid() {
		return models.Listing{}, fmt.Errorf("service: %w - unknown listing state %q", auctionerrors.ErrInvalidInput, state)
	}

	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.AuthorID != actor.UserID {
		return models.Listing{}, fmt.Errorf("service: %w - user %s is not the author of listing %s", auctionerrors.ErrPermissionDenied, actor.UserID, listingID)
	}
	if listing.Active == state.Active() {
		return listing, nil
	}

	if err := s.repo.SetListingActive(ctx, listingID, state.Active()); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to set listing %s %s: %w", listingID, state, err)
	}
	listing.Active = state.Active()
	return listing, nil
}

// DeleteListing removes a listing and everything attached to it. Only the author may do it.
func (s *AuctionService) DeleteListing(ctx context.Context, actor models.Actor, listingID string) error {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.AuthorID != actor.UserID {
		return fmt.Errorf("service: %w - user %s is not the author of listing %s", auctionerrors.ErrPermissionDenied, actor.UserID, listingID)
	}

	if err := s.repo.DeleteListing(ctx, listingID); err != nil {
		return fmt.Errorf("service: failed to delete listing %s: %w", listingID, err)
	}
	return nil
}

// CurrentMax returns the highest bid price on a listing; ok is false when it has no bids
func (s *AuctionService) CurrentMax(ctx context.Context, listingID string) (maxPrice int64, ok bool, err error) {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return 0, false, err
	}

	winning, err := s.repo.GetWinningBid(ctx, listingID)
	if errors.Is(err, auctionerrors.ErrNoBids) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("service: failed to get current max for listing %s: %w", listingID, err)
	}
	return winning.Price, true, nil
}

// PlaceBid validates and records a bid. The checks run in this order: the
// listing exists, it is open, the price parses to a positive amount, and the
// amount beats the current leader. The open and leader checks are repeated
// inside the repository's per-listing critical section.
func (s *AuctionService) PlaceBid(ctx context.Context, actor models.Actor, listingID, priceRaw string) (models.Bid, error) {
	if actor.UserID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing bidder", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return models.Bid{}, err
	}
	if !listing.Active {
		return models.Bid{}, fmt.Errorf("service: %w - listing %s is closed", auctionerrors.ErrListingNotActive, listingID)
	}

	amount, err := price.ParsePositive(priceRaw)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: bid: %w", err)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		ListingID: listingID,
		UserID:    actor.UserID,
		Price:     amount,
		CreatedAt: s.now(),
	}

	if err := s.repo.RecordBid(ctx, bid, acceptBid(amount)); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for listing %s by user %s: %w", listingID, actor.UserID, err)
	}

	return bid, nil
}

// PlaceBidOnLastBid places a bid on the listing the given bid belongs to
func (s *AuctionService) PlaceBidOnLastBid(ctx context.Context, actor models.Actor, lastBidID, priceRaw string) (models.Bid, error) {
	if lastBidID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty bid ID", auctionerrors.ErrInvalidInput)
	}

	last, err := s.repo.GetBid(ctx, lastBidID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get bid %s: %w", lastBidID, err)
	}
	return s.PlaceBid(ctx, actor, last.ListingID, priceRaw)
}

// acceptBid is the rule applied while the listing is locked
func acceptBid(amount int64) repository.BidCheck {
	return func(listing models.Listing, leader *models.Bid) error {
		if !listing.Active {
			return fmt.Errorf("service: %w - listing %s is closed", auctionerrors.ErrListingNotActive, listing.ListingID)
		}
		if leader != nil && amount <= leader.Price {
			return fmt.Errorf("service: %w - current highest bid is %d", auctionerrors.ErrBidTooLow, leader.Price)
		}
		return nil
	}
}

// GetBidsForListing returns all bids for a specific listing
func (s *AuctionService) GetBidsForListing(ctx context.Context, listingID string) ([]models.Bid, error) {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return nil, err
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for a specific listing
func (s *AuctionService) GetWinningBid(ctx context.Context, listingID string) (models.Bid, error) {
	if listingID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	winningBid, err := s.repo.GetWinningBid(ctx, listingID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for listing %s: %w", listingID, err)
	}
	return winningBid, nil
}

// GetListingsByBidder returns all listings a user has placed bids on
func (s *AuctionService) GetListingsByBidder(ctx context.Context, userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	listings, err := s.repo.GetListingsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get listings for user %s: %w", userID, err)
	}
	return listings, nil
}

// AddToWatchlist adds a listing to the actor's watchlist
func (s *AuctionService) AddToWatchlist(ctx context.Context, actor models.Actor, listingID string) error {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return err
	}

	entry := models.WatchlistEntry{UserID: actor.UserID, ListingID: listingID, CreatedAt: s.now()}
	if err := s.repo.AddWatchlistEntry(ctx, entry); err != nil {
		return fmt.Errorf("service: failed to add listing %s to watchlist: %w", listingID, err)
	}
	return nil
}

// RemoveFromWatchlist removes a listing from the actor's watchlist
func (s *AuctionService) RemoveFromWatchlist(ctx context.Context, actor models.Actor, listingID string) error {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return err
	}

	if err := s.repo.RemoveWatchlistEntry(ctx, actor.UserID, listingID); err != nil {
		return fmt.Errorf("service: failed to remove listing %s from watchlist: %w", listingID, err)
	}
	return nil
}

// ToggleWatchlist removes the listing when the actor watches it and adds it otherwise
func (s *AuctionService) ToggleWatchlist(ctx context.Context, actor models.Actor, listingID string) (models.WatchlistAction, error) {
	if _, err := s.GetListing(ctx, listingID); err != nil {
		return "", err
	}

	watching, err := s.repo.IsWatching(ctx, actor.UserID, listingID)
	if err != nil {
		return "", fmt.Errorf("service: failed to check watchlist for listing %s: %w", listingID, err)
	}

	if watching {
		if err := s.repo.RemoveWatchlistEntry(ctx, actor.UserID, listingID); err != nil {
			return "", fmt.Errorf("service: failed to remove listing %s from watchlist: %w", listingID, err)
		}
		return models.WatchlistRemoved, nil
	}

	entry := models.WatchlistEntry{UserID: actor.UserID, ListingID: listingID, CreatedAt: s.now()}
	if err := s.repo.AddWatchlistEntry(ctx, entry); err != nil {
		return "", fmt.Errorf("service: failed to add listing %s to watchlist: %w", listingID, err)
	}
	return models.WatchlistAdded, nil
}

// IsWatching reports whether the listing is in the actor's watchlist. Lookup failures read as false.
func (s *AuctionService) IsWatching(ctx context.Context, actor models.Actor, listingID string) bool {
	if actor.UserID == "" || listingID == "" {
		return false
	}

	watching, err := s.repo.IsWatching(ctx, actor.UserID, listingID)
	if err != nil {
		utils.Warn("service: watchlist lookup failed", map[string]any{
			"user_id":    actor.UserID,
			"listing_id": listingID,
			"error":      err.Error(),
		})
		return false
	}
	return watching
}

// GetWatchlist returns the listings the actor follows
func (s *AuctionService) GetWatchlist(ctx context.Context, actor models.Actor) ([]models.Listing, error) {
	if actor.UserID == "" {
		return nil, fmt.Errorf("service: %w - missing user", auctionerrors.ErrInvalidInput)
	}

	listings, err := s.repo.GetWatchlist(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get watchlist for user %s: %w", actor.UserID, err)
	}
	return listings, nil
}

// AddComment attaches a non-blank comment to a listing
func (s *AuctionService) AddComment(ctx context.Context, actor models.Actor, listingID, text string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, fmt.Errorf("service: %w - comment text is empty", auctionerrors.ErrBlankComment)
	}
	if actor.UserID == "" || listingID == "" {
		return models.Comment{}, fmt.Errorf("service: %w - missing user or listing ID", auctionerrors.ErrInvalidInput)
	}

	comment := models.Comment{
		CommentID: utils.GenerateID(),
		ListingID: listingID,
		UserID:    actor.UserID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("service: failed to add comment to listing %s: %w", listingID, err)
	}
	return comment, nil
}

// GetComments returns the comments left on a listing
func (s *AuctionService) GetComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	comments, err := s.repo.GetComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

func validateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return auctionerrors.ErrInvalidInput
	}
	return nil
}

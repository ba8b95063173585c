package repository

import (
	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// BidCheck validates a bid against the listing and its current leader
// (nil when the listing has no bids). It runs while the listing is locked.
type BidCheck func(listing model.Listing, leader *model.Bid) error

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)

	CreateCategory(ctx context.Context, category model.Category) error
	GetCategory(ctx context.Context, categoryID string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateListingWithBid(ctx context.Context, listing model.Listing, bid model.Bid) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
	SetListingActive(ctx context.Context, listingID string, active bool) error
	DeleteListing(ctx context.Context, listingID string) error

	RecordBid(ctx context.Context, bid model.Bid, check BidCheck) error
	GetBid(ctx context.Context, bidID string) (model.Bid, error)
	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, listingID string) (model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)

	AddWatchlistEntry(ctx context.Context, entry model.WatchlistEntry) error
	RemoveWatchlistEntry(ctx context.Context, userID, listingID string) error
	IsWatching(ctx context.Context, userID, listingID string) (bool, error)
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)

	AddComment(ctx context.Context, comment model.Comment) error
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)
}

type watchKey struct {
	userID    string
	listingID string
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu         sync.RWMutex
	users      map[string]model.User
	categories map[string]model.Category
	listings   map[string]model.Listing
	bids       map[string][]model.Bid // key: listingID -> value: bids in insertion order
	bidIndex   map[string]model.Bid
	userBids   map[string][]string // key: userID -> value: listingIDs the user has bid on
	watchlist  map[watchKey]model.WatchlistEntry
	comments   map[string][]model.Comment
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[string]model.User),
		categories: make(map[string]model.Category),
		listings:   make(map[string]model.Listing),
		bids:       make(map[string][]model.Bid),
		bidIndex:   make(map[string]model.Bid),
		userBids:   make(map[string][]string),
		watchlist:  make(map[watchKey]model.WatchlistEntry),
		comments:   make(map[string][]model.Comment),
	}
}

// CreateUser stores a new user; usernames are unique
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUsernameTaken)
		}
	}
	r.users[user.UserID] = user
	return nil
}

// GetUser returns a user by ID
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// CreateCategory stores a new category; names are unique
func (r *MemoryRepo) CreateCategory(_ context.Context, category model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Name == category.Name {
			return fmt.Errorf("create category %s: %w", category.Name, auctionerrors.ErrCategoryExists)
		}
	}
	r.categories[category.CategoryID] = category
	return nil
}

// GetCategory returns a category by ID
func (r *MemoryRepo) GetCategory(_ context.Context, categoryID string) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[categoryID]
	if !ok {
		return model.Category{}, fmt.Errorf("get category %s: %w", categoryID, auctionerrors.ErrCategoryNotFound)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name
func (r *MemoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// CreateListingWithBid stores a listing together with its opening bid
func (r *MemoryRepo) CreateListingWithBid(_ context.Context, listing model.Listing, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.CategoryID != nil {
		if _, ok := r.categories[*listing.CategoryID]; !ok {
			return fmt.Errorf("create listing %s: %w", listing.ListingID, auctionerrors.ErrCategoryNotFound)
		}
	}
	if bid.ListingID != listing.ListingID {
		return fmt.Errorf("create listing %s: opening bid belongs to %s: %w", listing.ListingID, bid.ListingID, auctionerrors.ErrInvalidListing)
	}

	r.listings[listing.ListingID] = listing
	r.appendBidLocked(bid)
	return nil
}

// GetListing returns a listing by ID
func (r *MemoryRepo) GetListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return listing, nil
}

// ListListings returns listings matching filter, newest first
func (r *MemoryRepo) ListListings(_ context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0)
	for _, l := range r.listings {
		if matchesFilter(l, filter) {
			listings = append(listings, l)
		}
	}
	sortNewestFirst(listings)
	return listings, nil
}

// SetListingActive opens or closes a listing
func (r *MemoryRepo) SetListingActive(_ context.Context, listingID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return fmt.Errorf("set listing %s active: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	listing.Active = active
	r.listings[listingID] = listing
	return nil
}

// DeleteListing removes a listing with its bids, comments and watchlist entries
func (r *MemoryRepo) DeleteListing(_ context.Context, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listingID]; !ok {
		return fmt.Errorf("delete listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	for _, b := range r.bids[listingID] {
		delete(r.bidIndex, b.BidID)
		r.userBids[b.UserID] = removeID(r.userBids[b.UserID], listingID)
		if len(r.userBids[b.UserID]) == 0 {
			delete(r.userBids, b.UserID)
		}
	}
	delete(r.bids, listingID)
	delete(r.comments, listingID)
	for k := range r.watchlist {
		if k.listingID == listingID {
			delete(r.watchlist, k)
		}
	}
	delete(r.listings, listingID)
	return nil
}

// RecordBid runs check against the current leader and records the bid if it passes.
// The read of the leader and the append happen under one write lock.
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid, check BidCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[bid.ListingID]
	if !ok {
		return fmt.Errorf("record bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}

	var leader *model.Bid
	if w, ok := winningBid(r.bids[bid.ListingID]); ok {
		leader = &w
	}
	if check != nil {
		if err := check(listing, leader); err != nil {
			return err
		}
	}

	r.appendBidLocked(bid)
	return nil
}

// GetBid returns a bid by ID
func (r *MemoryRepo) GetBid(_ context.Context, bidID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bid, ok := r.bidIndex[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	return bid, nil
}

// GetBidsByListing returns all bids for a listing
func (r *MemoryRepo) GetBidsByListing(_ context.Context, listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[listingID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetWinningBid returns the highest bid for a listing
func (r *MemoryRepo) GetWinningBid(_ context.Context, listingID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	winning, ok := winningBid(r.bids[listingID])
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}
	return winning, nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *MemoryRepo) GetListingsByBidder(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listingIDs, ok := r.userBids[userID]
	if !ok || len(listingIDs) == 0 {
		return nil, fmt.Errorf("get listings for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}

	listings := make([]model.Listing, 0, len(listingIDs))
	for _, id := range listingIDs {
		if listing, exists := r.listings[id]; exists {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// AddWatchlistEntry adds a listing to a user's watchlist
func (r *MemoryRepo) AddWatchlistEntry(_ context.Context, entry model.WatchlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[entry.ListingID]; !ok {
		return fmt.Errorf("add listing %s to watchlist: %w", entry.ListingID, auctionerrors.ErrListingNotFound)
	}
	key := watchKey{userID: entry.UserID, listingID: entry.ListingID}
	if _, exists := r.watchlist[key]; exists {
		return fmt.Errorf("add listing %s to watchlist of %s: %w", entry.ListingID, entry.UserID, auctionerrors.ErrAlreadyInWatchlist)
	}
	r.watchlist[key] = entry
	return nil
}

// RemoveWatchlistEntry removes a listing from a user's watchlist
func (r *MemoryRepo) RemoveWatchlistEntry(_ context.Context, userID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := watchKey{userID: userID, listingID: listingID}
	if _, exists := r.watchlist[key]; !exists {
		return fmt.Errorf("remove listing %s from watchlist of %s: %w", listingID, userID, auctionerrors.ErrNotInWatchlist)
	}
	delete(r.watchlist, key)
	return nil
}

// IsWatching reports whether the listing is in the user's watchlist
func (r *MemoryRepo) IsWatching(_ context.Context, userID, listingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.watchlist[watchKey{userID: userID, listingID: listingID}]
	return ok, nil
}

// GetWatchlist returns the listings a user follows, most recently added first
func (r *MemoryRepo) GetWatchlist(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]model.WatchlistEntry, 0)
	for k, e := range r.watchlist {
		if k.userID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })

	listings := make([]model.Listing, 0, len(entries))
	for _, e := range entries {
		if listing, ok := r.listings[e.ListingID]; ok {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// AddComment stores a comment on a listing
func (r *MemoryRepo) AddComment(_ context.Context, comment model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[comment.ListingID]; !ok {
		return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}
	r.comments[comment.ListingID] = append(r.comments[comment.ListingID], comment)
	return nil
}

// GetComments returns the comments of a listing in the order they were made
func (r *MemoryRepo) GetComments(_ context.Context, listingID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return append([]model.Comment{}, r.comments[listingID]...), nil
}

// appendBidLocked records bid; r.mu must be held for writing
func (r *MemoryRepo) appendBidLocked(bid model.Bid) {
	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], bid)
	r.bidIndex[bid.BidID] = bid

	for _, id := range r.userBids[bid.UserID] {
		if id == bid.ListingID {
			return
		}
	}
	r.userBids[bid.UserID] = append(r.userBids[bid.UserID], bid.ListingID)
}

// winningBid picks the highest price; on a tie the earlier bid wins
func winningBid(bids []model.Bid) (model.Bid, bool) {
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Price > winning.Price || (b.Price == winning.Price && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, true
}

func matchesFilter(l model.Listing, filter model.ListingFilter) bool {
	if filter.ActiveOnly && !l.Active {
		return false
	}
	if filter.CategoryID != "" && (l.CategoryID == nil || *l.CategoryID != filter.CategoryID) {
		return false
	}
	return true
}

func sortNewestFirst(listings []model.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ListingID < listings[j].ListingID
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

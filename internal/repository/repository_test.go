package repository

import (
	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Helper to create a new Listing
func newListing(listingID, authorID string, createdAt time.Time) model.Listing {
	return model.Listing{
		ListingID:   listingID,
		Title:       "Listing " + listingID,
		Description: fmt.Sprintf("%s description", listingID),
		AuthorID:    authorID,
		Active:      true,
		CreatedAt:   createdAt,
	}
}

// Helper to create a new Bid
func newBid(bidID, listingID, userID string, price int64, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		ListingID: listingID,
		UserID:    userID,
		Price:     price,
		CreatedAt: createdAt,
	}
}

// acceptHigher mirrors the bidding rule applied by the service
func acceptHigher(price int64) BidCheck {
	return func(listing model.Listing, leader *model.Bid) error {
		if !listing.Active {
			return auctionerrors.ErrListingNotActive
		}
		if leader != nil && price <= leader.Price {
			return auctionerrors.ErrBidTooLow
		}
		return nil
	}
}

// seedListing creates a listing with an opening bid from its author
func seedListing(t *testing.T, repo AuctionDB, listingID string, startingPrice int64, createdAt time.Time) model.Listing {
	t.Helper()

	listing := newListing(listingID, "author", createdAt)
	opening := newBid(listingID+"-opening", listingID, "author", startingPrice, createdAt)
	require.NoError(t, repo.CreateListingWithBid(context.Background(), listing, opening))
	return listing
}

// testAuctionDB checks the behavior every AuctionDB implementation shares
func testAuctionDB(t *testing.T, newRepo func(t *testing.T) AuctionDB) {
	ctx := context.Background()

	t.Run("users_are_unique_by_username", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.CreateUser(ctx, model.User{UserID: "u1", Username: "alice", CreatedAt: base}))
		err := repo.CreateUser(ctx, model.User{UserID: "u2", Username: "alice", CreatedAt: base})
		require.ErrorIs(t, err, auctionerrors.ErrUsernameTaken)

		user, err := repo.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)

		_, err = repo.GetUser(ctx, "u2")
		require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
	})

	t.Run("categories", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "c2", Name: "potions"}))
		require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "c1", Name: "brooms"}))
		err := repo.CreateCategory(ctx, model.Category{CategoryID: "c3", Name: "brooms"})
		require.ErrorIs(t, err, auctionerrors.ErrCategoryExists)

		categories, err := repo.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		require.Equal(t, "brooms", categories[0].Name)
		require.Equal(t, "potions", categories[1].Name)

		_, err = repo.GetCategory(ctx, "c9")
		require.ErrorIs(t, err, auctionerrors.ErrCategoryNotFound)
	})

	t.Run("create_listing_with_bid", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "brooms", Name: "brooms"}))

		tests := []struct {
			name       string
			categoryID *string
			bidListing string
			wantErr    error
		}{
			{name: "without_category", bidListing: "self"},
			{name: "with_category", categoryID: ptr("brooms"), bidListing: "self"},
			{name: "unknown_category", categoryID: ptr("ghost"), bidListing: "self", wantErr: auctionerrors.ErrCategoryNotFound},
			{name: "bid_for_other_listing", bidListing: "other", wantErr: auctionerrors.ErrInvalidListing},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				listing := newListing(tc.name, "author", base)
				listing.CategoryID = tc.categoryID
				bidListing := listing.ListingID
				if tc.bidListing != "self" {
					bidListing = tc.bidListing
				}

				err := repo.CreateListingWithBid(ctx, listing, newBid(tc.name+"-bid", bidListing, "author", 100, base))
				if tc.wantErr != nil {
					require.ErrorIs(t, err, tc.wantErr)
					_, getErr := repo.GetListing(ctx, listing.ListingID)
					require.ErrorIs(t, getErr, auctionerrors.ErrListingNotFound, "no listing may be left without its opening bid")
					return
				}

				require.NoError(t, err)
				got, err := repo.GetListing(ctx, listing.ListingID)
				require.NoError(t, err)
				require.True(t, got.Active)
				require.Equal(t, listing.CategoryID, got.CategoryID)

				winning, err := repo.GetWinningBid(ctx, listing.ListingID)
				require.NoError(t, err)
				require.Equal(t, int64(100), winning.Price)
			})
		}
	})

	t.Run("list_listings_filters_and_orders", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateCategory(ctx, model.Category{CategoryID: "brooms", Name: "brooms"}))

		old := newListing("old", "author", base)
		require.NoError(t, repo.CreateListingWithBid(ctx, old, newBid("old-bid", "old", "author", 1, base)))
		newer := newListing("newer", "author", base.Add(time.Hour))
		newer.CategoryID = ptr("brooms")
		require.NoError(t, repo.CreateListingWithBid(ctx, newer, newBid("newer-bid", "newer", "author", 1, base)))
		require.NoError(t, repo.SetListingActive(ctx, "newer", false))

		all, err := repo.ListListings(ctx, model.ListingFilter{})
		require.NoError(t, err)
		require.Equal(t, []string{"newer", "old"}, listingIDs(all))

		active, err := repo.ListListings(ctx, model.ListingFilter{ActiveOnly: true})
		require.NoError(t, err)
		require.Equal(t, []string{"old"}, listingIDs(active))

		inCategory, err := repo.ListListings(ctx, model.ListingFilter{CategoryID: "brooms"})
		require.NoError(t, err)
		require.Equal(t, []string{"newer"}, listingIDs(inCategory))
	})

	t.Run("set_listing_active", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)

		require.NoError(t, repo.SetListingActive(ctx, "l1", false))
		got, err := repo.GetListing(ctx, "l1")
		require.NoError(t, err)
		require.False(t, got.Active)

		require.NoError(t, repo.SetListingActive(ctx, "l1", true))
		got, err = repo.GetListing(ctx, "l1")
		require.NoError(t, err)
		require.True(t, got.Active)

		require.ErrorIs(t, repo.SetListingActive(ctx, "missing", true), auctionerrors.ErrListingNotFound)
	})

	t.Run("record_bid_applies_check", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)

		tests := []struct {
			name    string
			bid     model.Bid
			wantErr error
		}{
			{name: "higher_bid", bid: newBid("b1", "l1", "bob", 150, base.Add(time.Minute))},
			{name: "equal_bid", bid: newBid("b2", "l1", "carol", 150, base.Add(2*time.Minute)), wantErr: auctionerrors.ErrBidTooLow},
			{name: "lower_bid", bid: newBid("b3", "l1", "carol", 120, base.Add(3*time.Minute)), wantErr: auctionerrors.ErrBidTooLow},
			{name: "next_higher_bid", bid: newBid("b4", "l1", "carol", 151, base.Add(4*time.Minute))},
			{name: "listing_not_found", bid: newBid("b5", "lx", "carol", 500, base), wantErr: auctionerrors.ErrListingNotFound},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				err := repo.RecordBid(ctx, tc.bid, acceptHigher(tc.bid.Price))
				if tc.wantErr != nil {
					require.ErrorIs(t, err, tc.wantErr)
					_, getErr := repo.GetBid(ctx, tc.bid.BidID)
					require.ErrorIs(t, getErr, auctionerrors.ErrBidNotFound)
					return
				}
				require.NoError(t, err)
				got, err := repo.GetBid(ctx, tc.bid.BidID)
				require.NoError(t, err)
				require.Equal(t, tc.bid.Price, got.Price)
			})
		}

		bids, err := repo.GetBidsByListing(ctx, "l1")
		require.NoError(t, err)
		require.Len(t, bids, 3)
		for i := 1; i < len(bids); i++ {
			require.Less(t, bids[i-1].Price, bids[i].Price)
		}

		winning, err := repo.GetWinningBid(ctx, "l1")
		require.NoError(t, err)
		require.Equal(t, "b4", winning.BidID)
	})

	t.Run("record_bid_on_closed_listing", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)
		require.NoError(t, repo.SetListingActive(ctx, "l1", false))

		err := repo.RecordBid(ctx, newBid("b1", "l1", "bob", 1000, base), acceptHigher(1000))
		require.ErrorIs(t, err, auctionerrors.ErrListingNotActive)
	})

	t.Run("no_bids", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetBidsByListing(ctx, "nothing")
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)
		_, err = repo.GetWinningBid(ctx, "nothing")
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)
		_, err = repo.GetListingsByBidder(ctx, "nobody")
		require.ErrorIs(t, err, auctionerrors.ErrUserNoBids)
		_, err = repo.GetBid(ctx, "nothing")
		require.ErrorIs(t, err, auctionerrors.ErrBidNotFound)
	})

	t.Run("listings_by_bidder", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)
		seedListing(t, repo, "l2", 100, base.Add(time.Hour))
		seedListing(t, repo, "l3", 100, base.Add(2*time.Hour))

		require.NoError(t, repo.RecordBid(ctx, newBid("b1", "l1", "bob", 200, base), acceptHigher(200)))
		require.NoError(t, repo.RecordBid(ctx, newBid("b2", "l1", "bob", 300, base), acceptHigher(300)))
		require.NoError(t, repo.RecordBid(ctx, newBid("b3", "l3", "bob", 200, base), acceptHigher(200)))

		listings, err := repo.GetListingsByBidder(ctx, "bob")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"l1", "l3"}, listingIDs(listings))
	})

	t.Run("watchlist", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)
		seedListing(t, repo, "l2", 100, base)

		entry := model.WatchlistEntry{UserID: "bob", ListingID: "l1", CreatedAt: base}
		require.NoError(t, repo.AddWatchlistEntry(ctx, entry))
		require.ErrorIs(t, repo.AddWatchlistEntry(ctx, entry), auctionerrors.ErrAlreadyInWatchlist)
		require.NoError(t, repo.AddWatchlistEntry(ctx, model.WatchlistEntry{UserID: "bob", ListingID: "l2", CreatedAt: base.Add(time.Minute)}))
		require.ErrorIs(t, repo.AddWatchlistEntry(ctx, model.WatchlistEntry{UserID: "bob", ListingID: "lx"}), auctionerrors.ErrListingNotFound)

		watching, err := repo.IsWatching(ctx, "bob", "l1")
		require.NoError(t, err)
		require.True(t, watching)
		watching, err = repo.IsWatching(ctx, "carol", "l1")
		require.NoError(t, err)
		require.False(t, watching)

		listings, err := repo.GetWatchlist(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, []string{"l2", "l1"}, listingIDs(listings))

		require.NoError(t, repo.RemoveWatchlistEntry(ctx, "bob", "l1"))
		require.ErrorIs(t, repo.RemoveWatchlistEntry(ctx, "bob", "l1"), auctionerrors.ErrNotInWatchlist)

		empty, err := repo.GetWatchlist(ctx, "carol")
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("comments", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)

		require.NoError(t, repo.AddComment(ctx, model.Comment{CommentID: "c1", ListingID: "l1", UserID: "bob", Text: "first", CreatedAt: base}))
		require.NoError(t, repo.AddComment(ctx, model.Comment{CommentID: "c2", ListingID: "l1", UserID: "carol", Text: "second", CreatedAt: base.Add(time.Second)}))
		err := repo.AddComment(ctx, model.Comment{CommentID: "c3", ListingID: "lx", UserID: "bob", Text: "lost", CreatedAt: base})
		require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)

		comments, err := repo.GetComments(ctx, "l1")
		require.NoError(t, err)
		require.Len(t, comments, 2)
		require.Equal(t, "first", comments[0].Text)
		require.Equal(t, "second", comments[1].Text)

		_, err = repo.GetComments(ctx, "lx")
		require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)
	})

	t.Run("delete_listing_cascades", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)
		seedListing(t, repo, "l2", 100, base)

		require.NoError(t, repo.RecordBid(ctx, newBid("b1", "l1", "bob", 200, base), acceptHigher(200)))
		require.NoError(t, repo.RecordBid(ctx, newBid("b2", "l2", "bob", 200, base), acceptHigher(200)))
		require.NoError(t, repo.AddWatchlistEntry(ctx, model.WatchlistEntry{UserID: "bob", ListingID: "l1", CreatedAt: base}))
		require.NoError(t, repo.AddComment(ctx, model.Comment{CommentID: "c1", ListingID: "l1", UserID: "bob", Text: "hi", CreatedAt: base}))

		require.NoError(t, repo.DeleteListing(ctx, "l1"))
		require.ErrorIs(t, repo.DeleteListing(ctx, "l1"), auctionerrors.ErrListingNotFound)

		_, err := repo.GetListing(ctx, "l1")
		require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)
		_, err = repo.GetBid(ctx, "b1")
		require.ErrorIs(t, err, auctionerrors.ErrBidNotFound)
		_, err = repo.GetBidsByListing(ctx, "l1")
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)
		watching, err := repo.IsWatching(ctx, "bob", "l1")
		require.NoError(t, err)
		require.False(t, watching)

		listings, err := repo.GetListingsByBidder(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, []string{"l2"}, listingIDs(listings))

		// the other listing is untouched
		winning, err := repo.GetWinningBid(ctx, "l2")
		require.NoError(t, err)
		require.Equal(t, "b2", winning.BidID)
	})

	t.Run("concurrent_bids_single_winner_per_price", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 100, base)

		const bidders = 20
		var wg sync.WaitGroup
		errs := make(chan error, bidders)
		for i := 0; i < bidders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bid := newBid(fmt.Sprintf("race-%d", i), "l1", fmt.Sprintf("user-%d", i), 500, base.Add(time.Duration(i)*time.Millisecond))
				errs <- repo.RecordBid(ctx, bid, acceptHigher(500))
			}(i)
		}
		wg.Wait()
		close(errs)

		accepted := 0
		for err := range errs {
			if err == nil {
				accepted++
				continue
			}
			require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow), "unexpected error: %v", err)
		}
		require.Equal(t, 1, accepted)

		bids, err := repo.GetBidsByListing(ctx, "l1")
		require.NoError(t, err)
		require.Len(t, bids, 2)
	})

	t.Run("concurrent_increasing_bids_stay_monotonic", func(t *testing.T) {
		repo := newRepo(t)
		seedListing(t, repo, "l1", 1, base)

		var wg sync.WaitGroup
		for i := 2; i <= 60; i++ {
			wg.Add(1)
			go func(price int64) {
				defer wg.Done()
				bid := newBid(fmt.Sprintf("inc-%d", price), "l1", "bidder", price, base.Add(time.Duration(price)*time.Millisecond))
				err := repo.RecordBid(ctx, bid, acceptHigher(price))
				if err != nil && !errors.Is(err, auctionerrors.ErrBidTooLow) {
					t.Errorf("unexpected error: %v", err)
				}
			}(int64(i))
		}
		wg.Wait()

		winning, err := repo.GetWinningBid(ctx, "l1")
		require.NoError(t, err)
		require.Equal(t, int64(60), winning.Price)

		bids, err := repo.GetBidsByListing(ctx, "l1")
		require.NoError(t, err)
		seen := make(map[int64]bool, len(bids))
		for _, b := range bids {
			require.False(t, seen[b.Price], "price %d accepted twice", b.Price)
			seen[b.Price] = true
		}
	})
}

func TestMemoryRepo(t *testing.T) {
	t.Parallel()

	testAuctionDB(t, func(t *testing.T) AuctionDB { return NewMemoryRepo() })
}

func TestMemoryRepo_ConcurrentReadsAndWrites(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	ctx := context.Background()
	seedListing(t, repo, "l1", 100, base)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_ = repo.RecordBid(ctx, newBid(fmt.Sprintf("b%d", i), "l1", "bob", int64(200+i), base), acceptHigher(int64(200+i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = repo.GetWinningBid(ctx, "l1")
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = repo.AddWatchlistEntry(ctx, model.WatchlistEntry{UserID: fmt.Sprintf("u%d", i), ListingID: "l1", CreatedAt: base})
			} else {
				_, _ = repo.GetWatchlist(ctx, fmt.Sprintf("u%d", i-1))
			}
		}(i)
	}
	wg.Wait()

	winning, err := repo.GetWinningBid(ctx, "l1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, winning.Price, int64(200))
}

func TestMemoryRepo_ConcurrentBidsRecordedInIncreasingOrder(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	ctx := context.Background()
	seedListing(t, repo, "l1", 1, base)

	var wg sync.WaitGroup
	for i := 2; i <= 100; i++ {
		wg.Add(1)
		go func(price int64) {
			defer wg.Done()
			_ = repo.RecordBid(ctx, newBid(fmt.Sprintf("b%d", price), "l1", "bob", price, base), acceptHigher(price))
		}(int64(i))
	}
	wg.Wait()

	// bids are kept in the order they were accepted
	bids, err := repo.GetBidsByListing(ctx, "l1")
	require.NoError(t, err)
	for i := 1; i < len(bids); i++ {
		require.Less(t, bids[i-1].Price, bids[i].Price)
	}
}

func TestMemoryRepo_WinningBidTieGoesToEarliest(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	ctx := context.Background()
	seedListing(t, repo, "l1", 100, base)

	// bypass the check to store two bids at the same price
	require.NoError(t, repo.RecordBid(ctx, newBid("late", "l1", "carol", 300, base.Add(time.Hour)), nil))
	require.NoError(t, repo.RecordBid(ctx, newBid("early", "l1", "bob", 300, base.Add(time.Minute)), nil))

	winning, err := repo.GetWinningBid(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, "early", winning.BidID)
}

func listingIDs(listings []model.Listing) []string {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ListingID)
	}
	return ids
}

func ptr(s string) *string { return &s }

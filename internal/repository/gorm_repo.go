package repository

import (
	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Supported relational drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// GormRepo is an AuctionDB backed by SQLite or PostgreSQL through gorm
type GormRepo struct {
	db    *gorm.DB
	locks sync.Map // key: listingID -> value: *sync.Mutex serializing bids in this process
}

// OpenGormRepo connects to the database and migrates the schema
func OpenGormRepo(driver, dsn string) (*GormRepo, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("open repository: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	// SQLite allows a single writer; one pooled connection also keeps ":memory:" databases shared
	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return NewGormRepo(db)
}

// NewGormRepo wraps an open gorm connection and migrates the schema
func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Listing{},
		&model.Bid{},
		&model.WatchlistEntry{},
		&model.Comment{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormRepo{db: db}, nil
}

// Close releases the underlying connection pool
func (r *GormRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser stores a new user; usernames are unique
func (r *GormRepo) CreateUser(ctx context.Context, user model.User) error {
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUsernameTaken)
		}
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser returns a user by ID
func (r *GormRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Take(&user, "user_id = ?", userID).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, notFound(err, auctionerrors.ErrUserNotFound))
	}
	return user, nil
}

// CreateCategory stores a new category; names are unique
func (r *GormRepo) CreateCategory(ctx context.Context, category model.Category) error {
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create category %s: %w", category.Name, auctionerrors.ErrCategoryExists)
		}
		return fmt.Errorf("create category %s: %w", category.Name, err)
	}
	return nil
}

// GetCategory returns a category by ID
func (r *GormRepo) GetCategory(ctx context.Context, categoryID string) (model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Take(&category, "category_id = ?", categoryID).Error; err != nil {
		return model.Category{}, fmt.Errorf("get category %s: %w", categoryID, notFound(err, auctionerrors.ErrCategoryNotFound))
	}
	return category, nil
}

// ListCategories returns all categories ordered by name
func (r *GormRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := make([]model.Category, 0)
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateListingWithBid stores a listing and its opening bid in one transaction
func (r *GormRepo) CreateListingWithBid(ctx context.Context, listing model.Listing, bid model.Bid) error {
	if bid.ListingID != listing.ListingID {
		return fmt.Errorf("create listing %s: opening bid belongs to %s: %w", listing.ListingID, bid.ListingID, auctionerrors.ErrInvalidListing)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if listing.CategoryID != nil {
			var count int64
			if err := tx.Model(&model.Category{}).Where("category_id = ?", *listing.CategoryID).Count(&count).Error; err != nil {
				return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
			}
			if count == 0 {
				return fmt.Errorf("create listing %s: %w", listing.ListingID, auctionerrors.ErrCategoryNotFound)
			}
		}

		if err := tx.Create(&listing).Error; err != nil {
			return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
		}
		if err := tx.Create(&bid).Error; err != nil {
			return fmt.Errorf("create opening bid for listing %s: %w", listing.ListingID, err)
		}
		return nil
	})
}

// GetListing returns a listing by ID
func (r *GormRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).Take(&listing, "listing_id = ?", listingID).Error; err != nil {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, notFound(err, auctionerrors.ErrListingNotFound))
	}
	return listing, nil
}

// ListListings returns listings matching filter, newest first
func (r *GormRepo) ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	q := r.db.WithContext(ctx).Model(&model.Listing{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}

	listings := make([]model.Listing, 0)
	if err := q.Order("created_at desc").Order("listing_id").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// SetListingActive opens or closes a listing
func (r *GormRepo) SetListingActive(ctx context.Context, listingID string, active bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		if err := lockListing(tx).Take(&listing, "listing_id = ?", listingID).Error; err != nil {
			return fmt.Errorf("set listing %s active: %w", listingID, notFound(err, auctionerrors.ErrListingNotFound))
		}
		if err := tx.Model(&model.Listing{}).Where("listing_id = ?", listingID).Update("active", active).Error; err != nil {
			return fmt.Errorf("set listing %s active: %w", listingID, err)
		}
		return nil
	})
}

// DeleteListing removes a listing with its bids, comments and watchlist entries
func (r *GormRepo) DeleteListing(ctx context.Context, listingID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		if err := lockListing(tx).Take(&listing, "listing_id = ?", listingID).Error; err != nil {
			return fmt.Errorf("delete listing %s: %w", listingID, notFound(err, auctionerrors.ErrListingNotFound))
		}

		for _, dependent := range []any{&model.Bid{}, &model.Comment{}, &model.WatchlistEntry{}} {
			if err := tx.Where("listing_id = ?", listingID).Delete(dependent).Error; err != nil {
				return fmt.Errorf("delete listing %s: %w", listingID, err)
			}
		}
		if err := tx.Where("listing_id = ?", listingID).Delete(&model.Listing{}).Error; err != nil {
			return fmt.Errorf("delete listing %s: %w", listingID, err)
		}
		return nil
	})
	if err == nil {
		r.locks.Delete(listingID)
	}
	return err
}

// RecordBid runs check against the current leader and records the bid if it passes.
// The leader read and the insert share a transaction holding the listing row lock.
func (r *GormRepo) RecordBid(ctx context.Context, bid model.Bid, check BidCheck) error {
	mu := r.listingLock(bid.ListingID)
	mu.Lock()
	defer mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		if err := lockListing(tx).Take(&listing, "listing_id = ?", bid.ListingID).Error; err != nil {
			return fmt.Errorf("record bid for listing %s: %w", bid.ListingID, notFound(err, auctionerrors.ErrListingNotFound))
		}

		var leader *model.Bid
		var top model.Bid
		err := tx.Where("listing_id = ?", bid.ListingID).Order("price desc").Order("created_at").Take(&top).Error
		switch {
		case err == nil:
			leader = &top
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("record bid for listing %s: %w", bid.ListingID, err)
		}

		if check != nil {
			if err := check(listing, leader); err != nil {
				return err
			}
		}

		if err := tx.Create(&bid).Error; err != nil {
			return fmt.Errorf("record bid for listing %s: %w", bid.ListingID, err)
		}
		return nil
	})
}

// GetBid returns a bid by ID
func (r *GormRepo) GetBid(ctx context.Context, bidID string) (model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).Take(&bid, "bid_id = ?", bidID).Error; err != nil {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, notFound(err, auctionerrors.ErrBidNotFound))
	}
	return bid, nil
}

// GetBidsByListing returns all bids for a listing, oldest first
func (r *GormRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for a listing; on a tie the earlier bid wins
func (r *GormRepo) GetWinningBid(ctx context.Context, listingID string) (model.Bid, error) {
	var bid model.Bid
	err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Order("price desc").Order("created_at").Take(&bid).Error
	if err != nil {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, notFound(err, auctionerrors.ErrNoBids))
	}
	return bid, nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *GormRepo) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	db := r.db.WithContext(ctx)
	bidListings := db.Model(&model.Bid{}).Select("listing_id").Where("user_id = ?", userID)

	var listings []model.Listing
	if err := db.Where("listing_id IN (?)", bidListings).Order("created_at desc").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("get listings for user %s: %w", userID, err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("get listings for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}
	return listings, nil
}

// AddWatchlistEntry adds a listing to a user's watchlist
func (r *GormRepo) AddWatchlistEntry(ctx context.Context, entry model.WatchlistEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.requireListing(tx, entry.ListingID); err != nil {
			return fmt.Errorf("add listing %s to watchlist: %w", entry.ListingID, err)
		}

		var count int64
		err := tx.Model(&model.WatchlistEntry{}).
			Where("user_id = ? AND listing_id = ?", entry.UserID, entry.ListingID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("add listing %s to watchlist: %w", entry.ListingID, err)
		}
		if count > 0 {
			return fmt.Errorf("add listing %s to watchlist of %s: %w", entry.ListingID, entry.UserID, auctionerrors.ErrAlreadyInWatchlist)
		}

		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("add listing %s to watchlist of %s: %w", entry.ListingID, entry.UserID, auctionerrors.ErrAlreadyInWatchlist)
			}
			return fmt.Errorf("add listing %s to watchlist: %w", entry.ListingID, err)
		}
		return nil
	})
}

// RemoveWatchlistEntry removes a listing from a user's watchlist
func (r *GormRepo) RemoveWatchlistEntry(ctx context.Context, userID, listingID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&model.WatchlistEntry{})
	if res.Error != nil {
		return fmt.Errorf("remove listing %s from watchlist: %w", listingID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("remove listing %s from watchlist of %s: %w", listingID, userID, auctionerrors.ErrNotInWatchlist)
	}
	return nil
}

// IsWatching reports whether the listing is in the user's watchlist
func (r *GormRepo) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WatchlistEntry{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check watchlist of %s: %w", userID, err)
	}
	return count > 0, nil
}

// GetWatchlist returns the listings a user follows, most recently added first
func (r *GormRepo) GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	listings := make([]model.Listing, 0)
	err := r.db.WithContext(ctx).Model(&model.Listing{}).
		Select("listings.*").
		Joins("JOIN watchlist_entries ON watchlist_entries.listing_id = listings.listing_id").
		Where("watchlist_entries.user_id = ?", userID).
		Order("watchlist_entries.created_at desc").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("get watchlist of %s: %w", userID, err)
	}
	return listings, nil
}

// AddComment stores a comment on a listing
func (r *GormRepo) AddComment(ctx context.Context, comment model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.requireListing(tx, comment.ListingID); err != nil {
			return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, err)
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, err)
		}
		return nil
	})
}

// GetComments returns the comments of a listing, oldest first
func (r *GormRepo) GetComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	db := r.db.WithContext(ctx)
	if err := r.requireListing(db, listingID); err != nil {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, err)
	}

	comments := make([]model.Comment, 0)
	if err := db.Where("listing_id = ?", listingID).Order("created_at").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

func (r *GormRepo) requireListing(db *gorm.DB, listingID string) error {
	var count int64
	if err := db.Model(&model.Listing{}).Where("listing_id = ?", listingID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return auctionerrors.ErrListingNotFound
	}
	return nil
}

func (r *GormRepo) listingLock(listingID string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(listingID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// lockListing adds SELECT ... FOR UPDATE where the dialect has row locks
func lockListing(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == DriverPostgres {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

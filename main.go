package main

import (
	"context"
	"fmt"
	"os"

	auction "auctions/internal/auctionService"
	"auctions/internal/config"
	model "auctions/internal/models"
	"auctions/internal/repository"
	"auctions/internal/server"
	"auctions/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		utils.Fatal("failed to open repository", map[string]any{"storage": cfg.Storage, "error": err.Error()})
	}
	defer closeRepo()

	auctionSvc := auction.NewAuctionService(repo)

	if cfg.Seed {
		if err := prepopulate(context.Background(), auctionSvc); err != nil {
			utils.Fatal("failed to seed data", map[string]any{"error": err.Error()})
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := server.SetupRouter(auctionSvc, reg)

	utils.Info("starting auction server", map[string]any{"addr": cfg.Addr(), "storage": cfg.Storage})
	if err := router.Run(cfg.Addr()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// openRepository returns the storage selected by the configuration and a func releasing it
func openRepository(cfg config.Config) (repository.AuctionDB, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite, config.StoragePostgres:
		driver := repository.DriverSQLite
		if cfg.Storage == config.StoragePostgres {
			driver = repository.DriverPostgres
		}
		repo, err := repository.OpenGormRepo(driver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				utils.Warn("failed to close repository", map[string]any{"error": err.Error()})
			}
		}, nil
	default:
		return repository.NewMemoryRepo(), func() {}, nil
	}
}

// prepopulate adds demo users, categories and listings unless the store already has categories
func prepopulate(ctx context.Context, svc *auction.AuctionService) error {
	existing, err := svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		utils.Info("seed skipped, store is not empty", map[string]any{"categories": len(existing)})
		return nil
	}

	alice, err := svc.RegisterUser(ctx, "alice")
	if err != nil {
		return err
	}
	bob, err := svc.RegisterUser(ctx, "bob")
	if err != nil {
		return err
	}

	categories := make(map[string]string)
	for _, name := range []string{"potions", "brooms", "dark arts"} {
		category, err := svc.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		categories[name] = category.CategoryID
	}

	listings := []struct {
		author model.User
		input  model.CreateListingInput
	}{
		{alice, model.CreateListingInput{Title: "Felix Felicis", Description: "One vial, barely used", CategoryID: categories["potions"], StartingPrice: "120.00"}},
		{alice, model.CreateListingInput{Title: "Nimbus 2000", Description: "Fast and well kept", CategoryID: categories["brooms"], StartingPrice: "450.00"}},
		{bob, model.CreateListingInput{Title: "Invisibility cloak", Description: "Slightly worn", StartingPrice: "1,500.00"}},
	}
	for _, l := range listings {
		actor := model.Actor{UserID: l.author.UserID, Username: l.author.Username}
		if _, _, err := svc.CreateListing(ctx, actor, l.input); err != nil {
			return err
		}
	}

	utils.Info("seeded demo data", map[string]any{
		"users":      2,
		"categories": len(categories),
		"listings":   len(listings),
	})
	return nil
}

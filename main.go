package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/cache"
	"auction-engine/internal/config"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		utils.Fatal("cannot load config", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.Log.Level)

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to open repository", map[string]any{"driver": cfg.Storage.Driver, "error": err.Error()})
	}
	defer repo.Close()

	if cfg.Storage.SeedDemo {
		if err := seedDemoData(ctx, repo); err != nil {
			utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	opts := []bidding.Option{bidding.WithMaxAttempts(cfg.Bidding.MaxAttempts)}
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Password, cfg.Redis.TTL, cacheNamespace(cfg))
		if err != nil {
			utils.Fatal("failed to connect to redis", map[string]any{"addr": cfg.Redis.Addr, "error": err.Error()})
		}
		defer redisCache.Close()
		opts = append(opts, bidding.WithCache(redisCache))
	}

	biddingSvc := bidding.NewBiddingService(repo, opts...)
	router := server.SetupRouter(biddingSvc)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Driver,
			"redis":   cfg.Redis.Enabled,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down auction server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("graceful shutdown failed", map[string]any{"error": err.Error()})
	}
}

// openRepository selects the storage backend from config
func openRepository(ctx context.Context, cfg config.Config) (repository.AuctionDB, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return repository.NewPostgresRepo(ctx, cfg.Postgres.URL, repository.PGPoolConfig{
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
			MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
		})
	case "memory", "":
		return repository.NewMemoryRepo(), nil
	default:
		return nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
	}
}

// cacheNamespace scopes cached highest bids to the ledger they mirror. An
// in-memory ledger starts empty on every run, so it never reuses old keys.
func cacheNamespace(cfg config.Config) string {
	if cfg.Storage.Driver == "postgres" {
		return cfg.Redis.Namespace
	}
	return "memory-" + utils.GenerateID()
}

// seedDemoData adds sample products and auctions to the repo
func seedDemoData(ctx context.Context, repo repository.AuctionDB) error {
	now := time.Now().UTC()
	products := []model.Product{
		{ProductID: "product1", Name: "title1", Description: "description1", BasePrice: decimal.RequireFromString("100.00")},
		{ProductID: "product2", Name: "title2", Description: "description2", BasePrice: decimal.RequireFromString("200.00")},
		{ProductID: "product3", Name: "title3", Description: "description3", BasePrice: decimal.RequireFromString("150.00")},
	}
	for _, p := range products {
		if err := repo.AddProduct(ctx, p); err != nil {
			return err
		}
	}

	for i, p := range products {
		auction := model.Auction{
			AuctionID: "auction" + p.ProductID[len("product"):],
			ProductID: p.ProductID,
			StartTime: now.Add(-time.Hour),
			EndTime:   now.Add(time.Duration(i+1) * 24 * time.Hour),
			Status:    model.StatusActive,
		}
		if err := repo.CreateAuction(ctx, auction); err != nil && !errors.Is(err, biddingerrors.ErrAuctionExists) {
			return err
		}
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

// Schema creates the tables used by PostgresRepo
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id  TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image_url   TEXT NOT NULL DEFAULT '',
		tags        TEXT NOT NULL DEFAULT '',
		base_price  NUMERIC(18, 2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auctions (
		auction_id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products (product_id),
		start_time TIMESTAMPTZ NOT NULL,
		end_time   TIMESTAMPTZ NOT NULL,
		status     TEXT NOT NULL,
		CHECK (start_time <= end_time)
	)`,
	`CREATE TABLE IF NOT EXISTS bids (
		bid_id     TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL REFERENCES auctions (auction_id) ON DELETE RESTRICT,
		bidder_id  TEXT NOT NULL,
		amount     NUMERIC(18, 2) NOT NULL CHECK (amount > 0),
		placed_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS bids_auction_amount_idx ON bids (auction_id, amount DESC)`,
	`CREATE INDEX IF NOT EXISTS bids_bidder_placed_idx ON bids (bidder_id, placed_at DESC)`,
}

// PGPoolConfig tunes the pgx connection pool
type PGPoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PostgresRepo implements AuctionDB on PostgreSQL. The auction row lock taken
// by AppendBid is the per-auction serialization point.
type PostgresRepo struct {
	Pool *pgxpool.Pool
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresRepo connects to url and applies the schema
func NewPostgresRepo(ctx context.Context, url string, poolCfg PGPoolConfig) (*PostgresRepo, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = poolCfg.MaxConnLifetime
	}
	if poolCfg.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, biddingerrors.Unavailable("connect to postgres", err)
	}
	repo := &PostgresRepo{Pool: pool}
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate applies Schema
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := r.Pool.Exec(ctx, stmt); err != nil {
			return biddingerrors.Unavailable("migrate schema", err)
		}
	}
	return nil
}

// GetAuction fetches an auction by ID
func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	err := r.Pool.QueryRow(ctx, `
		SELECT auction_id, product_id, start_time, end_time, status
		FROM auctions
		WHERE auction_id = $1
	`, auctionID).Scan(&a.AuctionID, &a.ProductID, &a.StartTime, &a.EndTime, &a.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, biddingerrors.Unavailable("get auction "+auctionID, err)
	}
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()
	return a, nil
}

// ListAuctions returns every auction ordered by start time
func (r *PostgresRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT auction_id, product_id, start_time, end_time, status
		FROM auctions
		ORDER BY start_time, auction_id
	`)
	if err != nil {
		return nil, biddingerrors.Unavailable("list auctions", err)
	}
	defer rows.Close()

	auctions := []model.Auction{}
	for rows.Next() {
		var a model.Auction
		if err := rows.Scan(&a.AuctionID, &a.ProductID, &a.StartTime, &a.EndTime, &a.Status); err != nil {
			return nil, biddingerrors.Unavailable("scan auction", err)
		}
		a.StartTime = a.StartTime.UTC()
		a.EndTime = a.EndTime.UTC()
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, biddingerrors.Unavailable("list auctions", err)
	}
	return auctions, nil
}

// CreateAuction inserts a new auction; an existing ID is ErrAuctionExists
func (r *PostgresRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	if _, err := r.GetProduct(ctx, auction.ProductID); err != nil {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, err)
	}
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO auctions (auction_id, product_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
	`, auction.AuctionID, auction.ProductID, auction.StartTime, auction.EndTime, auction.Status)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	if err != nil {
		return biddingerrors.Unavailable("create auction "+auction.AuctionID, err)
	}
	return nil
}

// SetAuctionStatus updates the declared status of an auction
func (r *PostgresRepo) SetAuctionStatus(ctx context.Context, auctionID, status string) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE auctions SET status = $2 WHERE auction_id = $1`, auctionID, status)
	if err != nil {
		return biddingerrors.Unavailable("set status for auction "+auctionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set status for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return nil
}

// DeleteAuction removes an auction that has no bids
func (r *PostgresRepo) DeleteAuction(ctx context.Context, auctionID string) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return biddingerrors.Unavailable("begin delete auction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockAuction(ctx, tx, auctionID); err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}

	var count int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM bids WHERE auction_id = $1`, auctionID).Scan(&count); err != nil {
		return biddingerrors.Unavailable("count bids", err)
	}
	if count > 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionHasBids)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM auctions WHERE auction_id = $1`, auctionID); err != nil {
		return biddingerrors.Unavailable("delete auction "+auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return biddingerrors.Unavailable("commit delete auction", err)
	}
	return nil
}

// GetProduct fetches a product by ID
func (r *PostgresRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	var (
		p         model.Product
		basePrice string
	)
	err := r.Pool.QueryRow(ctx, `
		SELECT product_id, name, description, image_url, tags, base_price::text
		FROM products
		WHERE product_id = $1
	`, productID).Scan(&p.ProductID, &p.Name, &p.Description, &p.ImageURL, &p.Tags, &basePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, biddingerrors.Unavailable("get product "+productID, err)
	}
	if p.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return model.Product{}, fmt.Errorf("parse base price for product %s: %w", productID, err)
	}
	return p, nil
}

// AddProduct inserts or replaces a product
func (r *PostgresRepo) AddProduct(ctx context.Context, product model.Product) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO products (product_id, name, description, image_url, tags, base_price)
		VALUES ($1, $2, $3, $4, $5, $6::text::numeric)
		ON CONFLICT (product_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			tags = EXCLUDED.tags,
			base_price = EXCLUDED.base_price
	`, product.ProductID, product.Name, product.Description, product.ImageURL, product.Tags, product.BasePrice.String())
	if err != nil {
		return biddingerrors.Unavailable("add product "+product.ProductID, err)
	}
	return nil
}

// HighestBid returns the maximum accepted amount for an auction
func (r *PostgresRepo) HighestBid(ctx context.Context, auctionID string) (decimal.Decimal, bool, error) {
	amount, found, err := highestBid(ctx, r.Pool, auctionID)
	if err != nil {
		return decimal.Zero, false, biddingerrors.Unavailable("highest bid for auction "+auctionID, err)
	}
	return amount, found, nil
}

func highestBid(ctx context.Context, q querier, auctionID string) (decimal.Decimal, bool, error) {
	var maxAmount *string
	if err := q.QueryRow(ctx, `SELECT max(amount)::text FROM bids WHERE auction_id = $1`, auctionID).Scan(&maxAmount); err != nil {
		return decimal.Zero, false, err
	}
	if maxAmount == nil {
		return decimal.Zero, false, nil
	}
	amount, err := decimal.NewFromString(*maxAmount)
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

func lockAuction(ctx context.Context, q querier, auctionID string) error {
	var id string
	err := q.QueryRow(ctx, `SELECT auction_id FROM auctions WHERE auction_id = $1 FOR UPDATE`, auctionID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return biddingerrors.ErrAuctionNotFound
	}
	if err != nil {
		return biddingerrors.Unavailable("lock auction "+auctionID, err)
	}
	return nil
}

// AppendBid locks the auction row, re-reads the maximum and inserts only if it
// still matches expected.
func (r *PostgresRepo) AppendBid(ctx context.Context, bid model.Bid, expected *decimal.Decimal) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return biddingerrors.Unavailable("begin append bid", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockAuction(ctx, tx, bid.AuctionID); err != nil {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, err)
	}

	current, found, err := highestBid(ctx, tx, bid.AuctionID)
	if err != nil {
		return biddingerrors.Unavailable("read highest bid", err)
	}
	if found != (expected != nil) || (found && !current.Equal(*expected)) {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrLedgerConflict)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO bids (bid_id, auction_id, bidder_id, amount, placed_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
	`, bid.BidID, bid.AuctionID, bid.BidderID, bid.Amount.String(), bid.PlacedAt); err != nil {
		return biddingerrors.Unavailable("insert bid", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return biddingerrors.Unavailable("commit bid", err)
	}
	return nil
}

// ListByAuction returns all bids for an auction, highest amount first
func (r *PostgresRepo) ListByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	return r.listBids(ctx, `
		SELECT bid_id, auction_id, bidder_id, amount::text, placed_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, placed_at
	`, auctionID)
}

// ListByBidder returns all bids placed by a bidder, most recent first
func (r *PostgresRepo) ListByBidder(ctx context.Context, bidderID string) ([]model.Bid, error) {
	return r.listBids(ctx, `
		SELECT bid_id, auction_id, bidder_id, amount::text, placed_at
		FROM bids
		WHERE bidder_id = $1
		ORDER BY placed_at DESC, amount DESC
	`, bidderID)
}

func (r *PostgresRepo) listBids(ctx context.Context, query, key string) ([]model.Bid, error) {
	rows, err := r.Pool.Query(ctx, query, key)
	if err != nil {
		return nil, biddingerrors.Unavailable("list bids", err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var (
			b      model.Bid
			amount string
		)
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.BidderID, &amount, &b.PlacedAt); err != nil {
			return nil, biddingerrors.Unavailable("scan bid", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount for bid %s: %w", b.BidID, err)
		}
		b.PlacedAt = b.PlacedAt.UTC()
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, biddingerrors.Unavailable("list bids", err)
	}
	return bids, nil
}

// Ping checks the pool can reach the database
func (r *PostgresRepo) Ping(ctx context.Context) error {
	if err := r.Pool.Ping(ctx); err != nil {
		return biddingerrors.Unavailable("postgres ping", err)
	}
	return nil
}

// Close releases the connection pool
func (r *PostgresRepo) Close() {
	r.Pool.Close()
}

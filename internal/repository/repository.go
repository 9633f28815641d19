package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// AuctionStore holds auction records and their declared status
type AuctionStore interface {
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	CreateAuction(ctx context.Context, auction model.Auction) error
	SetAuctionStatus(ctx context.Context, auctionID, status string) error
	// DeleteAuction refuses with ErrAuctionHasBids once any bid is recorded
	DeleteAuction(ctx context.Context, auctionID string) error
}

// ProductStore is the read side of the product catalogue used for base prices
type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	AddProduct(ctx context.Context, product model.Product) error
}

// BidLedger is the append-only store of accepted bids
type BidLedger interface {
	// HighestBid returns the maximum amount recorded for the auction; found is
	// false when the auction has no bids.
	HighestBid(ctx context.Context, auctionID string) (amount decimal.Decimal, found bool, err error)
	// AppendBid records bid only if the auction's current highest amount still
	// equals expected (nil meaning no bids). Otherwise it returns ErrLedgerConflict.
	AppendBid(ctx context.Context, bid model.Bid, expected *decimal.Decimal) error
	// ListByAuction returns bids ordered by amount descending
	ListByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	// ListByBidder returns bids ordered by placement time descending
	ListByBidder(ctx context.Context, bidderID string) ([]model.Bid, error)
}

// AuctionDB aggregates every store the bidding service depends on
type AuctionDB interface {
	AuctionStore
	ProductStore
	BidLedger
	Ping(ctx context.Context) error
	Close()
}

package bidding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/cache"
	"auction-engine/internal/clock"
	"auction-engine/internal/metrics"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// DefaultMaxAttempts bounds how often a bid is re-validated after losing a commit race
const DefaultMaxAttempts = 3

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo        repository.AuctionDB
	clock       clock.Clock
	cache       cache.HighestBidCache
	maxAttempts int

	// auctions whose cached highest bid may be behind the ledger, keyed by
	// auction ID; the value changes on every failed cache write
	staleCache sync.Map
	staleSeq   atomic.Uint64
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock replaces the system clock
func WithClock(c clock.Clock) Option {
	return func(s *BiddingService) { s.clock = c }
}

// WithCache sets the highest-bid cache
func WithCache(c cache.HighestBidCache) Option {
	return func(s *BiddingService) { s.cache = c }
}

// WithMaxAttempts sets the commit attempt bound; values below 1 are ignored
func WithMaxAttempts(n int) Option {
	return func(s *BiddingService) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:        repo,
		clock:       clock.System{},
		cache:       cache.Nop{},
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid validates a bid against the auction's current state and commits it
// with a conditional append. A commit that loses to a concurrent bid is
// re-validated against the fresh highest bid until maxAttempts is reached.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	start := time.Now()
	defer metrics.ObservePlaceBid(start)

	if auctionID == "" || bidderID == "" {
		metrics.IncBid(outcomeLabel(biddingerrors.ErrInvalidBid))
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", biddingerrors.ErrInvalidBid)
	}

	now := s.clock.Now()

	for attempt := 1; ; attempt++ {
		snapshot, err := s.validateBid(ctx, auctionID, amount, now)
		if err != nil {
			metrics.IncBid(outcomeLabel(err))
			return models.Bid{}, fmt.Errorf("service: bid on auction %s: %w", auctionID, err)
		}

		bid := models.Bid{
			BidID:     utils.GenerateID(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			PlacedAt:  now,
		}

		err = s.repo.AppendBid(ctx, bid, snapshot)
		if err == nil {
			s.raiseCachedHighest(ctx, bid.AuctionID, bid.Amount)
			metrics.IncBid("accepted")
			return bid, nil
		}

		switch {
		case errors.Is(err, biddingerrors.ErrLedgerConflict):
			metrics.IncConflict()
			utils.Debug("bid commit lost to a concurrent bid", map[string]any{
				"auction_id": auctionID,
				"bidder_id":  bidderID,
				"attempt":    attempt,
			})
			if attempt >= s.maxAttempts {
				metrics.IncBid(outcomeLabel(biddingerrors.ErrSuperseded))
				return models.Bid{}, fmt.Errorf("service: bid on auction %s after %d attempts: %w",
					auctionID, attempt, biddingerrors.Reject(biddingerrors.ErrSuperseded))
			}
		case errors.Is(err, biddingerrors.ErrAuctionNotFound):
			// deleted between validation and commit
			metrics.IncBid(outcomeLabel(biddingerrors.ErrAuctionNotFound))
			return models.Bid{}, fmt.Errorf("service: bid on auction %s: %w",
				auctionID, biddingerrors.Reject(biddingerrors.ErrAuctionNotFound))
		default:
			metrics.IncBid(outcomeLabel(biddingerrors.ErrStoreUnavailable))
			return models.Bid{}, biddingerrors.Unavailable("service: record bid for auction "+auctionID, err)
		}
	}
}

// validateBid runs the admission checks in order and returns the highest-bid
// snapshot the commit must be conditioned on (nil when there are no bids).
func (s *BiddingService) validateBid(ctx context.Context, auctionID string, amount decimal.Decimal, now time.Time) (*decimal.Decimal, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if errors.Is(err, biddingerrors.ErrAuctionNotFound) {
		return nil, biddingerrors.Reject(biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return nil, biddingerrors.Unavailable("load auction", err)
	}

	if !auction.IsOpen(now) {
		return nil, biddingerrors.Reject(biddingerrors.ErrAuctionNotActive)
	}

	highest, found, err := s.repo.HighestBid(ctx, auctionID)
	if err != nil {
		return nil, biddingerrors.Unavailable("load highest bid", err)
	}

	var snapshot *decimal.Decimal
	floor := highest
	if found {
		snapshot = &highest
	} else {
		floor, err = s.basePrice(ctx, auction.ProductID)
		if err != nil {
			return nil, err
		}
	}

	if amount.LessThanOrEqual(floor) {
		return nil, biddingerrors.RejectTooLow(floor)
	}
	if !validAmount(amount) {
		return nil, biddingerrors.Reject(biddingerrors.ErrInvalidAmount)
	}
	return snapshot, nil
}

// basePrice returns the product's floor. A dangling product reference has no
// floor beyond zero.
func (s *BiddingService) basePrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if errors.Is(err, biddingerrors.ErrProductNotFound) {
		utils.Warn("auction references unknown product", map[string]any{"product_id": productID})
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, biddingerrors.Unavailable("load product", err)
	}
	return product.BasePrice, nil
}

// raiseCachedHighest pushes a committed amount into the cache. When that fails
// the auction is marked stale so reads go to the ledger until the cache has
// been repaired, and the cached value is evicted if Redis still answers.
func (s *BiddingService) raiseCachedHighest(ctx context.Context, auctionID string, amount decimal.Decimal) bool {
	err := s.cache.Raise(ctx, auctionID, amount)
	if err == nil {
		return true
	}
	s.staleCache.Store(auctionID, s.staleSeq.Add(1))
	utils.Warn("failed to update highest bid cache", map[string]any{
		"auction_id": auctionID,
		"amount":     amount.String(),
		"error":      err.Error(),
	})
	if err := s.cache.Forget(ctx, auctionID); err != nil {
		utils.Warn("failed to evict highest bid cache entry", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
	return false
}

// validAmount accepts positive amounts with at most two decimal places
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(models.MinorUnits))
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return "invalid_bid"
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return "auction_not_found"
	case errors.Is(err, biddingerrors.ErrAuctionNotActive):
		return "auction_not_active"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return "bid_too_low"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, biddingerrors.ErrSuperseded):
		return "superseded"
	default:
		return "store_unavailable"
	}
}

// Health checks the backing store
func (s *BiddingService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

package bidding

import (
	"context"
	"errors"
	"fmt"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/metrics"
	"auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// HighestBid returns the highest accepted amount for an auction, or the
// product's base price when no bids exist.
func (s *BiddingService) HighestBid(ctx context.Context, auctionID string) (decimal.Decimal, error) {
	if auctionID == "" {
		return decimal.Zero, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service: failed to get auction %s: %w", auctionID, wrapStoreErr(err))
	}

	amount, found, err := s.currentHighest(ctx, auctionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service: failed to get highest bid for auction %s: %w", auctionID, err)
	}
	if found {
		return amount, nil
	}
	return s.basePrice(ctx, auction.ProductID)
}

// currentHighest consults the cache before the ledger. Auctions whose last
// cache write failed skip the cache until a ledger read has refreshed it.
func (s *BiddingService) currentHighest(ctx context.Context, auctionID string) (decimal.Decimal, bool, error) {
	mark, stale := s.staleCache.Load(auctionID)
	if stale {
		metrics.IncCacheAccess("stale")
	} else {
		amount, found, err := s.cache.Get(ctx, auctionID)
		switch {
		case err != nil:
			metrics.IncCacheAccess("error")
			utils.Warn("highest bid cache lookup failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		case found:
			metrics.IncCacheAccess("hit")
			return amount, true, nil
		default:
			metrics.IncCacheAccess("miss")
		}
	}

	amount, found, err := s.repo.HighestBid(ctx, auctionID)
	if err != nil {
		return decimal.Zero, false, biddingerrors.Unavailable("load highest bid", err)
	}
	if found && s.raiseCachedHighest(ctx, auctionID, amount) && stale {
		// a failure recorded after mark was loaded keeps the auction stale
		s.staleCache.CompareAndDelete(auctionID, mark)
	}
	return amount, found, nil
}

// BidsForAuction returns all bids for an auction, highest amount first
func (s *BiddingService) BidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}
	if _, err := s.repo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("service: failed to get auction %s: %w", auctionID, wrapStoreErr(err))
	}

	bids, err := s.repo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, wrapStoreErr(err))
	}
	return bids, nil
}

// BidsForBidder returns all bids placed by a bidder, most recent first
func (s *BiddingService) BidsForBidder(ctx context.Context, bidderID string) ([]models.Bid, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.ListByBidder(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for bidder %s: %w", bidderID, wrapStoreErr(err))
	}
	return bids, nil
}

// AuctionsByBidder returns the auctions a bidder has bid on, most recently bid first
func (s *BiddingService) AuctionsByBidder(ctx context.Context, bidderID string) ([]models.Auction, error) {
	bids, err := s.BidsForBidder(ctx, bidderID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(bids))
	auctions := make([]models.Auction, 0, len(bids))
	for _, b := range bids {
		if _, ok := seen[b.AuctionID]; ok {
			continue
		}
		seen[b.AuctionID] = struct{}{}

		auction, err := s.repo.GetAuction(ctx, b.AuctionID)
		if errors.Is(err, biddingerrors.ErrAuctionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("service: failed to get auction %s: %w", b.AuctionID, wrapStoreErr(err))
		}
		auctions = append(auctions, auction)
	}
	return auctions, nil
}

// GetAuction returns the auction projection with its effective phase
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (models.AuctionView, error) {
	if auctionID == "" {
		return models.AuctionView{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionView{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, wrapStoreErr(err))
	}
	return s.view(ctx, auction)
}

// ListAuctions returns every auction with its effective phase
func (s *BiddingService) ListAuctions(ctx context.Context) ([]models.AuctionView, error) {
	return s.listViews(ctx, func(models.Auction) bool { return true })
}

// ActiveAuctions returns the auctions currently accepting bids
func (s *BiddingService) ActiveAuctions(ctx context.Context) ([]models.AuctionView, error) {
	now := s.clock.Now()
	return s.listViews(ctx, func(a models.Auction) bool { return a.IsOpen(now) })
}

func (s *BiddingService) listViews(ctx context.Context, keep func(models.Auction) bool) ([]models.AuctionView, error) {
	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", wrapStoreErr(err))
	}

	views := make([]models.AuctionView, 0, len(auctions))
	for _, a := range auctions {
		if !keep(a) {
			continue
		}
		v, err := s.view(ctx, a)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *BiddingService) view(ctx context.Context, auction models.Auction) (models.AuctionView, error) {
	v := models.AuctionView{
		Auction: auction,
		Product: models.Product{ProductID: auction.ProductID},
		Phase:   auction.Phase(s.clock.Now()),
	}

	product, err := s.repo.GetProduct(ctx, auction.ProductID)
	switch {
	case err == nil:
		v.Product = product
	case !errors.Is(err, biddingerrors.ErrProductNotFound):
		return models.AuctionView{}, fmt.Errorf("service: failed to get product %s: %w", auction.ProductID, wrapStoreErr(err))
	}

	amount, found, err := s.currentHighest(ctx, auction.AuctionID)
	if err != nil {
		return models.AuctionView{}, fmt.Errorf("service: failed to get highest bid for auction %s: %w", auction.AuctionID, err)
	}
	v.HasBids = found
	if found {
		v.HighestBid = amount
	} else {
		v.HighestBid = v.Product.BasePrice
	}
	return v, nil
}

// wrapStoreErr leaves domain sentinels as they are and marks anything else
// as an infrastructure failure.
func wrapStoreErr(err error) error {
	for _, known := range []error{
		biddingerrors.ErrAuctionNotFound,
		biddingerrors.ErrProductNotFound,
		biddingerrors.ErrAuctionHasBids,
		biddingerrors.ErrAuctionExists,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return biddingerrors.Unavailable("store", err)
}

package bidding

import (
	"context"
	"fmt"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/models"
	"auction-engine/utils"
)

var knownStatuses = map[string]struct{}{
	models.StatusActive:    {},
	models.StatusInactive:  {},
	models.StatusCancelled: {},
}

// AddProduct registers or replaces a product in the catalogue
func (s *BiddingService) AddProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if product.ProductID == "" {
		product.ProductID = utils.GenerateID()
	}
	if product.BasePrice.IsNegative() || !product.BasePrice.Equal(product.BasePrice.Round(models.MinorUnits)) {
		return models.Product{}, fmt.Errorf("service: %w - base price must be non-negative with at most %d decimals",
			biddingerrors.ErrInvalidProduct, models.MinorUnits)
	}

	if err := s.repo.AddProduct(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("service: failed to add product %s: %w", product.ProductID, wrapStoreErr(err))
	}
	return product, nil
}

// CreateAuction opens a new auction window for an existing product
func (s *BiddingService) CreateAuction(ctx context.Context, auction models.Auction) (models.Auction, error) {
	if auction.AuctionID == "" {
		auction.AuctionID = utils.GenerateID()
	}
	if auction.ProductID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing productID", biddingerrors.ErrInvalidAuction)
	}
	if auction.StartTime.IsZero() || auction.EndTime.IsZero() || auction.EndTime.Before(auction.StartTime) {
		return models.Auction{}, fmt.Errorf("service: %w - start must not be after end", biddingerrors.ErrInvalidAuction)
	}
	if auction.Status == "" {
		auction.Status = models.StatusActive
	}
	if _, ok := knownStatuses[auction.Status]; !ok {
		return models.Auction{}, fmt.Errorf("service: %w - unknown status %q", biddingerrors.ErrInvalidAuction, auction.Status)
	}
	auction.StartTime = auction.StartTime.UTC()
	auction.EndTime = auction.EndTime.UTC()

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction %s: %w", auction.AuctionID, wrapStoreErr(err))
	}
	return auction, nil
}

// SetAuctionStatus changes the declared status of an auction. Admission still
// requires the clock to be within the auction window.
func (s *BiddingService) SetAuctionStatus(ctx context.Context, auctionID, status string) error {
	if auctionID == "" {
		return fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	if _, ok := knownStatuses[status]; !ok {
		return fmt.Errorf("service: %w - unknown status %q", biddingerrors.ErrInvalidAuction, status)
	}
	if err := s.repo.SetAuctionStatus(ctx, auctionID, status); err != nil {
		return fmt.Errorf("service: failed to set status of auction %s: %w", auctionID, wrapStoreErr(err))
	}
	return nil
}

// DeleteAuction removes an auction. Auctions with bids are kept as history.
func (s *BiddingService) DeleteAuction(ctx context.Context, auctionID string) error {
	if auctionID == "" {
		return fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, wrapStoreErr(err))
	}
	return nil
}

package helpers

import (
	"time"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	AuctionID string           `json:"auction_id" binding:"required"`
	BidderID  string           `json:"bidder_id" binding:"required"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	PlacedAt  string `json:"placed_at"`
}

type HighestBidResponse struct {
	AuctionID string `json:"auction_id"`
	Amount    string `json:"amount"`
}

type CreateAuctionRequest struct {
	AuctionID string    `json:"auction_id"`
	ProductID string    `json:"product_id" binding:"required"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ProductRequest struct {
	ProductID   string           `json:"product_id"`
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Tags        string           `json:"tags"`
	BasePrice   *decimal.Decimal `json:"base_price" binding:"required"`
}

type AuctionResponse struct {
	AuctionID  string `json:"auction_id"`
	ProductID  string `json:"product_id"`
	Product    string `json:"product_name,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	Phase      string `json:"phase,omitempty"`
	BasePrice  string `json:"base_price,omitempty"`
	HighestBid string `json:"highest_bid,omitempty"`
	HasBids    bool   `json:"has_bids"`
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(model.MinorUnits)
}

// NewBidResponse converts a bid to its wire form
func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    formatAmount(b.Amount),
		PlacedAt:  b.PlacedAt.UTC().Format(time.RFC3339),
	}
}

// NewBidResponses converts a list of bids, never returning nil
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

// NewHighestBidResponse formats a highest-bid amount
func NewHighestBidResponse(auctionID string, amount decimal.Decimal) HighestBidResponse {
	return HighestBidResponse{AuctionID: auctionID, Amount: formatAmount(amount)}
}

// NewAuctionResponse converts a bare auction
func NewAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID: a.AuctionID,
		ProductID: a.ProductID,
		StartTime: a.StartTime.UTC().Format(time.RFC3339),
		EndTime:   a.EndTime.UTC().Format(time.RFC3339),
		Status:    a.Status,
	}
}

// NewAuctionViewResponse converts an auction projection
func NewAuctionViewResponse(v model.AuctionView) AuctionResponse {
	resp := NewAuctionResponse(v.Auction)
	resp.Product = v.Product.Name
	resp.Phase = string(v.Phase)
	resp.BasePrice = formatAmount(v.Product.BasePrice)
	resp.HighestBid = formatAmount(v.HighestBid)
	resp.HasBids = v.HasBids
	return resp
}

// NewAuctionViewResponses converts a list of projections, never returning nil
func NewAuctionViewResponses(views []model.AuctionView) []AuctionResponse {
	out := make([]AuctionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewAuctionViewResponse(v))
	}
	return out
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Declared auction statuses set by operators
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCancelled = "cancelled"
)

// Phase is the effective lifecycle phase of an auction at a given instant
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseActive   Phase = "active"
	PhaseEnded    Phase = "ended"
)

// MinorUnits is the currency precision accepted for bid amounts
const MinorUnits int32 = 2

// Product represents an item put up for auction
type Product struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Tags        string          `json:"tags"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

// Auction represents a time-bounded auction window for one product
type Auction struct {
	AuctionID string    `json:"auction_id"`
	ProductID string    `json:"product_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// Phase derives the effective phase at now. The declared status only opens
// the auction; the window bounds it.
func (a Auction) Phase(now time.Time) Phase {
	if now.Before(a.StartTime) {
		return PhaseUpcoming
	}
	if !now.After(a.EndTime) && a.Status == StatusActive {
		return PhaseActive
	}
	return PhaseEnded
}

// IsOpen reports whether bids may be accepted at now
func (a Auction) IsOpen(now time.Time) bool {
	return a.Phase(now) == PhaseActive
}

// Bid represents an accepted bid. Bids are never updated once recorded.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// AuctionView is the read projection served to the presentation layer
type AuctionView struct {
	Auction    Auction         `json:"auction"`
	Product    Product         `json:"product"`
	Phase      Phase           `json:"phase"`
	HighestBid decimal.Decimal `json:"highest_bid"`
	HasBids    bool            `json:"has_bids"`
}

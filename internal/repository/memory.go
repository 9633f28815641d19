package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// Each auction owns a ledger shard: writers serialize on the shard mutex and
// readers load an immutable snapshot without locking.
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID -> value: auction
	products map[string]model.Product // key: productID -> value: product

	ledgers sync.Map // key: auctionID -> value: *ledgerShard
	bidders sync.Map // key: bidderID -> value: *ledgerShard
}

type ledgerShard struct {
	mu   sync.Mutex
	snap atomic.Pointer[ledgerSnapshot]
}

// ledgerSnapshot is never mutated after it is published
type ledgerSnapshot struct {
	bids    []model.Bid // acceptance order
	highest decimal.Decimal
}

var emptySnapshot = &ledgerSnapshot{}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]model.Auction),
		products: make(map[string]model.Product),
	}
}

func (s *ledgerShard) load() *ledgerSnapshot {
	if snap := s.snap.Load(); snap != nil {
		return snap
	}
	return emptySnapshot
}

// publish appends bid to the shard. Callers must hold s.mu.
func (s *ledgerShard) publish(bid model.Bid) {
	cur := s.load()
	bids := make([]model.Bid, len(cur.bids), len(cur.bids)+1)
	copy(bids, cur.bids)
	bids = append(bids, bid)

	highest := cur.highest
	if len(cur.bids) == 0 || bid.Amount.GreaterThan(highest) {
		highest = bid.Amount
	}
	s.snap.Store(&ledgerSnapshot{bids: bids, highest: highest})
}

func shardFor(m *sync.Map, key string) *ledgerShard {
	if s, ok := m.Load(key); ok {
		return s.(*ledgerShard)
	}
	s, _ := m.LoadOrStore(key, &ledgerShard{})
	return s.(*ledgerShard)
}

func peekShard(m *sync.Map, key string) *ledgerSnapshot {
	if s, ok := m.Load(key); ok {
		return s.(*ledgerShard).load()
	}
	return emptySnapshot
}

// GetAuction returns the auction with the given id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctions returns every auction ordered by start time
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, a)
	}
	sort.Slice(auctions, func(i, j int) bool {
		if auctions[i].StartTime.Equal(auctions[j].StartTime) {
			return auctions[i].AuctionID < auctions[j].AuctionID
		}
		return auctions[i].StartTime.Before(auctions[j].StartTime)
	})
	return auctions, nil
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[auction.ProductID]; !ok {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrProductNotFound)
	}
	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// SetAuctionStatus overwrites the declared status of an auction
func (r *MemoryRepo) SetAuctionStatus(_ context.Context, auctionID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set status for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	auction.Status = status
	r.auctions[auctionID] = auction
	return nil
}

// DeleteAuction removes an auction that has no bids
func (r *MemoryRepo) DeleteAuction(_ context.Context, auctionID string) error {
	shard := shardFor(&r.ledgers, auctionID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if len(shard.load().bids) > 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionHasBids)
	}
	delete(r.auctions, auctionID)
	return nil
}

// GetProduct returns the product with the given id
func (r *MemoryRepo) GetProduct(_ context.Context, productID string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return product, nil
}

// AddProduct adds or replaces a product
func (r *MemoryRepo) AddProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ProductID] = product
	return nil
}

// HighestBid returns the highest recorded amount for an auction
func (r *MemoryRepo) HighestBid(_ context.Context, auctionID string) (decimal.Decimal, bool, error) {
	snap := peekShard(&r.ledgers, auctionID)
	if len(snap.bids) == 0 {
		return decimal.Zero, false, nil
	}
	return snap.highest, true, nil
}

// AppendBid records a bid if the auction's highest amount still matches expected
func (r *MemoryRepo) AppendBid(_ context.Context, bid model.Bid, expected *decimal.Decimal) error {
	shard := shardFor(&r.ledgers, bid.AuctionID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	r.mu.RLock()
	_, ok := r.auctions[bid.AuctionID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	cur := shard.load()
	if !matchesSnapshot(cur, expected) {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrLedgerConflict)
	}
	shard.publish(bid)

	bidder := shardFor(&r.bidders, bid.BidderID)
	bidder.mu.Lock()
	bidder.publish(bid)
	bidder.mu.Unlock()

	return nil
}

func matchesSnapshot(cur *ledgerSnapshot, expected *decimal.Decimal) bool {
	if expected == nil {
		return len(cur.bids) == 0
	}
	return len(cur.bids) > 0 && cur.highest.Equal(*expected)
}

// ListByAuction returns all bids for an auction, highest amount first
func (r *MemoryRepo) ListByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	snap := peekShard(&r.ledgers, auctionID)

	bids := make([]model.Bid, len(snap.bids))
	copy(bids, snap.bids)
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Amount.GreaterThan(bids[j].Amount)
	})
	return bids, nil
}

// ListByBidder returns all bids placed by a bidder, most recent first
func (r *MemoryRepo) ListByBidder(_ context.Context, bidderID string) ([]model.Bid, error) {
	snap := peekShard(&r.bidders, bidderID)

	bids := make([]model.Bid, 0, len(snap.bids))
	for i := len(snap.bids) - 1; i >= 0; i-- {
		bids = append(bids, snap.bids[i])
	}
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].PlacedAt.After(bids[j].PlacedAt)
	})
	return bids, nil
}

// Ping always succeeds for the in-memory store
func (r *MemoryRepo) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (r *MemoryRepo) Close() {}

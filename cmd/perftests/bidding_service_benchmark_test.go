package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// Benchmark 1: PlaceBid - Isolated Auctions (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	ctx := context.Background()
	_, svc := setupService(b, b.N, 50)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bidderID := fmt.Sprintf("bidder_%d", i)
		amount := decimal.NewFromInt(int64(51 + rand.Intn(100)))
		if _, err := svc.PlaceBid(ctx, auctionID(i), bidderID, amount); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Auction (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedAuction(b *testing.B) {
	ctx := context.Background()
	_, svc := setupService(b, 1, 50)
	id := auctionID(0)

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 50
	var superseded int64

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			bidderID := fmt.Sprintf("bidder_parallel_%d", rnd.Int())
			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			if _, err := svc.PlaceBid(ctx, id, bidderID, decimal.NewFromInt(nextBid)); err != nil {
				atomic.AddInt64(&superseded, 1)
			}
		}
	})

	b.ReportMetric(float64(superseded)/float64(b.N), "rejected/op")
}

// Benchmark 3: HighestBid - Single-Threaded (Low Contention)
func Benchmark_HighestBid_SingleThreaded(b *testing.B) {
	ctx := context.Background()
	_, svc := setupService(b, b.N, 50)

	for i := 0; i < b.N; i++ {
		for j := 1; j <= 10; j++ {
			bidderID := fmt.Sprintf("bidder_%d_%d", i, j)
			_, _ = svc.PlaceBid(ctx, auctionID(i), bidderID, decimal.NewFromInt(int64(50+j*10)))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.HighestBid(ctx, auctionID(i)); err != nil {
			b.Fatalf("failed to get highest bid: %v", err)
		}
	}
}

// Benchmark 4: HighestBid - Concurrent (High Contention)
func Benchmark_HighestBid_ConcurrentSharedAuction(b *testing.B) {
	ctx := context.Background()
	_, svc := setupService(b, 1, 50)
	id := auctionID(0)

	for j := 1; j <= 100; j++ {
		bidderID := fmt.Sprintf("bidder_%d", j)
		_, _ = svc.PlaceBid(ctx, id, bidderID, decimal.NewFromInt(int64(50+j)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.HighestBid(ctx, id); err != nil {
				b.Errorf("failed to get highest bid: %v", err)
				return
			}
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedAuction(b *testing.B) {
	ctx := context.Background()
	_, svc := setupService(b, 1, 50)
	id := auctionID(0)

	for j := 1; j <= 50; j++ {
		bidderID := fmt.Sprintf("bidder_seed_%d", j)
		_, _ = svc.PlaceBid(ctx, id, bidderID, decimal.NewFromInt(int64(50+j*2)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 150

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			if rnd.Intn(10) < 3 {
				bidderID := fmt.Sprintf("bidder_writer_%d", rnd.Int())
				nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
				_, _ = svc.PlaceBid(ctx, id, bidderID, decimal.NewFromInt(nextBid))
				continue
			}
			if _, err := svc.ActiveAuctions(ctx); err != nil {
				b.Errorf("failed to list active auctions: %v", err)
				return
			}
		}
	})
}

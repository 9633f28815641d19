package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counts bid outcomes: accepted or the rejection reason.
	BidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Total number of bids processed by outcome.",
		},
		[]string{"outcome"},
	)

	// Counts conditional appends that lost to a concurrent commit.
	CommitConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_bid_commit_conflicts_total",
			Help: "Number of bid commits retried because the highest bid moved.",
		},
	)

	PlaceBidDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auction_place_bid_duration_seconds",
			Help:    "Duration of PlaceBid calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100µs to ~1.6s
		},
	)

	// Tracks highest-bid cache hits and misses.
	CacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_highest_bid_cache_access_total",
			Help: "Number of highest-bid cache lookups by result.",
		},
		[]string{"result"}, // hit | miss | error | stale
	)
)

func IncBid(outcome string) {
	BidsTotal.WithLabelValues(outcome).Inc()
}

func IncConflict() {
	CommitConflicts.Inc()
}

func IncCacheAccess(result string) {
	CacheAccess.WithLabelValues(result).Inc()
}

// ObservePlaceBid records the time elapsed since start
func ObservePlaceBid(start time.Time) {
	PlaceBidDuration.Observe(time.Since(start).Seconds())
}

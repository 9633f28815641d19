package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/clock"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// auctionStart opens every seeded auction; the test clock starts one minute later
var auctionStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv bundles the router with the clock driving it
type testEnv struct {
	router *gin.Engine
	clock  *clock.Manual
}

// seedAuction describes a product and a one-hour auction on it
type seedAuction struct {
	AuctionID string
	BasePrice string
	Status    string
}

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter(t *testing.T, auctions ...seedAuction) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	repo := repository.NewMemoryRepo()
	for _, a := range auctions {
		productID := "product-" + a.AuctionID
		require.NoError(t, repo.AddProduct(ctx, model.Product{
			ProductID: productID,
			Name:      "Product " + a.AuctionID,
			BasePrice: decimal.RequireFromString(a.BasePrice),
		}))
		status := a.Status
		if status == "" {
			status = model.StatusActive
		}
		require.NoError(t, repo.CreateAuction(ctx, model.Auction{
			AuctionID: a.AuctionID,
			ProductID: productID,
			StartTime: auctionStart,
			EndTime:   auctionStart.Add(time.Hour),
			Status:    status,
		}))
	}

	clk := clock.NewManual(auctionStart.Add(time.Minute))
	service := bidding.NewBiddingService(repo, bidding.WithClock(clk))
	return testEnv{router: server.SetupRouter(service), clock: clk}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == 201 {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}

func bidBody(auctionID, bidderID, amount string) map[string]any {
	return map[string]any{"auction_id": auctionID, "bidder_id": bidderID, "amount": amount}
}

package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var placedAt = time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// amountIs matches a decimal argument by value
type amountIs string

func (a amountIs) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(dec(string(a)))
}

func (a amountIs) String() string { return "amount " + string(a) }

func newTestRouter(t *testing.T) (*gin.Engine, *MockBiddingServiceInterface) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := NewMockBiddingServiceInterface(ctrl)
	h := NewBiddingHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/bids", h.PlaceBidHandler)
	router.GET("/auctions", h.ListAuctionsHandler)
	router.POST("/auctions", h.CreateAuctionHandler)
	router.GET("/auctions/active", h.ActiveAuctionsHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.DELETE("/auctions/:auction_id", h.DeleteAuctionHandler)
	router.PUT("/auctions/:auction_id/status", h.SetAuctionStatusHandler)
	router.GET("/auctions/:auction_id/bids", h.GetBidsByAuctionHandler)
	router.GET("/auctions/:auction_id/highest", h.GetHighestBidHandler)
	router.GET("/bidders/:bidder_id/bids", h.GetBidsByBidderHandler)
	router.GET("/bidders/:bidder_id/auctions", h.GetAuctionsByBidderHandler)
	router.POST("/products", h.AddProductHandler)
	router.GET("/healthz", h.HealthHandler)
	return router, mockService
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		expectedReason string
		validate       func(t *testing.T, resp map[string]any)
	}{
		{
			name: "success_valid_bid",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"60.00"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", amountIs("60")).
					Return(model.Bid{
						BidID:     uuid.NewString(),
						AuctionID: "auction1",
						BidderID:  "bidder1",
						Amount:    dec("60"),
						PlacedAt:  placedAt,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid accepted",
			validate: func(t *testing.T, resp map[string]any) {
				data := resp["data"].(map[string]any)
				_, parseErr := uuid.Parse(data["bid_id"].(string))
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "auction1", data["auction_id"])
				require.Equal(t, "bidder1", data["bidder_id"])
				require.Equal(t, "60.00", data["amount"])
				require.Equal(t, "2026-03-01T12:05:00Z", data["placed_at"])
			},
		},
		{
			name: "numeric_amount",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":75.5}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", amountIs("75.50")).
					Return(model.Bid{BidID: uuid.NewString(), AuctionID: "auction1", BidderID: "bidder1", Amount: dec("75.5"), PlacedAt: placedAt}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid accepted",
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_auction_id",
			body:           `{"bidder_id":"bidder1","amount":"60.00"}`,
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_amount",
			body:           `{"auction_id":"auction1","bidder_id":"bidder1"}`,
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "bid_too_low_reports_floor",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"40"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", amountIs("40")).
					Return(model.Bid{}, fmt.Errorf("service: %w", biddingerrors.RejectTooLow(dec("50"))))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
			expectedReason: "BidTooLow",
			validate: func(t *testing.T, resp map[string]any) {
				detail := resp["detail"].(map[string]any)
				require.Equal(t, "50.00", detail["floor"])
			},
		},
		{
			name: "auction_not_active",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"70"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", gomock.Any()).
					Return(model.Bid{}, biddingerrors.Reject(biddingerrors.ErrAuctionNotActive))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not active",
			expectedReason: "AuctionNotActive",
		},
		{
			name: "auction_not_found",
			body: `{"auction_id":"auctionX","bidder_id":"bidder1","amount":"70"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auctionX", "bidder1", gomock.Any()).
					Return(model.Bid{}, biddingerrors.Reject(biddingerrors.ErrAuctionNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
			expectedReason: "AuctionNotFound",
		},
		{
			name: "invalid_amount",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"60.001"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", gomock.Any()).
					Return(model.Bid{}, biddingerrors.Reject(biddingerrors.ErrInvalidAmount))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "invalid bid amount",
			expectedReason: "InvalidAmount",
		},
		{
			name: "superseded",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"70"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", gomock.Any()).
					Return(model.Bid{}, biddingerrors.Reject(biddingerrors.ErrSuperseded))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "superseded",
			expectedReason: "Superseded",
		},
		{
			name: "store_unavailable",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"70"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", gomock.Any()).
					Return(model.Bid{}, biddingerrors.Unavailable("record bid", errors.New("connection reset")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "store unavailable",
			expectedReason: "StoreUnavailable",
		},
		{
			name: "service_generic_error",
			body: `{"auction_id":"auction1","bidder_id":"bidder1","amount":"70"}`,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "auction1", "bidder1", gomock.Any()).
					Return(model.Bid{}, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, mockService := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodPost, "/bids", tc.body)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.expectedReason != "" {
				require.Equal(t, tc.expectedReason, resp["reason"])
			}
			if tc.validate != nil {
				tc.validate(t, resp)
			}
		})
	}
}

// Test the read endpoints
func TestQueryHandlers(t *testing.T) {
	t.Parallel()

	bids := []model.Bid{
		{BidID: "bid2", AuctionID: "auction1", BidderID: "bidder2", Amount: dec("70"), PlacedAt: placedAt.Add(time.Minute)},
		{BidID: "bid1", AuctionID: "auction1", BidderID: "bidder1", Amount: dec("60"), PlacedAt: placedAt},
	}
	auction := model.Auction{
		AuctionID: "auction1",
		ProductID: "product1",
		StartTime: placedAt.Add(-time.Hour),
		EndTime:   placedAt.Add(time.Hour),
		Status:    model.StatusActive,
	}
	view := model.AuctionView{
		Auction:    auction,
		Product:    model.Product{ProductID: "product1", Name: "Lamp", BasePrice: dec("50")},
		Phase:      model.PhaseActive,
		HighestBid: dec("70"),
		HasBids:    true,
	}

	tests := []struct {
		name           string
		path           string
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		validate       func(t *testing.T, data any)
	}{
		{
			name: "bids_by_auction",
			path: "/auctions/auction1/bids",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().BidsForAuction(gomock.Any(), "auction1").Return(bids, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validate: func(t *testing.T, data any) {
				list := data.([]any)
				require.Len(t, list, 2)
				require.Equal(t, "70.00", list[0].(map[string]any)["amount"])
			},
		},
		{
			name: "bids_by_unknown_auction",
			path: "/auctions/auctionX/bids",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().BidsForAuction(gomock.Any(), "auctionX").Return(nil, biddingerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name: "bids_empty_list",
			path: "/auctions/auction2/bids",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().BidsForAuction(gomock.Any(), "auction2").Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validate: func(t *testing.T, data any) {
				require.Empty(t, data.([]any))
			},
		},
		{
			name: "highest_bid",
			path: "/auctions/auction1/highest",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().HighestBid(gomock.Any(), "auction1").Return(dec("70"), nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "highest bid retrieved successfully",
			validate: func(t *testing.T, data any) {
				require.Equal(t, "70.00", data.(map[string]any)["amount"])
			},
		},
		{
			name: "highest_bid_store_down",
			path: "/auctions/auction1/highest",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().HighestBid(gomock.Any(), "auction1").Return(decimal.Zero, biddingerrors.Unavailable("read", errors.New("down")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "store unavailable",
		},
		{
			name: "bids_by_bidder",
			path: "/bidders/bidder1/bids",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().BidsForBidder(gomock.Any(), "bidder1").Return(bids[1:], nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validate: func(t *testing.T, data any) {
				require.Len(t, data.([]any), 1)
			},
		},
		{
			name: "auctions_by_bidder",
			path: "/bidders/bidder1/auctions",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().AuctionsByBidder(gomock.Any(), "bidder1").Return([]model.Auction{auction}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auctions retrieved successfully",
			validate: func(t *testing.T, data any) {
				list := data.([]any)
				require.Len(t, list, 1)
				require.Equal(t, "auction1", list[0].(map[string]any)["auction_id"])
			},
		},
		{
			name: "active_auctions",
			path: "/auctions/active",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().ActiveAuctions(gomock.Any()).Return([]model.AuctionView{view}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "active auctions retrieved successfully",
			validate: func(t *testing.T, data any) {
				item := data.([]any)[0].(map[string]any)
				require.Equal(t, "active", item["phase"])
				require.Equal(t, "70.00", item["highest_bid"])
				require.Equal(t, "50.00", item["base_price"])
				require.Equal(t, "Lamp", item["product_name"])
				require.Equal(t, true, item["has_bids"])
			},
		},
		{
			name: "list_auctions",
			path: "/auctions",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().ListAuctions(gomock.Any()).Return([]model.AuctionView{view}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auctions retrieved successfully",
		},
		{
			name: "get_auction",
			path: "/auctions/auction1",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetAuction(gomock.Any(), "auction1").Return(view, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
			validate: func(t *testing.T, data any) {
				require.Equal(t, "2026-03-01T11:05:00Z", data.(map[string]any)["start_time"])
			},
		},
		{
			name: "health_ok",
			path: "/healthz",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().Health(gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "healthy",
		},
		{
			name: "health_down",
			path: "/healthz",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().Health(gomock.Any()).Return(biddingerrors.Unavailable("ping", errors.New("down")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "store unavailable",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, mockService := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodGet, tc.path, "")
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.validate != nil {
				tc.validate(t, resp["data"])
			}
		})
	}
}

// Test the administrative endpoints
func TestAdminHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create_auction", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, a model.Auction) (model.Auction, error) {
			require.Equal(t, "product1", a.ProductID)
			require.True(t, a.StartTime.Equal(placedAt))
			a.AuctionID = "auction9"
			a.Status = model.StatusActive
			return a, nil
		})

		body := `{"product_id":"product1","start_time":"2026-03-01T12:05:00Z","end_time":"2026-03-01T13:05:00Z"}`
		w, resp := doRequest(t, router, http.MethodPost, "/auctions", body)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "auction9", resp["data"].(map[string]any)["auction_id"])
	})

	t.Run("create_auction_invalid_window", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).Return(model.Auction{}, biddingerrors.ErrInvalidAuction)

		w, resp := doRequest(t, router, http.MethodPost, "/auctions", `{"product_id":"product1"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, resp["message"], "invalid auction details")
	})

	t.Run("create_auction_missing_product", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w, _ := doRequest(t, router, http.MethodPost, "/auctions", `{"start_time":"2026-03-01T12:05:00Z"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("set_status", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.EXPECT().SetAuctionStatus(gomock.Any(), "auction1", model.StatusCancelled).Return(nil)

		w, resp := doRequest(t, router, http.MethodPut, "/auctions/auction1/status", `{"status":"cancelled"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "auction status updated", resp["message"])
	})

	t.Run("delete_with_bids", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.EXPECT().DeleteAuction(gomock.Any(), "auction1").Return(biddingerrors.ErrAuctionHasBids)

		w, resp := doRequest(t, router, http.MethodDelete, "/auctions/auction1", "")
		require.Equal(t, http.StatusConflict, w.Code)
		require.Contains(t, resp["message"], "auction has bids")
	})

	t.Run("delete_ok", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.EXPECT().DeleteAuction(gomock.Any(), "auction2").Return(nil)

		w, _ := doRequest(t, router, http.MethodDelete, "/auctions/auction2", "")
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("add_product", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.EXPECT().AddProduct(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, p model.Product) (model.Product, error) {
			require.True(t, p.BasePrice.Equal(dec("12.50")))
			p.ProductID = "product9"
			return p, nil
		})

		w, resp := doRequest(t, router, http.MethodPost, "/products", `{"name":"Chair","base_price":"12.50"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "product saved successfully", resp["message"])
	})

	t.Run("add_product_missing_price", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w, resp := doRequest(t, router, http.MethodPost, "/products", `{"name":"Chair"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid request payload", resp["message"])
	})
}

package handler

import (
	"net/http"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// ListAuctionsHandler handles GET /auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	views, err := h.service.ListAuctions(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"error": err.Error()})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionViewResponses(views), "auctions retrieved successfully")
}

// ActiveAuctionsHandler handles GET /auctions/active
func (h *BiddingHandler) ActiveAuctionsHandler(c *gin.Context) {
	views, err := h.service.ActiveAuctions(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("ActiveAuctionsHandler: error listing active auctions", map[string]any{"error": err.Error()})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionViewResponses(views), "active auctions retrieved successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	view, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionViewResponse(view), "auction retrieved successfully")
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), model.Auction{
		AuctionID: req.AuctionID,
		ProductID: req.ProductID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	})
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("CreateAuctionHandler: failed to create auction", map[string]any{"product_id": req.ProductID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"product_id": auction.ProductID,
	})
}

// SetAuctionStatusHandler handles PUT /auctions/:auction_id/status
func (h *BiddingHandler) SetAuctionStatusHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SetAuctionStatusHandler", err)
		return
	}

	if err := h.service.SetAuctionStatus(c.Request.Context(), auctionID, req.Status); err != nil {
		helpers.RespondError(c, err)
		utils.Warn("SetAuctionStatusHandler: failed to set status", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID, "status": req.Status}, "auction status updated")
	helpers.LogSuccess("SetAuctionStatusHandler", "auction status updated", map[string]any{
		"auction_id": auctionID,
		"status":     req.Status,
	})
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id
func (h *BiddingHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if err := h.service.DeleteAuction(c.Request.Context(), auctionID); err != nil {
		helpers.RespondError(c, err)
		utils.Warn("DeleteAuctionHandler: failed to delete auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted", map[string]any{"auction_id": auctionID})
}

// AddProductHandler handles POST /products
func (h *BiddingHandler) AddProductHandler(c *gin.Context) {
	var req helpers.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddProductHandler", err)
		return
	}

	product, err := h.service.AddProduct(c.Request.Context(), model.Product{
		ProductID:   req.ProductID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
		BasePrice:   *req.BasePrice,
	})
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("AddProductHandler: failed to add product", map[string]any{"name": req.Name, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, product, "product saved successfully")
}

// HealthHandler handles GET /healthz
func (h *BiddingHandler) HealthHandler(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		helpers.RespondError(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
}

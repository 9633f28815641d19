package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, biddingerrors.ErrInvalidProduct):
		return http.StatusBadRequest, "invalid product details"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "invalid bid amount"
	case errors.Is(err, biddingerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrSuperseded):
		return http.StatusConflict, "bid superseded by a concurrent bid"
	case errors.Is(err, biddingerrors.ErrAuctionHasBids):
		return http.StatusConflict, "auction has bids"
	case errors.Is(err, biddingerrors.ErrAuctionExists):
		return http.StatusConflict, "auction already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RejectionReason returns a stable machine-readable code for a bid rejection
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return "AuctionNotFound"
	case errors.Is(err, biddingerrors.ErrAuctionNotActive):
		return "AuctionNotActive"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return "BidTooLow"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, biddingerrors.ErrSuperseded):
		return "Superseded"
	case errors.Is(err, biddingerrors.ErrStoreUnavailable):
		return "StoreUnavailable"
	default:
		return ""
	}
}

// RejectionDetail returns the extra payload for a rejection, if it has one
func RejectionDetail(err error) any {
	rej, ok := biddingerrors.AsRejection(err)
	if !ok || !errors.Is(rej, biddingerrors.ErrBidTooLow) {
		return nil
	}
	return gin.H{"floor": rej.Floor.StringFixed(model.MinorUnits)}
}

// RespondError writes err using the standard error envelope
func RespondError(c *gin.Context, err error) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

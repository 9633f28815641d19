package biddingerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProductNotFound = errors.New("product not found")
	ErrLedgerConflict  = errors.New("highest bid changed since snapshot")
	ErrAuctionHasBids  = errors.New("auction has recorded bids")
	ErrAuctionExists   = errors.New("auction already exists")
)

// business logic errors
var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrInvalidAuction   = errors.New("invalid auction")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrInvalidAmount    = errors.New("invalid bid amount")
	ErrSuperseded       = errors.New("bid superseded by a concurrent bid")
)

// ErrStoreUnavailable marks infrastructure failures. It is never retried.
var ErrStoreUnavailable = errors.New("store unavailable")

// RejectionError is returned by the engine for every expected business outcome.
// errors.Is matches it against its Reason sentinel.
type RejectionError struct {
	Reason error
	// Floor is the value the amount failed to exceed, set for ErrBidTooLow
	Floor decimal.Decimal
}

// Reject builds a RejectionError for reason
func Reject(reason error) *RejectionError {
	return &RejectionError{Reason: reason}
}

// RejectTooLow builds an ErrBidTooLow rejection carrying floor
func RejectTooLow(floor decimal.Decimal) *RejectionError {
	return &RejectionError{Reason: ErrBidTooLow, Floor: floor}
}

func (e *RejectionError) Error() string {
	if errors.Is(e.Reason, ErrBidTooLow) {
		return fmt.Sprintf("%s: must exceed %s", e.Reason, e.Floor.StringFixed(2))
	}
	return e.Reason.Error()
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

// AsRejection extracts the RejectionError from err, if any
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Unavailable wraps an infrastructure error so it matches ErrStoreUnavailable
// while still unwrapping to cause.
func Unavailable(op string, cause error) error {
	if cause == nil || errors.Is(cause, ErrStoreUnavailable) {
		return cause
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, cause)
}

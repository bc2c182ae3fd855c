package orders

import (
	"context"
	"errors"
	"time"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingUnavailable = errors.New("listing is not purchasable")
	ErrOwnListing         = errors.New("cannot purchase your own listing")
	ErrOrderNotFound      = errors.New("order not found")
	ErrForbidden          = errors.New("no authority over this order")
	ErrInvalidTransition  = errors.New("transition not allowed from current state")
	ErrInvalidStatus      = errors.New("unrecognized order status")
)

// ListingInfo is the slice of a listing the lifecycle manager needs.
type ListingInfo struct {
	ID         string
	SellerID   string
	Title      string
	PriceCents int64
	Status     string
	IsDigital  bool
}

// Store is the persistence boundary of the lifecycle manager. The three
// mutating transitions are conditional writes: they apply only if the
// order is still in an eligible state and report whether they did, so
// racing requests cannot double-apply side effects.
type Store interface {
	GetListing(ctx context.Context, id string) (*ListingInfo, error)
	GetOrder(ctx context.Context, id string) (*Order, error)

	// InsertOrder persists a new pending order together with its
	// simulated payment capture.
	InsertOrder(ctx context.Context, o *Order) error

	// SetStatus moves the order to next if its current status is one of
	// from.
	SetStatus(ctx context.Context, orderID string, next Status, from ...Status) (bool, error)

	// Cancel moves the order to next (cancelled or refunded), records the
	// simulated refund and flips the payment status, atomically.
	Cancel(ctx context.Context, o *Order, next Status, from ...Status) (bool, error)

	// Complete marks the order completed, stamps completed_at once,
	// increments the seller's sale counters and the listing's sales
	// counter and marks the listing sold. Applies only while the order is
	// not yet in a terminal state.
	Complete(ctx context.Context, o *Order, at time.Time) (bool, error)
}

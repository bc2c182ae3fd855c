package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pixelmart/pixelmart/internal/auth"
	"github.com/pixelmart/pixelmart/internal/notify"
)

// Manager owns every valid mutation of an order. All methods take the
// acting user explicitly and return the notification events the caller
// should dispatch after the mutation has committed.
type Manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Create places a new order for a listing. Listings flagged digital are
// delivered instantly, so the order is completed in the same call.
func (m *Manager) Create(ctx context.Context, actor auth.Actor, listingID, paymentMethod string) (*Order, []notify.Event, error) {
	if actor.ID == "" {
		return nil, nil, ErrForbidden
	}

	listing, err := m.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.SellerID == actor.ID {
		return nil, nil, ErrOwnListing
	}
	if listing.Status != "active" {
		return nil, nil, ErrListingUnavailable
	}

	fees, err := CalculateFees(listing.PriceCents)
	if err != nil {
		return nil, nil, err
	}

	now := m.now()
	o := &Order{
		ID:                  uuid.New().String(),
		OrderNumber:         NewOrderNumber(now),
		BuyerID:             actor.ID,
		SellerID:            listing.SellerID,
		ListingID:           listing.ID,
		Status:              StatusPending,
		PaymentStatus:       PaymentPaid, // simulated gateway captures up front
		PaymentMethod:       paymentMethod,
		SubtotalCents:       fees.SubtotalCents,
		PlatformFeeCents:    fees.PlatformFeeCents,
		TransactionFeeCents: fees.TransactionFeeCents,
		TotalCents:          fees.TotalCents,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := m.store.InsertOrder(ctx, o); err != nil {
		return nil, nil, errors.Wrap(err, "insert order")
	}

	events := statusEvents(o, StatusPending)

	if listing.IsDigital {
		at := m.now()
		applied, err := m.store.Complete(ctx, o, at)
		if err != nil {
			return nil, nil, errors.Wrap(err, "complete digital order")
		}
		if applied {
			o.Status = StatusCompleted
			o.CompletedAt = &at
			events = append(events, statusEvents(o, StatusCompleted)...)
		}
	}

	return o, events, nil
}

// Cancel aborts an order that has not shipped. Permitted for the buyer,
// the seller, or an admin.
func (m *Manager) Cancel(ctx context.Context, actor auth.Actor, orderID string) (*Order, []notify.Event, error) {
	o, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() && actor.ID != o.BuyerID && actor.ID != o.SellerID {
		return nil, nil, ErrForbidden
	}
	if !CancellableFrom(o.Status) {
		return nil, nil, ErrInvalidTransition
	}

	applied, err := m.store.Cancel(ctx, o, StatusCancelled, StatusPending, StatusProcessing)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cancel order")
	}
	if !applied {
		// Lost a race with another transition.
		return nil, nil, ErrInvalidTransition
	}

	o.Status = StatusCancelled
	o.PaymentStatus = PaymentRefunded
	return o, statusEvents(o, StatusCancelled), nil
}

// Advance moves an order to next on behalf of actor. Sellers walk the
// fulfilment chain, buyers complete delivered orders, admins may override
// any transition out of a non-terminal state.
func (m *Manager) Advance(ctx context.Context, actor auth.Actor, orderID string, next Status) (*Order, []notify.Event, error) {
	o, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if err := allowedTransition(actor, o, next); err != nil {
		return nil, nil, err
	}

	var applied bool
	switch next {
	case StatusCompleted:
		at := m.now()
		applied, err = m.store.Complete(ctx, o, at)
		if applied {
			o.CompletedAt = &at
		}
	case StatusCancelled, StatusRefunded:
		applied, err = m.store.Cancel(ctx, o, next, o.Status)
		if applied {
			o.PaymentStatus = PaymentRefunded
		}
	default:
		applied, err = m.store.SetStatus(ctx, orderID, next, o.Status)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "advance order to %s", next)
	}
	if !applied {
		return nil, nil, ErrInvalidTransition
	}

	o.Status = next
	return o, statusEvents(o, next), nil
}

// statusEvents builds the buyer and seller notifications for a status
// change. Both counterparties always hear about every recognized change.
func statusEvents(o *Order, next Status) []notify.Event {
	var buyerMsg, sellerMsg string
	switch next {
	case StatusPending:
		buyerMsg = fmt.Sprintf("Your order %s has been placed.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("You received a new order %s.", o.OrderNumber)
	case StatusProcessing:
		buyerMsg = fmt.Sprintf("Order %s is being prepared by the seller.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("Order %s is marked as processing.", o.OrderNumber)
	case StatusShipped:
		buyerMsg = fmt.Sprintf("Order %s has shipped.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("Order %s is marked as shipped.", o.OrderNumber)
	case StatusDelivered:
		buyerMsg = fmt.Sprintf("Order %s was delivered. Confirm receipt to complete it.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("Order %s is marked as delivered.", o.OrderNumber)
	case StatusCompleted:
		buyerMsg = fmt.Sprintf("Order %s is complete. You can now review the listing.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("Order %s is complete. The sale has been credited to your stats.", o.OrderNumber)
	case StatusCancelled:
		buyerMsg = fmt.Sprintf("Order %s was cancelled and your payment refunded.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("Order %s was cancelled.", o.OrderNumber)
	case StatusRefunded:
		buyerMsg = fmt.Sprintf("Order %s was refunded.", o.OrderNumber)
		sellerMsg = fmt.Sprintf("Order %s was refunded to the buyer.", o.OrderNumber)
	default:
		buyerMsg = fmt.Sprintf("Order %s changed status to %s.", o.OrderNumber, next)
		sellerMsg = buyerMsg
	}

	title := fmt.Sprintf("Order %s %s", o.OrderNumber, next)
	return []notify.Event{
		{RecipientID: o.BuyerID, Type: notify.TypeOrder, Title: title, Message: buyerMsg, Reference: o.ID},
		{RecipientID: o.SellerID, Type: notify.TypeOrder, Title: title, Message: sellerMsg, Reference: o.ID},
	}
}

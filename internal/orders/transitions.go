package orders

import "github.com/pixelmart/pixelmart/internal/auth"

// sellerNext is the granular fulfilment chain a seller walks an order along.
var sellerNext = map[Status]Status{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// CancellableFrom reports whether a buyer/seller cancellation is still
// allowed. Once fulfilment has shipped, only completion or an admin
// refund can end the order.
func CancellableFrom(s Status) bool {
	return s == StatusPending || s == StatusProcessing
}

// reachable reports whether the granular state machine has an edge
// from -> to for non-admin participants (cancellation handled separately).
func reachable(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if sellerNext[from] == to {
		return true
	}
	return from == StatusDelivered && to == StatusCompleted
}

// allowedTransition validates that the actor may move the order to next.
// Admins may jump between any two states as long as the current state is
// not terminal; sellers walk the fulfilment chain; buyers confirm receipt
// of a delivered order.
func allowedTransition(actor auth.Actor, o *Order, next Status) error {
	if next == "" {
		return ErrInvalidStatus
	}
	if actor.IsAdmin() {
		if o.Status.Terminal() || next == o.Status {
			return ErrInvalidTransition
		}
		return nil
	}

	switch actor.ID {
	case o.SellerID:
		if sellerNext[o.Status] == next {
			return nil
		}
	case o.BuyerID:
		if o.Status == StatusDelivered && next == StatusCompleted {
			return nil
		}
	default:
		return ErrForbidden
	}

	// Participant, but not their edge: distinguish an edge that exists for
	// the counterparty (authority problem) from one the machine lacks.
	if reachable(o.Status, next) {
		return ErrForbidden
	}
	return ErrInvalidTransition
}

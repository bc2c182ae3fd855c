package orders

import "errors"

// Fee schedule: the platform takes 4.5% of the listing price; the payment
// processor takes 2.9% plus a 30 cent flat charge. All math is in integer
// cents, percentage terms rounded half up.
const (
	platformFeeBps           = 450
	transactionFeeBps        = 290
	transactionFeeFixedCents = 30
)

var ErrNonPositiveAmount = errors.New("amount must be positive")

// FeeBreakdown is the cost composition of a single order.
type FeeBreakdown struct {
	SubtotalCents       int64 `json:"subtotal_cents"`
	PlatformFeeCents    int64 `json:"platform_fee_cents"`
	TransactionFeeCents int64 `json:"transaction_fee_cents"`
	TotalCents          int64 `json:"total_cents"`
}

// CalculateFees computes the fee breakdown for a listing price.
func CalculateFees(subtotalCents int64) (FeeBreakdown, error) {
	if subtotalCents <= 0 {
		return FeeBreakdown{}, ErrNonPositiveAmount
	}
	platform := (subtotalCents*platformFeeBps + 5000) / 10000
	transaction := (subtotalCents*transactionFeeBps+5000)/10000 + transactionFeeFixedCents
	return FeeBreakdown{
		SubtotalCents:       subtotalCents,
		PlatformFeeCents:    platform,
		TransactionFeeCents: transaction,
		TotalCents:          subtotalCents + platform + transaction,
	}, nil
}

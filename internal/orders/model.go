package orders

import "time"

// Status is an order's position in the fulfilment lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// ParseStatus maps a raw string onto the status enum.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusRefunded:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether the status can never be left again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

// PaymentStatus tracks the simulated gateway state for an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ParsePaymentStatus validates a client-supplied payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}

// Order represents a purchase of one listing by one buyer from one seller.
type Order struct {
	ID                  string        `json:"id"`
	OrderNumber         string        `json:"order_number"`
	BuyerID             string        `json:"buyer_id"`
	SellerID            string        `json:"seller_id"`
	ListingID           string        `json:"listing_id"`
	Status              Status        `json:"status"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentMethod       string        `json:"payment_method"`
	SubtotalCents       int64         `json:"subtotal_cents"`
	PlatformFeeCents    int64         `json:"platform_fee_cents"`
	TransactionFeeCents int64         `json:"transaction_fee_cents"`
	TotalCents          int64         `json:"total_cents"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

package reviews

import "time"

// Review is a buyer's rating of a listing, tied to a completed purchase.
// Reviews are immutable once created.
type Review struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	OrderID    string    `json:"order_id,omitempty"`
	GiverID    string    `json:"giver_id"`
	ReceiverID string    `json:"receiver_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewWithDetails carries the giver's display name for list responses.
type ReviewWithDetails struct {
	Review
	GiverName    string `json:"giver_name"`
	ListingTitle string `json:"listing_title"`
}

// Eligibility is the answer to "may this user review this listing".
type Eligibility struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason"`
}

const (
	ReasonOK               = "ok"
	ReasonNotAuthenticated = "not_authenticated"
	ReasonAlreadyReviewed  = "already_reviewed"
	ReasonNoPurchase       = "no_purchase"
)

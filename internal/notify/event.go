package notify

// EventType classifies a notification for the recipient's inbox.
type EventType string

const (
	TypeOrder  EventType = "order"
	TypeReview EventType = "review"
	TypeSystem EventType = "system"
)

// Event is a pending notification produced by a lifecycle operation.
// Operations return their events and the caller hands them to Dispatch
// after the primary mutation has committed, so a fan-out failure can
// never roll back or block the triggering change.
type Event struct {
	RecipientID string    `json:"recipient_id"`
	Type        EventType `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Reference   string    `json:"reference,omitempty"`
}

package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/pixelmart/pixelmart/internal/auth"
	"github.com/pixelmart/pixelmart/internal/notify"
)

const maxCommentLength = 1000

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrNoPurchase      = errors.New("no completed purchase of this listing")
	ErrDuplicateReview = errors.New("review already exists for this listing")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("comment too long")
	ErrOrderMismatch   = errors.New("order does not match the listing")
)

// ListingRef is the slice of a listing the review service needs.
type ListingRef struct {
	ID       string
	SellerID string
	Title    string
}

// OrderRef is the slice of an order the review service needs.
type OrderRef struct {
	ID        string
	BuyerID   string
	ListingID string
	Status    string
}

// Store is the persistence boundary of the review service. InsertReview
// must map a (giver, listing) uniqueness violation to ErrDuplicateReview
// and recompute the receiver's aggregate rating in the same transaction.
type Store interface {
	GetListing(ctx context.Context, id string) (*ListingRef, error)
	GetOrder(ctx context.Context, id string) (*OrderRef, error)
	HasReview(ctx context.Context, giverID, listingID string) (bool, error)
	HasCompletedPurchase(ctx context.Context, buyerID, listingID string) (bool, error)
	InsertReview(ctx context.Context, r *Review) error
}

// Service owns review eligibility and creation.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CanReview reports whether userID may review listingID and, if not, why.
func (s *Service) CanReview(ctx context.Context, userID, listingID string) (Eligibility, error) {
	if userID == "" {
		return Eligibility{CanReview: false, Reason: ReasonNotAuthenticated}, nil
	}
	if _, err := s.store.GetListing(ctx, listingID); err != nil {
		return Eligibility{}, err
	}

	reviewed, err := s.store.HasReview(ctx, userID, listingID)
	if err != nil {
		return Eligibility{}, pkgerrors.Wrap(err, "check existing review")
	}
	if reviewed {
		return Eligibility{CanReview: false, Reason: ReasonAlreadyReviewed}, nil
	}

	purchased, err := s.store.HasCompletedPurchase(ctx, userID, listingID)
	if err != nil {
		return Eligibility{}, pkgerrors.Wrap(err, "check purchase")
	}
	if !purchased {
		return Eligibility{CanReview: false, Reason: ReasonNoPurchase}, nil
	}

	return Eligibility{CanReview: true, Reason: ReasonOK}, nil
}

// SubmitInput is the payload of a review submission.
type SubmitInput struct {
	ListingID string
	OrderID   string
	Rating    int
	Comment   string
}

// Submit validates eligibility, persists the review and returns the
// notification for the seller. The (giver, listing) unique index backstops
// the duplicate pre-check, so racing submissions cannot both succeed.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, in SubmitInput) (*Review, []notify.Event, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, nil, ErrInvalidRating
	}
	if len(in.Comment) > maxCommentLength {
		return nil, nil, ErrCommentTooLong
	}

	listing, err := s.store.GetListing(ctx, in.ListingID)
	if err != nil {
		return nil, nil, err
	}

	if in.OrderID != "" {
		order, err := s.store.GetOrder(ctx, in.OrderID)
		if err != nil {
			return nil, nil, err
		}
		if order.BuyerID != actor.ID {
			return nil, nil, ErrNoPurchase
		}
		if order.ListingID != in.ListingID {
			return nil, nil, ErrOrderMismatch
		}
		if order.Status != "completed" {
			return nil, nil, ErrNoPurchase
		}
	} else {
		purchased, err := s.store.HasCompletedPurchase(ctx, actor.ID, in.ListingID)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(err, "check purchase")
		}
		if !purchased {
			return nil, nil, ErrNoPurchase
		}
	}

	reviewed, err := s.store.HasReview(ctx, actor.ID, in.ListingID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "check existing review")
	}
	if reviewed {
		return nil, nil, ErrDuplicateReview
	}

	r := &Review{
		ID:         uuid.New().String(),
		ListingID:  in.ListingID,
		OrderID:    in.OrderID,
		GiverID:    actor.ID,
		ReceiverID: listing.SellerID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertReview(ctx, r); err != nil {
		return nil, nil, err
	}

	events := []notify.Event{{
		RecipientID: listing.SellerID,
		Type:        notify.TypeReview,
		Title:       fmt.Sprintf("New %d-star review", r.Rating),
		Message:     fmt.Sprintf("Your listing %q received a %d-star review.", listing.Title, r.Rating),
		Reference:   r.ID,
	}}
	return r, events, nil
}

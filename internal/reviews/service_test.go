package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelmart/pixelmart/internal/auth"
	"github.com/pixelmart/pixelmart/internal/notify"
)

type fakeStore struct {
	listings     map[string]*ListingRef
	orders       map[string]*OrderRef
	reviews      []*Review
	purchases    map[string]bool    // buyerID + "|" + listingID
	sellerRating map[string]float64 // recomputed mean per receiver
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings:     make(map[string]*ListingRef),
		orders:       make(map[string]*OrderRef),
		purchases:    make(map[string]bool),
		sellerRating: make(map[string]float64),
	}
}

func (s *fakeStore) GetListing(_ context.Context, id string) (*ListingRef, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	return l, nil
}

func (s *fakeStore) GetOrder(_ context.Context, id string) (*OrderRef, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeStore) HasReview(_ context.Context, giverID, listingID string) (bool, error) {
	for _, r := range s.reviews {
		if r.GiverID == giverID && r.ListingID == listingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) HasCompletedPurchase(_ context.Context, buyerID, listingID string) (bool, error) {
	return s.purchases[buyerID+"|"+listingID], nil
}

func (s *fakeStore) InsertReview(_ context.Context, r *Review) error {
	for _, existing := range s.reviews {
		if existing.GiverID == r.GiverID && existing.ListingID == r.ListingID {
			return ErrDuplicateReview
		}
	}
	s.reviews = append(s.reviews, r)

	// Same contract as the real store: the receiver's mean is recomputed
	// from the review rows alongside the insert.
	var sum, n float64
	for _, rv := range s.reviews {
		if rv.ReceiverID == r.ReceiverID {
			sum += float64(rv.Rating)
			n++
		}
	}
	s.sellerRating[r.ReceiverID] = sum / n
	return nil
}

func setup(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.listings["l1"] = &ListingRef{ID: "l1", SellerID: "seller", Title: "Font bundle"}
	store.purchases["buyer|l1"] = true
	return NewService(store), store
}

var buyer = auth.Actor{ID: "buyer", Role: auth.RoleBuyer}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, store := setup(t)

		r, events, err := svc.Submit(ctx, buyer, SubmitInput{
			ListingID: "l1", Rating: 5, Comment: "great fonts",
		})

		require.NoError(t, err)
		assert.Equal(t, "buyer", r.GiverID)
		assert.Equal(t, "seller", r.ReceiverID)
		assert.Equal(t, 5, r.Rating)
		require.Len(t, store.reviews, 1)

		require.Len(t, events, 1)
		assert.Equal(t, "seller", events[0].RecipientID)
		assert.Equal(t, notify.TypeReview, events[0].Type)
		assert.Equal(t, r.ID, events[0].Reference)
	})

	t.Run("rating out of bounds", func(t *testing.T) {
		svc, _ := setup(t)
		for _, rating := range []int{0, -1, 6} {
			_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", Rating: rating})
			assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
		}
	})

	t.Run("comment too long", func(t *testing.T) {
		svc, _ := setup(t)
		_, _, err := svc.Submit(ctx, buyer, SubmitInput{
			ListingID: "l1", Rating: 4, Comment: strings.Repeat("x", 1001),
		})
		assert.ErrorIs(t, err, ErrCommentTooLong)
	})

	t.Run("no completed purchase", func(t *testing.T) {
		svc, _ := setup(t)
		_, _, err := svc.Submit(ctx, auth.Actor{ID: "window-shopper", Role: auth.RoleBuyer},
			SubmitInput{ListingID: "l1", Rating: 5})
		assert.ErrorIs(t, err, ErrNoPurchase)
	})

	t.Run("duplicate review", func(t *testing.T) {
		svc, _ := setup(t)
		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", Rating: 5})
		require.NoError(t, err)

		_, _, err = svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", Rating: 3})
		assert.ErrorIs(t, err, ErrDuplicateReview)
	})

	t.Run("unknown listing", func(t *testing.T) {
		svc, _ := setup(t)
		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "nope", Rating: 5})
		assert.ErrorIs(t, err, ErrListingNotFound)
	})

	t.Run("order path validates ownership", func(t *testing.T) {
		svc, store := setup(t)
		store.orders["o1"] = &OrderRef{ID: "o1", BuyerID: "someone-else", ListingID: "l1", Status: "completed"}

		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", OrderID: "o1", Rating: 5})
		assert.ErrorIs(t, err, ErrNoPurchase)
	})

	t.Run("order path validates listing match", func(t *testing.T) {
		svc, store := setup(t)
		store.orders["o1"] = &OrderRef{ID: "o1", BuyerID: "buyer", ListingID: "other", Status: "completed"}

		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", OrderID: "o1", Rating: 5})
		assert.ErrorIs(t, err, ErrOrderMismatch)
	})

	t.Run("seller aggregate tracks the arithmetic mean", func(t *testing.T) {
		svc, store := setup(t)
		store.purchases["buyer2|l1"] = true
		store.purchases["buyer3|l1"] = true

		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", Rating: 5})
		require.NoError(t, err)
		assert.InDelta(t, 5.0, store.sellerRating["seller"], 1e-9)

		_, _, err = svc.Submit(ctx, auth.Actor{ID: "buyer2", Role: auth.RoleBuyer},
			SubmitInput{ListingID: "l1", Rating: 3})
		require.NoError(t, err)
		assert.InDelta(t, 4.0, store.sellerRating["seller"], 1e-9)

		_, _, err = svc.Submit(ctx, auth.Actor{ID: "buyer3", Role: auth.RoleBuyer},
			SubmitInput{ListingID: "l1", Rating: 4})
		require.NoError(t, err)
		assert.InDelta(t, 4.0, store.sellerRating["seller"], 1e-9)
	})

	t.Run("order path requires completion", func(t *testing.T) {
		svc, store := setup(t)
		store.orders["o1"] = &OrderRef{ID: "o1", BuyerID: "buyer", ListingID: "l1", Status: "delivered"}

		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", OrderID: "o1", Rating: 5})
		assert.ErrorIs(t, err, ErrNoPurchase)
	})
}

func TestCanReview(t *testing.T) {
	ctx := context.Background()

	t.Run("eligible buyer", func(t *testing.T) {
		svc, _ := setup(t)
		elig, err := svc.CanReview(ctx, "buyer", "l1")

		require.NoError(t, err)
		assert.True(t, elig.CanReview)
		assert.Equal(t, ReasonOK, elig.Reason)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc, _ := setup(t)
		elig, err := svc.CanReview(ctx, "", "l1")

		require.NoError(t, err)
		assert.False(t, elig.CanReview)
		assert.Equal(t, ReasonNotAuthenticated, elig.Reason)
	})

	t.Run("already reviewed", func(t *testing.T) {
		svc, _ := setup(t)
		_, _, err := svc.Submit(ctx, buyer, SubmitInput{ListingID: "l1", Rating: 4})
		require.NoError(t, err)

		elig, err := svc.CanReview(ctx, "buyer", "l1")
		require.NoError(t, err)
		assert.False(t, elig.CanReview)
		assert.Equal(t, ReasonAlreadyReviewed, elig.Reason)
	})

	t.Run("no purchase", func(t *testing.T) {
		svc, _ := setup(t)
		elig, err := svc.CanReview(ctx, "window-shopper", "l1")

		require.NoError(t, err)
		assert.False(t, elig.CanReview)
		assert.Equal(t, ReasonNoPurchase, elig.Reason)
	})
}

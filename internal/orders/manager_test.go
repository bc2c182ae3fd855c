package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelmart/pixelmart/internal/auth"
	"github.com/pixelmart/pixelmart/internal/notify"
)

// fakeStore is an in-memory Store with the same conditional-write
// semantics as the Postgres implementation.
type fakeStore struct {
	listings  map[string]*ListingInfo
	orders    map[string]*Order
	completes map[string]int // counter bumps per order, must stay <= 1
	refunds   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings:  make(map[string]*ListingInfo),
		orders:    make(map[string]*Order),
		completes: make(map[string]int),
	}
}

func (s *fakeStore) GetListing(_ context.Context, id string) (*ListingInfo, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeStore) GetOrder(_ context.Context, id string) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) InsertOrder(_ context.Context, o *Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, orderID string, next Status, from ...Status) (bool, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = next
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Cancel(_ context.Context, o *Order, next Status, from ...Status) (bool, error) {
	applied, err := s.SetStatus(context.Background(), o.ID, next, from...)
	if applied {
		s.orders[o.ID].PaymentStatus = PaymentRefunded
		s.refunds++
	}
	return applied, err
}

func (s *fakeStore) Complete(_ context.Context, o *Order, at time.Time) (bool, error) {
	stored, ok := s.orders[o.ID]
	if !ok || stored.Status.Terminal() {
		return false, nil
	}
	stored.Status = StatusCompleted
	stored.CompletedAt = &at
	s.completes[o.ID]++
	return true, nil
}

func mustParseDate(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return ts
}

func setup(t *testing.T) (*Manager, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.listings["l1"] = &ListingInfo{
		ID: "l1", SellerID: "seller", Title: "Icon pack", PriceCents: 10000, Status: "active",
	}
	m := NewManager(store)
	m.now = func() time.Time { return mustParseDate(t, "2026-03-15") }
	return m, store
}

func placeOrder(t *testing.T, m *Manager, store *fakeStore, status Status) *Order {
	t.Helper()
	o, _, err := m.Create(context.Background(), auth.Actor{ID: "buyer", Role: auth.RoleBuyer}, "l1", "card")
	require.NoError(t, err)
	store.orders[o.ID].Status = status
	o.Status = status
	return o
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	buyer := auth.Actor{ID: "buyer", Role: auth.RoleBuyer}

	t.Run("success", func(t *testing.T) {
		m, store := setup(t)
		o, events, err := m.Create(ctx, buyer, "l1", "card")

		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PaymentPaid, o.PaymentStatus)
		assert.Equal(t, int64(10000), o.SubtotalCents)
		assert.Equal(t, int64(10770), o.TotalCents)
		assert.NotNil(t, store.orders[o.ID])

		require.Len(t, events, 2)
		assert.Equal(t, "buyer", events[0].RecipientID)
		assert.Equal(t, "seller", events[1].RecipientID)
		assert.Equal(t, notify.TypeOrder, events[0].Type)
	})

	t.Run("own listing rejected", func(t *testing.T) {
		m, _ := setup(t)
		_, _, err := m.Create(ctx, auth.Actor{ID: "seller", Role: auth.RoleSeller}, "l1", "card")
		assert.ErrorIs(t, err, ErrOwnListing)
	})

	t.Run("inactive listing rejected", func(t *testing.T) {
		m, store := setup(t)
		store.listings["l1"].Status = "pending"
		_, _, err := m.Create(ctx, buyer, "l1", "card")
		assert.ErrorIs(t, err, ErrListingUnavailable)
	})

	t.Run("unknown listing", func(t *testing.T) {
		m, _ := setup(t)
		_, _, err := m.Create(ctx, buyer, "nope", "card")
		assert.ErrorIs(t, err, ErrListingNotFound)
	})

	t.Run("digital listing completes immediately", func(t *testing.T) {
		m, store := setup(t)
		store.listings["l1"].IsDigital = true

		o, events, err := m.Create(ctx, buyer, "l1", "card")

		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, o.Status)
		require.NotNil(t, o.CompletedAt)
		assert.Equal(t, 1, store.completes[o.ID])
		// placed + completed, both counterparties each time
		require.Len(t, events, 4)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	buyer := auth.Actor{ID: "buyer", Role: auth.RoleBuyer}
	seller := auth.Actor{ID: "seller", Role: auth.RoleSeller}
	admin := auth.Actor{ID: "admin", Role: auth.RoleAdmin}

	t.Run("buyer cancels pending order", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		got, events, err := m.Cancel(ctx, buyer, o.ID)

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, PaymentRefunded, got.PaymentStatus)
		assert.Equal(t, 1, store.refunds)
		require.Len(t, events, 2)
	})

	t.Run("seller cancels processing order", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusProcessing)

		_, _, err := m.Cancel(ctx, seller, o.ID)
		require.NoError(t, err)
	})

	t.Run("rejected once shipped", func(t *testing.T) {
		for _, st := range []Status{StatusShipped, StatusDelivered, StatusCompleted, StatusCancelled, StatusRefunded} {
			m, store := setup(t)
			o := placeOrder(t, m, store, st)

			_, _, err := m.Cancel(ctx, buyer, o.ID)
			assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", st)
			assert.Equal(t, 0, store.refunds)
		}
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		_, _, err := m.Cancel(ctx, auth.Actor{ID: "stranger", Role: auth.RoleBuyer}, o.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin may cancel", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		_, _, err := m.Cancel(ctx, admin, o.ID)
		require.NoError(t, err)
	})

	t.Run("conditional write rejects a concurrent transition", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		// Simulates another request winning the write: the conditional
		// update finds no eligible row and must not refund.
		applied, err := store.Cancel(ctx, o, StatusCancelled, StatusShipped)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 0, store.refunds)

		_, _, err = m.Cancel(ctx, buyer, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, store.refunds)
	})
}

func TestAdvanceOrder(t *testing.T) {
	ctx := context.Background()
	buyer := auth.Actor{ID: "buyer", Role: auth.RoleBuyer}
	seller := auth.Actor{ID: "seller", Role: auth.RoleSeller}
	admin := auth.Actor{ID: "admin", Role: auth.RoleAdmin}

	t.Run("seller walks the fulfilment chain", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		for _, next := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
			got, events, err := m.Advance(ctx, seller, o.ID, next)
			require.NoError(t, err)
			assert.Equal(t, next, got.Status)
			require.Len(t, events, 2)
		}
	})

	t.Run("seller cannot skip ahead", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		_, _, err := m.Advance(ctx, seller, o.ID, StatusDelivered)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("buyer completes a delivered order", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusDelivered)

		got, _, err := m.Advance(ctx, buyer, o.ID, StatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, 1, store.completes[o.ID])
	})

	t.Run("buyer cannot advance fulfilment", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusShipped)

		// shipped->delivered exists but belongs to the seller
		_, _, err := m.Advance(ctx, buyer, o.ID, StatusDelivered)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		_, _, err := m.Advance(ctx, auth.Actor{ID: "x", Role: auth.RoleSeller}, o.ID, StatusProcessing)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin jumps pending to completed", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusPending)

		got, events, err := m.Advance(ctx, admin, o.ID, StatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		assert.Equal(t, 1, store.completes[o.ID])
		require.Len(t, events, 2)
	})

	t.Run("admin refund flips payment status", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusDelivered)

		got, _, err := m.Advance(ctx, admin, o.ID, StatusRefunded)

		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, got.Status)
		assert.Equal(t, PaymentRefunded, got.PaymentStatus)
		assert.Equal(t, 1, store.refunds)
	})

	t.Run("admin cannot leave a terminal state", func(t *testing.T) {
		for _, st := range []Status{StatusCompleted, StatusCancelled, StatusRefunded} {
			m, store := setup(t)
			o := placeOrder(t, m, store, st)

			_, _, err := m.Advance(ctx, admin, o.ID, StatusProcessing)
			assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", st)
		}
	})

	t.Run("completion counters bump exactly once", func(t *testing.T) {
		m, store := setup(t)
		o := placeOrder(t, m, store, StatusDelivered)

		_, _, err := m.Advance(ctx, buyer, o.ID, StatusCompleted)
		require.NoError(t, err)

		// Replay of the same confirmation must not double-count.
		_, _, err = m.Advance(ctx, buyer, o.ID, StatusCompleted)
		assert.Error(t, err)
		assert.Equal(t, 1, store.completes[o.ID])
	})

	t.Run("unknown order", func(t *testing.T) {
		m, _ := setup(t)
		_, _, err := m.Advance(ctx, admin, "nope", StatusProcessing)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/pixelmart/pixelmart/internal/db"
)

// PGStore implements Store against the shared pgx pool.
type PGStore struct{}

var _ Store = PGStore{}

func (PGStore) GetListing(ctx context.Context, id string) (*ListingInfo, error) {
	var l ListingInfo
	err := db.Conn.QueryRow(ctx, `
        SELECT id, seller_id, title, price_cents, status, is_digital
        FROM listings WHERE id = $1`, id,
	).Scan(&l.ID, &l.SellerID, &l.Title, &l.PriceCents, &l.Status, &l.IsDigital)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, errors.Wrap(err, "fetch listing")
	}
	return &l, nil
}

func (PGStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := db.Conn.QueryRow(ctx, `
        SELECT id, order_number, buyer_id, seller_id, listing_id, status, payment_status,
               payment_method, subtotal_cents, platform_fee_cents, transaction_fee_cents,
               total_cents, completed_at, created_at, updated_at
        FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.SellerID, &o.ListingID, &o.Status,
		&o.PaymentStatus, &o.PaymentMethod, &o.SubtotalCents, &o.PlatformFeeCents,
		&o.TransactionFeeCents, &o.TotalCents, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "fetch order")
	}
	return &o, nil
}

func (PGStore) InsertOrder(ctx context.Context, o *Order) error {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO orders (id, order_number, buyer_id, seller_id, listing_id, status,
                            payment_status, payment_method, subtotal_cents, platform_fee_cents,
                            transaction_fee_cents, total_cents, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		o.ID, o.OrderNumber, o.BuyerID, o.SellerID, o.ListingID, string(o.Status),
		string(o.PaymentStatus), o.PaymentMethod, o.SubtotalCents, o.PlatformFeeCents,
		o.TransactionFeeCents, o.TotalCents, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	// Simulated gateway capture.
	_, err = tx.Exec(ctx, `
        INSERT INTO payments (id, order_id, user_id, amount_cents, kind, method, status)
        VALUES ($1, $2, $3, $4, 'capture', $5, 'success')`,
		uuid.New().String(), o.ID, o.BuyerID, o.TotalCents, o.PaymentMethod,
	)
	if err != nil {
		return errors.Wrap(err, "record capture")
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

func (PGStore) SetStatus(ctx context.Context, orderID string, next Status, from ...Status) (bool, error) {
	ct, err := db.Conn.Exec(ctx, `
        UPDATE orders SET status = $2, updated_at = NOW()
        WHERE id = $1 AND status = ANY($3)`,
		orderID, string(next), statusStrings(from),
	)
	if err != nil {
		return false, errors.Wrap(err, "update status")
	}
	return ct.RowsAffected() > 0, nil
}

func (PGStore) Cancel(ctx context.Context, o *Order, next Status, from ...Status) (bool, error) {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return false, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
        UPDATE orders SET status = $2, payment_status = 'refunded', updated_at = NOW()
        WHERE id = $1 AND status = ANY($3)`,
		o.ID, string(next), statusStrings(from),
	)
	if err != nil {
		return false, errors.Wrap(err, "update status")
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	// Simulated gateway refund back to the buyer.
	_, err = tx.Exec(ctx, `
        INSERT INTO payments (id, order_id, user_id, amount_cents, kind, method, status)
        VALUES ($1, $2, $3, $4, 'refund', $5, 'success')`,
		uuid.New().String(), o.ID, o.BuyerID, o.TotalCents, o.PaymentMethod,
	)
	if err != nil {
		return false, errors.Wrap(err, "record refund")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit")
	}
	return true, nil
}

func (PGStore) Complete(ctx context.Context, o *Order, at time.Time) (bool, error) {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return false, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	// Conditional write keeps the counter increments exactly-once even if
	// two completion requests race: only the one that flips the status
	// reaches the counter updates.
	ct, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = 'completed', completed_at = COALESCE(completed_at, $2), updated_at = NOW()
        WHERE id = $1 AND status NOT IN ('completed','cancelled','refunded')`,
		o.ID, at,
	)
	if err != nil {
		return false, errors.Wrap(err, "mark completed")
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE users SET total_sales = total_sales + 1, completed_orders = completed_orders + 1
        WHERE id = $1`, o.SellerID,
	)
	if err != nil {
		return false, errors.Wrap(err, "bump seller counters")
	}

	_, err = tx.Exec(ctx, `
        UPDATE listings SET sales = sales + 1, status = 'sold', updated_at = NOW()
        WHERE id = $1`, o.ListingID,
	)
	if err != nil {
		return false, errors.Wrap(err, "mark listing sold")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit")
	}
	return true, nil
}

func statusStrings(in []Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

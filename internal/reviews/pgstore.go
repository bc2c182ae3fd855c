package reviews

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/pixelmart/pixelmart/internal/db"
)

// PGStore implements Store against the shared pgx pool.
type PGStore struct{}

var _ Store = PGStore{}

func (PGStore) GetListing(ctx context.Context, id string) (*ListingRef, error) {
	var l ListingRef
	err := db.Conn.QueryRow(ctx,
		`SELECT id, seller_id, title FROM listings WHERE id = $1`, id,
	).Scan(&l.ID, &l.SellerID, &l.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, errors.Wrap(err, "fetch listing")
	}
	return &l, nil
}

func (PGStore) GetOrder(ctx context.Context, id string) (*OrderRef, error) {
	var o OrderRef
	err := db.Conn.QueryRow(ctx,
		`SELECT id, buyer_id, listing_id, status FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.BuyerID, &o.ListingID, &o.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "fetch order")
	}
	return &o, nil
}

func (PGStore) HasReview(ctx context.Context, giverID, listingID string) (bool, error) {
	var exists bool
	err := db.Conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM reviews WHERE giver_id = $1 AND listing_id = $2)`,
		giverID, listingID,
	).Scan(&exists)
	return exists, errors.Wrap(err, "check review")
}

func (PGStore) HasCompletedPurchase(ctx context.Context, buyerID, listingID string) (bool, error) {
	var exists bool
	err := db.Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM orders
            WHERE buyer_id = $1 AND listing_id = $2 AND status = 'completed'
        )`, buyerID, listingID,
	).Scan(&exists)
	return exists, errors.Wrap(err, "check purchase")
}

func (PGStore) InsertReview(ctx context.Context, r *Review) error {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	var orderID interface{}
	if r.OrderID != "" {
		orderID = r.OrderID
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO reviews (id, listing_id, order_id, giver_id, receiver_id, rating, comment, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.ListingID, orderID, r.GiverID, r.ReceiverID, r.Rating, r.Comment, r.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReview
		}
		return errors.Wrap(err, "insert review")
	}

	if err := recomputeSellerAggregates(ctx, tx, r.ReceiverID); err != nil {
		return errors.Wrap(err, "recompute seller rating")
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

// recomputeSellerAggregates rewrites the seller's denormalized mean rating
// from the review rows, inside the caller's transaction, so the aggregate
// can never drift from its source.
func recomputeSellerAggregates(ctx context.Context, tx pgx.Tx, sellerID string) error {
	_, err := tx.Exec(ctx, `
        UPDATE users
        SET seller_rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE receiver_id = $1)
        WHERE id = $1`, sellerID,
	)
	return err
}

package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

// AddFavorite saves a listing to the caller's favorites. Idempotent.
func AddFavorite(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("id")

	ctx := context.Background()

	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, listingID,
	).Scan(&exists); err != nil || !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	_, err := db.Conn.Exec(ctx, `
        INSERT INTO favorites (user_id, listing_id, created_at) VALUES ($1, $2, $3)`,
		uid, listingID, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusOK, echo.Map{"message": "already favorited"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save favorite"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "favorited"})
}

// RemoveFavorite drops a listing from the caller's favorites.
func RemoveFavorite(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("id")

	tag, err := db.Conn.Exec(context.Background(),
		`DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`, uid, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove favorite"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed"})
}

// ListFavorites returns the caller's favorited listings, newest first.
func ListFavorites(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`, uid,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count favorites"})
	}

	rows, err := db.Conn.Query(ctx, `
        SELECT l.id, l.seller_id, l.title, l.price_cents, l.status, l.featured, l.is_digital,
               l.sales, l.created_at,
               COALESCE((SELECT url FROM listing_images WHERE listing_id = l.id AND is_main LIMIT 1), ''),
               COALESCE((SELECT AVG(rating) FROM reviews WHERE listing_id = l.id), 0)
        FROM favorites f
        JOIN listings l ON f.listing_id = l.id
        WHERE f.user_id = $1
        ORDER BY f.created_at DESC LIMIT $2 OFFSET $3`, uid, p.Limit, p.Offset())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch favorites"})
	}
	defer rows.Close()

	var listings []ListingSummary
	for rows.Next() {
		var s ListingSummary
		if err := rows.Scan(&s.ID, &s.SellerID, &s.Title, &s.PriceCents, &s.Status, &s.Featured,
			&s.IsDigital, &s.Sales, &s.CreatedAt, &s.MainImageURL, &s.AvgRating); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse listing"})
		}
		listings = append(listings, s)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listings":   listings,
		"pagination": pagination.NewEnvelope(total, p),
	})
}

package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
)

// PublicProfile returns the public face of a user: display name, seller
// aggregates and how much they have on sale. No email, no role internals.
func PublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	ctx := context.Background()

	var (
		name            string
		sellerRating    float64
		totalSales      int64
		completedOrders int64
		memberSince     time.Time
	)
	err := db.Conn.QueryRow(ctx, `
        SELECT name, seller_rating, total_sales, completed_orders, created_at
        FROM users WHERE id = $1 AND is_active`, userID,
	).Scan(&name, &sellerRating, &totalSales, &completedOrders, &memberSince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}

	var activeListings, reviewCount int64
	_ = db.Conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM listings WHERE seller_id = $1 AND status = 'active'),
            (SELECT COUNT(*) FROM reviews WHERE receiver_id = $1)`, userID,
	).Scan(&activeListings, &reviewCount)

	return c.JSON(http.StatusOK, echo.Map{
		"id":               userID,
		"name":             name,
		"seller_rating":    sellerRating,
		"total_sales":      totalSales,
		"completed_orders": completedOrders,
		"active_listings":  activeListings,
		"review_count":     reviewCount,
		"member_since":     memberSince,
	})
}

package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
)

// Stats returns the platform dashboard counters.
func Stats(c echo.Context) error {
	ctx := context.Background()

	var (
		totalUsers       int64
		totalSellers     int64
		totalListings    int64
		pendingListings  int64
		totalOrders      int64
		completedOrders  int64
		grossCents       int64
		platformCents    int64
		transactionCents int64
	)

	err := db.Conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM users WHERE role IN ('seller', 'admin')),
            (SELECT COUNT(*) FROM listings),
            (SELECT COUNT(*) FROM listings WHERE status = 'pending'),
            (SELECT COUNT(*) FROM orders),
            (SELECT COUNT(*) FROM orders WHERE status = 'completed'),
            (SELECT COALESCE(SUM(total_cents), 0) FROM orders WHERE status = 'completed'),
            (SELECT COALESCE(SUM(platform_fee_cents), 0) FROM orders WHERE status = 'completed'),
            (SELECT COALESCE(SUM(transaction_fee_cents), 0) FROM orders WHERE status = 'completed')`,
	).Scan(&totalUsers, &totalSellers, &totalListings, &pendingListings,
		&totalOrders, &completedOrders, &grossCents, &platformCents, &transactionCents)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_users":           totalUsers,
		"total_sellers":         totalSellers,
		"total_listings":        totalListings,
		"pending_listings":      pendingListings,
		"total_orders":          totalOrders,
		"completed_orders":      completedOrders,
		"gross_revenue_cents":   grossCents,
		"platform_fee_cents":    platformCents,
		"transaction_fee_cents": transactionCents,
	})
}

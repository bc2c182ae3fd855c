package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/catalog"
	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/notify"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

// ListListings returns listings in any status for moderation, defaulting
// to the pending queue.
func ListListings(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "pending"
	}
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	where := ""
	var args []any
	if status != "all" {
		where = "WHERE l.status = $1"
		args = append(args, status)
	}

	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM listings l `+where, args...,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count listings"})
	}

	query := `
        SELECT l.id, l.seller_id, l.title, l.price_cents, l.status, l.featured, l.is_digital,
               l.sales, l.created_at,
               COALESCE((SELECT url FROM listing_images WHERE listing_id = l.id AND is_main LIMIT 1), ''),
               COALESCE((SELECT AVG(rating) FROM reviews WHERE listing_id = l.id), 0)
        FROM listings l ` + where +
		fmt.Sprintf(" ORDER BY l.created_at ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset())

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}
	defer rows.Close()

	var listings []catalog.ListingSummary
	for rows.Next() {
		var s catalog.ListingSummary
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

// ModerateListing approves or rejects a pending listing, or toggles the
// featured flag on an active one.
func ModerateListing(c echo.Context) error {
	listingID := c.Param("id")

	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil || req.Action == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing action"})
	}

	ctx := context.Background()

	var query, title, message string
	switch req.Action {
	case "approve":
		query = `UPDATE listings SET status = 'active', updated_at = NOW() WHERE id = $1 AND status = 'pending'`
		title = "Listing approved"
		message = "Your listing is now live on the marketplace."
	case "reject":
		query = `UPDATE listings SET status = 'rejected', updated_at = NOW() WHERE id = $1 AND status = 'pending'`
		title = "Listing rejected"
		message = "Your listing did not pass moderation. Review the guidelines and resubmit."
	case "feature":
		query = `UPDATE listings SET featured = TRUE, updated_at = NOW() WHERE id = $1 AND status = 'active'`
	case "unfeature":
		query = `UPDATE listings SET featured = FALSE, updated_at = NOW() WHERE id = $1`
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized action"})
	}

	var sellerID, listingTitle string
	if err := db.Conn.QueryRow(ctx,
		`SELECT seller_id, title FROM listings WHERE id = $1`, listingID,
	).Scan(&sellerID, &listingTitle); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	tag, err := db.Conn.Exec(ctx, query, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "listing is not in a moderatable state"})
	}

	if title != "" {
		notify.Dispatch([]notify.Event{{
			RecipientID: sellerID,
			Type:        notify.TypeSystem,
			Title:       title,
			Message:     message + " (" + listingTitle + ")",
			Reference:   listingID,
		}})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "listing updated"})
}

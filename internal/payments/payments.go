package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

// Entry is one row of the simulated payment ledger. Captures are written
// when an order is placed, refunds when it is cancelled or refunded.
type Entry struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Kind        string    `json:"kind"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListMyPayments returns the caller's ledger entries, newest first.
func ListMyPayments(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	return listPayments(c, p, "WHERE p.user_id = $1", []any{uid})
}

// AdminListPayments returns the full ledger, optionally filtered by kind.
func AdminListPayments(c echo.Context) error {
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	where := ""
	var args []any
	if kind := c.QueryParam("kind"); kind == "capture" || kind == "refund" {
		where = "WHERE p.kind = $1"
		args = append(args, kind)
	}
	return listPayments(c, p, where, args)
}

func listPayments(c echo.Context, p pagination.Params, where string, args []any) error {
	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments p `+where, args...,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count payments"})
	}

	query := `
        SELECT p.id, p.order_id, o.order_number, p.user_id, p.amount_cents,
               p.kind, p.method, p.status, p.created_at
        FROM payments p
        JOIN orders o ON p.order_id = o.id ` + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset())

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch payments"})
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.OrderNumber, &e.UserID, &e.AmountCents,
			&e.Kind, &e.Method, &e.Status, &e.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse payment"})
		}
		entries = append(entries, e)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payments":   entries,
		"pagination": pagination.NewEnvelope(total, p),
	})
}

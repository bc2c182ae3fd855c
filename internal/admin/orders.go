package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/middleware"
	"github.com/pixelmart/pixelmart/internal/notify"
	"github.com/pixelmart/pixelmart/internal/orders"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

// ListOrders returns every order, filtered by status, payment status or
// participant, sorted and paginated.
func ListOrders(c echo.Context) error {
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if status := c.QueryParam("status"); status != "" {
		if _, ok := orders.ParseStatus(status); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized status"})
		}
		where = append(where, "status = "+arg(status))
	}
	if ps := c.QueryParam("payment_status"); ps != "" {
		if _, ok := orders.ParsePaymentStatus(ps); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized payment_status"})
		}
		where = append(where, "payment_status = "+arg(ps))
	}
	if buyer := c.QueryParam("buyer_id"); buyer != "" {
		where = append(where, "buyer_id = "+arg(buyer))
	}
	if seller := c.QueryParam("seller_id"); seller != "" {
		where = append(where, "seller_id = "+arg(seller))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + where[0]
		for _, w := range where[1:] {
			whereSQL += " AND " + w
		}
	}

	orderBy := "created_at DESC"
	switch c.QueryParam("sort") {
	case "oldest":
		orderBy = "created_at ASC"
	case "total_desc":
		orderBy = "total_cents DESC"
	case "total_asc":
		orderBy = "total_cents ASC"
	}

	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM orders "+whereSQL, args...,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count orders"})
	}

	query := `
        SELECT id, order_number, buyer_id, seller_id, listing_id, status, payment_status,
               payment_method, subtotal_cents, platform_fee_cents, transaction_fee_cents,
               total_cents, completed_at, created_at, updated_at
        FROM orders ` + whereSQL +
		fmt.Sprintf(" ORDER BY %s LIMIT %s OFFSET %s", orderBy, arg(p.Limit), arg(p.Offset()))

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch orders"})
	}
	defer rows.Close()

	var list []orders.Order
	for rows.Next() {
		var o orders.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.SellerID, &o.ListingID,
			&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.SubtotalCents,
			&o.PlatformFeeCents, &o.TransactionFeeCents, &o.TotalCents,
			&o.CompletedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse order"})
		}
		list = append(list, o)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders":     list,
		"pagination": pagination.NewEnvelope(total, p),
	})
}

// UpdateOrder lets an admin override an order, identified in the body.
// Status changes run through the lifecycle manager so counters, refund rows
// and notifications stay consistent; payment_status is set directly.
func UpdateOrder(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id"})
	}
	if req.Status == "" && req.PaymentStatus == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx := context.Background()

	var o *orders.Order
	if req.Status != "" {
		next, valid := orders.ParseStatus(req.Status)
		if !valid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized status"})
		}
		var events []notify.Event
		var err error
		o, events, err = orders.NewManager(orders.PGStore{}).Advance(ctx, actor, req.ID, next)
		if err != nil {
			return orderError(c, err)
		}
		notify.Dispatch(events)
	}

	if req.PaymentStatus != "" {
		if _, valid := orders.ParsePaymentStatus(req.PaymentStatus); !valid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized payment_status"})
		}
		tag, err := db.Conn.Exec(ctx,
			`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
			req.ID, req.PaymentStatus)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update order"})
		}
		if tag.RowsAffected() == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
	}

	if o == nil {
		fresh, err := orders.PGStore{}.GetOrder(ctx, req.ID)
		if err != nil {
			return orderError(c, err)
		}
		o = fresh
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o})
}

func orderError(c echo.Context, err error) error {
	switch err {
	case orders.ErrOrderNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case orders.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case orders.ErrInvalidTransition:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

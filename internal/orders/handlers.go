package orders

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/middleware"
	"github.com/pixelmart/pixelmart/internal/notify"
)

func manager() *Manager { return NewManager(PGStore{}) }

// respondError translates lifecycle errors into status codes. Unexpected
// failures are logged with detail and surfaced as a generic 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrListingUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrOwnListing),
		errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrNonPositiveAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		log.Printf("orders: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// =========================
// CreateOrder - Buyer places an order for a listing
// =========================
func CreateOrder(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ListingID     string `json:"listing_id"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil || req.ListingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing_id"})
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "card"
	}

	o, events, err := manager().Create(context.Background(), actor, req.ListingID, req.PaymentMethod)
	if err != nil {
		return respondError(c, err)
	}
	notify.Dispatch(events)

	return c.JSON(http.StatusCreated, echo.Map{"order": o})
}

// =========================
// CancelOrder - Buyer, seller or admin aborts an unshipped order
// =========================
func CancelOrder(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id in URL"})
	}

	o, events, err := manager().Cancel(context.Background(), actor, orderID)
	if err != nil {
		return respondError(c, err)
	}
	notify.Dispatch(events)

	return c.JSON(http.StatusOK, echo.Map{"order": o, "message": "Order cancelled"})
}

// =========================
// UpdateOrderStatus - Seller advances fulfilment (processing/shipped/delivered)
// =========================
func UpdateOrderStatus(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id in URL"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing status"})
	}
	next, valid := ParseStatus(req.Status)
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized status"})
	}

	o, events, err := manager().Advance(context.Background(), actor, orderID, next)
	if err != nil {
		return respondError(c, err)
	}
	notify.Dispatch(events)

	return c.JSON(http.StatusOK, echo.Map{"order": o})
}

// =========================
// CompleteOrder - Buyer confirms receipt of a delivered order
// =========================
func CompleteOrder(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id in URL"})
	}

	o, events, err := manager().Advance(context.Background(), actor, orderID, StatusCompleted)
	if err != nil {
		return respondError(c, err)
	}
	notify.Dispatch(events)

	return c.JSON(http.StatusOK, echo.Map{"order": o, "message": "Order completed"})
}

// =========================
// GetUserOrders - Fetch all orders for the caller (as buyer or seller)
// =========================
func GetUserOrders(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(), `
        SELECT id, order_number, buyer_id, seller_id, listing_id, status, payment_status,
               payment_method, subtotal_cents, platform_fee_cents, transaction_fee_cents,
               total_cents, completed_at, created_at, updated_at
        FROM orders WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch orders"})
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.SellerID, &o.ListingID,
			&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.SubtotalCents,
			&o.PlatformFeeCents, &o.TransactionFeeCents, &o.TotalCents,
			&o.CompletedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		list = append(list, o)
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": list})
}

// =========================
// GetOrder - Order detail, visible to its participants and admins
// =========================
func GetOrder(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id in URL"})
	}

	o, err := PGStore{}.GetOrder(context.Background(), orderID)
	if err != nil {
		return respondError(c, err)
	}
	if !actor.IsAdmin() && actor.ID != o.BuyerID && actor.ID != o.SellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}

	return c.JSON(http.StatusOK, echo.Map{"order": o})
}

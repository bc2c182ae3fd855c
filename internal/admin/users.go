package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/notify"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

type userRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsActive        bool      `json:"is_active"`
	SellerRating    float64   `json:"seller_rating"`
	TotalSales      int64     `json:"total_sales"`
	CompletedOrders int64     `json:"completed_orders"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListUsers returns all accounts, paginated, newest first.
func ListUsers(c echo.Context) error {
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))
	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count users"})
	}

	rows, err := db.Conn.Query(ctx, `
        SELECT id, name, email, role, is_active, seller_rating, total_sales, completed_orders, created_at
        FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, p.Limit, p.Offset())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
	}
	defer rows.Close()

	var users []userRow
	for rows.Next() {
		var u userRow
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive,
			&u.SellerRating, &u.TotalSales, &u.CompletedOrders, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse user"})
		}
		users = append(users, u)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":      users,
		"pagination": pagination.NewEnvelope(total, p),
	})
}

// UpdateUser applies a moderation action to an account: suspend, activate,
// promote_seller or promote_admin.
func UpdateUser(c echo.Context) error {
	adminID, _ := c.Get("user_id").(string)
	targetID := c.Param("id")

	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil || req.Action == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing action"})
	}
	if targetID == adminID && req.Action == "suspend" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot suspend yourself"})
	}

	var query, title, message string
	switch req.Action {
	case "suspend":
		query = `UPDATE users SET is_active = FALSE WHERE id = $1`
		title = "Account suspended"
		message = "Your account has been suspended. Contact support for details."
	case "activate":
		query = `UPDATE users SET is_active = TRUE WHERE id = $1`
		title = "Account reactivated"
		message = "Your account is active again. Welcome back."
	case "promote_seller":
		query = `UPDATE users SET role = 'seller' WHERE id = $1 AND role = 'buyer'`
		title = "Seller access granted"
		message = "You can now create listings and sell on the marketplace."
	case "promote_admin":
		query = `UPDATE users SET role = 'admin' WHERE id = $1`
		title = "Admin access granted"
		message = "Your account now has administrator privileges."
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized action"})
	}

	tag, err := db.Conn.Exec(context.Background(), query, targetID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found or not eligible"})
	}

	notify.Dispatch([]notify.Event{{
		RecipientID: targetID,
		Type:        notify.TypeSystem,
		Title:       title,
		Message:     message,
	}})

	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

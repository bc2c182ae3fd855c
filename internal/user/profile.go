package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixelmart/pixelmart/internal/db"
)

// UpdateProfile edits the caller's own account. Changing the password
// requires the current one.
func UpdateProfile(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := context.Background()

	if req.Name != "" {
		if _, err := db.Conn.Exec(ctx,
			`UPDATE users SET name = $2 WHERE id = $1`, uid, req.Name); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
		}
	}

	if req.Email != "" {
		_, err := db.Conn.Exec(ctx, `UPDATE users SET email = $2 WHERE id = $1`, uid, req.Email)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
		}
	}

	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
		}
		var currentHash string
		if err := db.Conn.QueryRow(ctx,
			`SELECT password FROM users WHERE id = $1`, uid).Scan(&currentHash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
		}
		if bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.CurrentPassword)) != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "current password is incorrect"})
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
		}
		if _, err := db.Conn.Exec(ctx,
			`UPDATE users SET password = $2 WHERE id = $1`, uid, string(hashed)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
}

package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixelmart/pixelmart/internal/config"
	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/notify"
)

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmPasswordResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// RequestPasswordReset issues a short-lived reset token.
// Always responds with a generic message to avoid user enumeration.
func RequestPasswordReset(c echo.Context) error {
	generic := echo.Map{"message": "If the email exists, reset instructions have been sent."}

	req := new(RequestPasswordResetRequest)
	if err := c.Bind(req); err != nil || req.Email == "" {
		return c.JSON(http.StatusOK, generic)
	}

	var userID, name string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name FROM users WHERE email = $1`, req.Email).Scan(&userID, &name)
	if err != nil || userID == "" {
		return c.JSON(http.StatusOK, generic)
	}

	cfg := config.Get()
	expiry := time.Duration(cfg.PasswordResetExpMinutes) * time.Minute
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": "password_reset",
		"exp":     time.Now().Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, signErr := token.SignedString([]byte(cfg.JWTSecret))
	if signErr != nil {
		return c.JSON(http.StatusOK, generic)
	}

	base := strings.TrimRight(cfg.AppURL, "/")
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", base, url.QueryEscape(signed))

	notify.Dispatch([]notify.Event{{
		RecipientID: userID,
		Type:        notify.TypeSystem,
		Title:       "Password reset requested",
		Message:     fmt.Sprintf("Hi %s, open %s to choose a new password. The link expires in %d minutes.", name, resetURL, cfg.PasswordResetExpMinutes),
	}})

	return c.JSON(http.StatusOK, generic)
}

// ConfirmPasswordReset validates the reset token and stores the new password.
func ConfirmPasswordReset(c echo.Context) error {
	req := new(ConfirmPasswordResetRequest)
	if err := c.Bind(req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(req.Token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(config.Get().JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	if purpose, _ := claims["purpose"].(string); purpose != "password_reset" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET password = $1 WHERE id = $2`, string(hashed), userID)
	if err != nil || ct.RowsAffected() == 0 {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update password"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

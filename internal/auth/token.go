package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixelmart/pixelmart/internal/config"
)

// issueToken signs a 72h session token carrying the user id and role.
func issueToken(userID string, role Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Get().JWTSecret))
}

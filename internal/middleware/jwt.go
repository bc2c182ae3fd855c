package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/auth"
	"github.com/pixelmart/pixelmart/internal/config"
)

// JWTMiddleware authenticates the bearer token and stashes the actor on the
// request context under "user_id", "role" and "actor".
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing Authorization header"})
		}
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid Authorization format"})
		}
		tokenStr := header[len(prefix):]

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(config.Get().JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		userID, _ := claims["user_id"].(string)
		roleStr, _ := claims["role"].(string)
		role, ok := auth.ParseRole(roleStr)
		if userID == "" || !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
		}

		c.Set("user_id", userID)
		c.Set("role", string(role))
		c.Set("actor", auth.Actor{ID: userID, Role: role})
		return next(c)
	}
}

// OptionalJWT populates the actor when a valid bearer token is present
// but lets anonymous requests through. Used on public routes whose
// response is personalized for signed-in users.
func OptionalJWT(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") == "" {
			return next(c)
		}
		return JWTMiddleware(next)(c)
	}
}

// ActorFrom returns the authenticated actor placed by JWTMiddleware.
func ActorFrom(c echo.Context) (auth.Actor, bool) {
	actor, ok := c.Get("actor").(auth.Actor)
	return actor, ok && actor.ID != ""
}

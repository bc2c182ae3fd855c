package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pixelmart/pixelmart/internal/admin"
	"github.com/pixelmart/pixelmart/internal/auth"
	"github.com/pixelmart/pixelmart/internal/catalog"
	"github.com/pixelmart/pixelmart/internal/config"
	"github.com/pixelmart/pixelmart/internal/db"
	mware "github.com/pixelmart/pixelmart/internal/middleware"
	"github.com/pixelmart/pixelmart/internal/notify"
	"github.com/pixelmart/pixelmart/internal/orders"
	"github.com/pixelmart/pixelmart/internal/payments"
	"github.com/pixelmart/pixelmart/internal/reviews"
	"github.com/pixelmart/pixelmart/internal/user"
)

func main() {
	db.Init()
	notify.Init()
	defer notify.Close()

	e := echo.New()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "pixelmart"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/api/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/password-reset", auth.RequestPasswordReset)
	authGroup.POST("/password-reset/confirm", auth.ConfirmPasswordReset)
	authGroup.POST("/bootstrap-admin", auth.BootstrapAdmin)

	// Public catalog
	e.GET("/api/listings", catalog.BrowseListings)
	e.GET("/api/listings/:id", catalog.GetListing, mware.OptionalJWT)
	e.GET("/api/categories", catalog.ListCategories)
	e.GET("/api/reviews", reviews.ListReviews)
	e.GET("/api/users/:id/profile", user.PublicProfile)

	// Protected routes
	api := e.Group("/api")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)
	api.PATCH("/users/profile", user.UpdateProfile)

	api.POST("/listings", catalog.CreateListing, mware.RequireRoles(auth.RoleSeller, auth.RoleAdmin))
	api.GET("/listings/mine", catalog.GetMyListings, mware.RequireRoles(auth.RoleSeller, auth.RoleAdmin))
	api.PUT("/listings/:id", catalog.UpdateListing, mware.RequireRoles(auth.RoleSeller, auth.RoleAdmin))
	api.DELETE("/listings/:id", catalog.DeleteListing)

	api.POST("/listings/:id/favorite", catalog.AddFavorite)
	api.DELETE("/listings/:id/favorite", catalog.RemoveFavorite)
	api.GET("/favorites", catalog.ListFavorites)

	api.POST("/orders", orders.CreateOrder)
	api.GET("/orders", orders.GetUserOrders)
	api.GET("/orders/:id", orders.GetOrder)
	api.POST("/orders/:id/cancel", orders.CancelOrder)
	api.PATCH("/orders/:id/status", orders.UpdateOrderStatus, mware.RequireRoles(auth.RoleSeller, auth.RoleAdmin))
	api.POST("/orders/:id/complete", orders.CompleteOrder)

	api.POST("/reviews", reviews.CreateReview)
	api.GET("/reviews/can-review", reviews.CanReview)

	api.GET("/payments", payments.ListMyPayments)

	api.GET("/notifications", notify.ListNotifications)
	api.GET("/notifications/unread-count", notify.UnreadCount)
	api.PATCH("/notifications/:id/read", notify.MarkNotificationRead)
	api.PATCH("/notifications/read-all", notify.MarkAllNotificationsRead)

	// Admin routes
	adm := e.Group("/api/admin")
	adm.Use(mware.JWTMiddleware)
	adm.Use(mware.AdminGuard)

	adm.GET("/stats", admin.Stats)
	adm.GET("/users", admin.ListUsers)
	adm.PATCH("/users/:id", admin.UpdateUser)
	adm.GET("/listings", admin.ListListings)
	adm.PATCH("/listings/:id", admin.ModerateListing)
	adm.GET("/payments", payments.AdminListPayments)

	// Admin order oversight.
	sellerOrders := e.Group("/api/seller/orders")
	sellerOrders.Use(mware.JWTMiddleware)
	sellerOrders.Use(mware.AdminGuard)
	sellerOrders.GET("", admin.ListOrders)
	sellerOrders.PATCH("", admin.UpdateOrder)

	// Start server
	if err := e.Start(":" + config.Get().Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

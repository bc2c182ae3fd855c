package reviews

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/middleware"
	"github.com/pixelmart/pixelmart/internal/notify"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

func service() *Service { return NewService(PGStore{}) }

// queryParam returns the first non-empty value among the given spellings.
// Older clients send camelCase filter names.
func queryParam(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := c.QueryParam(n); v != "" {
			return v
		}
	}
	return ""
}

func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrNoPurchase):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrDuplicateReview):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrCommentTooLong),
		errors.Is(err, ErrOrderMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		log.Printf("reviews: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// CreateReview lets a buyer rate a listing they purchased
func CreateReview(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ListingID string `json:"listing_id" validate:"required"`
		OrderID   string `json:"order_id"`
		Rating    int    `json:"rating" validate:"required,min=1,max=5"`
		Comment   string `json:"comment" validate:"max=1000"`
	}
	if err := c.Bind(&req); err != nil || req.ListingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	r, events, err := service().Submit(context.Background(), actor, SubmitInput{
		ListingID: req.ListingID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	notify.Dispatch(events)

	return c.JSON(http.StatusCreated, echo.Map{"review": r})
}

// CanReview answers whether the caller may review a listing and why not
func CanReview(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	listingID := queryParam(c, "listing_id", "listingId")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing_id"})
	}

	elig, err := service().CanReview(context.Background(), userID, listingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, elig)
}

// ListReviews returns reviews filtered by listing or receiver, paginated
func ListReviews(c echo.Context) error {
	listingID := queryParam(c, "listing_id", "listingId")
	receiverID := queryParam(c, "user_id", "userId")
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	where := ""
	var args []any
	switch {
	case listingID != "" && receiverID != "":
		where = "WHERE r.listing_id = $1 AND r.receiver_id = $2"
		args = append(args, listingID, receiverID)
	case listingID != "":
		where = "WHERE r.listing_id = $1"
		args = append(args, listingID)
	case receiverID != "":
		where = "WHERE r.receiver_id = $1"
		args = append(args, receiverID)
	}

	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews r `+where, args...,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count reviews"})
	}

	query := `
        SELECT r.id, r.listing_id, COALESCE(r.order_id::text, ''), r.giver_id, r.receiver_id,
               r.rating, r.comment, r.created_at, u.name, l.title
        FROM reviews r
        JOIN users u ON r.giver_id = u.id
        JOIN listings l ON r.listing_id = l.id ` + where
	limitPos := len(args) + 1
	query += fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", limitPos, limitPos+1)
	args = append(args, p.Limit, p.Offset())

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reviews"})
	}
	defer rows.Close()

	var list []ReviewWithDetails
	for rows.Next() {
		var r ReviewWithDetails
		if err := rows.Scan(&r.ID, &r.ListingID, &r.OrderID, &r.GiverID, &r.ReceiverID,
			&r.Rating, &r.Comment, &r.CreatedAt, &r.GiverName, &r.ListingTitle); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse review"})
		}
		list = append(list, r)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"reviews":    list,
		"pagination": pagination.NewEnvelope(total, p),
	})
}

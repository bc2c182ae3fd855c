package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
	"github.com/pixelmart/pixelmart/internal/middleware"
	"github.com/pixelmart/pixelmart/internal/pagination"
)

type listingRequest struct {
	Title              string            `json:"title" validate:"required"`
	Description        string            `json:"description"`
	PriceCents         int64             `json:"price_cents" validate:"required,gt=0"`
	OriginalPriceCents *int64            `json:"original_price_cents"`
	CategoryID         string            `json:"category_id"`
	IsDigital          *bool             `json:"is_digital"`
	Features           []string          `json:"features"`
	ProductInfo        map[string]string `json:"product_info"`
	DeliveryTime       string            `json:"delivery_time"`
	ReturnPolicy       string            `json:"return_policy"`
	Images             []ImageInput      `json:"images"`
}

// CreateListing lets a seller publish a new listing. New listings start in
// pending status until an admin approves them.
func CreateListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a positive price are required"})
	}

	ctx := context.Background()

	// Digital delivery defaults from the category unless the seller set it.
	isDigital := false
	var categoryID interface{}
	if req.CategoryID != "" {
		var catDigital bool
		err := db.Conn.QueryRow(ctx,
			`SELECT is_digital FROM categories WHERE id = $1`, req.CategoryID,
		).Scan(&catDigital)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		categoryID = req.CategoryID
		isDigital = catDigital
	}
	if req.IsDigital != nil {
		isDigital = *req.IsDigital
	}

	features, _ := json.Marshal(orEmptySlice(req.Features))
	productInfo, _ := json.Marshal(orEmptyMap(req.ProductInfo))

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	listingID := uuid.New().String()
	_, err = tx.Exec(ctx, `
        INSERT INTO listings (id, seller_id, category_id, title, description, price_cents,
                              original_price_cents, status, is_digital, features, product_info,
                              delivery_time, return_policy, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9, $10, $11, $12, $13, $13)`,
		listingID, uid, categoryID, req.Title, req.Description, req.PriceCents,
		req.OriginalPriceCents, isDigital, features, productInfo,
		req.DeliveryTime, req.ReturnPolicy, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}

	for i, img := range NormalizeMain(req.Images) {
		_, err = tx.Exec(ctx, `
            INSERT INTO listing_images (id, listing_id, url, is_main, position)
            VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), listingID, img.URL, img.IsMain, i,
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store images"})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"listing_id": listingID,
		"message":    "listing created and awaiting moderation",
	})
}

// GetListing returns the listing detail with images, seller summary,
// rating aggregate and the caller's favorite flag. Bumps the view counter.
func GetListing(c echo.Context) error {
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing id"})
	}
	userID, _ := c.Get("user_id").(string)

	ctx := context.Background()

	var (
		l            Listing
		features     []byte
		productInfo  []byte
		categoryName *string
		sellerName   string
		sellerRating float64
	)
	err := db.Conn.QueryRow(ctx, `
        SELECT l.id, l.seller_id, COALESCE(l.category_id::text, ''), l.title, l.description,
               l.price_cents, l.original_price_cents, l.status, l.featured, l.is_digital,
               l.sales, l.views, l.features, l.product_info, l.delivery_time, l.return_policy,
               l.created_at, l.updated_at, c.name, u.name, u.seller_rating
        FROM listings l
        LEFT JOIN categories c ON l.category_id = c.id
        JOIN users u ON l.seller_id = u.id
        WHERE l.id = $1`, listingID,
	).Scan(&l.ID, &l.SellerID, &l.CategoryID, &l.Title, &l.Description,
		&l.PriceCents, &l.OriginalPriceCents, &l.Status, &l.Featured, &l.IsDigital,
		&l.Sales, &l.Views, &features, &productInfo, &l.DeliveryTime, &l.ReturnPolicy,
		&l.CreatedAt, &l.UpdatedAt, &categoryName, &sellerName, &sellerRating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	_ = json.Unmarshal(features, &l.Features)
	_ = json.Unmarshal(productInfo, &l.ProductInfo)

	var avgRating float64
	var reviewCount int
	_ = db.Conn.QueryRow(ctx, `
        SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE listing_id = $1`, listingID,
	).Scan(&avgRating, &reviewCount)

	images := []Image{}
	rows, err := db.Conn.Query(ctx, `
        SELECT id, url, is_main, position FROM listing_images
        WHERE listing_id = $1 ORDER BY position`, listingID)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var img Image
			if err := rows.Scan(&img.ID, &img.URL, &img.IsMain, &img.Position); err == nil {
				images = append(images, img)
			}
		}
	}

	isFavorited := false
	if userID != "" {
		_ = db.Conn.QueryRow(ctx, `
            SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND listing_id = $2)`,
			userID, listingID,
		).Scan(&isFavorited)
	}

	// View counter bump is best-effort.
	_, _ = db.Conn.Exec(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1`, listingID)

	return c.JSON(http.StatusOK, echo.Map{
		"listing":       l,
		"images":        images,
		"category":      categoryName,
		"seller_name":   sellerName,
		"seller_rating": sellerRating,
		"avg_rating":    avgRating,
		"review_count":  reviewCount,
		"is_favorited":  isFavorited,
	})
}

// UpdateListing lets the owner edit fields and reconcile the image set.
func UpdateListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing id"})
	}

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a positive price are required"})
	}

	ctx := context.Background()

	var sellerID string
	err := db.Conn.QueryRow(ctx, `SELECT seller_id FROM listings WHERE id = $1`, listingID).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if sellerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
	}

	features, _ := json.Marshal(orEmptySlice(req.Features))
	productInfo, _ := json.Marshal(orEmptyMap(req.ProductInfo))

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE listings
        SET title = $2, description = $3, price_cents = $4, original_price_cents = $5,
            features = $6, product_info = $7, delivery_time = $8, return_policy = $9,
            updated_at = NOW()
        WHERE id = $1`,
		listingID, req.Title, req.Description, req.PriceCents, req.OriginalPriceCents,
		features, productInfo, req.DeliveryTime, req.ReturnPolicy,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}

	if req.IsDigital != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE listings SET is_digital = $2 WHERE id = $1`, listingID, *req.IsDigital); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
		}
	}

	if req.Images != nil {
		if err := reconcileImages(ctx, tx, listingID, req.Images); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update images"})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "listing updated"})
}

// reconcileImages applies the URL diff inside the caller's transaction:
// delete removed, insert added, then reassert the single main flag.
func reconcileImages(ctx context.Context, tx pgx.Tx, listingID string, want []ImageInput) error {
	rows, err := tx.Query(ctx, `
        SELECT id, url, is_main, position FROM listing_images
        WHERE listing_id = $1 ORDER BY position`, listingID)
	if err != nil {
		return err
	}
	var existing []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.URL, &img.IsMain, &img.Position); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, img)
	}
	rows.Close()

	plan := PlanImages(existing, want)

	for _, id := range plan.Delete {
		if _, err := tx.Exec(ctx, `DELETE FROM listing_images WHERE id = $1`, id); err != nil {
			return err
		}
	}

	// Clear main flags before re-setting so the partial unique index
	// never sees two mains mid-flight.
	if _, err := tx.Exec(ctx,
		`UPDATE listing_images SET is_main = FALSE WHERE listing_id = $1`, listingID); err != nil {
		return err
	}

	for _, img := range plan.Insert {
		if _, err := tx.Exec(ctx, `
            INSERT INTO listing_images (id, listing_id, url, is_main, position)
            VALUES ($1, $2, $3, FALSE, $4)`,
			uuid.New().String(), listingID, img.URL, plan.Position(img.URL)); err != nil {
			return err
		}
	}

	// Renumber kept rows to their place in the desired order.
	for i, img := range plan.Images {
		if _, err := tx.Exec(ctx, `
            UPDATE listing_images SET position = $3
            WHERE listing_id = $1 AND url = $2`, listingID, img.URL, i); err != nil {
			return err
		}
	}

	if main := MainURL(plan.Images); main != "" {
		if _, err := tx.Exec(ctx, `
            UPDATE listing_images SET is_main = TRUE
            WHERE listing_id = $1 AND id = (
                SELECT id FROM listing_images WHERE listing_id = $1 AND url = $2 LIMIT 1
            )`, listingID, main); err != nil {
			return err
		}
	}
	return nil
}

// DeleteListing removes a listing; its images cascade. Owner or admin only.
func DeleteListing(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing id"})
	}

	ctx := context.Background()

	var sellerID string
	err := db.Conn.QueryRow(ctx, `SELECT seller_id FROM listings WHERE id = $1`, listingID).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if sellerID != actor.ID && !actor.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
	}

	if _, err := db.Conn.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing deleted"})
}

// BrowseListings is the public discovery endpoint with search, filters,
// sorting and pagination. Only active listings are visible here.
func BrowseListings(c echo.Context) error {
	q := c.QueryParam("q")
	category := c.QueryParam("category")
	minPrice := c.QueryParam("min_price")
	maxPrice := c.QueryParam("max_price")
	digital := c.QueryParam("digital")
	featured := c.QueryParam("featured")
	sort := c.QueryParam("sort")
	p := pagination.FromStrings(c.QueryParam("page"), c.QueryParam("limit"))

	where := []string{"l.status = 'active'"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q != "" {
		ph := arg("%" + q + "%")
		where = append(where, fmt.Sprintf("(l.title ILIKE %s OR l.description ILIKE %s)", ph, ph))
	}
	if category != "" {
		where = append(where, fmt.Sprintf("c.slug = %s", arg(category)))
	}
	if minPrice != "" {
		where = append(where, fmt.Sprintf("l.price_cents >= %s", arg(minPrice)))
	}
	if maxPrice != "" {
		where = append(where, fmt.Sprintf("l.price_cents <= %s", arg(maxPrice)))
	}
	if digital == "true" {
		where = append(where, "l.is_digital")
	}
	if featured == "true" {
		where = append(where, "l.featured")
	}

	whereSQL := "WHERE " + joinAnd(where)
	base := `FROM listings l LEFT JOIN categories c ON l.category_id = c.id ` + whereSQL

	ctx := context.Background()

	var total int64
	if err := db.Conn.QueryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not count listings"})
	}

	orderBy := "l.created_at DESC"
	switch sort {
	case "price_asc":
		orderBy = "l.price_cents ASC"
	case "price_desc":
		orderBy = "l.price_cents DESC"
	case "rating_desc":
		orderBy = "avg_rating DESC"
	case "best_selling":
		orderBy = "l.sales DESC"
	case "oldest":
		orderBy = "l.created_at ASC"
	}

	query := `
        SELECT l.id, l.seller_id, l.title, l.price_cents, l.status, l.featured, l.is_digital,
               l.sales, l.created_at,
               COALESCE((SELECT url FROM listing_images WHERE listing_id = l.id AND is_main LIMIT 1), ''),
               COALESCE((SELECT AVG(rating) FROM reviews WHERE listing_id = l.id), 0) AS avg_rating
        ` + base +
		fmt.Sprintf(" ORDER BY %s LIMIT %s OFFSET %s", orderBy, arg(p.Limit), arg(p.Offset()))

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch listings"})
	}
	defer rows.Close()

	var listings []ListingSummary
	for rows.Next() {
		var s ListingSummary
		if err := rows.Scan(&s.ID, &s.SellerID, &s.Title, &s.PriceCents, &s.Status, &s.Featured,
			&s.IsDigital, &s.Sales, &s.CreatedAt, &s.MainImageURL, &s.AvgRating); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse listing"})
		}
		listings = append(listings, s)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listings":   listings,
		"pagination": pagination.NewEnvelope(total, p),
	})
}

// GetMyListings returns all listings owned by the caller, any status.
func GetMyListings(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(), `
        SELECT l.id, l.seller_id, l.title, l.price_cents, l.status, l.featured, l.is_digital,
               l.sales, l.created_at,
               COALESCE((SELECT url FROM listing_images WHERE listing_id = l.id AND is_main LIMIT 1), ''),
               COALESCE((SELECT AVG(rating) FROM reviews WHERE listing_id = l.id), 0)
        FROM listings l WHERE l.seller_id = $1 ORDER BY l.created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch listings"})
	}
	defer rows.Close()

	var listings []ListingSummary
	for rows.Next() {
		var s ListingSummary
		if err := rows.Scan(&s.ID, &s.SellerID, &s.Title, &s.PriceCents, &s.Status, &s.Featured,
			&s.IsDigital, &s.Sales, &s.CreatedAt, &s.MainImageURL, &s.AvgRating); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse listing"})
		}
		listings = append(listings, s)
	}

	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}

func joinAnd(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " AND " + c
	}
	return out
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

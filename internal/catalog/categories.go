package catalog

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pixelmart/pixelmart/internal/db"
)

// ListCategories returns all categories with their active listing counts.
func ListCategories(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(), `
        SELECT c.id, c.name, c.slug, c.is_digital,
               (SELECT COUNT(*) FROM listings l WHERE l.category_id = c.id AND l.status = 'active')
        FROM categories c ORDER BY c.name`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch categories"})
	}
	defer rows.Close()

	type categoryWithCount struct {
		Category
		ListingCount int `json:"listing_count"`
	}

	var categories []categoryWithCount
	for rows.Next() {
		var cat categoryWithCount
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.IsDigital, &cat.ListingCount); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse category"})
		}
		categories = append(categories, cat)
	}

	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

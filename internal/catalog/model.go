package catalog

import "time"

// Listing is a sellable item record.
type Listing struct {
	ID                 string            `json:"id"`
	SellerID           string            `json:"seller_id"`
	CategoryID         string            `json:"category_id,omitempty"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	PriceCents         int64             `json:"price_cents"`
	OriginalPriceCents *int64            `json:"original_price_cents,omitempty"`
	Status             string            `json:"status"`
	Featured           bool              `json:"featured"`
	IsDigital          bool              `json:"is_digital"`
	Sales              int               `json:"sales"`
	Views              int               `json:"views"`
	Features           []string          `json:"features"`
	ProductInfo        map[string]string `json:"product_info"`
	DeliveryTime       string            `json:"delivery_time"`
	ReturnPolicy       string            `json:"return_policy"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Image is one photo of a listing; at most one per listing is main.
type Image struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	IsMain   bool   `json:"is_main"`
	Position int    `json:"position"`
}

// ImageInput is the client-supplied shape of an image on create/update.
type ImageInput struct {
	URL    string `json:"url"`
	IsMain bool   `json:"is_main"`
}

// ListingSummary is the browse-view row with aggregates.
type ListingSummary struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"seller_id"`
	Title        string    `json:"title"`
	PriceCents   int64     `json:"price_cents"`
	Status       string    `json:"status"`
	Featured     bool      `json:"featured"`
	IsDigital    bool      `json:"is_digital"`
	Sales        int       `json:"sales"`
	MainImageURL string    `json:"main_image_url,omitempty"`
	AvgRating    float64   `json:"avg_rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category groups listings; digital categories default their listings to
// instant delivery.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	IsDigital bool   `json:"is_digital"`
}

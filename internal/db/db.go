package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixelmart/pixelmart/internal/config"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the schema exists.
func Init() {
	dsn := config.Get().DSN()

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureSchema()
	seedCategories()
}

// ensureSchema creates all tables and indexes if they are missing.
// Runs idempotently at every startup.
func ensureSchema() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'buyer' CHECK (role IN ('buyer','seller','admin')),
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            seller_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
            total_sales INTEGER NOT NULL DEFAULT 0,
            completed_orders INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS categories (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            slug TEXT NOT NULL UNIQUE,
            is_digital BOOLEAN NOT NULL DEFAULT FALSE
        );

        CREATE TABLE IF NOT EXISTS listings (
            id UUID PRIMARY KEY,
            seller_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            category_id UUID NULL REFERENCES categories(id) ON DELETE SET NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            price_cents BIGINT NOT NULL CHECK (price_cents > 0),
            original_price_cents BIGINT NULL,
            status TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('active','pending','inactive','sold','rejected')),
            featured BOOLEAN NOT NULL DEFAULT FALSE,
            is_digital BOOLEAN NOT NULL DEFAULT FALSE,
            sales INTEGER NOT NULL DEFAULT 0,
            views INTEGER NOT NULL DEFAULT 0,
            features JSONB NOT NULL DEFAULT '[]',
            product_info JSONB NOT NULL DEFAULT '{}',
            delivery_time TEXT NOT NULL DEFAULT '',
            return_policy TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);
        CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);

        CREATE TABLE IF NOT EXISTS listing_images (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            url TEXT NOT NULL,
            is_main BOOLEAN NOT NULL DEFAULT FALSE,
            position INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_listing_images_listing ON listing_images(listing_id);
        CREATE UNIQUE INDEX IF NOT EXISTS uniq_listing_main_image
            ON listing_images(listing_id) WHERE is_main;

        CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            order_number TEXT NOT NULL UNIQUE,
            buyer_id UUID NOT NULL REFERENCES users(id),
            seller_id UUID NOT NULL REFERENCES users(id),
            listing_id UUID NOT NULL REFERENCES listings(id),
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN (
                'pending','processing','shipped','delivered','completed','cancelled','refunded'
            )),
            payment_status TEXT NOT NULL DEFAULT 'pending'
                CHECK (payment_status IN ('pending','paid','failed','refunded')),
            payment_method TEXT NOT NULL DEFAULT '',
            subtotal_cents BIGINT NOT NULL,
            platform_fee_cents BIGINT NOT NULL,
            transaction_fee_cents BIGINT NOT NULL,
            total_cents BIGINT NOT NULL,
            completed_at TIMESTAMP WITH TIME ZONE NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);
        CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_id);
        CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

        CREATE TABLE IF NOT EXISTS reviews (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            order_id UUID NULL REFERENCES orders(id) ON DELETE SET NULL,
            giver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (giver_id, listing_id)
        );
        CREATE INDEX IF NOT EXISTS idx_reviews_receiver ON reviews(receiver_id);
        CREATE INDEX IF NOT EXISTS idx_reviews_listing ON reviews(listing_id);

        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT NOT NULL DEFAULT '',
            reference UUID NULL,
            metadata JSONB NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;

        CREATE TABLE IF NOT EXISTS payments (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id),
            amount_cents BIGINT NOT NULL,
            kind TEXT NOT NULL CHECK (kind IN ('capture','refund')),
            method TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'success',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_payments_order ON payments(order_id);
        CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id);

        CREATE TABLE IF NOT EXISTS favorites (
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (user_id, listing_id)
        );
    `)
	if err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}
}

// seedCategories inserts the default category set on first boot.
func seedCategories() {
	ctx := context.Background()
	defaults := []struct {
		name, slug string
		digital    bool
	}{
		{"Digital Downloads", "digital-downloads", true},
		{"Game Keys", "game-keys", true},
		{"Software Licenses", "software-licenses", true},
		{"Design Assets", "design-assets", true},
		{"Collectibles", "collectibles", false},
		{"Merchandise", "merchandise", false},
	}
	for _, c := range defaults {
		_, err := Conn.Exec(ctx, `
            INSERT INTO categories (id, name, slug, is_digital)
            VALUES (gen_random_uuid(), $1, $2, $3)
            ON CONFLICT (name) DO NOTHING`,
			c.name, c.slug, c.digital,
		)
		if err != nil {
			log.Printf("failed to seed category %s: %v", c.slug, err)
		}
	}
}

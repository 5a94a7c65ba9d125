package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"rental-aggregator/internal/models"
)

const DefaultTable = "rental_listings"

// PostgresStore upserts listings keyed by (source, listing_id).
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the listing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			source        TEXT NOT NULL,
			listing_id    TEXT NOT NULL,
			tool          TEXT NOT NULL,
			title         TEXT NOT NULL,
			price         TEXT,
			price_numeric DOUBLE PRECISION NOT NULL,
			location      TEXT,
			city          TEXT,
			state         TEXT,
			bedrooms      INTEGER,
			bathrooms     DOUBLE PRECISION,
			images        TEXT[],
			url           TEXT,
			home_status   TEXT,
			scraped_at    TIMESTAMPTZ,
			payload       JSONB NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (source, listing_id)
		)`, s.table))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Store(ctx context.Context, tool string, props []models.UnifiedProperty) error {
	if len(props) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin listing upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`
		INSERT INTO %s (source, listing_id, tool, title, price, price_numeric, location, city, state,
			bedrooms, bathrooms, images, url, home_status, scraped_at, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (source, listing_id) DO UPDATE SET
			tool = EXCLUDED.tool,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			price_numeric = EXCLUDED.price_numeric,
			location = EXCLUDED.location,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			images = EXCLUDED.images,
			url = EXCLUDED.url,
			home_status = EXCLUDED.home_status,
			scraped_at = EXCLUDED.scraped_at,
			payload = EXCLUDED.payload,
			updated_at = NOW()`, s.table)

	for _, p := range props {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode listing %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			p.Source, p.ID, tool, p.Title, p.Price, p.PriceNumeric, p.Location, p.City, p.State,
			p.Bedrooms, p.Bathrooms, pq.Array(p.Images), p.URL, p.HomeStatus, p.ScrapedAt, payload,
		); err != nil {
			return fmt.Errorf("failed to upsert listing %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit listing upsert: %w", err)
	}
	return nil
}

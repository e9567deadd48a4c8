package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"foreclosure-ingest/models"
)

// PostgresWriter persists canonical listings to PostgreSQL, keyed by the
// deterministic listing id. There is no separate insert-vs-update decision:
// every write is an upsert, so re-running the pipeline over the same upstream
// data converges on the same table contents.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id              TEXT         PRIMARY KEY,
			provider        VARCHAR(50)  NOT NULL,
			source_url      TEXT         NOT NULL DEFAULT '',
			address         TEXT         NOT NULL,
			court           TEXT         NOT NULL,
			case_number     TEXT         NOT NULL,
			auction_date    TEXT         NOT NULL,
			auction_round   INT          NOT NULL DEFAULT 1,
			base_price      BIGINT       NOT NULL DEFAULT 0,
			area_ping       NUMERIC(12,4) NOT NULL DEFAULT 0,
			unit_price      NUMERIC(14,2) NOT NULL DEFAULT 0,
			delivery_status VARCHAR(20)  NOT NULL DEFAULT 'unspecified',
			image_urls      TEXT[]       NOT NULL DEFAULT '{}',
			scraped_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_provider     ON listings(provider);
		CREATE INDEX IF NOT EXISTS idx_listings_auction_date ON listings(auction_date);
		CREATE INDEX IF NOT EXISTS idx_listings_base_price   ON listings(base_price);
	`)
	return err
}

// Upsert writes the whole batch keyed by id, overwriting any previous state
// of the same listings. Either the whole batch goes in or the batch's error
// is surfaced; callers never rely on partial-batch semantics.
func (pw *PostgresWriter) Upsert(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.upsertBatch(ctx, listings[i:end]); err != nil {
			return fmt.Errorf("postgres: upsert: %w", err)
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(ctx context.Context, batch []models.Listing) error {
	const cols = 14
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.ID, l.Provider, l.SourceURL, l.Address, l.Court, l.CaseNumber,
			l.AuctionDate, l.AuctionRound, l.BasePrice, l.AreaPing, l.UnitPrice,
			string(l.DeliveryStatus), pq.Array(l.ImageURLs), l.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			id, provider, source_url, address, court, case_number,
			auction_date, auction_round, base_price, area_ping, unit_price,
			delivery_status, image_urls, scraped_at
		)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			provider        = EXCLUDED.provider,
			source_url      = EXCLUDED.source_url,
			address         = EXCLUDED.address,
			court           = EXCLUDED.court,
			case_number     = EXCLUDED.case_number,
			auction_date    = EXCLUDED.auction_date,
			auction_round   = EXCLUDED.auction_round,
			base_price      = EXCLUDED.base_price,
			area_ping       = EXCLUDED.area_ping,
			unit_price      = EXCLUDED.unit_price,
			delivery_status = EXCLUDED.delivery_status,
			image_urls      = EXCLUDED.image_urls,
			scraped_at      = EXCLUDED.scraped_at
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.ExecContext(ctx, query, valueArgs...)
	return err
}

// FetchAll retrieves all stored listings — the read path the presentation
// layer consumes, and what the run summary aggregates over.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT id, provider, source_url, address, court, case_number,
		       auction_date, auction_round, base_price, area_ping, unit_price,
		       delivery_status, image_urls, scraped_at
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var status string
		if err := rows.Scan(
			&l.ID, &l.Provider, &l.SourceURL, &l.Address, &l.Court, &l.CaseNumber,
			&l.AuctionDate, &l.AuctionRound, &l.BasePrice, &l.AreaPing, &l.UnitPrice,
			&status, pq.Array(&l.ImageURLs), &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.DeliveryStatus = models.DeliveryStatus(status)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"finn-scraper/models"
)

// PostgresWriter persists a fixed projection of the listing table to
// PostgreSQL. The table's long tail of free-text columns stays in the
// CSV; the database gets the columns downstream queries actually filter
// on.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
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
			id             SERIAL PRIMARY KEY,
			finnkode       TEXT         UNIQUE NOT NULL,
			url            TEXT         NOT NULL,
			title          TEXT         NOT NULL,
			address        TEXT         NOT NULL DEFAULT '',
			total_price    BIGINT,
			sqm_price      NUMERIC(12,2),
			usable_area    BIGINT,
			balkong_area   BIGINT,
			sold           BOOLEAN      NOT NULL DEFAULT FALSE,
			energy_grade   TEXT,
			heating_grade  TEXT,
			latitude       DOUBLE PRECISION,
			longitude      DOUBLE PRECISION,
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_total_price ON listings(total_price);
		CREATE INDEX IF NOT EXISTS idx_listings_sqm_price   ON listings(sqm_price);
		CREATE INDEX IF NOT EXISTS idx_listings_sold        ON listings(sold);
	`)
	return err
}

// Clear deletes all existing listings from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts the projection of every row, clearing old data
// first. Each run replaces the previous snapshot.
func (pw *PostgresWriter) Write(table *models.Table) error {
	if table.Len() == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(table.Rows); i += batchSize {
		end := i + batchSize
		if end > len(table.Rows) {
			end = len(table.Rows)
		}
		if err := pw.insertBatch(table.Rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const insertColumns = 13

func (pw *PostgresWriter) insertBatch(batch []models.Row) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, row := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for p := 0; p < insertColumns; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs,
			row.Get("ID").TextValue(),
			row.Get("URL").TextValue(),
			row.Get("object-title").TextValue(),
			row.Get("object-address").TextValue(),
			nullInt(row.Get("pricing-total-price")),
			nullFloat(row.Get("square-meter-price")),
			nullInt(row.Get("usable-area")),
			nullInt(row.Get("balkong-area")),
			row.Get("sold").Flag,
			nullText(row.Get("Energikarakter")),
			nullText(row.Get("Oppvarmingskarakter")),
			nullFloat(row.Get("latitude")),
			nullFloat(row.Get("longitude")),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (finnkode, url, title, address, total_price,
			sqm_price, usable_area, balkong_area, sold, energy_grade,
			heating_grade, latitude, longitude)
		VALUES %s
		ON CONFLICT (finnkode) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func nullInt(v models.Value) interface{} {
	if n, ok := v.Int64(); ok {
		return n
	}
	return nil
}

func nullFloat(v models.Value) interface{} {
	if f, ok := v.Float64(); ok {
		return f
	}
	return nil
}

func nullText(v models.Value) interface{} {
	if s := v.TextValue(); s != "" {
		return s
	}
	return nil
}

// Close closes the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

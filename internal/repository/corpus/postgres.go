// Package corpus reads the place corpus from the relational store.
// Eligibility filtering (active, approved, non-null text) lives in the query;
// the search core never re-filters.
package corpus

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/wandervn/placesense/internal/domain"
)

const eligiblePlacesQuery = `
	SELECT id, slug, name, description
	FROM places
	WHERE is_active = true
	  AND status = 'APPROVED'
	  AND description IS NOT NULL`

// PostgresReader reads eligible places from Postgres.
type PostgresReader struct {
	db *sqlx.DB
}

// NewPostgresReader connects to the corpus database.
func NewPostgresReader(dsn string) (*PostgresReader, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect corpus db: %w", err)
	}
	return &PostgresReader{db: database}, nil
}

// NewPostgresReaderFromDB wraps an existing connection (used in tests).
func NewPostgresReaderFromDB(database *sqlx.DB) *PostgresReader {
	return &PostgresReader{db: database}
}

// placeRow maps one corpus row.
type placeRow struct {
	ID          string `db:"id"`
	Slug        string `db:"slug"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

// Eligible returns every place eligible for indexing.
func (r *PostgresReader) Eligible(ctx context.Context) ([]domain.CorpusItem, error) {
	var rows []placeRow
	if err := r.db.SelectContext(ctx, &rows, eligiblePlacesQuery); err != nil {
		return nil, fmt.Errorf("select eligible places: %w", err)
	}

	items := make([]domain.CorpusItem, len(rows))
	for i, row := range rows {
		items[i] = domain.CorpusItem{
			EntityID:    row.ID,
			Slug:        row.Slug,
			DisplayName: row.Name,
			SourceText:  row.Description,
		}
	}
	return items, nil
}

// Close releases the database connection.
func (r *PostgresReader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close corpus db: %w", err)
	}
	return nil
}

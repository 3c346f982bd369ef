package geo

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	GetEnrichmentRows(ctx context.Context) ([]EnrichmentRow, error)
	UpsertEnrichment(ctx context.Context, row *EnrichmentRow) error
}

type sqlRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

// GetEnrichmentRows returns every geocoded hypercert location. The table is
// small (one row per hypercert) so no window applies.
func (r *sqlRepository) GetEnrichmentRows(ctx context.Context) ([]EnrichmentRow, error) {
	query := `
		SELECT hypercert_id, country_code, country_name, continent, hectares
		FROM geo_enrichment
		ORDER BY hypercert_id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query geo enrichment rows: %w", err)
	}
	defer rows.Close()

	var result []EnrichmentRow
	for rows.Next() {
		var row EnrichmentRow
		if err := rows.Scan(&row.HypercertID, &row.CountryCode, &row.CountryName, &row.Continent, &row.Hectares); err != nil {
			return nil, fmt.Errorf("failed to scan geo enrichment row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// UpsertEnrichment writes one enrichment row, replacing any previous
// geocoding result for the same hypercert
func (r *sqlRepository) UpsertEnrichment(ctx context.Context, row *EnrichmentRow) error {
	query := `
		INSERT INTO geo_enrichment (hypercert_id, country_code, country_name, continent, hectares)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hypercert_id) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			country_name = EXCLUDED.country_name,
			continent = EXCLUDED.continent,
			hectares = EXCLUDED.hectares`

	_, err := r.db.ExecContext(ctx, query,
		row.HypercertID, row.CountryCode, row.CountryName, row.Continent, row.Hectares)
	if err != nil {
		return fmt.Errorf("failed to upsert geo enrichment row: %w", err)
	}
	return nil
}

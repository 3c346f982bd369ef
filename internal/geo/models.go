package geo

// EnrichmentRow is one geocoded hypercert location from the geo_enrichment
// table. Every descriptive column is nullable; the enrichment job fills in
// whatever the geocoder returned.
type EnrichmentRow struct {
	HypercertID string   `json:"hypercert_id" db:"hypercert_id"`
	CountryCode *string  `json:"country_code,omitempty" db:"country_code"`
	CountryName *string  `json:"country_name,omitempty" db:"country_name"`
	Continent   *string  `json:"continent,omitempty" db:"continent"`
	Hectares    *float64 `json:"hectares,omitempty" db:"hectares"`
}

// CountryCount is one entry of the top-countries leaderboard
type CountryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GeoMetrics is the aggregated geographic report
type GeoMetrics struct {
	LastUpdated            string         `json:"last_updated"`
	TotalHectares          float64        `json:"total_hectares"`
	CountriesRepresented   int            `json:"countries_represented"`
	PriorityRegionProjects int            `json:"priority_region_projects"`
	TopCountries           []CountryCount `json:"top_countries"`
}

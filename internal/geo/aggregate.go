package geo

import (
	"math"
	"sort"
	"time"
)

// Aggregate reduces enrichment rows into a GeoMetrics report. Pure function of
// its inputs and the reference time.
func Aggregate(rows []EnrichmentRow, classifier *Classifier, now time.Time) *GeoMetrics {
	type countryEntry struct {
		name  string
		count int
	}
	countries := map[string]*countryEntry{}
	hectares := 0.0
	priority := 0

	for _, row := range rows {
		if row.Hectares != nil {
			hectares += *row.Hectares
		}
		if continent := classifier.InferContinent(row); continent != "" && classifier.IsPriority(continent) {
			priority++
		}

		// Rows are keyed by code, falling back to name, so renamed countries
		// with a stable code still collapse into one entry.
		key := "Unknown"
		name := "Unknown"
		switch {
		case row.CountryCode != nil && *row.CountryCode != "":
			key = *row.CountryCode
		case row.CountryName != nil && *row.CountryName != "":
			key = *row.CountryName
		}
		switch {
		case row.CountryName != nil && *row.CountryName != "":
			name = *row.CountryName
		case row.CountryCode != nil && *row.CountryCode != "":
			name = *row.CountryCode
		}

		entry := countries[key]
		if entry == nil {
			entry = &countryEntry{name: name}
			countries[key] = entry
		}
		entry.count++
	}

	top := make([]CountryCount, 0, len(countries))
	for _, entry := range countries {
		top = append(top, CountryCount{Name: entry.name, Count: entry.count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > 5 {
		top = top[:5]
	}

	return &GeoMetrics{
		LastUpdated:            now.UTC().Format(time.RFC3339),
		TotalHectares:          math.Round(hectares*100) / 100,
		CountriesRepresented:   len(countries),
		PriorityRegionProjects: priority,
		TopCountries:           top,
	}
}

package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// priorityContinents are the regions the dashboard highlights
var priorityContinents = map[string]bool{
	"Africa":        true,
	"Asia":          true,
	"South America": true,
}

// continentCountryCodes maps each continent to its ISO 3166-1 alpha-2 codes
var continentCountryCodes = map[string][]string{
	"Africa": {
		"AO", "BF", "BI", "BJ", "BW", "CD", "CF", "CG", "CI", "CM",
		"CV", "DJ", "DZ", "EG", "EH", "ER", "ET", "GA", "GH", "GM",
		"GN", "GQ", "GW", "KE", "KM", "LR", "LS", "LY", "MA", "MG",
		"ML", "MR", "MU", "MW", "MZ", "NA", "NE", "NG", "RE", "RW",
		"SC", "SD", "SL", "SN", "SO", "SS", "ST", "SZ", "TD", "TG",
		"TN", "TZ", "UG", "YT", "ZA", "ZM", "ZW",
	},
	"Asia": {
		"AF", "AM", "AZ", "BH", "BD", "BN", "BT", "CN", "GE", "HK",
		"ID", "IL", "IN", "IQ", "IR", "JO", "JP", "KG", "KH", "KP",
		"KR", "KW", "KZ", "LA", "LB", "LK", "MM", "MN", "MO", "MV",
		"MY", "NP", "OM", "PH", "PK", "PS", "QA", "SA", "SG", "SY",
		"TH", "TJ", "TL", "TM", "TR", "TW", "UZ", "VN", "YE",
	},
	"Europe": {
		"AD", "AL", "AT", "AX", "BA", "BE", "BG", "BY", "CH", "CY",
		"CZ", "DE", "DK", "EE", "ES", "FI", "FO", "FR", "GB", "GG",
		"GI", "GR", "HR", "HU", "IE", "IM", "IS", "IT", "JE", "LI",
		"LT", "LU", "LV", "MC", "MD", "ME", "MK", "MT", "NL", "NO",
		"PL", "PT", "RO", "RS", "RU", "SE", "SI", "SK", "SM", "UA",
		"VA", "XK",
	},
	"North America": {
		"AG", "AI", "AW", "BB", "BL", "BM", "BS", "BZ", "CA", "CR",
		"CU", "CW", "DM", "DO", "GD", "GL", "GP", "GT", "HN", "HT",
		"JM", "KN", "LC", "MF", "MQ", "MS", "MX", "NI", "PA", "PR",
		"SV", "SX", "TC", "TT", "US", "VC", "VG", "VI",
	},
	"South America": {
		"AR", "BO", "BR", "CL", "CO", "EC", "FK", "GF", "GS", "GY",
		"PE", "PY", "SR", "UY", "VE",
	},
	"Oceania": {
		"AS", "AU", "CK", "FJ", "FM", "GU", "KI", "MH", "MP", "NC",
		"NR", "NU", "NZ", "PF", "PG", "PN", "PW", "SB", "TK", "TO",
		"TV", "UM", "VU", "WF", "WS",
	},
	"Antarctica": {"AQ"},
}

// countryNameOverrides covers official and colloquial names the English
// display-name catalog does not produce
var countryNameOverrides = map[string]string{
	"Bolivarian Republic of Venezuela": "South America",
	"Cote d'Ivoire":                    "Africa",
	"Democratic Republic of the Congo": "Africa",
	"Federated States of Micronesia":   "Oceania",
	"Ivory Coast":                      "Africa",
	"Lao People's Democratic Republic": "Asia",
	"Republic of the Congo":            "Africa",
	"Timor-Leste":                      "Asia",
	"Vatican City":                     "Europe",
}

// Classifier infers continents from enrichment rows. Lookup tables are built
// once at construction.
type Classifier struct {
	byCode map[string]string
	byName map[string]string
}

// NewClassifier builds the code and English-name lookup tables
func NewClassifier() *Classifier {
	c := &Classifier{
		byCode: map[string]string{},
		byName: map[string]string{},
	}

	namer := display.Regions(language.English)
	for continent, codes := range continentCountryCodes {
		for _, code := range codes {
			c.byCode[code] = continent
			if region, err := language.ParseRegion(code); err == nil {
				if name := namer.Name(region); name != "" {
					c.addName(name, continent)
				}
			}
		}
	}

	for name, continent := range countryNameOverrides {
		c.addName(name, continent)
	}

	return c
}

func (c *Classifier) addName(name, continent string) {
	if normalized := normalizeCountryName(name); normalized != "" {
		c.byName[normalized] = continent
	}
}

// InferContinent resolves a row to a continent name. The row's own continent
// column wins, then the country code, then the normalized country name.
// Returns "" when nothing matches.
func (c *Classifier) InferContinent(row EnrichmentRow) string {
	if row.Continent != nil && *row.Continent != "" {
		return *row.Continent
	}

	if row.CountryCode != nil && *row.CountryCode != "" {
		if continent, ok := c.byCode[strings.ToUpper(*row.CountryCode)]; ok {
			return continent
		}
	}

	if row.CountryName != nil && *row.CountryName != "" {
		if continent, ok := c.byName[normalizeCountryName(*row.CountryName)]; ok {
			return continent
		}
	}

	return ""
}

// IsPriority reports whether the continent is one of the highlighted regions
func (c *Classifier) IsPriority(continent string) bool {
	return priorityContinents[continent]
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeCountryName lowercases, strips diacritics and drops everything but
// ASCII letters, so "Côte d'Ivoire" and "cote divoire" collide
func normalizeCountryName(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		stripped = lowered
	}
	var b strings.Builder
	for _, r := range stripped {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

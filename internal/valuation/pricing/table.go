// Package pricing is the deterministic fallback valuation used when a narrative
// yields no usable market value.
package pricing

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

// AgeBand applies Factor to buildings strictly older than OlderThan years.
type AgeBand struct {
	OlderThan int     `yaml:"older_than"`
	Factor    float64 `yaml:"factor"`
}

// Table holds every constant of the pricing model. Municipality and province
// keys are matched ignoring case and accents.
type Table struct {
	DefaultPricePerM2   float64                         `yaml:"default_price_per_m2"`
	Municipalities      map[string]float64              `yaml:"municipalities"`
	Provinces           map[string]float64              `yaml:"provinces"`
	AgeBands            []AgeBand                       `yaml:"age_bands"`
	MissingYearAge      int                             `yaml:"missing_year_age"`
	ElevatorFactor      float64                         `yaml:"elevator_factor"`
	TerraceFactor       float64                         `yaml:"terrace_factor"`
	PropertyTypeFactors map[domain.PropertyType]float64 `yaml:"property_type_factors"`
	SurfaceCoefficients map[domain.SurfaceType]float64  `yaml:"surface_coefficients"`
	DefaultArea         float64                         `yaml:"default_area"`
}

// DefaultTable returns the built-in price list.
func DefaultTable() Table {
	return Table{
		DefaultPricePerM2: 2500,
		Municipalities: map[string]float64{
			"Bilbao":            3800,
			"Palma de Mallorca": 4200,
			"Palma":             4200,
		},
		Provinces: map[string]float64{
			"Madrid":                 4500,
			"Barcelona":              5200,
			"Valencia":               2800,
			"Sevilla":                2200,
			"Vizcaya":                3800,
			"Bizkaia":                3800,
			"Alicante":               2600,
			"Málaga":                 2400,
			"Murcia":                 1800,
			"Zaragoza":               2400,
			"Islas Baleares":         4200,
			"Illes Balears":          4200,
			"Las Palmas":             2800,
			"Santa Cruz de Tenerife": 2600,
		},
		AgeBands: []AgeBand{
			{OlderThan: 50, Factor: 0.75},
			{OlderThan: 30, Factor: 0.85},
			{OlderThan: 10, Factor: 0.95},
		},
		MissingYearAge: 20,
		ElevatorFactor: 1.05,
		TerraceFactor:  1.08,
		// No type adjustment unless a loaded table sets one.
		PropertyTypeFactors: map[domain.PropertyType]float64{},
		SurfaceCoefficients: map[domain.SurfaceType]float64{
			domain.SurfaceUtil:              1.25,
			domain.SurfaceConstruida:        1.10,
			domain.SurfaceConstruidaComunes: 1.00,
		},
		DefaultArea: 100,
	}
}

// LoadTable overlays the YAML file at path on the default table. Map entries
// in the file are added to the defaults; age bands replace them.
func LoadTable(path string) (Table, error) {
	t := DefaultTable()
	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read pricing table: %w", err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("unmarshal pricing table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("pricing table %s: %w", path, err)
	}
	return t, nil
}

// Validate checks that every factor and price is positive.
func (t Table) Validate() error {
	var errs []error
	if t.DefaultPricePerM2 <= 0 {
		errs = append(errs, errors.New("default_price_per_m2 must be positive"))
	}
	if t.DefaultArea <= 0 {
		errs = append(errs, errors.New("default_area must be positive"))
	}
	if t.ElevatorFactor < 1 || t.TerraceFactor < 1 {
		errs = append(errs, errors.New("elevator_factor and terrace_factor must be at least 1"))
	}
	for name, price := range t.Municipalities {
		if price <= 0 {
			errs = append(errs, fmt.Errorf("municipality %q: price must be positive", name))
		}
	}
	for name, price := range t.Provinces {
		if price <= 0 {
			errs = append(errs, fmt.Errorf("province %q: price must be positive", name))
		}
	}
	for _, band := range t.AgeBands {
		if band.Factor <= 0 {
			errs = append(errs, fmt.Errorf("age band >%d: factor must be positive", band.OlderThan))
		}
	}
	for kind, f := range t.PropertyTypeFactors {
		if f <= 0 {
			errs = append(errs, fmt.Errorf("property type %q: factor must be positive", kind))
		}
	}
	for kind, f := range t.SurfaceCoefficients {
		if f <= 0 {
			errs = append(errs, fmt.Errorf("surface %q: coefficient must be positive", kind))
		}
	}
	return errors.Join(errs...)
}

// foldKey lower-cases s and strips diacritics so "MÁLAGA" matches "Malaga".
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

func foldMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[foldKey(k)] = v
	}
	return out
}

func sortedBands(bands []AgeBand) []AgeBand {
	out := append([]AgeBand(nil), bands...)
	sort.Slice(out, func(i, j int) bool { return out[i].OlderThan > out[j].OlderThan })
	return out
}

package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/numparse"
)

// Model estimates a property's value from a Table.
type Model struct {
	table          Table
	municipalities map[string]float64
	provinces      map[string]float64
	bands          []AgeBand
	now            func() time.Time
}

// NewModel builds a model over t. The table is copied into lookup form.
func NewModel(t Table) *Model {
	return &Model{
		table:          t,
		municipalities: foldMap(t.Municipalities),
		provinces:      foldMap(t.Provinces),
		bands:          sortedBands(t.AgeBands),
		now:            time.Now,
	}
}

// WithClock replaces the clock used to compute building age.
func (m *Model) WithClock(now func() time.Time) *Model {
	m.now = now
	return m
}

// Table returns the table the model was built from.
func (m *Model) Table() Table {
	return m.table
}

// PricePerM2 returns the location price: municipality, then province, then default.
func (m *Model) PricePerM2(p domain.PropertyProfile) float64 {
	if v, ok := m.municipalities[foldKey(p.Location.Municipality)]; ok {
		return v
	}
	if v, ok := m.provinces[foldKey(p.Location.Province)]; ok {
		return v
	}
	return m.table.DefaultPricePerM2
}

// Age is the building age in years, or the table's assumed age when the
// construction year is unknown or in the future.
func (m *Model) Age(p domain.PropertyProfile) int {
	if p.ConstructionYear == nil || *p.ConstructionYear <= 0 {
		return m.table.MissingYearAge
	}
	age := m.now().Year() - *p.ConstructionYear
	if age < 0 {
		return 0
	}
	return age
}

// AgeFactor returns the multiplier of the first band the age exceeds.
func (m *Model) AgeFactor(age int) float64 {
	for _, band := range m.bands {
		if age > band.OlderThan {
			return band.Factor
		}
	}
	return 1
}

// AdjustedPricePerM2 applies every multiplicative adjustment to the location price.
func (m *Model) AdjustedPricePerM2(p domain.PropertyProfile) float64 {
	price := m.PricePerM2(p) * m.AgeFactor(m.Age(p))
	if p.Elevator {
		price *= m.table.ElevatorFactor
	}
	if p.Terrace {
		price *= m.table.TerraceFactor
	}
	if f, ok := m.table.PropertyTypeFactors[p.PropertyType]; ok {
		price *= f
	}
	return price
}

// Estimate returns the fallback value in whole euros. It is at least 1 for any
// profile; a non-positive area is replaced by the table's default area.
func (m *Model) Estimate(p domain.PropertyProfile) int64 {
	area := p.Area
	if area <= 0 {
		area = m.table.DefaultArea
	}
	v := int64(math.Round(m.AdjustedPricePerM2(p) * area))
	if v < 1 {
		return 1
	}
	return v
}

// CCCArea converts the declared area to constructed-with-common-elements
// surface using the table's coefficient for the declared basis. An unknown
// basis is treated as constructed.
func (m *Model) CCCArea(p domain.PropertyProfile) float64 {
	coef, ok := m.table.SurfaceCoefficients[p.SurfaceType]
	if !ok {
		coef = m.table.SurfaceCoefficients[domain.SurfaceConstruida]
	}
	if coef <= 0 {
		coef = 1
	}
	return math.Round(p.Area*coef*100) / 100
}

// SurfaceStatement is the single sentence a report uses to state the surface
// considered for the valuation.
func (m *Model) SurfaceStatement(p domain.PropertyProfile) string {
	return fmt.Sprintf("Superficie considerada a efectos de valoración: %s m² construidos con elementos comunes (CCC).",
		numparse.FormatArea(math.Round(m.CCCArea(p))))
}

package pricing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

func year(y int) *int { return &y }

func newModel() *Model {
	return NewModel(DefaultTable()).WithClock(fixedNow)
}

func TestEstimateUnlistedLocationNoAdjustments(t *testing.T) {
	p := domain.PropertyProfile{
		PropertyType:     domain.PropertyPiso,
		Area:             90,
		ConstructionYear: year(2021),
		Location:         domain.Location{Municipality: "Villanueva del Trabuco", Province: "Ninguna"},
	}
	if got, want := newModel().Estimate(p), int64(2500*90); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestEstimateAppliesAllAdjustments(t *testing.T) {
	p := domain.PropertyProfile{
		PropertyType:     domain.PropertyPiso,
		Area:             100,
		ConstructionYear: year(1970), // 56 years
		Elevator:         true,
		Terrace:          true,
		Location:         domain.Location{Municipality: "Madrid", Province: "Madrid"},
	}
	// 4500 * 0.75 * 1.05 * 1.08 * 100 = 382725
	if got := newModel().Estimate(p); got != 382725 {
		t.Fatalf("expected 382725, got %d", got)
	}
}

func TestMissingYearUsesAssumedAge(t *testing.T) {
	p := domain.PropertyProfile{PropertyType: domain.PropertyPiso, Area: 100}
	// age 20 -> 0.95
	if got := newModel().Estimate(p); got != 237500 {
		t.Fatalf("expected 237500, got %d", got)
	}
}

func TestAgeBandBoundaries(t *testing.T) {
	m := newModel()
	cases := map[int]float64{0: 1, 10: 1, 11: 0.95, 30: 0.95, 31: 0.85, 50: 0.85, 51: 0.75, 120: 0.75}
	for age, want := range cases {
		if got := m.AgeFactor(age); got != want {
			t.Fatalf("age %d: expected %v, got %v", age, want, got)
		}
	}
}

func TestLookupIgnoresAccentsAndCase(t *testing.T) {
	m := newModel()
	p := domain.PropertyProfile{Location: domain.Location{Municipality: "Benalmádena", Province: "MALAGA"}}
	if got := m.PricePerM2(p); got != 2400 {
		t.Fatalf("expected Málaga price, got %v", got)
	}
	p.Location.Municipality = "palma de mallorca"
	if got := m.PricePerM2(p); got != 4200 {
		t.Fatalf("expected municipality to win, got %v", got)
	}
}

func TestEstimateNeverNonPositive(t *testing.T) {
	m := newModel()
	for _, area := range []float64{-5, 0, 0.0001} {
		p := domain.PropertyProfile{PropertyType: domain.PropertyTrastero, Area: area}
		if got := m.Estimate(p); got <= 0 {
			t.Fatalf("area %v: expected positive estimate, got %d", area, got)
		}
	}
}

func TestDefaultTableHasNoTypeAdjustment(t *testing.T) {
	p := domain.PropertyProfile{PropertyType: domain.PropertyGaraje, Area: 12, ConstructionYear: year(2024)}
	if got := newModel().Estimate(p); got != 2500*12 {
		t.Fatalf("expected %d, got %d", 2500*12, got)
	}
}

func TestPropertyTypeFactor(t *testing.T) {
	tbl := DefaultTable()
	tbl.PropertyTypeFactors = map[domain.PropertyType]float64{domain.PropertyGaraje: 0.3}
	m := NewModel(tbl).WithClock(fixedNow)

	p := domain.PropertyProfile{PropertyType: domain.PropertyGaraje, Area: 12, ConstructionYear: year(2024)}
	// 2500 * 0.3 * 12
	if got := m.Estimate(p); got != 9000 {
		t.Fatalf("expected 9000, got %d", got)
	}
}

func TestSurfaceStatement(t *testing.T) {
	m := newModel()
	p := domain.PropertyProfile{Area: 80, SurfaceType: domain.SurfaceUtil}
	want := "Superficie considerada a efectos de valoración: 100 m² construidos con elementos comunes (CCC)."
	if got := m.SurfaceStatement(p); got != want {
		t.Fatalf("unexpected statement %q", got)
	}
	p.SurfaceType = ""
	if got := m.CCCArea(p); got != 88 {
		t.Fatalf("unknown basis should use the constructed coefficient, got %v", got)
	}
}

func TestLoadTableOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `
default_price_per_m2: 2000
municipalities:
  Girona: 3100
age_bands:
  - older_than: 40
    factor: 0.8
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.DefaultPricePerM2 != 2000 {
		t.Fatalf("expected overridden default, got %v", tbl.DefaultPricePerM2)
	}
	if tbl.Municipalities["Girona"] != 3100 || tbl.Municipalities["Bilbao"] != 3800 {
		t.Fatalf("expected merged municipalities, got %v", tbl.Municipalities)
	}
	if len(tbl.AgeBands) != 1 {
		t.Fatalf("expected age bands to be replaced, got %v", tbl.AgeBands)
	}
}

func TestLoadTableRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte("default_price_per_m2: -1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadTable(path)
	if err == nil || !strings.Contains(err.Error(), "default_price_per_m2") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

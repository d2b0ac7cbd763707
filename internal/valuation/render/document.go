package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/numparse"
)

//go:embed templates/*.html
var templateFS embed.FS

var printTemplate = template.Must(template.ParseFS(templateFS, "templates/print.html"))

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Document is the input of the standalone print page.
type Document struct {
	Profile     domain.PropertyProfile
	Figures     domain.CanonicalFigures
	Content     string
	NextSteps   []string
	GeneratedAt time.Time
	// AutoPrint opens the browser print dialog once the page loads.
	AutoPrint bool
}

// DocumentFromReport builds the print input for a finished report.
func DocumentFromReport(r domain.Report, autoPrint bool) Document {
	return Document{
		Profile:     r.Profile,
		Figures:     r.Figures,
		Content:     r.Content,
		NextSteps:   r.NextSteps,
		GeneratedAt: r.GeneratedAt,
		AutoPrint:   autoPrint,
	}
}

type printView struct {
	Title         string
	PropertyType  string
	Street        string
	Place         string
	MarketValue   string
	MortgageValue string
	ListingPrice  string
	Content       template.HTML
	NextSteps     []string
	Date          string
	AutoPrint     bool
}

// PrintDocument renders the complete print page: header, summary box with the
// canonical figures, converted narrative, next steps and a single legal notice.
func PrintDocument(d Document) (string, error) {
	loc := d.Profile.Location
	view := printView{
		Title:         orDefault(loc.StreetName, "Inmueble"),
		PropertyType:  strings.ToUpper(orDefault(string(d.Profile.PropertyType), "Inmueble")),
		Street:        loc.StreetLine(),
		Place:         loc.PlaceLine(),
		MarketValue:   numparse.FormatEUR(d.Figures.Market),
		MortgageValue: numparse.FormatEUR(d.Figures.Mortgage),
		ListingPrice:  numparse.FormatEUR(d.Figures.Listing),
		Content:       template.HTML(PrintHTML(d.Content)), //nolint:gosec // PrintHTML escapes its input
		NextSteps:     d.NextSteps,
		Date:          LongDate(d.GeneratedAt),
		AutoPrint:     d.AutoPrint,
	}

	var buf bytes.Buffer
	if err := printTemplate.ExecuteTemplate(&buf, "print", view); err != nil {
		return "", fmt.Errorf("render print document: %w", err)
	}
	return buf.String(), nil
}

// LongDate formats t as "05 de marzo de 2026". A zero time renders as today.
func LongDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return fmt.Sprintf("%02d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

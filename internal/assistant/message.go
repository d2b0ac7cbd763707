package assistant

import (
	"fmt"
	"strings"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/numparse"
	"github.com/vglena/valorapro/platform/sanitize"
)

const notSpecified = "No especificado"

// FormatPropertyMessage renders the user turn sent to the language model.
// Free-text fields are sanitized so they cannot inject new sections.
func FormatPropertyMessage(p domain.PropertyProfile) string {
	var b strings.Builder
	loc := p.Location

	b.WriteString("SOLICITUD DE VALORACIÓN INMOBILIARIA\n\n")

	b.WriteString("DATOS DEL SOLICITANTE:\n")
	fmt.Fprintf(&b, "- Tipo de usuario: %s\n", p.UserType)
	if p.Email != "" {
		fmt.Fprintf(&b, "- Correo electrónico: %s\n", sanitize.Line(p.Email))
	}
	fmt.Fprintf(&b, "- Finalidad principal: %s\n", sanitize.Line(p.MainPurpose))
	if len(p.SecondaryPurposes) > 0 {
		fmt.Fprintf(&b, "- Finalidades secundarias: %s\n", joinLines(p.SecondaryPurposes))
	}
	if p.OtherPurpose != "" {
		fmt.Fprintf(&b, "- Otra finalidad: %s\n", sanitize.Line(p.OtherPurpose))
	}

	b.WriteString("\nUBICACIÓN DEL INMUEBLE:\n")
	fmt.Fprintf(&b, "- Dirección completa: %s\n", sanitize.Line(loc.StreetLine()))
	fmt.Fprintf(&b, "- Código postal: %s\n", sanitize.Line(loc.PostalCode))
	fmt.Fprintf(&b, "- Municipio: %s\n", sanitize.Line(loc.Municipality))
	fmt.Fprintf(&b, "- Provincia: %s\n", sanitize.Line(loc.Province))
	fmt.Fprintf(&b, "- Referencia catastral: %s\n", orText(sanitize.Line(loc.CadastralReference), "No proporcionada"))

	b.WriteString("\nCARACTERÍSTICAS DEL INMUEBLE:\n")
	fmt.Fprintf(&b, "- Tipo de inmueble: %s\n", p.PropertyType)
	year := notSpecified
	if p.ConstructionYear != nil {
		year = fmt.Sprintf("%d", *p.ConstructionYear)
	}
	fmt.Fprintf(&b, "- Año de construcción: %s\n", year)
	fmt.Fprintf(&b, "- Tipo de superficie: %s\n", orText(string(p.SurfaceType), notSpecified))
	fmt.Fprintf(&b, "- Superficie: %s m²\n", numparse.FormatArea(p.Area))
	if p.PlotArea > 0 {
		fmt.Fprintf(&b, "- Superficie de parcela: %s m²\n", numparse.FormatArea(p.PlotArea))
	}
	fmt.Fprintf(&b, "- Habitaciones: %s\n", countText(p.Rooms))
	fmt.Fprintf(&b, "- Baños: %s\n", countText(p.Bathrooms))
	fmt.Fprintf(&b, "- Ascensor: %s\n", yesNo(p.Elevator))
	if p.Terrace {
		fmt.Fprintf(&b, "- Terraza: Sí (%s, %s m²)\n", orText(string(p.TerraceType), notSpecified), numparse.FormatArea(p.TerraceArea))
	} else {
		b.WriteString("- Terraza: No\n")
	}

	b.WriteString("\nANEXOS:\n")
	if len(p.Annexes) == 0 {
		b.WriteString("- Sin anexos\n")
	}
	for _, annex := range p.Annexes {
		qty := annex.Quantity
		if qty <= 0 {
			qty = 1
		}
		surfaces := "Sin superficie especificada"
		if len(annex.Surfaces) > 0 {
			parts := make([]string, 0, len(annex.Surfaces))
			for _, s := range annex.Surfaces {
				parts = append(parts, fmt.Sprintf("%s m² (%s)", numparse.FormatArea(s.Area), orText(string(s.SurfaceType), notSpecified)))
			}
			surfaces = strings.Join(parts, ", ")
		}
		fmt.Fprintf(&b, "- %s: %d unidad(es), %s\n", annex.Kind, qty, surfaces)
	}

	b.WriteString("\nZONAS COMUNES:\n")
	if p.HasCommonZones {
		fmt.Fprintf(&b, "Sí: %s\n", orText(joinLines(p.CommonAmenities), "No especificadas"))
	} else {
		b.WriteString("No aplica o desconocido\n")
	}

	b.WriteString("\nINFORMACIÓN ADICIONAL:\n")
	b.WriteString(orText(sanitize.Text(p.AdditionalInfo), "Ninguna"))
	b.WriteString("\n\n")

	if p.DetailedReport {
		b.WriteString("SE SOLICITA INFORME DETALLADO con análisis de comparables, ajustes y explicación completa del valor.\n\n")
	} else {
		b.WriteString("Informe estándar.\n\n")
	}
	b.WriteString("Por favor, genera un informe de valoración inmobiliaria orientativa completo siguiendo la estructura y principios establecidos en tus instrucciones.")
	return b.String()
}

func joinLines(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = sanitize.Line(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}

func orText(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func countText(n int) string {
	if n <= 0 {
		return notSpecified
	}
	return fmt.Sprintf("%d", n)
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}

// Package domain holds the types shared by every stage of the valuation
// pipeline: the submitted property, the figures read from a narrative and the
// canonical figures written back into it.
package domain

import (
	"fmt"
	"strings"
)

// PropertyType is the kind of property being valued.
type PropertyType string

const (
	PropertyPiso                 PropertyType = "Piso"
	PropertyAtico                PropertyType = "Ático"
	PropertyDuplex               PropertyType = "Dúplex"
	PropertyGaraje               PropertyType = "Garaje"
	PropertyTrastero             PropertyType = "Trastero"
	PropertyUnifamiliarAdosada   PropertyType = "Unifamiliar adosada"
	PropertyUnifamiliarAislada   PropertyType = "Unifamiliar aislada"
	PropertyFincaRustica         PropertyType = "Finca rústica"
	PropertyOficina              PropertyType = "Oficina"
	PropertyLocalComercial       PropertyType = "Local comercial"
	PropertyEdificio             PropertyType = "Edificio"
	PropertyNaveIndustrial       PropertyType = "Nave industrial"
	PropertyParcelaUrbano        PropertyType = "Parcela suelo urbano"
	PropertyParcelaUrbanizable   PropertyType = "Parcela suelo urbanizable"
	PropertyParcelaNoUrbanizable PropertyType = "Parcela suelo no urbanizable (rústico)"
)

// PropertyTypes lists every accepted property type in form order.
var PropertyTypes = []PropertyType{
	PropertyPiso, PropertyAtico, PropertyDuplex, PropertyGaraje, PropertyTrastero,
	PropertyUnifamiliarAdosada, PropertyUnifamiliarAislada, PropertyFincaRustica,
	PropertyOficina, PropertyLocalComercial, PropertyEdificio, PropertyNaveIndustrial,
	PropertyParcelaUrbano, PropertyParcelaUrbanizable, PropertyParcelaNoUrbanizable,
}

// RequiresPlotArea reports whether the type is valued together with its plot.
func (p PropertyType) RequiresPlotArea() bool {
	switch p {
	case PropertyUnifamiliarAdosada, PropertyUnifamiliarAislada, PropertyNaveIndustrial:
		return true
	}
	return false
}

// SurfaceType is the measurement basis of the declared area.
type SurfaceType string

const (
	SurfaceUtil              SurfaceType = "Útil"
	SurfaceConstruida        SurfaceType = "Construida"
	SurfaceConstruidaComunes SurfaceType = "Construida con elementos comunes"
)

// SurfaceTypes lists the accepted surface bases.
var SurfaceTypes = []SurfaceType{SurfaceUtil, SurfaceConstruida, SurfaceConstruidaComunes}

// TerraceType distinguishes covered from open terraces.
type TerraceType string

const (
	TerraceCovered TerraceType = "Cubierta"
	TerraceOpen    TerraceType = "Descubierta"
)

// AnnexKind is an attached unit valued with the property.
type AnnexKind string

const (
	AnnexGaraje   AnnexKind = "Garaje"
	AnnexTrastero AnnexKind = "Trastero"
	AnnexPatio    AnnexKind = "Patio"
	AnnexJardin   AnnexKind = "Jardín"
	AnnexSolarium AnnexKind = "Solarium"
)

// AnnexKinds lists the accepted annexes.
var AnnexKinds = []AnnexKind{AnnexGaraje, AnnexTrastero, AnnexPatio, AnnexJardin, AnnexSolarium}

// CommonAmenities lists the accepted common-area amenities.
var CommonAmenities = []string{
	"Zonas verdes", "Piscina", "Zona infantil", "Pista de padel",
	"Pista de tenis", "Pista de baloncesto", "Cancha de fútbol", "Sala gourmet",
}

// UserType is who requested the valuation.
type UserType string

const (
	UserPrivate      UserType = "Usuario particular"
	UserProfessional UserType = "Profesional inmobiliario / Broker"
)

// MainPurposes lists the accepted main purposes of a valuation.
var MainPurposes = []string{
	"Vender o comprar un inmueble",
	"Solicitar hipoteca / banco",
	"Herencia, divorcio o reparto patrimonial",
	"Analizar un suelo (qué se puede hacer y cuánto vale)",
	"Negociar una oferta",
	"Resolver dudas urbanísticas",
	"No lo sé, necesito orientación",
}

// SecondaryPurposes lists the accepted secondary purposes.
var SecondaryPurposes = []string{
	"Solo quiero saber cuánto vale aproximadamente el inmueble",
	"Para tener una idea orientativa antes de pedir una hipoteca",
	"Para defender un precio al comprar o vender",
	"Para repartir bienes con una base de valor orientativa",
	"Para detectar riesgos que puedan afectar al valor o a la venta",
}

// AnnexSurface is the measured area of one annex unit.
type AnnexSurface struct {
	SurfaceType SurfaceType `json:"surfaceType,omitempty"`
	Area        float64     `json:"area"`
}

// Annex is one attached unit kind. Surfaces holds one entry per unit when known.
type Annex struct {
	Kind     AnnexKind      `json:"kind"`
	Quantity int            `json:"quantity"`
	Surfaces []AnnexSurface `json:"surfaces,omitempty"`
}

// Location is the postal address of the property.
type Location struct {
	StreetType         string `json:"streetType"`
	StreetName         string `json:"streetName"`
	StreetNumber       string `json:"streetNumber"`
	Block              string `json:"block,omitempty"`
	Entrance           string `json:"entrance,omitempty"`
	Floor              string `json:"floor,omitempty"`
	Door               string `json:"door,omitempty"`
	PostalCode         string `json:"postalCode"`
	Municipality       string `json:"municipality"`
	Province           string `json:"province"`
	CadastralReference string `json:"cadastralReference,omitempty"`
}

// StreetLine renders "Calle Mayor 12, Bloque 2, Esc. A, 3º B".
func (l Location) StreetLine() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(strings.Join([]string{l.StreetType, l.StreetName, l.StreetNumber}, " ")))
	if l.Block != "" {
		fmt.Fprintf(&b, ", Bloque %s", l.Block)
	}
	if l.Entrance != "" {
		fmt.Fprintf(&b, ", Esc. %s", l.Entrance)
	}
	if l.Floor != "" || l.Door != "" {
		fmt.Fprintf(&b, ", %s", strings.TrimSpace(strings.Join([]string{floorLabel(l.Floor), l.Door}, " ")))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// PlaceLine renders "28013 Madrid, Madrid".
func (l Location) PlaceLine() string {
	place := strings.TrimSpace(l.PostalCode + " " + l.Municipality)
	if l.Province == "" {
		return place
	}
	return place + ", " + l.Province
}

func floorLabel(floor string) string {
	if floor == "" {
		return ""
	}
	if _, err := fmt.Sscanf(floor, "%d", new(int)); err == nil {
		return floor + "º"
	}
	return floor
}

// PropertyProfile is a submitted valuation request. It is never mutated once
// a valuation has started.
type PropertyProfile struct {
	UserType UserType `json:"userType"`
	Email    string   `json:"email,omitempty"`

	Location Location `json:"location"`

	PropertyType     PropertyType `json:"propertyType"`
	ConstructionYear *int         `json:"constructionYear,omitempty"`
	SurfaceType      SurfaceType  `json:"surfaceType"`
	Area             float64      `json:"area"`
	PlotArea         float64      `json:"plotArea,omitempty"`
	Rooms            int          `json:"rooms"`
	Bathrooms        int          `json:"bathrooms"`

	Elevator        bool        `json:"elevator"`
	Terrace         bool        `json:"terrace"`
	TerraceType     TerraceType `json:"terraceType,omitempty"`
	TerraceArea     float64     `json:"terraceArea,omitempty"`
	Annexes         []Annex     `json:"annexes,omitempty"`
	HasCommonZones  bool        `json:"hasCommonZones"`
	CommonAmenities []string    `json:"commonAmenities,omitempty"`

	MainPurpose       string   `json:"mainPurpose"`
	SecondaryPurposes []string `json:"secondaryPurposes,omitempty"`
	OtherPurpose      string   `json:"otherPurpose,omitempty"`
	DetailedReport    bool     `json:"detailedReport"`
	AdditionalInfo    string   `json:"additionalInfo,omitempty"`
}

// Description is the one-line summary used in report headers and emails.
func (p PropertyProfile) Description() string {
	return fmt.Sprintf("%s de %s m² en %s", p.PropertyType, formatArea(p.Area), p.Location.PlaceLine())
}

// FullAddress joins the street and place lines.
func (p PropertyProfile) FullAddress() string {
	street := p.Location.StreetLine()
	if street == "" {
		return p.Location.PlaceLine()
	}
	return street + ", " + p.Location.PlaceLine()
}

func formatArea(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

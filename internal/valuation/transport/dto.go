package transport

import (
	"time"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

// Request DTOs

type AnnexSurfaceRequest struct {
	SurfaceType string  `json:"surfaceType,omitempty" validate:"omitempty,surface_type"`
	Area        float64 `json:"area" validate:"gt=0,lte=100000"`
}

type AnnexRequest struct {
	Kind     string                `json:"kind" validate:"required,annex_kind"`
	Quantity int                   `json:"quantity" validate:"required,min=1,max=20"`
	Surfaces []AnnexSurfaceRequest `json:"surfaces,omitempty" validate:"omitempty,max=20,dive"`
}

type LocationRequest struct {
	StreetType         string `json:"streetType" validate:"required,street_type"`
	StreetName         string `json:"streetName" validate:"required,min=1,max=200"`
	StreetNumber       string `json:"streetNumber,omitempty" validate:"omitempty,max=20"`
	Block              string `json:"block,omitempty" validate:"omitempty,max=20"`
	Entrance           string `json:"entrance,omitempty" validate:"omitempty,max=20"`
	Floor              string `json:"floor,omitempty" validate:"omitempty,max=20"`
	Door               string `json:"door,omitempty" validate:"omitempty,max=20"`
	PostalCode         string `json:"postalCode" validate:"required,es_postal_code"`
	Municipality       string `json:"municipality" validate:"required,min=1,max=100"`
	Province           string `json:"province" validate:"required,es_province"`
	CadastralReference string `json:"cadastralReference,omitempty" validate:"omitempty,alphanum,len=20"`
}

// ProfileRequest is the valuation form. Yes/no questions are pointers so a
// missing answer is distinguishable from "no".
type ProfileRequest struct {
	UserType string          `json:"userType" validate:"required,user_type"`
	Email    string          `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Location LocationRequest `json:"location" validate:"required"`

	PropertyType     string  `json:"propertyType" validate:"required,property_type"`
	ConstructionYear *int    `json:"constructionYear,omitempty" validate:"omitempty,min=1700,max=2100"`
	SurfaceType      string  `json:"surfaceType" validate:"required,surface_type"`
	Area             float64 `json:"area" validate:"gt=0,lte=1000000"`
	PlotArea         float64 `json:"plotArea,omitempty" validate:"gte=0,lte=100000000"`
	Rooms            int     `json:"rooms" validate:"min=0,max=100"`
	Bathrooms        int     `json:"bathrooms" validate:"min=0,max=100"`

	Elevator        *bool          `json:"elevator" validate:"required"`
	Terrace         *bool          `json:"terrace" validate:"required"`
	TerraceType     string         `json:"terraceType,omitempty" validate:"omitempty,oneof=Cubierta Descubierta"`
	TerraceArea     float64        `json:"terraceArea,omitempty" validate:"gte=0,lte=100000"`
	Annexes         []AnnexRequest `json:"annexes,omitempty" validate:"omitempty,max=5,dive"`
	HasCommonZones  *bool          `json:"hasCommonZones" validate:"required"`
	CommonAmenities []string       `json:"commonAmenities,omitempty" validate:"omitempty,max=8,dive,amenity"`

	MainPurpose       string   `json:"mainPurpose" validate:"required,max=200"`
	SecondaryPurposes []string `json:"secondaryPurposes,omitempty" validate:"omitempty,max=5,dive,max=200"`
	OtherPurpose      string   `json:"otherPurpose,omitempty" validate:"omitempty,max=500"`
	DetailedReport    bool     `json:"detailedReport"`
	AdditionalInfo    string   `json:"additionalInfo,omitempty" validate:"omitempty,max=2000"`
}

// ValuationRequest starts a generation. SendEmail asks for the summary to be
// mailed to profile.email once the report is ready.
type ValuationRequest struct {
	Profile   ProfileRequest `json:"profile" validate:"required"`
	SendEmail bool           `json:"sendEmail"`
}

// ProcessRequest runs the pipeline on a narrative written elsewhere.
type ProcessRequest struct {
	Profile   ProfileRequest `json:"profile" validate:"required"`
	Narrative string         `json:"narrative" validate:"required,max=200000"`
}

type EstimateRequest struct {
	Profile ProfileRequest `json:"profile" validate:"required"`
}

// ReportRequest carries a previously returned report back for export.
type ReportRequest struct {
	Report    domain.Report `json:"report"`
	AutoPrint bool          `json:"autoPrint"`
}

type EmailRequest struct {
	To        string        `json:"to" validate:"required,email,max=254"`
	Report    domain.Report `json:"report"`
	AttachPDF bool          `json:"attachPdf"`
}

// Response DTOs

type ValuationResponse struct {
	domain.Report
	ScreenHTML string `json:"screenHtml"`
}

type JobAcceptedResponse struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl"`
}

type JobResponse struct {
	domain.Job
	ScreenHTML string `json:"screenHtml,omitempty"`
}

type PDFLinkResponse struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type EmailResponse struct {
	Status string `json:"status"`
}

package transport

import (
	"strings"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/sanitize"
)

// ToProfile converts a validated request into the domain profile. Free text
// is sanitized here; the profile is not modified afterwards.
func (r ProfileRequest) ToProfile() domain.PropertyProfile {
	p := domain.PropertyProfile{
		UserType: domain.UserType(r.UserType),
		Email:    strings.TrimSpace(r.Email),
		Location: domain.Location{
			StreetType:         r.Location.StreetType,
			StreetName:         sanitize.Line(r.Location.StreetName),
			StreetNumber:       sanitize.Line(r.Location.StreetNumber),
			Block:              sanitize.Line(r.Location.Block),
			Entrance:           sanitize.Line(r.Location.Entrance),
			Floor:              sanitize.Line(r.Location.Floor),
			Door:               sanitize.Line(r.Location.Door),
			PostalCode:         r.Location.PostalCode,
			Municipality:       sanitize.Line(r.Location.Municipality),
			Province:           domain.CanonicalProvince(r.Location.Province),
			CadastralReference: strings.ToUpper(r.Location.CadastralReference),
		},
		PropertyType:      domain.PropertyType(r.PropertyType),
		ConstructionYear:  r.ConstructionYear,
		SurfaceType:       domain.SurfaceType(r.SurfaceType),
		Area:              r.Area,
		PlotArea:          r.PlotArea,
		Rooms:             r.Rooms,
		Bathrooms:         r.Bathrooms,
		Elevator:          deref(r.Elevator),
		Terrace:           deref(r.Terrace),
		HasCommonZones:    deref(r.HasCommonZones),
		MainPurpose:       sanitize.Line(r.MainPurpose),
		OtherPurpose:      sanitize.Text(r.OtherPurpose),
		DetailedReport:    r.DetailedReport,
		AdditionalInfo:    sanitize.Text(r.AdditionalInfo),
		CommonAmenities:   append([]string(nil), r.CommonAmenities...),
		SecondaryPurposes: make([]string, 0, len(r.SecondaryPurposes)),
	}
	if p.Terrace {
		p.TerraceType = domain.TerraceType(r.TerraceType)
		p.TerraceArea = r.TerraceArea
	}
	if !p.HasCommonZones {
		p.CommonAmenities = nil
	}
	for _, s := range r.SecondaryPurposes {
		p.SecondaryPurposes = append(p.SecondaryPurposes, sanitize.Line(s))
	}
	for _, a := range r.Annexes {
		annex := domain.Annex{Kind: domain.AnnexKind(a.Kind), Quantity: a.Quantity}
		for _, s := range a.Surfaces {
			annex.Surfaces = append(annex.Surfaces, domain.AnnexSurface{SurfaceType: domain.SurfaceType(s.SurfaceType), Area: s.Area})
		}
		p.Annexes = append(p.Annexes, annex)
	}
	return p
}

func deref(b *bool) bool {
	return b != nil && *b
}

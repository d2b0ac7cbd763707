package transport

import (
	"github.com/go-playground/validator/v10"

	"github.com/vglena/valorapro/internal/valuation/domain"
	platformvalidator "github.com/vglena/valorapro/platform/validator"
)

// RegisterRules adds the valuation form rules to v.
func RegisterRules(v *platformvalidator.Validator) error {
	rules := map[string]validator.Func{
		"es_postal_code": func(fl validator.FieldLevel) bool {
			return domain.ValidPostalCode(fl.Field().String())
		},
		"es_province": func(fl validator.FieldLevel) bool {
			return contains(domain.Provinces, domain.CanonicalProvince(fl.Field().String()))
		},
		"street_type":   oneOf(domain.StreetTypes),
		"property_type": oneOf(stringsOf(domain.PropertyTypes)),
		"surface_type":  oneOf(stringsOf(domain.SurfaceTypes)),
		"annex_kind":    oneOf(stringsOf(domain.AnnexKinds)),
		"user_type":     oneOf([]string{string(domain.UserPrivate), string(domain.UserProfessional)}),
		"amenity":       oneOf(domain.CommonAmenities),
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	v.RegisterStructValidation(profileRules, ProfileRequest{})
	v.RegisterStructValidation(valuationRules, ValuationRequest{})
	return nil
}

// profileRules requires a plot area for the property types valued with their plot.
func profileRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(ProfileRequest)
	if domain.PropertyType(p.PropertyType).RequiresPlotArea() && p.PlotArea <= 0 {
		sl.ReportError(p.PlotArea, "plotArea", "PlotArea", "required_for_type", p.PropertyType)
	}
}

// valuationRules requires an email address when the summary should be mailed.
func valuationRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(ValuationRequest)
	if r.SendEmail && r.Profile.Email == "" {
		sl.ReportError(r.Profile.Email, "email", "Email", "required_with_send_email", "")
	}
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return contains(values, fl.Field().String())
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Package derive turns one base market value into the four figures a report
// issues.
package derive

import (
	"github.com/shopspring/decimal"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

// internalMarkupFactor lifts every base value before it is issued. It is
// applied here only and never mentioned in report text.
const internalMarkupFactor = "1.20"

var (
	markup        = decimal.RequireFromString(internalMarkupFactor)
	mortgageRatio = decimal.RequireFromString("0.85")
	freeRatio     = decimal.RequireFromString("1.05")
)

// Options controls derivation.
type Options struct {
	// MarkupEnabled applies internalMarkupFactor. Disabled only for audits.
	MarkupEnabled bool
}

// maxBase keeps the base and every figure derived from it within int64.
const maxBase = 1e15

// Base picks the extracted market value when present, positive and below
// maxBase, otherwise the fallback estimate.
func Base(extracted domain.ExtractedFigures, fallback int64) domain.Base {
	if v, ok := extracted.Market.Value(); ok && v > 0 && v < maxBase {
		return domain.Base{Value: round(decimal.NewFromFloat(v)), Source: domain.BaseExtracted}
	}
	return domain.Base{Value: fallback, Source: domain.BaseFallback}
}

// Derive computes the canonical figures from a base value.
func Derive(base domain.Base, opts Options) domain.CanonicalFigures {
	market := decimal.NewFromInt(base.Value)
	if opts.MarkupEnabled {
		market = market.Mul(markup)
	}
	return Ratios(round(market))
}

// Ratios fills the dependent figures from a market value.
func Ratios(market int64) domain.CanonicalFigures {
	m := decimal.NewFromInt(market)
	free := round(m.Mul(freeRatio))
	return domain.CanonicalFigures{
		Market:     market,
		Mortgage:   round(m.Mul(mortgageRatio)),
		FreeMarket: free,
		Listing:    free,
	}
}

// round is half away from zero.
func round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Package extract reads the issued valuation figures out of a narrative report.
// Each figure has an ordered list of rules; the first rule yielding an amount
// above the plausibility threshold wins.
package extract

import (
	"regexp"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

// DefaultThreshold discards amounts that are really surfaces, percentages or
// prices per square metre.
const DefaultThreshold = 10000

// MaxAmount discards amounts no property report issues, such as digit runs
// misread as one number.
const MaxAmount = 1e10

// yearNote matches a reference year written next to a label, as in
// "Valor de mercado (2025):".
var yearNote = regexp.MustCompile(`\(\s*(?:19|20)\d{2}\s*\)`)

// Extractor applies the rule lists.
type Extractor struct {
	threshold float64
	rules     map[domain.FigureKind][]Rule
}

// New returns an extractor with the default rules. A non-positive threshold
// falls back to DefaultThreshold.
func New(threshold float64) *Extractor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Extractor{threshold: threshold, rules: DefaultRules()}
}

// Extract returns each figure as found or missing.
func (e *Extractor) Extract(text string) domain.ExtractedFigures {
	text = yearNote.ReplaceAllString(text, "")
	return domain.ExtractedFigures{
		Market:     e.figure(domain.FigureMarket, text),
		Mortgage:   e.figure(domain.FigureMortgage, text),
		FreeMarket: e.figure(domain.FigureFreeMarket, text),
		Listing:    e.figure(domain.FigureListing, text),
	}
}

func (e *Extractor) figure(kind domain.FigureKind, text string) domain.Figure {
	for _, rule := range e.rules[kind] {
		if v, ok := rule.Apply(text, e.threshold); ok {
			return domain.Found(v, rule.Name)
		}
	}
	return domain.Missing()
}

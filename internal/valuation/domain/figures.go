package domain

// FigureKind names one of the four figures a report issues.
type FigureKind string

const (
	FigureMarket     FigureKind = "market"
	FigureMortgage   FigureKind = "mortgage"
	FigureFreeMarket FigureKind = "free_market"
	FigureListing    FigureKind = "listing"
)

// FigureKinds lists the figures in the order a report issues them.
var FigureKinds = []FigureKind{FigureMarket, FigureMortgage, FigureFreeMarket, FigureListing}

// Figure is the outcome of looking for one amount in a narrative: either a
// value found by a named rule, or missing. The zero Figure is missing.
type Figure struct {
	found bool
	value float64
	rule  string
}

// Found returns a present figure read by rule.
func Found(value float64, rule string) Figure {
	return Figure{found: true, value: value, rule: rule}
}

// Missing returns an absent figure.
func Missing() Figure {
	return Figure{}
}

// Value returns the amount and whether it was found.
func (f Figure) Value() (float64, bool) {
	return f.value, f.found
}

// IsFound reports whether the figure is present.
func (f Figure) IsFound() bool { return f.found }

// Rule names the extraction rule that matched, empty when missing.
func (f Figure) Rule() string { return f.rule }

// FigureView is the JSON form of a Figure.
type FigureView struct {
	Status string   `json:"status"`
	Value  *float64 `json:"value,omitempty"`
	Rule   string   `json:"rule,omitempty"`
}

// View converts the figure for serialization.
func (f Figure) View() FigureView {
	if !f.found {
		return FigureView{Status: "missing"}
	}
	v := f.value
	return FigureView{Status: "found", Value: &v, Rule: f.rule}
}

// ExtractedFigures holds what a narrative states about each figure.
type ExtractedFigures struct {
	Market     Figure
	Mortgage   Figure
	FreeMarket Figure
	Listing    Figure
}

// Get returns the figure of the given kind.
func (e ExtractedFigures) Get(kind FigureKind) Figure {
	switch kind {
	case FigureMarket:
		return e.Market
	case FigureMortgage:
		return e.Mortgage
	case FigureFreeMarket:
		return e.FreeMarket
	case FigureListing:
		return e.Listing
	}
	return Missing()
}

// View converts all figures for serialization.
func (e ExtractedFigures) View() map[FigureKind]FigureView {
	out := make(map[FigureKind]FigureView, len(FigureKinds))
	for _, k := range FigureKinds {
		out[k] = e.Get(k).View()
	}
	return out
}

// CanonicalFigures are the four amounts, in whole euros, that a report issues.
// Mortgage is 85% of Market; FreeMarket and Listing are both 105% of Market.
type CanonicalFigures struct {
	Market     int64 `json:"marketValue"`
	Mortgage   int64 `json:"mortgageValue"`
	FreeMarket int64 `json:"freeMarketValue"`
	Listing    int64 `json:"listingPrice"`
}

// BaseSource says where the value the canonical figures derive from came from.
type BaseSource string

const (
	BaseExtracted BaseSource = "extracted"
	BaseFallback  BaseSource = "fallback"
)

// Base is the pre-markup market value.
type Base struct {
	Value  int64      `json:"value"`
	Source BaseSource `json:"source"`
}

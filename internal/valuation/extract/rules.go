package extract

import (
	"math"
	"regexp"
	"strings"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/numparse"
)

// Building blocks shared by the rule patterns. gap is the text between a label
// and its amount: emphasis, colons, parentheses, short connecting words.
const (
	num      = `(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:,\d+)?)`
	gap      = `([^\d\n]{0,60}?)`
	rangeSep = `[ \t]*(?:€|eur(?:os)?)?[ \t]*(?:-|–|—|[ \t]a[ \t]|[ \t]y[ \t]|[ \t]hasta[ \t])[ \t]*(?:€[ \t]*)?`
	// optionalRange captures a second amount when the first opens a range.
	optionalRange = `(?:` + rangeSep + num + `)?`
	lineStart     = `(?m)^[^\w\n]*`
)

type ruleKind int

const (
	// single accepts one amount and rejects matches that open a range of two
	// plausible amounts.
	single ruleKind = iota
	// rangeAverage requires two amounts and yields their mean.
	rangeAverage
)

// Rule is one pattern for one figure. Patterns capture gap, first amount and
// an optional second amount, in that order.
type Rule struct {
	Name    string
	Figure  domain.FigureKind
	kind    ruleKind
	re      *regexp.Regexp
	exclude []string
}

func newRule(name string, figure domain.FigureKind, kind ruleKind, label string, exclude ...string) Rule {
	pattern := `(?i)` + label + gap + num
	if kind == rangeAverage {
		pattern += rangeSep + num
	} else {
		pattern += optionalRange
	}
	return Rule{
		Name:    name,
		Figure:  figure,
		kind:    kind,
		re:      regexp.MustCompile(pattern),
		exclude: exclude,
	}
}

// Apply returns the first match whose amount exceeds threshold and stays
// below MaxAmount. A second amount only makes a range when it is plausible
// too; "250.000 € - 5% de margen" is a single value.
func (r Rule) Apply(text string, threshold float64) (float64, bool) {
	plausible := func(raw string) (float64, bool) {
		v, ok := numparse.Parse(raw)
		return v, ok && v > threshold && v < MaxAmount
	}

	for _, m := range r.re.FindAllStringSubmatch(text, -1) {
		gapText, first, second := strings.ToLower(m[1]), m[2], m[3]
		if r.excluded(gapText) {
			continue
		}

		switch r.kind {
		case single:
			if second != "" {
				if _, isRange := plausible(second); isRange {
					continue
				}
			}
			if v, ok := plausible(first); ok {
				return v, true
			}
		case rangeAverage:
			lo, okLo := plausible(first)
			hi, okHi := plausible(second)
			if okLo && okHi {
				return math.Round((lo + hi) / 2), true
			}
		}
	}
	return 0, false
}

func (r Rule) excluded(gapText string) bool {
	for _, word := range r.exclude {
		if strings.Contains(gapText, word) {
			return true
		}
	}
	return false
}

const (
	labelMarket     = `valor\s+de\s+mercado`
	labelMortgage   = `valor\s+(?:de\s+)?(?:garant[ií]a\s+)?hipotecari[oa]`
	labelFreeMarket = `valor\s+de\s+mercado\s+libre`
	labelListing    = `(?:valor|precio)\s+(?:de\s+venta\s+recomendad[oa]|recomendad[oa]\s+de\s+venta)`
)

func numbered(n string, label string) string {
	return lineStart + n + `[.)]\s*(?:\*\*)?\s*` + label
}

// DefaultRules returns the rule lists per figure, most specific first.
func DefaultRules() map[domain.FigureKind][]Rule {
	return map[domain.FigureKind][]Rule{
		domain.FigureMarket: {
			newRule("market.numbered", domain.FigureMarket, single, numbered("1", labelMarket), "libre"),
			newRule("market.labelled", domain.FigureMarket, single, labelMarket, "libre"),
			newRule("market.range", domain.FigureMarket, rangeAverage, labelMarket, "libre"),
			newRule("market.valoracion", domain.FigureMarket, single, `valoraci[oó]n`),
			newRule("market.estimado", domain.FigureMarket, single, `estimad[oa]`),
		},
		domain.FigureMortgage: {
			newRule("mortgage.numbered", domain.FigureMortgage, single, numbered("2", labelMortgage)),
			newRule("mortgage.labelled", domain.FigureMortgage, single, labelMortgage),
		},
		domain.FigureFreeMarket: {
			newRule("free_market.numbered", domain.FigureFreeMarket, single, numbered("3", labelFreeMarket)),
			newRule("free_market.labelled", domain.FigureFreeMarket, single, labelFreeMarket),
		},
		domain.FigureListing: {
			newRule("listing.numbered", domain.FigureListing, single, numbered("4", labelListing)),
			newRule("listing.labelled", domain.FigureListing, single, labelListing),
		},
	}
}

// Package service runs the valuation pipeline: it turns a generated narrative
// into a report with canonical figures, and coordinates generation, geocoding
// and the asynchronous job queue around it.
package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vglena/valorapro/internal/valuation/derive"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/extract"
	"github.com/vglena/valorapro/internal/valuation/numparse"
	"github.com/vglena/valorapro/internal/valuation/pricing"
	"github.com/vglena/valorapro/internal/valuation/rewrite"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
)

const valuationApproach = "Metodología ECO/805/2003 y ECM/599/2025"

// Pipeline post-processes narratives. It holds no mutable state and is safe
// for concurrent use.
type Pipeline struct {
	model     *pricing.Model
	extractor *extract.Extractor
	opts      derive.Options
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewPipeline wires the pipeline stages. m may be nil.
func NewPipeline(model *pricing.Model, extractor *extract.Extractor, opts derive.Options, log *logger.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		model:     model,
		extractor: extractor,
		opts:      opts,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// Estimate returns the fallback pricing for a profile without touching any
// narrative.
func (p *Pipeline) Estimate(profile domain.PropertyProfile) Estimate {
	base := domain.Base{Value: p.model.Estimate(profile), Source: domain.BaseFallback}
	figures := derive.Derive(base, p.opts)
	return Estimate{
		Base:             base,
		Figures:          figures,
		PricePerM2:       int64(math.Round(p.model.PricePerM2(profile))),
		AdjustedPerM2:    int64(math.Round(p.model.AdjustedPricePerM2(profile))),
		ConsideredArea:   p.model.CCCArea(profile),
		SurfaceStatement: p.model.SurfaceStatement(profile),
	}
}

// Estimate is the result of fallback pricing alone.
type Estimate struct {
	Base             domain.Base             `json:"base"`
	Figures          domain.CanonicalFigures `json:"figures"`
	PricePerM2       int64                   `json:"pricePerM2"`
	AdjustedPerM2    int64                   `json:"adjustedPricePerM2"`
	ConsideredArea   float64                 `json:"consideredArea"`
	SurfaceStatement string                  `json:"surfaceStatement"`
}

// Process extracts the figures a narrative states, derives the canonical
// figures, rewrites the narrative with them and freezes everything in a
// report. It never fails: a narrative without figures falls back to the
// pricing model and one without a values block is kept as written.
func (p *Pipeline) Process(profile domain.PropertyProfile, narrative string, provider domain.Provider) domain.Report {
	start := p.now()
	if p.metrics != nil {
		defer p.metrics.ObservePipeline(start)
	}

	extracted := p.extractor.Extract(narrative)
	p.recordExtraction(extracted)

	fallback := p.model.Estimate(profile)
	base := derive.Base(extracted, fallback)
	if base.Source == domain.BaseFallback {
		p.log.ExtractionMiss(string(domain.FigureMarket))
		if p.metrics != nil {
			p.metrics.FallbackValues.Inc()
		}
	}

	figures := derive.Derive(base, p.opts)
	content, outcome := rewrite.Rewrite(narrative, figures, p.model.SurfaceStatement(profile))
	if !outcome.ValuesBlockFound {
		p.log.Warn("values block not found, narrative kept as generated", "provider", provider)
		if p.metrics != nil {
			p.metrics.RewriteMisses.WithLabelValues("values_block").Inc()
		}
	}

	confidence := domain.ConfidenceHigh
	if base.Source == domain.BaseFallback {
		confidence = domain.ConfidenceMedium
	}

	var perM2 int64
	if profile.Area > 0 {
		perM2 = int64(math.Round(float64(figures.Market) / profile.Area))
	}

	return domain.Report{
		ID:                  uuid.New().String(),
		Profile:             profile,
		PropertyDescription: profile.Description(),
		ValuationApproach:   valuationApproach,
		Base:                base,
		Extracted:           extracted.View(),
		Figures:             figures,
		PricePerSquareMeter: perM2,
		Confidence:          confidence,
		Summary:             summaryLine(profile, figures),
		Content:             content,
		NextSteps:           extract.NextSteps(narrative),
		Rewrite: domain.RewriteOutcome{
			ValuesBlockFound:          outcome.ValuesBlockFound,
			SurfaceStatementsReplaced: outcome.SurfaceStatementsReplaced,
		},
		Provider:    provider,
		GeneratedAt: start.UTC(),
	}
}

func (p *Pipeline) recordExtraction(extracted domain.ExtractedFigures) {
	if p.metrics == nil {
		return
	}
	for _, kind := range domain.FigureKinds {
		result := "missing"
		if extracted.Get(kind).IsFound() {
			result = "found"
		}
		p.metrics.Extractions.WithLabelValues(string(kind), result).Inc()
	}
}

func summaryLine(profile domain.PropertyProfile, f domain.CanonicalFigures) string {
	return fmt.Sprintf("%s. Valor de mercado estimado: %s. Precio de venta recomendado: %s.",
		profile.Description(), numparse.FormatEUR(f.Market), numparse.FormatEUR(f.Listing))
}

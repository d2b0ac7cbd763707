// Package assistant is the language-model boundary: it turns a property
// profile into a narrative valuation report. The OpenAI assistant is the
// primary writer; Gemini serves when no assistant is configured.
package assistant

import (
	"context"
	_ "embed"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/apperr"
	"github.com/vglena/valorapro/platform/logger"
)

//go:embed prompts/instructions.md
var instructions string

//go:embed prompts/principles.md
var principles string

// Instructions returns the report format pushed to the OpenAI assistant.
func Instructions() string { return instructions }

// SystemInstruction returns the full system prompt for generators that take
// it per request: valuation principles followed by the report format.
func SystemInstruction() string { return principles + "\n" + instructions }

// Narrative is the raw Markdown report and the backend that wrote it.
type Narrative struct {
	Text     string
	Provider domain.Provider
}

// Generator writes a narrative for a profile.
type Generator interface {
	Provider() domain.Provider
	Generate(ctx context.Context, profile domain.PropertyProfile) (Narrative, error)
}

// Chain delegates to the first configured generator. A failure is reported
// to the caller as is; the chain never falls through to the next backend.
type Chain struct {
	generators []Generator
	log        *logger.Logger
}

// NewChain keeps the non-nil generators in priority order.
func NewChain(log *logger.Logger, generators ...Generator) *Chain {
	c := &Chain{log: log}
	for _, g := range generators {
		if g != nil {
			c.generators = append(c.generators, g)
		}
	}
	return c
}

// Configured reports whether any backend is available.
func (c *Chain) Configured() bool { return len(c.generators) > 0 }

// Provider implements Generator.
func (c *Chain) Provider() domain.Provider {
	if !c.Configured() {
		return ""
	}
	return c.generators[0].Provider()
}

// Generate implements Generator. Failures are returned as categorized apperr values.
func (c *Chain) Generate(ctx context.Context, profile domain.PropertyProfile) (Narrative, error) {
	if !c.Configured() {
		return Narrative{}, apperr.Unavailable("no valuation generator is configured")
	}
	g := c.generators[0]
	narrative, err := g.Generate(ctx, profile)
	if err != nil {
		category := Categorize(err)
		c.log.WithContext(ctx).ExternalCallFailed(string(g.Provider()), "generate", string(category), err)
		return Narrative{}, AppError(g.Provider(), err)
	}
	if narrative.Provider == "" {
		narrative.Provider = g.Provider()
	}
	return narrative, nil
}

// Package valuation is the valuation bounded context: report generation,
// post-processing and export.
package valuation

import (
	apphttp "github.com/vglena/valorapro/internal/http"
	"github.com/vglena/valorapro/internal/valuation/handler"
	"github.com/vglena/valorapro/internal/valuation/service"
	"github.com/vglena/valorapro/internal/valuation/transport"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/validator"
)

// Module is the valuation HTTP module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule registers the form rules on val and builds the handler.
func NewModule(svc *service.Service, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterRules(val); err != nil {
		return nil, err
	}
	return &Module{
		handler: handler.New(svc, val, log),
		service: svc,
	}, nil
}

// Service returns the valuation service for the worker and event handlers.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "valuation"
}

// RegisterRoutes mounts the valuation routes. Routes that start a generation
// sit behind the stricter generation limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/valuations")

	generate := group.Group("")
	if ctx.GenerationRateLimiter != nil {
		generate.Use(ctx.GenerationRateLimiter.RateLimit())
	}
	generate.POST("", m.handler.Generate)
	generate.POST("/jobs", m.handler.Enqueue)

	group.GET("/jobs/:id", m.handler.GetJob)
	group.POST("/process", m.handler.Process)
	group.POST("/estimate", m.handler.Estimate)
	group.POST("/print", m.handler.Print)
	group.POST("/pdf", m.handler.PDF)
	group.POST("/email", m.handler.Email)
}

var _ apphttp.Module = (*Module)(nil)

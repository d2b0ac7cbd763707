package maps

import (
	apphttp "github.com/vglena/valorapro/internal/http"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
)

// Module wires the address lookup and geocoding HTTP routes.
type Module struct {
	service *Service
	handler *Handler
}

func NewModule(cfg config.GeocodingConfig, log *logger.Logger) *Module {
	svc := NewService(cfg, log)
	h := NewHandler(svc)
	return &Module{service: svc, handler: h}
}

// Service exposes the geocoder to other modules.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/maps")
	group.GET("/address-lookup", m.handler.LookupAddress)
	group.GET("/geocode", m.handler.Geocode)
}

var _ apphttp.Module = (*Module)(nil)

package maps

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vglena/valorapro/platform/httpkit"
)

// Handler exposes the maps endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// LookupAddress handles GET /api/v1/maps/address-lookup?q=...
func (h *Handler) LookupAddress(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required (min 3 chars)", nil)
		return
	}

	results, err := h.svc.SearchAddress(c.Request.Context(), req.Query)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "address lookup service unavailable", nil)
		return
	}

	httpkit.OK(c, results)
}

// Geocode handles GET /api/v1/maps/geocode?streetType=...&municipality=...&province=...
func (h *Handler) Geocode(c *gin.Context) {
	var req GeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "municipality and province are required", nil)
		return
	}

	coords, err := h.svc.Geocode(c.Request.Context(), req)
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "address not found", nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "geocoding service unavailable", nil)
		return
	}

	httpkit.OK(c, coords)
}

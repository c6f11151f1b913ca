package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carevia/carevia-api/internal/service"
	"github.com/carevia/carevia-api/pkg/response"
)

// UpstreamCatalogHandler serves the resilient catalog reads: every request
// goes through the degrading client and, when degraded, through the
// last-known-copy fallback.
type UpstreamCatalogHandler struct {
	catalog *service.UpstreamCatalogService
}

// NewUpstreamCatalogHandler constructs UpstreamCatalogHandler.
func NewUpstreamCatalogHandler(catalog *service.UpstreamCatalogService) *UpstreamCatalogHandler {
	return &UpstreamCatalogHandler{catalog: catalog}
}

func (h *UpstreamCatalogHandler) list(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, meta, err := h.catalog.List(c.Request.Context(), resource, c.Request.URL.Query())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.List(c, items, meta.Total, meta.Degraded, meta.Stale)
	}
}

// Hospitals godoc
// @Summary List hospitals through the resilient client
// @Tags ResilientCatalog
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Router /catalog/hospitals [get]
func (h *UpstreamCatalogHandler) Hospitals(c *gin.Context) { h.list("hospitals")(c) }

// Doctors godoc
// @Summary List doctors through the resilient client
// @Tags ResilientCatalog
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Router /catalog/doctors [get]
func (h *UpstreamCatalogHandler) Doctors(c *gin.Context) { h.list("doctors")(c) }

// Specialties godoc
// @Summary List specialties through the resilient client
// @Tags ResilientCatalog
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Router /catalog/specialties [get]
func (h *UpstreamCatalogHandler) Specialties(c *gin.Context) { h.list("specialties")(c) }

// Staff godoc
// @Summary List staff through the resilient client
// @Tags ResilientCatalog
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Router /catalog/staff [get]
func (h *UpstreamCatalogHandler) Staff(c *gin.Context) { h.list("staff")(c) }

// KPIs godoc
// @Summary Daily KPIs through the resilient client
// @Tags ResilientCatalog
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Router /catalog/kpis [get]
func (h *UpstreamCatalogHandler) KPIs(c *gin.Context) { h.list("kpis")(c) }

package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carevia/carevia-api/internal/service"
	"github.com/carevia/carevia-api/pkg/response"
)

// CatalogHandler exposes the core reference data endpoints, served straight
// from the store.
type CatalogHandler struct {
	catalog      *service.CatalogService
	appointments *service.AppointmentService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, appointments *service.AppointmentService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, appointments: appointments}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, size
}

// Hospitals godoc
// @Summary List hospitals
// @Tags Catalog
// @Produce json
// @Param q query string false "Name or city search"
// @Success 200 {object} response.ListEnvelope
// @Router /core/catalog/hospitals [get]
func (h *CatalogHandler) Hospitals(c *gin.Context) {
	page, size := pageParams(c)
	hospitals, total, err := h.catalog.ListHospitals(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, hospitals, total, false, false)
}

// Doctors godoc
// @Summary List doctors
// @Tags Catalog
// @Produce json
// @Param q query string false "Name search"
// @Param hospitalId query string false "Filter by hospital"
// @Success 200 {object} response.ListEnvelope
// @Router /core/catalog/doctors [get]
func (h *CatalogHandler) Doctors(c *gin.Context) {
	page, size := pageParams(c)
	doctors, total, err := h.catalog.ListDoctors(c.Request.Context(), c.Query("q"), c.Query("hospitalId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, doctors, total, false, false)
}

// Specialties godoc
// @Summary List specialties
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Router /core/catalog/specialties [get]
func (h *CatalogHandler) Specialties(c *gin.Context) {
	specialties, total, err := h.catalog.ListSpecialties(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, specialties, total, false, false)
}

// Staff godoc
// @Summary List staff members
// @Tags Catalog
// @Produce json
// @Param hospitalId query string false "Filter by hospital"
// @Success 200 {object} response.ListEnvelope
// @Router /core/catalog/staff [get]
func (h *CatalogHandler) Staff(c *gin.Context) {
	page, size := pageParams(c)
	staff, total, err := h.catalog.ListStaff(c.Request.Context(), c.Query("hospitalId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, staff, total, false, false)
}

// KPIs godoc
// @Summary Appointment counts for a calendar day
// @Tags Catalog
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.ListEnvelope
// @Router /core/catalog/kpis [get]
func (h *CatalogHandler) KPIs(c *gin.Context) {
	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err == nil {
			day = parsed
		}
	}

	kpis, err := h.appointments.DailyKPIs(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Wrapped as a one-item collection so the gateway relay and its
	// fallback cache treat KPIs like any other catalog resource.
	response.List(c, []interface{}{kpis}, 1, false, false)
}

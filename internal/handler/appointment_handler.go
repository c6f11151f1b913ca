package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carevia/carevia-api/internal/models"
	"github.com/carevia/carevia-api/internal/service"
	appErrors "github.com/carevia/carevia-api/pkg/errors"
	"github.com/carevia/carevia-api/pkg/response"
)

// AppointmentHandler exposes the appointment lifecycle endpoints.
type AppointmentHandler struct {
	appointments *service.AppointmentService
	metrics      *service.MetricsService
}

// NewAppointmentHandler constructs AppointmentHandler.
func NewAppointmentHandler(appointments *service.AppointmentService, metrics *service.MetricsService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, metrics: metrics}
}

type patientSnapshotRequest struct {
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	Document  *string    `json:"document"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email"`
	BirthDate *time.Time `json:"birthDate"`
	Sex       *string    `json:"sex"`
}

func (r *patientSnapshotRequest) toModel() *models.PatientSnapshot {
	if r == nil {
		return nil
	}
	return &models.PatientSnapshot{
		PatientFirstName: r.FirstName,
		PatientLastName:  r.LastName,
		PatientDocument:  r.Document,
		PatientPhone:     r.Phone,
		PatientEmail:     r.Email,
		PatientBirthDate: r.BirthDate,
		PatientSex:       r.Sex,
	}
}

// createAppointmentRequest deliberately carries no binding tags: the
// scheduling rules collect every violation at once, which a bind-time
// rejection would short-circuit.
type createAppointmentRequest struct {
	HospitalID string                  `json:"hospitalId"`
	DoctorID   string                  `json:"doctorId"`
	Reason     string                  `json:"reason"`
	StartTime  time.Time               `json:"startTime"`
	EndTime    time.Time               `json:"endTime"`
	PatientID  string                  `json:"patientId"`
	Patient    *patientSnapshotRequest `json:"patient"`
}

type updateAppointmentRequest struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    *string    `json:"status"`
	Reason    *string    `json:"reason"`
}

// Create godoc
// @Summary Book an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body createAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	appointment, err := h.appointments.Create(c.Request.Context(), service.CreateAppointmentInput{
		HospitalID: req.HospitalID,
		DoctorID:   req.DoctorID,
		Reason:     req.Reason,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		PatientID:  req.PatientID,
		Snapshot:   req.Patient.toModel(),
		Actor:      actorFromContext(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment)
}

// Update godoc
// @Summary Partially update an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body updateAppointmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) Update(c *gin.Context) {
	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	input := service.UpdateAppointmentInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Actor:     actorFromContext(c),
	}
	if req.Status != nil {
		status := models.AppointmentStatus(strings.ToUpper(*req.Status))
		input.Status = &status
	}

	appointment, err := h.appointments.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Get godoc
// @Summary Get an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, err := h.appointments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param doctorId query string false "Filter by doctor"
// @Param hospitalId query string false "Filter by hospital"
// @Param status query string false "Filter by status"
// @Param q query string false "Free text over reason and patient name"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	var filter models.AppointmentFilter
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}
	filter.DoctorID = c.Query("doctorId")
	filter.HospitalID = c.Query("hospitalId")
	filter.Status = models.AppointmentStatus(strings.ToUpper(c.Query("status")))
	filter.Query = c.Query("q")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		filter.PageSize = size
	}

	appointments, total, err := h.appointments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, appointments, total, false, false)
}

// Today godoc
// @Summary A doctor's agenda for the current day
// @Tags Appointments
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.ListEnvelope
// @Router /doctors/{id}/appointments/today [get]
func (h *AppointmentHandler) Today(c *gin.Context) {
	appointments, err := h.appointments.TodayForDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, appointments, len(appointments), false, false)
}

// Delete godoc
// @Summary Delete an appointment record
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 204
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	if err := h.appointments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExpirePast godoc
// @Summary Cancel every scheduled appointment whose window already closed
// @Tags Appointments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /appointments/expire-past [post]
func (h *AppointmentHandler) ExpirePast(c *gin.Context) {
	expired, err := h.appointments.ExpirePast(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExpired(expired)
	response.JSON(c, http.StatusOK, gin.H{"expired": expired}, nil)
}

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevia/carevia-api/internal/middleware"
	"github.com/carevia/carevia-api/internal/models"
	"github.com/carevia/carevia-api/internal/service"
)

type appointmentStoreStub struct {
	byID    map[string]*models.Appointment
	overlap bool
	expired int
}

func newAppointmentStoreStub() *appointmentStoreStub {
	return &appointmentStoreStub{byID: map[string]*models.Appointment{}}
}

func (s *appointmentStoreStub) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range s.byID {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (s *appointmentStoreStub) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (s *appointmentStoreStub) ListForDoctorOnDay(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error) {
	return nil, nil
}

func (s *appointmentStoreStub) ExistsOverlap(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (bool, error) {
	return s.overlap, nil
}

func (s *appointmentStoreStub) Create(ctx context.Context, appointment *models.Appointment) error {
	appointment.ID = "apt-new"
	s.byID[appointment.ID] = appointment
	return nil
}

func (s *appointmentStoreStub) Update(ctx context.Context, appointment *models.Appointment) error {
	if _, ok := s.byID[appointment.ID]; !ok {
		return sql.ErrNoRows
	}
	s.byID[appointment.ID] = appointment
	return nil
}

func (s *appointmentStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

func (s *appointmentStoreStub) ExpirePast(ctx context.Context, now time.Time, actor string) (int, error) {
	return s.expired, nil
}

func (s *appointmentStoreStub) DailyKPIs(ctx context.Context, day time.Time) (*models.DailyKPIs, error) {
	return &models.DailyKPIs{Date: day}, nil
}

func newAppointmentTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStaff})
	return c, w
}

func newAppointmentHandlerWithStore(store *appointmentStoreStub) *AppointmentHandler {
	svc := service.NewAppointmentService(store, nil)
	return NewAppointmentHandler(svc, nil)
}

func TestAppointmentHandlerCreate(t *testing.T) {
	store := newAppointmentStoreStub()
	handler := newAppointmentHandlerWithStore(store)

	start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
	c, w := newAppointmentTestContext(t, http.MethodPost, "/appointments", gin.H{
		"hospitalId": "hosp-1",
		"doctorId":   "doc-1",
		"reason":     "annual checkup",
		"startTime":  start.Format(time.RFC3339),
		"endTime":    start.Add(30 * time.Minute).Format(time.RFC3339),
		"patientId":  "pat-1",
	})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.AppointmentScheduled, envelope.Data.Status)
	assert.Equal(t, "user-1", envelope.Data.CreatedBy)
}

func TestAppointmentHandlerCreateReportsAllViolations(t *testing.T) {
	handler := newAppointmentHandlerWithStore(newAppointmentStoreStub())

	c, w := newAppointmentTestContext(t, http.MethodPost, "/appointments", gin.H{})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Fields, "hospitalId")
	assert.Contains(t, envelope.Error.Fields, "doctorId")
	assert.Contains(t, envelope.Error.Fields, "reason")
	assert.Contains(t, envelope.Error.Fields, "startTime")
	assert.Contains(t, envelope.Error.Fields, "endTime")
	assert.Contains(t, envelope.Error.Fields, "patient")
}

func TestAppointmentHandlerUpdateIllegalTransition(t *testing.T) {
	store := newAppointmentStoreStub()
	store.byID["apt-1"] = &models.Appointment{
		ID:     "apt-1",
		Status: models.AppointmentAttended,
		Reason: "annual checkup",
	}
	handler := newAppointmentHandlerWithStore(store)

	c, w := newAppointmentTestContext(t, http.MethodPatch, "/appointments/apt-1", gin.H{
		"status": "cancelled",
	})
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ILLEGAL_TRANSITION")
}

func TestAppointmentHandlerUpdateReasonRejected(t *testing.T) {
	patientID := "pat-1"
	store := newAppointmentStoreStub()
	store.byID["apt-1"] = &models.Appointment{
		ID:        "apt-1",
		Status:    models.AppointmentScheduled,
		Reason:    "annual checkup",
		PatientID: &patientID,
	}
	handler := newAppointmentHandlerWithStore(store)

	c, w := newAppointmentTestContext(t, http.MethodPatch, "/appointments/apt-1", gin.H{
		"reason": "something else",
	})
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "reason")
}

func TestAppointmentHandlerExpirePast(t *testing.T) {
	store := newAppointmentStoreStub()
	store.expired = 4
	handler := newAppointmentHandlerWithStore(store)

	c, w := newAppointmentTestContext(t, http.MethodPost, "/appointments/expire-past", nil)

	handler.ExpirePast(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"expired":4`)
}

func TestAppointmentHandlerGetNotFound(t *testing.T) {
	handler := newAppointmentHandlerWithStore(newAppointmentStoreStub())

	c, w := newAppointmentTestContext(t, http.MethodGet, "/appointments/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAppointmentHandlerListEnvelope(t *testing.T) {
	store := newAppointmentStoreStub()
	for i := 0; i < 2; i++ {
		id := fmt.Sprintf("apt-%d", i)
		store.byID[id] = &models.Appointment{ID: id, Status: models.AppointmentScheduled}
	}
	handler := newAppointmentHandlerWithStore(store)

	c, w := newAppointmentTestContext(t, http.MethodGet, "/appointments", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Items    []models.Appointment `json:"items"`
		Total    int                  `json:"total"`
		Degraded bool                 `json:"degraded"`
		Stale    bool                 `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Items, 2)
	assert.Equal(t, 2, envelope.Total)
	assert.False(t, envelope.Degraded)
	assert.False(t, envelope.Stale)
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevia/carevia-api/internal/models"
	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

type mockAppointmentStore struct {
	byID        map[string]*models.Appointment
	overlap     bool
	overlapErr  error
	created     *models.Appointment
	updated     *models.Appointment
	deletedID   string
	expired     int
	expireCalls int
}

func newMockAppointmentStore() *mockAppointmentStore {
	return &mockAppointmentStore{byID: map[string]*models.Appointment{}}
}

func (m *mockAppointmentStore) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range m.byID {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAppointmentStore) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *mockAppointmentStore) ListForDoctorOnDay(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.byID {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAppointmentStore) ExistsOverlap(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (bool, error) {
	return m.overlap, m.overlapErr
}

func (m *mockAppointmentStore) Create(ctx context.Context, appointment *models.Appointment) error {
	appointment.ID = "apt-new"
	m.created = appointment
	m.byID[appointment.ID] = appointment
	return nil
}

func (m *mockAppointmentStore) Update(ctx context.Context, appointment *models.Appointment) error {
	if _, ok := m.byID[appointment.ID]; !ok {
		return sql.ErrNoRows
	}
	m.updated = appointment
	m.byID[appointment.ID] = appointment
	return nil
}

func (m *mockAppointmentStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	m.deletedID = id
	delete(m.byID, id)
	return nil
}

func (m *mockAppointmentStore) ExpirePast(ctx context.Context, now time.Time, actor string) (int, error) {
	m.expireCalls++
	if m.expireCalls > 1 {
		return 0, nil
	}
	return m.expired, nil
}

func (m *mockAppointmentStore) DailyKPIs(ctx context.Context, day time.Time) (*models.DailyKPIs, error) {
	return &models.DailyKPIs{Date: day, Total: len(m.byID)}, nil
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(store *mockAppointmentStore) *AppointmentService {
	svc := NewAppointmentService(store, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validCreateInput() CreateAppointmentInput {
	return CreateAppointmentInput{
		HospitalID: "hosp-1",
		DoctorID:   "doc-1",
		Reason:     "annual checkup",
		StartTime:  testNow.Add(2 * time.Hour),
		EndTime:    testNow.Add(2*time.Hour + 30*time.Minute),
		PatientID:  "pat-1",
		Actor:      "user-1",
	}
}

func scheduledAppointment() *models.Appointment {
	patientID := "pat-1"
	return &models.Appointment{
		ID:         "apt-1",
		HospitalID: "hosp-1",
		DoctorID:   "doc-1",
		PatientID:  &patientID,
		Reason:     "annual checkup",
		StartTime:  testNow.Add(2 * time.Hour),
		EndTime:    testNow.Add(2*time.Hour + 30*time.Minute),
		Status:     models.AppointmentScheduled,
	}
}

func TestCreateAlwaysStartsScheduled(t *testing.T) {
	store := newMockAppointmentStore()
	svc := newTestService(store)

	appointment, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, appointment.Status)
	assert.Equal(t, "user-1", appointment.CreatedBy)
	require.NotNil(t, appointment.PatientID)
	assert.Equal(t, "pat-1", *appointment.PatientID)
}

func TestCreateRejectsInvalidScheduleWithoutTouchingStore(t *testing.T) {
	store := newMockAppointmentStore()
	svc := newTestService(store)

	input := validCreateInput()
	input.EndTime = input.StartTime.Add(-15 * time.Minute)

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "endTime")
	assert.Nil(t, store.created, "invalid input must never reach the store")
}

func TestCreateStoresTrimmedReason(t *testing.T) {
	store := newMockAppointmentStore()
	svc := newTestService(store)

	input := validCreateInput()
	input.Reason = "  annual checkup  "

	appointment, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "annual checkup", appointment.Reason)
}

func TestCreateRejectsBlankReason(t *testing.T) {
	store := newMockAppointmentStore()
	svc := newTestService(store)

	input := validCreateInput()
	input.Reason = "   "

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "reason")
	assert.Nil(t, store.created, "invalid input must never reach the store")
}

func TestCreateRejectsBookedSlot(t *testing.T) {
	store := newMockAppointmentStore()
	store.overlap = true
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), validCreateInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateWithSnapshotPatient(t *testing.T) {
	store := newMockAppointmentStore()
	svc := newTestService(store)

	birthDate := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	input := validCreateInput()
	input.PatientID = ""
	input.Snapshot = &models.PatientSnapshot{
		PatientFirstName: strPtr("Ana"),
		PatientLastName:  strPtr("Flores"),
		PatientDocument:  strPtr("44556677"),
		PatientPhone:     strPtr("+51 999 111 222"),
		PatientEmail:     strPtr("ana.flores@example.com"),
		PatientBirthDate: &birthDate,
		PatientSex:       strPtr("F"),
	}

	appointment, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, appointment.PatientID)
	require.NotNil(t, appointment.PatientFirstName)
	assert.Equal(t, "Ana", *appointment.PatientFirstName)
	assert.False(t, appointment.Patient().IsExisting())
}

func TestUpdateReasonIsImmutable(t *testing.T) {
	store := newMockAppointmentStore()
	store.byID["apt-1"] = scheduledAppointment()
	svc := newTestService(store)

	newReason := "different reason"
	_, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{Reason: &newReason, Actor: "user-1"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "reason")
	assert.Nil(t, store.updated)
}

func TestUpdateSameReasonAccepted(t *testing.T) {
	store := newMockAppointmentStore()
	store.byID["apt-1"] = scheduledAppointment()
	svc := newTestService(store)

	sameReason := "annual checkup"
	attended := models.AppointmentAttended
	updated, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{
		Reason: &sameReason,
		Status: &attended,
		Actor:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentAttended, updated.Status)
}

func TestUpdateScheduledToCancelled(t *testing.T) {
	store := newMockAppointmentStore()
	store.byID["apt-1"] = scheduledAppointment()
	svc := newTestService(store)

	cancelled := models.AppointmentCancelled
	updated, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{Status: &cancelled, Actor: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, updated.Status)
}

func TestUpdateAttendedRejectsEverything(t *testing.T) {
	store := newMockAppointmentStore()
	appointment := scheduledAppointment()
	appointment.Status = models.AppointmentAttended
	store.byID["apt-1"] = appointment
	svc := newTestService(store)

	newStart := testNow.Add(48 * time.Hour)
	_, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{StartTime: &newStart, Actor: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateCancelledRevivedByReschedule(t *testing.T) {
	store := newMockAppointmentStore()
	appointment := scheduledAppointment()
	appointment.Status = models.AppointmentCancelled
	store.byID["apt-1"] = appointment
	svc := newTestService(store)

	newStart := testNow.Add(48 * time.Hour)
	newEnd := newStart.Add(30 * time.Minute)
	updated, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
		Actor:     "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, updated.Status, "date edit revives a cancelled booking")
	assert.Equal(t, newStart, updated.StartTime)
}

func TestUpdateCancelledWithoutDatesRejected(t *testing.T) {
	store := newMockAppointmentStore()
	appointment := scheduledAppointment()
	appointment.Status = models.AppointmentCancelled
	store.byID["apt-1"] = appointment
	svc := newTestService(store)

	scheduled := models.AppointmentScheduled
	_, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{Status: &scheduled, Actor: "user-1"})
	require.Error(t, err, "a bare status flip back to SCHEDULED is not a transition")
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateCancelledToAttendedRejected(t *testing.T) {
	store := newMockAppointmentStore()
	appointment := scheduledAppointment()
	appointment.Status = models.AppointmentCancelled
	store.byID["apt-1"] = appointment
	svc := newTestService(store)

	newStart := testNow.Add(48 * time.Hour)
	newEnd := newStart.Add(30 * time.Minute)
	attended := models.AppointmentAttended
	_, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
		Status:    &attended,
		Actor:     "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateRescheduleChecksOverlapExcludingSelf(t *testing.T) {
	store := newMockAppointmentStore()
	store.byID["apt-1"] = scheduledAppointment()
	store.overlap = true
	svc := newTestService(store)

	newStart := testNow.Add(48 * time.Hour)
	newEnd := newStart.Add(30 * time.Minute)
	_, err := svc.Update(context.Background(), "apt-1", UpdateAppointmentInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
		Actor:     "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService(newMockAppointmentStore())

	_, err := svc.Update(context.Background(), "missing", UpdateAppointmentInput{Actor: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.KindNotFound, appErrors.FromError(err).Kind)
}

func TestExpirePastReportsCount(t *testing.T) {
	store := newMockAppointmentStore()
	store.expired = 3
	svc := newTestService(store)

	count, err := svc.ExpirePast(context.Background(), "expiry-worker")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = svc.ExpirePast(context.Background(), "expiry-worker")
	require.NoError(t, err)
	assert.Zero(t, count, "an immediate second sweep finds nothing left")
}

func TestDeleteMissingAppointment(t *testing.T) {
	svc := newTestService(newMockAppointmentStore())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.KindNotFound, appErrors.FromError(err).Kind)
}

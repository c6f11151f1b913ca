package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carevia/carevia-api/internal/models"
	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

// AppointmentStore is the persistence surface the appointment service needs.
type AppointmentStore interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	ListForDoctorOnDay(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error)
	ExistsOverlap(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, id string) error
	ExpirePast(ctx context.Context, now time.Time, actor string) (int, error)
	DailyKPIs(ctx context.Context, day time.Time) (*models.DailyKPIs, error)
}

// AppointmentService owns the appointment lifecycle: booking, rescheduling,
// status changes and expiry.
type AppointmentService struct {
	store  AppointmentStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAppointmentService creates an appointment service.
func NewAppointmentService(store AppointmentStore, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{store: store, logger: logger, now: time.Now}
}

// CreateAppointmentInput is the booking payload after transport decoding.
type CreateAppointmentInput struct {
	HospitalID string
	DoctorID   string
	Reason     string
	StartTime  time.Time
	EndTime    time.Time
	PatientID  string
	Snapshot   *models.PatientSnapshot
	Actor      string
}

// UpdateAppointmentInput carries a partial update: nil means "leave as is".
type UpdateAppointmentInput struct {
	StartTime *time.Time
	EndTime   *time.Time
	Status    *models.AppointmentStatus
	Reason    *string
	Actor     string
}

// Create books a new appointment. The status is always SCHEDULED regardless
// of what the caller sent.
func (s *AppointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	now := s.now()

	violations := ValidateSchedule(ScheduleInput{
		HospitalID: input.HospitalID,
		DoctorID:   input.DoctorID,
		Reason:     input.Reason,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		PatientID:  input.PatientID,
		Snapshot:   input.Snapshot,
	}, now)
	if !violations.Empty() {
		return nil, appErrors.Validation(violations)
	}

	booked, err := s.store.ExistsOverlap(ctx, input.DoctorID, input.StartTime, input.EndTime, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check doctor availability")
	}
	if booked {
		return nil, appErrors.ErrSlotConflict
	}

	appointment := &models.Appointment{
		HospitalID: input.HospitalID,
		DoctorID:   input.DoctorID,
		Reason:     strings.TrimSpace(input.Reason),
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Status:     models.AppointmentScheduled,
		CreatedBy:  input.Actor,
		UpdatedBy:  input.Actor,
	}
	if input.PatientID != "" {
		appointment.PatientID = &input.PatientID
	} else if input.Snapshot != nil {
		appointment.PatientSnapshot = *input.Snapshot
	}

	if err := s.store.Create(ctx, appointment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appointment.ID),
		zap.String("doctor_id", appointment.DoctorID),
		zap.Time("start_time", appointment.StartTime))
	return appointment, nil
}

// Update applies a partial update to an appointment, enforcing the lifecycle
// rules:
//
//   - the reason is immutable after booking
//   - a SCHEDULED appointment can be rescheduled or moved to ATTENDED or
//     CANCELLED
//   - a CANCELLED appointment accepts only a date edit, which revives it
//     back to SCHEDULED
//   - an ATTENDED appointment accepts no changes
func (s *AppointmentService) Update(ctx context.Context, id string, input UpdateAppointmentInput) (*models.Appointment, error) {
	appointment, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}

	if input.Reason != nil && strings.TrimSpace(*input.Reason) != appointment.Reason {
		violations := models.FieldViolations{}
		violations.Add("reason", appErrors.ErrReasonImmutable.Message)
		return nil, appErrors.Validation(violations)
	}

	editsDates := input.StartTime != nil || input.EndTime != nil

	targetStatus := appointment.Status
	if input.Status != nil {
		if !input.Status.Valid() {
			violations := models.FieldViolations{}
			violations.Add("status", "unknown appointment status")
			return nil, appErrors.Validation(violations)
		}
		targetStatus = *input.Status
	}

	switch appointment.Status {
	case models.AppointmentScheduled:
		if targetStatus != appointment.Status && !appointment.Status.CanTransitionTo(targetStatus) {
			return nil, appErrors.ErrIllegalTransition
		}
	case models.AppointmentCancelled:
		// The only way back is a reschedule, which revives the booking.
		if !editsDates {
			return nil, appErrors.ErrIllegalTransition
		}
		if targetStatus != models.AppointmentCancelled && targetStatus != models.AppointmentScheduled {
			return nil, appErrors.ErrIllegalTransition
		}
		targetStatus = models.AppointmentScheduled
	default:
		return nil, appErrors.ErrIllegalTransition
	}

	revived := appointment.Status == models.AppointmentCancelled && targetStatus == models.AppointmentScheduled

	start := appointment.StartTime
	end := appointment.EndTime
	if input.StartTime != nil {
		start = *input.StartTime
	}
	if input.EndTime != nil {
		end = *input.EndTime
	}

	if editsDates {
		now := s.now()
		violations := ValidateSchedule(ScheduleInput{
			HospitalID: appointment.HospitalID,
			DoctorID:   appointment.DoctorID,
			Reason:     appointment.Reason,
			StartTime:  start,
			EndTime:    end,
			PatientID:  deref(appointment.PatientID),
			Snapshot:   &appointment.PatientSnapshot,
		}, now)
		if !violations.Empty() {
			return nil, appErrors.Validation(violations)
		}

		if targetStatus == models.AppointmentScheduled {
			booked, err := s.store.ExistsOverlap(ctx, appointment.DoctorID, start, end, appointment.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check doctor availability")
			}
			if booked {
				return nil, appErrors.ErrSlotConflict
			}
		}
	}

	appointment.StartTime = start
	appointment.EndTime = end
	appointment.Status = targetStatus
	appointment.UpdatedBy = input.Actor

	if err := s.store.Update(ctx, appointment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}

	if revived {
		s.logger.Info("cancelled appointment revived by reschedule",
			zap.String("appointment_id", appointment.ID),
			zap.Time("start_time", appointment.StartTime))
	}
	return appointment, nil
}

// Get returns an appointment by ID.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appointment, nil
}

// List returns appointments matching the filter, with the total count.
func (s *AppointmentService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	appointments, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appointments, total, nil
}

// TodayForDoctor returns the doctor's agenda for the current day.
func (s *AppointmentService) TodayForDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	appointments, err := s.store.ListForDoctorOnDay(ctx, doctorID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor agenda")
	}
	return appointments, nil
}

// Delete removes an appointment record entirely.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete appointment")
	}
	return nil
}

// ExpirePast cancels every SCHEDULED appointment whose end time already
// passed and returns the number of rows changed.
func (s *AppointmentService) ExpirePast(ctx context.Context, actor string) (int, error) {
	expired, err := s.store.ExpirePast(ctx, s.now().UTC(), actor)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire appointments")
	}
	if expired > 0 {
		s.logger.Info("expired past appointments", zap.Int("count", expired))
	}
	return expired, nil
}

// DailyKPIs aggregates counts for the given day.
func (s *AppointmentService) DailyKPIs(ctx context.Context, day time.Time) (*models.DailyKPIs, error) {
	kpis, err := s.store.DailyKPIs(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate daily kpis")
	}
	return kpis, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

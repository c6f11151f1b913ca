package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carevia/carevia-api/internal/models"
)

const appointmentColumns = `id, hospital_id, doctor_id, patient_id,
        patient_first_name, patient_last_name, patient_document, patient_phone,
        patient_email, patient_birth_date, patient_sex,
        reason, start_time, end_time, status, created_by, updated_by, created_at, updated_at`

// AppointmentRepository handles persistence of appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns appointments filtered by the provided criteria.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.DoctorID != "" {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", len(args)+1))
		args = append(args, filter.DoctorID)
	}
	if filter.HospitalID != "" {
		conditions = append(conditions, fmt.Sprintf("hospital_id = $%d", len(args)+1))
		args = append(args, filter.HospitalID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(reason ILIKE $%d OR patient_first_name ILIKE $%d OR patient_last_name ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Query+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM appointments%s ORDER BY start_time ASC LIMIT %d OFFSET %d",
		appointmentColumns, clause, size, offset)

	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM appointments" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return appointments, total, nil
}

// FindByID returns an appointment by its ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1", appointmentColumns)
	var appointment models.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// ListForDoctorOnDay returns a doctor's appointments starting within the
// given calendar day.
func (r *AppointmentRepository) ListForDoctorOnDay(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	query := fmt.Sprintf(`SELECT %s FROM appointments
        WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
        ORDER BY start_time ASC`, appointmentColumns)

	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	return appointments, nil
}

// ExistsOverlap checks whether the doctor already has a SCHEDULED
// appointment overlapping the window. Advisory only: the read and the
// subsequent write are not one transaction, so two concurrent bookings for
// the same slot can still race past each other.
func (r *AppointmentRepository) ExistsOverlap(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (bool, error) {
	query := `SELECT 1 FROM appointments
        WHERE doctor_id = $1 AND status = $2 AND start_time < $3 AND end_time > $4`
	args := []interface{}{doctorID, models.AppointmentScheduled, end, start}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check appointment overlap: %w", err)
	}
	return true, nil
}

// Create persists a new appointment record.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now

	const query = `INSERT INTO appointments (id, hospital_id, doctor_id, patient_id,
        patient_first_name, patient_last_name, patient_document, patient_phone,
        patient_email, patient_birth_date, patient_sex,
        reason, start_time, end_time, status, created_by, updated_by, created_at, updated_at)
        VALUES (:id, :hospital_id, :doctor_id, :patient_id,
        :patient_first_name, :patient_last_name, :patient_document, :patient_phone,
        :patient_email, :patient_birth_date, :patient_sex,
        :reason, :start_time, :end_time, :status, :created_by, :updated_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appointment); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an appointment. Identity, reason
// and the patient snapshot never change after creation and are not touched.
func (r *AppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	appointment.UpdatedAt = time.Now().UTC()

	const query = `UPDATE appointments
        SET start_time = :start_time, end_time = :end_time, status = :status,
            updated_by = :updated_by, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, appointment)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the record entirely. Distinct from cancellation, which is
// a status change.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM appointments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExpirePast cancels every SCHEDULED appointment whose window already
// closed, returning how many rows changed. Running it again immediately
// changes nothing: the first pass leaves no SCHEDULED row behind "now".
func (r *AppointmentRepository) ExpirePast(ctx context.Context, now time.Time, actor string) (int, error) {
	const query = `UPDATE appointments
        SET status = $1, updated_by = $2, updated_at = $3
        WHERE status = $4 AND end_time < $3`
	result, err := r.db.ExecContext(ctx, query, models.AppointmentCancelled, actor, now, models.AppointmentScheduled)
	if err != nil {
		return 0, fmt.Errorf("expire past appointments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire past appointments: %w", err)
	}
	return int(affected), nil
}

// DailyKPIs aggregates appointment counts for the given calendar day.
func (r *AppointmentRepository) DailyKPIs(ctx context.Context, day time.Time) (*models.DailyKPIs, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	const query = `SELECT
        COUNT(*) FILTER (WHERE status = 'SCHEDULED') AS scheduled,
        COUNT(*) FILTER (WHERE status = 'ATTENDED') AS attended,
        COUNT(*) FILTER (WHERE status = 'CANCELLED') AS cancelled,
        COUNT(*) AS total
        FROM appointments WHERE start_time >= $1 AND start_time < $2`

	var kpis models.DailyKPIs
	if err := r.db.GetContext(ctx, &kpis, query, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("aggregate daily kpis: %w", err)
	}
	kpis.Date = dayStart
	return &kpis, nil
}

package service

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/carevia/carevia-api/internal/models"
)

// startGraceWindow tolerates clock skew between the browser and the server:
// a start time up to this far in the past still counts as "now or later".
const startGraceWindow = 60 * time.Second

var validate = validator.New()

// ScheduleInput carries the fields the scheduling rules inspect. It is
// deliberately decoupled from the transport request shapes so both create
// and update paths run through the same checks.
type ScheduleInput struct {
	HospitalID string
	DoctorID   string
	Reason     string
	StartTime  time.Time
	EndTime    time.Time
	PatientID  string
	Snapshot   *models.PatientSnapshot
}

// ValidateSchedule checks every scheduling rule against the input and
// collects all violations before returning, so the caller sees the whole
// picture in one round trip. An empty result means the input is bookable.
func ValidateSchedule(input ScheduleInput, now time.Time) models.FieldViolations {
	violations := models.FieldViolations{}

	if input.HospitalID == "" {
		violations.Add("hospitalId", "hospital is required")
	}
	if input.DoctorID == "" {
		violations.Add("doctorId", "doctor is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		violations.Add("reason", "reason is required")
	}

	switch {
	case input.StartTime.IsZero():
		violations.Add("startTime", "start time is required")
	case input.StartTime.Before(now.Add(-startGraceWindow)):
		violations.Add("startTime", "start time must not be in the past")
	}

	switch {
	case input.EndTime.IsZero():
		violations.Add("endTime", "end time is required")
	case input.EndTime.Before(now.Add(-startGraceWindow)):
		violations.Add("endTime", "end time must not be in the past")
	case !input.StartTime.IsZero() && !input.EndTime.After(input.StartTime):
		violations.Add("endTime", "end time must be after start time")
	}

	validatePatient(input, now, violations)

	return violations
}

func validatePatient(input ScheduleInput, now time.Time, violations models.FieldViolations) {
	if input.PatientID != "" {
		if input.Snapshot != nil && !input.Snapshot.Empty() {
			violations.Add("patient", "provide either an existing patient or inline patient data, not both")
		}
		return
	}

	snap := input.Snapshot
	if snap == nil || snap.Empty() {
		violations.Add("patient", "an existing patient or inline patient data is required")
		return
	}

	if snap.PatientFirstName == nil || *snap.PatientFirstName == "" {
		violations.Add("patientFirstName", "patient first name is required")
	}
	if snap.PatientLastName == nil || *snap.PatientLastName == "" {
		violations.Add("patientLastName", "patient last name is required")
	}
	if snap.PatientDocument == nil || *snap.PatientDocument == "" {
		violations.Add("patientDocument", "patient document is required")
	}
	if snap.PatientPhone == nil || *snap.PatientPhone == "" {
		violations.Add("patientPhone", "patient phone is required")
	}
	switch {
	case snap.PatientEmail == nil || *snap.PatientEmail == "":
		violations.Add("patientEmail", "patient email is required")
	default:
		if err := validate.Var(*snap.PatientEmail, "email"); err != nil {
			violations.Add("patientEmail", "patient email is not a valid address")
		}
	}
	switch {
	case snap.PatientBirthDate == nil:
		violations.Add("patientBirthDate", "patient birth date is required")
	case snap.PatientBirthDate.After(now):
		violations.Add("patientBirthDate", "patient birth date must not be in the future")
	}
	if snap.PatientSex == nil || *snap.PatientSex == "" {
		violations.Add("patientSex", "patient sex is required")
	}
}

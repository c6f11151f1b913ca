package models

import "time"

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

// Possible appointment statuses.
const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentAttended  AppointmentStatus = "ATTENDED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// appointmentTransitions is the full transition table. CANCELLED→SCHEDULED
// is listed here because it is a real transition, but the service only
// performs it through the revive-on-reschedule path, never on a direct
// status request.
var appointmentTransitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	AppointmentScheduled: {
		AppointmentAttended:  true,
		AppointmentCancelled: true,
	},
	AppointmentCancelled: {
		AppointmentScheduled: true,
	},
}

// Valid reports whether the status is a known lifecycle state.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentAttended, AppointmentCancelled:
		return true
	}
	return false
}

// CanTransitionTo consults the transition table.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	return appointmentTransitions[s][next]
}

// PatientSnapshot captures a patient's identity inline at booking time when
// no stored patient is referenced. Once captured the fields are immutable:
// they preserve who the appointment was for even if a master record changes
// later.
type PatientSnapshot struct {
	PatientFirstName *string    `db:"patient_first_name" json:"patient_first_name,omitempty"`
	PatientLastName  *string    `db:"patient_last_name" json:"patient_last_name,omitempty"`
	PatientDocument  *string    `db:"patient_document" json:"patient_document,omitempty"`
	PatientPhone     *string    `db:"patient_phone" json:"patient_phone,omitempty"`
	PatientEmail     *string    `db:"patient_email" json:"patient_email,omitempty"`
	PatientBirthDate *time.Time `db:"patient_birth_date" json:"patient_birth_date,omitempty"`
	PatientSex       *string    `db:"patient_sex" json:"patient_sex,omitempty"`
}

// Empty reports whether no snapshot field is set.
func (p PatientSnapshot) Empty() bool {
	return p.PatientFirstName == nil && p.PatientLastName == nil && p.PatientDocument == nil &&
		p.PatientPhone == nil && p.PatientEmail == nil && p.PatientBirthDate == nil && p.PatientSex == nil
}

// PatientRef is the tagged view of an appointment's patient: exactly one of
// ExistingID or Snapshot is set.
type PatientRef struct {
	ExistingID string
	Snapshot   *PatientSnapshot
}

// IsExisting reports whether the appointment references a stored patient.
func (r PatientRef) IsExisting() bool { return r.ExistingID != "" }

// Appointment is a scheduled consultation between a doctor and a patient at
// a hospital.
type Appointment struct {
	ID         string  `db:"id" json:"id"`
	HospitalID string  `db:"hospital_id" json:"hospital_id"`
	DoctorID   string  `db:"doctor_id" json:"doctor_id"`
	PatientID  *string `db:"patient_id" json:"patient_id,omitempty"`
	PatientSnapshot
	Reason    string            `db:"reason" json:"reason"`
	StartTime time.Time         `db:"start_time" json:"start_time"`
	EndTime   time.Time         `db:"end_time" json:"end_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	CreatedBy string            `db:"created_by" json:"created_by"`
	UpdatedBy string            `db:"updated_by" json:"updated_by"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// Patient returns the tagged patient reference for the appointment.
func (a *Appointment) Patient() PatientRef {
	if a.PatientID != nil && *a.PatientID != "" {
		return PatientRef{ExistingID: *a.PatientID}
	}
	snap := a.PatientSnapshot
	return PatientRef{Snapshot: &snap}
}

// AppointmentFilter provides filters for listing appointments.
type AppointmentFilter struct {
	From       *time.Time
	To         *time.Time
	DoctorID   string
	HospitalID string
	Status     AppointmentStatus
	Query      string
	Page       int
	PageSize   int
}

// FieldViolations maps field names to human-readable validation messages.
// An empty set means the payload is valid.
type FieldViolations map[string]string

// Add records a violation for the field unless one is already present, so
// the first (most specific) message wins.
func (v FieldViolations) Add(field, message string) {
	if _, ok := v[field]; !ok {
		v[field] = message
	}
}

// Empty reports whether no violation was recorded.
func (v FieldViolations) Empty() bool { return len(v) == 0 }

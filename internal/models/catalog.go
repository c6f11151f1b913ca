package models

import "time"

// Hospital is a care facility appointments are booked against.
type Hospital struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	City    string `db:"city" json:"city"`
	Address string `db:"address" json:"address"`
	Phone   string `db:"phone" json:"phone"`
	Active  bool   `db:"active" json:"active"`
}

// Specialty is a medical discipline doctors practice.
type Specialty struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Doctor is a practitioner attached to a hospital and specialty.
type Doctor struct {
	ID          string `db:"id" json:"id"`
	FullName    string `db:"full_name" json:"full_name"`
	HospitalID  string `db:"hospital_id" json:"hospital_id"`
	SpecialtyID string `db:"specialty_id" json:"specialty_id"`
	Email       string `db:"email" json:"email"`
	Active      bool   `db:"active" json:"active"`
}

// StaffMember is a non-practitioner hospital employee.
type StaffMember struct {
	ID         string `db:"id" json:"id"`
	FullName   string `db:"full_name" json:"full_name"`
	HospitalID string `db:"hospital_id" json:"hospital_id"`
	Role       string `db:"role" json:"role"`
	Active     bool   `db:"active" json:"active"`
}

// DailyKPIs aggregates appointment counts for dashboard-style reads.
type DailyKPIs struct {
	Date      time.Time `db:"day" json:"date"`
	Scheduled int       `db:"scheduled" json:"scheduled"`
	Attended  int       `db:"attended" json:"attended"`
	Cancelled int       `db:"cancelled" json:"cancelled"`
	Total     int       `db:"total" json:"total"`
}

// ListMeta carries the degradation markers attached to catalog reads.
type ListMeta struct {
	Total    int
	Degraded bool
	Stale    bool
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carevia/carevia-api/internal/models"
)

// CatalogRepository serves the reference data catalog reads are built on:
// hospitals, doctors, specialties and staff.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListHospitals returns active hospitals, optionally filtered by name or city.
func (r *CatalogRepository) ListHospitals(ctx context.Context, query string, page, size int) ([]models.Hospital, int, error) {
	conditions := []string{"active = TRUE"}
	var args []interface{}
	if query != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+query+"%")
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	page, size = normalizePage(page, size)
	listQuery := fmt.Sprintf(
		"SELECT id, name, city, address, phone, active FROM hospitals%s ORDER BY name ASC LIMIT %d OFFSET %d",
		clause, size, (page-1)*size)

	var hospitals []models.Hospital
	if err := r.db.SelectContext(ctx, &hospitals, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list hospitals: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM hospitals"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count hospitals: %w", err)
	}
	return hospitals, total, nil
}

// ListDoctors returns active doctors, optionally filtered by name and hospital.
func (r *CatalogRepository) ListDoctors(ctx context.Context, query, hospitalID string, page, size int) ([]models.Doctor, int, error) {
	conditions := []string{"active = TRUE"}
	var args []interface{}
	if hospitalID != "" {
		conditions = append(conditions, fmt.Sprintf("hospital_id = $%d", len(args)+1))
		args = append(args, hospitalID)
	}
	if query != "" {
		conditions = append(conditions, fmt.Sprintf("full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+query+"%")
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	page, size = normalizePage(page, size)
	listQuery := fmt.Sprintf(
		"SELECT id, full_name, hospital_id, specialty_id, email, active FROM doctors%s ORDER BY full_name ASC LIMIT %d OFFSET %d",
		clause, size, (page-1)*size)

	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM doctors"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}
	return doctors, total, nil
}

// ListSpecialties returns all specialties.
func (r *CatalogRepository) ListSpecialties(ctx context.Context) ([]models.Specialty, int, error) {
	var specialties []models.Specialty
	if err := r.db.SelectContext(ctx, &specialties, "SELECT id, name FROM specialties ORDER BY name ASC"); err != nil {
		return nil, 0, fmt.Errorf("list specialties: %w", err)
	}
	return specialties, len(specialties), nil
}

// ListStaff returns active staff members, optionally scoped to a hospital.
func (r *CatalogRepository) ListStaff(ctx context.Context, hospitalID string, page, size int) ([]models.StaffMember, int, error) {
	conditions := []string{"active = TRUE"}
	var args []interface{}
	if hospitalID != "" {
		conditions = append(conditions, fmt.Sprintf("hospital_id = $%d", len(args)+1))
		args = append(args, hospitalID)
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	page, size = normalizePage(page, size)
	listQuery := fmt.Sprintf(
		"SELECT id, full_name, hospital_id, role, active FROM staff%s ORDER BY full_name ASC LIMIT %d OFFSET %d",
		clause, size, (page-1)*size)

	var staff []models.StaffMember
	if err := r.db.SelectContext(ctx, &staff, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM staff"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

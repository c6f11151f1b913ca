package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/carevia/carevia-api/internal/models"
	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

// CatalogStore is the persistence surface the catalog service needs.
type CatalogStore interface {
	ListHospitals(ctx context.Context, query string, page, size int) ([]models.Hospital, int, error)
	ListDoctors(ctx context.Context, query, hospitalID string, page, size int) ([]models.Doctor, int, error)
	ListSpecialties(ctx context.Context) ([]models.Specialty, int, error)
	ListStaff(ctx context.Context, hospitalID string, page, size int) ([]models.StaffMember, int, error)
}

// CatalogService serves the core reference data reads.
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(store CatalogStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{store: store, logger: logger}
}

// ListHospitals returns active hospitals matching the query.
func (s *CatalogService) ListHospitals(ctx context.Context, query string, page, size int) ([]models.Hospital, int, error) {
	hospitals, total, err := s.store.ListHospitals(ctx, query, page, size)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hospitals")
	}
	return hospitals, total, nil
}

// ListDoctors returns active doctors matching the query and hospital.
func (s *CatalogService) ListDoctors(ctx context.Context, query, hospitalID string, page, size int) ([]models.Doctor, int, error) {
	doctors, total, err := s.store.ListDoctors(ctx, query, hospitalID, page, size)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list doctors")
	}
	return doctors, total, nil
}

// ListSpecialties returns all specialties.
func (s *CatalogService) ListSpecialties(ctx context.Context) ([]models.Specialty, int, error) {
	specialties, total, err := s.store.ListSpecialties(ctx)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specialties")
	}
	return specialties, total, nil
}

// ListStaff returns active staff members for a hospital.
func (s *CatalogService) ListStaff(ctx context.Context, hospitalID string, page, size int) ([]models.StaffMember, int, error) {
	staff, total, err := s.store.ListStaff(ctx, hospitalID, page, size)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	return staff, total, nil
}

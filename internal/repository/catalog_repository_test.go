package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogRepoMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewCatalogRepository(sqlxDB), mock
}

func TestCatalogRepositoryListHospitalsWithQuery(t *testing.T) {
	repo, mock := newCatalogRepoMock(t)

	rows := sqlmock.NewRows([]string{"id", "name", "city", "address", "phone", "active"}).
		AddRow("hosp-1", "Hospital Central", "Lima", "Av. Grau 123", "511-0001", true)

	mock.ExpectQuery(`SELECT id, name, city, address, phone, active FROM hospitals WHERE active = TRUE AND \(name ILIKE \$1 OR city ILIKE \$1\) ORDER BY name ASC`).
		WithArgs("%central%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM hospitals WHERE active = TRUE`).
		WithArgs("%central%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	hospitals, total, err := repo.ListHospitals(context.Background(), "central", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hospitals, 1)
	assert.Equal(t, "Hospital Central", hospitals[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListDoctorsByHospital(t *testing.T) {
	repo, mock := newCatalogRepoMock(t)

	rows := sqlmock.NewRows([]string{"id", "full_name", "hospital_id", "specialty_id", "email", "active"}).
		AddRow("doc-1", "Dr. Ana Flores", "hosp-1", "spec-1", "ana@carevia.example", true)

	mock.ExpectQuery(`SELECT id, full_name, hospital_id, specialty_id, email, active FROM doctors WHERE active = TRUE AND hospital_id = \$1 ORDER BY full_name ASC`).
		WithArgs("hosp-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM doctors WHERE active = TRUE AND hospital_id = \$1`).
		WithArgs("hosp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	doctors, total, err := repo.ListDoctors(context.Background(), "", "hosp-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Ana Flores", doctors[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListSpecialties(t *testing.T) {
	repo, mock := newCatalogRepoMock(t)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow("spec-1", "Cardiology").
		AddRow("spec-2", "Dermatology")

	mock.ExpectQuery(`SELECT id, name FROM specialties ORDER BY name ASC`).
		WillReturnRows(rows)

	specialties, total, err := repo.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, specialties, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = normalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)
}

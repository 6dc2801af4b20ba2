package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
)

func testRepo(t *testing.T) (*AppointmentGormRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return NewAppointmentGormRepository(db), mock
}

// The overlap check must lock the doctor row, never the aggregate:
// Postgres rejects SELECT count(*) ... FOR UPDATE outright.
func TestAssertNoTimeConflictLocksDoctorRow(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectQuery(`SELECT "id" FROM "users" WHERE .* FOR UPDATE$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "appointments" WHERE doctor_id = \$1 AND status IN \('pending', 'confirmed'\) AND start_time < \$2 AND end_time > \$3$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	start := time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC)
	err := repo.AssertNoTimeConflict(context.Background(), 1, start, start.Add(30*time.Minute), 0)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssertNoTimeConflictReportsOverlap(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectQuery(`SELECT "id" FROM "users" WHERE .* FOR UPDATE$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "appointments" WHERE \(doctor_id = \$1 AND status IN \('pending', 'confirmed'\) AND start_time < \$2 AND end_time > \$3\) AND id <> \$4$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	start := time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC)
	err := repo.AssertNoTimeConflict(context.Background(), 1, start, start.Add(30*time.Minute), 10)

	require.Error(t, err)
	assert.Equal(t, "time_conflict", httperr.BusinessCode(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionCommits(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	ap := &models.Appointment{
		Reference: "ref-1",
		DoctorID:  1,
		PatientID: 2,
		Status:    "pending",
		Version:   1,
	}

	err := repo.WithinTransaction(context.Background(), func(r domain.Repository) error {
		return r.CreateAppointment(context.Background(), ap)
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithinTransaction(context.Background(), func(domain.Repository) error {
		return httperr.ErrBusiness("time_conflict")
	})

	require.Error(t, err)
	assert.Equal(t, "time_conflict", httperr.BusinessCode(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

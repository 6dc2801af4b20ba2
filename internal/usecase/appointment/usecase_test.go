package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
)

// ======================================================
// FAKES
// ======================================================

type noopAuditSink struct{}

func (noopAuditSink) Log(*uint, string, string, *uint, any) error { return nil }

func testDispatcher() *audit.Dispatcher {
	return audit.NewDispatcher(noopAuditSink{})
}

// fakeRepo satisfies domain.Repository with in-memory state so the use
// cases can run without Postgres.
type fakeRepo struct {
	doctor      *models.User
	user        *models.User
	appointment *models.Appointment

	withinHours  bool
	conflictErr  error
	workingHours *models.WorkingHours
	dayBookings  []models.Appointment

	created *models.Appointment
	updated *models.Appointment

	txnDepth      int
	conflictInTxn bool
	createdInTxn  bool
	updatedInTxn  bool
}

func (f *fakeRepo) WithinTransaction(ctx context.Context, fn func(domain.Repository) error) error {
	f.txnDepth++
	defer func() { f.txnDepth-- }()
	return fn(f)
}

func (f *fakeRepo) GetDoctorByID(_ context.Context, id uint) (*models.User, error) {
	if f.doctor == nil || f.doctor.ID != id {
		return nil, httperr.ErrBusiness("doctor_not_found")
	}
	return f.doctor, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	if f.doctor != nil && f.doctor.ID == id {
		return f.doctor, nil
	}
	return nil, httperr.ErrBusiness("user_not_found")
}

func (f *fakeRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	ap.ID = 42
	f.created = ap
	f.createdInTxn = f.txnDepth > 0
	return nil
}

func (f *fakeRepo) AssertNoTimeConflict(_ context.Context, _ uint, _, _ time.Time, _ uint) error {
	f.conflictInTxn = f.txnDepth > 0
	return f.conflictErr
}

func (f *fakeRepo) GetAppointmentForDoctor(_ context.Context, appointmentID, doctorID uint) (*models.Appointment, error) {
	if f.appointment == nil || f.appointment.ID != appointmentID || f.appointment.DoctorID != doctorID {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	return f.appointment, nil
}

func (f *fakeRepo) GetAppointmentForParticipant(_ context.Context, appointmentID, userID uint) (*models.Appointment, error) {
	if f.appointment == nil || f.appointment.ID != appointmentID {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	if f.appointment.DoctorID != userID && f.appointment.PatientID != userID {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	return f.appointment, nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	f.updated = ap
	f.updatedInTxn = f.txnDepth > 0
	return nil
}

func (f *fakeRepo) GetWorkingHours(_ context.Context, _ uint, _ int) (*models.WorkingHours, error) {
	if f.workingHours != nil {
		return f.workingHours, nil
	}
	return &models.WorkingHours{Active: true, StartTime: "09:00", EndTime: "17:00"}, nil
}

func (f *fakeRepo) IsWithinWorkingHours(_ context.Context, _ uint, _, _ time.Time) (bool, error) {
	return f.withinHours, nil
}

func (f *fakeRepo) ListAppointmentsForDay(_ context.Context, _ uint, _, _ time.Time) ([]models.Appointment, error) {
	return f.dayBookings, nil
}

func (f *fakeRepo) ListAppointmentsForPeriod(_ context.Context, _ uint, _, _ time.Time) ([]models.Appointment, error) {
	return nil, nil
}

func (f *fakeRepo) ListAppointmentsForPatient(_ context.Context, _ uint) ([]models.Appointment, error) {
	return nil, nil
}

var _ domain.Repository = (*fakeRepo)(nil)

// ======================================================
// FIXTURES
// ======================================================

func testDoctor() *models.User {
	return &models.User{
		ID:          1,
		Role:        models.RoleDoctor,
		Timezone:    "UTC",
		SlotMinutes: 30,
	}
}

func confirmedAppointment() *models.Appointment {
	return &models.Appointment{
		ID:        10,
		DoctorID:  1,
		PatientID: 2,
		Status:    string(domain.StatusConfirmed),
		StartTime: time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2027, 6, 1, 10, 30, 0, 0, time.UTC),
		Version:   2,
	}
}

// ======================================================
// BOOK
// ======================================================

func TestBookAppointment(t *testing.T) {
	repo := &fakeRepo{doctor: testDoctor(), withinHours: true}
	uc := NewBookAppointment(repo, testDispatcher())

	ap, err := uc.Execute(context.Background(), BookAppointmentInput{
		PatientID: 2,
		DoctorID:  1,
		Date:      "2027-06-01",
		Time:      "10:00",
		Reason:    "checkup",
	})

	require.NoError(t, err)
	require.NotNil(t, repo.created)

	assert.Equal(t, string(domain.StatusPending), ap.Status)
	assert.Equal(t, 1, ap.Version)
	assert.NotEmpty(t, ap.Reference)
	assert.Equal(t, 30*time.Minute, ap.EndTime.Sub(ap.StartTime))

	// Conflict check and insert must share one transaction.
	assert.True(t, repo.conflictInTxn)
	assert.True(t, repo.createdInTxn)
}

func TestBookAppointmentUnknownDoctor(t *testing.T) {
	repo := &fakeRepo{withinHours: true}
	uc := NewBookAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), BookAppointmentInput{
		PatientID: 2,
		DoctorID:  99,
		Date:      "2027-06-01",
		Time:      "10:00",
		Reason:    "checkup",
	})

	require.Error(t, err)
	assert.Equal(t, "doctor_not_found", httperr.BusinessCode(err))
}

func TestBookAppointmentTooSoon(t *testing.T) {
	repo := &fakeRepo{doctor: testDoctor(), withinHours: true}
	uc := NewBookAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), BookAppointmentInput{
		PatientID: 2,
		DoctorID:  1,
		Date:      "2020-01-01",
		Time:      "10:00",
		Reason:    "checkup",
	})

	require.Error(t, err)
	assert.Equal(t, "too_soon", httperr.BusinessCode(err))
}

func TestBookAppointmentOutsideWorkingHours(t *testing.T) {
	repo := &fakeRepo{doctor: testDoctor(), withinHours: false}
	uc := NewBookAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), BookAppointmentInput{
		PatientID: 2,
		DoctorID:  1,
		Date:      "2027-06-01",
		Time:      "10:00",
		Reason:    "checkup",
	})

	require.Error(t, err)
	assert.Equal(t, "outside_working_hours", httperr.BusinessCode(err))
}

func TestBookAppointmentSlotTaken(t *testing.T) {
	repo := &fakeRepo{
		doctor:      testDoctor(),
		withinHours: true,
		conflictErr: httperr.ErrBusiness("time_conflict"),
	}
	uc := NewBookAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), BookAppointmentInput{
		PatientID: 2,
		DoctorID:  1,
		Date:      "2027-06-01",
		Time:      "10:00",
		Reason:    "checkup",
	})

	require.Error(t, err)
	assert.Equal(t, "time_conflict", httperr.BusinessCode(err))
	assert.Nil(t, repo.created)
}

// ======================================================
// RESCHEDULE
// ======================================================

func TestRescheduleKeepsStatusAndDuration(t *testing.T) {
	repo := &fakeRepo{
		doctor:      testDoctor(),
		appointment: confirmedAppointment(),
		withinHours: true,
	}
	uc := NewRescheduleAppointment(repo, testDispatcher())

	ap, err := uc.Execute(context.Background(), RescheduleAppointmentInput{
		DoctorID:      1,
		AppointmentID: 10,
		Date:          "2027-06-03",
		Time:          "15:00",
	})

	require.NoError(t, err)
	require.NotNil(t, repo.updated)

	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.Equal(t, 30*time.Minute, ap.EndTime.Sub(ap.StartTime))
	assert.Equal(t, time.Date(2027, 6, 3, 15, 0, 0, 0, time.UTC), ap.StartTime)
	assert.Equal(t, 3, ap.Version)

	// Conflict check and slot move must share one transaction.
	assert.True(t, repo.conflictInTxn)
	assert.True(t, repo.updatedInTxn)
}

func TestRescheduleStaleVersion(t *testing.T) {
	original := confirmedAppointment()
	repo := &fakeRepo{
		doctor:      testDoctor(),
		appointment: original,
		withinHours: true,
	}
	uc := NewRescheduleAppointment(repo, testDispatcher())

	stale := 1
	_, err := uc.Execute(context.Background(), RescheduleAppointmentInput{
		DoctorID:        1,
		AppointmentID:   10,
		Date:            "2027-06-03",
		Time:            "15:00",
		ExpectedVersion: &stale,
	})

	require.Error(t, err)
	assert.Equal(t, "stale_version", httperr.BusinessCode(err))
	assert.Nil(t, repo.updated)
	assert.Equal(t, time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC), original.StartTime)
}

func TestRescheduleConflictLeavesSlotUntouched(t *testing.T) {
	original := confirmedAppointment()
	repo := &fakeRepo{
		doctor:      testDoctor(),
		appointment: original,
		withinHours: true,
		conflictErr: httperr.ErrBusiness("time_conflict"),
	}
	uc := NewRescheduleAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), RescheduleAppointmentInput{
		DoctorID:      1,
		AppointmentID: 10,
		Date:          "2027-06-03",
		Time:          "15:00",
	})

	require.Error(t, err)
	assert.Equal(t, "time_conflict", httperr.BusinessCode(err))
	assert.Equal(t, time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC), original.StartTime)
	assert.Equal(t, 2, original.Version)
}

func TestRescheduleCompletedIsRejected(t *testing.T) {
	ap := confirmedAppointment()
	ap.Status = string(domain.StatusCompleted)

	repo := &fakeRepo{
		doctor:      testDoctor(),
		appointment: ap,
		withinHours: true,
	}
	uc := NewRescheduleAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), RescheduleAppointmentInput{
		DoctorID:      1,
		AppointmentID: 10,
		Date:          "2027-06-03",
		Time:          "15:00",
	})

	require.Error(t, err)
	assert.Equal(t, "invalid_state", httperr.BusinessCode(err))
}

// ======================================================
// CANCEL / COMPLETE
// ======================================================

func TestCancelByPatient(t *testing.T) {
	repo := &fakeRepo{
		doctor:      testDoctor(),
		user:        &models.User{ID: 2, Role: models.RolePatient, Timezone: "UTC"},
		appointment: confirmedAppointment(),
	}
	uc := NewCancelAppointment(repo, testDispatcher())

	ap, err := uc.Execute(context.Background(), 2, 10, nil)

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), ap.Status)
	assert.NotNil(t, ap.CancelledAt)
	assert.Equal(t, 3, ap.Version)
}

func TestCancelByOutsiderIsNotFound(t *testing.T) {
	repo := &fakeRepo{
		doctor:      testDoctor(),
		user:        &models.User{ID: 7, Role: models.RolePatient, Timezone: "UTC"},
		appointment: confirmedAppointment(),
	}
	uc := NewCancelAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), 7, 10, nil)

	require.Error(t, err)
	assert.Equal(t, "appointment_not_found", httperr.BusinessCode(err))
}

func TestCompleteConfirmedAppointment(t *testing.T) {
	repo := &fakeRepo{
		doctor:      testDoctor(),
		appointment: confirmedAppointment(),
	}
	uc := NewCompleteAppointment(repo, testDispatcher())

	ap, err := uc.Execute(context.Background(), 1, 10, nil)

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), ap.Status)
	assert.NotNil(t, ap.CompletedAt)
}

func TestCompletePendingIsRejected(t *testing.T) {
	ap := confirmedAppointment()
	ap.Status = string(domain.StatusPending)

	repo := &fakeRepo{doctor: testDoctor(), appointment: ap}
	uc := NewCompleteAppointment(repo, testDispatcher())

	_, err := uc.Execute(context.Background(), 1, 10, nil)

	require.Error(t, err)
	assert.Equal(t, "invalid_state", httperr.BusinessCode(err))
	assert.Nil(t, repo.updated)
}

// ======================================================
// AVAILABILITY
// ======================================================

func TestGetAvailabilityFillsTheDay(t *testing.T) {
	repo := &fakeRepo{doctor: testDoctor()}
	uc := NewGetAvailability(repo)

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		DoctorID: 1,
		Date:     time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	// 09:00 to 17:00 in 30 minute slots.
	assert.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "16:30", slots[len(slots)-1].Start)
}

func TestGetAvailabilitySkipsLunchAndBookings(t *testing.T) {
	repo := &fakeRepo{
		doctor: testDoctor(),
		workingHours: &models.WorkingHours{
			Active:     true,
			StartTime:  "09:00",
			EndTime:    "12:00",
			LunchStart: "10:00",
			LunchEnd:   "10:30",
		},
		dayBookings: []models.Appointment{{
			StartTime: time.Date(2027, 6, 1, 11, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2027, 6, 1, 11, 30, 0, 0, time.UTC),
		}},
	}
	uc := NewGetAvailability(repo)

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		DoctorID: 1,
		Date:     time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)

	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:30"}, starts)
}

func TestGetAvailabilityInactiveDayIsEmpty(t *testing.T) {
	repo := &fakeRepo{
		doctor:       testDoctor(),
		workingHours: &models.WorkingHours{Active: false},
	}
	uc := NewGetAvailability(repo)

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		DoctorID: 1,
		Date:     time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Empty(t, slots)
}

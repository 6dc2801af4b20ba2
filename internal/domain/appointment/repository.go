package appointment

import (
	"context"
	"time"

	"github.com/pillarhealth/clinic-api/internal/models"
)

type Repository interface {
	// -------- Transactions --------

	// WithinTransaction runs fn against a transactional copy of the
	// repository; fn returning an error rolls everything back.
	WithinTransaction(
		ctx context.Context,
		fn func(Repository) error,
	) error

	// -------- Users --------
	GetDoctorByID(
		ctx context.Context,
		id uint,
	) (*models.User, error)

	GetUserByID(
		ctx context.Context,
		id uint,
	) (*models.User, error)

	// -------- Appointment (create / conflict) --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	AssertNoTimeConflict(
		ctx context.Context,
		doctorID uint,
		start time.Time,
		end time.Time,
		excludeID uint,
	) error

	// -------- Appointment (state change) --------
	GetAppointmentForDoctor(
		ctx context.Context,
		appointmentID uint,
		doctorID uint,
	) (*models.Appointment, error)

	GetAppointmentForParticipant(
		ctx context.Context,
		appointmentID uint,
		userID uint,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Availability --------
	GetWorkingHours(
		ctx context.Context,
		doctorID uint,
		weekday int,
	) (*models.WorkingHours, error)

	IsWithinWorkingHours(
		ctx context.Context,
		doctorID uint,
		start time.Time,
		end time.Time,
	) (bool, error)

	ListAppointmentsForDay(
		ctx context.Context,
		doctorID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	ListAppointmentsForPeriod(
		ctx context.Context,
		doctorID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	ListAppointmentsForPatient(
		ctx context.Context,
		patientID uint,
	) ([]models.Appointment, error)
}

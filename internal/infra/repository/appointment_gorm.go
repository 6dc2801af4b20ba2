package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Transactions
// --------------------------------------------------

func (r *AppointmentGormRepository) WithinTransaction(
	ctx context.Context,
	fn func(domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx})
	})
}

// --------------------------------------------------
// Users
// --------------------------------------------------

func (r *AppointmentGormRepository) GetDoctorByID(
	ctx context.Context,
	id uint,
) (*models.User, error) {

	var doctor models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND role = ?", id, models.RoleDoctor).
		First(&doctor).Error; err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *AppointmentGormRepository) GetUserByID(
	ctx context.Context,
	id uint,
) (*models.User, error) {

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Create(ap).Error
}

// AssertNoTimeConflict serializes slot writes per doctor: it locks the
// doctor row, then counts overlapping live appointments. Postgres does
// not allow FOR UPDATE on an aggregate, and locking only existing
// appointment rows would still let two inserts race past each other,
// so the doctor row is the lock. Callers run this inside
// WithinTransaction together with the insert or update; excludeID lets
// a reschedule ignore the appointment being moved.
func (r *AppointmentGormRepository) AssertNoTimeConflict(
	ctx context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
	excludeID uint,
) error {

	var doctor models.User
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&doctor, doctorID).Error; err != nil {
		return err
	}

	var count int64
	q := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"doctor_id = ? AND status IN ('pending', 'confirmed') AND start_time < ? AND end_time > ?",
			doctorID,
			end,
			start,
		)

	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	if err := q.Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return httperr.ErrBusiness("time_conflict")
	}

	return nil
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointmentForDoctor(
	ctx context.Context,
	appointmentID uint,
	doctorID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND doctor_id = ?", appointmentID, doctorID).
		First(&ap).Error; err != nil {
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) GetAppointmentForParticipant(
	ctx context.Context,
	appointmentID uint,
	userID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND (doctor_id = ? OR patient_id = ?)", appointmentID, userID, userID).
		First(&ap).Error; err != nil {
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Save(ap).Error
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *AppointmentGormRepository) GetWorkingHours(
	ctx context.Context,
	doctorID uint,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND weekday = ?", doctorID, weekday).
		First(&wh).Error; err != nil {
		return nil, err
	}

	return &wh, nil
}

func (r *AppointmentGormRepository) IsWithinWorkingHours(
	ctx context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) (bool, error) {

	weekday := int(start.Weekday())
	loc := start.Location()

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND weekday = ?", doctorID, weekday).
		First(&wh).Error; err != nil {
		return false, nil
	}

	if !wh.Active || wh.StartTime == "" || wh.EndTime == "" {
		return false, nil
	}

	parseHM := func(hm string) time.Time {
		t, _ := time.Parse("15:04", hm)
		return time.Date(
			start.Year(), start.Month(), start.Day(),
			t.Hour(), t.Minute(), 0, 0,
			loc,
		)
	}

	workStart := parseHM(wh.StartTime)
	workEnd := parseHM(wh.EndTime)

	if start.Before(workStart) || end.After(workEnd) {
		return false, nil
	}

	if wh.LunchStart != "" && wh.LunchEnd != "" {
		lunchStart := parseHM(wh.LunchStart)
		lunchEnd := parseHM(wh.LunchEnd)
		if start.Before(lunchEnd) && end.After(lunchStart) {
			return false, nil
		}
	}

	return true, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForDay(
	ctx context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var aps []models.Appointment
	if err := r.db.WithContext(ctx).
		Select("start_time", "end_time").
		Where(
			"doctor_id = ? AND status IN ('pending', 'confirmed') AND start_time >= ? AND start_time < ?",
			doctorID, start, end,
		).
		Order("start_time ASC").
		Find(&aps).Error; err != nil {
		return nil, err
	}

	return aps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var aps []models.Appointment

	err := r.db.WithContext(ctx).
		Preload("Patient").
		Where(
			"doctor_id = ? AND start_time >= ? AND start_time < ?",
			doctorID,
			start,
			end,
		).
		Order("start_time ASC").
		Find(&aps).Error

	if err != nil {
		return nil, err
	}

	return aps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPatient(
	ctx context.Context,
	patientID uint,
) ([]models.Appointment, error) {

	var aps []models.Appointment

	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("start_time DESC").
		Find(&aps).Error

	if err != nil {
		return nil, err
	}

	return aps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)

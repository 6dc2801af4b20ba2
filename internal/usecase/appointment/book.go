package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type BookAppointmentInput struct {
	PatientID uint
	DoctorID  uint

	Date   string
	Time   string
	Reason string
	Notes  string
}

// ======================================================
// USE CASE
// ======================================================

type BookAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewBookAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *BookAppointment {
	return &BookAppointment{
		repo:  repo,
		audit: audit,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *BookAppointment) Execute(
	ctx context.Context,
	in BookAppointmentInput,
) (*models.Appointment, error) {

	doctor, err := uc.repo.GetDoctorByID(ctx, in.DoctorID)
	if err != nil {
		return nil, httperr.ErrBusiness("doctor_not_found")
	}

	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		timezone.Location(doctor.Timezone),
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	minAdvance := doctor.MinAdvanceMinutes
	if minAdvance <= 0 {
		minAdvance = 60
	}

	now := timezone.NowIn(doctor.Timezone)
	if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
		return nil, httperr.ErrBusiness("too_soon")
	}

	slotMinutes := doctor.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	end := start.Add(time.Duration(slotMinutes) * time.Minute)

	ok, err := uc.repo.IsWithinWorkingHours(ctx, in.DoctorID, start, end)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httperr.ErrBusiness("outside_working_hours")
	}

	ap := &models.Appointment{
		Reference: uuid.NewString(),
		DoctorID:  in.DoctorID,
		PatientID: in.PatientID,
		StartTime: start,
		EndTime:   end,
		Status:    string(domain.InitialStatus()),
		Reason:    in.Reason,
		Notes:     in.Notes,
		Version:   1,
	}

	// Conflict check and insert must commit atomically; the check locks
	// the doctor row, so a concurrent booking waits here.
	err = uc.repo.WithinTransaction(ctx, func(r domain.Repository) error {
		if err := r.AssertNoTimeConflict(ctx, in.DoctorID, start, end, 0); err != nil {
			return err
		}
		return r.CreateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &in.PatientID,
		Action:   "appointment_booked",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}

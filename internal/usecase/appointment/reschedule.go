package appointment

import (
	"context"
	"time"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type RescheduleAppointmentInput struct {
	DoctorID      uint
	AppointmentID uint

	Date string
	Time string

	// Version the caller last saw. When set, a concurrent edit turns
	// the reschedule into a stale_version conflict instead of a
	// silent last-write-wins.
	ExpectedVersion *int
}

// ======================================================
// USE CASE
// ======================================================

// RescheduleAppointment moves a pending or confirmed appointment to a
// new slot. Validation failures leave the stored date/time untouched;
// the duration of the slot is preserved and the status is not changed.
type RescheduleAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewRescheduleAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *RescheduleAppointment {
	return &RescheduleAppointment{
		repo:  repo,
		audit: audit,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleAppointmentInput,
) (*models.Appointment, error) {

	doctor, err := uc.repo.GetDoctorByID(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointmentForDoctor(ctx, in.AppointmentID, in.DoctorID)
	if err != nil {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}

	if err := domain.CheckVersion(ap, in.ExpectedVersion); err != nil {
		return nil, err
	}

	if err := domain.CanReschedule(domain.Status(ap.Status)); err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		timezone.Location(doctor.Timezone),
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	end := start.Add(ap.EndTime.Sub(ap.StartTime))

	ok, err := uc.repo.IsWithinWorkingHours(ctx, in.DoctorID, start, end)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httperr.ErrBusiness("outside_working_hours")
	}

	oldStart := ap.StartTime

	// Conflict check and slot move commit atomically under the doctor
	// row lock, same as booking.
	err = uc.repo.WithinTransaction(ctx, func(r domain.Repository) error {
		if err := r.AssertNoTimeConflict(ctx, in.DoctorID, start, end, ap.ID); err != nil {
			return err
		}
		if err := domain.Reschedule(ap, start, end); err != nil {
			return err
		}
		return r.UpdateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &in.DoctorID,
		Action:   "appointment_rescheduled",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"from": oldStart,
			"to":   start,
		},
	})

	return ap, nil
}

package appointment

import (
	"context"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

type ConfirmAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewConfirmAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *ConfirmAppointment {
	return &ConfirmAppointment{
		repo:  repo,
		audit: audit,
	}
}

func (uc *ConfirmAppointment) Execute(
	ctx context.Context,
	doctorID uint,
	appointmentID uint,
	expectedVersion *int,
) (*models.Appointment, error) {

	doctor, err := uc.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointmentForDoctor(ctx, appointmentID, doctorID)
	if err != nil {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}

	if err := domain.CheckVersion(ap, expectedVersion); err != nil {
		return nil, err
	}

	now := timezone.NowIn(doctor.Timezone)
	if err := domain.Confirm(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "appointment_confirmed",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}

package appointment

import (
	"context"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

// CompleteAppointment marks a consultation as done. Whether the doctor
// goes on to write a prescription is a separate step; completion never
// waits on it.
type CompleteAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:  repo,
		audit: audit,
	}
}

func (uc *CompleteAppointment) Execute(
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
	if err := domain.Complete(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}

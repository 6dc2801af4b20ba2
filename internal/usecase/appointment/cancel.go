package appointment

import (
	"context"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

// CancelAppointment is the only cancellation path: a soft status
// transition that keeps the record. Either participant may cancel
// while the appointment is still pending or confirmed.
type CancelAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCancelAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CancelAppointment {
	return &CancelAppointment{
		repo:  repo,
		audit: audit,
	}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	userID uint,
	appointmentID uint,
	expectedVersion *int,
) (*models.Appointment, error) {

	user, err := uc.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointmentForParticipant(ctx, appointmentID, userID)
	if err != nil {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}

	if err := domain.CheckVersion(ap, expectedVersion); err != nil {
		return nil, err
	}

	now := timezone.NowIn(user.Timezone)
	if err := domain.Cancel(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &userID,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}

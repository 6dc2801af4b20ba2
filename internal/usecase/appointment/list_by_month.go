package appointment

import (
	"context"
	"time"

	"github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/dto"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

type ListAppointmentsByMonth struct {
	repo appointment.Repository
}

func NewListAppointmentsByMonth(
	repo appointment.Repository,
) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{
		repo: repo,
	}
}

func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	doctorID uint,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	doctor, err := uc.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(doctor.Timezone)

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	appointments, err := uc.repo.ListAppointmentsForPeriod(
		ctx,
		doctorID,
		start,
		end,
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		out = append(out, dto.AppointmentListDTO{
			ID:          ap.ID,
			Reference:   ap.Reference,
			StartTime:   ap.StartTime,
			EndTime:     ap.EndTime,
			Status:      ap.Status,
			Version:     ap.Version,
			Reason:      ap.Reason,
			PatientName: ap.Patient.Name,
		})
	}

	return out, nil
}

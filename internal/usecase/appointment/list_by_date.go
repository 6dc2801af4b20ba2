package appointment

import (
	"context"
	"time"

	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/dto"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

type ListAppointmentsByDate struct {
	repo domain.Repository
}

func NewListAppointmentsByDate(
	repo domain.Repository,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo: repo,
	}
}

func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	doctorID uint,
	date time.Time,
) ([]dto.AppointmentListDTO, error) {

	doctor, err := uc.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(doctor.Timezone)

	start := time.Date(
		date.Year(),
		date.Month(),
		date.Day(),
		0, 0, 0, 0,
		loc,
	)
	end := start.Add(24 * time.Hour)

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

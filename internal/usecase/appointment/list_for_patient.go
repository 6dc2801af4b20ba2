package appointment

import (
	"context"

	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/dto"
)

type ListAppointmentsForPatient struct {
	repo domain.Repository
}

func NewListAppointmentsForPatient(
	repo domain.Repository,
) *ListAppointmentsForPatient {
	return &ListAppointmentsForPatient{
		repo: repo,
	}
}

func (uc *ListAppointmentsForPatient) Execute(
	ctx context.Context,
	patientID uint,
) ([]dto.AppointmentListDTO, error) {

	appointments, err := uc.repo.ListAppointmentsForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		out = append(out, dto.AppointmentListDTO{
			ID:         ap.ID,
			Reference:  ap.Reference,
			StartTime:  ap.StartTime,
			EndTime:    ap.EndTime,
			Status:     ap.Status,
			Version:    ap.Version,
			Reason:     ap.Reason,
			DoctorName: ap.Doctor.Name,
			Specialty:  ap.Doctor.Specialty,
		})
	}

	return out, nil
}

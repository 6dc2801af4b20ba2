package dto

import "time"

type AppointmentListDTO struct {
	ID          uint      `json:"id"`
	Reference   string    `json:"reference"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	Version     int       `json:"version"`
	Reason      string    `json:"reason"`
	PatientName string    `json:"patient_name,omitempty"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	Specialty   string    `json:"specialty,omitempty"`
}

package models

import "time"

type Prescription struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Reference string `gorm:"size:36;uniqueIndex" json:"reference"`

	DoctorID uint `gorm:"index" json:"doctor_id"`
	Doctor   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"doctor"`

	PatientID uint `gorm:"index" json:"patient_id"`
	Patient   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"patient"`

	// Optional link back to the consultation this was issued for.
	AppointmentID *uint        `gorm:"index" json:"appointment_id"`
	Appointment   *Appointment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"appointment,omitempty"`

	Medicines []Medicine `gorm:"constraint:OnDelete:CASCADE;" json:"medicines"`

	Notes string `gorm:"size:1000" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Medicine struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	PrescriptionID uint `gorm:"index" json:"prescription_id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Dosage       string `gorm:"size:100;not null" json:"dosage"`
	Duration     string `gorm:"size:100;not null" json:"duration"`
	Instructions string `gorm:"size:255" json:"instructions"`
}

package models

import "time"

type Diagnosis struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PatientID uint `gorm:"index" json:"patient_id"`
	Patient   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	DoctorID uint `gorm:"index" json:"doctor_id"`
	Doctor   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	AppointmentID *uint `gorm:"index" json:"appointment_id"`

	Code        string    `gorm:"size:20" json:"code"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1000" json:"description"`
	DiagnosedAt time.Time `json:"diagnosed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

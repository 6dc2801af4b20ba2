package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Public booking reference shared with patients (printed on
	// confirmations and prescriptions).
	Reference string `gorm:"size:36;uniqueIndex" json:"reference"`

	DoctorID uint `gorm:"index" json:"doctor_id"`
	Doctor   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"doctor"`

	PatientID uint `gorm:"index" json:"patient_id"`
	Patient   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"patient"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	Reason string `gorm:"size:255" json:"reason"`
	Notes  string `gorm:"size:255" json:"notes"`

	// Bumped on every mutation; clients may send their last seen
	// version to detect concurrent edits.
	Version int `gorm:"default:1" json:"version"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

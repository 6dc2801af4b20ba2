package models

import "time"

// ReviewEditWindow is how long after creation a patient may still
// edit or delete a review.
const ReviewEditWindow = 24 * time.Hour

type Review struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID uint `gorm:"uniqueIndex" json:"appointment_id"`

	DoctorID uint `gorm:"index" json:"doctor_id"`
	Doctor   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	PatientID uint `gorm:"index" json:"patient_id"`
	Patient   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"size:1000" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EditableAt reports whether the review may still be changed at the
// given instant. Derived, never stored.
func (r *Review) EditableAt(now time.Time) bool {
	return now.Sub(r.CreatedAt) < ReviewEditWindow
}

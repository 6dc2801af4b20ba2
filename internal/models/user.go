package models

import "time"

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'patient'" json:"role"`

	// Doctor-only fields.
	Specialty string `gorm:"size:100" json:"specialty,omitempty"`
	Bio       string `gorm:"size:500" json:"bio,omitempty"`
	Timezone  string `gorm:"size:50" json:"timezone,omitempty"`

	// Slot length used when computing availability, in minutes.
	SlotMinutes int `gorm:"default:30" json:"slot_minutes,omitempty"`

	// Minimum booking lead time, in minutes.
	MinAdvanceMinutes int `gorm:"default:60" json:"min_advance_minutes,omitempty"`

	AvatarURL string `gorm:"size:255" json:"avatar_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}

package handlers

import (
	"time"

	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

// --------------------------------------------------
// Per-doctor timezone helpers
// --------------------------------------------------

// All dates and clock times in the API are interpreted in the
// doctor's configured timezone.

func locationForDoctor(doctor *models.User) *time.Location {
	if doctor != nil {
		return timezone.Location(doctor.Timezone)
	}
	return timezone.Location("")
}

func parseDateForDoctor(doctor *models.User, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		locationForDoctor(doctor),
	)
}

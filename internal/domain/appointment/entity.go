package appointment

import (
	"time"

	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Each action validates the transition against the current status,
// mutates the record and bumps its version. Repeating an action that
// already happened leaves the record untouched (idempotent retry).

func Confirm(ap *models.Appointment, now time.Time) error {
	if err := CanConfirm(Status(ap.Status)); err != nil {
		return err
	}
	if Status(ap.Status) == StatusConfirmed {
		return nil
	}

	ap.Status = string(StatusConfirmed)
	ap.ConfirmedAt = &now
	ap.Version++
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}
	if Status(ap.Status) == StatusCompleted {
		return nil
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	ap.Version++
	return nil
}

// Cancel is the only way out of the lifecycle. The record is kept with
// its cancellation timestamp; appointments are never hard-deleted.
func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}
	if Status(ap.Status) == StatusCancelled {
		return nil
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	ap.Version++
	return nil
}

// Reschedule moves the appointment to a new slot. Status is left
// untouched: a confirmed appointment stays confirmed, a pending one
// stays pending.
func Reschedule(ap *models.Appointment, start, end time.Time) error {
	if err := CanReschedule(Status(ap.Status)); err != nil {
		return err
	}
	if !end.After(start) {
		return httperr.ErrBusiness("invalid_date_or_time")
	}

	ap.StartTime = start
	ap.EndTime = end
	ap.Version++
	return nil
}

// CheckVersion rejects a mutation built against a stale copy of the
// record. A nil expectation skips the check.
func CheckVersion(ap *models.Appointment, expected *int) error {
	if expected != nil && *expected != ap.Version {
		return httperr.ErrBusiness("stale_version")
	}
	return nil
}

package appointment

import "github.com/pillarhealth/clinic-api/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func InitialStatus() Status {
	return StatusPending
}

func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ===============================
// Validations
// ===============================

// Legal lifecycle: pending, confirmed, completed, with cancellation
// allowed while pending or confirmed. Repeating the current status is
// a no-op so that retried requests stay idempotent.

func CanConfirm(current Status) error {
	if current == StatusConfirmed {
		return nil
	}
	if current != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanComplete(current Status) error {
	if current == StatusCompleted {
		return nil
	}
	if current != StatusConfirmed {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanCancel(current Status) error {
	if current == StatusCancelled {
		return nil
	}
	if current != StatusPending && current != StatusConfirmed {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

// CanReschedule gates date/time changes; finished appointments are
// immutable.
func CanReschedule(current Status) error {
	if current != StatusPending && current != StatusConfirmed {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

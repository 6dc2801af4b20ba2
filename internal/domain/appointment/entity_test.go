package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
)

func pendingAppointment() *models.Appointment {
	return &models.Appointment{
		ID:        1,
		Status:    string(StatusPending),
		StartTime: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Version:   1,
	}
}

func TestConfirmSetsTimestampAndBumpsVersion(t *testing.T) {
	ap := pendingAppointment()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	require.NoError(t, Confirm(ap, now))

	assert.Equal(t, string(StatusConfirmed), ap.Status)
	require.NotNil(t, ap.ConfirmedAt)
	assert.Equal(t, now, *ap.ConfirmedAt)
	assert.Equal(t, 2, ap.Version)
}

func TestConfirmIsIdempotent(t *testing.T) {
	ap := pendingAppointment()
	first := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Confirm(ap, first))

	// A retried confirm must not move the timestamp or the version.
	require.NoError(t, Confirm(ap, first.Add(time.Hour)))

	assert.Equal(t, first, *ap.ConfirmedAt)
	assert.Equal(t, 2, ap.Version)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	ap := pendingAppointment()
	now := time.Now()

	err := Complete(ap, now)
	require.Error(t, err)
	assert.Equal(t, "invalid_state", httperr.BusinessCode(err))
	assert.Equal(t, string(StatusPending), ap.Status)
	assert.Equal(t, 1, ap.Version)
}

func TestCompleteAfterConfirm(t *testing.T) {
	ap := pendingAppointment()
	now := time.Now()

	require.NoError(t, Confirm(ap, now))
	require.NoError(t, Complete(ap, now))

	assert.Equal(t, string(StatusCompleted), ap.Status)
	require.NotNil(t, ap.CompletedAt)
	assert.Equal(t, 3, ap.Version)
}

func TestCancelKeepsRecordWithTimestamp(t *testing.T) {
	ap := pendingAppointment()
	now := time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC)

	require.NoError(t, Cancel(ap, now))

	assert.Equal(t, string(StatusCancelled), ap.Status)
	require.NotNil(t, ap.CancelledAt)
	assert.Equal(t, now, *ap.CancelledAt)
	assert.Equal(t, 2, ap.Version)
}

func TestCancelCompletedIsRejected(t *testing.T) {
	ap := pendingAppointment()
	now := time.Now()
	require.NoError(t, Confirm(ap, now))
	require.NoError(t, Complete(ap, now))

	err := Cancel(ap, now)
	require.Error(t, err)
	assert.Equal(t, "invalid_state", httperr.BusinessCode(err))
	assert.Equal(t, string(StatusCompleted), ap.Status)
}

func TestRescheduleMovesSlotWithoutTouchingStatus(t *testing.T) {
	ap := pendingAppointment()
	require.NoError(t, Confirm(ap, time.Now()))

	newStart := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(30 * time.Minute)

	require.NoError(t, Reschedule(ap, newStart, newEnd))

	assert.Equal(t, string(StatusConfirmed), ap.Status)
	assert.Equal(t, newStart, ap.StartTime)
	assert.Equal(t, newEnd, ap.EndTime)
	assert.Equal(t, 3, ap.Version)
}

func TestRescheduleRejectsInvertedInterval(t *testing.T) {
	ap := pendingAppointment()
	start := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)

	err := Reschedule(ap, start, start)
	require.Error(t, err)
	assert.Equal(t, "invalid_date_or_time", httperr.BusinessCode(err))
}

func TestRescheduleRejectsFinishedAppointments(t *testing.T) {
	ap := pendingAppointment()
	now := time.Now()
	require.NoError(t, Cancel(ap, now))

	err := Reschedule(ap, now.Add(time.Hour), now.Add(2*time.Hour))
	require.Error(t, err)
	assert.Equal(t, "invalid_state", httperr.BusinessCode(err))
}

func TestCheckVersion(t *testing.T) {
	ap := pendingAppointment()

	assert.NoError(t, CheckVersion(ap, nil))

	v := 1
	assert.NoError(t, CheckVersion(ap, &v))

	stale := 0
	err := CheckVersion(ap, &stale)
	require.Error(t, err)
	assert.Equal(t, "stale_version", httperr.BusinessCode(err))
}

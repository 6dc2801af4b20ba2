package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus())
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		assert.True(t, IsValidStatus(s), string(s))
	}

	assert.False(t, IsValidStatus(Status("archived")))
	assert.False(t, IsValidStatus(Status("")))
}

func TestCanConfirm(t *testing.T) {
	assert.NoError(t, CanConfirm(StatusPending))
	assert.NoError(t, CanConfirm(StatusConfirmed)) // retry is a no-op

	assert.Error(t, CanConfirm(StatusCompleted))
	assert.Error(t, CanConfirm(StatusCancelled))
}

func TestCanComplete(t *testing.T) {
	assert.NoError(t, CanComplete(StatusConfirmed))
	assert.NoError(t, CanComplete(StatusCompleted)) // retry is a no-op

	assert.Error(t, CanComplete(StatusPending))
	assert.Error(t, CanComplete(StatusCancelled))
}

func TestCanCancel(t *testing.T) {
	assert.NoError(t, CanCancel(StatusPending))
	assert.NoError(t, CanCancel(StatusConfirmed))
	assert.NoError(t, CanCancel(StatusCancelled)) // retry is a no-op

	assert.Error(t, CanCancel(StatusCompleted))
}

func TestCanReschedule(t *testing.T) {
	assert.NoError(t, CanReschedule(StatusPending))
	assert.NoError(t, CanReschedule(StatusConfirmed))

	assert.Error(t, CanReschedule(StatusCompleted))
	assert.Error(t, CanReschedule(StatusCancelled))
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReviewEditableAt(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	review := Review{CreatedAt: created}

	assert.True(t, review.EditableAt(created))
	assert.True(t, review.EditableAt(created.Add(23*time.Hour+59*time.Minute)))

	// The window closes exactly at 24h.
	assert.False(t, review.EditableAt(created.Add(ReviewEditWindow)))
	assert.False(t, review.EditableAt(created.Add(48*time.Hour)))
}

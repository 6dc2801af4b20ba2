package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
)

type WorkingHoursHandler struct {
	db *gorm.DB
}

func NewWorkingHoursHandler(db *gorm.DB) *WorkingHoursHandler {
	return &WorkingHoursHandler{db: db}
}

type WorkingDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LunchStart string `json:"lunch_start"`
	LunchEnd   string `json:"lunch_end"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required"`
}

func parseClockTime(v string) (time.Time, bool) {
	t, err := time.Parse("15:04", v)
	return t, err == nil
}

// validate rejects malformed clock values before they are stored; a
// bad value would otherwise silently collapse the availability window
// when the slot walk parses it.
func (d WorkingDayConfig) validate() error {
	if d.Active {
		start, okStart := parseClockTime(d.StartTime)
		end, okEnd := parseClockTime(d.EndTime)
		if !okStart || !okEnd {
			return fmt.Errorf("weekday %d: start_time and end_time must be HH:MM", d.Weekday)
		}
		if !end.After(start) {
			return fmt.Errorf("weekday %d: end_time must be after start_time", d.Weekday)
		}

		hasLunchStart := d.LunchStart != ""
		hasLunchEnd := d.LunchEnd != ""
		if hasLunchStart != hasLunchEnd {
			return fmt.Errorf("weekday %d: lunch_start and lunch_end must be set together", d.Weekday)
		}
		if hasLunchStart {
			lunchStart, okLS := parseClockTime(d.LunchStart)
			lunchEnd, okLE := parseClockTime(d.LunchEnd)
			if !okLS || !okLE {
				return fmt.Errorf("weekday %d: lunch_start and lunch_end must be HH:MM", d.Weekday)
			}
			if !lunchEnd.After(lunchStart) {
				return fmt.Errorf("weekday %d: lunch_end must be after lunch_start", d.Weekday)
			}
		}
		return nil
	}

	// Inactive days may leave times empty, but anything present must
	// still parse.
	for _, v := range []string{d.StartTime, d.EndTime, d.LunchStart, d.LunchEnd} {
		if _, ok := parseClockTime(v); v != "" && !ok {
			return fmt.Errorf("weekday %d: times must be HH:MM", d.Weekday)
		}
	}
	return nil
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var hours []models.WorkingHours
	if err := h.db.
		Where("doctor_id = ?", doctorID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {

		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_working_hours"})
		return
	}

	c.JSON(http.StatusOK, hours)
}

// Update replaces the whole weekly schedule in one shot.
func (h *WorkingHoursHandler) Update(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	for _, d := range req.Days {
		if err := d.validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_time_format",
				"details": err.Error(),
			})
			return
		}
	}

	if err := h.db.Where("doctor_id = ?", doctorID).Delete(&models.WorkingHours{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_clear_existing_hours"})
		return
	}

	var toCreate []models.WorkingHours
	for _, d := range req.Days {
		wh := models.WorkingHours{
			DoctorID:   doctorID,
			Weekday:    d.Weekday,
			Active:     d.Active,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
		}
		toCreate = append(toCreate, wh)
	}

	if len(toCreate) > 0 {
		if err := h.db.Create(&toCreate).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_save_working_hours"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
)

type PatientHandler struct {
	db *gorm.DB
}

func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{db: db}
}

// ======================================================
// LIST PATIENTS (doctor)
// ======================================================

// List returns the patients a doctor has appointments with, with an
// optional name/phone/email search.
func (h *PatientHandler) List(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.
		Where("role = ?", models.RolePatient).
		Where(
			"id IN (?)",
			h.db.Model(&models.Appointment{}).
				Select("patient_id").
				Where("doctor_id = ?", doctorID),
		)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var patients []models.User
	if err := q.
		Order("name ASC").
		Find(&patients).Error; err != nil {

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed_to_list_patients",
		})
		return
	}

	c.JSON(http.StatusOK, patients)
}

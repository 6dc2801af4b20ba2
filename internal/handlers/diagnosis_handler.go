package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/audit"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/httpresp"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
)

type DiagnosisHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewDiagnosisHandler(db *gorm.DB, audit *audit.Dispatcher) *DiagnosisHandler {
	return &DiagnosisHandler{db: db, audit: audit}
}

type CreateDiagnosisRequest struct {
	PatientID     uint       `json:"patient_id" binding:"required"`
	AppointmentID *uint      `json:"appointment_id"`
	Code          string     `json:"code"`
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	DiagnosedAt   *time.Time `json:"diagnosed_at"`
}

type UpdateDiagnosisRequest struct {
	Code        *string `json:"code"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// List returns diagnoses for the caller: a patient sees their own, a
// doctor sees the ones they wrote, optionally filtered by patient.
// An empty result is a normal response, never an error.
func (h *DiagnosisHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	role := c.GetString(middleware.ContextUserRole)

	q := h.db.Order("diagnosed_at DESC")

	if role == models.RoleDoctor {
		q = q.Where("doctor_id = ?", userID)
		if patientIDStr := c.Query("patientId"); patientIDStr != "" {
			patientID, err := strconv.ParseUint(patientIDStr, 10, 64)
			if err != nil {
				httperr.BadRequest(c, "invalid_patient_id", "Patient id must be numeric.")
				return
			}
			q = q.Where("patient_id = ?", uint(patientID))
		}
	} else {
		q = q.Where("patient_id = ?", userID)
	}

	var diagnoses []models.Diagnosis
	if err := q.Find(&diagnoses).Error; err != nil {
		httperr.Internal(c, "failed_to_list_diagnoses", "Could not list diagnoses.")
		return
	}

	httpresp.List(c, diagnoses)
}

func (h *DiagnosisHandler) Create(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var req CreateDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid diagnosis data.")
		return
	}

	var patient models.User
	if err := h.db.
		Where("id = ? AND role = ?", req.PatientID, models.RolePatient).
		First(&patient).Error; err != nil {
		httperr.BadRequest(c, "patient_not_found", "Patient not found.")
		return
	}

	diagnosedAt := time.Now()
	if req.DiagnosedAt != nil {
		diagnosedAt = *req.DiagnosedAt
	}

	diagnosis := models.Diagnosis{
		PatientID:     req.PatientID,
		DoctorID:      doctorID,
		AppointmentID: req.AppointmentID,
		Code:          req.Code,
		Title:         req.Title,
		Description:   req.Description,
		DiagnosedAt:   diagnosedAt,
	}

	if err := h.db.Create(&diagnosis).Error; err != nil {
		httperr.Internal(c, "failed_to_create_diagnosis", "Could not save diagnosis.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "diagnosis_created",
		Entity:   "diagnosis",
		EntityID: &diagnosis.ID,
	})

	httpresp.Created(c, &diagnosis)
}

func (h *DiagnosisHandler) Update(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var diagnosis models.Diagnosis
	if err := h.db.
		Where("id = ? AND doctor_id = ?", c.Param("id"), doctorID).
		First(&diagnosis).Error; err != nil {
		httperr.NotFound(c, "diagnosis_not_found", "Diagnosis not found.")
		return
	}

	var req UpdateDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid diagnosis data.")
		return
	}

	if req.Code != nil {
		diagnosis.Code = *req.Code
	}
	if req.Title != nil {
		diagnosis.Title = *req.Title
	}
	if req.Description != nil {
		diagnosis.Description = *req.Description
	}

	if err := h.db.Save(&diagnosis).Error; err != nil {
		httperr.Internal(c, "failed_to_update_diagnosis", "Could not save diagnosis.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "diagnosis_updated",
		Entity:   "diagnosis",
		EntityID: &diagnosis.ID,
	})

	httpresp.OK(c, &diagnosis)
}

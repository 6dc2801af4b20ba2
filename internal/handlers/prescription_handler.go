package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/audit"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/httpresp"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type PrescriptionHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewPrescriptionHandler(db *gorm.DB, audit *audit.Dispatcher) *PrescriptionHandler {
	return &PrescriptionHandler{db: db, audit: audit}
}

// ======================================================
// REQUESTS
// ======================================================

type MedicineRequest struct {
	Name         string `json:"name" binding:"required"`
	Dosage       string `json:"dosage" binding:"required"`
	Duration     string `json:"duration" binding:"required"`
	Instructions string `json:"instructions"`
}

type CreatePrescriptionRequest struct {
	PatientID     uint              `json:"patient_id" binding:"required"`
	AppointmentID *uint             `json:"appointment_id"`
	Medicines     []MedicineRequest `json:"medicines" binding:"required,min=1,dive"`
	Notes         string            `json:"notes"`
}

type UpdatePrescriptionRequest struct {
	Medicines []MedicineRequest `json:"medicines" binding:"omitempty,min=1,dive"`
	Notes     *string           `json:"notes"`
}

// ======================================================
// CREATE (doctor)
// ======================================================

func (h *PrescriptionHandler) Create(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var req CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid prescription data.")
		return
	}

	var patient models.User
	if err := h.db.
		Where("id = ? AND role = ?", req.PatientID, models.RolePatient).
		First(&patient).Error; err != nil {
		httperr.BadRequest(c, "patient_not_found", "Patient not found.")
		return
	}

	// A prescription may only be pinned to a consultation this doctor
	// actually completed with this patient.
	if req.AppointmentID != nil {
		var ap models.Appointment
		if err := h.db.
			Where("id = ? AND doctor_id = ?", *req.AppointmentID, doctorID).
			First(&ap).Error; err != nil {
			httperr.BadRequest(c, "appointment_not_found", "Appointment not found.")
			return
		}
		if ap.PatientID != req.PatientID {
			httperr.BadRequest(c, "appointment_patient_mismatch", "Appointment belongs to a different patient.")
			return
		}
		if ap.Status != string(domain.StatusCompleted) {
			httperr.BadRequest(c, "appointment_not_completed", "Prescriptions can only be issued for completed appointments.")
			return
		}
	}

	prescription := models.Prescription{
		Reference:     uuid.NewString(),
		DoctorID:      doctorID,
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Notes:         req.Notes,
		Medicines:     toMedicines(req.Medicines),
	}

	if err := h.db.Create(&prescription).Error; err != nil {
		httperr.Internal(c, "failed_to_create_prescription", "Could not save prescription.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "prescription_created",
		Entity:   "prescription",
		EntityID: &prescription.ID,
	})

	httpresp.Created(c, &prescription)
}

func toMedicines(in []MedicineRequest) []models.Medicine {
	out := make([]models.Medicine, 0, len(in))
	for _, m := range in {
		out = append(out, models.Medicine{
			Name:         m.Name,
			Dosage:       m.Dosage,
			Duration:     m.Duration,
			Instructions: m.Instructions,
		})
	}
	return out
}

// ======================================================
// LIST / GET
// ======================================================

func (h *PrescriptionHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	role := c.GetString(middleware.ContextUserRole)

	q := h.db.Preload("Medicines").Order("created_at DESC")

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

	var prescriptions []models.Prescription
	if err := q.Find(&prescriptions).Error; err != nil {
		httperr.Internal(c, "failed_to_list_prescriptions", "Could not list prescriptions.")
		return
	}

	httpresp.List(c, prescriptions)
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var prescription models.Prescription
	if err := h.db.
		Preload("Medicines").
		Preload("Doctor").
		Preload("Patient").
		Where("id = ? AND (doctor_id = ? OR patient_id = ?)", c.Param("id"), userID, userID).
		First(&prescription).Error; err != nil {
		httperr.NotFound(c, "prescription_not_found", "Prescription not found.")
		return
	}

	httpresp.OK(c, &prescription)
}

// ======================================================
// UPDATE / DELETE (authoring doctor)
// ======================================================

func (h *PrescriptionHandler) Update(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var prescription models.Prescription
	if err := h.db.
		Where("id = ? AND doctor_id = ?", c.Param("id"), doctorID).
		First(&prescription).Error; err != nil {
		httperr.NotFound(c, "prescription_not_found", "Prescription not found.")
		return
	}

	var req UpdatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid prescription data.")
		return
	}

	if req.Notes != nil {
		prescription.Notes = *req.Notes
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if len(req.Medicines) > 0 {
			if err := tx.
				Where("prescription_id = ?", prescription.ID).
				Delete(&models.Medicine{}).Error; err != nil {
				return err
			}
			prescription.Medicines = toMedicines(req.Medicines)
		}
		return tx.Save(&prescription).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_update_prescription", "Could not save prescription.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "prescription_updated",
		Entity:   "prescription",
		EntityID: &prescription.ID,
	})

	httpresp.OK(c, &prescription)
}

func (h *PrescriptionHandler) Delete(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	var prescription models.Prescription
	if err := h.db.
		Where("id = ? AND doctor_id = ?", c.Param("id"), doctorID).
		First(&prescription).Error; err != nil {
		httperr.NotFound(c, "prescription_not_found", "Prescription not found.")
		return
	}

	if err := h.db.Select("Medicines").Delete(&prescription).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_prescription", "Could not delete prescription.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &doctorID,
		Action:   "prescription_deleted",
		Entity:   "prescription",
		EntityID: &prescription.ID,
	})

	c.JSON(200, gin.H{"status": "deleted"})
}

package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/cache"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/httpresp"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type ReviewHandler struct {
	db      *gorm.DB
	ratings *cache.RatingCache
}

func NewReviewHandler(db *gorm.DB, ratings *cache.RatingCache) *ReviewHandler {
	return &ReviewHandler{db: db, ratings: ratings}
}

// reviewResponse attaches the derived edit-window flag; it is never
// stored.
type reviewResponse struct {
	models.Review
	IsEditable bool `json:"is_editable"`
}

func toReviewResponse(r models.Review, now time.Time) reviewResponse {
	return reviewResponse{Review: r, IsEditable: r.EditableAt(now)}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateReviewRequest struct {
	AppointmentID uint   `json:"appointment_id" binding:"required"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}

// ======================================================
// CREATE (patient)
// ======================================================

func (h *ReviewHandler) Create(c *gin.Context) {
	patientID := c.MustGet(middleware.ContextUserID).(uint)

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid review data.")
		return
	}

	var ap models.Appointment
	if err := h.db.
		Where("id = ? AND patient_id = ?", req.AppointmentID, patientID).
		First(&ap).Error; err != nil {
		httperr.NotFound(c, "appointment_not_found", "Appointment not found.")
		return
	}

	if ap.Status != string(domain.StatusCompleted) {
		httperr.BadRequest(c, "appointment_not_completed", "Only completed appointments can be reviewed.")
		return
	}

	var count int64
	h.db.Model(&models.Review{}).Where("appointment_id = ?", ap.ID).Count(&count)
	if count > 0 {
		httperr.BadRequest(c, "review_already_exists", "This appointment already has a review.")
		return
	}

	review := models.Review{
		AppointmentID: ap.ID,
		DoctorID:      ap.DoctorID,
		PatientID:     patientID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}

	if err := h.db.Create(&review).Error; err != nil {
		// The unique index on appointment_id backs the one-review-per-
		// appointment rule; a concurrent create losing the race lands
		// here rather than in the count check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httperr.BadRequest(c, "review_already_exists", "This appointment already has a review.")
			return
		}
		httperr.Internal(c, "failed_to_create_review", "Could not save review.")
		return
	}

	h.ratings.Invalidate(c.Request.Context(), review.DoctorID)

	httpresp.Created(c, toReviewResponse(review, time.Now()))
}

// ======================================================
// LIST (patient's own)
// ======================================================

func (h *ReviewHandler) ListMine(c *gin.Context) {
	patientID := c.MustGet(middleware.ContextUserID).(uint)

	var reviews []models.Review
	if err := h.db.
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		httperr.Internal(c, "failed_to_list_reviews", "Could not list reviews.")
		return
	}

	now := time.Now()
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(r, now))
	}

	httpresp.List(c, out)
}

// ======================================================
// UPDATE / DELETE (24h window)
// ======================================================

func (h *ReviewHandler) Update(c *gin.Context) {
	patientID := c.MustGet(middleware.ContextUserID).(uint)

	var review models.Review
	if err := h.db.
		Where("id = ? AND patient_id = ?", c.Param("id"), patientID).
		First(&review).Error; err != nil {
		httperr.NotFound(c, "review_not_found", "Review not found.")
		return
	}

	if !review.EditableAt(time.Now()) {
		httperr.Forbidden(c, "review_locked", "Reviews can only be edited within 24 hours of creation.")
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid review data.")
		return
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := h.db.Save(&review).Error; err != nil {
		httperr.Internal(c, "failed_to_update_review", "Could not save review.")
		return
	}

	h.ratings.Invalidate(c.Request.Context(), review.DoctorID)

	httpresp.OK(c, toReviewResponse(review, time.Now()))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	patientID := c.MustGet(middleware.ContextUserID).(uint)

	var review models.Review
	if err := h.db.
		Where("id = ? AND patient_id = ?", c.Param("id"), patientID).
		First(&review).Error; err != nil {
		httperr.NotFound(c, "review_not_found", "Review not found.")
		return
	}

	if !review.EditableAt(time.Now()) {
		httperr.Forbidden(c, "review_locked", "Reviews can only be deleted within 24 hours of creation.")
		return
	}

	if err := h.db.Delete(&review).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_review", "Could not delete review.")
		return
	}

	h.ratings.Invalidate(c.Request.Context(), review.DoctorID)

	c.JSON(200, gin.H{"status": "deleted"})
}

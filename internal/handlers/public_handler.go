package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/cache"
	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/models"
	ucappointment "github.com/pillarhealth/clinic-api/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

// PublicHandler serves the unauthenticated doctor directory: profiles,
// open slots and reviews, for patients picking a doctor before booking.
type PublicHandler struct {
	db              *gorm.DB
	ratings         *cache.RatingCache
	getAvailability *ucappointment.GetAvailability
}

func NewPublicHandler(
	db *gorm.DB,
	ratings *cache.RatingCache,
	getAvailability *ucappointment.GetAvailability,
) *PublicHandler {
	return &PublicHandler{
		db:              db,
		ratings:         ratings,
		getAvailability: getAvailability,
	}
}

type doctorSummary struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Bio       string  `json:"bio"`
	AvatarURL string  `json:"avatar_url"`
	Rating    float64 `json:"rating"`
	Reviews   int64   `json:"reviews"`
}

// ======================================================
// DOCTOR DIRECTORY
// ======================================================

func (h *PublicHandler) ListDoctors(c *gin.Context) {
	q := h.db.Where("role = ?", models.RoleDoctor)

	if specialty := strings.TrimSpace(c.Query("specialty")); specialty != "" {
		q = q.Where("LOWER(specialty) = ?", strings.ToLower(specialty))
	}
	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(specialty) LIKE ?", like, like)
	}

	var doctors []models.User
	if err := q.Order("name ASC").Find(&doctors).Error; err != nil {
		httperr.Internal(c, "failed_to_list_doctors", "Could not list doctors.")
		return
	}

	out := make([]doctorSummary, 0, len(doctors))
	for _, d := range doctors {
		summary := h.ratingFor(c.Request.Context(), d.ID)
		out = append(out, doctorSummary{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty,
			Bio:       d.Bio,
			AvatarURL: d.AvatarURL,
			Rating:    summary.Average,
			Reviews:   summary.Count,
		})
	}

	c.JSON(http.StatusOK, out)
}

func (h *PublicHandler) GetDoctor(c *gin.Context) {
	var doctor models.User
	if err := h.db.
		Where("id = ? AND role = ?", c.Param("id"), models.RoleDoctor).
		First(&doctor).Error; err != nil {
		httperr.NotFound(c, "doctor_not_found", "Doctor not found.")
		return
	}

	summary := h.ratingFor(c.Request.Context(), doctor.ID)

	c.JSON(http.StatusOK, gin.H{
		"id":         doctor.ID,
		"name":       doctor.Name,
		"specialty":  doctor.Specialty,
		"bio":        doctor.Bio,
		"avatar_url": doctor.AvatarURL,
		"timezone":   doctor.Timezone,
		"rating":     summary.Average,
		"reviews":    summary.Count,
	})
}

// ratingFor reads the cached aggregate, falling back to Postgres and
// refilling the cache on a miss.
func (h *PublicHandler) ratingFor(ctx context.Context, doctorID uint) cache.RatingSummary {
	if summary, ok := h.ratings.Get(ctx, doctorID); ok {
		return *summary
	}

	var row struct {
		Average float64
		Count   int64
	}
	h.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("doctor_id = ?", doctorID).
		Scan(&row)

	summary := cache.RatingSummary{Average: row.Average, Count: row.Count}
	h.ratings.Set(ctx, doctorID, summary)
	return summary
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *PublicHandler) GetAvailability(c *gin.Context) {
	doctorIDStr := c.Param("id")
	doctorID, err := strconv.ParseUint(doctorIDStr, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_doctor_id", "Doctor id must be numeric.")
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Query parameter 'date' is required (YYYY-MM-DD).")
		return
	}

	var doctor models.User
	if err := h.db.
		Where("id = ? AND role = ?", uint(doctorID), models.RoleDoctor).
		First(&doctor).Error; err != nil {
		httperr.NotFound(c, "doctor_not_found", "Doctor not found.")
		return
	}

	date, err := parseDateForDoctor(&doctor, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Date must be in YYYY-MM-DD format.")
		return
	}

	slots, err := h.getAvailability.Execute(c.Request.Context(), domain.AvailabilityInput{
		DoctorID: uint(doctorID),
		Date:     date,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	if slots == nil {
		slots = []domain.TimeSlot{}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

// ======================================================
// REVIEWS
// ======================================================

func (h *PublicHandler) ListDoctorReviews(c *gin.Context) {
	doctorIDStr := c.Param("id")
	doctorID, err := strconv.ParseUint(doctorIDStr, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_doctor_id", "Doctor id must be numeric.")
		return
	}

	var count int64
	h.db.Model(&models.User{}).
		Where("id = ? AND role = ?", uint(doctorID), models.RoleDoctor).
		Count(&count)
	if count == 0 {
		httperr.NotFound(c, "doctor_not_found", "Doctor not found.")
		return
	}

	var reviews []models.Review
	if err := h.db.
		Preload("Patient").
		Where("doctor_id = ?", uint(doctorID)).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		httperr.Internal(c, "failed_to_list_reviews", "Could not list reviews.")
		return
	}

	type publicReview struct {
		ID          uint      `json:"id"`
		Rating      int       `json:"rating"`
		Comment     string    `json:"comment"`
		PatientName string    `json:"patient_name"`
		CreatedAt   time.Time `json:"created_at"`
	}

	out := make([]publicReview, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, publicReview{
			ID:          r.ID,
			Rating:      r.Rating,
			Comment:     r.Comment,
			PatientName: r.Patient.Name,
			CreatedAt:   r.CreatedAt,
		})
	}

	summary := h.ratingFor(c.Request.Context(), uint(doctorID))

	c.JSON(http.StatusOK, gin.H{
		"rating":  summary.Average,
		"total":   summary.Count,
		"reviews": out,
	})
}

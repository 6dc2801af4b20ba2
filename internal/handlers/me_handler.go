package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/storage"
	"github.com/pillarhealth/clinic-api/internal/timezone"
)

const maxAvatarBytes = 5 << 20

type MeHandler struct {
	db       *gorm.DB
	uploader *storage.Uploader
}

func NewMeHandler(db *gorm.DB, uploader *storage.Uploader) *MeHandler {
	return &MeHandler{db: db, uploader: uploader}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user_not_found"})
		return
	}

	c.JSON(http.StatusOK, userPayload(&user))
}

type UpdateMeRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`

	// Doctor-only fields; ignored for patients.
	Specialty         *string `json:"specialty"`
	Bio               *string `json:"bio"`
	Timezone          *string `json:"timezone"`
	SlotMinutes       *int    `json:"slot_minutes"`
	MinAdvanceMinutes *int    `json:"min_advance_minutes"`
}

func (h *MeHandler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		httperr.Internal(c, "user_not_found", "Could not load profile.")
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid profile data.")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}

	if user.IsDoctor() {
		if req.Specialty != nil {
			user.Specialty = *req.Specialty
		}
		if req.Bio != nil {
			user.Bio = *req.Bio
		}
		if req.Timezone != nil {
			if !timezone.IsValid(*req.Timezone) {
				httperr.BadRequest(c, "invalid_timezone", "Unknown timezone.")
				return
			}
			user.Timezone = *req.Timezone
		}
		if req.SlotMinutes != nil {
			if *req.SlotMinutes < 5 || *req.SlotMinutes > 240 {
				httperr.BadRequest(c, "invalid_slot_minutes", "Slot length must be between 5 and 240 minutes.")
				return
			}
			user.SlotMinutes = *req.SlotMinutes
		}
		if req.MinAdvanceMinutes != nil {
			if *req.MinAdvanceMinutes < 0 {
				httperr.BadRequest(c, "invalid_min_advance", "Minimum advance must be zero or positive (in minutes).")
				return
			}
			user.MinAdvanceMinutes = *req.MinAdvanceMinutes
		}
	}

	if err := h.db.Save(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_update_profile", "Could not save profile.")
		return
	}

	c.JSON(http.StatusOK, userPayload(&user))
}

// UploadAvatar accepts a multipart image, converts it to WebP and
// stores it in the object store.
func (h *MeHandler) UploadAvatar(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		httperr.Internal(c, "user_not_found", "Could not load profile.")
		return
	}

	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		httperr.BadRequest(c, "missing_avatar_file", "Expected an 'avatar' file field.")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		httperr.Internal(c, "failed_to_read_avatar", "Could not read uploaded file.")
		return
	}
	if len(raw) > maxAvatarBytes {
		httperr.BadRequest(c, "avatar_too_large", "Avatar must be at most 5MB.")
		return
	}

	encoded, err := storage.NormalizeAvatar(raw)
	if err != nil {
		httperr.BadRequest(c, "invalid_image", "Could not decode uploaded image.")
		return
	}

	key := fmt.Sprintf("avatars/%d-%d.webp", user.ID, time.Now().Unix())

	url, err := h.uploader.Upload(c.Request.Context(), key, "image/webp", encoded)
	if err != nil {
		httperr.Internal(c, "failed_to_store_avatar", "Could not store avatar.")
		return
	}

	user.AvatarURL = url
	if err := h.db.Save(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_update_profile", "Could not save profile.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

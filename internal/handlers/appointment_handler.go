package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/pillarhealth/clinic-api/internal/domain/appointment"
	"github.com/pillarhealth/clinic-api/internal/httperr"
	"github.com/pillarhealth/clinic-api/internal/httpresp"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
	ucAppointment "github.com/pillarhealth/clinic-api/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	db *gorm.DB

	bookUC           *ucAppointment.BookAppointment
	confirmUC        *ucAppointment.ConfirmAppointment
	cancelUC         *ucAppointment.CancelAppointment
	completeUC       *ucAppointment.CompleteAppointment
	rescheduleUC     *ucAppointment.RescheduleAppointment
	listByDateUC     *ucAppointment.ListAppointmentsByDate
	listByMonthUC    *ucAppointment.ListAppointmentsByMonth
	listForPatientUC *ucAppointment.ListAppointmentsForPatient
}

func NewAppointmentHandler(
	db *gorm.DB,
	bookUC *ucAppointment.BookAppointment,
	confirmUC *ucAppointment.ConfirmAppointment,
	cancelUC *ucAppointment.CancelAppointment,
	completeUC *ucAppointment.CompleteAppointment,
	rescheduleUC *ucAppointment.RescheduleAppointment,
	listByDateUC *ucAppointment.ListAppointmentsByDate,
	listByMonthUC *ucAppointment.ListAppointmentsByMonth,
	listForPatientUC *ucAppointment.ListAppointmentsForPatient,
) *AppointmentHandler {
	return &AppointmentHandler{
		db:               db,
		bookUC:           bookUC,
		confirmUC:        confirmUC,
		cancelUC:         cancelUC,
		completeUC:       completeUC,
		rescheduleUC:     rescheduleUC,
		listByDateUC:     listByDateUC,
		listByMonthUC:    listByMonthUC,
		listForPatientUC: listForPatientUC,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type BookAppointmentRequest struct {
	DoctorID uint   `json:"doctor_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
	Notes    string `json:"notes"`
}

type RescheduleRequest struct {
	Date    string `json:"date" binding:"required"`
	Time    string `json:"time" binding:"required"`
	Version *int   `json:"version"`
}

// StatusChangeRequest is the optional body of the confirm, cancel and
// complete transitions.
type StatusChangeRequest struct {
	Version *int `json:"version"`
}

// ======================================================
// HELPERS
// ======================================================

func appointmentIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_appointment_id", "Appointment id must be numeric.")
		return 0, false
	}
	return uint(id), true
}

func bindOptionalVersion(c *gin.Context) (*int, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return nil, false
	}
	return req.Version, true
}

// writeBusinessError maps domain rule codes onto HTTP statuses.
func writeBusinessError(c *gin.Context, err error) {
	switch code := httperr.BusinessCode(err); code {
	case "appointment_not_found", "doctor_not_found":
		httperr.NotFound(c, code, "Record not found.")
	case "time_conflict":
		httperr.Conflict(c, code, "The requested slot is already taken.")
	case "stale_version":
		httperr.Conflict(c, code, "The appointment changed since you last loaded it.")
	case "invalid_state":
		httperr.BadRequest(c, code, "The appointment status does not allow this action.")
	case "invalid_date_or_time":
		httperr.BadRequest(c, code, "Invalid date or time.")
	case "too_soon":
		httperr.BadRequest(c, code, "The slot is too close to now.")
	case "outside_working_hours":
		httperr.BadRequest(c, code, "Outside the doctor's working hours.")
	case "":
		httperr.Internal(c, "internal_error", "Something went wrong.")
	default:
		httperr.BadRequest(c, code, "Request rejected.")
	}
}

// ======================================================
// BOOK (patient)
// ======================================================

func (h *AppointmentHandler) Book(c *gin.Context) {
	patientID := c.MustGet(middleware.ContextUserID).(uint)

	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid booking data.")
		return
	}

	ap, err := h.bookUC.Execute(c.Request.Context(), ucAppointment.BookAppointmentInput{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
		Notes:     req.Notes,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// LIST
// ======================================================

// List serves both sides of the schedule: doctors get their agenda for
// a given date, patients get their own appointment history.
func (h *AppointmentHandler) List(c *gin.Context) {
	if c.GetString(middleware.ContextUserRole) == models.RoleDoctor {
		h.ListByDate(c)
		return
	}
	h.ListMine(c)
}

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "A date is required.")
		return
	}

	var doctor models.User
	if err := h.db.First(&doctor, doctorID).Error; err != nil {
		httperr.Internal(c, "doctor_not_found", "Could not load doctor profile.")
		return
	}

	date, err := parseDateForDoctor(&doctor, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	out, err := h.listByDateUC.Execute(c.Request.Context(), doctorID, date)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Could not list appointments.")
		return
	}

	httpresp.List(c, out)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Year and month are required.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Invalid year.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Invalid month.")
		return
	}

	out, err := h.listByMonthUC.Execute(c.Request.Context(), doctorID, year, month)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Could not list appointments.")
		return
	}

	c.JSON(200, gin.H{
		"year":         year,
		"month":        month,
		"appointments": out,
	})
}

func (h *AppointmentHandler) ListMine(c *gin.Context) {
	patientID := c.MustGet(middleware.ContextUserID).(uint)

	out, err := h.listForPatientUC.Execute(c.Request.Context(), patientID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Could not list appointments.")
		return
	}

	httpresp.List(c, out)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	var ap models.Appointment
	if err := h.db.
		Preload("Doctor").
		Preload("Patient").
		Where("id = ? AND (doctor_id = ? OR patient_id = ?)", id, userID, userID).
		First(&ap).Error; err != nil {
		httperr.NotFound(c, "appointment_not_found", "Appointment not found.")
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// STATE TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	version, ok := bindOptionalVersion(c)
	if !ok {
		return
	}

	ap, err := h.confirmUC.Execute(c.Request.Context(), doctorID, id, version)
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	version, ok := bindOptionalVersion(c)
	if !ok {
		return
	}

	ap, err := h.cancelUC.Execute(c.Request.Context(), userID, id, version)
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	version, ok := bindOptionalVersion(c)
	if !ok {
		return
	}

	ap, err := h.completeUC.Execute(c.Request.Context(), doctorID, id, version)
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// RESCHEDULE
// ======================================================

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	doctorID := c.MustGet(middleware.ContextUserID).(uint)

	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid reschedule data.")
		return
	}

	ap, err := h.rescheduleUC.Execute(c.Request.Context(), ucAppointment.RescheduleAppointmentInput{
		DoctorID:        doctorID,
		AppointmentID:   id,
		Date:            req.Date,
		Time:            req.Time,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// PRESCRIPTION LINKAGE
// ======================================================

// GetPrescription resolves the prescription written for a completed
// appointment. Exact appointment link first; older prescriptions were
// saved without one, so fall back to the latest unlinked prescription
// for the same patient and doctor.
func (h *AppointmentHandler) GetPrescription(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	var ap models.Appointment
	if err := h.db.
		Where("id = ? AND (doctor_id = ? OR patient_id = ?)", id, userID, userID).
		First(&ap).Error; err != nil {
		httperr.NotFound(c, "appointment_not_found", "Appointment not found.")
		return
	}

	var prescription models.Prescription
	err := h.db.
		Preload("Medicines").
		Where("appointment_id = ?", ap.ID).
		First(&prescription).Error

	if err == gorm.ErrRecordNotFound && ap.Status == string(domain.StatusCompleted) {
		err = h.db.
			Preload("Medicines").
			Where(
				"patient_id = ? AND doctor_id = ? AND appointment_id IS NULL",
				ap.PatientID, ap.DoctorID,
			).
			Order("created_at DESC").
			First(&prescription).Error
	}

	if err != nil {
		httperr.NotFound(c, "prescription_not_found", "No prescription for this appointment.")
		return
	}

	httpresp.OK(c, &prescription)
}

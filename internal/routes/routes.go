package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/audit"
	"github.com/pillarhealth/clinic-api/internal/cache"
	"github.com/pillarhealth/clinic-api/internal/config"
	"github.com/pillarhealth/clinic-api/internal/handlers"
	infraRepo "github.com/pillarhealth/clinic-api/internal/infra/repository"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/models"
	"github.com/pillarhealth/clinic-api/internal/storage"
	ucAppointment "github.com/pillarhealth/clinic-api/internal/usecase/appointment"
)

func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	redisClient *redis.Client,
	uploader *storage.Uploader,
) {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	ratingCache := cache.NewRatingCache(redisClient)

	// ======================================================
	// USE CASES (APPOINTMENTS)
	// ======================================================
	bookAppointmentUC := ucAppointment.NewBookAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	confirmAppointmentUC := ucAppointment.NewConfirmAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	cancelAppointmentUC := ucAppointment.NewCancelAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	completeAppointmentUC := ucAppointment.NewCompleteAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	rescheduleAppointmentUC := ucAppointment.NewRescheduleAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	listAppointmentsByDateUC := ucAppointment.NewListAppointmentsByDate(
		appointmentRepo,
	)

	listAppointmentsByMonthUC := ucAppointment.NewListAppointmentsByMonth(
		appointmentRepo,
	)

	listAppointmentsForPatientUC := ucAppointment.NewListAppointmentsForPatient(
		appointmentRepo,
	)

	getAvailabilityUC := ucAppointment.NewGetAvailability(appointmentRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db, uploader)
	workingHoursHandler := handlers.NewWorkingHoursHandler(db)
	patientHandler := handlers.NewPatientHandler(db)

	appointmentHandler := handlers.NewAppointmentHandler(
		db,
		bookAppointmentUC,
		confirmAppointmentUC,
		cancelAppointmentUC,
		completeAppointmentUC,
		rescheduleAppointmentUC,
		listAppointmentsByDateUC,
		listAppointmentsByMonthUC,
		listAppointmentsForPatientUC,
	)

	prescriptionHandler := handlers.NewPrescriptionHandler(db, auditDispatcher)
	reviewHandler := handlers.NewReviewHandler(db, ratingCache)
	diagnosisHandler := handlers.NewDiagnosisHandler(db, auditDispatcher)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	publicHandler := handlers.NewPublicHandler(db, ratingCache, getAvailabilityUC)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC API
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/doctors", publicHandler.ListDoctors)
			publicAPI.GET("/doctors/:id", publicHandler.GetDoctor)
			publicAPI.GET("/doctors/:id/availability", publicHandler.GetAvailability)
			publicAPI.GET("/doctors/:id/reviews", publicHandler.ListDoctorReviews)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PATCH("/me", meHandler.UpdateMe)
			secured.POST("/me/avatar", meHandler.UploadAvatar)

			// Shared by both roles. Ownership is enforced per row.
			secured.GET("/me/appointments", appointmentHandler.List)
			secured.GET("/me/appointments/:id", appointmentHandler.Get)
			secured.PATCH("/me/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.GET("/me/appointments/:id/prescription", appointmentHandler.GetPrescription)

			secured.GET("/me/prescriptions", prescriptionHandler.List)
			secured.GET("/me/prescriptions/:id", prescriptionHandler.Get)

			secured.GET("/me/diagnoses", diagnosisHandler.List)

			secured.GET("/me/audit-logs", auditLogsHandler.List)

			// ------------------------------
			// DOCTOR
			// ------------------------------
			doctor := secured.Group("/")
			doctor.Use(middleware.RequireRole(models.RoleDoctor))
			{
				doctor.GET("/me/appointments/month", appointmentHandler.ListByMonth)
				doctor.PATCH("/me/appointments/:id/confirm", appointmentHandler.Confirm)
				doctor.PATCH("/me/appointments/:id/complete", appointmentHandler.Complete)
				doctor.PATCH("/me/appointments/:id/reschedule", appointmentHandler.Reschedule)

				doctor.GET("/me/working-hours", workingHoursHandler.Get)
				doctor.PUT("/me/working-hours", workingHoursHandler.Update)

				doctor.GET("/me/patients", patientHandler.List)

				doctor.POST("/me/prescriptions", prescriptionHandler.Create)
				doctor.PATCH("/me/prescriptions/:id", prescriptionHandler.Update)
				doctor.DELETE("/me/prescriptions/:id", prescriptionHandler.Delete)

				doctor.POST("/me/diagnoses", diagnosisHandler.Create)
				doctor.PATCH("/me/diagnoses/:id", diagnosisHandler.Update)
			}

			// ------------------------------
			// PATIENT
			// ------------------------------
			patient := secured.Group("/")
			patient.Use(middleware.RequireRole(models.RolePatient))
			{
				patient.POST("/me/appointments", appointmentHandler.Book)

				patient.POST("/me/reviews", reviewHandler.Create)
				patient.GET("/me/reviews", reviewHandler.ListMine)
				patient.PATCH("/me/reviews/:id", reviewHandler.Update)
				patient.DELETE("/me/reviews/:id", reviewHandler.Delete)
			}
		}
	}
}

package courseRoutes

import (
	controllers "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/validators"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseID := validators.ID("courseId", "Course")
	lessonID := validators.ID("lessonId", "Lesson")

	userGroup := app.Group("/course")

	// Catalog
	userGroup.Get("/list", middleware.JWTMiddleware, controllers.GetAllCourses)
	userGroup.Get("/:courseId", middleware.JWTMiddleware, courseID, controllers.GetCourseDetails)

	// Enrollment
	userGroup.Post("/:courseId/enroll", middleware.JWTMiddleware, courseID, controllers.EnrollInCourse)
	userGroup.Post("/:courseId/purchase/confirm", middleware.JWTMiddleware, courseID, courseValidator.ConfirmPurchase(), controllers.ConfirmPurchase)

	// Progress tracking
	userGroup.Post("/lesson/:lessonId/complete", middleware.JWTMiddleware, lessonID, controllers.MarkLessonComplete)
	userGroup.Put("/lesson/:lessonId/watch", middleware.JWTMiddleware, lessonID, courseValidator.WatchTime(), controllers.RecordWatchTime)
	userGroup.Get("/:courseId/progress", middleware.JWTMiddleware, courseID, controllers.GetUserProgress)

	// Certificate
	userGroup.Get("/:courseId/certificate", middleware.JWTMiddleware, courseID, controllers.DownloadCertificate)

	// Reviews
	userGroup.Post("/:courseId/review", middleware.JWTMiddleware, courseID, courseValidator.CreateReview(), controllers.CreateReview)
	userGroup.Get("/:courseId/reviews", middleware.JWTMiddleware, courseID, controllers.ListReviews)

	// User enrollments and certificates
	userEnrollGroup := app.Group("/user")
	userEnrollGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollmentsList)
	userEnrollGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)

	// Public certificate verification
	certGroup := app.Group("/certificate")
	certGroup.Get("/verify/:number", controllers.VerifyCertificate)
	certGroup.Get("/preview/:number", controllers.CertificatePreview)
}

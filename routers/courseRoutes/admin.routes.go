package courseRoutes

import (
	controllers "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up catalog management for admins and instructors
func SetupAdminCourseRoutes(app *fiber.App) {
	courseID := validators.ID("courseId", "Course")
	moduleID := validators.ID("moduleId", "Module")
	lessonID := validators.ID("lessonId", "Lesson")
	studentID := validators.ID("studentId", "Student")

	staff := middleware.RequireRole(models.RoleAdmin, models.RoleInstructor)
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, staff)

	// Course CRUD
	adminGroup.Post("/create", courseValidator.CreateCourse(), controllers.AdminCreateCourse)
	adminGroup.Get("/list", controllers.AdminGetAllCourses)
	adminGroup.Put("/:courseId", courseID, courseValidator.CreateCourse(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:courseId", courseID, controllers.AdminDeleteCourse)
	adminGroup.Post("/:courseId/publish", courseID, courseValidator.Publish(), controllers.AdminPublishCourse)

	// Module Management
	adminGroup.Post("/:courseId/module", courseID, courseValidator.CreateModule(), controllers.AdminCreateModule)
	adminGroup.Get("/:courseId/modules", courseID, controllers.AdminListModules)
	adminGroup.Post("/:courseId/module/:moduleId/publish", courseID, moduleID, courseValidator.Publish(), controllers.AdminPublishModule)

	// Lesson Management
	adminGroup.Post("/:courseId/module/:moduleId/lesson", courseID, moduleID, courseValidator.CreateLesson(), controllers.AdminCreateLesson)

	lessonGroup := app.Group("/admin/lesson", middleware.JWTMiddleware, staff)
	lessonGroup.Put("/:lessonId", lessonID, courseValidator.CreateLesson(), controllers.AdminUpdateLesson)
	lessonGroup.Delete("/:lessonId", lessonID, controllers.AdminDeleteLesson)
	lessonGroup.Post("/:lessonId/publish", lessonID, courseValidator.Publish(), controllers.AdminPublishLesson)

	// Enrollment & Progress Tracking
	adminGroup.Get("/:courseId/enrollments", courseID, controllers.AdminGetCourseEnrollments)
	adminGroup.Get("/:courseId/student/:studentId/progress", courseID, studentID, controllers.AdminGetStudentProgress)

	// Dashboard
	dashGroup := app.Group("/admin/dashboard", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))
	dashGroup.Get("/stats", controllers.AdminDashboardStats)
}

package notificationRoutes

import (
	controllers "learnhub/controllers/notification"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	notificationValidator "learnhub/validators/notification"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App) {
	group := app.Group("/notifications", middleware.JWTMiddleware)

	group.Get("/", controllers.ListNotifications)
	group.Get("/unread/count", controllers.UnreadCount)
	group.Patch("/read/all", controllers.MarkAllRead)
	group.Patch("/:notificationId/read", validators.ID("notificationId", "Notification"), controllers.MarkRead)
	group.Get("/preferences", controllers.GetPreferences)
	group.Put("/preferences", notificationValidator.SetPreference(), controllers.SetPreference)

	adminGroup := app.Group("/admin/notifications", middleware.JWTMiddleware)
	adminGroup.Post("/broadcast", middleware.CheckPermissionMiddleware(models.PermissionBroadcast), notificationValidator.Broadcast(), controllers.AdminBroadcast)
}

package gamificationRoutes

import (
	controllers "learnhub/controllers/gamification"
	"learnhub/middleware"
	"learnhub/models"
	gamificationValidator "learnhub/validators/gamification"

	"github.com/gofiber/fiber/v2"
)

func SetupGamificationRoutes(app *fiber.App) {
	group := app.Group("/gamification", middleware.JWTMiddleware)

	group.Get("/points", controllers.GetMyPoints)
	group.Get("/points/history", controllers.GetPointsHistory)
	group.Get("/leaderboard", controllers.GetLeaderboard)
	group.Get("/badges", controllers.ListBadges)
	group.Get("/badges/me", controllers.GetMyBadges)
	group.Get("/streak", controllers.GetMyStreak)
	group.Post("/streak/check-in", controllers.CheckIn)

	adminGroup := app.Group("/admin/gamification", middleware.JWTMiddleware)
	adminGroup.Post("/points/adjust", middleware.CheckPermissionMiddleware(models.PermissionAdjustPoints), gamificationValidator.AdjustPoints(), controllers.AdminAdjustPoints)
	adminGroup.Post("/badges", middleware.CheckPermissionMiddleware(models.PermissionManageBadges), gamificationValidator.CreateBadge(), controllers.AdminCreateBadge)
}

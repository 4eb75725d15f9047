package superAdminRoutes

import (
	superAdminController "learnhub/controllers/superAdmin"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	superAdminValidator "learnhub/validators/superAdmin"

	"github.com/gofiber/fiber/v2"
)

func SetupSuperAdminRoutes(app *fiber.App) {
	targetID := validators.ID("targetId", "User")
	adminGroup := app.Group("/admin/users", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))

	adminGroup.Get("/list", superAdminController.UserList)
	adminGroup.Post("/staff", superAdminValidator.RegisterStaff(), superAdminController.RegisterStaff)
	adminGroup.Patch("/:targetId/role", targetID, superAdminValidator.SetRole(), superAdminController.SetRole)
	adminGroup.Get("/:targetId/permissions", targetID, superAdminController.PermissionsByUserID)
	adminGroup.Post("/:targetId/permissions", targetID, superAdminValidator.Permission(), superAdminController.GrantPermission)
	adminGroup.Delete("/:targetId/permissions", targetID, superAdminValidator.Permission(), superAdminController.RevokePermission)
}

package superAdminValidator

import (
	"strings"

	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type RegisterStaffRequest struct {
	Name     string `json:"name" validate:"notblank,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=INSTRUCTOR ADMIN"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER INSTRUCTOR ADMIN"`
}

type PermissionRequest struct {
	Permission string `json:"permission" validate:"required,oneof=manage-badges adjust-points broadcast-notifications"`
}

func RegisterStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RegisterStaffRequest)
		return validators.Body(c, reqData, "validatedStaff", func() {
			reqData.Name = strings.TrimSpace(reqData.Name)
			reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
			reqData.Role = strings.ToUpper(strings.TrimSpace(reqData.Role))
		})
	}
}

func SetRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SetRoleRequest)
		return validators.Body(c, reqData, "validatedRole", func() {
			reqData.Role = strings.ToUpper(strings.TrimSpace(reqData.Role))
		})
	}
}

func Permission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PermissionRequest)
		return validators.Body(c, reqData, "validatedPermission", func() {
			reqData.Permission = strings.ToLower(strings.TrimSpace(reqData.Permission))
		})
	}
}

package superAdminController

import (
	"errors"
	"strings"

	"learnhub/config"
	"learnhub/database"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/services"
	"learnhub/utils"
	superAdminValidator "learnhub/validators/superAdmin"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func fail(c *fiber.Ctx, err error) error {
	return middleware.ErrorResponse(c, services.App.Log, err)
}

func UserList(c *fiber.Ctx) error {
	page, limit, offset := utils.Paginate(c.QueryInt("page", 1), c.QueryInt("limit", 10), 100)

	db := database.Database.Db.Model(&models.User{}).Where("is_deleted = ?", false)
	if role := strings.ToUpper(c.Query("role")); role != "" {
		db = db.Where("role = ?", role)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, err)
	}
	var users []models.User
	if err := db.Order("id asc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return fail(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User List.", fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// RegisterStaff creates an instructor or admin account
func RegisterStaff(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedStaff").(*superAdminValidator.RegisterStaffRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		return fail(c, err)
	}
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	cost := bcrypt.DefaultCost
	if config.AppConfig != nil && config.AppConfig.SaltRound >= bcrypt.MinCost {
		cost = config.AppConfig.SaltRound
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), cost)
	if err != nil {
		return fail(c, err)
	}

	user := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Role:     reqData.Role,
		Password: string(hashedPassword),
	}
	if err := db.Create(&user).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Staff account created successfully.", user)
}

func targetUser(c *fiber.Ctx) (*models.User, error) {
	var user models.User
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", c.Locals("targetId").(uint), false).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return nil, fail(c, err)
	}
	return &user, nil
}

func SetRole(c *fiber.Ctx) error {
	user, err := targetUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedRole").(*superAdminValidator.SetRoleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if callerId, _ := c.Locals("userId").(uint); callerId == user.ID {
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "You cannot change your own role!", nil)
	}
	if err := database.Database.Db.Model(user).Update("role", reqData.Role).Error; err != nil {
		return fail(c, err)
	}
	user.Role = reqData.Role
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully.", user)
}

func PermissionsByUserID(c *fiber.Ctx) error {
	user, err := targetUser(c)
	if user == nil {
		return err
	}
	var permissions []string
	if err := database.Database.Db.Model(&models.Permission{}).
		Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Order("permission asc").
		Pluck("permission", &permissions).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Permission List.", fiber.Map{
		"userId":      user.ID,
		"role":        user.Role,
		"permissions": permissions,
	})
}

// GrantPermission is idempotent; a revoked grant is restored.
func GrantPermission(c *fiber.Ctx) error {
	user, err := targetUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPermission").(*superAdminValidator.PermissionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	var grant models.Permission
	if err := db.Where("user_id = ? AND permission = ?", user.ID, reqData.Permission).Limit(1).Find(&grant).Error; err != nil {
		return fail(c, err)
	}
	if grant.ID == 0 {
		grant = models.Permission{UserID: user.ID, Permission: reqData.Permission}
		if err := db.Create(&grant).Error; err != nil {
			return fail(c, err)
		}
	} else if grant.IsDeleted {
		if err := db.Model(&grant).Update("is_deleted", false).Error; err != nil {
			return fail(c, err)
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Permission granted.", nil)
}

func RevokePermission(c *fiber.Ctx) error {
	user, err := targetUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPermission").(*superAdminValidator.PermissionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	res := database.Database.Db.Model(&models.Permission{}).
		Where("user_id = ? AND permission = ? AND is_deleted = ?", user.ID, reqData.Permission, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return fail(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Permission not granted!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Permission revoked.", nil)
}

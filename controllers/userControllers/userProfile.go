package userController

import (
	"errors"

	"learnhub/database"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/services"
	userValidator "learnhub/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func loadUser(c *fiber.Ctx) (*models.User, error) {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}
		return nil, middleware.ErrorResponse(c, services.App.Log, err)
	}
	return &user, nil
}

// GetProfile returns the caller with their points and streak
func GetProfile(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	ctx := c.UserContext()
	points, err := services.App.Gamification.Summary(ctx, user.ID)
	if err != nil {
		return middleware.ErrorResponse(c, services.App.Log, err)
	}
	streak, err := services.App.Gamification.GetStreak(ctx, user.ID)
	if err != nil {
		return middleware.ErrorResponse(c, services.App.Log, err)
	}
	unread, err := services.App.Notifications.UnreadCount(ctx, user.ID)
	if err != nil {
		return middleware.ErrorResponse(c, services.App.Log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", fiber.Map{
		"user":                user,
		"points":              points,
		"streak":              streak,
		"unreadNotifications": unread,
	})
}

func UpdateProfile(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	user.Name = reqData.Name
	user.ProfileImage = reqData.ProfileImage
	if err := database.Database.Db.Model(user).Updates(map[string]interface{}{
		"name":          user.Name,
		"profile_image": user.ProfileImage,
	}).Error; err != nil {
		return middleware.ErrorResponse(c, services.App.Log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

package controllers

import (
	"errors"

	"learnhub/database"
	"learnhub/middleware"
	"learnhub/models"
	courseModels "learnhub/models/course"
	"learnhub/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func fail(c *fiber.Ctx, err error) error {
	return middleware.ErrorResponse(c, services.App.Log, err)
}

func currentUser(c *fiber.Ctx) (uint, bool) {
	userId, ok := c.Locals("userId").(uint)
	return userId, ok && userId > 0
}

// manageableCourse loads a course the caller may edit: admins edit any,
// instructors only their own. A nil course means the response was written.
func manageableCourse(c *fiber.Ctx, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return nil, fail(c, err)
	}
	userId, _ := currentUser(c)
	if role, _ := c.Locals("role").(string); role != models.RoleAdmin && course.InstructorID != userId {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! You do not own this course.", nil)
	}
	return &course, nil
}

// manageableModule loads a module of a course the caller may edit.
func manageableModule(c *fiber.Ctx, courseID, moduleID uint) (*courseModels.Module, error) {
	if course, err := manageableCourse(c, courseID); course == nil {
		return nil, err
	}
	var module courseModels.Module
	err := database.Database.Db.Where("id = ? AND course_id = ? AND is_deleted = ?", moduleID, courseID, false).First(&module).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
		}
		return nil, fail(c, err)
	}
	return &module, nil
}

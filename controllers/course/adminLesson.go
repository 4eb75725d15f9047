package controllers

import (
	"errors"

	"learnhub/database"
	"learnhub/middleware"
	courseModels "learnhub/models/course"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminCreateLesson adds an unpublished lesson to a module
func AdminCreateLesson(c *fiber.Ctx) error {
	module, err := manageableModule(c, c.Locals("courseId").(uint), c.Locals("moduleId").(uint))
	if module == nil {
		return err
	}
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lesson := courseModels.Lesson{
		CourseID:        module.CourseID,
		ModuleID:        module.ID,
		Title:           reqData.Title,
		Description:     reqData.Description,
		VideoURL:        reqData.VideoURL,
		DurationSeconds: reqData.DurationSeconds,
		OrderIndex:      reqData.OrderIndex,
	}
	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

func lessonForEdit(c *fiber.Ctx) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", c.Locals("lessonId").(uint), false).First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
		}
		return nil, fail(c, err)
	}
	if course, err := manageableCourse(c, lesson.CourseID); course == nil {
		return nil, err
	}
	return &lesson, nil
}

func AdminUpdateLesson(c *fiber.Ctx) error {
	lesson, err := lessonForEdit(c)
	if lesson == nil {
		return err
	}
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if err := database.Database.Db.Model(lesson).Updates(map[string]interface{}{
		"title":            reqData.Title,
		"description":      reqData.Description,
		"video_url":        reqData.VideoURL,
		"duration_seconds": reqData.DurationSeconds,
		"order_index":      reqData.OrderIndex,
	}).Error; err != nil {
		return fail(c, err)
	}
	if err := database.Database.Db.First(lesson, lesson.ID).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminPublishLesson toggles a lesson's visibility. Completion percentages
// follow immediately since they count published lessons only.
func AdminPublishLesson(c *fiber.Ctx) error {
	lesson, err := lessonForEdit(c)
	if lesson == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if err := database.Database.Db.Model(lesson).Update("is_published", *reqData.Publish).Error; err != nil {
		return fail(c, err)
	}
	lesson.IsPublished = *reqData.Publish
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminDeleteLesson soft deletes a lesson
func AdminDeleteLesson(c *fiber.Ctx) error {
	lesson, err := lessonForEdit(c)
	if lesson == nil {
		return err
	}
	if err := database.Database.Db.Model(lesson).Updates(map[string]interface{}{
		"is_deleted":   true,
		"is_published": false,
	}).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

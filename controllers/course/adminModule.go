package controllers

import (
	"learnhub/database"
	"learnhub/middleware"
	courseModels "learnhub/models/course"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateModule adds an unpublished module to a course
func AdminCreateModule(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedModule").(*courseValidator.ModuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	module := courseModels.Module{
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
	}
	if err := database.Database.Db.Create(&module).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

func AdminPublishModule(c *fiber.Ctx) error {
	module, err := manageableModule(c, c.Locals("courseId").(uint), c.Locals("moduleId").(uint))
	if module == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if err := database.Database.Db.Model(module).Update("is_published", *reqData.Publish).Error; err != nil {
		return fail(c, err)
	}
	module.IsPublished = *reqData.Publish
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

// AdminListModules lists a course's modules with all of their lessons
func AdminListModules(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	var modules []courseModels.Module
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc, id asc").Find(&modules).Error; err != nil {
		return fail(c, err)
	}
	var lessons []courseModels.Lesson
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc, id asc").Find(&lessons).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules fetched successfully!", fiber.Map{
		"modules": modules,
		"lessons": lessons,
	})
}

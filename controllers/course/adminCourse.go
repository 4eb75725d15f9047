package controllers

import (
	"time"

	"learnhub/database"
	"learnhub/middleware"
	"learnhub/models"
	courseModels "learnhub/models/course"
	"learnhub/services"
	"learnhub/services/events"
	"learnhub/utils"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateCourse creates a new unpublished course owned by the caller
func AdminCreateCourse(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course := courseModels.Course{
		Title:        reqData.Title,
		Description:  reqData.Description,
		InstructorID: userId,
		Price:        reqData.Price,
		Currency:     reqData.Currency,
		ThumbnailURL: reqData.ThumbnailURL,
	}
	if course.Currency == "" {
		course.Currency = "INR"
	}
	if err := database.Database.Db.Create(&course).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// AdminUpdateCourse updates an existing course
func AdminUpdateCourse(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	updates := map[string]interface{}{
		"title":         reqData.Title,
		"description":   reqData.Description,
		"price":         reqData.Price,
		"thumbnail_url": reqData.ThumbnailURL,
	}
	if reqData.Currency != "" {
		updates["currency"] = reqData.Currency
	}
	if err := database.Database.Db.Model(course).Updates(updates).Error; err != nil {
		return fail(c, err)
	}
	if err := database.Database.Db.First(course, course.ID).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// AdminDeleteCourse soft deletes a course
func AdminDeleteCourse(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	if err := database.Database.Db.Model(course).Updates(map[string]interface{}{
		"is_deleted":   true,
		"is_published": false,
	}).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// AdminGetAllCourses lists every course, drafts included. Instructors see their own.
func AdminGetAllCourses(c *fiber.Ctx) error {
	userId, _ := currentUser(c)
	page, limit, offset := utils.Paginate(c.QueryInt("page", 1), c.QueryInt("limit", 10), 100)

	db := database.Database.Db.Model(&courseModels.Course{}).Where("is_deleted = ?", false)
	if role, _ := c.Locals("role").(string); role != models.RoleAdmin {
		db = db.Where("instructor_id = ?", userId)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, err)
	}
	var courses []courseModels.Course
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// AdminPublishCourse toggles publication. The first publication announces
// the course to every learner.
func AdminPublishCourse(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	if !*reqData.Publish {
		if err := db.Model(course).Update("is_published", false).Error; err != nil {
			return fail(c, err)
		}
		course.IsPublished = false
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Course unpublished successfully!", course)
	}

	if err := db.Model(course).Update("is_published", true).Error; err != nil {
		return fail(c, err)
	}
	first := db.Model(&courseModels.Course{}).
		Where("id = ? AND published_at IS NULL", course.ID).
		Update("published_at", time.Now())
	if first.Error != nil {
		return fail(c, first.Error)
	}
	course.IsPublished = true
	if first.RowsAffected == 1 {
		services.App.Events.Publish(events.Event{
			Type:     events.CoursePublished,
			CourseID: course.ID,
			Data:     map[string]any{"courseTitle": course.Title},
		})
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully!", course)
}

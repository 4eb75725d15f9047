package controllers

import (
	"errors"
	"strings"

	"learnhub/database"
	"learnhub/middleware"
	courseModels "learnhub/models/course"
	"learnhub/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetAllCourses lists published courses
func GetAllCourses(c *fiber.Ctx) error {
	page, limit, offset := utils.Paginate(c.QueryInt("page", 1), c.QueryInt("limit", 10), 100)

	db := database.Database.Db.Model(&courseModels.Course{}).Where("is_published = ? AND is_deleted = ?", true, false)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		db = db.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
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

type moduleView struct {
	courseModels.Module
	Lessons []courseModels.Lesson `json:"lessons"`
}

// GetCourseDetails returns a published course with its published structure
func GetCourseDetails(c *fiber.Ctx) error {
	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", c.Locals("courseId").(uint), true, false).
		First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return fail(c, err)
	}

	var modules []courseModels.Module
	if err := db.Where("course_id = ? AND is_published = ? AND is_deleted = ?", course.ID, true, false).
		Order("order_index asc, id asc").Find(&modules).Error; err != nil {
		return fail(c, err)
	}
	var lessons []courseModels.Lesson
	if err := db.Where("course_id = ? AND is_published = ? AND is_deleted = ?", course.ID, true, false).
		Order("order_index asc, id asc").Find(&lessons).Error; err != nil {
		return fail(c, err)
	}

	byModule := make(map[uint][]courseModels.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	views := make([]moduleView, 0, len(modules))
	total := 0
	for _, m := range modules {
		ls := byModule[m.ID]
		if ls == nil {
			ls = []courseModels.Lesson{}
		}
		total += len(ls)
		views = append(views, moduleView{Module: m, Lessons: ls})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":       course,
		"modules":      views,
		"totalLessons": total,
	})
}

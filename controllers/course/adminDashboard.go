package controllers

import (
	"learnhub/database"
	"learnhub/middleware"
	"learnhub/models"
	courseModels "learnhub/models/course"
	gm "learnhub/models/gamification"
	"learnhub/services"
	"learnhub/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminGetCourseEnrollments lists enrolled students of a course with their cached progress
func AdminGetCourseEnrollments(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	page, limit, offset := utils.Paginate(c.QueryInt("page", 1), c.QueryInt("limit", 10), 100)

	db := database.Database.Db.Model(&courseModels.Enrollment{}).Where("enrollments.course_id = ?", course.ID)
	if status := c.Query("status"); status != "" {
		db = db.Where("enrollments.status = ?", status)
	}
	if c.QueryBool("completed") {
		db = db.Where("enrollments.completed_at IS NOT NULL")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, err)
	}

	type EnrollmentWithUser struct {
		courseModels.Enrollment
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}
	var result []EnrollmentWithUser
	if err := db.Select("enrollments.*, users.name AS user_name, users.email AS user_email").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Order("enrollments.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&result).Error; err != nil {
		return fail(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": result,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// AdminGetStudentProgress reports a student's live completion for one course
func AdminGetStudentProgress(c *fiber.Ctx) error {
	course, err := manageableCourse(c, c.Locals("courseId").(uint))
	if course == nil {
		return err
	}
	progress, perr := services.App.Progress.CourseProgress(c.UserContext(), c.Locals("studentId").(uint), course.ID)
	if perr != nil {
		return fail(c, perr)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Student progress fetched successfully!", progress)
}

// AdminDashboardStats returns platform-wide counters
func AdminDashboardStats(c *fiber.Ctx) error {
	db := database.Database.Db
	counters := []struct {
		key   string
		model interface{}
		where string
		args  []interface{}
	}{
		{"totalUsers", &models.User{}, "is_deleted = ? AND role = ?", []interface{}{false, models.RoleUser}},
		{"totalCourses", &courseModels.Course{}, "is_deleted = ?", []interface{}{false}},
		{"publishedCourses", &courseModels.Course{}, "is_deleted = ? AND is_published = ?", []interface{}{false, true}},
		{"activeEnrollments", &courseModels.Enrollment{}, "status = ?", []interface{}{courseModels.EnrollmentActive}},
		{"completedEnrollments", &courseModels.Enrollment{}, "completed_at IS NOT NULL", nil},
		{"certificatesIssued", &courseModels.Certificate{}, "1 = 1", nil},
		{"badgesEarned", &gm.UserBadge{}, "1 = 1", nil},
	}

	stats := fiber.Map{}
	for _, ct := range counters {
		var n int64
		if err := db.Model(ct.model).Where(ct.where, ct.args...).Count(&n).Error; err != nil {
			return fail(c, err)
		}
		stats[ct.key] = n
	}

	var points struct{ Total int64 }
	if err := db.Model(&gm.UserPoints{}).Select("COALESCE(SUM(total_points), 0) AS total").Scan(&points).Error; err != nil {
		return fail(c, err)
	}
	stats["pointsAwarded"] = points.Total

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", stats)
}
